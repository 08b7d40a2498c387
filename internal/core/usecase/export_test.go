package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
)

type spreadsheetFake struct {
	err     error
	written *domain.Itinerary
}

func (f *spreadsheetFake) Write(it *domain.Itinerary, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	f.written = it
	_, err := w.Write([]byte("xlsx-bytes"))
	return err
}

func TestExportWritesWorkbookAndNamesFile(t *testing.T) {
	repo := newRepoFake()
	repo.stored["itin-1"] = parsedItinerary()
	writer := &spreadsheetFake{}
	uc := NewExportItineraryUseCase(repo, writer)

	var buf bytes.Buffer
	filename, err := uc.ExportXLSX(context.Background(), "itin-1", &buf)
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}
	if filename != "itinerary-itin-1.xlsx" {
		t.Errorf("filename = %q", filename)
	}
	if buf.Len() == 0 {
		t.Error("nothing written")
	}
	if writer.written == nil || writer.written.Destination != "Tokyo" {
		t.Errorf("written = %+v", writer.written)
	}
}

func TestExportPropagatesNotFound(t *testing.T) {
	uc := NewExportItineraryUseCase(newRepoFake(), &spreadsheetFake{})

	var buf bytes.Buffer
	_, err := uc.ExportXLSX(context.Background(), "missing", &buf)
	if !errors.Is(err, domain.ErrItineraryNotFound) {
		t.Fatalf("err = %v, want ErrItineraryNotFound", err)
	}
}

func TestExportWrapsWriterFailure(t *testing.T) {
	repo := newRepoFake()
	repo.stored["itin-1"] = parsedItinerary()
	uc := NewExportItineraryUseCase(repo, &spreadsheetFake{err: errors.New("sheet error")})

	var buf bytes.Buffer
	if _, err := uc.ExportXLSX(context.Background(), "itin-1", &buf); err == nil {
		t.Fatal("expected writer error to propagate")
	}
}
