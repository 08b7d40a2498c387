package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
	"github.com/tripforge/itinerary-ai/internal/core/ports"
)

// ExportItineraryUseCase renders a stored itinerary as an XLSX workbook.
type ExportItineraryUseCase struct {
	repo   ports.ItineraryRepository
	writer ports.SpreadsheetWriter
}

func NewExportItineraryUseCase(repo ports.ItineraryRepository, writer ports.SpreadsheetWriter) *ExportItineraryUseCase {
	return &ExportItineraryUseCase{repo: repo, writer: writer}
}

func (uc *ExportItineraryUseCase) ExportXLSX(ctx context.Context, id string, w io.Writer) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "export itinerary",
			fmt.Errorf("itinerary id is required"))
	}

	itinerary, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if err := uc.writer.Write(itinerary, w); err != nil {
		return "", fmt.Errorf("render itinerary workbook: %w", err)
	}
	return fmt.Sprintf("itinerary-%s.xlsx", itinerary.ID), nil
}
