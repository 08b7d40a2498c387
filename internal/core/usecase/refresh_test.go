package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
)

func newRefreshFixture(generator *generatorFake, parser *parserFake, repo *repoFake) *RefreshItineraryUseCase {
	return NewRefreshItineraryUseCase(testExecutor(2), testClassify(), generator, parser, repo)
}

func TestRefreshReplacesStoredItineraryKeepingID(t *testing.T) {
	repo := newRepoFake()
	repo.stored["itin-1"] = parsedItinerary()

	regenerated := parsedItinerary()
	regenerated.ID = "" // the parser assigns a new id; refresh must override it
	regenerated.Title = "Tokyo Revisited"

	generator := &generatorFake{results: []*domain.GenerationResult{{
		Content: `{"title":"Tokyo Revisited"}`,
		Model:   "sonar-pro",
	}}}
	parser := &parserFake{result: domain.ParseResult{
		Success:  true,
		Data:     regenerated,
		Metadata: domain.ParseMetadata{ParseMethod: domain.ParseJSONExtraction, Confidence: 0.92},
	}}
	uc := newRefreshFixture(generator, parser, repo)

	if err := uc.RefreshByID(context.Background(), "itin-1"); err != nil {
		t.Fatalf("RefreshByID: %v", err)
	}
	if repo.updates != 1 {
		t.Fatalf("updates = %d, want 1", repo.updates)
	}
	stored := repo.stored["itin-1"]
	if stored.Title != "Tokyo Revisited" {
		t.Errorf("title = %q", stored.Title)
	}
	if stored.ID != "itin-1" {
		t.Errorf("id = %q, identity must be preserved across refresh", stored.ID)
	}
	if stored.Metadata.Model != "sonar-pro" {
		t.Errorf("model = %q", stored.Metadata.Model)
	}
}

func TestRefreshFailsOnUnknownItinerary(t *testing.T) {
	uc := newRefreshFixture(&generatorFake{}, &parserFake{}, newRepoFake())

	err := uc.RefreshByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrItineraryNotFound) {
		t.Fatalf("err = %v, want ErrItineraryNotFound", err)
	}
}

func TestRefreshKeepsStoredCopyOnParseFailure(t *testing.T) {
	repo := newRepoFake()
	repo.stored["itin-1"] = parsedItinerary()
	generator := &generatorFake{results: []*domain.GenerationResult{{Content: "garbage"}}}
	parser := &parserFake{result: domain.ParseResult{
		Success: false,
		Errors:  []domain.ValidationIssue{{Message: "no itinerary structure found"}},
	}}
	uc := newRefreshFixture(generator, parser, repo)

	err := uc.RefreshByID(context.Background(), "itin-1")
	if err == nil {
		t.Fatal("expected an error on parse failure")
	}
	if !strings.Contains(err.Error(), "parse failed") {
		t.Errorf("err = %v", err)
	}
	if repo.updates != 0 {
		t.Error("a failed refresh must not overwrite the stored itinerary")
	}
}

func TestRefreshRejectsReconstructedResults(t *testing.T) {
	repo := newRepoFake()
	repo.stored["itin-1"] = parsedItinerary()
	generator := &generatorFake{results: []*domain.GenerationResult{{Content: "a trip to Tokyo maybe"}}}
	parser := &parserFake{result: domain.ParseResult{
		Success:  true,
		Data:     parsedItinerary(),
		Metadata: domain.ParseMetadata{ParseMethod: domain.ParseReconstruction, Confidence: 0.3},
	}}
	uc := newRefreshFixture(generator, parser, repo)

	if err := uc.RefreshByID(context.Background(), "itin-1"); err == nil {
		t.Fatal("a reconstructed skeleton must not replace a stored itinerary")
	}
	if repo.updates != 0 {
		t.Errorf("updates = %d, want 0", repo.updates)
	}
}

func TestRefreshMarksRetryableFailuresTemporary(t *testing.T) {
	repo := newRepoFake()
	repo.stored["itin-1"] = parsedItinerary()
	generator := &generatorFake{errs: []error{
		errors.New("connection refused"),
		errors.New("connection refused"),
	}}
	uc := newRefreshFixture(generator, &parserFake{}, repo)

	err := uc.RefreshByID(context.Background(), "itin-1")
	if !errors.Is(err, domain.ErrTemporary) {
		t.Fatalf("err = %v, want ErrTemporary", err)
	}
}
