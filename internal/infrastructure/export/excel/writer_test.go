package excel

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
)

func TestWriteProducesReadableWorkbook(t *testing.T) {
	itinerary := &domain.Itinerary{
		ID:          "itin-1",
		Title:       "Tokyo Adventure",
		Destination: "Tokyo, Japan",
		StartDate:   "2026-04-10",
		EndDate:     "2026-04-11",
		TotalDays:   2,
		TotalCost:   domain.Cost{Amount: 500, Currency: "USD"},
		Travelers:   domain.Travelers{Adults: 2},
		Days: []domain.ItineraryDay{
			{Day: 1, Date: "2026-04-10", Title: "Arrival", Activities: []domain.Activity{
				{Time: "09:00", Title: "Senso-ji Temple", Location: "Asakusa", Cost: 0},
				{Time: "13:00", Title: "Lunch in Asakusa", Cost: 25},
			}},
			{Day: 2, Date: "2026-04-11", Activities: []domain.Activity{
				{Time: "10:00", Title: "Tokyo National Museum", Cost: 10},
			}},
		},
	}

	var buf bytes.Buffer
	if err := NewWriter().Write(itinerary, &buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() {
		_ = f.Close()
	}()

	title, err := f.GetCellValue(sheetName, "A1")
	if err != nil {
		t.Fatalf("read A1: %v", err)
	}
	if title != "Tokyo Adventure" {
		t.Fatalf("A1 = %q", title)
	}

	destination, _ := f.GetCellValue(sheetName, "B2")
	if destination != "Tokyo, Japan" {
		t.Fatalf("B2 = %q", destination)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	var sawDayTwo, sawMuseum bool
	for _, row := range rows {
		for _, cell := range row {
			if cell == "Day 2 - 2026-04-11" {
				sawDayTwo = true
			}
			if cell == "Tokyo National Museum" {
				sawMuseum = true
			}
		}
	}
	if !sawDayTwo || !sawMuseum {
		t.Fatalf("day rows missing (day2=%v museum=%v)", sawDayTwo, sawMuseum)
	}
}

func TestFilenameUsesID(t *testing.T) {
	got := Filename(&domain.Itinerary{ID: "abc"})
	if got != "itinerary-abc.xlsx" {
		t.Fatalf("Filename() = %q", got)
	}
}
