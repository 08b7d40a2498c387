package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
)

const sheetName = "Itinerary"

// Writer renders an itinerary as a one-sheet workbook: a header block,
// then one row per activity grouped under day rows.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Write(itinerary *domain.Itinerary, out io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	set := func(cell string, value any) {
		_ = f.SetCellValue(sheetName, cell, value)
	}

	set("A1", itinerary.Title)
	set("A2", "Destination")
	set("B2", itinerary.Destination)
	set("A3", "Dates")
	set("B3", fmt.Sprintf("%s to %s", itinerary.StartDate, itinerary.EndDate))
	set("A4", "Travelers")
	set("B4", fmt.Sprintf("%d adults, %d children, %d infants",
		itinerary.Travelers.Adults, itinerary.Travelers.Children, itinerary.Travelers.Infants))
	set("A5", "Total cost")
	set("B5", fmt.Sprintf("%.2f %s", itinerary.TotalCost.Amount, itinerary.TotalCost.Currency))

	row := 7
	for _, day := range itinerary.Days {
		header := fmt.Sprintf("Day %d", day.Day)
		if day.Date != "" {
			header += " - " + day.Date
		}
		if day.Title != "" {
			header += ": " + day.Title
		}
		set(fmt.Sprintf("A%d", row), header)
		row++

		set(fmt.Sprintf("A%d", row), "Time")
		set(fmt.Sprintf("B%d", row), "Activity")
		set(fmt.Sprintf("C%d", row), "Location")
		set(fmt.Sprintf("D%d", row), "Cost")
		row++

		for _, activity := range day.Activities {
			set(fmt.Sprintf("A%d", row), activity.Time)
			set(fmt.Sprintf("B%d", row), activity.Title)
			set(fmt.Sprintf("C%d", row), activity.Location)
			if activity.Cost > 0 {
				set(fmt.Sprintf("D%d", row), activity.Cost)
			}
			row++
		}
		row++
	}

	if err := f.SetColWidth(sheetName, "A", "A", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheetName, "B", "C", 36); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Filename suggests a download name for the exported workbook.
func Filename(itinerary *domain.Itinerary) string {
	return fmt.Sprintf("itinerary-%s.xlsx", itinerary.ID)
}
