package excel

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/prepbot/pkg/models"
)

// ExportProgress writes a progress snapshot to an Excel file with a summary
// sheet and a per-item detail sheet. Returns the path of the written file.
func ExportProgress(export *models.ProgressExport, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	const itemsSheet = "Items"

	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(itemsSheet)

	if err := writeSummary(f, summarySheet, export); err != nil {
		return err
	}
	if err := writeItems(f, itemsSheet, export); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save export: %v", err)
	}
	return nil
}

func writeSummary(f *excelize.File, sheet string, export *models.ProgressExport) error {
	stats := export.Statistics
	rows := [][]interface{}{
		{"User ID", export.UserID},
		{"Exported at", export.ExportDate.Format(time.RFC3339)},
		{},
		{"Total items", stats.TotalItems},
		{"New", stats.NewItems},
		{"Learning", stats.LearningItems},
		{"Review", stats.ReviewItems},
		{"Mastered", stats.MasteredItems},
		{"Due now", stats.DueItems},
		{"Total reviews", stats.TotalReviews},
		{"Accuracy", fmt.Sprintf("%.1f%%", stats.AccuracyRate*100)},
	}

	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %v", err)
		}
	}
	return nil
}

func writeItems(f *excelize.File, sheet string, export *models.ProgressExport) error {
	header := []interface{}{
		"Item", "Type", "Stage", "Interval (days)", "Ease",
		"Repetitions", "Reviews", "Accuracy", "Retention", "Next review",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %v", err)
	}

	// Stable row order for diffable exports
	ids := make([]string, 0, len(export.Records))
	for id := range export.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for i, id := range ids {
		rec := export.Records[id]
		row := []interface{}{
			rec.ItemID,
			string(rec.ItemType),
			string(rec.Stage),
			rec.Interval,
			rec.EaseFactor,
			rec.Repetitions,
			rec.TotalReviews,
			fmt.Sprintf("%.1f%%", rec.Accuracy()*100),
			fmt.Sprintf("%.2f", export.Retention[id]),
			rec.NextReviewAt.Format("2006-01-02 15:04"),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write item row: %v", err)
		}
	}
	return nil
}
