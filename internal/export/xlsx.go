// Package export builds XLSX workbooks from validation outcomes.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/danielbnavia/navia-doc-validator/internal/models"
)

const sheetName = "Validations"

// HistoryWorkbook renders persisted validation records into a workbook.
func HistoryWorkbook(records []models.ValidationRecord) (*excelize.File, error) {
	headers := []string{"ID", "File", "Size (bytes)", "Media Type", "Success",
		"Validation Status", "Error", "Input Tokens", "Output Tokens", "Created At"}
	f, err := newSheet(headers)
	if err != nil {
		return nil, err
	}
	for i, rec := range records {
		row := []any{rec.ID, rec.FileName, rec.FileSize, rec.MediaType, rec.Success,
			rec.ValidationStatus, rec.Error, rec.InputTokens, rec.OutputTokens,
			rec.CreatedAt.Format("2006-01-02 15:04:05")}
		if err := writeRow(f, i+2, row); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// BatchWorkbook renders one batch run's per-file outcomes into a workbook.
func BatchWorkbook(outcomes []models.FileOutcome) (*excelize.File, error) {
	headers := []string{"File", "Status", "Validation Status", "Confidence",
		"Issues", "Error", "Input Tokens", "Output Tokens"}
	f, err := newSheet(headers)
	if err != nil {
		return nil, err
	}
	for i, outcome := range outcomes {
		row := outcomeRow(outcome)
		if err := writeRow(f, i+2, row); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func outcomeRow(outcome models.FileOutcome) []any {
	row := []any{outcome.FileName, string(outcome.Status), "", "", 0, outcome.ErrorMessage, int64(0), int64(0)}
	if outcome.Payload != nil {
		row[2] = string(outcome.Payload.ValidationStatus)
		if outcome.Payload.Confidence != nil {
			row[3] = fmt.Sprintf("%.0f%%", *outcome.Payload.Confidence*100)
		}
		row[4] = len(outcome.Payload.Issues)
	}
	if outcome.Usage != nil {
		row[6] = outcome.Usage.InputTokens
		row[7] = outcome.Usage.OutputTokens
	}
	return row
}

func newSheet(headers []string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	if err := writeRow(f, 1, toAny(headers)); err != nil {
		f.Close()
		return nil, err
	}
	widths := []float64{10, 32, 14, 20, 10, 18, 40, 14, 14, 20}
	for i := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			f.Close()
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}
	return f, nil
}

func writeRow(f *excelize.File, rowIdx int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return fmt.Errorf("cell coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", rowIdx, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
