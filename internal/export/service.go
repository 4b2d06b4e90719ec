package export

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/ingest"
)

const (
	summarySheet = "Documents"
	fieldsSheet  = "Fields"
)

// Service renders batch results as an XLSX report.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportResultsXLSX returns a workbook with one summary row per file on the
// Documents sheet and one row per extracted field on the Fields sheet.
func (s *Service) ExportResultsXLSX(results []ingest.FileResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(fieldsSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(summarySheet)
	f.SetActiveSheet(activeIndex)

	writeHeaders(f, summarySheet, []string{
		"File",
		"Status",
		"Document Type",
		"Language",
		"Summary",
		"Method",
		"Error",
		"Source Path",
	})
	writeHeaders(f, fieldsSheet, []string{"File", "Document Type", "Field", "Value"})

	row, fieldRow := 2, 2
	for _, r := range results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(summarySheet, cell, v)
		}
		name := filepath.Base(r.Path)
		errText := r.Err

		write(1, name)
		write(2, string(r.Status))
		write(3, string(r.DocumentType))
		if a := r.Analysis; a != nil {
			if a.Failed() {
				errText = a.Error
			} else {
				write(4, a.Language)
				write(5, truncate(a.Summary, 300))

				for _, key := range orderedKeys(r.DocumentType, a.ExtractedData) {
					for col, v := range []string{name, string(r.DocumentType), key, a.ExtractedData[key]} {
						cell, _ := excelize.CoordinatesToCellName(col+1, fieldRow)
						_ = f.SetCellValue(fieldsSheet, cell, v)
					}
					fieldRow++
				}
			}
		}
		write(6, r.Method)
		write(7, truncate(errText, 300))
		write(8, r.Path)
		row++
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 28) // file
	_ = f.SetColWidth(summarySheet, "B", "D", 16) // status, type, language
	_ = f.SetColWidth(summarySheet, "E", "E", 60) // summary
	_ = f.SetColWidth(summarySheet, "F", "F", 12) // method
	_ = f.SetColWidth(summarySheet, "G", "G", 40) // error
	_ = f.SetColWidth(summarySheet, "H", "H", 60) // path
	_ = f.SetColWidth(fieldsSheet, "A", "B", 24)
	_ = f.SetColWidth(fieldsSheet, "C", "C", 24)
	_ = f.SetColWidth(fieldsSheet, "D", "D", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"rows", len(results),
		"field_rows", fieldRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

// orderedKeys lists fixed-template fields in template order, then anything
// else alphabetically.
func orderedKeys(t constants.DocumentType, data map[string]string) []string {
	keys := make([]string, 0, len(data))
	seen := make(map[string]bool, len(data))
	for _, k := range constants.FieldSet(t) {
		if _, ok := data[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range data {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
