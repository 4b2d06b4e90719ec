package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"log/slog"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/xuri/excelize/v2"
)

func (e *Extractor) extractTabular(logger *slog.Logger, doc Document, ext string) Result {
	res := Result{Method: ext, Pages: 1}

	var (
		rows [][]string
		err  error
	)
	if ext == "xlsx" {
		rows, err = readXLSX(doc.Data)
	} else {
		rows, err = readCSV(doc.Data)
	}
	if err != nil {
		logger.Warn("extract.tabular.failed", "filename", doc.Name, "ext", ext, "error", err)
		res.Warnings = append(res.Warnings, ext+": "+err.Error())
		return res
	}
	res.Text = renderTable(rows)
	return res
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// readXLSX returns the rows of the first sheet.
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// renderTable prints the first row as the header and the rest below it,
// columns padded with spaces, without borders or a row index.
func renderTable(rows [][]string) string {
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return ""
	}
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	flatten := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
	for i, r := range rows {
		for j, cell := range r {
			// multi-line cells would otherwise spill onto detached rows
			r[j] = flatten.Replace(cell)
		}
		if len(r) < width {
			rows[i] = append(r, make([]string, width-len(r))...)
		}
	}

	var buf bytes.Buffer
	tw := tablewriter.NewWriter(&buf)
	tw.SetHeader(rows[0])
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetBorder(false)
	tw.SetHeaderLine(false)
	tw.SetRowLine(false)
	tw.SetColumnSeparator("")
	tw.SetCenterSeparator("")
	tw.SetRowSeparator("")
	tw.SetTablePadding("  ")
	tw.SetNoWhiteSpace(true)
	tw.AppendBulk(rows[1:])
	tw.Render()

	lines := strings.Split(buf.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, r := range rows {
		for _, c := range r {
			if strings.TrimSpace(c) != "" {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
