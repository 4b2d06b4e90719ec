package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/common"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/ocr"
)

type fakeOCR struct {
	full, fast int
	fastText   func(n int) string
	fullText   string
	deadlines  []time.Time
}

func (f *fakeOCR) Recognize(_ context.Context, _ image.Image, deadline time.Time) ocr.Outcome {
	f.full++
	f.deadlines = append(f.deadlines, deadline)
	return ocr.Outcome{Text: f.fullText}
}

func (f *fakeOCR) RecognizeFast(_ context.Context, _ image.Image, deadline time.Time) ocr.Outcome {
	f.fast++
	f.deadlines = append(f.deadlines, deadline)
	if f.fastText == nil {
		return ocr.Outcome{}
	}
	return ocr.Outcome{Text: f.fastText(f.fast)}
}

type fakeRaster struct {
	pages   []int
	fail    map[int]error
	maxPage int
	before  func(page int)
}

func (f *fakeRaster) RasterizePage(_ context.Context, _ string, page, _ int) (image.Image, error) {
	if f.before != nil {
		f.before(page)
	}
	if f.maxPage > 0 && page > f.maxPage {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	if err := f.fail[page]; err != nil {
		return nil, err
	}
	f.pages = append(f.pages, page)
	return image.NewGray(image.Rect(0, 0, 2, 2)), nil
}

func buildDOCX(t *testing.T, paras ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paras {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`
	rels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"word/document.xml":            doc,
		"word/_rels/document.xml.rels": rels,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// buildPDF writes a one-page PDF whose content stream shows text with a
// standard Type1 font, so the document carries a real text layer.
func buildPDF(t *testing.T, text string) []byte {
	t.Helper()
	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func newTestExtractor(o OCR, r ocr.Rasterizer) *Extractor {
	return NewExtractor(Config{OCRDeadline: time.Minute, PDFMaxPages: 3, PDFDPI: 200}, o, r, nil)
}

func TestExtractDOCXParagraphs(t *testing.T) {
	e := newTestExtractor(nil, nil)
	res, err := e.Extract(context.Background(), Document{Name: "kyc.DOCX", Data: buildDOCX(t, "A", "B", "C")})
	require.NoError(t, err)
	assert.Equal(t, "A\nB\nC", res.Text)
	assert.Equal(t, constants.DOCX, res.Format)
}

func TestExtractDOCXNoParagraphs(t *testing.T) {
	e := newTestExtractor(nil, nil)
	res, err := e.Extract(context.Background(), Document{Name: "empty.docx", Data: buildDOCX(t)})
	require.NoError(t, err)
	assert.Equal(t, "", res.Text)
	assert.Empty(t, res.Warnings)
}

func TestExtractDOCXCorrupt(t *testing.T) {
	e := newTestExtractor(nil, nil)
	res, err := e.Extract(context.Background(), Document{Name: "bad.docx", Data: []byte("not a zip")})
	require.NoError(t, err)
	assert.Equal(t, "", res.Text)
	assert.NotEmpty(t, res.Warnings)
}

func TestParagraphsRunsAndTabs(t *testing.T) {
	xml := `<w:document xmlns:w="w"><w:body>` +
		`<w:p><w:r><w:t>Name:</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> RAVI</w:t></w:r></w:p>` +
		`<w:p/>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
		`</w:body></w:document>`
	paras, err := paragraphs(xml)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name:\t RAVI", "", "cell"}, paras)
}

func TestExtractTXT(t *testing.T) {
	e := newTestExtractor(nil, nil)

	res, err := e.Extract(context.Background(), Document{Name: "note.txt", Data: []byte("  Invoice Number: INV-001\n")})
	require.NoError(t, err)
	assert.Equal(t, "Invoice Number: INV-001", res.Text)

	res, err = e.Extract(context.Background(), Document{Name: "bin.txt", Data: []byte{0xff, 0xfe, 0xfd}})
	require.NoError(t, err)
	assert.Equal(t, "", res.Text)
	assert.NotEmpty(t, res.Warnings)
}

func TestExtractCSV(t *testing.T) {
	e := newTestExtractor(nil, nil)
	res, err := e.Extract(context.Background(), Document{Name: "people.csv", Data: []byte("Name,Age\nAlice,30\n")})
	require.NoError(t, err)
	assert.Equal(t, "Name   Age\nAlice  30", res.Text)
	assert.Less(t, strings.Index(res.Text, "Name"), strings.Index(res.Text, "Age"))
	assert.Less(t, strings.Index(res.Text, "Alice"), strings.Index(res.Text, "30"))
}

func TestExtractCSVRaggedAndMalformed(t *testing.T) {
	e := newTestExtractor(nil, nil)
	res, err := e.Extract(context.Background(), Document{Name: "r.csv", Data: []byte("a,b,c\n1\n")})
	require.NoError(t, err)
	lines := strings.Split(res.Text, "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, `^a\s+b\s+c$`, lines[0])
	assert.Equal(t, "1", lines[1])

	res, err = e.Extract(context.Background(), Document{Name: "m.csv", Data: []byte("a,\"b\nc")})
	require.NoError(t, err)
	assert.Equal(t, "", res.Text)
	assert.NotEmpty(t, res.Warnings)
}

func TestExtractCSVMultilineCellStaysOnItsRow(t *testing.T) {
	e := newTestExtractor(nil, nil)
	res, err := e.Extract(context.Background(), Document{Name: "addr.csv", Data: []byte("Name,Address\r\nRavi,\"12 MG Road\r\nPune\"\r\n")})
	require.NoError(t, err)
	lines := strings.Split(res.Text, "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, `^Name\s+Address$`, lines[0])
	assert.Regexp(t, `^Ravi\s+12 MG Road Pune$`, lines[1])
}

func TestExtractXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Account Number", "Amount"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"AC-77", 1200}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	e := newTestExtractor(nil, nil)
	res, err := e.Extract(context.Background(), Document{Name: "bill.xlsx", Data: buf.Bytes()})
	require.NoError(t, err)
	lines := strings.Split(res.Text, "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, `^Account Number\s+Amount$`, lines[0])
	assert.Regexp(t, `^AC-77\s+1200$`, lines[1])
	assert.Equal(t, "xlsx", res.Method)
}

func TestExtractEmptyFilesYieldNoText(t *testing.T) {
	o := &fakeOCR{}
	r := &fakeRaster{maxPage: -1, fail: map[int]error{1: errors.New("no pages")}}
	e := newTestExtractor(o, r)
	for _, name := range []string{"a.pdf", "a.docx", "a.txt", "a.csv", "a.xlsx", "a.png", "a.jpg", "a.jpeg"} {
		res, err := e.Extract(context.Background(), Document{Name: name, Data: []byte{}})
		require.NoError(t, err, name)
		assert.Equal(t, "", res.Text, name)
	}
	assert.Equal(t, 0, o.full, "undecodable images never reach OCR")
}

func TestExtractUnsupported(t *testing.T) {
	e := newTestExtractor(nil, nil)
	_, err := e.Extract(context.Background(), Document{Name: "x.gif", Data: []byte("GIF89a")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnsupportedFormat))
}

func TestPDFDirectTextSkipsOCR(t *testing.T) {
	o := &fakeOCR{fastText: func(int) string { return "ocr text" }}
	r := &fakeRaster{}
	e := newTestExtractor(o, r)

	res, err := e.Extract(context.Background(), Document{Name: "invoice.pdf", Data: buildPDF(t, "Invoice Number: INV-001")})
	require.NoError(t, err)
	assert.Equal(t, "pdf-text", res.Method)
	assert.Equal(t, "Invoice Number: INV-001", res.Text)
	assert.Equal(t, 1, res.Pages)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, r.pages, "text PDFs are never rasterized")
	assert.Zero(t, o.fast)
	assert.Zero(t, o.full)
}

func TestPDFFallbackOCRsBoundedPages(t *testing.T) {
	o := &fakeOCR{fastText: func(n int) string {
		if n == 2 {
			return ""
		}
		return fmt.Sprintf(" page %d text ", n)
	}}
	r := &fakeRaster{fail: map[int]error{}}
	e := newTestExtractor(o, r)

	res, err := e.Extract(context.Background(), Document{Name: "scan.pdf", Data: []byte("%PDF-garbage"), MIMEHint: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, []int{1, 2, 3}, r.pages, "bounded to PDFMaxPages")
	assert.Equal(t, "page 1 text\npage 3 text", res.Text)
	assert.Equal(t, 3, o.fast)
	assert.Equal(t, 0, o.full, "pdf pages use the fast pass")
}

func TestPDFFallbackSkipsFailingPage(t *testing.T) {
	o := &fakeOCR{fastText: func(n int) string { return fmt.Sprintf("p%d", n) }}
	r := &fakeRaster{maxPage: 2}
	e := newTestExtractor(o, r)

	res, err := e.Extract(context.Background(), Document{Name: "scan.pdf", Data: []byte("garbage")})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, r.pages)
	assert.Equal(t, "p1\np2", res.Text)
}

func TestPDFFallbackStopsAtDeadline(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	o := &fakeOCR{fastText: func(n int) string { return "ok" }}
	r := &fakeRaster{before: func(int) { clock = clock.Add(40 * time.Second) }}
	e := newTestExtractor(o, r)
	e.now = func() time.Time { return clock }

	res, err := e.Extract(context.Background(), Document{Name: "scan.pdf", Data: []byte("garbage")})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, r.pages, "third page starts after the 60s budget")
	assert.Equal(t, "ok\nok", res.Text)
	assert.Contains(t, strings.Join(res.Warnings, ";"), "deadline")
}

func TestDeadlineFromContextWins(t *testing.T) {
	o := &fakeOCR{fullText: "PASSPORT"}
	e := newTestExtractor(o, nil)
	deadline := time.Now().Add(3 * time.Second)
	ctx := common.WithOCRDeadline(context.Background(), deadline)

	res, err := e.Extract(ctx, Document{Name: "id.png", Data: pngBytes(t)})
	require.NoError(t, err)
	assert.Equal(t, "PASSPORT", res.Text)
	require.Len(t, o.deadlines, 1)
	assert.Equal(t, deadline, o.deadlines[0])
}

func TestExtractImageUsesFullCascade(t *testing.T) {
	o := &fakeOCR{fullText: "INCOME TAX DEPARTMENT"}
	e := newTestExtractor(o, nil)
	res, err := e.Extract(context.Background(), Document{Name: "pan.JPG", Data: pngBytes(t)})
	require.NoError(t, err)
	assert.Equal(t, "INCOME TAX DEPARTMENT", res.Text)
	assert.Equal(t, 1, o.full)
	assert.Equal(t, 0, o.fast)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(2, 2, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
