package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

func (e *Extractor) extractPDF(ctx context.Context, logger *slog.Logger, doc Document, deadline time.Time) Result {
	text, pages, err := pdfText(doc.Data)
	if err == nil && text != "" {
		return Result{Text: text, Method: "pdf-text", Pages: pages}
	}

	res := Result{Method: "pdf-ocr"}
	if err != nil {
		res.Warnings = append(res.Warnings, "pdf-text: "+err.Error())
	}
	logger.Info("extract.pdf.ocr_fallback", "filename", doc.Name, "pages", pages, "direct_error", err)

	if e.raster == nil || e.ocr == nil {
		res.Warnings = append(res.Warnings, "pdf-ocr: no rasterizer configured")
		return res
	}

	path := doc.Path
	if path == "" {
		spilled, cleanup, err := spill(doc.Data)
		if err != nil {
			res.Warnings = append(res.Warnings, "pdf-ocr: "+err.Error())
			logger.Error("extract.pdf.spill_failed", "error", err)
			return res
		}
		defer cleanup()
		path = spilled
	}

	limit := e.cfg.PDFMaxPages
	if pages > 0 && pages < limit {
		limit = pages
	}

	var parts []string
	for page := 1; page <= limit; page++ {
		if !e.now().Before(deadline) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("pdf-ocr: deadline reached before page %d", page))
			logger.Warn("extract.pdf.deadline", "page", page)
			break
		}
		img, err := e.raster.RasterizePage(ctx, path, page, e.cfg.PDFDPI)
		if err != nil {
			if pages == 0 {
				// page count unknown, treat the first unrenderable page as the end
				logger.Debug("extract.pdf.raster_stop", "page", page, "error", err)
				if page == 1 {
					res.Warnings = append(res.Warnings, "pdf-ocr: "+err.Error())
				}
				break
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("pdf-ocr page %d: %v", page, err))
			logger.Warn("extract.pdf.page_skipped", "page", page, "error", err)
			continue
		}
		res.Pages = page

		out := e.ocr.RecognizeFast(ctx, img, deadline)
		text := strings.TrimSpace(out.Text)
		if text == "" {
			for _, f := range out.Failures {
				res.Warnings = append(res.Warnings, fmt.Sprintf("pdf-ocr page %d: %s", page, f))
			}
			continue
		}
		parts = append(parts, text)
	}

	res.Text = strings.TrimSpace(strings.Join(parts, "\n"))
	return res
}

// pdfText extracts embedded text page by page. pages is 0 when the document
// could not be opened. The parser panics on some malformed inputs.
func pdfText(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}
	pages = r.NumPage()

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		t, perr := p.GetPlainText(nil)
		if perr != nil {
			continue
		}
		b.WriteString(t)
	}
	return strings.TrimSpace(b.String()), pages, nil
}

func spill(data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "kyc-pdf-*.pdf")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}
