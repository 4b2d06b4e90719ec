package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/common"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/ocr"
)

type Config struct {
	OCRDeadline time.Duration // budget for all OCR work on one document, default 55s
	PDFMaxPages int           // OCR fallback page bound, default 5
	PDFDPI      int           // rasterization DPI, default 200
}

// Extractor routes a document to the extractor for its format.
type Extractor struct {
	cfg    Config
	ocr    OCR
	raster ocr.Rasterizer
	now    func() time.Time
	logger *slog.Logger
}

func NewExtractor(cfg Config, engine OCR, raster ocr.Rasterizer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OCRDeadline <= 0 {
		cfg.OCRDeadline = 55 * time.Second
	}
	if cfg.PDFMaxPages <= 0 {
		cfg.PDFMaxPages = 5
	}
	if cfg.PDFDPI <= 0 {
		cfg.PDFDPI = 200
	}
	return &Extractor{cfg: cfg, ocr: engine, raster: raster, now: time.Now, logger: logger}
}

// Extract returns the document's text. An empty Result.Text with a nil error
// means every applicable strategy came back empty.
func (e *Extractor) Extract(ctx context.Context, doc Document) (Result, error) {
	start := e.now()
	logger := common.LoggerFromContext(ctx, e.logger)

	ext := constants.ExtOf(doc.Name)
	format := constants.MapExtToFormat(ext)
	logger.Info("extract.start",
		"filename", doc.Name,
		"ext", ext,
		"format", format,
		"mime_hint", doc.MIMEHint,
		"bytes", len(doc.Data),
	)
	if format == constants.UNSUPPORTED {
		return Result{Format: format}, fmt.Errorf("%w: .%s", common.ErrUnsupportedFormat, ext)
	}

	if doc.Data == nil && doc.Path != "" {
		b, err := os.ReadFile(doc.Path)
		if err != nil {
			return Result{Format: format}, common.WrapError(err, "read document")
		}
		doc.Data = b
	}

	deadline, ok := common.OCRDeadlineFromContext(ctx)
	if !ok {
		deadline = start.Add(e.cfg.OCRDeadline)
	}

	var res Result
	switch format {
	case constants.PDF:
		res = e.extractPDF(ctx, logger, doc, deadline)
	case constants.DOCX:
		res = e.extractDOCX(logger, doc)
	case constants.TXT:
		res = e.extractTXT(logger, doc)
	case constants.TABULAR:
		res = e.extractTabular(logger, doc, ext)
	case constants.IMAGE:
		res = e.extractImage(ctx, logger, doc, deadline)
	}
	res.Format = format
	res.Duration = e.now().Sub(start)

	logger.Info("extract.done",
		"format", format,
		"method", res.Method,
		"pages", res.Pages,
		"text_len", len(res.Text),
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
