package processor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Sravyatammana-ab/kyc-analyzer/internal/common"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/extract"
)

// NoTextMessage is surfaced to clients when extraction comes back blank.
const NoTextMessage = "Failed to extract text from document. Please check if the document is readable and Tesseract OCR is installed."

type ExtractStage struct {
	TextExtractor extract.TextExtractor
	Logger        *slog.Logger
}

func NewExtractStage(tx extract.TextExtractor, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{TextExtractor: tx, Logger: logger}
}

// Run extracts the document text. Blank text is a terminal failure for the
// request and comes back as common.ErrNoText; it is never retried here.
func (s *ExtractStage) Run(ctx context.Context, doc extract.Document) (extract.Result, error) {
	logger := common.LoggerFromContext(ctx, s.Logger)

	res, err := s.TextExtractor.Extract(ctx, doc)
	if err != nil {
		return res, err
	}
	if strings.TrimSpace(res.Text) == "" {
		logger.Warn("processor.extract.no_text",
			"filename", doc.Name,
			"format", res.Format,
			"method", res.Method,
			"warnings", res.Warnings,
		)
		return res, common.NewAppError("NO_TEXT", NoTextMessage, common.ErrNoText)
	}
	return res, nil
}
