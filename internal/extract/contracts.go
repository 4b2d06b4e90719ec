package extract

import (
	"context"
	"image"
	"time"

	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/ocr"
)

// Document is one uploaded file, alive only for the request that carries it.
type Document struct {
	Name     string // original filename; only its extension is used for routing
	MIMEHint string // logged, never used for routing
	Data     []byte
	Path     string // optional on-disk copy of Data
}

// Result is the text chosen for a document. Text is "" when nothing could be
// extracted, which callers treat as a terminal failure.
type Result struct {
	Text     string
	Format   constants.Format
	Method   string // "docx" | "txt" | "csv" | "xlsx" | "pdf-text" | "pdf-ocr" | "image-ocr"
	Pages    int
	Duration time.Duration
	Warnings []string
}

// TextExtractor is Stage 1: document -> text.
type TextExtractor interface {
	Extract(ctx context.Context, doc Document) (Result, error)
}

// OCR is the subset of ocr.Engine the extractors depend on.
type OCR interface {
	Recognize(ctx context.Context, img image.Image, deadline time.Time) ocr.Outcome
	RecognizeFast(ctx context.Context, img image.Image, deadline time.Time) ocr.Outcome
}
