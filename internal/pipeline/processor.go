package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/common"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/extract"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/llm"
)

// Result is the response body of a successful analysis.
type Result struct {
	Filename     string                 `json:"filename"`
	DocumentType constants.DocumentType `json:"document_type"`
	Analysis     llm.AnalysisResult     `json:"analysis"`

	Extraction extract.Result `json:"-"`
}

// Processor coordinates text extraction then classification and analysis.
type Processor struct {
	Logger  *slog.Logger
	Extract *ExtractStage
	Analyze *AnalyzeStage
}

func NewProcessor(logger *slog.Logger, ex *ExtractStage, an *AnalyzeStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Extract: ex, Analyze: an}
}

// Process runs one document through the pipeline. The only errors are
// extraction errors: unsupported format, blank text, or an internal failure.
func (p *Processor) Process(ctx context.Context, doc extract.Document) (Result, error) {
	logger := common.LoggerFromContext(ctx, p.Logger)
	start := time.Now()

	// 1) text extraction
	ex, err := p.Extract.Run(ctx, doc)
	if err != nil {
		logger.Error("processor.extract.failed", "filename", doc.Name, "error", err)
		return Result{Filename: doc.Name, Extraction: ex}, err
	}
	logger.Info("processor.extract.ok",
		"filename", doc.Name,
		"method", ex.Method,
		"pages", ex.Pages,
		"text_len", len(ex.Text),
	)

	// 2) classify + analyze
	docType, analysis := p.Analyze.Run(ctx, ex.Text)

	logger.Info("processor.done",
		"filename", doc.Name,
		"document_type", docType,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{
		Filename:     doc.Name,
		DocumentType: docType,
		Analysis:     analysis,
		Extraction:   ex,
	}, nil
}
