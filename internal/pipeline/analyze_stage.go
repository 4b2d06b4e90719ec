package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/common"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/llm"
)

// DocumentAnalyzer is the model-facing side of the pipeline. Both calls
// absorb their own failures.
type DocumentAnalyzer interface {
	Classify(ctx context.Context, text string) llm.ClassificationResult
	Analyze(ctx context.Context, text string, docType constants.DocumentType) llm.AnalysisResult
}

type AnalyzeStage struct {
	Analyzer DocumentAnalyzer
	Logger   *slog.Logger
}

func NewAnalyzeStage(a DocumentAnalyzer, logger *slog.Logger) *AnalyzeStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeStage{Analyzer: a, Logger: logger}
}

// Run classifies then analyzes. Analysis always runs with whatever type
// classification produced, including the GeneralDocument fallback.
// The model calls are detached from ctx cancellation so a dropped client
// does not abort them; each call carries its own timeout.
func (s *AnalyzeStage) Run(ctx context.Context, text string) (constants.DocumentType, llm.AnalysisResult) {
	logger := common.LoggerFromContext(ctx, s.Logger)
	mctx := context.WithoutCancel(ctx)
	start := time.Now()

	cls := s.Analyzer.Classify(mctx, text)
	docType := cls.DocumentType
	if docType == "" {
		docType = constants.GeneralDocument
	}

	analysis := s.Analyzer.Analyze(mctx, text, docType)
	logger.Info("processor.analyze.done",
		"document_type", docType,
		"analysis_error", analysis.Error,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return docType, analysis
}
