// Package app assembles the document pipeline from configuration. The
// server and the CLIs share it so they run identical stages.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Sravyatammana-ab/kyc-analyzer/internal/common"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/extract"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/llm"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/llm/gemini"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/llm/openai"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/ocr"
	processor "github.com/Sravyatammana-ab/kyc-analyzer/internal/pipeline"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg common.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewExtractor wires tesseract and pdftoppm behind the OCR cascade. hook may
// be nil.
func NewExtractor(cfg common.OCRConfig, hook ocr.AttemptHook, logger *slog.Logger) *extract.Extractor {
	runner := ocr.ExecRunner{Logger: logger}
	tess := ocr.NewTesseract(ocr.TesseractConfig{
		Bin:         cfg.TesseractCmd,
		TessdataDir: cfg.TessdataDir,
		Lang:        cfg.Lang,
	}, runner, logger)

	strategies := ocr.DefaultStrategies(cfg.MinShortSide)
	if cfg.Exhaustive {
		strategies = ocr.ExhaustiveStrategies(cfg.MinShortSide)
	}
	opts := []ocr.Option{ocr.WithStrategies(strategies...), ocr.WithLang(cfg.Lang)}
	if hook != nil {
		opts = append(opts, ocr.WithAttemptHook(hook))
	}
	engine := ocr.NewEngine(tess, logger, opts...)

	return extract.NewExtractor(extract.Config{
		OCRDeadline: cfg.Deadline,
		PDFMaxPages: cfg.PDFMaxPages,
		PDFDPI:      cfg.PDFDPI,
	}, engine, ocr.NewPdftoppm(cfg.PdftoppmCmd, runner, logger), logger)
}

// NewCompleter returns the chat client for the configured provider.
func NewCompleter(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, error) {
	switch cfg.Provider {
	case common.ProviderOpenAI, "":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case common.ProviderGemini:
		return gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// NewProcessor builds extraction, classification and analysis end to end.
func NewProcessor(ctx context.Context, cfg *common.Config, hook ocr.AttemptHook, logger *slog.Logger) (*processor.Processor, error) {
	completer, err := NewCompleter(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, err
	}
	svc := llm.NewService(completer, cfg.LLM.Timeout, logger)
	return processor.NewProcessor(logger,
		processor.NewExtractStage(NewExtractor(cfg.OCR, hook, logger), logger),
		processor.NewAnalyzeStage(svc, logger),
	), nil
}
