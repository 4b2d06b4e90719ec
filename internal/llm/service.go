package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/common"
)

const DefaultTimeout = 45 * time.Second

// Service runs classification and analysis against a Completer. Neither call
// returns an error: failures degrade to GeneralDocument or an error-shaped
// AnalysisResult.
type Service struct {
	completer Completer
	timeout   time.Duration
	logger    *slog.Logger
}

func NewService(completer Completer, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{completer: completer, timeout: timeout, logger: logger}
}

func (s *Service) Classify(ctx context.Context, text string) ClassificationResult {
	logger := common.LoggerFromContext(ctx, s.logger)
	start := time.Now()
	fallback := ClassificationResult{DocumentType: constants.GeneralDocument}

	system, user := BuildClassifyPrompts(text)
	logger.Info("llm.classify.start", "text_len", len(text))

	content, err := s.complete(ctx, system, user)
	if err != nil {
		logger.Error("llm.classify.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return fallback
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(content), &body); err != nil || body == nil {
		logger.Warn("llm.classify.malformed", "error", err, "content", truncate(content, 200))
		return fallback
	}
	label, ok := body["document_type"].(string)
	if !ok {
		logger.Warn("llm.classify.missing_type", "content", truncate(content, 200))
		return fallback
	}
	docType, known := constants.CanonicalizeDocumentType(label)
	if !known {
		logger.Warn("llm.classify.unknown_label", "label", label)
	}

	logger.Info("llm.classify.ok",
		"document_type", docType,
		"label", label,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return ClassificationResult{DocumentType: docType}
}

func (s *Service) Analyze(ctx context.Context, text string, docType constants.DocumentType) AnalysisResult {
	logger := common.LoggerFromContext(ctx, s.logger)
	start := time.Now()

	system, user := BuildAnalyzePrompts(text, docType)
	logger.Info("llm.analyze.start", "document_type", docType, "text_len", len(text))

	content, err := s.complete(ctx, system, user)
	if err != nil {
		logger.Error("llm.analyze.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return AnalysisResult{Error: err.Error()}
	}
	raw := []byte(content)

	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil || probe == nil {
		logger.Warn("llm.analyze.malformed", "error", err, "content", truncate(content, 200))
		return AnalysisResult{Error: "Failed to analyze document: response is not a JSON object"}
	}

	// Validate strictly first.
	schema := BuildAnalysisJSONSchema(docType)
	if err := ValidateJSONAgainstSchema(schema, raw); err != nil {
		logger.Warn("llm.analyze.schema_invalid", "document_type", docType, "error", err)
		cleaned, changes, sErr := NormalizeAndSanitizeJSON(raw, docType, logger)
		if sErr != nil {
			logger.Error("llm.analyze.sanitize_failed", "error", sErr)
			return AnalysisResult{Error: "Failed to analyze document: " + sErr.Error()}
		}
		if vErr := ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			logger.Error("llm.analyze.schema_validation_failed", "error", vErr, "changes", changes)
			return AnalysisResult{Error: "Failed to analyze document: " + vErr.Error()}
		}
		raw = cleaned
	}

	var out AnalysisResult
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.Error("llm.analyze.unmarshal_failed", "error", err)
		return AnalysisResult{Error: "Failed to analyze document: " + err.Error()}
	}
	if out.ExtractedData == nil {
		out.ExtractedData = map[string]string{}
	}

	logger.Info("llm.analyze.ok",
		"document_type", out.DocumentType,
		"fields", len(out.ExtractedData),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

// complete issues exactly one bounded call.
func (s *Service) complete(ctx context.Context, system, user string) (string, error) {
	if s.completer == nil {
		return "", errors.New("no language model configured")
	}
	cctx, cancel := common.WithTimeout(ctx, s.timeout)
	defer cancel()

	content, err := s.completer.CompleteJSON(cctx, system, user)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("model call timed out after %s: %w", s.timeout, err)
		}
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
