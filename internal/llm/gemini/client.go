package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/Sravyatammana-ab/kyc-analyzer/internal/common"
)

type Config struct {
	APIKey      string
	BaseURL     string // optional endpoint override
	Model       string // default gemini-2.0-flash
	Temperature float32 // zero is sent as-is
	Timeout     time.Duration
}

// Client implements llm.Completer on the Gemini API.
type Client struct {
	cfg    Config
	api    *genai.Client
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}

	api, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{cfg: cfg, api: api, logger: logger}, nil
}

func (c *Client) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	callID := uuid.New().String()
	start := time.Now()
	logger := common.LoggerFromContext(ctx, c.logger)

	logger.Info("llm.gemini.request",
		"call_id", callID,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"prompt_len", len(system)+len(user),
	)

	resp, err := c.api.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(c.cfg.Temperature),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		logger.Error("llm.gemini.error", "call_id", callID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	content := strings.TrimSpace(resp.Text())
	if content == "" {
		logger.Error("llm.gemini.empty", "call_id", callID, "elapsed_ms", time.Since(start).Milliseconds())
		return "", errors.New("empty gemini response")
	}
	logger.Info("llm.gemini.ok",
		"call_id", callID,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
