package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/Sravyatammana-ab/kyc-analyzer/internal/common"
)

// CompleteJSON implements llm.Completer using chat/completions in JSON mode.
func (c *Client) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	callID := uuid.New().String()
	start := time.Now()
	logger := common.LoggerFromContext(ctx, c.logger)

	logger.Info("llm.openai.request",
		"call_id", callID,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"prompt_len", len(system)+len(user),
	)

	temp := c.cfg.Temperature
	if temp == 0 {
		// the request field is omitempty, a literal zero would fall back to the server default
		temp = math.SmallestNonzeroFloat32
	}

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: temp,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: system},
			{Role: goopenai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			logger.Error("llm.openai.api_error",
				"call_id", callID, "status", apiErr.HTTPStatusCode, "error", apiErr.Message,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return "", fmt.Errorf("openai status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		logger.Error("llm.openai.http_error",
			"call_id", callID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("openai http error: %w", err)
	}
	if len(resp.Choices) == 0 {
		logger.Error("llm.openai.no_choices", "call_id", callID, "elapsed_ms", time.Since(start).Milliseconds())
		return "", errors.New("no choices in openai response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	logger.Info("llm.openai.ok",
		"call_id", callID,
		"content_len", len(content),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
