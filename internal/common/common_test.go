package common

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "FRONTEND_ORIGINS", "OCR_DEADLINE_SECONDS", "LLM_PROVIDER", "OPENAI_MODEL", "MAX_UPLOAD_MB"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()

	assert.Equal(t, ":8000", cfg.Server.HTTPAddr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(25<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 55*time.Second, cfg.OCR.Deadline)
	assert.Equal(t, 5, cfg.OCR.PDFMaxPages)
	assert.Equal(t, 200, cfg.OCR.PDFDPI)
	assert.Equal(t, 1200, cfg.OCR.MinShortSide)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("FRONTEND_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("OCR_DEADLINE_SECONDS", "10")
	t.Setenv("OCR_EXHAUSTIVE", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OCR_PDF_MAX_PAGES", "not-a-number")
	t.Setenv("LLM_TEMPERATURE", "0")

	cfg := LoadConfig()
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.OCR.Deadline)
	assert.True(t, cfg.OCR.Exhaustive)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, 5, cfg.OCR.PDFMaxPages)
	assert.Zero(t, cfg.LLM.Temperature)
}

func TestResolveTesseractOverride(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "tesseract-custom")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	assert.Equal(t, bin, resolveTesseract(bin))
	assert.NotEqual(t, filepath.Join(dir, "missing"), resolveTesseract(filepath.Join(dir, "missing")))
}

func TestValidate(t *testing.T) {
	cfg := LoadConfig()
	cfg.LLM.Provider = ProviderOpenAI
	cfg.LLM.APIKey = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	cfg.LLM.APIKey = "sk-test"
	assert.NoError(t, cfg.Validate())

	cfg.LLM.Provider = ProviderGemini
	assert.ErrorContains(t, cfg.Validate(), "GEMINI_API_KEY")

	cfg.LLM.Provider = "claude"
	assert.ErrorContains(t, cfg.Validate(), "LLM_PROVIDER")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(WrapError(ErrUnsupportedFormat, "ext")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NewAppError("INVALID_INPUT", "bad", ErrInvalidInput)))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(WrapError(ErrNoText, "extract")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "bad thing", PublicMessage(NewAppError("X", "bad thing", errors.New("secret"))))
	assert.Equal(t, "plain", PublicMessage(errors.New("plain")))
}

func TestValidator(t *testing.T) {
	isShort := func(s string) bool { return len(s) < 3 }
	v := NewValidator().
		Field("file", "", Required).
		Field("name", "abcd", OneOf(isShort, strings.ToLower, func(s string) string { return "too long: " + s }))
	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 2)
	assert.Equal(t, "file is required", v.ErrorMessage())

	err := v.Err()
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))

	assert.NoError(t, NewValidator().Field("name", "ok", Required, MaxLength(5)).Err())
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", RequestIDFromContext(ctx))
	ctx = WithRequestID(ctx, "rid-1")
	assert.Equal(t, "rid-1", RequestIDFromContext(ctx))

	fallback := slog.Default()
	assert.Same(t, fallback, LoggerFromContext(ctx, fallback))
	l := slog.New(slog.NewTextHandler(os.Stderr, nil))
	assert.Same(t, l, LoggerFromContext(WithLogger(ctx, l), fallback))

	_, ok := OCRDeadlineFromContext(ctx)
	assert.False(t, ok)
	d := time.Now().Add(time.Second)
	got, ok := OCRDeadlineFromContext(WithOCRDeadline(ctx, d))
	assert.True(t, ok)
	assert.Equal(t, d, got)
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(p, []byte("KYC_TEST_A=fromfile\nKYC_TEST_B=fromfile\n"), 0o600))
	t.Setenv("KYC_TEST_A", "fromenv")
	t.Setenv("KYC_TEST_B", "")
	require.NoError(t, os.Unsetenv("KYC_TEST_B"))

	require.NoError(t, LoadDotEnv(p, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "fromenv", os.Getenv("KYC_TEST_A"))
	assert.Equal(t, "fromfile", os.Getenv("KYC_TEST_B"))
}
