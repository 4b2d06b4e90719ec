package common

import (
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Log    LogConfig
	OCR    OCRConfig
	LLM    LLMConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string
	GRPCHealthAddr  string
	AllowedOrigins  []string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  slog.Level
	Format string // "text" | "json"
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	TesseractCmd string
	TessdataDir  string
	PdftoppmCmd  string
	Lang         string
	Deadline     time.Duration
	PDFMaxPages  int
	PDFDPI       int
	MinShortSide int
	Exhaustive   bool
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider     string // "openai" | "gemini"
	APIKey       string
	Model        string
	BaseURL      string
	GeminiAPIKey string
	GeminiModel  string
	Temperature  float32
	Timeout      time.Duration
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// tessdataCandidates are probed when TESSDATA_PREFIX is unset.
var tessdataCandidates = []string{
	"/usr/share/tesseract-ocr/4.00/tessdata",
	"/usr/share/tesseract-ocr/tessdata",
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8000"),
			GRPCHealthAddr:  getEnv("GRPC_HEALTH_ADDR", ""),
			AllowedOrigins:  getEnvAsList("FRONTEND_ORIGINS", []string{"*"}),
			MaxUploadBytes:  int64(getEnvAsInt("MAX_UPLOAD_MB", 25)) << 20,
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  parseLevel(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
		OCR: OCRConfig{
			TesseractCmd: resolveTesseract(getEnv("TESSERACT_CMD", "")),
			TessdataDir:  resolveTessdata(getEnv("TESSDATA_PREFIX", "")),
			PdftoppmCmd:  getEnv("PDFTOPPM_CMD", "pdftoppm"),
			Lang:         getEnv("OCR_LANG", "eng"),
			Deadline:     time.Duration(getEnvAsInt("OCR_DEADLINE_SECONDS", 55)) * time.Second,
			PDFMaxPages:  getEnvAsInt("OCR_PDF_MAX_PAGES", 5),
			PDFDPI:       getEnvAsInt("OCR_PDF_DPI", 200),
			MinShortSide: getEnvAsInt("OCR_MIN_SHORT_SIDE", 1200),
			Exhaustive:   getEnvAsBool("OCR_EXHAUSTIVE", false),
		},
		LLM: LLMConfig{
			Provider:     strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			Model:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:      getEnv("OPENAI_BASE_URL", ""),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Temperature:  getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			Timeout:      getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// resolveTesseract prefers an explicit path that exists, then PATH, then the bare name.
func resolveTesseract(override string) string {
	if override != "" {
		if _, err := os.Stat(override); err == nil {
			return override
		}
	}
	if p, err := exec.LookPath("tesseract"); err == nil {
		return p
	}
	return "tesseract"
}

func resolveTessdata(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, c := range tessdataCandidates {
		if st, err := os.Stat(c); err == nil && st.IsDir() {
			return c
		}
	}
	return ""
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_MB must be positive", ErrInvalidInput)
	}
	if c.OCR.Deadline <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_DEADLINE_SECONDS must be positive", ErrInvalidInput)
	}
	if c.OCR.PDFMaxPages <= 0 || c.OCR.PDFDPI <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_PDF_MAX_PAGES and OCR_PDF_DPI must be positive", ErrInvalidInput)
	}
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
		}
	case ProviderGemini:
		if c.LLM.GeminiAPIKey == "" {
			return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "LLM_PROVIDER must be openai or gemini", ErrInvalidInput)
	}
	return nil
}
