package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// Recognizer turns one raster image into text.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, opts RecognizeOptions) (string, error)
}

// RecognizeOptions selects the recognition configuration. Zero values mean
// "engine default": the engine language, default OEM and page segmentation.
type RecognizeOptions struct {
	Lang string
	OEM  int
	PSM  int
}

func (o RecognizeOptions) label() string {
	var parts []string
	if o.Lang != "" {
		parts = append(parts, o.Lang)
	}
	if o.OEM > 0 {
		parts = append(parts, fmt.Sprintf("oem%d", o.OEM))
	}
	if o.PSM > 0 {
		parts = append(parts, fmt.Sprintf("psm%d", o.PSM))
	}
	if len(parts) == 0 {
		return "default"
	}
	return strings.Join(parts, "_")
}

// Strategy is one preprocessing step followed by one or more recognition configs.
type Strategy struct {
	Name string
	// Prepare transforms the source image; nil recognizes the image as-is.
	Prepare func(image.Image) (image.Image, error)
	// Configs are tried in order; each is a separate sub-attempt.
	Configs []RecognizeOptions
	// OnlyIfEmpty skips the strategy once any earlier attempt produced text.
	OnlyIfEmpty bool
}

// Attempt is the non-empty output of one strategy/config combination.
type Attempt struct {
	Label string
	Text  string
}

// Outcome is the engine's answer for one image.
type Outcome struct {
	Text        string // best candidate, "" when nothing was recognized
	Label       string // label of the winning attempt
	Attempts    []Attempt
	Failures    []string
	DeadlineHit bool
}

// AttemptHook observes every recognition call; chars is 0 on error or empty output.
type AttemptHook func(strategy string, chars int, err error)

// Engine runs an ordered, deadline-gated list of strategies and keeps the
// longest result.
type Engine struct {
	rec        Recognizer
	strategies []Strategy
	lang       string
	now        func() time.Time
	hook       AttemptHook
	logger     *slog.Logger
}

type Option func(*Engine)

func WithStrategies(s ...Strategy) Option {
	return func(e *Engine) { e.strategies = s }
}

// WithClock replaces time.Now for deadline checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLang(lang string) Option {
	return func(e *Engine) {
		if lang != "" {
			e.lang = lang
		}
	}
}

func WithAttemptHook(h AttemptHook) Option {
	return func(e *Engine) { e.hook = h }
}

func NewEngine(rec Recognizer, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		rec:        rec,
		strategies: DefaultStrategies(DefaultMinShortSide),
		lang:       "eng",
		now:        time.Now,
		logger:     logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Recognize runs every configured strategy.
func (e *Engine) Recognize(ctx context.Context, img image.Image, deadline time.Time) Outcome {
	return e.run(ctx, img, deadline, e.strategies)
}

// RecognizeFast runs only the first strategy. PDF page OCR uses it.
func (e *Engine) RecognizeFast(ctx context.Context, img image.Image, deadline time.Time) Outcome {
	if len(e.strategies) == 0 {
		return Outcome{}
	}
	return e.run(ctx, img, deadline, e.strategies[:1])
}

func (e *Engine) expired(deadline time.Time) bool {
	return !deadline.IsZero() && !e.now().Before(deadline)
}

func (e *Engine) run(ctx context.Context, img image.Image, deadline time.Time, strategies []Strategy) Outcome {
	var out Outcome
	bestLen := 0
	start := e.now()

	rctx := ctx
	if !deadline.IsZero() {
		var cancel context.CancelFunc
		rctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

strategies:
	for _, s := range strategies {
		if e.expired(deadline) {
			out.DeadlineHit = true
			e.logger.Warn("ocr.deadline.skip_strategy", "strategy", s.Name)
			break
		}
		if s.OnlyIfEmpty && len(out.Attempts) > 0 {
			continue
		}

		prepared := img
		if s.Prepare != nil {
			p, err := s.Prepare(img)
			if err != nil {
				out.Failures = append(out.Failures, fmt.Sprintf("%s: prepare: %v", s.Name, err))
				e.logger.Warn("ocr.strategy.prepare_failed", "strategy", s.Name, "error", err)
				continue
			}
			prepared = p
		}

		configs := s.Configs
		if len(configs) == 0 {
			configs = []RecognizeOptions{{}}
		}
		for _, cfg := range configs {
			if e.expired(deadline) {
				out.DeadlineHit = true
				e.logger.Warn("ocr.deadline.skip_attempt", "strategy", s.Name, "config", cfg.label())
				break strategies
			}
			if cfg.Lang == "" {
				cfg.Lang = e.lang
			}
			label := s.Name + "/" + cfg.label()

			text, err := e.rec.Recognize(rctx, prepared, cfg)
			text = strings.TrimSpace(text)
			chars := utf8.RuneCountInString(text)
			if e.hook != nil {
				e.hook(s.Name, chars, err)
			}
			if err != nil {
				out.Failures = append(out.Failures, fmt.Sprintf("%s: %v", label, err))
				e.logger.Warn("ocr.attempt.failed", "label", label, "error", err)
				continue
			}
			if chars == 0 {
				e.logger.Debug("ocr.attempt.empty", "label", label)
				continue
			}

			out.Attempts = append(out.Attempts, Attempt{Label: label, Text: text})
			e.logger.Debug("ocr.attempt.ok", "label", label, "chars", chars)
			if chars > bestLen {
				bestLen = chars
				out.Text = text
				out.Label = label
			}
		}
	}

	e.logger.Info("ocr.recognize.done",
		"best", out.Label,
		"chars", bestLen,
		"attempts", len(out.Attempts),
		"failures", len(out.Failures),
		"deadline_hit", out.DeadlineHit,
		"elapsed_ms", e.now().Sub(start).Milliseconds(),
	)
	return out
}
