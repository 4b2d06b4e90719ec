package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strconv"

	"github.com/disintegration/imaging"
)

type TesseractConfig struct {
	Bin         string // binary name or absolute path; if empty -> "tesseract"
	TessdataDir string
	Lang        string // default "eng"
}

// Tesseract recognizes images by shelling out to the tesseract CLI.
type Tesseract struct {
	cfg    TesseractConfig
	runner Runner
	logger *slog.Logger
}

func NewTesseract(cfg TesseractConfig, runner Runner, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Bin == "" {
		cfg.Bin = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &Tesseract{cfg: cfg, runner: runner, logger: logger}
}

func (t *Tesseract) Recognize(ctx context.Context, img image.Image, opts RecognizeOptions) (string, error) {
	f, err := os.CreateTemp("", "kyc-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("tesseract: temp image: %w", err)
	}
	path := f.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil {
			t.logger.Warn("ocr.tesseract.cleanup_failed", "path", path, "error", rmErr)
		}
	}()

	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("tesseract: encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("tesseract: close png: %w", err)
	}

	// tesseract <file> stdout -l <lang> [--oem N] [--psm N] [--tessdata-dir D]
	out, errb, err := t.runner.Run(ctx, t.cfg.Bin, t.args(path, opts)...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

func (t *Tesseract) args(path string, opts RecognizeOptions) []string {
	lang := opts.Lang
	if lang == "" {
		lang = t.cfg.Lang
	}
	args := []string{path, "stdout", "-l", lang}
	if opts.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(opts.OEM))
	}
	if opts.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(opts.PSM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return args
}
