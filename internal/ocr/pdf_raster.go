package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
)

// Rasterizer renders a single 1-based PDF page to an image.
type Rasterizer interface {
	RasterizePage(ctx context.Context, pdfPath string, page, dpi int) (image.Image, error)
}

// Pdftoppm rasterizes with poppler's pdftoppm, one page per call.
type Pdftoppm struct {
	bin    string
	runner Runner
	logger *slog.Logger
}

func NewPdftoppm(bin string, runner Runner, logger *slog.Logger) *Pdftoppm {
	if logger == nil {
		logger = slog.Default()
	}
	if bin == "" {
		bin = "pdftoppm"
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &Pdftoppm{bin: bin, runner: runner, logger: logger}
}

func (p *Pdftoppm) RasterizePage(ctx context.Context, pdfPath string, page, dpi int) (image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "kyc-pp-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			p.logger.Warn("ocr.pdftoppm.cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	n := strconv.Itoa(page)
	// pdftoppm -f N -l N -r DPI -png -singlefile <in.pdf> <tmp/page>
	_, errb, err := p.runner.Run(ctx, p.bin,
		"-f", n, "-l", n, "-r", strconv.Itoa(dpi), "-png", "-singlefile", pdfPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm page %d: %w: %s", page, err, truncate(string(errb), 512))
	}

	img, err := imaging.Open(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm page %d produced no image: %w", page, err)
	}
	return img, nil
}
