package extract

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
)

// extractImage decodes the upload and hands it to the full OCR cascade.
func (e *Extractor) extractImage(ctx context.Context, logger *slog.Logger, doc Document, deadline time.Time) Result {
	res := Result{Method: "image-ocr", Pages: 1}
	if e.ocr == nil {
		res.Warnings = append(res.Warnings, "image-ocr: no OCR engine configured")
		return res
	}

	img, err := imaging.Decode(bytes.NewReader(doc.Data), imaging.AutoOrientation(true))
	if err != nil {
		logger.Warn("extract.image.decode_failed", "filename", doc.Name, "error", err)
		res.Warnings = append(res.Warnings, "image: "+err.Error())
		return res
	}
	b := img.Bounds()
	logger.Debug("extract.image.loaded", "width", b.Dx(), "height", b.Dy())

	out := e.ocr.Recognize(ctx, img, deadline)
	res.Text = out.Text
	res.Warnings = append(res.Warnings, out.Failures...)
	if out.DeadlineHit {
		res.Warnings = append(res.Warnings, "image-ocr: deadline reached")
	}
	return res
}
