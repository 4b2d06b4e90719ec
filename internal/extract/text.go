package extract

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

func (e *Extractor) extractTXT(logger *slog.Logger, doc Document) Result {
	res := Result{Method: "txt", Pages: 1}
	if !utf8.Valid(doc.Data) {
		logger.Warn("extract.txt.invalid_utf8", "filename", doc.Name, "bytes", len(doc.Data))
		res.Warnings = append(res.Warnings, "txt: content is not valid UTF-8")
		return res
	}
	res.Text = strings.TrimSpace(strings.TrimPrefix(string(doc.Data), "\ufeff"))
	return res
}
