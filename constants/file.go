package constants

import (
	"path/filepath"
	"strings"
)

// Format is the extraction path chosen for an uploaded document.
type Format string

const (
	PDF         Format = "PDF"
	DOCX        Format = "DOCX"
	TXT         Format = "TXT"
	TABULAR     Format = "TABULAR"
	IMAGE       Format = "IMAGE"
	UNSUPPORTED Format = "UNSUPPORTED"
)

// allowedExtOrder is the order extensions are listed in client-facing messages.
var allowedExtOrder = []string{"pdf", "docx", "txt", "csv", "xlsx", "png", "jpg", "jpeg"}

// AllowedExtensions holds the extensions accepted at the upload boundary.
var AllowedExtensions = map[string]Format{
	"pdf":  PDF,
	"docx": DOCX,
	"txt":  TXT,
	"csv":  TABULAR,
	"xlsx": TABULAR,
	"png":  IMAGE,
	"jpg":  IMAGE,
	"jpeg": IMAGE,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ExtOf returns the normalized extension of a filename.
func ExtOf(name string) string {
	return NormalizeExt(filepath.Ext(name))
}

// MapExtToFormat maps an extension (with or without dot, any case) to its format.
func MapExtToFormat(ext string) Format {
	if f, ok := AllowedExtensions[NormalizeExt(ext)]; ok {
		return f
	}
	return UNSUPPORTED
}

// IsAllowedExt reports whether ext is accepted for analysis.
func IsAllowedExt(ext string) bool {
	return MapExtToFormat(ext) != UNSUPPORTED
}

// AllowedExtList returns the accepted extensions, dotted, in display order.
func AllowedExtList() []string {
	out := make([]string, len(allowedExtOrder))
	for i, e := range allowedExtOrder {
		out[i] = "." + e
	}
	return out
}
