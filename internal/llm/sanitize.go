package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
)

// NormalizeAndSanitizeJSON reshapes a model response so it fits the analysis
// schema for docType:
// - renames field keys that differ from the template only by case or spacing
// - coerces numbers, bools and nested values to strings
// - maps null/blank values and missing fixed fields to "Not provided"
// - removes unknown keys, top-level and (for known types) inside extracted_data
func NormalizeAndSanitizeJSON(raw []byte, docType constants.DocumentType, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	if m == nil {
		return nil, nil, fmt.Errorf("sanitize: response is not a JSON object")
	}

	changes := make([]string, 0, 8)

	// 1) top-level envelope
	out := map[string]any{
		"language":      "English",
		"document_type": string(docType),
		"summary":       constants.NotProvided,
	}
	if s, ok := coerceString(m["language"]); ok {
		out["language"] = s
	}
	if s, ok := coerceString(m["summary"]); ok {
		out["summary"] = s
	}
	if v, ok := m["document_type"].(string); !ok || v != string(docType) {
		changes = append(changes, "document_type")
	}
	for k := range m {
		switch k {
		case "language", "document_type", "summary", "extracted_data":
		default:
			changes = append(changes, k+"(unknown)")
		}
	}

	// 2) extracted_data
	src, _ := m["extracted_data"].(map[string]any)
	if src == nil {
		changes = append(changes, "extracted_data(missing)")
		src = map[string]any{}
	}
	data := make(map[string]any, len(src))

	fixed := constants.FieldSet(docType)
	if fixed == nil {
		for k, v := range src {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			s, ok := coerceString(v)
			if !ok {
				s = constants.NotProvided
				changes = append(changes, k+"(empty)")
			}
			data[k] = s
		}
	} else {
		canonical := make(map[string]string, len(fixed))
		for _, f := range fixed {
			canonical[fieldKey(f)] = f
		}
		seen := maps.Clone(src)
		for k, v := range src {
			f, ok := canonical[fieldKey(k)]
			if !ok {
				changes = append(changes, k+"(unknown)")
				continue
			}
			if f != k {
				// an exact key wins over a near match
				if _, exact := seen[f]; exact {
					continue
				}
				changes = append(changes, k+"->"+f)
			}
			s, ok := coerceString(v)
			if !ok {
				s = constants.NotProvided
				changes = append(changes, f+"(empty)")
			}
			data[f] = s
		}
		for _, f := range fixed {
			if _, ok := data[f]; !ok {
				data[f] = constants.NotProvided
				changes = append(changes, f+"(missing)")
			}
		}
	}
	out["extracted_data"] = data

	b, err := json.Marshal(out)
	if err != nil {
		return nil, changes, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changes) > 0 {
		logger.Warn("llm.analyze.normalize_sanitize", "document_type", docType, "changes", changes)
	}
	return b, changes, nil
}

// coerceString renders v as a trimmed string. ok is false for null and blank values.
func coerceString(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		s = string(b)
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return "", false
	}
	return s, true
}

func fieldKey(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(" ", "", "_", "", "-", "", "'", "", "’", "").Replace(s)
	return s
}
