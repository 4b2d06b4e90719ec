package llm

import (
	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
)

// BuildAnalysisJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// Known types pin extracted_data to their fixed field set; every value must be a
// string with visible text that is not a spelled-out null. GeneralDocument
// accepts any string-valued keys.
func BuildAnalysisJSONSchema(docType constants.DocumentType) map[string]any {
	nonEmpty := map[string]any{
		"type":      "string",
		"minLength": 1,
		"pattern":   `\S`,
		"not":       map[string]any{"pattern": `^\s*(?i:null)\s*$`},
	}

	data := map[string]any{
		"type":                 "object",
		"additionalProperties": nonEmpty,
	}
	if fs := constants.FieldSet(docType); fs != nil {
		props := make(map[string]any, len(fs))
		for _, f := range fs {
			props[f] = nonEmpty
		}
		data = map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties":           props,
			"required":             fs,
		}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"language":       map[string]any{"type": "string"},
			"document_type":  map[string]any{"type": "string", "const": string(docType)},
			"summary":        map[string]any{"type": "string"},
			"extracted_data": data,
		},
		"required": []string{"language", "document_type", "summary", "extracted_data"},
	}
}
