package llm

import (
	"context"
	"encoding/json"

	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
)

// Completer sends one system/user exchange to a remote model in JSON mode
// and returns the raw message content.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

type ClassificationResult struct {
	DocumentType constants.DocumentType `json:"document_type"`
}

// AnalysisResult is the structured read-out of a document. When Error is set
// the result serializes as {"error": "..."} and the other fields are ignored.
type AnalysisResult struct {
	Language      string            `json:"language"`
	DocumentType  string            `json:"document_type"`
	Summary       string            `json:"summary"`
	ExtractedData map[string]string `json:"extracted_data"`

	Error string `json:"-"`
}

func (a AnalysisResult) MarshalJSON() ([]byte, error) {
	if a.Error != "" {
		return json.Marshal(map[string]string{"error": a.Error})
	}
	type plain AnalysisResult
	p := plain(a)
	if p.ExtractedData == nil {
		p.ExtractedData = map[string]string{}
	}
	return json.Marshal(p)
}

// Failed reports whether the analysis is error-shaped.
func (a AnalysisResult) Failed() bool { return a.Error != "" }
