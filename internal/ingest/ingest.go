package ingest

import (
	"context"

	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/extract"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/llm"
	processor "github.com/Sravyatammana-ab/kyc-analyzer/internal/pipeline"
)

// FileResult is the per-file batch outcome.
type FileResult struct {
	Path         string                 `json:"path"`
	Status       constants.ResultStatus `json:"status"`
	DocumentType constants.DocumentType `json:"document_type,omitempty"`
	Method       string                 `json:"method,omitempty"`
	Analysis     *llm.AnalysisResult    `json:"analysis,omitempty"`
	Err          string                 `json:"error,omitempty"`
	ElapsedMS    int64                  `json:"elapsed_ms"`
}

// DirStats summarizes a directory run.
type DirStats struct {
	Scanned   uint32 `json:"scanned"`
	Matched   uint32 `json:"matched"`
	Succeeded uint32 `json:"succeeded"`
	NoText    uint32 `json:"no_text"`
	Failed    uint32 `json:"failed"`
}

// Add folds one result into the counters.
func (s *DirStats) Add(r FileResult) {
	switch r.Status {
	case constants.StatusOK:
		s.Succeeded++
	case constants.StatusNoText:
		s.NoText++
	default:
		s.Failed++
	}
}

// DocumentProcessor is the pipeline a batch feeds each file into.
type DocumentProcessor interface {
	Process(ctx context.Context, doc extract.Document) (processor.Result, error)
}
