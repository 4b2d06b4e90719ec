package ingest

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/common"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/extract"
)

// Batch feeds files from disk through the document pipeline.
type Batch struct {
	Proc        DocumentProcessor
	Concurrency int
	Logger      *slog.Logger
}

func NewBatch(proc DocumentProcessor, concurrency int, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = 2
	}
	return &Batch{Proc: proc, Concurrency: concurrency, Logger: logger}
}

// ProcessFile runs one file and maps the pipeline outcome onto a status.
// It never returns an error; failures are recorded on the result.
func (b *Batch) ProcessFile(ctx context.Context, path string) FileResult {
	start := time.Now()
	res := FileResult{Path: path}
	name := filepath.Base(path)

	if !AllowedExt(filepath.Ext(path)) {
		res.Status = constants.StatusUnsupported
		res.Err = "unsupported file type"
		return res
	}

	out, err := b.Proc.Process(ctx, extract.Document{Name: name, Path: path})
	res.ElapsedMS = time.Since(start).Milliseconds()
	res.Method = out.Extraction.Method
	switch {
	case err == nil:
		res.Status = constants.StatusOK
		res.DocumentType = out.DocumentType
		analysis := out.Analysis
		res.Analysis = &analysis
	case errors.Is(err, common.ErrNoText):
		res.Status = constants.StatusNoText
		res.Err = common.PublicMessage(err)
	case errors.Is(err, common.ErrUnsupportedFormat):
		res.Status = constants.StatusUnsupported
		res.Err = err.Error()
	default:
		res.Status = constants.StatusFailed
		res.Err = err.Error()
	}

	b.Logger.Info("batch.file.done",
		"path", path,
		"status", res.Status,
		"document_type", res.DocumentType,
		"elapsed_ms", res.ElapsedMS,
	)
	return res
}

// ProcessDirectory discovers files under root and processes them with at
// most Concurrency in flight. Results keep discovery order. emit, when set,
// is called once per finished file from the worker goroutine.
func (b *Batch) ProcessDirectory(ctx context.Context, root string, skipHidden bool, emit func(FileResult)) ([]FileResult, DirStats, error) {
	paths, stats, err := Discover(root, skipHidden)
	if err != nil {
		return nil, stats, err
	}
	b.Logger.Info("batch.discover.ok", "root", root, "scanned", stats.Scanned, "matched", stats.Matched)

	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Concurrency)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = b.ProcessFile(gctx, p)
			if emit != nil {
				emit(results[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, stats, err
	}

	for _, r := range results {
		stats.Add(r)
	}
	b.Logger.Info("batch.done",
		"root", root,
		"succeeded", stats.Succeeded,
		"no_text", stats.NoText,
		"failed", stats.Failed,
	)
	return results, stats, nil
}
