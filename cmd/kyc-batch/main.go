// Command kyc-batch analyzes every supported document under a directory and
// prints one JSON line per file. With --out it also writes an XLSX report;
// with --watch it keeps running and analyzes files as they arrive.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/Sravyatammana-ab/kyc-analyzer/internal/app"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/async"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/common"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/export"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/ingest"
)

type CLI struct {
	Dir         string        `arg:"" help:"Directory to process documents from." type:"existingdir"`
	Out         string        `short:"o" help:"Write an XLSX report to this path." type:"path"`
	Concurrency int           `short:"j" help:"Documents processed in parallel." default:"2"`
	SkipHidden  bool          `name:"skip-hidden" help:"Ignore dot files and dot directories." default:"true" negatable:""`
	Watch       bool          `short:"w" help:"Keep watching the directory for new files after the first pass."`
	Debounce    time.Duration `help:"Quiet period before a changed file is picked up in watch mode." default:"500ms"`
	EnvFile     string        `name:"env-file" help:"Dotenv file to load before reading the environment." default:".env" type:"path"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("kyc-batch"),
		kong.Description("Analyze a directory of KYC documents."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(cli.Run())
}

func (c *CLI) Run() error {
	if err := common.LoadDotEnv(c.EnvFile); err != nil {
		return err
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := app.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc, err := app.NewProcessor(ctx, cfg, nil, logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	batch := ingest.NewBatch(proc, c.Concurrency, logger)

	var mu sync.Mutex
	enc := json.NewEncoder(os.Stdout)
	emit := func(r ingest.FileResult) {
		mu.Lock()
		defer mu.Unlock()
		if err := enc.Encode(r); err != nil {
			logger.Error("batch.emit_failed", "path", r.Path, "error", err)
		}
	}

	logger.Info("batch.start", "dir", c.Dir, "concurrency", c.Concurrency, "watch", c.Watch)
	results, stats, err := batch.ProcessDirectory(ctx, c.Dir, c.SkipHidden, emit)
	if err != nil {
		return fmt.Errorf("process directory: %w", err)
	}

	if c.Watch {
		more, err := c.watch(ctx, batch, emit, logger)
		if err != nil {
			return err
		}
		results = append(results, more...)
		for _, r := range more {
			stats.Add(r)
		}
	}

	if c.Out != "" {
		b, err := export.NewService(logger).ExportResultsXLSX(results)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := os.WriteFile(c.Out, b, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Batch processing complete!\n")
	fmt.Fprintf(os.Stderr, "- Files matched: %d\n", stats.Matched)
	fmt.Fprintf(os.Stderr, "- Analyzed: %d\n", stats.Succeeded)
	fmt.Fprintf(os.Stderr, "- No text: %d\n", stats.NoText)
	fmt.Fprintf(os.Stderr, "- Failures: %d\n", stats.Failed)
	if c.Out != "" {
		fmt.Fprintf(os.Stderr, "- Report: %s\n", c.Out)
	}
	return nil
}

// watch analyzes files created under Dir until ctx is cancelled, then lets
// in-flight documents finish.
func (c *CLI) watch(ctx context.Context, batch *ingest.Batch, emit func(ingest.FileResult), logger *slog.Logger) ([]ingest.FileResult, error) {
	root, err := filepath.Abs(c.Dir)
	if err != nil {
		return nil, err
	}
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:      []string{root},
		SkipHidden: c.SkipHidden,
		Debounce:   c.Debounce,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("start watcher: %w", err)
	}

	var mu sync.Mutex
	var results []ingest.FileResult
	q := async.NewWorkerQueue(func(jctx context.Context, job async.Job) {
		r := batch.ProcessFile(jctx, job.Path)
		emit(r)
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}, logger, async.WithWorkers(c.Concurrency))

	for events != nil {
		select {
		case p, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := q.Enqueue(ctx, async.Job{Path: p}); err != nil {
				logger.Warn("batch.watch.enqueue_failed", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("batch.watch.error", "error", err)
		}
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	q.Shutdown(drainCtx)

	mu.Lock()
	defer mu.Unlock()
	return append([]ingest.FileResult(nil), results...), nil
}
