// Command runocr runs text extraction on local files and prints what the
// analyzer would see, without calling a model.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/Sravyatammana-ab/kyc-analyzer/internal/app"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/common"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/extract"
)

type CLI struct {
	Files      []string      `arg:"" help:"Documents to extract." type:"existingfile"`
	Exhaustive bool          `help:"Run the aggressive and multi-language OCR passes too."`
	Deadline   time.Duration `help:"OCR budget per document (0 = OCR_DEADLINE_SECONDS)."`
	Quiet      bool          `short:"q" help:"Print only the extracted text."`
	EnvFile    string        `name:"env-file" help:"Dotenv file to load before reading the environment." default:".env" type:"path"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("runocr"),
		kong.Description("Extract text from documents using the analyzer's extraction stage."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(cli.Run())
}

func (c *CLI) Run() error {
	if err := common.LoadDotEnv(c.EnvFile); err != nil {
		return err
	}
	cfg := common.LoadConfig()
	if c.Exhaustive {
		cfg.OCR.Exhaustive = true
	}
	if c.Deadline > 0 {
		cfg.OCR.Deadline = c.Deadline
	}
	logger := app.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ex := app.NewExtractor(cfg.OCR, nil, logger)
	ctx := context.Background()

	failed := 0
	for _, path := range c.Files {
		start := time.Now()
		res, err := ex.Extract(ctx, extract.Document{Name: filepath.Base(path), Path: path})
		if err != nil {
			logger.Error("runocr.failed", "path", path, "error", err)
			failed++
			continue
		}
		if c.Quiet {
			fmt.Println(res.Text)
			continue
		}
		fmt.Printf("== %s\n", path)
		fmt.Printf("format=%s method=%s pages=%d chars=%d elapsed=%s\n",
			res.Format, res.Method, res.Pages, len(res.Text), time.Since(start).Round(time.Millisecond))
		for _, w := range res.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
		if strings.TrimSpace(res.Text) == "" {
			fmt.Println("(no text)")
			failed++
			continue
		}
		fmt.Println(res.Text)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents produced no text", failed, len(c.Files))
	}
	return nil
}
