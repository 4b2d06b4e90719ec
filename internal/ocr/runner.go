package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner is how the OCR engine reaches the tesseract and pdftoppm binaries.
// Tests swap in a fake that records arguments and returns canned output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// stderrLogCap bounds how much tool stderr a single log line carries.
const stderrLogCap = 8 << 10

// ExecRunner runs binaries with os/exec. The child is killed when ctx ends,
// which is how the OCR deadline reaches a stuck tesseract.
type ExecRunner struct {
	Logger *slog.Logger
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	attrs := []any{
		"tool", name,
		"args", strings.Join(args, " "),
		"elapsed_ms", time.Since(start).Milliseconds(),
	}
	switch {
	case ctx.Err() != nil:
		logger.Warn("ocr.exec.killed", append(attrs, "cause", ctx.Err())...)
	case err != nil:
		logger.Error("ocr.exec.failed", append(attrs, "error", err, "stderr", truncate(stderr.String(), stderrLogCap))...)
	default:
		logger.Debug("ocr.exec.ok", append(attrs, "stdout_bytes", stdout.Len(), "stderr_bytes", stderr.Len())...)
	}

	return stdout.Bytes(), stderr.Bytes(), err
}

// truncate shortens tool output for errors and logs.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
