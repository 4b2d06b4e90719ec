package async

import (
	"context"
	"errors"
	"time"
)

// Job is one file waiting to be analyzed.
type Job struct {
	Path        string
	SubmittedAt time.Time
}

// ErrClosed is returned by Enqueue after Shutdown.
var ErrClosed = errors.New("queue is shutting down")

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Handler processes a single job. It owns its own error reporting.
type Handler func(ctx context.Context, job Job)
