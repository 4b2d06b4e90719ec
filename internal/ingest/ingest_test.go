package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/common"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/extract"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/llm"
	processor "github.com/Sravyatammana-ab/kyc-analyzer/internal/pipeline"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// stubProcessor decides the outcome from the file name.
type stubProcessor struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	mu       sync.Mutex
	seen     []string
}

func (s *stubProcessor) Process(_ context.Context, doc extract.Document) (processor.Result, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxSeen.Load()
		if n <= m || s.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	s.mu.Lock()
	s.seen = append(s.seen, doc.Name)
	s.mu.Unlock()

	switch {
	case strings.HasPrefix(doc.Name, "empty"):
		return processor.Result{Extraction: extract.Result{Method: "txt"}},
			common.NewAppError("NO_TEXT", "no text", common.ErrNoText)
	case strings.HasPrefix(doc.Name, "broken"):
		return processor.Result{}, errors.New("read document: permission denied")
	}
	return processor.Result{
		Filename:     doc.Name,
		DocumentType: constants.PAN,
		Analysis:     llm.AnalysisResult{Language: "English", Summary: "ok"},
		Extraction:   extract.Result{Method: "txt"},
	}, nil
}

func TestDiscoverFiltersAndSkipsHidden(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.pdf"), "x")
	writeFile(t, filepath.Join(root, "a.TXT"), "x")
	writeFile(t, filepath.Join(root, "notes.md"), "x")
	writeFile(t, filepath.Join(root, ".secret.png"), "x")
	writeFile(t, filepath.Join(root, ".cache", "c.jpg"), "x")
	writeFile(t, filepath.Join(root, "sub", "d.xlsx"), "x")

	paths, stats, err := Discover(root, true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.TXT"),
		filepath.Join(root, "b.pdf"),
		filepath.Join(root, "sub", "d.xlsx"),
	}, paths)
	assert.Equal(t, uint32(4), stats.Scanned)
	assert.Equal(t, uint32(3), stats.Matched)

	paths, _, err = Discover(root, false)
	require.NoError(t, err)
	assert.Len(t, paths, 5)
}

func TestDiscoverErrors(t *testing.T) {
	_, _, err := Discover("  ", true)
	assert.Error(t, err)

	_, _, err = Discover(filepath.Join(t.TempDir(), "missing"), true)
	assert.Error(t, err)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/a/.git"))
	assert.False(t, IsHidden("/a/b.pdf"))
	assert.False(t, IsHidden("."))
}

func TestProcessDirectoryStatusesAndOrder(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{"a.txt", "broken.pdf", "c.png", "empty.csv", "e.docx"} {
		writeFile(t, filepath.Join(root, n), "x")
	}
	proc := &stubProcessor{}
	b := NewBatch(proc, 2, nil)

	var emitted atomic.Int32
	results, stats, err := b.ProcessDirectory(context.Background(), root, true, func(FileResult) { emitted.Add(1) })
	require.NoError(t, err)
	require.Len(t, results, 5)
	assert.Equal(t, int32(5), emitted.Load())
	assert.LessOrEqual(t, proc.maxSeen.Load(), int32(2))

	assert.Equal(t, filepath.Join(root, "a.txt"), results[0].Path)
	assert.Equal(t, constants.StatusOK, results[0].Status)
	assert.Equal(t, constants.PAN, results[0].DocumentType)
	require.NotNil(t, results[0].Analysis)
	assert.Equal(t, "txt", results[0].Method)

	assert.Equal(t, constants.StatusFailed, results[1].Status)
	assert.Contains(t, results[1].Err, "permission denied")
	assert.Nil(t, results[1].Analysis)

	var order []string
	byName := map[string]FileResult{}
	for _, r := range results {
		order = append(order, filepath.Base(r.Path))
		byName[filepath.Base(r.Path)] = r
	}
	assert.Equal(t, []string{"a.txt", "broken.pdf", "c.png", "e.docx", "empty.csv"}, order)

	assert.Equal(t, constants.StatusNoText, byName["empty.csv"].Status)
	assert.Equal(t, "no text", byName["empty.csv"].Err)
	assert.Equal(t, constants.StatusOK, byName["e.docx"].Status)

	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.NoText)
	assert.Equal(t, uint32(1), stats.Failed)
}

func TestProcessFileRejectsUnsupported(t *testing.T) {
	proc := &stubProcessor{}
	res := NewBatch(proc, 1, nil).ProcessFile(context.Background(), "/tmp/x.gif")
	assert.Equal(t, constants.StatusUnsupported, res.Status)
	assert.Empty(t, proc.seen)
}

func TestProcessDirectoryHonorsCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewBatch(&stubProcessor{}, 1, nil).ProcessDirectory(ctx, root, true, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func recvPath(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
		return ""
	}
}

func TestWatcherInitialScanAndNewFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.pdf"), "x")
	writeFile(t, filepath.Join(root, "skip.md"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		SkipHidden:  true,
		Debounce:    20 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "existing.pdf"), recvPath(t, events))

	writeFile(t, filepath.Join(root, "ignored.gif"), "x")
	writeFile(t, filepath.Join(root, ".hidden.txt"), "x")
	writeFile(t, filepath.Join(root, "new.txt"), "hello")
	assert.Equal(t, filepath.Join(root, "new.txt"), recvPath(t, events))

	cancel()
	for range events {
	}
}

func TestWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}
