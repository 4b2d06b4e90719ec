package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type call struct {
	opts   RecognizeOptions
	bounds image.Rectangle
}

type fakeRecognizer struct {
	calls []call
	fn    func(n int, img image.Image, opts RecognizeOptions) (string, error)
}

func (f *fakeRecognizer) Recognize(_ context.Context, img image.Image, opts RecognizeOptions) (string, error) {
	f.calls = append(f.calls, call{opts: opts, bounds: img.Bounds()})
	return f.fn(len(f.calls), img, opts)
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestEngineSelectsLongestCandidate(t *testing.T) {
	rec := &fakeRecognizer{fn: func(n int, _ image.Image, _ RecognizeOptions) (string, error) {
		if n == 1 {
			return strings.Repeat("a", 10), nil
		}
		return strings.Repeat("b", 50), nil
	}}
	e := NewEngine(rec, nil, WithStrategies(
		Strategy{Name: "short"},
		Strategy{Name: "long"},
	))

	out := e.Recognize(context.Background(), testImage(10, 10), time.Now().Add(time.Minute))

	assert.Equal(t, strings.Repeat("b", 50), out.Text)
	assert.Equal(t, "long/eng", out.Label)
	assert.Len(t, out.Attempts, 2)
	assert.False(t, out.DeadlineHit)
}

func TestEngineTieGoesToEarliest(t *testing.T) {
	rec := &fakeRecognizer{fn: func(n int, _ image.Image, _ RecognizeOptions) (string, error) {
		if n == 1 {
			return "first", nil
		}
		return "later", nil
	}}
	e := NewEngine(rec, nil, WithStrategies(Strategy{Name: "one"}, Strategy{Name: "two"}))

	out := e.Recognize(context.Background(), testImage(4, 4), time.Time{})
	assert.Equal(t, "first", out.Text)
}

func TestEngineDeadlineSkipsLightPass(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	deadline := clock.Now().Add(10 * time.Second)

	rec := &fakeRecognizer{fn: func(int, image.Image, RecognizeOptions) (string, error) {
		clock.Advance(30 * time.Second)
		return "", nil
	}}
	e := NewEngine(rec, nil, WithClock(clock.Now))

	out := e.Recognize(context.Background(), testImage(20, 20), deadline)

	assert.Equal(t, "", out.Text)
	assert.True(t, out.DeadlineHit)
	require.Len(t, rec.calls, 1, "light preprocessing must not run after the deadline")
	assert.Equal(t, RecognizeOptions{Lang: "eng"}, rec.calls[0].opts)
}

func TestEngineDeadlineKeepsFirstPassText(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	deadline := clock.Now().Add(time.Second)

	rec := &fakeRecognizer{fn: func(int, image.Image, RecognizeOptions) (string, error) {
		clock.Advance(5 * time.Second)
		return "  PASSPORT P<IND  ", nil
	}}
	e := NewEngine(rec, nil, WithClock(clock.Now), WithStrategies(ExhaustiveStrategies(100)...))

	out := e.Recognize(context.Background(), testImage(20, 20), deadline)
	assert.Equal(t, "PASSPORT P<IND", out.Text)
	assert.True(t, out.DeadlineHit)
	assert.Len(t, rec.calls, 1)
}

func TestEngineDeadlineCheckedBetweenSubAttempts(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	deadline := clock.Now().Add(10 * time.Second)

	rec := &fakeRecognizer{fn: func(n int, _ image.Image, _ RecognizeOptions) (string, error) {
		// first pass is quick and empty, then the psm 6 attempt eats the budget
		if n == 2 {
			clock.Advance(20 * time.Second)
			return "partial", nil
		}
		return "", nil
	}}
	e := NewEngine(rec, nil, WithClock(clock.Now))

	out := e.Recognize(context.Background(), testImage(20, 20), deadline)
	assert.Equal(t, "partial", out.Text)
	assert.Equal(t, "light_preprocessing/eng_oem3_psm6", out.Label)
	assert.Len(t, rec.calls, 2, "psm 11 must not start after the deadline")
}

func TestEngineLightPassOnlyWhenFirstEmpty(t *testing.T) {
	rec := &fakeRecognizer{fn: func(int, image.Image, RecognizeOptions) (string, error) {
		return "Government of India", nil
	}}
	e := NewEngine(rec, nil)

	out := e.Recognize(context.Background(), testImage(20, 20), time.Now().Add(time.Minute))
	assert.Equal(t, "Government of India", out.Text)
	assert.Len(t, rec.calls, 1)
}

func TestEngineLightPassPreprocessesAndUsesBothConfigs(t *testing.T) {
	rec := &fakeRecognizer{fn: func(n int, _ image.Image, opts RecognizeOptions) (string, error) {
		switch opts.PSM {
		case 6:
			return "psm six", nil
		case 11:
			return "psm eleven wins", nil
		}
		return "", nil
	}}
	e := NewEngine(rec, nil, WithStrategies(DefaultStrategies(60)...))

	out := e.Recognize(context.Background(), testImage(30, 40), time.Now().Add(time.Minute))

	require.Len(t, rec.calls, 3)
	assert.Equal(t, image.Rect(0, 0, 30, 40), rec.calls[0].bounds)
	assert.Equal(t, image.Rect(0, 0, 60, 80), rec.calls[1].bounds)
	assert.Equal(t, RecognizeOptions{Lang: "eng", OEM: 3, PSM: 6}, rec.calls[1].opts)
	assert.Equal(t, RecognizeOptions{Lang: "eng", OEM: 3, PSM: 11}, rec.calls[2].opts)
	assert.Equal(t, "psm eleven wins", out.Text)
}

func TestEngineSwallowsRecognizerErrors(t *testing.T) {
	var hooked []string
	rec := &fakeRecognizer{fn: func(n int, _ image.Image, _ RecognizeOptions) (string, error) {
		if n == 1 {
			return "", errors.New("tesseract crashed")
		}
		return "recovered", nil
	}}
	e := NewEngine(rec, nil, WithAttemptHook(func(s string, chars int, err error) {
		hooked = append(hooked, s)
	}))

	out := e.Recognize(context.Background(), testImage(10, 10), time.Time{})
	assert.Equal(t, "recovered", out.Text)
	assert.Len(t, out.Failures, 1)
	assert.Equal(t, []string{"no_preprocessing", "light_preprocessing"}, hooked[:2])
}

func TestEnginePrepareFailureSkipsStrategy(t *testing.T) {
	rec := &fakeRecognizer{fn: func(int, image.Image, RecognizeOptions) (string, error) {
		return "ok", nil
	}}
	e := NewEngine(rec, nil, WithStrategies(
		Strategy{Name: "broken", Prepare: func(image.Image) (image.Image, error) { return nil, errors.New("bad") }},
		Strategy{Name: "fine"},
	))
	out := e.Recognize(context.Background(), testImage(5, 5), time.Time{})
	assert.Equal(t, "ok", out.Text)
	assert.Len(t, rec.calls, 1)
	assert.Len(t, out.Failures, 1)
}

func TestRecognizeFastRunsFirstStrategyOnly(t *testing.T) {
	rec := &fakeRecognizer{fn: func(int, image.Image, RecognizeOptions) (string, error) {
		return "", nil
	}}
	e := NewEngine(rec, nil, WithLang("hin"))

	out := e.RecognizeFast(context.Background(), testImage(10, 10), time.Now().Add(time.Minute))
	assert.Equal(t, "", out.Text)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "hin", rec.calls[0].opts.Lang)
}
