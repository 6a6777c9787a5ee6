package queue

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/media/processor"
	"github.com/leeforge/giftstudio/media/storage"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func pipeline(format string) *processor.ProcessingPipeline {
	return processor.NewProcessingPipeline(processor.Options{
		MaxBytes: 1 << 20, MaxDimension: 64, Format: format, Quality: 80,
	})
}

func TestRunWritesFiles(t *testing.T) {
	dir := t.TempDir()
	var jobs []Job
	for _, name := range []string{"a", "b", "c", "d"} {
		in := filepath.Join(dir, name+".png")
		writePNG(t, in, 128, 32)
		jobs = append(jobs, Job{Input: in, Output: filepath.Join(dir, name+".jpg")})
	}
	jobs = append(jobs, Job{Input: filepath.Join(dir, "missing.png"), Output: filepath.Join(dir, "missing.jpg")})

	var mu sync.Mutex
	var seen []Progress
	b := NewBatchProcessor(pipeline(processor.FormatJPEG), processor.FormatJPEG, Options{
		Workers: 2,
		OnProgress: func(_ Result, p Progress) {
			mu.Lock()
			seen = append(seen, p)
			mu.Unlock()
		},
	})

	results, err := b.Run(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, results, 5)

	for _, res := range results[:4] {
		require.NoError(t, res.Err, res.Input)
		fh, err := os.Open(res.Output)
		require.NoError(t, err)
		cfg, format, err := image.DecodeConfig(fh)
		fh.Close()
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, 64, cfg.Width, "downscaled to the maximum dimension")
		assert.Equal(t, 16, cfg.Height)
		assert.Positive(t, res.OutBytes)
	}
	assert.True(t, apperrors.IsType(results[4].Err, apperrors.ErrorTypeInvalid))

	require.Len(t, seen, 5)
	last := Progress{}
	for _, p := range seen {
		if p.Done() > last.Done() {
			last = p
		}
	}
	assert.Equal(t, Progress{Completed: 4, Failed: 1, Total: 5}, last)
	assert.Equal(t, 100.0, last.Percentage())
}

func TestRunRejectsInvalidImage(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "notes.png")
	require.NoError(t, os.WriteFile(in, []byte("plain text"), 0o644))

	results, err := NewBatchProcessor(pipeline(processor.FormatPNG), processor.FormatPNG, Options{}).
		Run(context.Background(), []Job{{Input: in, Output: filepath.Join(dir, "out.png")}})
	require.NoError(t, err)
	assert.Error(t, results[0].Err)
	assert.NoFileExists(t, filepath.Join(dir, "out.png"))
}

// flakyStorage fails the first failures uploads.
type flakyStorage struct {
	failures atomic.Int32
	uploads  atomic.Int32
	keys     sync.Map
}

func (s *flakyStorage) Upload(_ context.Context, key string, r io.Reader, contentType string) (string, error) {
	s.uploads.Add(1)
	if s.failures.Add(-1) >= 0 {
		return "", errors.New("bucket unavailable")
	}
	_, _ = io.Copy(io.Discard, r)
	s.keys.Store(key, contentType)
	return "https://cdn.example/" + key, nil
}

func (s *flakyStorage) Delete(context.Context, string) error { return nil }
func (s *flakyStorage) URL(_ context.Context, key string) (string, error) {
	return "https://cdn.example/" + key, nil
}
func (s *flakyStorage) SignedURL(ctx context.Context, key string, _ time.Duration) (string, error) {
	return s.URL(ctx, key)
}
func (s *flakyStorage) Exists(context.Context, string) (bool, error) { return true, nil }
func (s *flakyStorage) Name() string                                 { return "flaky" }

var _ storage.Provider = (*flakyStorage)(nil)

func TestRunUploadsWithRetry(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "Café Mug.png")
	writePNG(t, in, 10, 10)

	store := &flakyStorage{}
	store.failures.Store(2)
	b := NewBatchProcessor(pipeline(processor.FormatWebP), processor.FormatWebP, Options{
		Retries: 2,
		Backoff: time.Millisecond,
		Storage: store,
		Prefix:  "catalog",
	})

	results, err := b.Run(context.Background(), []Job{{Input: in}})
	require.NoError(t, err)
	require.NoError(t, results[0].Err)
	assert.Equal(t, int32(3), store.uploads.Load())
	assert.True(t, strings.HasPrefix(results[0].URL, "https://cdn.example/catalog/"))
	assert.True(t, strings.HasSuffix(results[0].URL, "-cafe-mug.webp"), results[0].URL)

	store.failures.Store(5)
	results, err = b.Run(context.Background(), []Job{{Input: in}})
	require.NoError(t, err)
	assert.EqualError(t, results[0].Err, "bucket unavailable")
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.png")
	writePNG(t, in, 10, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBatchProcessor(pipeline(processor.FormatPNG), processor.FormatPNG, Options{}).
		Run(ctx, []Job{{Input: in, Output: filepath.Join(dir, "b.png")}})
	assert.ErrorIs(t, err, context.Canceled)
}
