// Package queue normalises batches of images on a bounded worker pool.
package queue

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/media/processor"
	"github.com/leeforge/giftstudio/media/storage"
)

// Job 处理任务
type Job struct {
	Input string
	// Output is the destination file. It is ignored when the batch uploads
	// to storage.
	Output string
}

// Result 任务结果
type Result struct {
	Job
	InBytes  int
	OutBytes int
	// URL is set for uploaded outputs.
	URL string
	Err error
}

// Options 批处理配置
type Options struct {
	Workers int
	// Retries applies to writing or uploading the output only; unreadable
	// or invalid inputs fail at once.
	Retries int
	Backoff time.Duration
	// Storage, when set, receives every output under Prefix.
	Storage storage.Provider
	Prefix  string
	// OnProgress is called after each job, possibly from several goroutines.
	OnProgress func(Result, Progress)
}

// BatchProcessor 批量处理器
type BatchProcessor struct {
	pipeline *processor.ProcessingPipeline
	format   string
	opts     Options
	now      func() time.Time
}

// NewBatchProcessor runs every job through pipeline, whose encode step
// produces format.
func NewBatchProcessor(pipeline *processor.ProcessingPipeline, format string, opts Options) *BatchProcessor {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	return &BatchProcessor{pipeline: pipeline, format: format, opts: opts, now: time.Now}
}

// Run processes jobs and returns one result per job, in job order. A failed
// job does not stop the others. The returned error is non-nil only when ctx
// ends before the batch does.
func (b *BatchProcessor) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	tracker := NewProgressTracker(len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res := b.process(gctx, job)
			results[i] = res
			if res.Err != nil {
				tracker.IncrementFailed()
			} else {
				tracker.IncrementCompleted()
			}
			if b.opts.OnProgress != nil {
				b.opts.OnProgress(res, tracker.Snapshot())
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (b *BatchProcessor) process(ctx context.Context, job Job) Result {
	res := Result{Job: job}

	in, err := os.ReadFile(job.Input)
	if err != nil {
		res.Err = apperrors.NewInvalid("file", job.Input, err.Error())
		return res
	}
	res.InBytes = len(in)

	out, err := b.pipeline.Process(ctx, in)
	if err != nil {
		res.Err = err
		return res
	}
	res.OutBytes = len(out)

	// 重试逻辑
	for attempt := 0; attempt <= b.opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				res.Err = ctx.Err()
				return res
			case <-time.After(time.Duration(attempt) * b.opts.Backoff):
			}
		}
		res.URL, res.Err = b.store(ctx, job, out)
		if res.Err == nil {
			break
		}
	}
	return res
}

func (b *BatchProcessor) store(ctx context.Context, job Job, data []byte) (string, error) {
	if b.opts.Storage == nil {
		if err := os.WriteFile(job.Output, data, 0o644); err != nil {
			return "", apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "write output")
		}
		return "", nil
	}

	name := strings.TrimSuffix(filepath.Base(job.Input), filepath.Ext(job.Input))
	key := storage.ObjectKey(b.opts.Prefix, name, b.format, b.now())
	return b.opts.Storage.Upload(ctx, key, bytes.NewReader(data), processor.ContentType(b.format))
}

// Progress 进度快照
type Progress struct {
	Completed int
	Failed    int
	Total     int
}

func (p Progress) Done() int { return p.Completed + p.Failed }

// Percentage 获取百分比
func (p Progress) Percentage() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Done()) / float64(p.Total) * 100
}

// ProgressTracker 进度追踪器
type ProgressTracker struct {
	total     int
	completed atomic.Int64
	failed    atomic.Int64
}

// NewProgressTracker 创建进度追踪器
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{total: total}
}

func (t *ProgressTracker) IncrementCompleted() { t.completed.Add(1) }

func (t *ProgressTracker) IncrementFailed() { t.failed.Add(1) }

// Snapshot 获取进度
func (t *ProgressTracker) Snapshot() Progress {
	return Progress{
		Completed: int(t.completed.Load()),
		Failed:    int(t.failed.Load()),
		Total:     t.total,
	}
}
