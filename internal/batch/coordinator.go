// Package batch sequences input records through the status fetcher with
// pacing, progress reporting and cooperative cancellation.
package batch

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/latam-scholars/status-cli/internal/model"
)

// Fetcher retrieves the status for one record. Implemented by
// scrape.Fetcher; abstracted so the coordinator is testable without a
// browser.
type Fetcher interface {
	Fetch(ctx context.Context, rec model.Record) model.Result
}

// Progress is invoked after each record completes. A panicking callback is
// logged and swallowed; it never aborts the batch.
type Progress func(completed, total int, latest model.Result)

// Coordinator runs records strictly one at a time. The portal's challenge
// and session semantics are unreliable under concurrent load from a single
// caller, so there is deliberately no parallel mode.
type Coordinator struct {
	fetcher  Fetcher
	delay    time.Duration
	progress Progress
}

// New creates a Coordinator. delay is the base pause between records;
// progress may be nil.
func New(fetcher Fetcher, delay time.Duration, progress Progress) *Coordinator {
	return &Coordinator{fetcher: fetcher, delay: delay, progress: progress}
}

// Process fetches every record in order and returns one result per record
// processed, preserving input order. Cancellation is polled between
// records only: an in-flight fetch always runs to completion, so a stop
// after record k yields exactly k results.
func (c *Coordinator) Process(ctx context.Context, records []model.Record) []model.Result {
	total := len(records)
	if total == 0 {
		zap.L().Warn("batch: no records to process")
		return nil
	}

	zap.L().Info("batch: starting", zap.Int("records", total))

	results := make([]model.Result, 0, total)
	for i, rec := range records {
		if ctx.Err() != nil {
			zap.L().Info("batch: stop requested, aborting before next record",
				zap.Int("completed", i),
				zap.Int("total", total),
			)
			break
		}

		zap.L().Info("batch: processing record",
			zap.Int("current", i+1),
			zap.Int("total", total),
			zap.String("reg_number", rec.RegNumber),
		)

		// The stop signal is advisory; the current fetch finishes or
		// times out on its own terms.
		res := c.fetcher.Fetch(context.WithoutCancel(ctx), rec)
		results = append(results, res)

		c.report(len(results), total, res)

		if i < total-1 && ctx.Err() == nil {
			c.pace(ctx)
		}
	}

	zap.L().Info("batch: finished",
		zap.Int("completed", len(results)),
		zap.Int("total", total),
	)
	return results
}

func (c *Coordinator) report(completed, total int, latest model.Result) {
	if c.progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("batch: progress callback panicked", zap.Any("panic", r))
		}
	}()
	c.progress(completed, total, latest)
}

// pace sleeps delay plus up to one second of jitter to reduce load and
// detection risk on the portal.
func (c *Coordinator) pace(ctx context.Context) {
	wait := c.delay + time.Duration(rand.Float64()*float64(time.Second))
	zap.L().Debug("batch: pacing before next record", zap.Duration("wait", wait))

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
