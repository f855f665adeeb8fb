package artlist

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"gdeltpull/internal/config"
	"gdeltpull/internal/gdelt"
	"gdeltpull/internal/logger"
)

const (
	// stallNudgeHours is the small backoff applied when a window end
	// repeats: data likely exists just before the repeated point.
	stallNudgeHours = 6
	// sparseSkipHours is one full API lookback (~90 days). An empty
	// window means nothing in the last three months of the end time,
	// so smaller nudges would re-scan the same barren range.
	sparseSkipHours = 2160
)

// PageFetcher issues one bounded window request.
type PageFetcher interface {
	Fetch(ctx context.Context, start, end gdelt.Cursor) (*gdelt.Page, error)
}

// Loop walks the time window backwards until the configured start
// boundary, merging every page into the accumulator. Strictly
// sequential: each window's end derives from the previous merge.
type Loop struct {
	fetcher PageFetcher
	acc     *Accumulator
	limiter *rate.Limiter
	retry   config.RetryPolicy
	log     *logger.Logger
}

// NewLoop creates a convergence loop over the given collaborators.
func NewLoop(fetcher PageFetcher, acc *Accumulator, limiter *rate.Limiter, retry config.RetryPolicy, log *logger.Logger) *Loop {
	return &Loop{
		fetcher: fetcher,
		acc:     acc,
		limiter: limiter,
		retry:   retry,
		log:     log,
	}
}

// Result summarizes a completed run.
type Result struct {
	Checkpoint  string
	TotalUnique int
	Iterations  int
}

// Run pulls windows from end back to start. It returns an error only
// for fatal conditions: exhausted network retries, a failed
// checkpoint write, or cancellation. Empty and malformed windows are
// handled inside the loop with the sparse-window skip.
func (l *Loop) Run(ctx context.Context, start, end gdelt.Cursor) (*Result, error) {
	seen := make(map[string]struct{})
	iterations := 0

	for end.After(start) {
		// A repeated end means the previous page could not move the
		// cursor. Nudge until the value is fresh.
		for {
			if _, ok := seen[end.Wire()]; !ok {
				break
			}

			end = end.PushBack(stallNudgeHours)
		}

		if !end.After(start) {
			break
		}

		seen[end.Wire()] = struct{}{}

		l.log.Info("Pulling until", "end", end.Display())

		page, err := l.fetchWithRetry(ctx, start, end)
		if err != nil {
			return nil, err
		}

		switch page.Kind {
		case gdelt.PageEmpty, gdelt.PageMalformed:
			// Sparse window: jump past one full lookback.
			end = end.PushBack(sparseSkipHours)
		default:
			outcome, err := l.acc.Merge(page)
			if err != nil {
				return nil, fmt.Errorf("checkpoint failed: %w", err)
			}

			l.log.Debug("Merged page",
				"added", outcome.Added,
				"total_unique", outcome.TotalUnique,
			)

			// Never move the cursor forward. A page without a usable
			// date leaves end unchanged and the seen set nudges it
			// next iteration.
			if !outcome.EarliestInPage.IsZero() {
				end = end.Min(outcome.EarliestInPage)
			}
		}

		iterations++

		if err := l.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	if err := l.acc.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize failed: %w", err)
	}

	l.log.Info("Article list complete",
		"unique_records", l.acc.Len(),
		"checkpoint", l.acc.Path(),
		"iterations", iterations,
	)

	return &Result{
		Checkpoint:  l.acc.Path(),
		TotalUnique: l.acc.Len(),
		Iterations:  iterations,
	}, nil
}

// fetchWithRetry retries transport-level failures with the configured
// exponential backoff, then surfaces the last error as fatal.
func (l *Loop) fetchWithRetry(ctx context.Context, start, end gdelt.Cursor) (*gdelt.Page, error) {
	var lastErr error

	for attempt := 1; attempt <= l.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := l.retry.GetRetryDelay(attempt)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		page, err := l.fetcher.Fetch(ctx, start, end)
		if err == nil {
			return page, nil
		}

		lastErr = err

		l.log.Warn("Window fetch failed",
			"attempt", attempt,
			"max_attempts", l.retry.MaxAttempts,
			"error", err,
		)
	}

	return nil, fmt.Errorf("window ending %s: %w", end.Display(), lastErr)
}
