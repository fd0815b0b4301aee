package vision

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/freight-reader/internal/freight"
)

// Report summarizes one document extraction.
type Report struct {
	Attempted int
	Succeeded int
	Failed    int
	TimedOut  bool
	Elapsed   time.Duration
}

// Runner extracts every page of a document through a PageExtractor.
type Runner struct {
	extractor PageExtractor
	logger    *slog.Logger
	workers   int
	timeout   time.Duration
	maxPages  int
}

type RunnerOption func(*Runner)

func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithTimeout bounds a whole document, not a single page.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMaxPages caps how many pages are sent for extraction; 0 means no cap.
func WithMaxPages(n int) RunnerOption {
	return func(r *Runner) {
		if n >= 0 {
			r.maxPages = n
		}
	}
}

func NewRunner(extractor PageExtractor, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		extractor: extractor,
		logger:    logger,
		workers:   4,
		timeout:   28 * time.Second,
		maxPages:  1,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ExtractDocument runs every page concurrently and returns the pages that
// succeeded, ordered by page index. Failed pages are left out; if none
// succeed the result is empty, which normalizes to the all-error record.
func (r *Runner) ExtractDocument(ctx context.Context, pages []PageImage) ([]freight.RawPageExtraction, Report) {
	start := time.Now()
	if r.maxPages > 0 && len(pages) > r.maxPages {
		r.logger.Info("vision.document.pages_capped", "pages", len(pages), "max_pages", r.maxPages)
		pages = pages[:r.maxPages]
	}
	rep := Report{Attempted: len(pages)}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make([]freight.RawPageExtraction, 0, len(pages))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, img := range pages {
		if img.Page <= 0 {
			img.Page = i + 1
		}
		g.Go(func() error {
			raw, _, err := r.extractor.ExtractPage(gctx, img)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rep.Failed++
				r.logger.Warn("vision.document.page_failed", "page", img.Page, "error", err)
				return nil
			}
			raw.Page = img.Page
			rep.Succeeded++
			results = append(results, raw)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(results, func(i, j int) bool { return results[i].Page < results[j].Page })
	rep.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
	rep.Elapsed = time.Since(start)

	r.logger.Info("vision.document.done",
		"attempted", rep.Attempted,
		"succeeded", rep.Succeeded,
		"failed", rep.Failed,
		"timed_out", rep.TimedOut,
		"elapsed_ms", rep.Elapsed.Milliseconds(),
	)
	return results, rep
}
