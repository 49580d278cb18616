package pager

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultLimit is the page size used when [Options.Limit] is unset.
const DefaultLimit = 50

// Page is one slice of a remote collection.
//
// Total is the size of the whole collection as reported by the remote.
type Page[T any] struct {
	Items []T
	Total int
}

// FetchFunc retrieves the page starting at offset holding at most limit items.
type FetchFunc[T any] func(ctx context.Context, offset, limit int) (Page[T], error)

// Options configures a collection.
type Options struct {
	Offset         int         // starting offset
	Limit          int         // page size, fixed for the whole collection (default: 50)
	MaxConcurrency int         // cap on in-flight page fetches after the first page (0: no cap)
	RateLimit      float64     // page fetches per second (0: unpaced)
	Logger         *log.Logger // page failures are logged here (default: [log.Default])
	Metrics        *Metrics    // optional
}

func (o Options) withDefaults() Options {
	if o.Offset < 0 {
		o.Offset = 0
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.MaxConcurrency < 0 {
		o.MaxConcurrency = 0
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Report summarises one collection run.
type Report struct {
	Total    int           // total reported by the first page
	Pages    int           // pages planned, including the first
	Requests int           // page fetches actually sent; a page abandoned while waiting on the rate limiter is not one
	Failures int           // pages that degraded to an empty page
	Items    int           // items returned
	Offsets  []int         // offsets in issue order
	Errors   []error       // one per failure, in issue order
	Duration time.Duration // wall time of the whole collection
}

// Collect fetches every page of a remote collection and returns the items in offset order.
//
// See [CollectWithReport].
func Collect[T any](ctx context.Context, fetch FetchFunc[T], opts Options) []T {
	items, _ := CollectWithReport(ctx, fetch, opts)
	return items
}

// CollectWithReport fetches every page of a remote collection and returns the items in offset order with a [Report].
//
// The first page is fetched alone and its total decides how many more pages are needed:
// ceil((total - limit) / limit). Those pages are then fetched concurrently at offset + i*limit, bounded by
// [Options.MaxConcurrency] when set. Offsets always advance by the limit, whatever a page actually returned.
//
// A failed fetch is logged, counted, and treated as an empty page; it is never retried and never stops the other
// fetches. Collect itself cannot fail.
func CollectWithReport[T any](ctx context.Context, fetch FetchFunc[T], opts Options) ([]T, Report) {
	opts = opts.withDefaults()
	start := time.Now()

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	var sent atomic.Int64
	first := fetchPage(ctx, fetch, opts, limiter, opts.Offset, &sent)
	head := first.OrEmpty()

	remaining := head.Total - opts.Limit
	numRequests := 0
	if remaining > 0 {
		numRequests = (remaining + opts.Limit - 1) / opts.Limit
	}

	pages := make([]mo.Result[Page[T]], numRequests)
	offsets := make([]int, numRequests)

	var g errgroup.Group
	if opts.MaxConcurrency > 0 {
		g.SetLimit(opts.MaxConcurrency)
	}
	for i := range pages {
		offset := opts.Offset + (i+1)*opts.Limit
		offsets[i] = offset
		g.Go(func() error {
			pages[i] = fetchPage(ctx, fetch, opts, limiter, offset, &sent)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Total:    head.Total,
		Pages:    1 + numRequests,
		Requests: int(sent.Load()),
		Offsets:  append([]int{opts.Offset}, offsets...),
	}

	results := append([]mo.Result[Page[T]]{first}, pages...)
	items := make([]T, 0, len(head.Items)*len(results))
	for _, result := range results {
		if result.IsError() {
			report.Failures++
			report.Errors = append(report.Errors, result.Error())
			continue
		}
		items = append(items, result.MustGet().Items...)
	}

	report.Items = len(items)
	report.Duration = time.Since(start)
	opts.Metrics.ObserveCollection(report)

	opts.Logger.Debug("collection finished",
		"total", report.Total,
		"requests", report.Requests,
		"failures", report.Failures,
		"items", report.Items,
		"duration", report.Duration,
	)

	return items, report
}

// fetchPage runs one fetch and converts its outcome into a [mo.Result].
//
// sent and the request counter only move once the fetch is actually made.
func fetchPage[T any](ctx context.Context, fetch FetchFunc[T], opts Options, limiter *rate.Limiter, offset int, sent *atomic.Int64) mo.Result[Page[T]] {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return pageFailed[T](opts, offset, err)
		}
	}

	sent.Add(1)
	opts.Metrics.IncRequest()
	start := time.Now()
	page, err := fetch(ctx, offset, opts.Limit)
	opts.Metrics.ObserveDuration(time.Since(start))

	if err != nil {
		return pageFailed[T](opts, offset, err)
	}
	return mo.Ok(page)
}

func pageFailed[T any](opts Options, offset int, err error) mo.Result[Page[T]] {
	errType := ErrorType(err)
	opts.Metrics.IncFailure(errType)
	opts.Logger.Error("page fetch failed",
		"offset", offset,
		"limit", opts.Limit,
		"error_type", errType,
		"error", err,
	)
	return mo.Err[Page[T]](fmt.Errorf("page at offset %d: %w", offset, err))
}
