// Package pager collects a whole result set from an offset/limit API that reports a total count.
//
// # Algorithm
//
// [CollectWithReport] fetches the first page on its own; its total decides how many more pages exist. The remaining
// pages are requested concurrently through an [errgroup.Group] and reassembled by request index, so the result is
// always in offset order regardless of which request finishes first.
//
// Every fetch produces a [mo.Result]. An error becomes an empty page: it is logged with its offset and error type,
// counted in [Metrics], and appended to [Report.Errors]. Nothing is retried and a collection never fails as a whole.
// A failed first page reports a total of zero, which ends the collection after one request.
//
// # Scheduling
//
//   - [Options.MaxConcurrency] bounds in-flight fetches; zero issues every remaining page at once.
//   - [Options.RateLimit] paces fetches with a [rate.Limiter]; zero disables pacing.
//
// Neither changes which offsets are requested or the order of the result.
//
// # Offsets
//
// Offsets advance by the limit even when a page comes back short. If the remote truncates a page in the middle
// of the collection the result is missing those items; the pager does not try to detect it.
package pager
