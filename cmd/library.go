package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/songyears/internal/formatter"
	"github.com/desertthunder/songyears/internal/library"
	"github.com/desertthunder/songyears/internal/services"
	"github.com/desertthunder/songyears/internal/shared"
	"github.com/urfave/cli/v3"
)

// LibraryYears collects the user's liked songs with a raw access token and prints them grouped by release year.
func (r *Runner) LibraryYears(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.Collector.Validate(); err != nil {
		return err
	}

	opts := r.collectorOptions(config)
	if size := cmd.Int("page-size"); size != 0 {
		if size < 0 || size > services.MaxSavedTracksLimit {
			return fmt.Errorf("%w: --page-size must be between 1 and %d", shared.ErrInvalidArgument, services.MaxSavedTracksLimit)
		}
		opts.Limit = size
	}
	if concurrency := cmd.Int("concurrency"); concurrency >= 0 {
		opts.MaxConcurrency = concurrency
	}

	format := cmd.String("format")
	if cmd.Bool("json") {
		format = "json"
	}

	client := services.NewTokenClient(ctx, r.httpClient, cmd.String("token"))

	r.logger.Info("collecting liked songs", "page_size", opts.Limit, "max_concurrency", opts.MaxConcurrency)
	groups, report, err := library.SongsByYear(ctx, client, opts)
	if err != nil {
		return err
	}

	if report.Failures > 0 {
		r.logger.Warn("some pages could not be fetched", "failures", report.Failures, "requests", report.Requests)
	}
	if report.Failures == report.Pages {
		return fmt.Errorf("%w: every page request failed: %v", shared.ErrAPIRequest, report.Errors[0])
	}

	if cmd.Bool("sort") {
		groups = groups.Sorted()
	}

	return formatter.Write(r.output, format, groups, report, cmd.Bool("pretty"))
}
