package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songyears/internal/pager"
	"github.com/desertthunder/songyears/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is loaded from the --config flag of each command.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){serveCommand, setupCommand, libraryCommand} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig returns the runner's config, or the file at path with environment overrides applied.
//
// A missing file falls back to the defaults. The log level from the config is applied to the runner's logger.
func (r *Runner) loadConfig(path string) (*shared.Config, error) {
	config := r.config
	if config == nil {
		if _, err := os.Stat(path); err == nil {
			if config, err = shared.LoadConfig(path); err != nil {
				return nil, err
			}
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
			config = shared.DefaultConfig()
		}
		config.ApplyEnv()
	}

	level, err := shared.ParseLevel(config.Log.Level)
	if err != nil {
		return nil, err
	}
	shared.SetLogLevel(r.logger, level)

	return config, nil
}

// collectorOptions maps the collector config onto pager options.
func (r *Runner) collectorOptions(config *shared.Config) pager.Options {
	return pager.Options{
		Limit:          config.Collector.PageSize,
		MaxConcurrency: config.Collector.MaxConcurrency,
		RateLimit:      config.Collector.RateLimit,
		Logger:         shared.WithLogger(r.logger, "component", "pager"),
	}
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
