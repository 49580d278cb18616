// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/songyears/internal/formatter"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// serveCommand runs the web application
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web app",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides server.host and server.port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the app in the default browser once it is listening",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and the session database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the session database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// libraryCommand reads the user's library from the terminal
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Spotify library operations",
		Commands: []*cli.Command{
			{
				Name:  "years",
				Usage: "Group liked songs by release year",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "token",
						Aliases:  []string{"t"},
						Usage:    "Spotify access token with the user-library-read scope",
						Sources:  cli.EnvVars("SPOTIFY_ACCESS_TOKEN"),
						Required: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: " + strings.Join(formatter.Formats, ", "),
						Value:   "styled",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output JSON (same as --format json)",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
					&cli.BoolFlag{
						Name:  "sort",
						Usage: "List years in ascending order instead of first-seen order",
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Saved tracks per request, 1-50 (overrides collector.page_size)",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Maximum requests in flight, 0 for no cap (overrides collector.max_concurrency)",
						Value: -1,
					},
				},
				Action: r.LibraryYears,
			},
		},
	}
}
