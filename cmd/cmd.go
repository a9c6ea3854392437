// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func kindFlag(value string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "kind",
		Aliases: []string{"k"},
		Usage:   "Artifact kind (pdf or latex)",
		Value:   value,
	}
}

func dirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "dir",
		Aliases: []string{"d"},
		Usage:   "Download directory (default: downloads.dir from config)",
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

// uploadCommand sends files to the backend and prints what it extracted
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload measurement files, photos and notes",
		ArgsUsage: "<file>...",
		Flags:     jsonFlags(),
		Action:    r.Upload,
	}
}

// generateCommand uploads inputs and generates a protocol from them
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate a protocol from files and notes",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "title",
				Aliases:  []string{"t"},
				Usage:    "Protocol title",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Free-form description of the experiment",
			},
			&cli.StringSliceFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Input file to upload (repeatable)",
			},
			&cli.StringFlag{
				Name:  "note",
				Usage: "Manual notes sent as an extra text input",
			},
			&cli.StringFlag{
				Name:  "download",
				Usage: "Download the generated protocol as pdf or latex",
			},
			&cli.BoolFlag{
				Name:  "skip-pdf",
				Usage: "Do not wait for the background PDF render",
			},
			dirFlag(),
		}, jsonFlags()...),
		Action: r.Generate,
	}
}

// protocolsCommand handles listing and downloading protocols
func protocolsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "protocols",
		Aliases: []string{"p"},
		Usage:   "Browse and download generated protocols",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List protocols",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Case-insensitive title search",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Status filter (all, completed or draft)",
						Value: "all",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort order (newest, oldest or title)",
						Value: "newest",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format (table, markdown, csv or json)",
						Value: "table",
					},
				},
				Action: r.ProtocolsList,
			},
			{
				Name:  "show",
				Usage: "Show one protocol with its inputs and generated content",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "latex",
						Usage: "Print a local LaTeX preview of the generated content",
					},
				}, jsonFlags()...),
				Action: r.ProtocolsShow,
			},
			{
				Name:  "download",
				Usage: "Download one artifact (a missing PDF is regenerated once)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{kindFlag("pdf"), dirFlag()},
				Action: r.ProtocolsDownload,
			},
			{
				Name:   "bulk",
				Usage:  "Download one archive with every completed protocol",
				Flags:  []cli.Flag{kindFlag("pdf"), dirFlag()},
				Action: r.ProtocolsBulk,
			},
			{
				Name:  "pull",
				Usage: "Download every completed protocol individually and write a manifest",
				Flags: []cli.Flag{
					kindFlag("pdf"),
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Output directory (default: protokolle_<kind>_<epoch>)",
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Concurrent downloads (default: pull.workers from config)",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Requests per second (default: pull.rate_limit from config)",
					},
				},
				Action: r.ProtocolsPull,
			},
		},
	}
}

// statusCommand shows backend health and protocol counts
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show backend, LLM and database availability",
		Flags:  jsonFlags(),
		Action: r.Status,
	}
}

// testCommand runs the backend's smoke tests
func testCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "test",
		Usage: "Backend smoke tests",
		Commands: []*cli.Command{
			{
				Name:  "llm",
				Usage: "Generate a sample protocol to check the LLM connection",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Sample protocol title",
					},
					&cli.StringFlag{
						Name:  "experiment",
						Usage: "Sample experiment type",
					},
				},
				Action: r.TestLLM,
			},
			{
				Name:  "pdf",
				Usage: "Render the PDF of a protocol again",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.TestPDF,
			},
		},
	}
}

// draftCommand handles local protocol drafts
func draftCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "draft",
		Usage: "Work with local protocol drafts",
		Commands: []*cli.Command{
			{
				Name:  "render",
				Usage: "Render a TOML sections file as a LaTeX skeleton",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
				},
				Action: r.DraftRender,
			},
		},
	}
}

// historyCommand lists the local history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List protocols generated and artifacts saved on this machine",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum entries per section",
				Value:   20,
			},
		}, jsonFlags()...),
		Action: r.History,
	}
}

// tuiCommand returns the top-level TUI command for interactive protocol browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive protocol browser",
		Flags: []cli.Flag{
			dirFlag(),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where the TUI writes its logs",
				Value: "./tmp/protokoll-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// configCommand handles configuration files
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a config.toml with the default settings",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path", Value: "config.toml"},
				},
				Action: r.ConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration",
				Action: r.ConfigShow,
			},
		},
	}
}
