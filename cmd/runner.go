package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/protokoll/internal/formatter"
	"github.com/desertthunder/protokoll/internal/repositories"
	"github.com/desertthunder/protokoll/internal/services"
	"github.com/desertthunder/protokoll/internal/shared"
	"github.com/desertthunder/protokoll/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	backend    services.Backend
	history    *repositories.History
	db         *sql.DB
	saver      *formatter.Saver
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Dependencies left nil are built from the loaded configuration before a command runs.
type RunnerOpts struct {
	Config     *shared.Config
	Backend    services.Backend
	History    *repositories.History
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Now        func() time.Time
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
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		backend:    opts.Backend,
		history:    opts.History,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        opts.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		uploadCommand, generateCommand, protocolsCommand, statusCommand, testCommand,
		draftCommand, historyCommand, tuiCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// setup loads configuration and builds the dependencies that were not injected.
//
// Precedence for the backend URL is flag, then environment (.env included), then config file, then default.
func (r *Runner) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.config == nil {
		config, err := r.loadConfig(cmd.String("config"), cmd.IsSet("config"))
		if err != nil {
			return ctx, err
		}
		if err := config.ApplyEnv(cmd.String("env-file")); err != nil {
			return ctx, err
		}
		r.config = config
	}

	if url := cmd.String("backend-url"); url != "" {
		r.config.Backend.BaseURL = url
	}

	if r.backend == nil {
		api := services.NewAPIService(r.config.Backend.BaseURL, r.httpClient, r.config.Backend.Timeout, r.logger)
		backend, err := services.NewBackendService(api, 0)
		if err != nil {
			return ctx, err
		}
		r.backend = backend
	}

	if r.history == nil && r.config.History.Enabled {
		db, err := shared.OpenHistoryDatabase(ctx, r.config.History)
		if err != nil {
			return ctx, err
		}
		r.db = db
		r.history = repositories.NewHistory(db)
	}

	r.saver = formatter.NewSaver(r.config.Downloads.Dir)
	return ctx, nil
}

func (r *Runner) loadConfig(path string, explicit bool) (*shared.Config, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return shared.LoadConfig(path)
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		r.logger.Debug("config file not found, using defaults", "path", path)
		return shared.DefaultConfig(), nil
	default:
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrMissingConfig, path, err)
	}
}

func (r *Runner) teardown(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.history = nil
	return err
}

// recorder returns the history as a [tasks.HistoryRecorder], or nil when history is off.
func (r *Runner) recorder() tasks.HistoryRecorder {
	if r.history == nil {
		return nil
	}
	return r.history
}

// saverFor returns the configured saver, or one rooted at dir when the flag is set.
func (r *Runner) saverFor(cmd *cli.Command) *formatter.Saver {
	if dir := cmd.String("dir"); dir != "" {
		return formatter.NewSaver(dir)
	}
	return r.saver
}

func (r *Runner) listView(cmd *cli.Command, logger *log.Logger) *tasks.ProtocolListView {
	return tasks.NewProtocolListView(r.backend, r.saverFor(cmd), tasks.ListOpts{
		Logger:     logger,
		History:    r.recorder(),
		RetryDelay: r.config.Backend.RetryDelay,
		Now:        r.now,
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
