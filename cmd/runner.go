package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	httpClient *http.Client
	tokens     *services.TokenStore
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.ExportEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService // when nil, built per command from the client config and stored token
	HTTPClient *http.Client         // base client for login and unauthenticated requests
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Client.Timeout}
	}

	tokenPath, err := shared.ExpandPath(opts.Config.Client.TokenPath)
	if err != nil {
		opts.Logger.Warn("failed to expand token path", "path", opts.Config.Client.TokenPath, "error", err)
		tokenPath = opts.Config.Client.TokenPath
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		tokens:     services.NewTokenStore(tokenPath),
		logger:     opts.Logger,
		output:     opts.Output,
		engine:     tasks.NewExportEngine(opts.Logger),
	}
}

// SetLogger replaces the logger for the runner and its export engine.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.engine = tasks.NewExportEngine(l)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, authCommand, albumsCommand, singersCommand, songsCommand, exportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}
	keepSliceValues(commands)

	return commands
}

// keepSliceValues stops slice flags splitting on commas, so a sort key like "name,asc" stays one value.
// urfave/cli reads the setting from whichever command runs, so it is set on every command in the tree.
func keepSliceValues(commands []*cli.Command) {
	for _, c := range commands {
		c.DisableSliceFlagSeparator = true
		keepSliceValues(c.Commands)
	}
}

// client returns the backend client, authenticated with the stored token.
func (r *Runner) client(ctx context.Context) (*services.APIService, error) {
	if r.api != nil {
		return r.api, nil
	}

	tok, err := r.tokens.Load()
	switch {
	case errors.Is(err, shared.ErrTokenExpired), errors.Is(err, shared.ErrNotAuthenticated):
		return nil, fmt.Errorf("%w: run jukebox auth login", err)
	case err != nil:
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	r.api = services.NewAPIService(r.config.Client.BaseURL, services.NewHTTPClient(ctx, r.config.Client.Timeout, tok))
	return r.api, nil
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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
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
