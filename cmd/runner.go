package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/plextool/plextool/internal/credentials"
	"github.com/plextool/plextool/internal/plex"
	"github.com/plextool/plextool/internal/prompt"
	"github.com/plextool/plextool/internal/shared"
	"github.com/plextool/plextool/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config       *shared.Config
	configPath   string
	settingsPath string
	client       *plex.Client
	creds        *credentials.Credentials
	prompter     prompt.Prompter
	restarter    tasks.Restarter
	logger       *log.Logger
	output       io.Writer
	clientOpts   []plex.Option
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config       *shared.Config
	ConfigPath   string
	SettingsPath string
	Client       *plex.Client
	Prompter     prompt.Prompter
	Restarter    tasks.Restarter
	Logger       *log.Logger
	Output       io.Writer
	// ClientOptions are appended to every client the runner builds, so tests
	// can point API traffic at local servers.
	ClientOptions []plex.Option
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
	if opts.Prompter == nil {
		opts.Prompter = prompt.New()
	}
	if opts.Restarter == nil {
		opts.Restarter = tasks.DockerRestarter{}
	}

	return &Runner{
		config:       opts.Config,
		configPath:   opts.ConfigPath,
		settingsPath: opts.SettingsPath,
		client:       opts.Client,
		prompter:     opts.Prompter,
		restarter:    opts.Restarter,
		logger:       opts.Logger,
		output:       opts.Output,
		clientOpts:   opts.ClientOptions,
	}
}

// SetLogger swaps the runner's logger, e.g. onto a file while a TUI owns the
// terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		authCommand, playlistsCommand, dedupCommand, deleteCommand, downloadCommand, updateCommand, collectCommand, browseCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// applyGlobalFlags folds the root-level flags into the runner before a
// command action runs: alternate settings and config paths, debug logging.
func (r *Runner) applyGlobalFlags(cmd *cli.Command) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if path := cmd.String("settings"); path != "" {
		r.settingsPath = path
	}
	if path := cmd.String("config"); path != "" && path != r.configPath {
		config, err := shared.LoadConfig(path)
		if err != nil {
			r.logger.Warn("config not loaded, keeping previous settings", "path", path, "err", err)
			return
		}
		r.config, r.configPath = config, path
	}
}

// connect returns a client for the configured server. Without stored
// credentials the interactive sign-in runs first; a stored token the server
// rejects triggers one more sign-in before giving up.
func (r *Runner) connect(ctx context.Context) (*plex.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	creds, err := r.loadCredentials(ctx)
	if err != nil {
		return nil, err
	}

	client, err := r.newClient(creds)
	if err != nil {
		return nil, err
	}

	identity, err := client.Identity(ctx)
	if errors.Is(err, shared.ErrUnauthorized) {
		r.logger.Warn("the server rejected the stored token, signing in again")
		if creds, err = r.login(ctx, "", "", false); err != nil {
			return nil, err
		}
		if client, err = r.newClient(creds); err != nil {
			return nil, err
		}
		identity, err = client.Identity(ctx)
	}
	if err != nil {
		return nil, err
	}

	r.logger.Debug("connected", "server", identity.FriendlyName, "version", identity.Version)
	r.client, r.creds = client, creds
	return client, nil
}

// loadCredentials resolves credentials in precedence order: environment
// overrides, then the settings file, then the interactive sign-in.
func (r *Runner) loadCredentials(ctx context.Context) (*credentials.Credentials, error) {
	if baseurl, token := os.Getenv("PLEXTOOL_BASEURL"), os.Getenv("PLEXTOOL_TOKEN"); baseurl != "" && token != "" {
		r.logger.Debug("using credentials from environment")
		return &credentials.Credentials{BaseURL: baseurl, Token: token}, nil
	}

	creds, err := credentials.Load(r.settingsPath)
	if errors.Is(err, shared.ErrNoCredentials) {
		r.logger.Info("no stored credentials, starting sign-in", "path", r.settingsPath)
		return r.login(ctx, "", "", false)
	}
	if err != nil {
		return nil, err
	}
	return creds, nil
}

// login walks the interactive sign-in and persists the result.
func (r *Runner) login(ctx context.Context, server, user string, link bool) (*credentials.Credentials, error) {
	flow := &credentials.Flow{
		Prompter:       r.prompter,
		Output:         r.output,
		Logger:         r.logger,
		Link:           link,
		AccountOptions: r.accountOptions(),
		ClientOptions:  r.accountOptions(),
	}
	creds, err := flow.Run(ctx, server, user)
	if err != nil {
		return nil, err
	}
	if err := credentials.Save(r.settingsPath, creds); err != nil {
		return nil, err
	}
	r.logger.Info("credentials saved", "path", r.settingsPath)
	return creds, nil
}

// newClient builds a server client with the configured product, timeout and
// request rate applied.
func (r *Runner) newClient(creds *credentials.Credentials) (*plex.Client, error) {
	opts := []plex.Option{
		plex.WithProduct(r.config.Client.Product, version),
		plex.WithLogger(r.logger),
	}
	if t := r.config.Client.TimeoutSeconds; t > 0 {
		opts = append(opts, plex.WithHTTPClient(&http.Client{Timeout: time.Duration(t) * time.Second}))
	}
	if rps := r.config.Client.RateLimit; rps > 0 {
		burst := r.config.Client.RateBurst
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, plex.WithLimiter(rate.NewLimiter(rate.Limit(rps), burst)))
	}
	opts = append(opts, r.clientOpts...)
	return plex.New(creds.BaseURL, creds.Token, opts...)
}

func (r *Runner) accountOptions() []plex.Option {
	return append([]plex.Option{plex.WithLogger(r.logger)}, r.clientOpts...)
}

// userClient returns a client scoped to the named home user, or the plain
// server client when name is empty. The scoped token comes from the switched
// account's resource listing for this very server.
func (r *Runner) userClient(ctx context.Context, name string) (*plex.Client, error) {
	client, err := r.connect(ctx)
	if err != nil || name == "" {
		return client, err
	}
	if r.creds == nil {
		return nil, fmt.Errorf("%w: user switching needs stored credentials", shared.ErrNoCredentials)
	}

	identity, err := client.Identity(ctx)
	if err != nil {
		return nil, err
	}

	account := plex.NewAccount(r.creds.Token, r.accountOptions()...)
	users, err := account.HomeUsers(ctx)
	if err != nil {
		return nil, err
	}

	var match *plex.HomeUser
	names := make([]string, 0, len(users))
	for i := range users {
		u := &users[i]
		names = append(names, u.Title)
		if strings.EqualFold(u.Username, name) || strings.EqualFold(u.Email, name) || strings.EqualFold(u.Title, name) {
			match = u
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: no home user named %q, users are: %s", shared.ErrNoMatch, name, strings.Join(names, ", "))
	}

	pin := ""
	if match.Protected {
		if pin, err = r.prompter.Password(fmt.Sprintf("PIN for %s", match.Title)); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAborted, err)
		}
	}
	switched, err := account.SwitchUser(ctx, match.UUID, pin)
	if err != nil {
		return nil, err
	}

	resources, err := plex.NewAccount(switched.AuthToken, r.accountOptions()...).Resources(ctx)
	if err != nil {
		return nil, err
	}
	for _, res := range resources {
		if res.ClientIdentifier == identity.MachineIdentifier && res.AccessToken != "" {
			r.logger.Debug("switched user", "user", match.Title)
			return client.WithToken(res.AccessToken), nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no access to %s", shared.ErrNoMatch, match.Title, identity.FriendlyName)
}

// selectPlaylists resolves the --playlist selector: exact title matches win,
// anything else is tried as a regular expression over all titles.
func (r *Runner) selectPlaylists(ctx context.Context, client *plex.Client, pattern string) ([]plex.Playlist, error) {
	playlists, err := client.Playlists(ctx)
	if err != nil {
		return nil, err
	}
	selected, err := plex.SelectPlaylists(playlists, pattern)
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(selected))
	for i, p := range selected {
		titles[i] = p.Title
	}
	r.logger.Debug("playlists selected", "pattern", pattern, "titles", strings.Join(titles, ", "))
	return selected, nil
}

// confirm gates a mutating step. The yes flag skips the prompt; declining
// returns [shared.ErrAborted], which main maps to a clean zero exit.
func (r *Runner) confirm(message string, yes bool) error {
	if yes {
		return nil
	}
	ok, err := r.prompter.Confirm(message, false)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAborted, err)
	}
	if !ok {
		return fmt.Errorf("%w: declined", shared.ErrAborted)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
