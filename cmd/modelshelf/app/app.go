// Package app provides the application context and dependency management
// for the modelshelf CLI: configuration, logging and the lazily created
// catalog client.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/modelshelf/modelshelf"
	"github.com/modelshelf/modelshelf/cmd/application"
	"github.com/modelshelf/modelshelf/internal/server"
	"github.com/modelshelf/modelshelf/pkg/errors"
)

var _ application.Application = (*App)(nil)

// App represents the modelshelf application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Client instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	client modelshelf.Client
	extra  []modelshelf.Option
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Client returns the catalog client, creating it lazily if needed.
func (a *App) Client() (modelshelf.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	c, err := modelshelf.New(append(a.clientOptions(), a.extra...)...)
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

// WatchOptions returns the continuous mode settings.
func (a *App) WatchOptions() modelshelf.WatchOptions {
	return modelshelf.WatchOptions{
		Interval:    a.config.PollInterval,
		MaxDuration: a.config.ExitAfter,
	}
}

// ServerConfig returns the trigger server settings.
func (a *App) ServerConfig() server.Config {
	cfg := server.DefaultConfig()
	if a.config.ListenAddr != "" {
		cfg.Addr = a.config.ListenAddr
	}
	cfg.Token = a.config.TriggerToken
	return cfg
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(_ context.Context) error {
	a.logger.Debug().Msg("Shutting down")
	return nil
}

// clientOptions constructs client options from the app configuration.
func (a *App) clientOptions() []modelshelf.Option {
	c := a.config
	opts := []modelshelf.Option{
		modelshelf.WithToken(c.BotToken),
		modelshelf.WithChannelID(c.ChannelID),
		modelshelf.WithDryRun(c.DryRun),
	}
	if c.DataDir != "" {
		opts = append(opts, modelshelf.WithDataDir(c.DataDir))
	}
	if c.CatalogPath != "" {
		opts = append(opts, modelshelf.WithCatalogPath(c.CatalogPath))
	}
	if c.StatePath != "" {
		opts = append(opts, modelshelf.WithStatePath(c.StatePath))
	}
	if c.QueuePath != "" {
		opts = append(opts, modelshelf.WithQueuePath(c.QueuePath))
	}
	if c.APIBase != "" {
		opts = append(opts, modelshelf.WithAPIBase(c.APIBase))
	}
	if c.PollTimeout > 0 {
		opts = append(opts, modelshelf.WithPollTimeout(c.PollTimeout))
	}
	switch {
	case c.NoWebMirror:
		opts = append(opts, modelshelf.WithoutMirror())
	case c.MirrorPath != "":
		opts = append(opts, modelshelf.WithMirrorPath(c.MirrorPath))
	}
	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom client instance (useful for testing).
func WithClient(c modelshelf.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}

// WithClientOptions appends options used when the client is created.
func WithClientOptions(opts ...modelshelf.Option) Option {
	return func(a *App) error {
		a.extra = append(a.extra, opts...)
		return nil
	}
}
