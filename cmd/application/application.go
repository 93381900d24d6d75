// Package application provides the application interface for modelshelf
// commands.
//
// Commands accept this interface rather than the concrete App type so they
// can be tested with application.Mock from internal/cmd/application.
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            client, err := app.Client()
//	            if err != nil {
//	                return err
//	            }
//	            _, err = client.Sync(cmd.Context())
//	            return err
//	        },
//	    }
//	}
package application

import (
	"github.com/rs/zerolog"

	"github.com/modelshelf/modelshelf"
	"github.com/modelshelf/modelshelf/internal/server"
)

// Application provides what commands need from the application.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Client returns the catalog client, creating it on first use.
	// Configuration errors surface here before any command side effect.
	Client() (modelshelf.Client, error)

	// WatchOptions returns the continuous mode settings.
	WatchOptions() modelshelf.WatchOptions

	// ServerConfig returns the trigger server settings.
	ServerConfig() server.Config

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
