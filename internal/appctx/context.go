// Package appctx provides application context helpers.
package appctx

import (
	"context"

	"github.com/basecamp/basecamp-cli/internal/output"
	"github.com/basecamp/basecamp-cli/internal/secrets"
	"github.com/basecamp/basecamp-cli/internal/session"
)

// contextKey is a private type for context keys.
type contextKey string

const appKey contextKey = "app"

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	JSON bool
	JQ   string
}

// App holds the shared application context for all commands.
type App struct {
	ConfigDir string
	Session   *session.Store
	Output    *output.Writer
	Flags     GlobalFlags
}

// NewApp wires the session store and output writer for one invocation.
func NewApp(configDir string, ks secrets.Keystore, flags GlobalFlags) *App {
	return &App{
		ConfigDir: configDir,
		Session:   session.NewStore(configDir, ks),
		Output: output.New(output.Options{
			JSON: flags.JSON,
			JQ:   flags.JQ,
		}),
		Flags: flags,
	}
}

// WithApp stores the app in the context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the app from the context.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey).(*App)
	return app
}
