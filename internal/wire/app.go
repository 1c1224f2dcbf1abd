// Package wire builds the application services from resolved settings.
package wire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mithrel/gitnotes/internal/config"
	"github.com/mithrel/gitnotes/internal/db"
	"github.com/mithrel/gitnotes/internal/editor"
	"github.com/mithrel/gitnotes/internal/github"
	"github.com/mithrel/gitnotes/internal/keys"
	"github.com/mithrel/gitnotes/internal/render"
	"github.com/mithrel/gitnotes/internal/sched"
	"github.com/mithrel/gitnotes/internal/store"
)

// Version is stamped at build time with -ldflags "-X".
var Version = "dev"

// App aggregates the major services for easy injection.
type App struct {
	Cfg      *viper.Viper
	Settings config.Settings
	Log      *slog.Logger
	DB       db.Store
	Tokens   keys.TokenStore
	Store    *store.Store
	Renderer *render.Renderer

	closers []io.Closer
}

// Options override parts of the wiring, mainly for tests.
type Options struct {
	// LogWriter replaces the log file.
	LogWriter io.Writer
	// NewClient replaces the GitHub client factory.
	NewClient store.ClientFactory
	Clock     sched.Clock
}

// BuildApp wires dependencies from the resolved configuration in v.
func BuildApp(ctx context.Context, v *viper.Viper, opts Options) (*App, error) {
	s, err := config.Decode(v)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	app := &App{Cfg: v, Settings: s}

	w := opts.LogWriter
	if w == nil {
		f, err := OpenLogFile(config.ResolveLogPath(s))
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, f)
		w = f
	}
	app.Log = NewLogger(w, s.Log.Level)

	state, closer, err := db.Open(ctx, config.ResolveDBPath(s))
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("open state: %w", err)
	}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	app.DB = state

	app.Tokens, err = keys.Open(s.TokenStore, state)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	view, err := editor.ParseViewMode(s.Editor.DefaultView)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Renderer = render.New(s.UI.Theme, s.Render.WordWrap)

	newClient := opts.NewClient
	if newClient == nil {
		newClient = app.githubClient
	}
	app.Store = store.New(store.Options{
		State:     state,
		Tokens:    app.Tokens,
		NewClient: newClient,
		Clock:     opts.Clock,
		Logger:    app.Log,
		Editor: store.EditorOptions{
			Autosave:      s.Editor.Autosave,
			AutosaveDelay: s.Editor.AutosaveDelay,
			View:          view,
		},
		Theme:   s.UI.Theme,
		Sidebar: s.UI.Sidebar,
	})
	app.Log.Debug("app wired",
		slog.String("data_dir", config.ResolveDataDir(s)),
		slog.String("token_store", s.TokenStore),
		slog.String("api_url", s.GitHub.APIURL))
	return app, nil
}

func (a *App) githubClient(token string) store.Remote {
	s := a.Settings.GitHub
	return github.New(github.ClientConfig{
		Token:      token,
		BaseURL:    s.APIURL,
		GraphQLURL: s.GraphQLURL,
		Timeout:    s.Timeout,
		PageSize:   s.PageSize,
		UserAgent:  "gitnotes/" + Version,
		Logger:     a.Log,
	})
}

// Close releases the state database and the log file.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewLogger returns a text logger at the named level. Unknown levels log
// at info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// OpenLogFile opens path for appending, creating its directory.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
