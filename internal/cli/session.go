package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mithrel/gitnotes/internal/apperr"
	"github.com/mithrel/gitnotes/internal/config"
	"github.com/mithrel/gitnotes/internal/present"
	"github.com/mithrel/gitnotes/internal/wire"
	"github.com/mithrel/gitnotes/pkg/api"
)

// signedIn restores the saved session. When none exists a token from the
// environment signs in for this run.
func signedIn(cmd *cobra.Command) (*wire.App, error) {
	app := getApp(cmd)
	ctx := cmd.Context()
	if err := app.Store.Restore(ctx); err != nil {
		return nil, err
	}
	if app.Store.Authenticated() {
		return app, nil
	}
	tok := config.EnvToken()
	if tok == "" {
		return nil, apperr.ErrNotAuthenticated
	}
	if _, err := app.Store.Login(ctx, tok); err != nil {
		return nil, err
	}
	return app, nil
}

// withRepo is signedIn plus a selected repository with its notes loaded.
// --repo switches the selection first.
func withRepo(cmd *cobra.Command) (*wire.App, error) {
	app, err := signedIn(cmd)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if raw, _ := cmd.Flags().GetString("repo"); raw != "" {
		ref, err := api.ParseRepoRef(raw)
		if err != nil {
			return nil, apperr.Validation("select repository", err.Error())
		}
		if ref != app.Store.SelectedRepo() {
			if err := app.Store.SelectRepo(ctx, ref); err != nil {
				return nil, err
			}
		}
	}
	if app.Store.SelectedRepo().IsZero() {
		return nil, apperr.ErrNoRepository
	}
	if !app.Store.Cache().Loaded() {
		if err := app.Store.Reload(ctx); err != nil {
			return nil, err
		}
	}
	if app.Store.Cache().Truncated() {
		app.Log.Warn("note list truncated", slog.String("repo", app.Store.SelectedRepo().String()))
	}
	return app, nil
}

// parseNumber accepts "12" or "#12".
func parseNumber(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(arg), "#"))
	if err != nil || n <= 0 {
		return 0, apperr.Validation("note", fmt.Sprintf("invalid note number %q", arg))
	}
	return n, nil
}

func noteByNumber(app *wire.App, arg string) (api.Note, error) {
	n, err := parseNumber(arg)
	if err != nil {
		return api.Note{}, err
	}
	note, ok := app.Store.Cache().GetByNumber(n)
	if !ok {
		return api.Note{}, fmt.Errorf("note #%d in %s: %w", n, app.Store.SelectedRepo(), apperr.ErrNotFound)
	}
	return note, nil
}

type outputFlags struct {
	output    string
	noHeaders bool
	indent    bool
}

func (f *outputFlags) register(cmd *cobra.Command, modes ...string) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "plain", "output format: "+strings.Join(modes, ", "))
	cmd.Flags().BoolVar(&f.noHeaders, "no-headers", false, "omit table headers")
	cmd.Flags().BoolVar(&f.indent, "indent", false, "indent JSON output")
	_ = cmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(modes, cobra.ShellCompDirectiveNoFileComp))
}

func (f *outputFlags) options(app *wire.App) (present.Options, error) {
	mode, ok := present.ParseMode(f.output)
	if !ok {
		return present.Options{}, apperr.Validation("output", fmt.Sprintf("unknown output format %q", f.output))
	}
	width := app.Settings.Render.WordWrap
	if isTerminal(os.Stdout) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && w < width {
			width = w
		}
	}
	return present.Options{
		Mode:       mode,
		JSONIndent: f.indent,
		Headers:    !f.noHeaders,
		Width:      width,
		Renderer:   app.Renderer,
	}, nil
}
