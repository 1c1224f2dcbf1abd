// Package cli is the gitnotes command line. Without a subcommand it starts
// the terminal UI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/mithrel/gitnotes/internal/apperr"
	"github.com/mithrel/gitnotes/internal/config"
	"github.com/mithrel/gitnotes/internal/present/tui"
	"github.com/mithrel/gitnotes/internal/wire"
)

type ctxKey string

const appKey ctxKey = "app"

// skipApp marks commands that only need the resolved configuration.
const skipApp = "gitnotes/skip-app"

// appSlot carries the wired app from the pre-run hook to the command and
// back out to whoever closes it.
type appSlot struct {
	v   *viper.Viper
	app *wire.App
}

func (s *appSlot) close() error {
	if s == nil || s.app == nil {
		return nil
	}
	err := s.app.Close()
	s.app = nil
	return err
}

// Execute runs the command line with os.Args.
func Execute() error {
	return ExecuteContext(context.Background(), NewRootCmd())
}

// ExecuteContext runs root and releases the app it wired, whether or not
// the command failed.
func ExecuteContext(ctx context.Context, root *cobra.Command) error {
	slot := &appSlot{}
	defer func() { _ = slot.close() }()
	return root.ExecuteContext(context.WithValue(ctx, appKey, slot))
}

// NewRootCmd constructs the command tree.
func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "gitnotes",
		Short: "Markdown notes stored as GitHub issues",
		Long: heredoc.Doc(`
			gitnotes keeps Markdown notes in a GitHub repository, one issue per note.

			Run it without a command to open the terminal UI, or use the commands
			below from scripts. Sign in once with a personal access token that has
			repository write access, then pick the repository holding your notes.
		`),
		Example: heredoc.Doc(`
			$ gitnotes login
			$ gitnotes repo select octocat/notes
			$ gitnotes note new "Groceries" -m "milk, eggs" -l todo
			$ gitnotes note list --state open -o json
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(cmd.Context(), v); err != nil {
				return err
			}
			applyConfigFlagOverrides(cmd, v, globalFlagKeys)

			slot, _ := cmd.Context().Value(appKey).(*appSlot)
			if slot == nil {
				slot = &appSlot{}
				cmd.SetContext(context.WithValue(cmd.Context(), appKey, slot))
			}
			slot.v = v
			if skipsApp(cmd) {
				return nil
			}
			app, err := wire.BuildApp(cmd.Context(), v, wire.Options{})
			if err != nil {
				return err
			}
			slot.app = app
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			slot, _ := cmd.Context().Value(appKey).(*appSlot)
			return slot.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
				return cmd.Help()
			}
			app := getApp(cmd)
			return tui.Run(cmd.Context(), tui.Options{
				Store:    app.Store,
				Renderer: app.Renderer,
				Logger:   app.Log,
				Headers:  true,
			})
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (default "+config.DefaultConfigPath()+")")
	pf.String("data-dir", "", "directory for local state")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("token-store", "", "where the token is kept: keyring or state")
	pf.StringP("repo", "R", "", "repository to use, as owner/name; also becomes the selection")
	_ = cmd.RegisterFlagCompletionFunc("log-level", cobra.FixedCompletions(
		[]string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("token-store", cobra.FixedCompletions(
		[]string{"keyring", "state"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("repo", completeRepoFlag)

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newRepoCmd())
	cmd.AddCommand(newNoteCmd())
	cmd.AddCommand(newCommentCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newCompletionCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

var globalFlagKeys = map[string]string{
	"data-dir":    "data_dir",
	"log-level":   "log.level",
	"token-store": "token_store",
}

func skipsApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipApp] == "true" {
			return true
		}
	}
	return false
}

func getApp(cmd *cobra.Command) *wire.App {
	slot, _ := cmd.Context().Value(appKey).(*appSlot)
	if slot == nil || slot.app == nil {
		fmt.Fprintln(os.Stderr, "internal error: app not initialized")
		os.Exit(1)
	}
	return slot.app
}

func getViper(cmd *cobra.Command) *viper.Viper {
	slot, _ := cmd.Context().Value(appKey).(*appSlot)
	if slot == nil || slot.v == nil {
		return viper.New()
	}
	return slot.v
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// FormatError turns err into the text printed before exiting, with a hint
// on how to recover.
func FormatError(err error) string {
	switch {
	case errors.Is(err, apperr.ErrNotAuthenticated):
		return "not signed in\nRun `gitnotes login` or set GITNOTES_TOKEN."
	case errors.Is(err, apperr.ErrNoRepository):
		return "no repository selected\nRun `gitnotes repo select owner/name` or pass --repo."
	}
	kind := apperr.KindOf(err)
	msg := apperr.Message(err)
	if kind == apperr.KindUnknown {
		return msg
	}
	return msg + "\n" + apperr.Suggestion(kind)
}
