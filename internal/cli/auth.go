package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mithrel/gitnotes/internal/config"
)

func newLoginCmd() *cobra.Command {
	var (
		token     string
		withToken bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a GitHub personal access token",
		Long: heredoc.Doc(`
			Sign in with a GitHub personal access token. The token needs write
			access to the repository holding your notes (the "repo" scope for a
			classic token).

			The token is taken from --token, from stdin with --with-token, from
			GITNOTES_TOKEN or GITHUB_TOKEN, or read from a hidden prompt.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx := cmd.Context()
			// A stale saved session should not block signing in again.
			if err := app.Store.Restore(ctx); err != nil {
				app.Log.Warn("login: restore failed", slog.Any("err", err))
			}
			tok := strings.TrimSpace(token)
			var err error
			switch {
			case tok != "":
			case withToken:
				tok, err = readLine(cmd.InOrStdin())
			case config.EnvToken() != "":
				tok = config.EnvToken()
			default:
				tok, err = promptToken(cmd)
			}
			if err != nil {
				return err
			}
			user, err := app.Store.Login(ctx, tok)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if user.Name != "" {
				fmt.Fprintf(out, "Signed in as %s (%s)\n", user.Login, user.Name)
			} else {
				fmt.Fprintf(out, "Signed in as %s\n", user.Login)
			}
			if repo := app.Store.SelectedRepo(); !repo.IsZero() {
				fmt.Fprintf(out, "Repository: %s\n", repo)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "personal access token")
	cmd.Flags().BoolVar(&withToken, "with-token", false, "read the token from stdin")
	cmd.MarkFlagsMutuallyExclusive("token", "with-token")
	return cmd
}

func promptToken(cmd *cobra.Command) (string, error) {
	if !isTerminal(os.Stdin) {
		return readLine(cmd.InOrStdin())
	}
	fmt.Fprint(cmd.ErrOrStderr(), "GitHub token: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the token and local state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx := cmd.Context()
			if err := app.Store.Restore(ctx); err != nil {
				app.Log.Warn("logout: restore failed", slog.Any("err", err))
			}
			if err := app.Store.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and selected repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := signedIn(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			u := app.Store.User()
			fmt.Fprintf(out, "login: %s\n", u.Login)
			if u.Name != "" {
				fmt.Fprintf(out, "name: %s\n", u.Name)
			}
			repo := "(none)"
			if r := app.Store.SelectedRepo(); !r.IsZero() {
				repo = r.String()
			}
			fmt.Fprintf(out, "repository: %s\n", repo)
			return nil
		},
	}
}
