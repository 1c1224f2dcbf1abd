package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mithrel/gitnotes/internal/apperr"
	"github.com/mithrel/gitnotes/internal/present"
	"github.com/mithrel/gitnotes/internal/util"
	"github.com/mithrel/gitnotes/pkg/api"
)

func newRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "repo",
		Aliases: []string{"repos"},
		Short:   "List and select the repository holding your notes",
	}
	cmd.AddCommand(newRepoListCmd())
	cmd.AddCommand(newRepoSelectCmd())
	cmd.AddCommand(newRepoShowCmd())
	return cmd
}

func newRepoListCmd() *cobra.Command {
	var (
		query string
		out   outputFlags
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List repositories you can access",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := signedIn(cmd)
			if err != nil {
				return err
			}
			opts, err := out.options(app)
			if err != nil {
				return err
			}
			repos, err := app.Store.Repositories(cmd.Context())
			if err != nil {
				return err
			}
			repos = util.RankRepositories(query, repos)
			selected := app.Store.SelectedRepo()
			return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				return present.RenderRepos(w, repos, selected, opts)
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "fuzzy filter on owner/name")
	out.register(cmd, "plain", "json", "ndjson")
	return cmd
}

func newRepoSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "select owner/name",
		Short:             "Select the repository used by note commands",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeRepos,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := signedIn(cmd)
			if err != nil {
				return err
			}
			ref, err := api.ParseRepoRef(args[0])
			if err != nil {
				return apperr.Validation("select repository", err.Error())
			}
			ctx := cmd.Context()
			if err := app.Store.SelectRepo(ctx, ref); err != nil {
				return err
			}
			if err := app.Store.Reload(ctx); err != nil {
				app.Store.ClearRepo(ctx)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Selected %s (%d notes)\n", ref, app.Store.Cache().Len())
			return nil
		},
	}
}

func newRepoShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the selected repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if err := app.Store.Restore(cmd.Context()); err != nil {
				return err
			}
			ref := app.Store.SelectedRepo()
			if ref.IsZero() {
				return apperr.ErrNoRepository
			}
			fmt.Fprintln(cmd.OutOrStdout(), ref)
			return nil
		},
	}
}

// completeRepos offers owner/name of the accessible repositories.
func completeRepos(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return completeRepoFlag(cmd, args, toComplete)
}

func completeRepoFlag(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	app, done, err := completionApp(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer done()
	ctx := cmd.Context()
	if !app.Store.Authenticated() {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names, err := repoNames(ctx, app.Store.Repositories)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return util.ScoreCompletions(toComplete, names, 50), cobra.ShellCompDirectiveNoFileComp
}

func repoNames(ctx context.Context, list func(context.Context) ([]api.Repository, error)) ([]string, error) {
	repos, err := list(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, r.FullName)
	}
	return names, nil
}
