package cli

import (
	"fmt"
	"strconv"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/gitnotes/internal/config"
	"github.com/mithrel/gitnotes/internal/editor"
	"github.com/mithrel/gitnotes/internal/util"
	"github.com/mithrel/gitnotes/internal/wire"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion bash|zsh|fish|powershell",
		Short: "Generate shell completion scripts",
		Long: heredoc.Doc(`
			Print a completion script for your shell.

			  bash:  source <(gitnotes completion bash)
			  zsh:   gitnotes completion zsh > "${fpath[1]}/_gitnotes"
			  fish:  gitnotes completion fish | source
		`),
		Annotations:           map[string]string{skipApp: "true"},
		Args:                  cobra.ExactArgs(1),
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell %q", args[0])
			}
		},
	}
}

// completionApp wires an app for dynamic completions, which run without
// the pre-run hook. The session is restored from local state only.
func completionApp(cmd *cobra.Command) (*wire.App, func(), error) {
	v := viper.New()
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		v.SetConfigFile(p)
	}
	if err := config.Load(cmd.Context(), v); err != nil {
		return nil, nil, err
	}
	applyConfigFlagOverrides(cmd, v, globalFlagKeys)
	app, err := wire.BuildApp(cmd.Context(), v, wire.Options{})
	if err != nil {
		return nil, nil, err
	}
	done := func() { _ = app.Close() }
	if err := app.Store.Restore(cmd.Context()); err != nil {
		done()
		return nil, nil, err
	}
	return app, done, nil
}

// completeNotes offers note numbers with their titles as descriptions.
func completeNotes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	app, done, err := completionApp(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer done()
	all := app.Store.Cache().All()
	titles := make(map[string]string, len(all))
	candidates := make([]string, 0, len(all))
	for _, n := range all {
		key := strconv.Itoa(n.Number)
		titles[key] = editor.FirstLine(n.Title)
		candidates = append(candidates, key)
	}
	var out []string
	for _, c := range util.ScoreCompletions(toComplete, candidates, 50) {
		out = append(out, c+"\t"+titles[c])
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
