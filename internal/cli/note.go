package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/mithrel/gitnotes/internal/apperr"
	"github.com/mithrel/gitnotes/internal/notes"
	"github.com/mithrel/gitnotes/internal/present"
	"github.com/mithrel/gitnotes/internal/present/format"
	"github.com/mithrel/gitnotes/internal/util"
	"github.com/mithrel/gitnotes/pkg/api"
)

// noteThread is the JSON shape of a note shown with its comments.
type noteThread struct {
	api.Note
	Thread []api.Comment `json:"thread"`
}

func newNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "note",
		Aliases: []string{"notes", "n"},
		Short:   "Work with the notes of the selected repository",
		Long: heredoc.Doc(`
			Notes are the issues of the selected repository. Pull requests are
			never listed. A note is addressed by its issue number.
		`),
	}
	cmd.AddCommand(newNoteListCmd())
	cmd.AddCommand(newNoteShowCmd())
	cmd.AddCommand(newNoteNewCmd())
	cmd.AddCommand(newNoteEditCmd())
	cmd.AddCommand(newNoteStateCmd("close", "Close a note", "Closed"))
	cmd.AddCommand(newNoteStateCmd("reopen", "Reopen a closed note", "Reopened"))
	cmd.AddCommand(newNoteDeleteCmd())
	return cmd
}

func newNoteListCmd() *cobra.Command {
	var (
		query  string
		state  string
		labels []string
		since  string
		sortBy string
		out    outputFlags
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List notes",
		Example: heredoc.Doc(`
			$ gitnotes note list --state open
			$ gitnotes note list -q milk -l todo --since 7d
			$ gitnotes note list --sort title -o ndjson
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := withRepo(cmd)
			if err != nil {
				return err
			}
			opts, err := out.options(app)
			if err != nil {
				return err
			}
			st, err := notes.ParseStateFilter(state)
			if err != nil {
				return apperr.Validation("list notes", err.Error())
			}
			key, err := notes.ParseSortKey(sortBy)
			if err != nil {
				return apperr.Validation("list notes", err.Error())
			}
			crit := notes.Criteria{Query: query, State: st, Labels: labels}
			if since != "" {
				crit.Since, err = util.ParseTimeExpr(since, time.Now())
				if err != nil {
					return apperr.Validation("list notes", err.Error())
				}
			}
			list := app.Store.Notes(crit)
			notes.Sort(list, key)
			if app.Store.Cache().Truncated() {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: only the most recently updated notes were fetched")
			}
			return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				return present.RenderNotes(w, list, opts)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&query, "query", "q", "", "substring to match in title, body or labels")
	f.StringVar(&state, "state", "all", "all, open or closed")
	f.StringSliceVarP(&labels, "label", "l", nil, "require label (repeatable)")
	f.StringVar(&since, "since", "", "updated since: a date, 7d, 2w, yesterday")
	f.StringVar(&sortBy, "sort", "updated", "updated, created or title")
	_ = cmd.RegisterFlagCompletionFunc("state", cobra.FixedCompletions(
		[]string{"all", "open", "closed"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("sort", cobra.FixedCompletions(
		[]string{"updated", "created", "title"}, cobra.ShellCompDirectiveNoFileComp))
	out.register(cmd, "plain", "json", "ndjson")
	return cmd
}

func newNoteShowCmd() *cobra.Command {
	var (
		comments bool
		out      outputFlags
	)
	cmd := &cobra.Command{
		Use:               "show <number>",
		Aliases:           []string{"view"},
		Short:             "Print a note",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeNotes,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := withRepo(cmd)
			if err != nil {
				return err
			}
			opts, err := out.options(app)
			if err != nil {
				return err
			}
			n, err := noteByNumber(app, args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if !comments {
				return withPager(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
					return present.RenderNote(w, n, opts)
				})
			}
			list, err := app.Store.Comments(ctx, n.ID)
			if err != nil {
				return err
			}
			if opts.Mode == present.ModeJSON {
				return format.WriteJSON(cmd.OutOrStdout(), noteThread{Note: n, Thread: list}, opts.JSONIndent)
			}
			return withPager(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				if err := present.RenderNote(w, n, opts); err != nil {
					return err
				}
				if len(list) == 0 {
					return nil
				}
				if opts.Mode != present.ModeNDJSON {
					fmt.Fprintf(w, "\nComments (%d)\n\n", len(list))
				}
				return present.RenderComments(w, list, opts)
			})
		},
	}
	cmd.Flags().BoolVarP(&comments, "comments", "c", false, "include comments")
	out.register(cmd, "plain", "pretty", "json", "ndjson")
	return cmd
}

// readBody resolves -m and -F: a literal body, or a file with "-" for stdin.
func readBody(cmd *cobra.Command, body, file string) (string, bool, error) {
	if cmd.Flags().Changed("message") {
		return body, true, nil
	}
	if file == "" {
		return "", false, nil
	}
	var (
		b   []byte
		err error
	)
	if file == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(file)
	}
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}
