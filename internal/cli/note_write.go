package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/mithrel/gitnotes/internal/apperr"
	"github.com/mithrel/gitnotes/internal/editor"
	"github.com/mithrel/gitnotes/pkg/api"
)

func newNoteNewCmd() *cobra.Command {
	var (
		body     string
		bodyFile string
		labels   []string
		edit     bool
	)
	cmd := &cobra.Command{
		Use:     "new [title]",
		Aliases: []string{"add", "create"},
		Short:   "Create a note",
		Long: heredoc.Doc(`
			Create a note in the selected repository. Without a title or body,
			or with --edit, the note is written in $VISUAL or $EDITOR.
		`),
		Example: heredoc.Doc(`
			$ gitnotes note new "Groceries" -m "milk, eggs" -l todo
			$ echo "from a pipe" | gitnotes note new "Piped" -F -
			$ gitnotes note new --edit
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := withRepo(cmd)
			if err != nil {
				return err
			}
			title := ""
			if len(args) == 1 {
				title = args[0]
			}
			content, haveBody, err := readBody(cmd, body, bodyFile)
			if err != nil {
				return err
			}
			if edit || (title == "" && !haveBody) {
				path, err := editor.PathForNote(app.Store.SelectedRepo(), 0)
				if err != nil {
					return err
				}
				var changed bool
				title, labels, content, changed, err = editExternally(path, title, labels, content)
				if err != nil {
					return err
				}
				if !changed && title == "" {
					fmt.Fprintln(cmd.ErrOrStderr(), "Nothing written; no note created")
					return nil
				}
			}

			sess, err := app.Store.NewNote()
			if err != nil {
				return err
			}
			defer app.Store.CloseEditor()
			sess.SetTitle(title)
			sess.SetLabels(labels)
			sess.SetContent(content)
			n, err := sess.Save(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created #%d %s\n", n.Number, n.Title)
			if n.URL != "" {
				fmt.Fprintln(cmd.OutOrStdout(), n.URL)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&body, "message", "m", "", "note body")
	f.StringVarP(&bodyFile, "file", "F", "", "read the body from a file, - for stdin")
	f.StringSliceVarP(&labels, "label", "l", nil, "add label (repeatable)")
	f.BoolVarP(&edit, "edit", "e", false, "open the note in an external editor")
	cmd.MarkFlagsMutuallyExclusive("message", "file")
	return cmd
}

func newNoteEditCmd() *cobra.Command {
	var (
		title        string
		body         string
		bodyFile     string
		addLabels    []string
		removeLabels []string
	)
	cmd := &cobra.Command{
		Use:   "edit <number>",
		Short: "Change a note",
		Long: heredoc.Doc(`
			Change the title, body or labels of a note. Without any change
			flags the note opens in $VISUAL or $EDITOR.
		`),
		Example: heredoc.Doc(`
			$ gitnotes note edit 12
			$ gitnotes note edit 12 --title "Shopping" --add-label errands
			$ gitnotes note edit 12 -F notes.md
		`),
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeNotes,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := withRepo(cmd)
			if err != nil {
				return err
			}
			n, err := noteByNumber(app, args[0])
			if err != nil {
				return err
			}
			content, haveBody, err := readBody(cmd, body, bodyFile)
			if err != nil {
				return err
			}
			sess, err := app.Store.OpenNote(n.ID)
			if err != nil {
				return err
			}
			defer app.Store.CloseEditor()

			f := cmd.Flags()
			interactive := !f.Changed("title") && !haveBody && len(addLabels) == 0 && len(removeLabels) == 0
			if interactive {
				path, err := editor.PathForNote(app.Store.SelectedRepo(), n.Number)
				if err != nil {
					return err
				}
				t, labels, c, changed, err := editExternally(path, n.Title, n.Labels, n.Content)
				if err != nil {
					return err
				}
				if !changed {
					fmt.Fprintf(cmd.OutOrStdout(), "No changes to #%d\n", n.Number)
					return nil
				}
				sess.SetTitle(t)
				sess.SetLabels(labels)
				sess.SetContent(c)
			} else {
				if f.Changed("title") {
					sess.SetTitle(title)
				}
				if haveBody {
					sess.SetContent(content)
				}
				for _, l := range addLabels {
					sess.AddLabel(l)
				}
				for _, l := range removeLabels {
					sess.RemoveLabel(l)
				}
			}
			if !sess.Dirty() {
				fmt.Fprintf(cmd.OutOrStdout(), "No changes to #%d\n", n.Number)
				return nil
			}
			saved, err := sess.Save(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved #%d %s\n", saved.Number, saved.Title)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&title, "title", "t", "", "new title")
	f.StringVarP(&body, "message", "m", "", "new body")
	f.StringVarP(&bodyFile, "file", "F", "", "read the new body from a file, - for stdin")
	f.StringSliceVar(&addLabels, "add-label", nil, "add label (repeatable)")
	f.StringSliceVar(&removeLabels, "remove-label", nil, "remove label (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("message", "file")
	return cmd
}

// editExternally runs the user's editor on a scratch file holding the note
// and parses the result back.
func editExternally(path, title string, labels []string, body string) (string, []string, string, bool, error) {
	initial := []byte(editor.ComposeContent(title, labels, body))
	final, changed, err := editor.OpenAt(path, initial)
	defer func() { _ = os.Remove(path) }()
	if err != nil {
		return "", nil, "", false, fmt.Errorf("external editor: %w", err)
	}
	t, l, b := editor.ParseEditedNote(string(final))
	return t, l, b, changed, nil
}

func newNoteStateCmd(use, short, done string) *cobra.Command {
	state := api.StateClosed
	if use == "reopen" {
		state = api.StateOpen
	}
	return &cobra.Command{
		Use:               use + " <number>",
		Short:             short,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeNotes,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := withRepo(cmd)
			if err != nil {
				return err
			}
			n, err := noteByNumber(app, args[0])
			if err != nil {
				return err
			}
			if n.State == state {
				fmt.Fprintf(cmd.OutOrStdout(), "#%d is already %s\n", n.Number, state)
				return nil
			}
			saved, err := app.Store.SetNoteState(cmd.Context(), n.ID, state)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s #%d %s\n", done, saved.Number, saved.Title)
			return nil
		},
	}
}

var errDeleteAborted = errors.New("delete aborted")

func newNoteDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <number>",
		Short: "Permanently delete a note",
		Long: heredoc.Doc(`
			Permanently delete a note. The issue is removed from GitHub, which
			requires admin rights on the repository. Use "note close" to keep it.
		`),
		Aliases:           []string{"rm"},
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeNotes,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := withRepo(cmd)
			if err != nil {
				return err
			}
			n, err := noteByNumber(app, args[0])
			if err != nil {
				return err
			}
			if !yes {
				if !isTerminal(os.Stdin) {
					return apperr.Validation("delete note", "refusing to delete without --yes")
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Delete #%d %q? [y/N] ", n.Number, n.Title)
				answer, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				if a := strings.ToLower(answer); a != "y" && a != "yes" {
					return errDeleteAborted
				}
			}
			if err := app.Store.DeleteNote(cmd.Context(), n.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d %s\n", n.Number, n.Title)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
