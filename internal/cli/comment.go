package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mithrel/gitnotes/internal/apperr"
	"github.com/mithrel/gitnotes/internal/present"
)

func newCommentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comment",
		Aliases: []string{"comments"},
		Short:   "Read and add comments on a note",
	}
	cmd.AddCommand(newCommentListCmd())
	cmd.AddCommand(newCommentAddCmd())
	return cmd
}

func newCommentListCmd() *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:               "list <number>",
		Aliases:           []string{"ls"},
		Short:             "List the comments of a note, oldest first",
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
			list, err := app.Store.Comments(cmd.Context(), n.ID)
			if err != nil {
				return err
			}
			return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				return present.RenderComments(w, list, opts)
			})
		},
	}
	out.register(cmd, "plain", "json", "ndjson")
	return cmd
}

func newCommentAddCmd() *cobra.Command {
	var body, bodyFile string
	cmd := &cobra.Command{
		Use:               "add <number>",
		Short:             "Comment on a note",
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
			text, ok, err := readBody(cmd, body, bodyFile)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Validation("add comment", "pass the comment with -m or -F")
			}
			c, err := app.Store.AddComment(cmd.Context(), n.ID, text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Commented on #%d\n", n.Number)
			if c.URL != "" {
				fmt.Fprintln(cmd.OutOrStdout(), c.URL)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&body, "message", "m", "", "comment body")
	cmd.Flags().StringVarP(&bodyFile, "file", "F", "", "read the comment from a file, - for stdin")
	cmd.MarkFlagsMutuallyExclusive("message", "file")
	return cmd
}
