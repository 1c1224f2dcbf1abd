package format

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/mithrel/gitnotes/internal/util"
	"github.com/mithrel/gitnotes/pkg/api"
)

// TSV columns: number, state, title, updated, labels
var headerLine = "#\tstate\ttitle\tupdated\tlabels\n"

// TitleWidth caps the title column in plain listings.
const TitleWidth = 48

func esc(field string) string {
	field = strings.ReplaceAll(field, "\t", "\\t")
	field = strings.ReplaceAll(field, "\n", "\\n")
	return field
}

func joinLabels(labels []string) string {
	return strings.Join(labels, ",")
}

// Truncate shortens s to width display cells, ending in an ellipsis.
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

func noteLine(n api.Note, now time.Time) string {
	return fmt.Sprintf("%d\t%s\t%s\t%s\t%s\n",
		n.Number, n.State, esc(Truncate(n.Title, TitleWidth)), util.RelativeTime(n.UpdatedAt, now), esc(joinLabels(n.Labels)))
}

// WritePlainNotes writes one tab-aligned row per note.
func WritePlainNotes(w io.Writer, notes []api.Note, headers bool, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, headerLine)
	}
	for _, n := range notes {
		_, _ = io.WriteString(tw, noteLine(n, now))
	}
	return tw.Flush()
}

// WritePlainNote writes the note header followed by its body.
func WritePlainNote(w io.Writer, n api.Note, now time.Time) error {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s [%s]\n", n.Number, n.Title, n.State)
	if len(n.Labels) > 0 {
		fmt.Fprintf(&b, "labels: %s\n", strings.Join(n.Labels, ", "))
	}
	fmt.Fprintf(&b, "updated: %s\n", util.RelativeTime(n.UpdatedAt, now))
	if n.URL != "" {
		fmt.Fprintf(&b, "url: %s\n", n.URL)
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(n.Content, "\n"))
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// WritePlainRepos writes one row per repository.
func WritePlainRepos(w io.Writer, repos []api.Repository, selected api.RepoRef, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range repos {
		mark := " "
		if r.Ref() == selected {
			mark = "*"
		}
		vis := "public"
		if r.Private {
			vis = "private"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d open\t%s\n", mark, r.FullName, vis, r.OpenIssues, util.RelativeTime(r.UpdatedAt, now))
	}
	return tw.Flush()
}

// WritePlainComments writes comments oldest first.
func WritePlainComments(w io.Writer, comments []api.Comment, now time.Time) error {
	for i, c := range comments {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s, %s\n%s\n", c.Author, util.RelativeTime(c.CreatedAt, now), strings.TrimRight(c.Body, "\n")); err != nil {
			return err
		}
	}
	return nil
}
