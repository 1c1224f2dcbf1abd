// Package present writes notes, repositories and comments for the CLI.
package present

import (
	"fmt"
	"io"
	"time"

	"github.com/mithrel/gitnotes/internal/present/format"
	"github.com/mithrel/gitnotes/internal/render"
	"github.com/mithrel/gitnotes/pkg/api"
)

type Mode int

const (
	ModePlain Mode = iota
	ModePretty
	ModeJSON
	ModeNDJSON
)

type Options struct {
	Mode       Mode
	JSONIndent bool
	Headers    bool
	Width      int
	Renderer   *render.Renderer
	Now        func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// ParseMode parses a string like "plain", "pretty", "json", "ndjson".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "plain":
		return ModePlain, true
	case "pretty":
		return ModePretty, true
	case "json":
		return ModeJSON, true
	case "ndjson":
		return ModeNDJSON, true
	default:
		return ModePlain, false
	}
}

// RenderNotes renders a note list.
func RenderNotes(w io.Writer, notes []api.Note, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, notes, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSON(w, notes)
	default:
		// pretty lists use the plain table
		return format.WritePlainNotes(w, notes, opts.Headers, opts.now())
	}
}

// RenderNote renders one note.
func RenderNote(w io.Writer, n api.Note, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, n, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSON(w, []api.Note{n})
	case ModePretty:
		r := opts.Renderer
		if r == nil {
			r = render.New(render.ThemeDark, opts.Width)
		}
		return format.WritePrettyNote(w, r, n, opts.Width)
	default:
		return format.WritePlainNote(w, n, opts.now())
	}
}

func RenderRepos(w io.Writer, repos []api.Repository, selected api.RepoRef, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, repos, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSON(w, repos)
	default:
		return format.WritePlainRepos(w, repos, selected, opts.now())
	}
}

func RenderComments(w io.Writer, comments []api.Comment, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, comments, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSON(w, comments)
	case ModePlain, ModePretty:
		return format.WritePlainComments(w, comments, opts.now())
	}
	return fmt.Errorf("unsupported output mode %d", opts.Mode)
}
