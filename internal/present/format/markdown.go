package format

import (
	"io"

	"github.com/mithrel/gitnotes/internal/render"
	"github.com/mithrel/gitnotes/pkg/api"
)

// WritePrettyNote renders a note through glamour.
func WritePrettyNote(w io.Writer, r *render.Renderer, n api.Note, width int) error {
	_, err := io.WriteString(w, r.Note(n, width)+"\n")
	return err
}
