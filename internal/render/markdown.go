// Package render turns note markdown into styled terminal text.
package render

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	xansi "github.com/charmbracelet/x/ansi"

	"github.com/mithrel/gitnotes/pkg/api"
)

// Themes accepted by New.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeAuto  = "auto"
	ThemeNoTTY = "notty"
)

// Renderer caches one glamour renderer per width.
type Renderer struct {
	mu        sync.Mutex
	theme     string
	wrap      int
	renderers map[int]*glamour.TermRenderer
}

// New returns a renderer for theme. wrap is the default width when a
// caller passes 0.
func New(theme string, wrap int) *Renderer {
	if wrap <= 0 {
		wrap = 80
	}
	return &Renderer{theme: normalizeTheme(theme), wrap: wrap, renderers: map[int]*glamour.TermRenderer{}}
}

func normalizeTheme(theme string) string {
	switch strings.ToLower(strings.TrimSpace(theme)) {
	case ThemeLight:
		return ThemeLight
	case ThemeAuto:
		return ThemeAuto
	case ThemeNoTTY, "plain":
		return ThemeNoTTY
	default:
		return ThemeDark
	}
}

func (r *Renderer) Theme() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.theme
}

// SetTheme switches theme and drops cached renderers.
func (r *Renderer) SetTheme(theme string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := normalizeTheme(theme); t != r.theme {
		r.theme = t
		r.renderers = map[int]*glamour.TermRenderer{}
	}
}

func (r *Renderer) get(width int) *glamour.TermRenderer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tr, ok := r.renderers[width]; ok {
		return tr
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch r.theme {
	case ThemeAuto:
		opts = append(opts, glamour.WithAutoStyle())
	case ThemeNoTTY:
		opts = append(opts, glamour.WithStandardStyle(styles.NoTTYStyle))
	default:
		opts = append(opts, glamour.WithStyles(styleConfig(r.theme == ThemeDark)))
	}
	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil
	}
	r.renderers[width] = tr
	return tr
}

func styleConfig(dark bool) glamouransi.StyleConfig {
	var base glamouransi.StyleConfig
	if dark {
		base = styles.DarkStyleConfig
	} else {
		base = styles.LightStyleConfig
	}
	// the preview pane supplies its own padding
	base.Document.StylePrimitive.BlockPrefix = ""
	base.Document.StylePrimitive.BlockSuffix = ""
	zero := uint(0)
	base.Document.Margin = &zero
	return base
}

// Markdown renders md at width columns. Rendering failures fall back to
// the source text.
func (r *Renderer) Markdown(md string, width int) string {
	md = strings.TrimRight(strings.ReplaceAll(md, "\r\n", "\n"), "\n")
	if md == "" {
		return ""
	}
	if width <= 0 {
		width = r.wrap
	}
	tr := r.get(width)
	if tr == nil {
		return md
	}
	out, err := tr.Render(md)
	if err != nil {
		return md
	}
	out = strings.TrimRight(out, "\n")
	return strings.TrimRight(xansi.Hardwrap(out, width, true), "\n")
}

// NoteMarkdown composes the markdown shown for a whole note: title, a
// metadata quote and the body.
func NoteMarkdown(n api.Note) string {
	labels := "none"
	if len(n.Labels) > 0 {
		labels = "`" + strings.Join(n.Labels, "` `") + "`"
	}
	updated := "never"
	if !n.UpdatedAt.IsZero() {
		updated = n.UpdatedAt.Local().Format(time.RFC3339)
	}
	title := n.Title
	if title == "" {
		title = "Untitled"
	}
	return fmt.Sprintf(`# %s

> **#%d** %s | **Updated:** %s
>
> **Labels:** %s

---

%s
`, title, n.Number, n.State, updated, labels, strings.TrimSpace(n.Content))
}

// Note renders a whole note.
func (r *Renderer) Note(n api.Note, width int) string {
	return r.Markdown(NoteMarkdown(n), width)
}

// Plain normalizes markdown for non-terminal output.
func Plain(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}
