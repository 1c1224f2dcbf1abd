package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	lipglossv2 "github.com/charmbracelet/lipgloss/v2"

	"github.com/mithrel/gitnotes/internal/render"
	"github.com/mithrel/gitnotes/internal/util"
	"github.com/mithrel/gitnotes/pkg/api"
)

// noteModal shows a rendered note with its comments in a scrollable
// viewport, plus an input for a new comment.
type noteModal struct {
	n        api.Note
	r        *render.Renderer
	comments []api.Comment
	loading  bool
	vp       viewport.Model
	input    textinput.Model
	writing  bool
	box      lipglossv2.Style
	innerW   int
}

func newNoteModal(n api.Note, r *render.Renderer, termW, termH int) *noteModal {
	m := &noteModal{n: n, r: r, loading: true}
	m.input = textinput.New()
	m.input.Prompt = "comment: "
	m.input.Placeholder = "write a comment, enter to post"
	m.resizeForTerm(termW, termH)
	return m
}

func (m *noteModal) resizeForTerm(termW, termH int) {
	box, w, h := modalBox(termW, termH, 0.7, 0.8, 32, 120, 8, 60)
	m.box = box
	m.innerW = max(w-2-4, 10)
	innerH := max(h-2-2-2, 5)
	if m.vp.Width == 0 {
		m.vp = viewport.New(m.innerW, innerH)
	} else {
		m.vp.Width = m.innerW
		m.vp.Height = innerH
	}
	m.input.Width = max(10, m.innerW-len(m.input.Prompt))
	m.refresh()
}

func (m *noteModal) setComments(cs []api.Comment) {
	m.comments = cs
	m.loading = false
	m.refresh()
}

func (m *noteModal) addComment(c api.Comment) {
	m.comments = append(m.comments, c)
	m.n.Comments++
	m.refresh()
	m.vp.GotoBottom()
}

func (m *noteModal) refresh() {
	var b strings.Builder
	b.WriteString(m.r.Note(m.n, m.innerW))
	b.WriteString("\n\n")
	switch {
	case m.loading:
		b.WriteString(dimStyle.Render("Loading comments…"))
	case len(m.comments) == 0:
		b.WriteString(dimStyle.Render("No comments"))
	default:
		now := time.Now()
		for _, c := range m.comments {
			b.WriteString(boldStyle.Render(c.Author))
			b.WriteString(dimStyle.Render(" • " + util.RelativeTime(c.CreatedAt, now)))
			b.WriteString("\n")
			b.WriteString(m.r.Markdown(c.Body, m.innerW))
			b.WriteString("\n\n")
		}
	}
	m.vp.SetContent(b.String())
}

func (m *noteModal) startComment() tea.Cmd {
	m.writing = true
	return m.input.Focus()
}

// takeComment returns the typed comment and resets the input.
func (m *noteModal) takeComment() string {
	body := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	m.input.Blur()
	m.writing = false
	return body
}

func (m *noteModal) update(msg tea.Msg) (*noteModal, tea.Cmd) {
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.resizeForTerm(x.Width, x.Height)
		return m, nil
	case tea.KeyMsg:
		var cmd tea.Cmd
		if m.writing {
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m *noteModal) View() string {
	footer := dimStyle.Render("↑/↓ scroll • c=comment • esc=close")
	if m.writing {
		footer = m.input.View()
	}
	return m.box.Render(m.vp.View() + "\n\n" + footer)
}
