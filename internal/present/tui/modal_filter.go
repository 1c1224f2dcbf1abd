package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	lipglossv2 "github.com/charmbracelet/lipgloss/v2"

	"github.com/mithrel/gitnotes/internal/notes"
	"github.com/mithrel/gitnotes/internal/util"
)

const filterFields = 4

// filterModal is a foreground modal with inputs to filter the note list.
type filterModal struct {
	query  textinput.Model
	state  textinput.Model
	labels textinput.Model
	since  textinput.Model
	box    lipglossv2.Style
	focus  int
	err    string
}

func newFilterModal(crit notes.Criteria, sinceExpr string, termW, termH int) *filterModal {
	m := &filterModal{}
	state := string(crit.State)
	if crit.State == notes.StateAll {
		state = ""
	}
	m.query = newFilterInput("query:  ", "text in title, body or labels", crit.Query)
	m.state = newFilterInput("state:  ", "all | open | closed", state)
	m.labels = newFilterInput("labels: ", "idea,todo", joinLabels(crit.Labels))
	m.since = newFilterInput("since:  ", "2d | yesterday | 2025-10-26", sinceExpr)
	m.setFocus(0)
	m.resizeForTerm(termW, termH)
	return m
}

func newFilterInput(prompt, placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = placeholder
	ti.SetValue(value)
	return ti
}

func (m *filterModal) inputs() []*textinput.Model {
	return []*textinput.Model{&m.query, &m.state, &m.labels, &m.since}
}

func (m *filterModal) resizeForTerm(termW, termH int) {
	box, w, _ := modalBox(termW, termH, 0.6, 0.45, 42, 90, 10, 22)
	m.box = box
	innerW := max(w-2-4, 12)
	for _, in := range m.inputs() {
		in.Width = max(12, innerW-lipgloss.Width(in.Prompt))
	}
}

func (m *filterModal) setFocus(idx int) {
	m.focus = idx
	for i, in := range m.inputs() {
		if i == idx {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

func (m *filterModal) clear() {
	for _, in := range m.inputs() {
		in.SetValue("")
	}
	m.err = ""
}

// criteria parses the inputs. The raw since expression is returned so the
// modal can be reopened with what the user typed.
func (m *filterModal) criteria(now time.Time) (notes.Criteria, string, error) {
	state, err := notes.ParseStateFilter(m.state.Value())
	if err != nil {
		return notes.Criteria{}, "", err
	}
	crit := notes.Criteria{
		Query:  strings.TrimSpace(m.query.Value()),
		State:  state,
		Labels: splitCSV(m.labels.Value()),
	}
	expr := strings.TrimSpace(m.since.Value())
	if expr != "" {
		t, err := util.ParseTimeExpr(expr, now)
		if err != nil {
			return notes.Criteria{}, "", err
		}
		crit.Since = t
	}
	return crit, expr, nil
}

func (m *filterModal) update(msg tea.Msg) (*filterModal, tea.Cmd) {
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.resizeForTerm(x.Width, x.Height)
		return m, nil
	case tea.KeyMsg:
		switch x.String() {
		case "tab", "down":
			m.setFocus((m.focus + 1) % filterFields)
			return m, nil
		case "shift+tab", "up":
			m.setFocus((m.focus + filterFields - 1) % filterFields)
			return m, nil
		case "ctrl+x":
			m.clear()
			return m, nil
		}
	}
	var cmd tea.Cmd
	in := m.inputs()[m.focus]
	*in, cmd = in.Update(msg)
	return m, cmd
}

func (m *filterModal) View() string {
	header := lipgloss.NewStyle().Bold(true).Render("Filter notes")
	help := lipgloss.NewStyle().Faint(true).Render("enter=apply • esc=cancel • tab=next • ctrl+x=clear")
	lines := []string{header, ""}
	for _, in := range m.inputs() {
		lines = append(lines, in.View())
	}
	if m.err != "" {
		lines = append(lines, "", errStyle.Render(m.err))
	}
	lines = append(lines, "", help)
	return m.box.Render(strings.Join(lines, "\n"))
}
