package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	lipglossv2 "github.com/charmbracelet/lipgloss/v2"

	"github.com/mithrel/gitnotes/internal/editor"
)

// findModal searches the open draft and replaces matches.
type findModal struct {
	sess    *editor.Session
	query   textinput.Model
	repl    textinput.Model
	opts    editor.FindOptions
	finder  *editor.Finder
	focus   int
	from    int
	box     lipglossv2.Style
	message string
	err     string
}

// newFindModal opens the search; the first match is the one at or after
// the caret offset from.
func newFindModal(sess *editor.Session, from, termW, termH int) *findModal {
	m := &findModal{sess: sess, from: from}
	m.query = newFilterInput("find:    ", "text or pattern", "")
	m.repl = newFilterInput("replace: ", "replacement", "")
	m.query.Focus()
	m.resizeForTerm(termW, termH)
	return m
}

func (m *findModal) resizeForTerm(termW, termH int) {
	box, w, _ := modalBox(termW, termH, 0.6, 0.4, 42, 90, 10, 16)
	m.box = box
	innerW := max(w-2-4, 12)
	m.query.Width = max(12, innerW-lipgloss.Width(m.query.Prompt))
	m.repl.Width = max(12, innerW-lipgloss.Width(m.repl.Prompt))
}

func (m *findModal) setFocus(idx int) {
	m.focus = idx
	if idx == 0 {
		m.query.Focus()
		m.repl.Blur()
		return
	}
	m.query.Blur()
	m.repl.Focus()
}

// search reruns the query over the current draft.
func (m *findModal) search() {
	m.err = ""
	f, err := m.sess.Find(m.query.Value(), m.opts)
	m.finder = f
	if err != nil {
		m.err = err.Error()
	}
}

// next moves to the following match and describes it.
func (m *findModal) next(back bool) {
	fresh := false
	if m.finder == nil || m.finder.Query != m.query.Value() || m.finder.Options != m.opts {
		m.search()
		fresh = true
	}
	if m.finder.Count() == 0 {
		m.message = "no matches"
		return
	}
	var match editor.Match
	switch {
	case fresh && !back:
		match, _ = m.finder.Nearest(m.from)
	case back:
		match, _ = m.finder.Prev()
	default:
		match, _ = m.finder.Next()
	}
	m.from = match.Start
	m.message = fmt.Sprintf("match %d/%d on line %d", m.finder.Index()+1, m.finder.Count(), lineOf(m.sess.Content(), match.Start)+1)
}

func (m *findModal) replaceCurrent() bool {
	if m.finder == nil {
		m.next(false)
	}
	if _, ok := m.finder.Current(); !ok {
		m.next(false)
	}
	if !m.sess.ReplaceMatch(m.finder, m.repl.Value()) {
		m.message = "nothing replaced"
		return false
	}
	m.message = fmt.Sprintf("replaced, %d left", m.finder.Count())
	return true
}

func (m *findModal) replaceAll() bool {
	n, err := m.sess.ReplaceAll(m.query.Value(), m.repl.Value(), m.opts)
	if err != nil {
		m.err = err.Error()
		return false
	}
	m.finder = nil
	m.message = fmt.Sprintf("replaced %d", n)
	return n > 0
}

// update returns true in changed when the draft content was modified.
func (m *findModal) update(msg tea.Msg) (changed bool, cmd tea.Cmd) {
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.resizeForTerm(x.Width, x.Height)
		return false, nil
	case tea.KeyMsg:
		switch x.String() {
		case "tab", "shift+tab":
			m.setFocus(1 - m.focus)
			return false, nil
		case "enter", "down":
			m.next(false)
			return false, nil
		case "up":
			m.next(true)
			return false, nil
		case "alt+c":
			m.opts.CaseSensitive = !m.opts.CaseSensitive
			m.finder = nil
			return false, nil
		case "alt+r":
			m.opts.Regex = !m.opts.Regex
			m.finder = nil
			return false, nil
		case "alt+w":
			m.opts.WholeWord = !m.opts.WholeWord
			m.finder = nil
			return false, nil
		case "ctrl+r":
			return m.replaceCurrent(), nil
		case "ctrl+a":
			return m.replaceAll(), nil
		}
	}
	if m.focus == 0 {
		m.query, cmd = m.query.Update(msg)
	} else {
		m.repl, cmd = m.repl.Update(msg)
	}
	return false, cmd
}

func toggle(on bool, label string) string {
	if on {
		return boldStyle.Render("[x] " + label)
	}
	return dimStyle.Render("[ ] " + label)
}

func (m *findModal) View() string {
	lines := []string{
		boldStyle.Render("Find and replace"),
		"",
		m.query.View(),
		m.repl.View(),
		"",
		strings.Join([]string{
			toggle(m.opts.CaseSensitive, "case (alt+c)"),
			toggle(m.opts.Regex, "regex (alt+r)"),
			toggle(m.opts.WholeWord, "word (alt+w)"),
		}, "  "),
	}
	if m.err != "" {
		lines = append(lines, "", errStyle.Render(m.err))
	} else if m.message != "" {
		lines = append(lines, "", m.message)
	}
	lines = append(lines, "", dimStyle.Render("enter/↑/↓=find • ctrl+r=replace • ctrl+a=replace all • esc=close"))
	return m.box.Render(strings.Join(lines, "\n"))
}

// snippetModal picks a markup snippet by fuzzy name.
type snippetModal struct {
	input   textinput.Model
	choices []string
	cursor  int
	box     lipglossv2.Style
}

func newSnippetModal(termW, termH int) *snippetModal {
	m := &snippetModal{}
	m.input = newFilterInput("insert: ", "bold, table, mermaid…", "")
	m.input.Focus()
	box, _, _ := modalBox(termW, termH, 0.4, 0.5, 32, 60, 10, 18)
	m.box = box
	m.filter()
	return m
}

func (m *snippetModal) filter() {
	m.choices = scoreSnippets(m.input.Value())
	m.cursor = min(m.cursor, max(len(m.choices)-1, 0))
}

// selected returns the highlighted snippet name.
func (m *snippetModal) selected() (string, bool) {
	if len(m.choices) == 0 {
		return "", false
	}
	return m.choices[m.cursor], true
}

func (m *snippetModal) update(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "down", "tab", "ctrl+n":
			if len(m.choices) > 0 {
				m.cursor = (m.cursor + 1) % len(m.choices)
			}
			return nil
		case "up", "shift+tab", "ctrl+p":
			if len(m.choices) > 0 {
				m.cursor = (m.cursor + len(m.choices) - 1) % len(m.choices)
			}
			return nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.filter()
	return cmd
}

func (m *snippetModal) View() string {
	lines := []string{m.input.View(), ""}
	for i, c := range m.choices {
		if i == m.cursor {
			lines = append(lines, selectedStyle.Render("> "+c))
		} else {
			lines = append(lines, "  "+c)
		}
	}
	if len(m.choices) == 0 {
		lines = append(lines, dimStyle.Render("no snippet matches"))
	}
	return m.box.Render(strings.Join(lines, "\n"))
}

// confirmModal asks a yes/no question and runs onYes when accepted.
type confirmModal struct {
	prompt string
	onYes  func() tea.Cmd
	box    lipglossv2.Style
}

func newConfirmModal(prompt string, onYes func() tea.Cmd, termW, termH int) *confirmModal {
	box, _, _ := modalBox(termW, termH, 0.4, 0.2, 32, 70, 5, 8)
	return &confirmModal{prompt: prompt, onYes: onYes, box: box}
}

func (m *confirmModal) View() string {
	return m.box.Render(m.prompt + "\n\n" + dimStyle.Render("y=yes • n/esc=no"))
}
