package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/gitnotes/internal/editor"
	"github.com/mithrel/gitnotes/internal/render"
	"github.com/mithrel/gitnotes/internal/util"
)

type edFocus int

const (
	focusBody edFocus = iota
	focusTitle
	focusLabels
	focusPreview
)

// editorPane binds the text widgets to an editor session. Every keystroke
// is pushed into the session so dirty tracking and autosave see it.
type editorPane struct {
	sess    *editor.Session
	r       *render.Renderer
	title   textinput.Model
	labels  textinput.Model
	body    textarea.Model
	preview viewport.Model
	scroll  editor.ScrollSync
	focus   edFocus

	width, height int
	renderedFor   string
	renderedW     int
}

func newEditorPane(sess *editor.Session, r *render.Renderer, w, h int) *editorPane {
	p := &editorPane{sess: sess, r: r}
	p.title = textinput.New()
	p.title.Prompt = "Title:  "
	p.title.Placeholder = editor.UntitledTitle
	p.title.CharLimit = 256
	p.labels = textinput.New()
	p.labels.Prompt = "Labels: "
	p.labels.Placeholder = "comma,separated"
	p.body = textarea.New()
	p.body.ShowLineNumbers = false
	p.body.Placeholder = "Write Markdown…"
	p.body.CharLimit = 0
	p.body.MaxHeight = 0
	p.preview = viewport.New(0, 0)
	p.pull()
	p.setFocus(focusBody)
	if sess.Title() == "" {
		p.setFocus(focusTitle)
	}
	p.resize(w, h)
	return p
}

// pull copies the session draft into the widgets where they differ.
func (p *editorPane) pull() {
	d := p.sess.Draft()
	if p.title.Value() != d.Title {
		p.title.SetValue(d.Title)
	}
	if !sameLabels(splitCSV(p.labels.Value()), d.Labels) {
		p.labels.SetValue(joinLabels(d.Labels))
	}
	if p.body.Value() != d.Content {
		p.body.SetValue(d.Content)
	}
	p.refreshPreview(false)
}

// push copies the widgets into the session draft.
func (p *editorPane) push() {
	p.sess.SetTitle(p.title.Value())
	if labels := splitCSV(p.labels.Value()); !sameLabels(labels, p.sess.Labels()) {
		p.sess.SetLabels(labels)
	}
	p.sess.SetContent(p.body.Value())
}

func sameLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (p *editorPane) setFocus(f edFocus) {
	p.focus = f
	p.title.Blur()
	p.labels.Blur()
	p.body.Blur()
	switch f {
	case focusTitle:
		p.title.Focus()
	case focusLabels:
		p.labels.Focus()
	case focusBody:
		p.body.Focus()
	}
}

// cycleFocus moves between the visible inputs.
func (p *editorPane) cycleFocus() {
	order := []edFocus{focusTitle, focusLabels}
	view := p.sess.View()
	if view.ShowsEditor() {
		order = append(order, focusBody)
	}
	if view.ShowsPreview() {
		order = append(order, focusPreview)
	}
	for i, f := range order {
		if f == p.focus {
			p.setFocus(order[(i+1)%len(order)])
			return
		}
	}
	p.setFocus(order[0])
}

func (p *editorPane) headerHeight() int {
	if p.sess.Fullscreen() {
		return 0
	}
	return 3
}

func (p *editorPane) resize(w, h int) {
	p.width, p.height = w, h
	p.title.Width = max(w-lipgloss.Width(p.title.Prompt)-1, 10)
	p.labels.Width = max(w-lipgloss.Width(p.labels.Prompt)-1, 10)
	paneH := max(h-p.headerHeight(), 3)
	view := p.sess.View()
	editW, prevW := w, w
	if view == editor.ViewSplit {
		editW = w / 2
		prevW = w - editW - 1
	}
	p.body.SetWidth(max(editW, 10))
	p.body.SetHeight(paneH)
	p.preview.Width = max(prevW, 10)
	p.preview.Height = paneH
	if view == editor.ViewPreview && p.focus == focusBody {
		p.setFocus(focusPreview)
	}
	if view == editor.ViewEdit && p.focus == focusPreview {
		p.setFocus(focusBody)
	}
	p.refreshPreview(false)
}

// refreshPreview re-renders the markdown when the content or width moved.
func (p *editorPane) refreshPreview(force bool) {
	if !p.sess.View().ShowsPreview() {
		return
	}
	content := p.body.Value()
	if !force && content == p.renderedFor && p.preview.Width == p.renderedW {
		return
	}
	p.renderedFor, p.renderedW = content, p.preview.Width
	out := p.r.Markdown(content, p.preview.Width)
	if strings.TrimSpace(content) == "" {
		out = dimStyle.Render("Nothing to preview")
	}
	p.preview.SetContent(out)
}

func (p *editorPane) editorMetrics() editor.Metrics {
	client := p.body.Height()
	line := p.body.Line()
	return editor.Metrics{Top: max(line-client/2, 0), Height: p.body.LineCount(), Client: client}
}

func (p *editorPane) previewMetrics() editor.Metrics {
	return editor.Metrics{Top: p.preview.YOffset, Height: p.preview.TotalLineCount(), Client: p.preview.Height}
}

// syncFromEditor mirrors the editor position onto the preview.
func (p *editorPane) syncFromEditor() {
	if p.sess.View() != editor.ViewSplit {
		return
	}
	if _, top, ok := p.scroll.OnScroll(editor.PaneEditor, p.editorMetrics(), p.previewMetrics()); ok {
		p.preview.SetYOffset(top)
	}
	p.scroll.Settle()
}

// syncFromPreview moves the editor caret to the mirrored line.
func (p *editorPane) syncFromPreview() {
	if p.sess.View() != editor.ViewSplit {
		return
	}
	dstM := editor.Metrics{Top: p.body.Line(), Height: p.body.LineCount(), Client: 1}
	if _, top, ok := p.scroll.OnScroll(editor.PanePreview, p.previewMetrics(), dstM); ok {
		for i := 0; p.body.Line() < top && i < dstM.Height; i++ {
			p.body.CursorDown()
		}
		for i := 0; p.body.Line() > top && i < dstM.Height; i++ {
			p.body.CursorUp()
		}
	}
	p.scroll.Settle()
}

// caret is the rune offset of the cursor in the body.
func (p *editorPane) caret() int {
	li := p.body.LineInfo()
	return runeOffset(p.body.Value(), p.body.Line(), li.StartColumn+li.ColumnOffset)
}

// format inserts a named snippet at the cursor.
func (p *editorPane) format(name string) error {
	sn, err := editor.FormatSnippet(name, "")
	if err != nil {
		return err
	}
	if p.focus != focusBody {
		p.setFocus(focusBody)
	}
	p.body.InsertString(sn.Text)
	for i := 0; i < -sn.Offset; i++ {
		p.body, _ = p.body.Update(tea.KeyMsg{Type: tea.KeyLeft})
	}
	p.push()
	p.refreshPreview(false)
	return nil
}

// insert puts text at the cursor, used for clipboard paste.
func (p *editorPane) insert(text string) {
	if p.focus != focusBody {
		p.setFocus(focusBody)
	}
	p.body.InsertString(text)
	p.push()
	p.refreshPreview(false)
}

func scoreSnippets(input string) []string {
	return util.ScoreCompletions(strings.TrimSpace(input), editor.Snippets(), 0)
}

func (p *editorPane) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch p.focus {
	case focusTitle:
		p.title, cmd = p.title.Update(msg)
	case focusLabels:
		p.labels, cmd = p.labels.Update(msg)
	case focusBody:
		p.body, cmd = p.body.Update(msg)
		p.refreshPreview(false)
		p.push()
		p.syncFromEditor()
		return cmd
	case focusPreview:
		p.preview, cmd = p.preview.Update(msg)
		p.syncFromPreview()
		return cmd
	}
	p.push()
	return cmd
}

func (p *editorPane) statusLine(now time.Time) string {
	st := p.sess.Status()
	var parts []string
	if st.Number > 0 {
		parts = append(parts, fmt.Sprintf("#%d", st.Number))
	} else {
		parts = append(parts, "new note")
	}
	switch st.State {
	case editor.StateSaving:
		parts = append(parts, "saving…")
	case editor.StateDirty:
		s := "● unsaved"
		if !st.AutosaveDue.IsZero() {
			s += fmt.Sprintf(" (autosave in %ds)", max(int(st.AutosaveDue.Sub(now).Seconds()+0.5), 0))
		}
		parts = append(parts, s)
	default:
		if !st.LastSaved.IsZero() {
			parts = append(parts, "saved "+util.RelativeTime(st.LastSaved, now))
		} else {
			parts = append(parts, "saved")
		}
	}
	parts = append(parts, "view: "+st.View.String())
	if !st.Autosave {
		parts = append(parts, "autosave off")
	}
	return strings.Join(parts, " • ")
}

func (p *editorPane) View() string {
	var sections []string
	if !p.sess.Fullscreen() {
		sections = append(sections, p.title.View(), p.labels.View(), "")
	}
	view := p.sess.View()
	switch view {
	case editor.ViewEdit:
		sections = append(sections, p.body.View())
	case editor.ViewPreview:
		sections = append(sections, p.preview.View())
	default:
		sep := dimStyle.Render(strings.Repeat("│\n", max(p.preview.Height-1, 0)) + "│")
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, p.body.View(), sep, p.preview.View()))
	}
	return strings.Join(sections, "\n")
}
