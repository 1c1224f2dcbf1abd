// Package tui is the interactive terminal client: sign in, pick a
// repository, browse notes and edit them with a live preview.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/gitnotes/internal/apperr"
	"github.com/mithrel/gitnotes/internal/clip"
	"github.com/mithrel/gitnotes/internal/editor"
	"github.com/mithrel/gitnotes/internal/notes"
	"github.com/mithrel/gitnotes/internal/render"
	"github.com/mithrel/gitnotes/internal/store"
	"github.com/mithrel/gitnotes/internal/util"
	"github.com/mithrel/gitnotes/pkg/api"
)

type Options struct {
	Store    *store.Store
	Renderer *render.Renderer
	Logger   *slog.Logger
	Headers  bool
	// Now defaults to time.Now.
	Now func() time.Time
}

type screen int

const (
	screenLoading screen = iota
	screenLogin
	screenRepos
	screenNotes
	screenEditor
)

// Run opens the interactive client and blocks until it exits. An editor
// session still open at exit is closed and its unsaved edits logged.
func Run(ctx context.Context, opts Options) error {
	m := newModel(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	opts.Store.SetOnChange(func() { p.Send(storeChangedMsg{}) })
	_, err := p.Run()
	opts.Store.SetOnChange(nil)
	opts.Store.CloseEditor()
	return err
}

type model struct {
	ctx     context.Context
	st      *store.Store
	r       *render.Renderer
	log     *slog.Logger
	now     func() time.Time
	headers bool

	screen        screen
	width, height int

	token     textinput.Model
	repoQuery textinput.Model
	repos     []api.Repository
	shown     []api.Repository
	repoTable table.Model

	table     table.Model
	rows      []api.Note
	crit      notes.Criteria
	sinceExpr string
	sortKey   notes.SortKey

	ed *editorPane

	filter  *filterModal
	note    *noteModal
	find    *findModal
	snippet *snippetModal
	confirm *confirmModal

	status       string
	statusErr    bool
	lastDuration time.Duration
	retry        tea.Cmd
	retryLabel   string
}

func newModel(ctx context.Context, opts Options) model {
	m := model{
		ctx:     ctx,
		st:      opts.Store,
		r:       opts.Renderer,
		log:     opts.Logger,
		now:     opts.Now,
		headers: opts.Headers,
		sortKey: notes.SortUpdated,
		crit:    notes.Criteria{State: notes.StateAll},
		status:  "Loading…",
	}
	if m.log == nil {
		m.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.r == nil {
		m.r = render.New(m.st.Prefs().Theme(), 80)
	}
	m.token = textinput.New()
	m.token.Prompt = "Token: "
	m.token.Placeholder = "ghp_… (needs the repo scope)"
	m.token.EchoMode = textinput.EchoPassword
	m.token.EchoCharacter = '•'
	m.repoQuery = textinput.New()
	m.repoQuery.Prompt = "/ "
	m.repoQuery.Placeholder = "filter repositories"
	m.initTables()
	return m
}

func (m *model) initTables() {
	m.table = table.New(table.WithColumns(m.noteColumns(6, 40, 20, 7, 12)), table.WithFocused(true))
	m.repoTable = table.New(table.WithColumns(m.repoColumns(40, 8, 40)), table.WithFocused(true))
	m.applyStyles()
}

func (m model) Init() tea.Cmd {
	return tea.Batch(restoreCmd(m.ctx, m.st), clockCmd())
}

// setError shows err with its remedy and remembers how to retry.
func (m *model) setError(err error, dur time.Duration, retry tea.Cmd) {
	kind := apperr.KindOf(err)
	remedy := m.st.HandleError(m.ctx, err)
	m.status = apperr.Message(err)
	m.statusErr = true
	m.lastDuration = dur
	m.retry, m.retryLabel = nil, ""
	switch remedy {
	case apperr.RemedyReauthenticate:
		m.toLogin()
		m.status += ". " + apperr.Suggestion(kind)
	case apperr.RemedyRetry:
		if retry != nil {
			m.retry, m.retryLabel = retry, apperr.ActionLabel(kind)
		}
	case apperr.RemedyFixPermissions:
		m.status += ". " + apperr.Suggestion(kind)
	}
	m.log.Debug("tui: error", slog.String("kind", kind.String()), slog.Any("err", err))
}

func (m *model) setStatus(s string, dur time.Duration) {
	m.status, m.statusErr, m.lastDuration = s, false, dur
	m.retry, m.retryLabel = nil, ""
}

func (m *model) toLogin() {
	m.closeModals()
	m.ed = nil
	m.screen = screenLogin
	m.token.SetValue("")
	m.token.Focus()
}

func (m *model) toRepos() tea.Cmd {
	m.closeModals()
	m.screen = screenRepos
	m.repoQuery.SetValue("")
	m.repoQuery.Focus()
	m.setStatus("Loading repositories…", 0)
	return reposCmd(m.ctx, m.st)
}

func (m *model) toNotes() {
	m.closeModals()
	m.ed = nil
	m.screen = screenNotes
	m.refreshRows()
}

func (m *model) toEditor(sess *editor.Session) tea.Cmd {
	m.closeModals()
	m.ed = newEditorPane(sess, m.r, m.width, m.editorHeight())
	m.screen = screenEditor
	return textinput.Blink
}

func (m *model) closeModals() {
	m.filter, m.note, m.find, m.snippet, m.confirm = nil, nil, nil, nil, nil
}

func (m model) hasModal() bool {
	return m.filter != nil || m.note != nil || m.find != nil || m.snippet != nil || m.confirm != nil
}

// afterSignIn routes to the repository picker or straight to the notes.
func (m *model) afterSignIn() tea.Cmd {
	if m.st.SelectedRepo().IsZero() {
		return m.toRepos()
	}
	m.toNotes()
	if !m.st.Cache().Loaded() {
		m.setStatus("Loading notes…", 0)
		return reloadCmd(m.ctx, m.st)
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.applyLayout()
		m.resizeModals(msg)
		return m, nil
	case storeChangedMsg:
		if m.screen == screenNotes && !m.hasModal() {
			m.refreshRows()
		}
		if m.screen == screenEditor && m.ed != nil && !m.ed.sess.Status().Saving {
			m.ed.pull()
		}
		return m, nil
	case clockMsg:
		if m.screen == screenNotes && !m.hasModal() {
			m.refreshRows()
		}
		return m, clockCmd()
	case restoreResultMsg:
		if msg.err != nil {
			if !m.st.Authenticated() {
				m.toLogin()
				m.setError(msg.err, msg.dur, nil)
				return m, nil
			}
			var cmd tea.Cmd
			if m.st.SelectedRepo().IsZero() {
				cmd = m.toRepos()
			} else {
				m.toNotes()
			}
			m.setError(msg.err, msg.dur, reloadCmd(m.ctx, m.st))
			return m, cmd
		}
		if !m.st.Authenticated() {
			m.toLogin()
			m.setStatus("Sign in with a GitHub personal access token", 0)
			return m, textinput.Blink
		}
		m.setStatus("Signed in as "+m.st.User().Login, msg.dur)
		return m, m.afterSignIn()
	case loginResultMsg:
		if msg.err != nil {
			m.setError(msg.err, msg.dur, nil)
			if apperr.KindOf(msg.err) == apperr.KindAuth {
				m.status = apperr.Message(msg.err) + ". " + apperr.Suggestion(apperr.KindAuth)
			}
			return m, nil
		}
		m.token.SetValue("")
		m.setStatus("Signed in as "+msg.user.Login, msg.dur)
		return m, m.afterSignIn()
	case reposResultMsg:
		if msg.err != nil {
			m.setError(msg.err, msg.dur, reposCmd(m.ctx, m.st))
			return m, nil
		}
		m.repos = msg.repos
		m.filterRepos()
		m.setStatus(fmt.Sprintf("%d repositories", len(msg.repos)), msg.dur)
		return m, nil
	case selectResultMsg:
		if msg.err != nil {
			m.setError(msg.err, msg.dur, nil)
			return m, nil
		}
		m.toNotes()
		m.setStatus("Loading "+msg.ref.String()+"…", msg.dur)
		return m, reloadCmd(m.ctx, m.st)
	case reloadResultMsg:
		if msg.err != nil {
			m.setError(msg.err, msg.dur, reloadCmd(m.ctx, m.st))
			return m, nil
		}
		m.refreshRows()
		s := fmt.Sprintf("Loaded %d notes", m.st.Cache().Len())
		if m.st.Cache().Truncated() {
			s += " (more exist on GitHub)"
		}
		m.setStatus(s, msg.dur)
		return m, nil
	case saveResultMsg:
		return m.onSaved(msg)
	case discardMsg:
		discarded := m.st.CloseEditor()
		m.toNotes()
		if discarded {
			m.setStatus("Discarded unsaved changes", 0)
		}
		return m, nil
	case deleteResultMsg:
		if msg.err != nil {
			m.setError(msg.err, msg.dur, nil)
			return m, nil
		}
		if m.screen == screenEditor {
			m.toNotes()
		}
		m.refreshRows()
		m.setStatus(fmt.Sprintf("Deleted #%d", msg.number), msg.dur)
		return m, nil
	case stateResultMsg:
		if msg.err != nil {
			m.setError(msg.err, msg.dur, nil)
			return m, nil
		}
		m.refreshRows()
		verb := "Reopened"
		if msg.note.State == api.StateClosed {
			verb = "Closed"
		}
		m.setStatus(fmt.Sprintf("%s #%d", verb, msg.note.Number), msg.dur)
		return m, nil
	case commentsResultMsg:
		if msg.err != nil {
			m.setError(msg.err, msg.dur, commentsCmd(m.ctx, m.st, msg.id))
			return m, nil
		}
		if m.note != nil && m.note.n.ID == msg.id {
			m.note.setComments(msg.comments)
		}
		m.setStatus(fmt.Sprintf("%d comments", len(msg.comments)), msg.dur)
		return m, nil
	case commentAddedMsg:
		if msg.err != nil {
			m.setError(msg.err, msg.dur, nil)
			return m, nil
		}
		if m.note != nil && m.note.n.ID == msg.id {
			m.note.addComment(msg.comment)
		}
		m.setStatus("Comment posted", msg.dur)
		return m, nil
	case externalEditMsg:
		if err := applyExternalEdit(msg); err != nil {
			m.setError(err, 0, nil)
			return m, nil
		}
		if m.ed != nil && m.ed.sess == msg.sess {
			m.ed.pull()
		}
		m.setStatus("Applied external edits", 0)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m.forward(msg)
}

// forward passes non-key messages such as cursor blinks to the focused
// widget.
func (m model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case screenLogin:
		m.token, cmd = m.token.Update(msg)
	case screenRepos:
		m.repoQuery, cmd = m.repoQuery.Update(msg)
	case screenEditor:
		if m.ed != nil && !m.hasModal() {
			switch m.ed.focus {
			case focusTitle:
				m.ed.title, cmd = m.ed.title.Update(msg)
			case focusLabels:
				m.ed.labels, cmd = m.ed.labels.Update(msg)
			case focusBody:
				m.ed.body, cmd = m.ed.body.Update(msg)
			}
		}
	}
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		switch msg.String() {
		case "y", "Y", "enter":
			c := m.confirm
			m.confirm = nil
			return m, c.onYes()
		case "n", "N", "esc", "q":
			m.confirm = nil
			m.setStatus("Cancelled", 0)
		}
		return m, nil
	}
	switch {
	case m.filter != nil:
		return m.handleFilterKey(msg)
	case m.note != nil:
		return m.handleNoteKey(msg)
	case m.find != nil:
		return m.handleFindKey(msg)
	case m.snippet != nil:
		return m.handleSnippetKey(msg)
	}
	if msg.String() == "ctrl+r" && m.retry != nil && m.screen != screenEditor {
		cmd := m.retry
		m.setStatus("Retrying…", 0)
		return m, cmd
	}
	switch m.screen {
	case screenLogin:
		return m.handleLoginKey(msg)
	case screenRepos:
		return m.handleReposKey(msg)
	case screenNotes:
		return m.handleNotesKey(msg)
	case screenEditor:
		return m.handleEditorKey(msg)
	}
	if msg.String() == "q" || msg.String() == "esc" {
		return m, tea.Quit
	}
	return m, nil
}

func (m model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+q":
		return m, tea.Quit
	case "enter":
		tok := strings.TrimSpace(m.token.Value())
		if tok == "" {
			m.setError(apperr.Validation("login", "token is required"), 0, nil)
			return m, nil
		}
		m.setStatus("Checking token…", 0)
		return m, loginCmd(m.ctx, m.st, tok)
	case "ctrl+v":
		if s, err := clip.Paste(); err == nil {
			m.token.SetValue(strings.TrimSpace(s))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.token, cmd = m.token.Update(msg)
	return m, cmd
}

func (m *model) filterRepos() {
	m.shown = util.RankRepositories(m.repoQuery.Value(), m.repos)
	sel := m.st.SelectedRepo()
	rows := make([]table.Row, 0, len(m.shown))
	for _, r := range m.shown {
		mark := ""
		if r.Ref() == sel {
			mark = "✓ "
		}
		vis := "public"
		if r.Private {
			vis = "private"
		}
		rows = append(rows, table.Row{mark + r.FullName, vis, r.Description})
	}
	m.repoTable.SetRows(rows)
	if m.repoTable.Cursor() >= len(rows) {
		m.repoTable.SetCursor(max(len(rows)-1, 0))
	}
}

func (m model) handleReposKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if !m.st.SelectedRepo().IsZero() {
			m.toNotes()
			return m, nil
		}
		return m, tea.Quit
	case "ctrl+q":
		return m, tea.Quit
	case "enter":
		idx := m.repoTable.Cursor()
		if idx < 0 || idx >= len(m.shown) {
			return m, nil
		}
		ref := m.shown[idx].Ref()
		m.setStatus("Selecting "+ref.String()+"…", 0)
		return m, selectCmd(m.ctx, m.st, ref)
	case "up", "down", "pgup", "pgdown", "ctrl+n", "ctrl+p":
		key := msg
		switch msg.String() {
		case "ctrl+n":
			key = tea.KeyMsg{Type: tea.KeyDown}
		case "ctrl+p":
			key = tea.KeyMsg{Type: tea.KeyUp}
		}
		var cmd tea.Cmd
		m.repoTable, cmd = m.repoTable.Update(key)
		return m, cmd
	case "ctrl+l":
		m.setStatus("Signed out", 0)
		_ = m.st.Logout(m.ctx)
		m.toLogin()
		return m, nil
	}
	var cmd tea.Cmd
	m.repoQuery, cmd = m.repoQuery.Update(msg)
	m.filterRepos()
	return m, cmd
}

func (m *model) refreshRows() {
	m.rows = m.st.Notes(m.crit)
	notes.Sort(m.rows, m.sortKey)
	now := m.now()
	rows := make([]table.Row, 0, len(m.rows))
	for _, n := range m.rows {
		rows = append(rows, table.Row{
			fmt.Sprintf("#%d", n.Number),
			n.Title,
			joinLabels(n.Labels),
			string(n.State),
			util.RelativeTime(n.UpdatedAt, now),
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m model) selectedNote() (api.Note, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.rows) {
		return api.Note{}, false
	}
	return m.rows[idx], true
}

func (m model) handleNotesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+q":
		return m, tea.Quit
	case "enter", "e":
		n, ok := m.selectedNote()
		if !ok {
			return m, nil
		}
		sess, err := m.st.OpenNote(n.ID)
		if err != nil {
			m.setError(err, 0, nil)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Editing #%d", n.Number), 0)
		return m, m.toEditor(sess)
	case "n":
		sess, err := m.st.NewNote()
		if err != nil {
			m.setError(err, 0, nil)
			return m, nil
		}
		m.setStatus("New note", 0)
		return m, m.toEditor(sess)
	case "v":
		n, ok := m.selectedNote()
		if !ok {
			return m, nil
		}
		m.note = newNoteModal(n, m.r, m.width, m.height)
		return m, commentsCmd(m.ctx, m.st, n.ID)
	case "d":
		n, ok := m.selectedNote()
		if !ok {
			return m, nil
		}
		ctx, st := m.ctx, m.st
		m.confirm = newConfirmModal(fmt.Sprintf("Delete #%d %q permanently?", n.Number, n.Title), func() tea.Cmd {
			return deleteCmd(ctx, st, n)
		}, m.width, m.height)
		return m, nil
	case "x":
		n, ok := m.selectedNote()
		if !ok {
			return m, nil
		}
		next := api.StateClosed
		if n.State == api.StateClosed {
			next = api.StateOpen
		}
		return m, stateCmd(m.ctx, m.st, n.ID, next)
	case "r":
		m.setStatus("Reloading…", 0)
		return m, reloadCmd(m.ctx, m.st)
	case "/", "f":
		m.filter = newFilterModal(m.crit, m.sinceExpr, m.width, m.height)
		return m, textinput.Blink
	case "o":
		switch m.sortKey {
		case notes.SortUpdated:
			m.sortKey = notes.SortCreated
		case notes.SortCreated:
			m.sortKey = notes.SortTitle
		default:
			m.sortKey = notes.SortUpdated
		}
		m.refreshRows()
		m.setStatus("Sorted by "+string(m.sortKey), 0)
		return m, nil
	case "y":
		n, ok := m.selectedNote()
		if !ok || n.URL == "" {
			return m, nil
		}
		if method, err := clip.Copy(n.URL); err != nil {
			m.setError(err, 0, nil)
		} else {
			m.setStatus("Copied link ("+method.String()+")", 0)
		}
		return m, nil
	case "R":
		return m, m.toRepos()
	case "s":
		open := m.st.ToggleSidebar(m.ctx)
		m.applyLayout()
		m.setStatus(fmt.Sprintf("Sidebar %s", onOff(open)), 0)
		return m, nil
	case "t":
		theme := render.ThemeLight
		if m.r.Theme() == render.ThemeLight {
			theme = render.ThemeDark
		}
		m.r.SetTheme(theme)
		m.st.SetTheme(m.ctx, theme)
		m.setStatus("Theme "+theme, 0)
		return m, nil
	case "L":
		ctx, st := m.ctx, m.st
		m.confirm = newConfirmModal("Sign out and forget the token?", func() tea.Cmd {
			return func() tea.Msg {
				start := time.Now()
				err := st.Logout(ctx)
				return restoreResultMsg{err: err, dur: time.Since(start)}
			}
		}, m.width, m.height)
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+q":
		m.filter = nil
		return m, nil
	case "enter":
		crit, expr, err := m.filter.criteria(m.now())
		if err != nil {
			m.filter.err = err.Error()
			return m, nil
		}
		m.crit, m.sinceExpr = crit, expr
		m.filter = nil
		m.table.SetCursor(0)
		m.refreshRows()
		m.setStatus(fmt.Sprintf("%d notes match", len(m.rows)), 0)
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.update(msg)
	return m, cmd
}

func (m model) handleNoteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.note.writing {
		switch msg.String() {
		case "esc":
			m.note.takeComment()
			return m, nil
		case "enter":
			body := m.note.takeComment()
			if body == "" {
				return m, nil
			}
			m.setStatus("Posting comment…", 0)
			return m, addCommentCmd(m.ctx, m.st, m.note.n.ID, body)
		}
	} else {
		switch msg.String() {
		case "esc", "q", "ctrl+q":
			m.note = nil
			return m, nil
		case "c":
			return m, m.note.startComment()
		}
	}
	var cmd tea.Cmd
	m.note, cmd = m.note.update(msg)
	return m, cmd
}

func (m model) handleFindKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if s := msg.String(); s == "esc" || s == "ctrl+q" || s == "ctrl+f" {
		m.find = nil
		return m, nil
	}
	changed, cmd := m.find.update(msg)
	if changed && m.ed != nil {
		m.ed.pull()
	}
	return m, cmd
}

func (m model) handleSnippetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+q":
		m.snippet = nil
		return m, nil
	case "enter":
		name, ok := m.snippet.selected()
		m.snippet = nil
		if ok && m.ed != nil {
			if err := m.ed.format(name); err != nil {
				m.setError(err, 0, nil)
			}
		}
		return m, nil
	}
	return m, m.snippet.update(msg)
}

var formatKeys = map[string]string{
	"ctrl+b": "bold",
	"alt+i":  "italic",
	"ctrl+k": "link",
	"alt+`":  "code",
	"alt+x":  "strike",
	"alt+h":  "h2",
	"alt+l":  "bullet",
	"alt+t":  "task",
}

func (m model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sess := m.ed.sess
	key := msg.String()
	if name, ok := formatKeys[key]; ok {
		if err := m.ed.format(name); err != nil {
			m.setError(err, 0, nil)
		}
		return m, nil
	}
	switch key {
	case "esc", "ctrl+q":
		return m.closeEditor()
	case "ctrl+s":
		m.ed.push()
		m.setStatus("Saving…", 0)
		return m, saveCmd(m.ctx, sess)
	case "ctrl+f":
		m.ed.push()
		m.find = newFindModal(sess, m.ed.caret(), m.width, m.height)
		return m, textinput.Blink
	case "ctrl+g":
		m.snippet = newSnippetModal(m.width, m.height)
		return m, textinput.Blink
	case "ctrl+p":
		sess.CycleView()
		m.ed.resize(m.width, m.editorHeight())
		m.ed.refreshPreview(true)
		return m, nil
	case "f11", "alt+f":
		sess.ToggleFullscreen()
		m.ed.resize(m.width, m.editorHeight())
		return m, nil
	case "tab":
		if m.ed.focus != focusBody {
			m.ed.cycleFocus()
			return m, nil
		}
	case "shift+tab":
		m.ed.cycleFocus()
		return m, nil
	case "alt+a":
		on := !sess.Status().Autosave
		sess.SetAutosave(on)
		m.setStatus("Autosave "+onOff(on), 0)
		return m, nil
	case "ctrl+v":
		s, err := clip.Paste()
		if err != nil {
			m.setError(err, 0, nil)
			return m, nil
		}
		m.ed.insert(s)
		return m, nil
	case "ctrl+y":
		m.ed.push()
		if method, err := clip.Copy(sess.Content()); err != nil {
			m.setError(err, 0, nil)
		} else {
			m.setStatus("Copied note ("+method.String()+")", 0)
		}
		return m, nil
	case "ctrl+o":
		m.ed.push()
		return m, externalEditCmd(m.st.SelectedRepo(), sess)
	case "ctrl+r":
		if m.retry != nil {
			cmd := m.retry
			m.setStatus("Retrying…", 0)
			return m, cmd
		}
		return m, nil
	case "enter":
		if m.ed.focus == focusTitle || m.ed.focus == focusLabels {
			m.ed.setFocus(focusBody)
			return m, nil
		}
	}
	return m, m.ed.update(msg)
}

// closeEditor leaves the editor, asking first when edits would be lost.
func (m model) closeEditor() (tea.Model, tea.Cmd) {
	m.ed.push()
	if !m.ed.sess.Dirty() {
		m.st.CloseEditor()
		m.toNotes()
		return m, nil
	}
	m.confirm = newConfirmModal("Discard unsaved changes?", func() tea.Cmd {
		return func() tea.Msg { return discardMsg{} }
	}, m.width, m.height)
	return m, nil
}

type discardMsg struct{}

func (m model) onSaved(msg saveResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, editor.ErrSaveInFlight):
			m.setStatus("A save is already in progress", 0)
		case errors.Is(msg.err, editor.ErrSessionClosed):
		default:
			m.setError(msg.err, msg.dur, saveCmd(m.ctx, msg.sess))
		}
		return m, nil
	}
	if m.ed != nil && m.ed.sess == msg.sess {
		m.ed.pull()
	}
	m.refreshRows()
	m.setStatus(fmt.Sprintf("Saved #%d", msg.note.Number), msg.dur)
	return m, nil
}

func (m *model) editorHeight() int {
	return max(m.height-2, 5)
}

func (m *model) sidebarWidth() int {
	if !m.st.Prefs().SidebarOpen() || m.width < 70 {
		return 0
	}
	return min(28, m.width/4)
}

func (m *model) applyLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	h := max(4, m.height-2)
	w := m.width - m.sidebarWidth()
	m.table.SetHeight(h)
	m.table.SetWidth(w)
	m.repoTable.SetHeight(max(3, h-1))
	m.repoTable.SetWidth(m.width)
	avail := w - 6
	if avail >= 40 {
		numW, stateW, updW := 6, 7, 12
		rem := max(avail-numW-stateW-updW, 20)
		labelsW := rem / 3
		titleW := rem - labelsW
		m.table.SetColumns(m.noteColumns(numW, titleW, labelsW, stateW, updW))
		nameW := max(m.width/3, 20)
		m.repoTable.SetColumns(m.repoColumns(nameW, 8, max(m.width-nameW-8-6, 10)))
	}
	if m.ed != nil {
		m.ed.resize(m.width, m.editorHeight())
	}
}

func (m *model) resizeModals(msg tea.WindowSizeMsg) {
	if m.filter != nil {
		m.filter.resizeForTerm(msg.Width, msg.Height)
	}
	if m.note != nil {
		m.note.resizeForTerm(msg.Width, msg.Height)
	}
	if m.find != nil {
		m.find.resizeForTerm(msg.Width, msg.Height)
	}
}

func (m *model) applyStyles() {
	s := table.DefaultStyles()
	if m.headers {
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
	} else {
		s.Header = s.Header.
			BorderBottom(false).
			Bold(false)
	}
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	m.table.SetStyles(s)
	m.repoTable.SetStyles(s)
}

// noteColumns returns columns with or without titles based on the
// headers flag.
func (m *model) noteColumns(numW, titleW, labelsW, stateW, updW int) []table.Column {
	titles := []string{"#", "Title", "Labels", "State", "Updated"}
	if !m.headers {
		titles = []string{"", "", "", "", ""}
	}
	return []table.Column{
		{Title: titles[0], Width: numW},
		{Title: titles[1], Width: titleW},
		{Title: titles[2], Width: labelsW},
		{Title: titles[3], Width: stateW},
		{Title: titles[4], Width: updW},
	}
}

func (m *model) repoColumns(nameW, visW, descW int) []table.Column {
	titles := []string{"Repository", "Access", "Description"}
	if !m.headers {
		titles = []string{"", "", ""}
	}
	return []table.Column{
		{Title: titles[0], Width: nameW},
		{Title: titles[1], Width: visW},
		{Title: titles[2], Width: descW},
	}
}
