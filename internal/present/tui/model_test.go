package tui

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/gitnotes/internal/db"
	"github.com/mithrel/gitnotes/internal/github"
	"github.com/mithrel/gitnotes/internal/notes"
	"github.com/mithrel/gitnotes/internal/render"
	"github.com/mithrel/gitnotes/internal/store"
	"github.com/mithrel/gitnotes/internal/testutil/fakegh"
	"github.com/mithrel/gitnotes/pkg/api"
)

var ref = api.RepoRef{Owner: "octo", Name: "notes"}

func newStore(t *testing.T, srv *fakegh.Server) *store.Store {
	t.Helper()
	state, _, err := db.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	st := store.New(store.Options{
		State: state,
		NewClient: func(token string) store.Remote {
			return github.New(github.ClientConfig{
				Token:      token,
				BaseURL:    srv.URL(),
				GraphQLURL: srv.GraphQLURL(),
				Timeout:    5 * time.Second,
			})
		},
		Editor: store.EditorOptions{Autosave: false},
		Theme:  render.ThemeNoTTY,
	})
	t.Cleanup(func() { st.CloseEditor() })
	return st
}

func newServer(t *testing.T) *fakegh.Server {
	srv := fakegh.New(t)
	srv.AddRepo(ref.Owner, ref.Name)
	srv.AddRepo("octo", "dotfiles")
	srv.SeedIssue(ref.Owner, ref.Name, "Groceries", "milk and eggs, more milk", "open", "todo")
	srv.SeedIssue(ref.Owner, ref.Name, "Ideas", "build a boat", "open", "idea")
	return srv
}

func isAppMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case restoreResultMsg, loginResultMsg, reposResultMsg, selectResultMsg, reloadResultMsg,
		saveResultMsg, deleteResultMsg, stateResultMsg, commentsResultMsg, commentAddedMsg, discardMsg:
		return true
	}
	return false
}

// drive feeds msg to the model and keeps running the commands it returns
// while they produce application messages.
func drive(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(model)
	for i := 0; cmd != nil && i < 10; i++ {
		out := cmd()
		if !isAppMsg(out) {
			return m
		}
		next, cmd = m.Update(out)
		m = next.(model)
	}
	return m
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func alt(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s), Alt: true} }

func typeText(t *testing.T, m model, s string) model {
	for _, r := range s {
		m = drive(t, m, runes(string(r)))
	}
	return m
}

func start(t *testing.T, st *store.Store) model {
	t.Helper()
	m := newModel(context.Background(), Options{Store: st, Renderer: render.New(render.ThemeNoTTY, 80), Headers: true})
	m = drive(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return drive(t, m, restoreResultMsg{})
}

// signedIn starts the model with a session and repository already chosen.
func signedIn(t *testing.T, srv *fakegh.Server) (model, *store.Store) {
	t.Helper()
	st := newStore(t, srv)
	_, err := st.Login(context.Background(), srv.Token)
	require.NoError(t, err)
	require.NoError(t, st.SelectRepo(context.Background(), ref))
	m := start(t, st)
	require.Equal(t, screenNotes, m.screen)
	require.Len(t, m.rows, 2)
	return m, st
}

func selectTitle(t *testing.T, m model, title string) model {
	t.Helper()
	for i, n := range m.rows {
		if n.Title == title {
			m.table.SetCursor(i)
			return m
		}
	}
	t.Fatalf("no row titled %q", title)
	return m
}

func TestLoginSelectRepoAndList(t *testing.T) {
	srv := newServer(t)
	st := newStore(t, srv)
	m := start(t, st)
	require.Equal(t, screenLogin, m.screen)

	m.token.SetValue("nope")
	m = drive(t, m, key(tea.KeyEnter))
	require.Equal(t, screenLogin, m.screen)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "Authentication failed")

	m.token.SetValue(srv.Token)
	m = drive(t, m, key(tea.KeyEnter))
	require.Equal(t, screenRepos, m.screen)
	require.Len(t, m.repos, 2)

	m = typeText(t, m, "notes")
	require.NotEmpty(t, m.shown)
	require.Equal(t, "octo/notes", m.shown[0].FullName)

	m = drive(t, m, key(tea.KeyEnter))
	require.Equal(t, screenNotes, m.screen)
	assert.Equal(t, ref, st.SelectedRepo())
	assert.Len(t, m.rows, 2)
	assert.Contains(t, m.View(), "Groceries")
}

func TestEditAndSave(t *testing.T) {
	srv := newServer(t)
	m, st := signedIn(t, srv)
	m = selectTitle(t, m, "Ideas")

	m = drive(t, m, key(tea.KeyEnter))
	require.Equal(t, screenEditor, m.screen)
	require.NotNil(t, st.Editor())
	require.Equal(t, focusBody, m.ed.focus)

	m = typeText(t, m, "!")
	assert.True(t, st.Editor().Dirty())
	assert.Equal(t, "build a boat!", st.Editor().Content())

	m = drive(t, m, key(tea.KeyCtrlS))
	require.False(t, m.statusErr, m.status)
	assert.False(t, st.Editor().Dirty())
	n, ok := m.ed.sess.Baseline()
	require.True(t, ok)
	iss, ok := srv.Issue(ref.Owner, ref.Name, n.Number)
	require.True(t, ok)
	require.NotNil(t, iss.Body)
	assert.Equal(t, "build a boat!", *iss.Body)
}

func TestNewNote(t *testing.T) {
	srv := newServer(t)
	m, _ := signedIn(t, srv)

	m = drive(t, m, runes("n"))
	require.Equal(t, screenEditor, m.screen)
	require.Equal(t, focusTitle, m.ed.focus)

	m = typeText(t, m, "Trip")
	m = drive(t, m, key(tea.KeyEnter))
	require.Equal(t, focusBody, m.ed.focus)
	m = typeText(t, m, "pack")
	m = drive(t, m, key(tea.KeyCtrlS))
	require.False(t, m.statusErr, m.status)

	assert.Equal(t, 3, srv.IssueCount(ref.Owner, ref.Name))
	m = drive(t, m, key(tea.KeyEsc))
	require.Equal(t, screenNotes, m.screen)
	assert.Len(t, m.rows, 3)
}

func TestStoreChangeRefreshesRows(t *testing.T) {
	srv := newServer(t)
	m, st := signedIn(t, srv)

	sess, err := st.NewNote()
	require.NoError(t, err)
	sess.SetTitle("Saved elsewhere")
	_, err = sess.Save(context.Background())
	require.NoError(t, err)
	require.Len(t, m.rows, 2)

	m = drive(t, m, storeChangedMsg{})
	assert.Len(t, m.rows, 3)
	assert.Contains(t, m.View(), "Saved elsewhere")
}

func TestCloseDirtyEditorAsks(t *testing.T) {
	srv := newServer(t)
	m, st := signedIn(t, srv)
	m = drive(t, m, key(tea.KeyEnter))
	m = typeText(t, m, "x")

	m = drive(t, m, key(tea.KeyEsc))
	require.NotNil(t, m.confirm)
	m = drive(t, m, runes("n"))
	require.Nil(t, m.confirm)
	require.Equal(t, screenEditor, m.screen)

	m = drive(t, m, key(tea.KeyEsc))
	m = drive(t, m, runes("y"))
	require.Equal(t, screenNotes, m.screen)
	assert.Nil(t, st.Editor())
	assert.Equal(t, 0, srv.Mutations())
}

func TestFormatAndFindReplace(t *testing.T) {
	srv := newServer(t)
	m, st := signedIn(t, srv)
	m = selectTitle(t, m, "Groceries")
	m = drive(t, m, key(tea.KeyEnter))

	m = drive(t, m, key(tea.KeyCtrlB))
	assert.Equal(t, "milk and eggs, more milk**bold**", st.Editor().Content())
	assert.Equal(t, st.Editor().Content(), m.ed.body.Value())

	m = drive(t, m, key(tea.KeyCtrlF))
	require.NotNil(t, m.find)
	m = typeText(t, m, "milk")
	m = drive(t, m, key(tea.KeyEnter))
	assert.Contains(t, m.find.message, "match 1/2")
	m = drive(t, m, key(tea.KeyTab))
	m = typeText(t, m, "oat milk")
	m = drive(t, m, key(tea.KeyCtrlA))
	assert.Equal(t, "replaced 2", m.find.message)
	assert.Equal(t, "oat milk and eggs, more oat milk**bold**", st.Editor().Content())
	assert.Equal(t, st.Editor().Content(), m.ed.body.Value())

	m = drive(t, m, key(tea.KeyEsc))
	assert.Nil(t, m.find)
}

func TestViewModesAndAutosaveToggle(t *testing.T) {
	srv := newServer(t)
	m, st := signedIn(t, srv)
	m = drive(t, m, key(tea.KeyEnter))

	m = drive(t, m, key(tea.KeyCtrlP))
	assert.Equal(t, "split", st.Editor().View().String())
	assert.Contains(t, m.View(), "│")
	m = drive(t, m, key(tea.KeyCtrlP))
	assert.Equal(t, "preview", st.Editor().View().String())
	assert.Equal(t, focusPreview, m.ed.focus)
	m = drive(t, m, key(tea.KeyCtrlP))
	assert.Equal(t, "edit", st.Editor().View().String())
	assert.Equal(t, focusBody, m.ed.focus)

	m = drive(t, m, alt("a"))
	assert.True(t, st.Editor().Status().Autosave)
	m = drive(t, m, key(tea.KeyF11))
	assert.True(t, st.Editor().Fullscreen())
	assert.NotContains(t, m.View(), "Title:")
}

func TestFilterNotes(t *testing.T) {
	srv := newServer(t)
	m, _ := signedIn(t, srv)

	m = drive(t, m, runes("/"))
	require.NotNil(t, m.filter)
	m = typeText(t, m, "boat")
	m = drive(t, m, key(tea.KeyEnter))
	require.Nil(t, m.filter)
	require.Len(t, m.rows, 1)
	assert.Equal(t, "Ideas", m.rows[0].Title)

	m = drive(t, m, runes("/"))
	m = drive(t, m, key(tea.KeyTab))
	m = typeText(t, m, "bogus")
	m = drive(t, m, key(tea.KeyEnter))
	require.NotNil(t, m.filter)
	assert.Contains(t, m.filter.err, "invalid state")
	m = drive(t, m, key(tea.KeyEsc))
	assert.Equal(t, "boat", m.crit.Query)
	assert.Equal(t, notes.StateAll, m.crit.State)
}

func TestDeleteAndCloseNote(t *testing.T) {
	srv := newServer(t)
	m, st := signedIn(t, srv)
	m = selectTitle(t, m, "Groceries")

	m = drive(t, m, runes("x"))
	require.False(t, m.statusErr, m.status)
	closed := st.Notes(notes.Criteria{State: notes.StateClosed})
	require.Len(t, closed, 1)
	assert.Equal(t, "Groceries", closed[0].Title)

	m = selectTitle(t, m, "Ideas")
	m = drive(t, m, runes("d"))
	require.NotNil(t, m.confirm)
	m = drive(t, m, runes("y"))
	require.False(t, m.statusErr, m.status)
	assert.Len(t, m.rows, 1)
	assert.Equal(t, 1, st.Cache().Len())
}

func TestPermissionErrorKeepsDraft(t *testing.T) {
	srv := newServer(t)
	m, st := signedIn(t, srv)
	m = selectTitle(t, m, "Ideas")
	m = drive(t, m, key(tea.KeyEnter))
	n, _ := m.ed.sess.Baseline()
	srv.Fail(http.MethodPatch, fmt.Sprintf("/repos/octo/notes/issues/%d", n.Number), http.StatusForbidden, "Resource not accessible by personal access token")

	m = typeText(t, m, "?")
	m = drive(t, m, key(tea.KeyCtrlS))
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "Permission denied")
	assert.Contains(t, m.status, "repo-write")
	assert.True(t, st.Editor().Dirty())
	assert.Equal(t, screenEditor, m.screen)
}

func TestAuthErrorSignsOut(t *testing.T) {
	srv := newServer(t)
	m, st := signedIn(t, srv)
	srv.Fail(http.MethodGet, "/repos/octo/notes/issues", http.StatusUnauthorized, "Bad credentials")

	m = drive(t, m, runes("r"))
	assert.Equal(t, screenLogin, m.screen)
	assert.False(t, st.Authenticated())
	assert.Contains(t, m.status, "Authentication failed")
}

func TestTransportErrorOffersRetry(t *testing.T) {
	srv := newServer(t)
	m, _ := signedIn(t, srv)
	srv.Fail(http.MethodGet, "/repos/octo/notes/issues", http.StatusBadGateway, "network unreachable")

	m = drive(t, m, runes("r"))
	require.True(t, m.statusErr)
	require.NotNil(t, m.retry)
	assert.Contains(t, m.statusText(), "ctrl+r=Retry")

	m = drive(t, m, key(tea.KeyCtrlR))
	assert.False(t, m.statusErr)
	assert.Nil(t, m.retry)
	assert.Len(t, m.rows, 2)
}

func TestNoteModalComments(t *testing.T) {
	srv := newServer(t)
	m, st := signedIn(t, srv)
	m = selectTitle(t, m, "Ideas")

	m = drive(t, m, runes("v"))
	require.NotNil(t, m.note)
	assert.False(t, m.note.loading)
	assert.Empty(t, m.note.comments)

	m = drive(t, m, runes("c"))
	require.True(t, m.note.writing)
	m = typeText(t, m, "nice")
	m = drive(t, m, key(tea.KeyEnter))
	require.False(t, m.statusErr, m.status)
	require.Len(t, m.note.comments, 1)
	assert.Equal(t, "nice", m.note.comments[0].Body)

	cached, ok := st.Cache().Get(m.note.n.ID)
	require.True(t, ok)
	assert.Equal(t, 1, cached.Comments)

	m = drive(t, m, key(tea.KeyEsc))
	assert.Nil(t, m.note)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b "))
	assert.Nil(t, splitCSV(""))
	assert.Equal(t, 6, runeOffset("ab\ncdé\nf", 1, 3))
	assert.Equal(t, 5, runeOffset("ab\ncd", 1, 9))
	assert.Equal(t, 1, lineOf("ab\ncd", 4))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Contains(t, scoreSnippets("mer"), "mermaid")
}
