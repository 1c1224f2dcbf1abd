package tui

import (
	"context"
	"errors"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mithrel/gitnotes/internal/editor"
	"github.com/mithrel/gitnotes/internal/store"
	"github.com/mithrel/gitnotes/pkg/api"
)

// restoreResultMsg conveys the outcome of restoring the saved session.
type restoreResultMsg struct {
	err error
	dur time.Duration
}

type loginResultMsg struct {
	user api.User
	err  error
	dur  time.Duration
}

type reposResultMsg struct {
	repos []api.Repository
	err   error
	dur   time.Duration
}

type selectResultMsg struct {
	ref api.RepoRef
	err error
	dur time.Duration
}

type reloadResultMsg struct {
	err error
	dur time.Duration
}

// saveResultMsg conveys a manual save back to Update.
type saveResultMsg struct {
	sess *editor.Session
	note api.Note
	err  error
	dur  time.Duration
}

type deleteResultMsg struct {
	id     int64
	number int
	err    error
	dur    time.Duration
}

type stateResultMsg struct {
	note api.Note
	err  error
	dur  time.Duration
}

type commentsResultMsg struct {
	id       int64
	comments []api.Comment
	err      error
	dur      time.Duration
}

type commentAddedMsg struct {
	id      int64
	comment api.Comment
	err     error
	dur     time.Duration
}

// externalEditMsg reports that the external editor exited.
type externalEditMsg struct {
	sess *editor.Session
	path string
	err  error
}

// storeChangedMsg is sent by the store when a save finishes in the
// background.
type storeChangedMsg struct{}

// clockMsg redraws relative times.
type clockMsg time.Time

func clockCmd() tea.Cmd {
	return tea.Tick(30*time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func restoreCmd(ctx context.Context, st *store.Store) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		err := st.Restore(ctx)
		return restoreResultMsg{err: err, dur: time.Since(start)}
	}
}

func loginCmd(ctx context.Context, st *store.Store, token string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		u, err := st.Login(ctx, token)
		return loginResultMsg{user: u, err: err, dur: time.Since(start)}
	}
}

func reposCmd(ctx context.Context, st *store.Store) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		repos, err := st.Repositories(ctx)
		return reposResultMsg{repos: repos, err: err, dur: time.Since(start)}
	}
}

func selectCmd(ctx context.Context, st *store.Store, ref api.RepoRef) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		err := st.SelectRepo(ctx, ref)
		return selectResultMsg{ref: ref, err: err, dur: time.Since(start)}
	}
}

func reloadCmd(ctx context.Context, st *store.Store) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		err := st.Reload(ctx)
		return reloadResultMsg{err: err, dur: time.Since(start)}
	}
}

func saveCmd(ctx context.Context, sess *editor.Session) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		n, err := sess.Save(ctx)
		return saveResultMsg{sess: sess, note: n, err: err, dur: time.Since(start)}
	}
}

func deleteCmd(ctx context.Context, st *store.Store, n api.Note) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		err := st.DeleteNote(ctx, n.ID)
		return deleteResultMsg{id: n.ID, number: n.Number, err: err, dur: time.Since(start)}
	}
}

func stateCmd(ctx context.Context, st *store.Store, id int64, state api.NoteState) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		n, err := st.SetNoteState(ctx, id, state)
		return stateResultMsg{note: n, err: err, dur: time.Since(start)}
	}
}

func commentsCmd(ctx context.Context, st *store.Store, id int64) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		cs, err := st.Comments(ctx, id)
		return commentsResultMsg{id: id, comments: cs, err: err, dur: time.Since(start)}
	}
}

func addCommentCmd(ctx context.Context, st *store.Store, id int64, body string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		c, err := st.AddComment(ctx, id, body)
		return commentAddedMsg{id: id, comment: c, err: err, dur: time.Since(start)}
	}
}

// externalEditCmd suspends the program and opens the draft in $EDITOR.
func externalEditCmd(repo api.RepoRef, sess *editor.Session) tea.Cmd {
	st := sess.Status()
	path, err := editor.PathForNote(repo, st.Number)
	if err != nil {
		return func() tea.Msg { return externalEditMsg{sess: sess, err: err} }
	}
	d := sess.Draft()
	if err := editor.PrepareAt(path, []byte(editor.ComposeContent(d.Title, d.Labels, d.Content))); err != nil {
		return func() tea.Msg { return externalEditMsg{sess: sess, path: path, err: err} }
	}
	c, err := editor.Command(path)
	if err != nil {
		return func() tea.Msg { return externalEditMsg{sess: sess, path: path, err: err} }
	}
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return externalEditMsg{sess: sess, path: path, err: err}
	})
}

// applyExternalEdit reads the edited file back into sess and removes it.
func applyExternalEdit(msg externalEditMsg) error {
	if msg.err != nil {
		return msg.err
	}
	data, err := os.ReadFile(msg.path)
	if err != nil {
		return err
	}
	_ = os.Remove(msg.path)
	if msg.sess.Closed() {
		return errors.New("editor was closed")
	}
	title, labels, body := editor.ParseEditedNote(string(data))
	msg.sess.SetTitle(title)
	msg.sess.SetLabels(labels)
	msg.sess.SetContent(body)
	return nil
}
