package store_test

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/gitnotes/internal/apperr"
	"github.com/mithrel/gitnotes/internal/db"
	"github.com/mithrel/gitnotes/internal/github"
	"github.com/mithrel/gitnotes/internal/keys"
	"github.com/mithrel/gitnotes/internal/notes"
	"github.com/mithrel/gitnotes/internal/sched"
	"github.com/mithrel/gitnotes/internal/store"
	"github.com/mithrel/gitnotes/internal/testutil/fakegh"
	"github.com/mithrel/gitnotes/pkg/api"
)

var ref = api.RepoRef{Owner: "octo", Name: "notes"}

type env struct {
	srv   *fakegh.Server
	state db.Store
	clock *sched.FakeClock
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv := fakegh.New(t)
	srv.AddRepo(ref.Owner, ref.Name)
	state, _, err := db.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	return &env{srv: srv, state: state, clock: sched.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))}
}

func (e *env) open(tokens keys.TokenStore) *store.Store {
	return e.openWith(tokens, nil)
}

// openWith lets a test wrap the GitHub client the store builds.
func (e *env) openWith(tokens keys.TokenStore, wrap func(store.Remote) store.Remote) *store.Store {
	return store.New(store.Options{
		State:  e.state,
		Tokens: tokens,
		Clock:  e.clock,
		NewClient: func(token string) store.Remote {
			var r store.Remote = github.New(github.ClientConfig{
				Token:      token,
				BaseURL:    e.srv.URL(),
				GraphQLURL: e.srv.GraphQLURL(),
				Timeout:    5 * time.Second,
			})
			if wrap != nil {
				r = wrap(r)
			}
			return r
		},
		Editor: store.EditorOptions{Autosave: true},
		Theme:  "dark",
	})
}

func signedIn(t *testing.T, e *env) *store.Store {
	t.Helper()
	s := e.open(nil)
	_, err := s.Login(context.Background(), e.srv.Token)
	require.NoError(t, err)
	require.NoError(t, s.SelectRepo(context.Background(), ref))
	return s
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	s := e.open(nil)
	ctx := context.Background()

	_, err := s.Login(ctx, "  ")
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = s.Login(ctx, "wrong")
	require.Error(t, err)
	require.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	require.False(t, s.Authenticated())

	u, err := s.Login(ctx, e.srv.Token)
	require.NoError(t, err)
	assert.Equal(t, "octocat", u.Login)
	assert.True(t, s.Authenticated())

	snap := s.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, e.srv.Token, snap.Token)
	require.NotNil(t, snap.User)
	assert.Equal(t, "octocat", snap.User.Login)
}

func TestNotAuthenticated(t *testing.T) {
	e := newEnv(t)
	s := e.open(nil)
	_, err := s.Repositories(context.Background())
	require.ErrorIs(t, err, apperr.ErrNotAuthenticated)
	_, err = s.NewNote()
	require.ErrorIs(t, err, apperr.ErrNotAuthenticated)
	require.ErrorIs(t, s.SelectRepo(context.Background(), ref), apperr.ErrNotAuthenticated)
	assert.True(t, s.SelectedRepo().IsZero())
}

func TestSelectRepoResetsCacheAndEditor(t *testing.T) {
	e := newEnv(t)
	e.srv.SeedIssue(ref.Owner, ref.Name, "one", "", "")
	s := signedIn(t, e)
	ctx := context.Background()

	require.NoError(t, s.Reload(ctx))
	require.Len(t, s.Notes(notes.Criteria{}), 1)

	sess, err := s.NewNote()
	require.NoError(t, err)
	sess.SetTitle("unsaved")

	require.NoError(t, s.SelectRepo(ctx, api.RepoRef{Owner: "octo", Name: "other"}))
	assert.False(t, s.Cache().Loaded())
	assert.Empty(t, s.Notes(notes.Criteria{}))
	assert.Nil(t, s.Editor())
	assert.True(t, sess.Closed())
	assert.Equal(t, "octo/other", s.SelectedRepo().String())
}

func TestEditorLifecycle(t *testing.T) {
	e := newEnv(t)
	s := signedIn(t, e)
	ctx := context.Background()
	require.NoError(t, s.Reload(ctx))

	sess, err := s.NewNote()
	require.NoError(t, err)
	sess.SetTitle("Todo")
	sess.SetContent("- [ ] write tests")
	n, err := sess.Save(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(12345), n.ID)
	require.Len(t, s.Notes(notes.Criteria{}), 1)

	again, err := s.OpenNote(n.ID)
	require.NoError(t, err)
	require.True(t, sess.Closed(), "opening another note closes the previous session")
	again.SetContent("- [x] write tests")
	e.clock.Advance(30 * time.Second)
	assert.Equal(t, 1, e.srv.Count(http.MethodPatch, "/repos/{owner}/{repo}/issues/{number}"))
	cached, _ := s.Cache().Get(n.ID)
	assert.Equal(t, "- [x] write tests", cached.Content)

	assert.False(t, s.CloseEditor())
	assert.Nil(t, s.Editor())

	_, err = s.OpenNote(999)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestNoteActions(t *testing.T) {
	e := newEnv(t)
	e.srv.SeedIssue(ref.Owner, ref.Name, "a", "", "")
	e.srv.SeedIssue(ref.Owner, ref.Name, "b", "", "")
	s := signedIn(t, e)
	ctx := context.Background()
	require.NoError(t, s.Reload(ctx))

	a, _ := s.Cache().GetByNumber(1)
	b, _ := s.Cache().GetByNumber(2)

	closed, err := s.SetNoteState(ctx, a.ID, api.StateClosed)
	require.NoError(t, err)
	assert.Equal(t, api.StateClosed, closed.State)
	open := s.Notes(notes.Criteria{State: notes.StateOpen})
	require.Len(t, open, 1)
	assert.Equal(t, "b", open[0].Title)

	_, err = s.AddComment(ctx, a.ID, " ")
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = s.AddComment(ctx, a.ID, "done")
	require.NoError(t, err)
	cs, err := s.Comments(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, cs, 1)

	_, err = s.OpenNote(b.ID)
	require.NoError(t, err)
	require.NoError(t, s.DeleteNote(ctx, b.ID))
	assert.Nil(t, s.Editor())
	assert.Equal(t, 1, s.Cache().Len())
}

func TestHandleErrorAuthSignsOut(t *testing.T) {
	e := newEnv(t)
	s := signedIn(t, e)
	ctx := context.Background()
	e.srv.Fail(http.MethodGet, "/repos/octo/notes/issues", http.StatusUnauthorized, "Bad credentials")

	err := s.Reload(ctx)
	require.Error(t, err)
	remedy := s.HandleError(ctx, err)
	assert.Equal(t, apperr.RemedyReauthenticate, remedy)
	assert.False(t, s.Authenticated())
	assert.True(t, s.SelectedRepo().IsZero())
	assert.False(t, s.Snapshot().IsAuthenticated)

	assert.Equal(t, apperr.RemedyRetry, s.HandleError(ctx, apperr.New(apperr.KindTransport, "x", context.DeadlineExceeded)))
	assert.Equal(t, apperr.RemedyNone, s.HandleError(ctx, nil))
}

func TestRestore(t *testing.T) {
	e := newEnv(t)
	e.srv.SeedIssue(ref.Owner, ref.Name, "kept", "", "")
	s := signedIn(t, e)
	ctx := context.Background()
	s.SetTheme(ctx, "light")
	require.True(t, s.ToggleSidebar(ctx))

	restored := e.open(nil)
	require.NoError(t, restored.Restore(ctx))
	assert.True(t, restored.Authenticated())
	assert.Equal(t, "octocat", restored.User().Login)
	assert.Equal(t, ref, restored.SelectedRepo())
	assert.Equal(t, "light", restored.Prefs().Theme())
	assert.True(t, restored.Prefs().SidebarOpen())
	assert.True(t, restored.Cache().Loaded())
	assert.Len(t, restored.Notes(notes.Criteria{}), 1)
}

func TestRestoreWithRevokedToken(t *testing.T) {
	e := newEnv(t)
	signedIn(t, e)
	e.srv.Token = "rotated"

	restored := e.open(nil)
	err := restored.Restore(context.Background())
	require.Error(t, err)
	assert.False(t, restored.Authenticated())
	assert.True(t, restored.SelectedRepo().IsZero())
}

func TestTokenStoreKeepsTokenOutOfSnapshot(t *testing.T) {
	e := newEnv(t)
	tokens := &keys.StateStore{DB: e.state}
	s := e.open(tokens)
	ctx := context.Background()
	_, err := s.Login(ctx, e.srv.Token)
	require.NoError(t, err)
	assert.Empty(t, s.Snapshot().Token)

	tok, err := tokens.Get(ctx, keys.DefaultAccount)
	require.NoError(t, err)
	assert.Equal(t, e.srv.Token, tok)

	restored := e.open(tokens)
	require.NoError(t, restored.Restore(ctx))
	assert.True(t, restored.Authenticated())

	require.NoError(t, restored.Logout(ctx))
	_, err = tokens.Get(ctx, keys.DefaultAccount)
	require.ErrorIs(t, err, keys.ErrTokenNotFound)
}

// gatedRemote parks CreateIssue until release is closed.
type gatedRemote struct {
	store.Remote
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRemote) CreateIssue(ctx context.Context, r api.RepoRef, in github.IssueInput) (api.Note, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.Remote.CreateIssue(ctx, r, in)
}

func TestSaveFinishingAfterRepoSwitchStaysOutOfCache(t *testing.T) {
	e := newEnv(t)
	other := api.RepoRef{Owner: "octo", Name: "other"}
	e.srv.AddRepo(other.Owner, other.Name)
	gate := &gatedRemote{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := e.openWith(nil, func(r store.Remote) store.Remote {
		gate.Remote = r
		return gate
	})
	ctx := context.Background()
	_, err := s.Login(ctx, e.srv.Token)
	require.NoError(t, err)
	require.NoError(t, s.SelectRepo(ctx, ref))
	require.NoError(t, s.Reload(ctx))

	sess, err := s.NewNote()
	require.NoError(t, err)
	sess.SetTitle("from old repo")
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = sess.Save(ctx)
	}()
	<-gate.entered

	require.NoError(t, s.SelectRepo(ctx, other))
	require.NoError(t, s.Reload(ctx))
	close(gate.release)
	<-done

	assert.Equal(t, other, s.SelectedRepo())
	assert.Equal(t, 0, s.Cache().Len(), "the note belongs to the previous repository")
	assert.Equal(t, 1, e.srv.IssueCount(ref.Owner, ref.Name))
	assert.Equal(t, 0, e.srv.IssueCount(other.Owner, other.Name))
}

// failingTokens writes the token through to the state database and then
// reports an error, like a keyring that rejects the write halfway.
type failingTokens struct {
	keys.StateStore
}

func (f *failingTokens) Put(ctx context.Context, account, token string) error {
	if err := f.StateStore.Put(ctx, account, token); err != nil {
		return err
	}
	return errors.New("keychain locked")
}

func TestLoginAndLogoutWriteTokenWithSnapshot(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	state, closer, err := db.Open(ctx, filepath.Join(t.TempDir(), "gitnotes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })
	e.state = state

	failing := &failingTokens{keys.StateStore{DB: state}}
	s := e.open(failing)
	_, err = s.Login(ctx, e.srv.Token)
	require.Error(t, err)
	assert.False(t, s.Authenticated())
	_, err = failing.StateStore.Get(ctx, keys.DefaultAccount)
	require.ErrorIs(t, err, keys.ErrTokenNotFound, "the token write is rolled back")
	var snap store.Snapshot
	require.ErrorIs(t, state.Get(ctx, store.SnapshotKey, &snap), db.ErrNotFound)

	tokens := &keys.StateStore{DB: state}
	s = e.open(tokens)
	_, err = s.Login(ctx, e.srv.Token)
	require.NoError(t, err)
	require.NoError(t, state.Get(ctx, store.SnapshotKey, &snap))
	assert.True(t, snap.IsAuthenticated)

	require.NoError(t, s.Logout(ctx))
	_, err = tokens.Get(ctx, keys.DefaultAccount)
	require.ErrorIs(t, err, keys.ErrTokenNotFound)
	var after store.Snapshot
	require.NoError(t, state.Get(ctx, store.SnapshotKey, &after))
	assert.False(t, after.IsAuthenticated)
	assert.Nil(t, after.User)
}

func TestOnChangeRunsAfterSave(t *testing.T) {
	e := newEnv(t)
	s := signedIn(t, e)
	ctx := context.Background()
	require.NoError(t, s.Reload(ctx))

	changes := 0
	s.SetOnChange(func() { changes++ })
	sess, err := s.NewNote()
	require.NoError(t, err)
	sess.SetTitle("Todo")
	_, err = sess.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changes)

	sess.SetContent("autosaved")
	e.clock.Advance(30 * time.Second)
	assert.Equal(t, 2, changes)
}
