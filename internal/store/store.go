// Package store composes the application state: the signed-in session,
// the selected repository, UI preferences, the note cache and the open
// editor session. Each exported method is one user action.
package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mithrel/gitnotes/internal/apperr"
	"github.com/mithrel/gitnotes/internal/db"
	"github.com/mithrel/gitnotes/internal/editor"
	"github.com/mithrel/gitnotes/internal/keys"
	"github.com/mithrel/gitnotes/internal/notes"
	"github.com/mithrel/gitnotes/internal/persist"
	"github.com/mithrel/gitnotes/internal/sched"
	"github.com/mithrel/gitnotes/pkg/api"
)

// Remote is the GitHub surface the store drives.
type Remote interface {
	persist.Remote
	Authenticate(ctx context.Context) (api.User, error)
	ListRepositories(ctx context.Context) ([]api.Repository, error)
}

// ClientFactory builds a Remote authenticated with token.
type ClientFactory func(token string) Remote

type EditorOptions struct {
	Autosave      bool
	AutosaveDelay time.Duration
	View          editor.ViewMode
}

type Options struct {
	// State persists the snapshot. Nil keeps everything in memory.
	State db.Store
	// Tokens holds the token. Nil stores it inside the snapshot.
	Tokens    keys.TokenStore
	NewClient ClientFactory
	Clock     sched.Clock
	Logger    *slog.Logger
	Editor    EditorOptions
	Theme     string
	Sidebar   bool
	// OnChange runs after editor saves complete, for UIs to redraw. It can
	// be replaced later with SetOnChange.
	OnChange func()
}

type Store struct {
	state     db.Store
	tokens    keys.TokenStore
	newClient ClientFactory
	clock     sched.Clock
	log       *slog.Logger
	editorOpt EditorOptions
	onChange  func()

	session   Session
	selection Selection
	prefs     Prefs
	cache     *notes.Cache

	mu     sync.Mutex
	client Remote
	facade *persist.Facade
	active *editor.Session
	ctx    context.Context
}

func New(opts Options) *Store {
	s := &Store{
		state:     opts.State,
		tokens:    opts.Tokens,
		newClient: opts.NewClient,
		clock:     opts.Clock,
		log:       opts.Logger,
		editorOpt: opts.Editor,
		onChange:  opts.OnChange,
		ctx:       context.Background(),
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.clock == nil {
		s.clock = sched.RealClock()
	}
	s.prefs.theme = opts.Theme
	s.prefs.sidebarOpen = opts.Sidebar
	s.cache = notes.NewCache(s.log)
	return s
}

func (s *Store) Session() *Session     { return &s.session }
func (s *Store) Selection() *Selection { return &s.selection }
func (s *Store) Prefs() *Prefs         { return &s.prefs }
func (s *Store) Cache() *notes.Cache   { return s.cache }

func (s *Store) Authenticated() bool       { return s.session.Authenticated() }
func (s *Store) User() api.User            { return s.session.User() }
func (s *Store) SelectedRepo() api.RepoRef { return s.selection.Get() }

func (s *Store) attach(client Remote) {
	s.mu.Lock()
	s.client = client
	s.facade = persist.New(client, s.selection.Get, s.cache, s.log)
	s.mu.Unlock()
}

func (s *Store) remote() (Remote, *persist.Facade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil || !s.session.Authenticated() {
		return nil, nil, apperr.ErrNotAuthenticated
	}
	return s.client, s.facade, nil
}

// Login validates token against GitHub and signs in. A rejected token
// leaves the store signed out.
func (s *Store) Login(ctx context.Context, token string) (api.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return api.User{}, apperr.Validation("login", "token is required")
	}
	client := s.newClient(token)
	user, err := client.Authenticate(ctx)
	if err != nil {
		return api.User{}, err
	}

	prevAuth, prevToken, prevUser := s.session.Authenticated(), s.session.Token(), s.session.User()
	s.mu.Lock()
	prevClient, prevFacade := s.client, s.facade
	s.mu.Unlock()

	s.session.set(token, user)
	s.attach(client)
	err = s.commit(ctx, func(ctx context.Context) error {
		if s.tokens == nil {
			return nil
		}
		return s.tokens.Put(ctx, keys.DefaultAccount, token)
	})
	if err != nil {
		if prevAuth {
			s.session.set(prevToken, prevUser)
		} else {
			s.session.clear()
		}
		s.mu.Lock()
		s.client, s.facade = prevClient, prevFacade
		s.mu.Unlock()
		return api.User{}, err
	}
	s.log.Info("signed in", slog.String("login", user.Login))
	return user, nil
}

// Logout forgets the token, user, selection, notes and editor session.
func (s *Store) Logout(ctx context.Context) error {
	s.CloseEditor()
	s.session.clear()
	s.selection.set(api.RepoRef{})
	s.cache.Invalidate()
	s.mu.Lock()
	s.client, s.facade = nil, nil
	s.mu.Unlock()
	err := s.commit(ctx, func(ctx context.Context) error {
		if s.tokens == nil {
			return nil
		}
		return s.tokens.Delete(ctx, keys.DefaultAccount)
	})
	s.log.Info("signed out")
	return err
}

// Restore loads the snapshot saved by a previous run. When a session was
// signed in, the token is checked again and, if a repository was selected,
// its notes are fetched alongside. A rejected token signs out; a network
// failure keeps the restored state and is returned.
func (s *Store) Restore(ctx context.Context) error {
	if s.state == nil {
		return nil
	}
	snap, ok, err := loadSnapshot(ctx, s.state)
	if err != nil || !ok {
		return err
	}
	s.prefs.mu.Lock()
	if snap.Theme != "" {
		s.prefs.theme = snap.Theme
	}
	s.prefs.sidebarOpen = snap.SidebarOpen
	s.prefs.mu.Unlock()
	if snap.SelectedRepo != nil {
		s.selection.set(*snap.SelectedRepo)
	}
	if !snap.IsAuthenticated {
		return nil
	}

	token := snap.Token
	if s.tokens != nil {
		tok, err := s.tokens.Get(ctx, keys.DefaultAccount)
		switch {
		case err == nil:
			token = tok
		case errors.Is(err, keys.ErrTokenNotFound):
		default:
			return err
		}
	}
	if token == "" {
		s.log.Warn("restore: signed-in snapshot without a token")
		return s.Logout(ctx)
	}
	var user api.User
	if snap.User != nil {
		user = *snap.User
	}
	s.session.set(token, user)
	s.attach(s.newClient(token))

	remote, facade, err := s.remote()
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := remote.Authenticate(gctx)
		if err != nil {
			return err
		}
		s.session.set(token, u)
		return nil
	})
	if !s.selection.Get().IsZero() {
		g.Go(func() error {
			_, err := facade.Reload(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.HandleError(ctx, err)
		return err
	}
	s.save(ctx)
	return nil
}

// Repositories lists the repositories the user can access.
func (s *Store) Repositories(ctx context.Context) ([]api.Repository, error) {
	remote, _, err := s.remote()
	if err != nil {
		return nil, err
	}
	return remote.ListRepositories(ctx)
}

// SelectRepo switches repository. The cache is emptied and any open
// editor session is closed.
func (s *Store) SelectRepo(ctx context.Context, ref api.RepoRef) error {
	if !s.session.Authenticated() {
		return apperr.ErrNotAuthenticated
	}
	if ref.IsZero() {
		return apperr.Validation("select repository", "repository is required")
	}
	s.CloseEditor()
	if s.selection.set(ref) {
		s.cache.Invalidate()
	}
	s.save(ctx)
	return nil
}

// ClearRepo drops the selection.
func (s *Store) ClearRepo(ctx context.Context) {
	s.CloseEditor()
	s.selection.set(api.RepoRef{})
	s.cache.Invalidate()
	s.save(ctx)
}

// Reload fetches the notes of the selected repository.
func (s *Store) Reload(ctx context.Context) error {
	_, facade, err := s.remote()
	if err != nil {
		return err
	}
	_, err = facade.Reload(ctx)
	return err
}

// Notes returns the cached notes matching crit.
func (s *Store) Notes(crit notes.Criteria) []api.Note {
	return s.cache.Filter(crit)
}

// SetOnChange replaces the hook run after editor saves complete. Sessions
// opened afterwards use it.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) editorOptions(p editor.Persister) editor.Options {
	s.mu.Lock()
	onChange := s.onChange
	s.mu.Unlock()
	return editor.Options{
		Persister:     p,
		Clock:         s.clock,
		Logger:        s.log,
		AutosaveDelay: s.editorOpt.AutosaveDelay,
		NoAutosave:    !s.editorOpt.Autosave,
		View:          s.editorOpt.View,
		Context:       s.ctx,
		OnChange:      onChange,
	}
}

// OpenNote starts an editor session on a cached note, replacing the
// current one.
func (s *Store) OpenNote(id int64) (*editor.Session, error) {
	_, facade, err := s.remote()
	if err != nil {
		return nil, err
	}
	n, ok := s.cache.Get(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	sess := editor.Open(&n, s.editorOptions(facade))
	s.swapEditor(sess)
	return sess, nil
}

// NewNote starts an editor session for a note that does not exist yet.
func (s *Store) NewNote() (*editor.Session, error) {
	_, facade, err := s.remote()
	if err != nil {
		return nil, err
	}
	if s.selection.Get().IsZero() {
		return nil, apperr.ErrNoRepository
	}
	sess := editor.Open(nil, s.editorOptions(facade))
	s.swapEditor(sess)
	return sess, nil
}

func (s *Store) swapEditor(next *editor.Session) {
	s.mu.Lock()
	prev := s.active
	s.active = next
	s.mu.Unlock()
	s.closeSession(prev)
}

func (s *Store) closeSession(sess *editor.Session) bool {
	if sess == nil {
		return false
	}
	st := sess.Status()
	discarded := sess.Close()
	if discarded {
		s.log.Warn("editor: unsaved changes discarded", slog.Int("number", st.Number))
	}
	return discarded
}

// CloseEditor closes the active session and reports whether unsaved
// edits were discarded.
func (s *Store) CloseEditor() bool {
	s.mu.Lock()
	prev := s.active
	s.active = nil
	s.mu.Unlock()
	return s.closeSession(prev)
}

// Editor returns the active session, or nil.
func (s *Store) Editor() *editor.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Store) cached(id int64) (*persist.Facade, api.Note, error) {
	_, facade, err := s.remote()
	if err != nil {
		return nil, api.Note{}, err
	}
	n, ok := s.cache.Get(id)
	if !ok {
		return nil, api.Note{}, apperr.ErrNotFound
	}
	return facade, n, nil
}

// DeleteNote permanently deletes a note and closes its editor session.
func (s *Store) DeleteNote(ctx context.Context, id int64) error {
	facade, n, err := s.cached(id)
	if err != nil {
		return err
	}
	if err := facade.Delete(ctx, n); err != nil {
		return err
	}
	s.mu.Lock()
	active := s.active
	if active != nil && active.Status().NoteID == id {
		s.active = nil
	} else {
		active = nil
	}
	s.mu.Unlock()
	if active != nil {
		active.Close()
	}
	return nil
}

// SetNoteState closes or reopens a note.
func (s *Store) SetNoteState(ctx context.Context, id int64, state api.NoteState) (api.Note, error) {
	facade, n, err := s.cached(id)
	if err != nil {
		return api.Note{}, err
	}
	return facade.SetState(ctx, n, state)
}

func (s *Store) Comments(ctx context.Context, id int64) ([]api.Comment, error) {
	facade, n, err := s.cached(id)
	if err != nil {
		return nil, err
	}
	return facade.Comments(ctx, n)
}

func (s *Store) AddComment(ctx context.Context, id int64, body string) (api.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return api.Comment{}, apperr.Validation("add comment", "comment body is required")
	}
	facade, n, err := s.cached(id)
	if err != nil {
		return api.Comment{}, err
	}
	return facade.AddComment(ctx, n, body)
}

func (s *Store) SetTheme(ctx context.Context, theme string) {
	s.prefs.mu.Lock()
	s.prefs.theme = theme
	s.prefs.mu.Unlock()
	s.save(ctx)
}

// ToggleSidebar flips the sidebar and returns the new state.
func (s *Store) ToggleSidebar(ctx context.Context) bool {
	s.prefs.mu.Lock()
	s.prefs.sidebarOpen = !s.prefs.sidebarOpen
	open := s.prefs.sidebarOpen
	s.prefs.mu.Unlock()
	s.save(ctx)
	return open
}

// HandleError classifies err and returns the remedy to offer. An
// authentication failure signs the user out so they can enter a new token.
func (s *Store) HandleError(ctx context.Context, err error) apperr.Remedy {
	if err == nil {
		return apperr.RemedyNone
	}
	kind := apperr.KindOf(err)
	s.log.Debug("store: error", slog.String("kind", kind.String()), slog.Any("err", err))
	if kind == apperr.KindAuth && s.session.Authenticated() {
		s.log.Warn("token rejected, signing out", slog.Any("err", err))
		_ = s.Logout(ctx)
	}
	return apperr.RemedyFor(kind)
}
