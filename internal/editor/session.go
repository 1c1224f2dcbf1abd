// Package editor holds the state of the note being composed: drafts,
// dirty tracking, saving with debounced autosave, view modes, scroll sync,
// text insertion and find/replace.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mithrel/gitnotes/internal/apperr"
	"github.com/mithrel/gitnotes/internal/sched"
	"github.com/mithrel/gitnotes/pkg/api"
)

// DefaultAutosaveDelay is the quiescence delay before an autosave.
const DefaultAutosaveDelay = 30 * time.Second

var (
	ErrSaveInFlight  = errors.New("save already in progress")
	ErrSessionClosed = errors.New("editor session closed")
	errNothingToSave = errors.New("nothing to autosave")
)

// Persister sends a draft to the remote service in exactly one call. A nil
// baseline means the note does not exist yet.
type Persister interface {
	Persist(ctx context.Context, baseline *api.Note, d Draft) (api.Note, error)
}

// SaveState is the position of a session in its save cycle.
type SaveState int

const (
	StateClean SaveState = iota
	StateDirty
	StateSaving
)

func (s SaveState) String() string {
	switch s {
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	default:
		return "clean"
	}
}

type Options struct {
	Persister     Persister
	Clock         sched.Clock
	Logger        *slog.Logger
	AutosaveDelay time.Duration
	// NoAutosave disables autosave for the session.
	NoAutosave bool
	View       ViewMode
	// Context is the parent of autosave requests.
	Context context.Context
	// OnChange runs after every completed save attempt, outside the lock.
	OnChange func()
}

// Session is one open note. It is safe for concurrent use: UI events,
// the autosave timer and network completions may arrive on different
// goroutines. The lock is never held across a remote call.
type Session struct {
	persister Persister
	clock     sched.Clock
	log       *slog.Logger
	ctx       context.Context
	onChange  func()
	autosave  *sched.Debouncer

	mu         sync.Mutex
	baseline   *api.Note
	draft      Draft
	rev        uint64
	saving     bool
	closed     bool
	autosaveOn bool
	lastSaved  time.Time
	view       ViewMode
	fullscreen bool
}

// Open starts a session on an existing note, or on a new one when
// baseline is nil.
func Open(baseline *api.Note, opts Options) *Session {
	s := &Session{
		persister:  opts.Persister,
		clock:      opts.Clock,
		log:        opts.Logger,
		ctx:        opts.Context,
		onChange:   opts.OnChange,
		autosaveOn: !opts.NoAutosave,
		view:       opts.View,
	}
	if s.clock == nil {
		s.clock = sched.RealClock()
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	delay := opts.AutosaveDelay
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	s.autosave = sched.NewDebouncer(s.clock, delay, s.runAutosave)
	if baseline != nil {
		b := baseline.Clone()
		s.baseline = &b
		s.draft = DraftOf(b)
	}
	return s
}

// Status is a point-in-time view of a session for display.
type Status struct {
	NoteID      int64
	Number      int
	State       SaveState
	Dirty       bool
	Saving      bool
	LastSaved   time.Time
	View        ViewMode
	Fullscreen  bool
	Autosave    bool
	AutosaveDue time.Time
	Closed      bool
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		State:       s.stateLocked(),
		Dirty:       s.dirtyLocked(),
		Saving:      s.saving,
		LastSaved:   s.lastSaved,
		View:        s.view,
		Fullscreen:  s.fullscreen,
		Autosave:    s.autosaveOn,
		AutosaveDue: s.autosave.Due(),
		Closed:      s.closed,
	}
	if s.baseline != nil {
		st.NoteID = s.baseline.ID
		st.Number = s.baseline.Number
	}
	return st
}

func (s *Session) State() SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLocked()
}

func (s *Session) stateLocked() SaveState {
	switch {
	case s.saving:
		return StateSaving
	case s.dirtyLocked():
		return StateDirty
	default:
		return StateClean
	}
}

// dirtyLocked compares the draft with the baseline. Without a baseline a
// session is dirty once it has a title or content.
func (s *Session) dirtyLocked() bool {
	if s.baseline == nil {
		return s.draft.Title != "" || s.draft.Content != ""
	}
	return s.draft.Hash() != s.baseline.Hash()
}

// Baseline returns the last saved record, if any.
func (s *Session) Baseline() (api.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baseline == nil {
		return api.Note{}, false
	}
	return s.baseline.Clone(), true
}

// Draft returns a copy of the current draft.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft
	d.Labels = append([]string(nil), s.draft.Labels...)
	return d
}

func (s *Session) Title() string   { return s.Draft().Title }
func (s *Session) Content() string { return s.Draft().Content }
func (s *Session) Labels() []string {
	return s.Draft().Labels
}

// mutate applies fn to the draft and re-arms or cancels autosave.
func (s *Session) mutate(fn func(d *Draft) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if !fn(&s.draft) {
		return false
	}
	s.rev++
	s.scheduleLocked()
	return true
}

func (s *Session) scheduleLocked() {
	if !s.autosaveOn || s.baseline == nil {
		return
	}
	if s.dirtyLocked() {
		s.autosave.Trigger()
	} else {
		s.autosave.Cancel()
	}
}

func (s *Session) SetTitle(title string) {
	s.mutate(func(d *Draft) bool {
		if d.Title == title {
			return false
		}
		d.Title = title
		return true
	})
}

func (s *Session) SetContent(content string) {
	s.mutate(func(d *Draft) bool {
		if d.Content == content {
			return false
		}
		d.Content = content
		return true
	})
}

func (s *Session) SetLabels(labels []string) {
	s.mutate(func(d *Draft) bool {
		d.Labels = append([]string(nil), labels...)
		return true
	})
}

// AddLabel adds a trimmed label unless it is already present.
func (s *Session) AddLabel(name string) bool {
	return s.mutate(func(d *Draft) bool {
		var ok bool
		d.Labels, ok = AddLabel(d.Labels, name)
		return ok
	})
}

func (s *Session) RemoveLabel(name string) bool {
	return s.mutate(func(d *Draft) bool {
		var ok bool
		d.Labels, ok = RemoveLabel(d.Labels, name)
		return ok
	})
}

// SetAutosave turns autosave on or off for this session.
func (s *Session) SetAutosave(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autosaveOn = on
	if !on {
		s.autosave.Cancel()
		return
	}
	s.scheduleLocked()
}

// Save persists the draft. Saving a clean session is a no-op that returns
// the baseline. A blank title is rejected before any network call, and a
// save while another is in flight returns ErrSaveInFlight.
func (s *Session) Save(ctx context.Context) (api.Note, error) {
	return s.save(ctx, false)
}

func (s *Session) runAutosave() {
	_, err := s.save(s.ctx, true)
	switch {
	case err == nil:
		s.log.Debug("autosave: saved")
	case errors.Is(err, errNothingToSave), errors.Is(err, ErrSaveInFlight), errors.Is(err, ErrSessionClosed):
	default:
		s.log.Warn("autosave: failed", slog.String("kind", apperr.KindOf(err).String()), slog.Any("err", err))
	}
}

func (s *Session) save(ctx context.Context, auto bool) (api.Note, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return api.Note{}, ErrSessionClosed
	}
	if s.saving {
		s.mu.Unlock()
		return api.Note{}, ErrSaveInFlight
	}
	draft := s.draft
	draft.Labels = append([]string(nil), s.draft.Labels...)
	draft.Title = strings.TrimSpace(draft.Title)
	dirty := s.dirtyLocked()

	if auto {
		// autosave only updates notes that already exist
		if s.baseline == nil || !dirty {
			s.mu.Unlock()
			return api.Note{}, errNothingToSave
		}
		if draft.Title == "" {
			draft.Title = UntitledTitle
		}
	} else {
		if err := draft.Validate(); err != nil {
			s.mu.Unlock()
			return api.Note{}, apperr.Validation("save note", err.Error())
		}
		if s.baseline != nil && !dirty {
			b := s.baseline.Clone()
			s.mu.Unlock()
			return b, nil
		}
	}

	var baseline *api.Note
	if s.baseline != nil {
		b := s.baseline.Clone()
		baseline = &b
	}
	rev := s.rev
	s.saving = true
	s.autosave.Cancel()
	s.mu.Unlock()

	saved, err := s.persister.Persist(ctx, baseline, draft)

	s.mu.Lock()
	s.saving = false
	if s.closed {
		s.mu.Unlock()
		return saved, ErrSessionClosed
	}
	if err != nil {
		s.mu.Unlock()
		s.notify()
		return api.Note{}, err
	}
	if baseline != nil && saved.ID != baseline.ID {
		s.mu.Unlock()
		return api.Note{}, fmt.Errorf("save note: remote returned note %d for %d", saved.ID, baseline.ID)
	}
	b := saved.Clone()
	s.baseline = &b
	s.lastSaved = s.clock.Now()
	if s.rev == rev {
		s.draft = DraftOf(b)
	} else {
		// edits made while saving stay in the draft
		s.scheduleLocked()
	}
	s.mu.Unlock()
	s.notify()
	return saved.Clone(), nil
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Close discards the session. A pending autosave is cancelled and the
// result of a save still in flight is ignored. It reports whether unsaved
// edits were dropped.
func (s *Session) Close() (discarded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	s.autosave.Cancel()
	return s.dirtyLocked()
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
