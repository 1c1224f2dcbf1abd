package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/gitnotes/internal/apperr"
	"github.com/mithrel/gitnotes/internal/sched"
	"github.com/mithrel/gitnotes/pkg/api"
)

type persistCall struct {
	baseline *api.Note
	draft    Draft
}

type fakePersister struct {
	mu      sync.Mutex
	calls   []persistCall
	nextID  int64
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func newFakePersister() *fakePersister { return &fakePersister{nextID: 12345} }

func (p *fakePersister) Persist(ctx context.Context, baseline *api.Note, d Draft) (api.Note, error) {
	p.mu.Lock()
	p.calls = append(p.calls, persistCall{baseline: baseline, draft: d})
	gate, entered, err := p.gate, p.entered, p.err
	p.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return api.Note{}, err
	}
	n := api.Note{Title: d.Title, Content: d.Content, Labels: d.Labels, State: api.StateOpen}
	if baseline == nil {
		p.mu.Lock()
		n.ID = p.nextID
		n.Number = 1
		p.nextID++
		p.mu.Unlock()
	} else {
		n.ID = baseline.ID
		n.Number = baseline.Number
	}
	return n, nil
}

func (p *fakePersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *fakePersister) call(i int) persistCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[i]
}

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func existing() *api.Note {
	return &api.Note{ID: 7, Number: 3, Title: "Groceries", Content: "milk", Labels: []string{"home"}, State: api.StateOpen}
}

func TestSaveCleanMakesNoCall(t *testing.T) {
	p := newFakePersister()
	s := Open(existing(), Options{Persister: p, Clock: sched.NewFakeClock(epoch)})

	got, err := s.Save(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(7), got.ID)
	require.Equal(t, 0, p.count())
	require.Equal(t, StateClean, s.State())
}

func TestDirtyTracking(t *testing.T) {
	s := Open(existing(), Options{Persister: newFakePersister(), NoAutosave: true})
	require.False(t, s.Dirty())

	s.SetContent("milk and eggs")
	require.True(t, s.Dirty())
	s.SetContent("milk")
	require.False(t, s.Dirty(), "reverting the edit makes the session clean")

	s.SetLabels([]string{"HOME"})
	require.False(t, s.Dirty(), "labels compare case-insensitively")
	require.False(t, s.AddLabel(" home "))
	require.True(t, s.AddLabel("errands"))
	require.True(t, s.Dirty())
	require.True(t, s.RemoveLabel("ERRANDS"))
	require.False(t, s.Dirty())

	nul := Open(&api.Note{ID: 8, Number: 4, Title: "a", Content: "b\x00"}, Options{Persister: newFakePersister(), NoAutosave: true})
	require.False(t, nul.Dirty())
	nul.SetTitle("a\x00b")
	nul.SetContent("")
	require.True(t, nul.Dirty(), "moving bytes across the title/content boundary is an edit")
}

func TestNewSessionDirtyOnceTyped(t *testing.T) {
	s := Open(nil, Options{Persister: newFakePersister()})
	require.False(t, s.Dirty())
	s.SetContent("x")
	require.True(t, s.Dirty())
}

func TestManualSaveRejectsBlankTitle(t *testing.T) {
	p := newFakePersister()
	s := Open(nil, Options{Persister: p})
	s.SetContent("body only")
	s.SetTitle("   ")

	_, err := s.Save(context.Background())
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	require.Contains(t, err.Error(), "title is required")
	require.Equal(t, 0, p.count())
	require.True(t, s.Dirty())
}

func TestFirstSaveCreatesThenUpdates(t *testing.T) {
	p := newFakePersister()
	s := Open(nil, Options{Persister: p, NoAutosave: true})
	s.SetTitle("  Plan  ")
	s.SetContent("step one")

	n, err := s.Save(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(12345), n.ID)
	require.Equal(t, 1, p.count())
	require.Nil(t, p.call(0).baseline)
	require.Equal(t, "Plan", p.call(0).draft.Title)
	require.Equal(t, StateClean, s.State())

	s.SetContent("step two")
	n, err = s.Save(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(12345), n.ID)
	require.Equal(t, 2, p.count())
	require.NotNil(t, p.call(1).baseline)
	require.Equal(t, int64(12345), p.call(1).baseline.ID)

	st := s.Status()
	assert.Equal(t, int64(12345), st.NoteID)
	assert.False(t, st.Dirty)
}

func TestAutosaveDebounce(t *testing.T) {
	clock := sched.NewFakeClock(epoch)
	p := newFakePersister()
	s := Open(existing(), Options{Persister: p, Clock: clock})

	for i := 0; i < 4; i++ {
		s.SetContent("milk " + string(rune('a'+i)))
		clock.Advance(5 * time.Second)
	}
	// last edit at t=15s, so the save is due at t=45s
	require.Equal(t, epoch.Add(45*time.Second), s.Status().AutosaveDue)
	clock.Advance(24 * time.Second) // t=44
	require.Equal(t, 0, p.count())

	clock.Advance(time.Second) // t=45
	require.Equal(t, 1, p.count())
	require.Equal(t, "milk d", p.call(0).draft.Content)
	require.False(t, s.Dirty())
	require.Equal(t, epoch.Add(45*time.Second), s.Status().LastSaved)

	clock.Advance(time.Minute)
	require.Equal(t, 1, p.count())
}

func TestAutosaveSkipsNewNotes(t *testing.T) {
	clock := sched.NewFakeClock(epoch)
	p := newFakePersister()
	s := Open(nil, Options{Persister: p, Clock: clock})
	s.SetTitle("draft")
	clock.Advance(time.Minute)
	require.Equal(t, 0, p.count())
	require.Equal(t, 0, clock.Pending())
}

func TestAutosaveUsesUntitledForBlankTitle(t *testing.T) {
	clock := sched.NewFakeClock(epoch)
	p := newFakePersister()
	s := Open(existing(), Options{Persister: p, Clock: clock})
	s.SetTitle("")
	clock.Advance(DefaultAutosaveDelay)
	require.Equal(t, 1, p.count())
	require.Equal(t, UntitledTitle, p.call(0).draft.Title)
}

func TestAutosaveCancelledWhenClean(t *testing.T) {
	clock := sched.NewFakeClock(epoch)
	p := newFakePersister()
	s := Open(existing(), Options{Persister: p, Clock: clock})
	s.SetContent("oat milk")
	s.SetContent("milk")
	require.True(t, s.Status().AutosaveDue.IsZero())
	clock.Advance(time.Minute)
	require.Equal(t, 0, p.count())
}

func TestAutosaveDisabled(t *testing.T) {
	clock := sched.NewFakeClock(epoch)
	p := newFakePersister()
	s := Open(existing(), Options{Persister: p, Clock: clock, NoAutosave: true})
	s.SetContent("oat milk")
	clock.Advance(time.Minute)
	require.Equal(t, 0, p.count())

	s.SetAutosave(true)
	clock.Advance(DefaultAutosaveDelay)
	require.Equal(t, 1, p.count())
}

func TestAutosaveFailureKeepsDirty(t *testing.T) {
	clock := sched.NewFakeClock(epoch)
	p := newFakePersister()
	p.err = apperr.New(apperr.KindTransport, "update issue", errors.New("connection refused"))
	s := Open(existing(), Options{Persister: p, Clock: clock})
	s.SetContent("oat milk")
	clock.Advance(DefaultAutosaveDelay)
	require.Equal(t, 1, p.count())
	require.True(t, s.Dirty())
	require.Equal(t, StateDirty, s.State())

	clock.Advance(time.Hour)
	require.Equal(t, 1, p.count(), "a failed autosave is not retried until the next edit")
}

func TestConcurrentSaveRejected(t *testing.T) {
	p := newFakePersister()
	p.gate = make(chan struct{})
	p.entered = make(chan struct{}, 1)
	s := Open(existing(), Options{Persister: p, NoAutosave: true})
	s.SetContent("oat milk")

	done := make(chan error, 1)
	go func() {
		_, err := s.Save(context.Background())
		done <- err
	}()
	<-p.entered
	require.Equal(t, StateSaving, s.State())

	_, err := s.Save(context.Background())
	require.ErrorIs(t, err, ErrSaveInFlight)

	close(p.gate)
	require.NoError(t, <-done)
	require.Equal(t, 1, p.count())
	require.Equal(t, StateClean, s.State())
}

func TestEditsDuringSaveStayDirty(t *testing.T) {
	p := newFakePersister()
	p.gate = make(chan struct{})
	p.entered = make(chan struct{}, 1)
	s := Open(existing(), Options{Persister: p, NoAutosave: true})
	s.SetContent("oat milk")

	done := make(chan error, 1)
	go func() {
		_, err := s.Save(context.Background())
		done <- err
	}()
	<-p.entered
	s.SetContent("oat milk, bread")
	close(p.gate)
	require.NoError(t, <-done)

	require.Equal(t, "oat milk, bread", s.Content())
	require.True(t, s.Dirty())
	b, ok := s.Baseline()
	require.True(t, ok)
	require.Equal(t, "oat milk", b.Content)
}

func TestCloseIgnoresLateCompletion(t *testing.T) {
	p := newFakePersister()
	p.gate = make(chan struct{})
	p.entered = make(chan struct{}, 1)
	changes := 0
	s := Open(existing(), Options{Persister: p, NoAutosave: true, OnChange: func() { changes++ }})
	s.SetContent("oat milk")

	done := make(chan error, 1)
	go func() {
		_, err := s.Save(context.Background())
		done <- err
	}()
	<-p.entered
	require.True(t, s.Close())
	close(p.gate)
	require.ErrorIs(t, <-done, ErrSessionClosed)

	b, _ := s.Baseline()
	require.Equal(t, "milk", b.Content, "late result is not applied")
	require.Equal(t, 0, changes)

	s.SetContent("ignored")
	require.Equal(t, "oat milk", s.Content())
	_, err := s.Save(context.Background())
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestCloseCancelsAutosave(t *testing.T) {
	clock := sched.NewFakeClock(epoch)
	p := newFakePersister()
	s := Open(existing(), Options{Persister: p, Clock: clock})
	s.SetContent("oat milk")
	require.True(t, s.Close())
	clock.Advance(time.Minute)
	require.Equal(t, 0, p.count())
	require.False(t, s.Close())
}

func TestViewModes(t *testing.T) {
	s := Open(nil, Options{Persister: newFakePersister(), View: ViewSplit})
	require.Equal(t, ViewSplit, s.View())
	require.Equal(t, ViewPreview, s.CycleView())
	require.Equal(t, ViewEdit, s.CycleView())
	require.True(t, s.ToggleFullscreen())

	v, err := ParseViewMode("Preview")
	require.NoError(t, err)
	require.Equal(t, ViewPreview, v)
	_, err = ParseViewMode("sideways")
	require.Error(t, err)
	require.True(t, ViewSplit.ShowsEditor() && ViewSplit.ShowsPreview())
	require.False(t, ViewEdit.ShowsPreview())
}

func TestDraftValidate(t *testing.T) {
	require.NoError(t, Draft{Title: "ok"}.Validate())
	require.Error(t, Draft{Title: " "}.Validate())
	long := make([]rune, 257)
	for i := range long {
		long[i] = 'a'
	}
	require.Error(t, Draft{Title: string(long)}.Validate())
	require.Error(t, Draft{Title: "ok", Labels: []string{""}}.Validate())
}
