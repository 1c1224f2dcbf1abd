package store

import (
	"context"
	"errors"

	"github.com/mithrel/gitnotes/internal/db"
	"github.com/mithrel/gitnotes/pkg/api"
)

// SnapshotKey is the state-database key of the persisted snapshot.
const SnapshotKey = "store.snapshot"

// Snapshot is the part of the store that survives restarts. Notes and
// editor sessions are not included; they are fetched again.
type Snapshot struct {
	IsAuthenticated bool         `json:"isAuthenticated"`
	Token           string       `json:"token,omitempty"`
	User            *api.User    `json:"user,omitempty"`
	SelectedRepo    *api.RepoRef `json:"selectedRepo,omitempty"`
	Theme           string       `json:"theme"`
	SidebarOpen     bool         `json:"sidebarOpen"`
}

func loadSnapshot(ctx context.Context, st db.Store) (Snapshot, bool, error) {
	var snap Snapshot
	if err := st.Get(ctx, SnapshotKey, &snap); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

func (s *Store) snapshot() Snapshot {
	snap := Snapshot{
		IsAuthenticated: s.session.Authenticated(),
		Theme:           s.prefs.Theme(),
		SidebarOpen:     s.prefs.SidebarOpen(),
	}
	if snap.IsAuthenticated {
		u := s.session.User()
		snap.User = &u
		if s.tokens == nil {
			snap.Token = s.session.Token()
		}
	}
	if ref := s.selection.Get(); !ref.IsZero() {
		snap.SelectedRepo = &ref
	}
	return snap
}

// Snapshot returns what would be persisted now.
func (s *Store) Snapshot() Snapshot { return s.snapshot() }

// commit runs tokenOp and writes the snapshot in one state transaction.
// A token store backed by the state database joins the transaction, so
// the token and the snapshot never disagree after a crash.
func (s *Store) commit(ctx context.Context, tokenOp func(ctx context.Context) error) error {
	if s.state == nil {
		return tokenOp(ctx)
	}
	return s.state.Update(ctx, func(ctx context.Context) error {
		if err := tokenOp(ctx); err != nil {
			return err
		}
		return s.state.Put(ctx, SnapshotKey, s.snapshot())
	})
}

func (s *Store) save(ctx context.Context) {
	if s.state == nil {
		return
	}
	if err := s.state.Put(ctx, SnapshotKey, s.snapshot()); err != nil {
		s.log.Warn("store: snapshot not saved", "err", err)
	}
}
