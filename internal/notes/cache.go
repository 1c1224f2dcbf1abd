// Package notes holds the in-memory collection of notes for the selected
// repository.
package notes

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/mithrel/gitnotes/pkg/api"
)

// Fetcher loads every note of the selected repository. more reports that
// the remote had records beyond the single page it returned.
type Fetcher func(ctx context.Context) (notes []api.Note, more bool, err error)

// Cache mirrors the issues of one repository, ordered as fetched.
//
// Overlapping reloads are resolved by ticket: each reload takes the next
// generation and only the most recently issued generation may commit.
// Writes that follow a remote call are tied to an epoch instead, which
// only Invalidate advances: a reload of the same repository keeps them,
// a switch to another repository drops them.
type Cache struct {
	mu        sync.RWMutex
	notes     []api.Note
	loaded    bool
	truncated bool
	issued    uint64
	epoch     uint64
	log       *slog.Logger
}

func NewCache(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{log: logger}
}

// Begin issues a new reload ticket and returns it.
func (c *Cache) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.issued
}

// Commit replaces the contents with notes if gen is still the latest
// issued ticket. It reports whether the notes were applied.
func (c *Cache) Commit(gen uint64, notes []api.Note, truncated bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.issued {
		c.log.Debug("cache: stale reload dropped", slog.Uint64("gen", gen), slog.Uint64("latest", c.issued))
		return false
	}
	c.notes = cloneAll(notes)
	c.loaded = true
	c.truncated = truncated
	return true
}

// Reload fetches and replaces the cache. On error the cache is untouched.
// A response overtaken by a newer Reload or Invalidate is discarded and
// reported as applied=false.
func (c *Cache) Reload(ctx context.Context, fetch Fetcher) (applied bool, err error) {
	gen := c.Begin()
	notes, more, err := fetch(ctx)
	if err != nil {
		return false, err
	}
	return c.Commit(gen, notes, more), nil
}

// Invalidate empties the cache and voids every reload in flight.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	c.epoch++
	c.notes = nil
	c.loaded = false
	c.truncated = false
}

// Loaded reports whether a reload has been committed since the last Invalidate.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Truncated reports that the last reload hit the page limit.
func (c *Cache) Truncated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.truncated
}

// Epoch identifies the repository the cache currently mirrors.
func (c *Cache) Epoch() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

func (c *Cache) stale(epoch uint64, op string) bool {
	if epoch == c.epoch {
		return false
	}
	c.log.Debug("cache: stale write dropped", slog.String("op", op), slog.Uint64("epoch", epoch), slog.Uint64("latest", c.epoch))
	return true
}

// Insert appends a newly created note, or replaces the cached copy with
// the same id.
func (c *Cache) Insert(n api.Note) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insertLocked(n)
}

// InsertIf inserts n unless the cache was invalidated after epoch.
func (c *Cache) InsertIf(epoch uint64, n api.Note) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stale(epoch, "insert") {
		return false
	}
	c.insertLocked(n)
	return true
}

func (c *Cache) insertLocked(n api.Note) {
	for i := range c.notes {
		if c.notes[i].ID == n.ID {
			c.notes[i] = n.Clone()
			return
		}
	}
	c.notes = append(c.notes, n.Clone())
}

// ApplyUpdate merges p into the note with the given id. Unknown ids are ignored.
func (c *Cache) ApplyUpdate(id int64, p api.Patch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(id, p)
}

// ApplyUpdateIf is ApplyUpdate guarded by epoch.
func (c *Cache) ApplyUpdateIf(epoch uint64, id int64, p api.Patch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stale(epoch, "update") {
		return false
	}
	return c.applyLocked(id, p)
}

func (c *Cache) applyLocked(id int64, p api.Patch) bool {
	for i := range c.notes {
		if c.notes[i].ID == id {
			p.Apply(&c.notes[i])
			return true
		}
	}
	c.log.Debug("cache: update for unknown note", slog.Int64("id", id))
	return false
}

// Remove deletes the note with the given id.
func (c *Cache) Remove(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(id)
}

// RemoveIf is Remove guarded by epoch.
func (c *Cache) RemoveIf(epoch uint64, id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stale(epoch, "remove") {
		return false
	}
	return c.removeLocked(id)
}

func (c *Cache) removeLocked(id int64) bool {
	for i := range c.notes {
		if c.notes[i].ID == id {
			c.notes = append(c.notes[:i], c.notes[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cache) Get(id int64) (api.Note, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, n := range c.notes {
		if n.ID == id {
			return n.Clone(), true
		}
	}
	return api.Note{}, false
}

func (c *Cache) GetByNumber(number int) (api.Note, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, n := range c.notes {
		if n.Number == number {
			return n.Clone(), true
		}
	}
	return api.Note{}, false
}

// All returns a copy of every cached note.
func (c *Cache) All() []api.Note {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAll(c.notes)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.notes)
}

// Filter returns the notes matching crit. The cache is not modified.
func (c *Cache) Filter(crit Criteria) []api.Note {
	return Filter(c.All(), crit)
}

func cloneAll(in []api.Note) []api.Note {
	out := make([]api.Note, len(in))
	for i, n := range in {
		out[i] = n.Clone()
	}
	return out
}
