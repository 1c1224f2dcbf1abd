package notes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/gitnotes/pkg/api"
)

func fixed(ns ...api.Note) Fetcher {
	return func(context.Context) ([]api.Note, bool, error) { return ns, false, nil }
}

func TestReloadReplacesWholesale(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()

	applied, err := c.Reload(ctx, fixed(api.Note{ID: 1, Title: "a"}, api.Note{ID: 2, Title: "b"}))
	require.NoError(t, err)
	require.True(t, applied)
	require.True(t, c.Loaded())
	require.Equal(t, 2, c.Len())

	applied, err = c.Reload(ctx, fixed(api.Note{ID: 3, Title: "c"}))
	require.NoError(t, err)
	require.True(t, applied)
	all := c.All()
	require.Len(t, all, 1)
	require.Equal(t, int64(3), all[0].ID)
}

func TestReloadErrorLeavesCacheUnchanged(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()
	_, err := c.Reload(ctx, fixed(api.Note{ID: 1}))
	require.NoError(t, err)

	boom := errors.New("github: 401 unauthorized: Bad credentials")
	applied, err := c.Reload(ctx, func(context.Context) ([]api.Note, bool, error) { return nil, false, boom })
	require.ErrorIs(t, err, boom)
	require.False(t, applied)
	require.Equal(t, 1, c.Len())
}

func TestStaleReloadIsDiscarded(t *testing.T) {
	c := NewCache(nil)

	slow := c.Begin()
	fast := c.Begin()

	require.True(t, c.Commit(fast, []api.Note{{ID: 2, Title: "fresh"}}, false))
	require.False(t, c.Commit(slow, []api.Note{{ID: 1, Title: "stale"}}, false))

	all := c.All()
	require.Len(t, all, 1)
	require.Equal(t, "fresh", all[0].Title)
}

func TestInvalidateVoidsInflightReload(t *testing.T) {
	c := NewCache(nil)
	gen := c.Begin()
	c.Invalidate()
	require.False(t, c.Commit(gen, []api.Note{{ID: 1}}, false))
	require.False(t, c.Loaded())
	require.Zero(t, c.Len())
}

func TestTruncatedFlag(t *testing.T) {
	c := NewCache(nil)
	_, err := c.Reload(context.Background(), func(context.Context) ([]api.Note, bool, error) {
		return []api.Note{{ID: 1}}, true, nil
	})
	require.NoError(t, err)
	require.True(t, c.Truncated())
	c.Invalidate()
	require.False(t, c.Truncated())
}

func TestInsertUpdateRemove(t *testing.T) {
	c := NewCache(nil)
	c.Commit(c.Begin(), []api.Note{{ID: 1, Title: "old"}}, false)

	c.Insert(api.Note{ID: 2, Number: 7, Title: "new", Labels: []string{"x"}})
	all := c.All()
	require.Len(t, all, 2)
	require.Equal(t, int64(2), all[1].ID, "new notes are appended")

	title := "renamed"
	now := time.Now()
	require.True(t, c.ApplyUpdate(2, api.Patch{Title: &title, UpdatedAt: &now}))
	got, ok := c.GetByNumber(7)
	require.True(t, ok)
	require.Equal(t, "renamed", got.Title)
	require.Equal(t, []string{"x"}, got.Labels)

	require.False(t, c.ApplyUpdate(99, api.Patch{Title: &title}))

	require.True(t, c.Remove(1))
	require.False(t, c.Remove(1))
	_, ok = c.Get(1)
	require.False(t, ok)
	require.Equal(t, 1, c.Len())
}

func TestEpochGuardsWrites(t *testing.T) {
	c := NewCache(nil)
	c.Commit(c.Begin(), []api.Note{{ID: 1, Title: "a"}}, false)
	epoch := c.Epoch()

	c.Commit(c.Begin(), []api.Note{{ID: 1, Title: "a"}}, false)
	require.Equal(t, epoch, c.Epoch(), "a reload keeps the epoch")
	require.True(t, c.InsertIf(epoch, api.Note{ID: 2, Title: "b"}))

	c.Invalidate()
	require.NotEqual(t, epoch, c.Epoch())
	c.Commit(c.Begin(), []api.Note{{ID: 1, Title: "other repo"}}, false)

	title := "late"
	require.False(t, c.InsertIf(epoch, api.Note{ID: 3, Title: "late"}))
	require.False(t, c.ApplyUpdateIf(epoch, 1, api.Patch{Title: &title}))
	require.False(t, c.RemoveIf(epoch, 1))
	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "other repo", got.Title)
	assert.Equal(t, 1, c.Len())

	require.True(t, c.ApplyUpdateIf(c.Epoch(), 1, api.Patch{Title: &title}))
}

func TestReadsAreCopies(t *testing.T) {
	c := NewCache(nil)
	c.Insert(api.Note{ID: 1, Labels: []string{"a"}})
	n, _ := c.Get(1)
	n.Labels[0] = "mutated"
	all := c.All()
	all[0].Title = "mutated"

	again, _ := c.Get(1)
	assert.Equal(t, []string{"a"}, again.Labels)
	assert.Equal(t, "", again.Title)
}
