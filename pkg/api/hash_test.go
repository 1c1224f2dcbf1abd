package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNote_Hash(t *testing.T) {
	base := Note{
		ID:        7,
		Number:    3,
		Title:     "My Note",
		Content:   "Hello world",
		Labels:    []string{"work", "important"},
		State:     StateOpen,
		CreatedAt: time.Now().UTC(),
	}

	t.Run("identical notes produce identical hashes", func(t *testing.T) {
		assert.Equal(t, base.Hash(), base.Clone().Hash())
	})

	t.Run("label order is irrelevant", func(t *testing.T) {
		n := base.Clone()
		n.Labels = []string{"important", "work"}
		assert.Equal(t, base.Hash(), n.Hash())
	})

	t.Run("label case and duplicates are folded", func(t *testing.T) {
		n := base.Clone()
		n.Labels = []string{"Work", " important", "work"}
		assert.Equal(t, base.Hash(), n.Hash())
	})

	t.Run("identity and timestamps are ignored", func(t *testing.T) {
		n := base.Clone()
		n.ID = 99
		n.State = StateClosed
		n.UpdatedAt = time.Now().Add(time.Hour)
		assert.Equal(t, base.Hash(), n.Hash())
	})

	t.Run("content changes alter the hash", func(t *testing.T) {
		n := base.Clone()
		n.Content = "Hello world!"
		assert.NotEqual(t, base.Hash(), n.Hash())

		n = base.Clone()
		n.Labels = append(n.Labels, "extra")
		assert.NotEqual(t, base.Hash(), n.Hash())
	})

	t.Run("field boundaries are delimited", func(t *testing.T) {
		a := ContentHash("ab", "c", nil)
		b := ContentHash("a", "bc", nil)
		assert.NotEqual(t, a, b)

		assert.NotEqual(t, ContentHash("a", "b\x00", nil), ContentHash("a\x00b", "", nil))
		assert.NotEqual(t, ContentHash("a", "", []string{"x"}), ContentHash("a", "\x00x", nil))
	})
}

func TestPatchApply(t *testing.T) {
	n := Note{ID: 1, Title: "a", Content: "b", Labels: []string{"x"}, State: StateOpen}
	title := "new"
	closed := StateClosed
	Patch{Title: &title, State: &closed}.Apply(&n)
	assert.Equal(t, "new", n.Title)
	assert.Equal(t, "b", n.Content)
	assert.Equal(t, []string{"x"}, n.Labels)
	assert.Equal(t, StateClosed, n.State)

	Patch{SetLabels: true}.Apply(&n)
	assert.Empty(t, n.Labels)
}

func TestParseRepoRef(t *testing.T) {
	tests := []struct {
		in      string
		want    RepoRef
		wantErr bool
	}{
		{in: "octo/notes", want: RepoRef{Owner: "octo", Name: "notes"}},
		{in: " https://github.com/octo/notes.git ", want: RepoRef{Owner: "octo", Name: "notes"}},
		{in: "github.com/octo/notes/", want: RepoRef{Owner: "octo", Name: "notes"}},
		{in: "octo", wantErr: true},
		{in: "/notes", wantErr: true},
		{in: "a/b/c", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseRepoRef(tc.in)
		if tc.wantErr {
			require.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, "octo/notes", got.String())
	}
}
