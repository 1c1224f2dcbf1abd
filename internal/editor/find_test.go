package editor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFinderOptions(t *testing.T) {
	text := "Go go gopher GO"
	cases := []struct {
		name  string
		query string
		opts  FindOptions
		want  int
	}{
		{"insensitive", "go", FindOptions{}, 4},
		{"sensitive", "go", FindOptions{CaseSensitive: true}, 2},
		{"whole word", "go", FindOptions{WholeWord: true}, 3},
		{"regex", "g.p", FindOptions{Regex: true}, 1},
		{"literal dot", "g.p", FindOptions{}, 0},
		{"empty", "", FindOptions{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var f Finder
			require.NoError(t, f.Search(text, tc.query, tc.opts))
			require.Equal(t, tc.want, f.Count())
		})
	}
}

func TestFinderInvalidRegex(t *testing.T) {
	var f Finder
	require.Error(t, f.Search("abc", "(", FindOptions{Regex: true}))
	require.Equal(t, 0, f.Count())
	_, ok := f.Current()
	require.False(t, ok)
}

func TestFinderNavigationWraps(t *testing.T) {
	var f Finder
	require.NoError(t, f.Search("a b a b a", "a", FindOptions{}))
	m, ok := f.Current()
	require.True(t, ok)
	require.Equal(t, Match{0, 1}, m)

	m, _ = f.Next()
	require.Equal(t, Match{4, 5}, m)
	m, _ = f.Next()
	require.Equal(t, Match{8, 9}, m)
	m, _ = f.Next()
	require.Equal(t, Match{0, 1}, m)
	m, _ = f.Prev()
	require.Equal(t, Match{8, 9}, m)

	m, _ = f.Nearest(5)
	require.Equal(t, Match{8, 9}, m)
}

func TestFinderRuneOffsets(t *testing.T) {
	var f Finder
	require.NoError(t, f.Search("ünïcode café", "café", FindOptions{}))
	m, ok := f.Current()
	require.True(t, ok)
	require.Equal(t, Match{8, 12}, m)
}

func TestReplace(t *testing.T) {
	var f Finder
	require.NoError(t, f.Search("cat hat cat", "cat", FindOptions{}))
	text, ok := f.ReplaceCurrent("dog")
	require.True(t, ok)
	require.Equal(t, "dog hat cat", text)
	require.Equal(t, 1, f.Count())

	text, n := f.ReplaceAll("$1")
	require.Equal(t, 1, n)
	require.Equal(t, "dog hat $1", text, "literal replacement outside regex mode")

	require.NoError(t, f.Search("2024-01-05", `(\d+)-(\d+)-(\d+)`, FindOptions{Regex: true}))
	text, n = f.ReplaceAll("$3/$2/$1")
	require.Equal(t, 1, n)
	require.Equal(t, "05/01/2024", text)
}

func TestReplaceAllCountsEmptyMatches(t *testing.T) {
	var f Finder
	require.NoError(t, f.Search("axb", "x*", FindOptions{Regex: true}))
	require.Equal(t, 1, f.Count(), "empty matches are not navigable")
	text, n := f.ReplaceAll("Y")
	require.Equal(t, "YaYbY", text)
	require.Equal(t, 3, n)

	require.NoError(t, f.Search("ab", "x*", FindOptions{Regex: true}))
	require.Equal(t, 0, f.Count())
	text, n = f.ReplaceAll("Y")
	require.Equal(t, "YaYbY", text)
	require.Equal(t, 3, n)
}

func TestSessionReplaceAll(t *testing.T) {
	s := Open(existing(), Options{Persister: newFakePersister(), NoAutosave: true})
	n, err := s.ReplaceAll("MILK", "cream", FindOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "cream", s.Content())
	require.True(t, s.Dirty())

	_, err = s.ReplaceAll("(", "x", FindOptions{Regex: true})
	require.Error(t, err)
	require.Equal(t, "cream", s.Content())

	f, err := s.Find("cream", FindOptions{})
	require.NoError(t, err)
	require.True(t, s.ReplaceMatch(f, "milk"))
	require.False(t, s.Dirty())
}
