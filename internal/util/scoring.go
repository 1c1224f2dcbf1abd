package util

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/mithrel/gitnotes/pkg/api"
)

// ScoreCompletions returns the top N matches for the input string from the candidates list.
func ScoreCompletions(input string, candidates []string, n int) []string {
	if input == "" {
		return limit(candidates, n)
	}
	matches := fuzzy.Find(input, candidates)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return limit(out, n)
}

func limit(in []string, n int) []string {
	if n <= 0 || len(in) <= n {
		return in
	}
	return in[:n]
}

type repoSource []api.Repository

func (r repoSource) String(i int) string { return r[i].FullName }
func (r repoSource) Len() int            { return len(r) }

// RankRepositories fuzzy-matches query against owner/name and returns the
// best matches first. An empty query keeps the input order.
func RankRepositories(query string, repos []api.Repository) []api.Repository {
	query = strings.TrimSpace(query)
	if query == "" {
		return repos
	}
	matches := fuzzy.FindFrom(query, repoSource(repos))
	out := make([]api.Repository, 0, len(matches))
	for _, m := range matches {
		out = append(out, repos[m.Index])
	}
	return out
}
