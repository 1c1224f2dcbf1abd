package notes

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mithrel/gitnotes/pkg/api"
)

// StateFilter narrows notes by issue state.
type StateFilter string

const (
	StateAll    StateFilter = "all"
	StateOpen   StateFilter = "open"
	StateClosed StateFilter = "closed"
)

// ParseStateFilter accepts all, open or closed; empty means all.
func ParseStateFilter(s string) (StateFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return StateAll, nil
	case "open":
		return StateOpen, nil
	case "closed":
		return StateClosed, nil
	default:
		return "", fmt.Errorf("invalid state %q: want all, open or closed", s)
	}
}

// Criteria selects notes. Every set field must match.
type Criteria struct {
	Query  string
	State  StateFilter
	Since  time.Time
	Labels []string
}

// Match reports whether n satisfies every criterion.
func (c Criteria) Match(n api.Note) bool {
	return matchState(n, c.State) && matchQuery(n, c.Query) && matchSince(n, c.Since) && matchLabels(n, c.Labels)
}

// Filter returns the notes that match crit, in their original order.
func Filter(in []api.Note, crit Criteria) []api.Note {
	out := make([]api.Note, 0, len(in))
	for _, n := range in {
		if crit.Match(n) {
			out = append(out, n.Clone())
		}
	}
	return out
}

// matchQuery is a case-insensitive substring test over title, body and
// label names.
func matchQuery(n api.Note, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
		return true
	}
	for _, l := range n.Labels {
		if strings.Contains(strings.ToLower(l), q) {
			return true
		}
	}
	return false
}

func matchState(n api.Note, s StateFilter) bool {
	switch s {
	case StateOpen:
		return n.State == api.StateOpen
	case StateClosed:
		return n.State == api.StateClosed
	default:
		return true
	}
}

func matchSince(n api.Note, since time.Time) bool {
	return since.IsZero() || !n.UpdatedAt.Before(since)
}

func matchLabels(n api.Note, want []string) bool {
	for _, w := range want {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		found := false
		for _, l := range n.Labels {
			if strings.EqualFold(l, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SortKey orders note lists.
type SortKey string

const (
	SortUpdated SortKey = "updated"
	SortCreated SortKey = "created"
	SortTitle   SortKey = "title"
)

func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "updated":
		return SortUpdated, nil
	case "created":
		return SortCreated, nil
	case "title":
		return SortTitle, nil
	default:
		return "", fmt.Errorf("invalid sort %q: want updated, created or title", s)
	}
}

// Sort orders notes in place: newest first for timestamps, A-Z for titles.
func Sort(ns []api.Note, key SortKey) {
	sort.SliceStable(ns, func(i, j int) bool {
		switch key {
		case SortCreated:
			return ns[i].CreatedAt.After(ns[j].CreatedAt)
		case SortTitle:
			return strings.ToLower(ns[i].Title) < strings.ToLower(ns[j].Title)
		default:
			return ns[i].UpdatedAt.After(ns[j].UpdatedAt)
		}
	})
}
