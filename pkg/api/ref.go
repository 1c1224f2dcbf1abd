package api

import (
	"fmt"
	"strings"
)

// RepoRef names a repository by owner and name.
type RepoRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

func (r RepoRef) String() string {
	if r.IsZero() {
		return ""
	}
	return r.Owner + "/" + r.Name
}

func (r RepoRef) IsZero() bool { return r.Owner == "" && r.Name == "" }

// ParseRepoRef parses "owner/name". A full GitHub URL is accepted too.
func ParseRepoRef(s string) (RepoRef, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".git")
	for _, prefix := range []string{"https://github.com/", "http://github.com/", "github.com/"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.Trim(s, "/")
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return RepoRef{}, fmt.Errorf("invalid repository %q: want owner/name", s)
	}
	return RepoRef{Owner: owner, Name: name}, nil
}
