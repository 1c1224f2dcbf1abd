package github

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/mithrel/gitnotes/pkg/api"
)

// Authenticate validates the token by fetching the user it belongs to.
func (c *Client) Authenticate(ctx context.Context) (api.User, error) {
	var u userJSON
	if _, err := c.doJSON(ctx, "authenticate", http.MethodGet, "/user", nil, &u); err != nil {
		return api.User{}, err
	}
	return u.toAPI(), nil
}

// ListRepositories returns the repositories visible to the user, most
// recently updated first. Only the first page is fetched.
func (c *Client) ListRepositories(ctx context.Context) ([]api.Repository, error) {
	var raw []repoJSON
	path := fmt.Sprintf("/user/repos?sort=updated&direction=desc&per_page=%d", c.pageSize)
	if _, err := c.doJSON(ctx, "list repositories", http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]api.Repository, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toAPI())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}
