package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mithrel/gitnotes/internal/apperr"
	"github.com/mithrel/gitnotes/pkg/api"
)

func (c *Client) ListComments(ctx context.Context, ref api.RepoRef, number int) ([]api.Comment, error) {
	var raw []commentJSON
	path := fmt.Sprintf("%s/%d/comments?per_page=%d", issuesPath(ref), number, c.pageSize)
	if _, err := c.doJSON(ctx, "list comments", http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]api.Comment, 0, len(raw))
	for _, cm := range raw {
		out = append(out, cm.toAPI())
	}
	return out, nil
}

func (c *Client) CreateComment(ctx context.Context, ref api.RepoRef, number int, body string) (api.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return api.Comment{}, apperr.Validation("create comment", "comment body is required")
	}
	var raw commentJSON
	path := fmt.Sprintf("%s/%d/comments", issuesPath(ref), number)
	in := map[string]string{"body": body}
	if _, err := c.doJSON(ctx, "create comment", http.MethodPost, path, in, &raw); err != nil {
		return api.Comment{}, err
	}
	return raw.toAPI(), nil
}
