package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mithrel/gitnotes/internal/apperr"
	"github.com/mithrel/gitnotes/pkg/api"
)

func issuesPath(ref api.RepoRef) string {
	return fmt.Sprintf("/repos/%s/%s/issues", url.PathEscape(ref.Owner), url.PathEscape(ref.Name))
}

// ListIssues returns one page of issues in every state, most recently
// updated first. Pull requests are skipped. more reports whether GitHub
// advertised a further page that was not fetched.
func (c *Client) ListIssues(ctx context.Context, ref api.RepoRef) (notes []api.Note, more bool, err error) {
	if ref.IsZero() {
		return nil, false, apperr.ErrNoRepository
	}
	var raw []issueJSON
	path := fmt.Sprintf("%s?state=all&sort=updated&direction=desc&per_page=%d", issuesPath(ref), c.pageSize)
	resp, err := c.doJSON(ctx, "list issues", http.MethodGet, path, nil, &raw)
	if err != nil {
		return nil, false, err
	}
	notes = make([]api.Note, 0, len(raw))
	for _, i := range raw {
		if i.PullRequest != nil {
			continue
		}
		notes = append(notes, i.toAPI())
	}
	return notes, resp.next, nil
}

func (c *Client) GetIssue(ctx context.Context, ref api.RepoRef, number int) (api.Note, error) {
	var raw issueJSON
	path := fmt.Sprintf("%s/%d", issuesPath(ref), number)
	if _, err := c.doJSON(ctx, "get issue", http.MethodGet, path, nil, &raw); err != nil {
		return api.Note{}, err
	}
	return raw.toAPI(), nil
}

// CreateIssue creates an issue and returns it as a note.
func (c *Client) CreateIssue(ctx context.Context, ref api.RepoRef, in IssueInput) (api.Note, error) {
	if in.Labels == nil {
		in.Labels = []string{}
	}
	var raw issueJSON
	if _, err := c.doJSON(ctx, "create issue", http.MethodPost, issuesPath(ref), in, &raw); err != nil {
		return api.Note{}, err
	}
	return raw.toAPI(), nil
}

// UpdateIssue patches an issue and returns the updated record.
func (c *Client) UpdateIssue(ctx context.Context, ref api.RepoRef, number int, p IssuePatch) (api.Note, error) {
	var raw issueJSON
	path := fmt.Sprintf("%s/%d", issuesPath(ref), number)
	if _, err := c.doJSON(ctx, "update issue", http.MethodPatch, path, p, &raw); err != nil {
		return api.Note{}, err
	}
	return raw.toAPI(), nil
}

// SetIssueState closes or reopens an issue.
func (c *Client) SetIssueState(ctx context.Context, ref api.RepoRef, number int, state api.NoteState) (api.Note, error) {
	s := string(state)
	return c.UpdateIssue(ctx, ref, number, IssuePatch{State: &s})
}
