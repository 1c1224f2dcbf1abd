package github

import (
	"time"

	"github.com/mithrel/gitnotes/pkg/api"
)

type userJSON struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

func (u userJSON) toAPI() api.User {
	return api.User{
		ID:        u.ID,
		Login:     u.Login,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		HTMLURL:   u.HTMLURL,
	}
}

type repoJSON struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Owner       userJSON  `json:"owner"`
	Description *string   `json:"description"`
	Private     bool      `json:"private"`
	OpenIssues  int       `json:"open_issues_count"`
	HTMLURL     string    `json:"html_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r repoJSON) toAPI() api.Repository {
	out := api.Repository{
		ID:         r.ID,
		Owner:      r.Owner.Login,
		Name:       r.Name,
		FullName:   r.FullName,
		Private:    r.Private,
		OpenIssues: r.OpenIssues,
		URL:        r.HTMLURL,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.Description != nil {
		out.Description = *r.Description
	}
	if out.FullName == "" {
		out.FullName = out.Owner + "/" + out.Name
	}
	return out
}

type labelJSON struct {
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

type issueJSON struct {
	ID          int64       `json:"id"`
	NodeID      string      `json:"node_id"`
	Number      int         `json:"number"`
	Title       string      `json:"title"`
	Body        *string     `json:"body"`
	State       string      `json:"state"`
	Labels      []labelJSON `json:"labels"`
	Comments    int         `json:"comments"`
	HTMLURL     string      `json:"html_url"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	PullRequest *struct{}   `json:"pull_request,omitempty"`
}

// toAPI maps an issue onto a note. A null body becomes "".
func (i issueJSON) toAPI() api.Note {
	n := api.Note{
		ID:        i.ID,
		Number:    i.Number,
		NodeID:    i.NodeID,
		Title:     i.Title,
		State:     api.NoteState(i.State),
		Comments:  i.Comments,
		URL:       i.HTMLURL,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
		Labels:    make([]string, 0, len(i.Labels)),
	}
	if i.Body != nil {
		n.Content = *i.Body
	}
	if n.State == "" {
		n.State = api.StateOpen
	}
	for _, l := range i.Labels {
		n.Labels = append(n.Labels, l.Name)
	}
	return n
}

type commentJSON struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	User      userJSON  `json:"user"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c commentJSON) toAPI() api.Comment {
	return api.Comment{
		ID:        c.ID,
		Body:      c.Body,
		Author:    c.User.Login,
		URL:       c.HTMLURL,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// IssueInput is the body of a create call.
type IssueInput struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
}

// IssuePatch is the body of an update call; nil fields are left untouched.
type IssuePatch struct {
	Title  *string   `json:"title,omitempty"`
	Body   *string   `json:"body,omitempty"`
	Labels *[]string `json:"labels,omitempty"`
	State  *string   `json:"state,omitempty"`
}
