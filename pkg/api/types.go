package api

import "time"

// NoteState mirrors the open/closed status of the backing issue.
type NoteState string

const (
	StateOpen   NoteState = "open"
	StateClosed NoteState = "closed"
)

// Note is one GitHub issue seen as a Markdown note.
// ID is zero until the first successful create; Number is what the REST
// endpoints are keyed by.
type Note struct {
	ID        int64     `json:"id"`
	Number    int       `json:"number"`
	NodeID    string    `json:"node_id,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Labels    []string  `json:"labels"`
	State     NoteState `json:"state"`
	Comments  int       `json:"comments"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Saved reports whether the note exists remotely.
func (n Note) Saved() bool { return n.ID != 0 }

// Clone returns a copy that shares no slices with n.
func (n Note) Clone() Note {
	out := n
	out.Labels = append([]string(nil), n.Labels...)
	return out
}

// Patch is a partial set of note fields; nil means unchanged.
type Patch struct {
	Title     *string
	Content   *string
	Labels    []string
	SetLabels bool
	State     *NoteState
	UpdatedAt *time.Time
}

// Apply merges p into n.
func (p Patch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.SetLabels {
		n.Labels = append([]string(nil), p.Labels...)
	}
	if p.State != nil {
		n.State = *p.State
	}
	if p.UpdatedAt != nil {
		n.UpdatedAt = *p.UpdatedAt
	}
}

// PatchFrom builds a patch carrying every mutable field of n.
func PatchFrom(n Note) Patch {
	title, content, state, updated := n.Title, n.Content, n.State, n.UpdatedAt
	return Patch{
		Title:     &title,
		Content:   &content,
		Labels:    append([]string(nil), n.Labels...),
		SetLabels: true,
		State:     &state,
		UpdatedAt: &updated,
	}
}

type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	HTMLURL   string `json:"html_url,omitempty"`
}

type Repository struct {
	ID          int64     `json:"id"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description,omitempty"`
	Private     bool      `json:"private"`
	OpenIssues  int       `json:"open_issues"`
	URL         string    `json:"url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Ref returns the owner/name pair of the repository.
func (r Repository) Ref() RepoRef { return RepoRef{Owner: r.Owner, Name: r.Name} }

type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
