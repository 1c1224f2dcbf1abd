// Package persist turns editor drafts into GitHub issue mutations and
// keeps the note cache in step with what the server returned.
package persist

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/mithrel/gitnotes/internal/apperr"
	"github.com/mithrel/gitnotes/internal/editor"
	"github.com/mithrel/gitnotes/internal/github"
	"github.com/mithrel/gitnotes/internal/notes"
	"github.com/mithrel/gitnotes/pkg/api"
)

// Remote is the part of the GitHub client the façade needs.
type Remote interface {
	ListIssues(ctx context.Context, ref api.RepoRef) ([]api.Note, bool, error)
	CreateIssue(ctx context.Context, ref api.RepoRef, in github.IssueInput) (api.Note, error)
	UpdateIssue(ctx context.Context, ref api.RepoRef, number int, p github.IssuePatch) (api.Note, error)
	SetIssueState(ctx context.Context, ref api.RepoRef, number int, state api.NoteState) (api.Note, error)
	DeleteIssue(ctx context.Context, nodeID string) error
	ListComments(ctx context.Context, ref api.RepoRef, number int) ([]api.Comment, error)
	CreateComment(ctx context.Context, ref api.RepoRef, number int, body string) (api.Comment, error)
}

// RepoFunc returns the currently selected repository.
type RepoFunc func() api.RepoRef

type Facade struct {
	remote Remote
	repo   RepoFunc
	cache  *notes.Cache
	log    *slog.Logger
}

func New(remote Remote, repo RepoFunc, cache *notes.Cache, logger *slog.Logger) *Facade {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Facade{remote: remote, repo: repo, cache: cache, log: logger}
}

var _ editor.Persister = (*Facade)(nil)

func (f *Facade) ref() (api.RepoRef, error) {
	ref := f.repo()
	if ref.IsZero() {
		return api.RepoRef{}, apperr.ErrNoRepository
	}
	return ref, nil
}

// target pins the repository a mutation is sent to together with the cache
// epoch its result may be written under. The epoch is read first: a
// selection change between the two reads then voids the write.
func (f *Facade) target() (api.RepoRef, uint64, error) {
	epoch := f.cache.Epoch()
	ref, err := f.ref()
	return ref, epoch, err
}

// Persist creates the note when baseline is nil and updates it otherwise.
// Each call issues exactly one mutation and never retries.
func (f *Facade) Persist(ctx context.Context, baseline *api.Note, d editor.Draft) (api.Note, error) {
	ref, epoch, err := f.target()
	if err != nil {
		return api.Note{}, err
	}
	labels := d.Labels
	if labels == nil {
		labels = []string{}
	}
	if baseline == nil {
		if strings.TrimSpace(d.Title) == "" {
			return api.Note{}, apperr.Validation("create issue", "title is required")
		}
		n, err := f.remote.CreateIssue(ctx, ref, github.IssueInput{Title: d.Title, Body: d.Content, Labels: labels})
		if err != nil {
			return api.Note{}, err
		}
		if !f.cache.InsertIf(epoch, n) {
			f.log.Warn("note created after repository change", slog.String("repo", ref.String()), slog.Int("number", n.Number))
		}
		f.log.Info("note created", slog.String("repo", ref.String()), slog.Int("number", n.Number))
		return n, nil
	}

	title, body := d.Title, d.Content
	n, err := f.remote.UpdateIssue(ctx, ref, baseline.Number, github.IssuePatch{Title: &title, Body: &body, Labels: &labels})
	if err != nil {
		return api.Note{}, err
	}
	if n.ID == 0 {
		// an empty response still means the update went through
		n = baseline.Clone()
		n.Title, n.Content, n.Labels = title, body, labels
	}
	if !f.cache.ApplyUpdateIf(epoch, n.ID, api.PatchFrom(n)) {
		f.cache.InsertIf(epoch, n)
	}
	f.log.Debug("note updated", slog.String("repo", ref.String()), slog.Int("number", n.Number))
	return n, nil
}

// Reload replaces the cache with the first page of issues of the selected
// repository.
func (f *Facade) Reload(ctx context.Context) (bool, error) {
	if _, err := f.ref(); err != nil {
		return false, err
	}
	// the ref is read after the ticket is issued, so a switch in between
	// voids this reload
	return f.cache.Reload(ctx, func(ctx context.Context) ([]api.Note, bool, error) {
		ref, err := f.ref()
		if err != nil {
			return nil, false, err
		}
		return f.remote.ListIssues(ctx, ref)
	})
}

// Delete permanently removes a note.
func (f *Facade) Delete(ctx context.Context, n api.Note) error {
	epoch := f.cache.Epoch()
	if err := f.remote.DeleteIssue(ctx, n.NodeID); err != nil {
		return err
	}
	f.cache.RemoveIf(epoch, n.ID)
	f.log.Info("note deleted", slog.Int("number", n.Number))
	return nil
}

// SetState closes or reopens a note.
func (f *Facade) SetState(ctx context.Context, n api.Note, state api.NoteState) (api.Note, error) {
	ref, epoch, err := f.target()
	if err != nil {
		return api.Note{}, err
	}
	if state != api.StateOpen && state != api.StateClosed {
		return api.Note{}, apperr.Validation("set state", "state must be open or closed")
	}
	out, err := f.remote.SetIssueState(ctx, ref, n.Number, state)
	if err != nil {
		return api.Note{}, err
	}
	if out.ID == 0 {
		out = n.Clone()
		out.State = state
	}
	f.cache.ApplyUpdateIf(epoch, out.ID, api.PatchFrom(out))
	return out, nil
}

func (f *Facade) Comments(ctx context.Context, n api.Note) ([]api.Comment, error) {
	ref, err := f.ref()
	if err != nil {
		return nil, err
	}
	return f.remote.ListComments(ctx, ref, n.Number)
}

// AddComment posts a comment and bumps the note's comment count in the
// cache.
func (f *Facade) AddComment(ctx context.Context, n api.Note, body string) (api.Comment, error) {
	ref, epoch, err := f.target()
	if err != nil {
		return api.Comment{}, err
	}
	c, err := f.remote.CreateComment(ctx, ref, n.Number, body)
	if err != nil {
		return api.Comment{}, err
	}
	if cached, ok := f.cache.Get(n.ID); ok {
		cached.Comments++
		f.cache.InsertIf(epoch, cached)
	}
	return c, nil
}
