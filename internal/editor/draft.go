package editor

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mithrel/gitnotes/pkg/api"
)

// UntitledTitle is sent by autosave when the title draft is blank.
const UntitledTitle = "Untitled"

// Draft is the editable part of a note.
type Draft struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Labels  []string `json:"labels"`
}

// DraftOf copies the editable fields of n.
func DraftOf(n api.Note) Draft {
	return Draft{Title: n.Title, Content: n.Content, Labels: append([]string(nil), n.Labels...)}
}

// Hash hashes the draft the way api.Note.Hash hashes a note.
func (d Draft) Hash() string { return api.ContentHash(d.Title, d.Content, d.Labels) }

// Validate checks the draft can be sent to GitHub.
func (d Draft) Validate() error {
	title := strings.TrimSpace(d.Title)
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title,
			validation.By(func(any) error {
				if title == "" {
					return validation.NewError("validation_title_required", "title is required")
				}
				return nil
			}),
			validation.RuneLength(0, 256),
		),
		validation.Field(&d.Labels, validation.Each(validation.Required, validation.RuneLength(1, 50))),
	)
}

// AddLabel appends name unless it is blank or already present (case-insensitively).
func AddLabel(labels []string, name string) ([]string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return labels, false
	}
	for _, l := range labels {
		if strings.EqualFold(l, name) {
			return labels, false
		}
	}
	return append(append([]string(nil), labels...), name), true
}

// RemoveLabel drops every label equal to name (case-insensitively).
func RemoveLabel(labels []string, name string) ([]string, bool) {
	out := make([]string, 0, len(labels))
	removed := false
	for _, l := range labels {
		if strings.EqualFold(l, strings.TrimSpace(name)) {
			removed = true
			continue
		}
		out = append(out, l)
	}
	return out, removed
}
