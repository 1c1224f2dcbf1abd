package editor

import (
	"fmt"
	"strings"
)

// ViewMode selects which panes the editor shows.
type ViewMode int

const (
	ViewEdit ViewMode = iota
	ViewSplit
	ViewPreview
)

func (v ViewMode) String() string {
	switch v {
	case ViewSplit:
		return "split"
	case ViewPreview:
		return "preview"
	default:
		return "edit"
	}
}

func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "edit", "editor":
		return ViewEdit, nil
	case "split", "both":
		return ViewSplit, nil
	case "preview":
		return ViewPreview, nil
	}
	return ViewEdit, fmt.Errorf("unknown view mode %q", s)
}

// Next cycles edit, split, preview.
func (v ViewMode) Next() ViewMode {
	switch v {
	case ViewEdit:
		return ViewSplit
	case ViewSplit:
		return ViewPreview
	default:
		return ViewEdit
	}
}

// ShowsEditor reports whether the editing pane is visible.
func (v ViewMode) ShowsEditor() bool { return v != ViewPreview }

// ShowsPreview reports whether the rendered pane is visible.
func (v ViewMode) ShowsPreview() bool { return v != ViewEdit }

func (s *Session) View() ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Session) SetView(v ViewMode) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

// CycleView advances to the next view mode and returns it.
func (s *Session) CycleView() ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = s.view.Next()
	return s.view
}

func (s *Session) Fullscreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullscreen
}

func (s *Session) ToggleFullscreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullscreen = !s.fullscreen
	return s.fullscreen
}
