package editor

import "sync"

// Pane identifies one side of the split view.
type Pane int

const (
	PaneEditor Pane = iota
	PanePreview
)

func (p Pane) other() Pane {
	if p == PaneEditor {
		return PanePreview
	}
	return PaneEditor
}

// Metrics describes a scrollable pane: Top is the first visible line,
// Height the total content height and Client the visible height.
type Metrics struct {
	Top, Height, Client int
}

// Fraction is the scroll position in [0,1]. A pane that cannot scroll is
// at 0.
func (m Metrics) Fraction() float64 {
	span := m.Height - m.Client
	if span <= 0 {
		return 0
	}
	f := float64(m.Top) / float64(span)
	return min(max(f, 0), 1)
}

// TargetTop is the top line that puts m at fraction f.
func (m Metrics) TargetTop(f float64) int {
	span := m.Height - m.Client
	if span <= 0 {
		return 0
	}
	f = min(max(f, 0), 1)
	return int(f*float64(span) + 0.5)
}

// ScrollSync mirrors the scroll fraction of one pane onto the other. A
// scroll event caused by the mirror write itself is swallowed so the two
// panes do not chase each other.
type ScrollSync struct {
	mu      sync.Mutex
	writing bool
	target  Pane
}

// OnScroll handles a scroll of src. It returns the pane to move and its new
// top line, or ok=false when the event is the echo of a mirror write.
func (s *ScrollSync) OnScroll(src Pane, srcM, dstM Metrics) (dst Pane, top int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writing && src == s.target {
		s.writing = false
		return 0, 0, false
	}
	dst = src.other()
	s.writing = true
	s.target = dst
	return dst, dstM.TargetTop(srcM.Fraction()), true
}

// Settle clears the echo guard, used when a mirror write produced no
// scroll event.
func (s *ScrollSync) Settle() {
	s.mu.Lock()
	s.writing = false
	s.mu.Unlock()
}
