package editor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetricsFraction(t *testing.T) {
	require.Equal(t, 0.0, Metrics{Top: 5, Height: 10, Client: 20}.Fraction())
	require.Equal(t, 0.5, Metrics{Top: 40, Height: 100, Client: 20}.Fraction())
	require.Equal(t, 1.0, Metrics{Top: 500, Height: 100, Client: 20}.Fraction())
	require.Equal(t, 0.0, Metrics{Top: -3, Height: 100, Client: 20}.Fraction())

	require.Equal(t, 0, Metrics{Height: 10, Client: 20}.TargetTop(0.7))
	require.Equal(t, 90, Metrics{Height: 200, Client: 20}.TargetTop(0.5))
}

func TestScrollSyncSwallowsEcho(t *testing.T) {
	var s ScrollSync
	editor := Metrics{Top: 40, Height: 100, Client: 20}
	preview := Metrics{Height: 300, Client: 20}

	dst, top, ok := s.OnScroll(PaneEditor, editor, preview)
	require.True(t, ok)
	require.Equal(t, PanePreview, dst)
	require.Equal(t, 140, top)

	// the preview reports the scroll we just applied
	_, _, ok = s.OnScroll(PanePreview, Metrics{Top: 140, Height: 300, Client: 20}, editor)
	require.False(t, ok)

	// a real user scroll of the preview is mirrored back
	dst, top, ok = s.OnScroll(PanePreview, Metrics{Top: 280, Height: 300, Client: 20}, editor)
	require.True(t, ok)
	require.Equal(t, PaneEditor, dst)
	require.Equal(t, 80, top)

	s.Settle()
	dst, _, ok = s.OnScroll(PaneEditor, editor, preview)
	require.True(t, ok)
	require.Equal(t, PanePreview, dst)
}
