package tui

import (
	"github.com/charmbracelet/lipgloss/v2"
)

// renderOverlay composes a centered modal on top of the dimmed base view.
func renderOverlay(base, fg string, termW, termH int) string {
	if termW <= 0 {
		termW = 80
	}
	if termH <= 0 {
		termH = 24
	}
	overlayW, overlayH := lipgloss.Width(fg), lipgloss.Height(fg)
	x := max((termW-overlayW)/2, 0)
	y := max((termH-overlayH)/2, 0)

	dimBase := lipgloss.NewStyle().Faint(true).Render(base)
	baseLayer := lipgloss.NewLayer(dimBase).
		Width(termW).
		Height(termH)
	fgLayer := lipgloss.NewLayer(fg).
		Width(overlayW).
		Height(overlayH).
		X(x).
		Y(y)

	return lipgloss.NewCanvas(baseLayer, fgLayer).Render()
}

// modalBox sizes a bordered box to a share of the terminal.
func modalBox(termW, termH int, wShare, hShare float64, minW, maxW, minH, maxH int) (lipgloss.Style, int, int) {
	if termW <= 0 || termH <= 0 {
		termW, termH = 80, 24
	}
	w := int(float64(termW) * wShare)
	if termW < 80 {
		w = termW - 4
	}
	w = min(max(w, minW), maxW, max(termW-2, 10))
	h := int(float64(termH) * hShare)
	if termH < 20 {
		h = termH - 2
	}
	h = min(max(h, minH), maxH, max(termH-1, 5))
	box := lipgloss.NewStyle().
		Width(w).
		Height(h).
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63"))
	return box, w, h
}
