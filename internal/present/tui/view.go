package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/gitnotes/pkg/api"
)

func (m model) View() string {
	base := m.baseView()
	var fg string
	switch {
	case m.confirm != nil:
		fg = m.confirm.View()
	case m.filter != nil:
		fg = m.filter.View()
	case m.note != nil:
		fg = m.note.View()
	case m.find != nil:
		fg = m.find.View()
	case m.snippet != nil:
		fg = m.snippet.View()
	}
	if fg == "" {
		return base
	}
	return renderOverlay(base, fg, m.width, m.height)
}

func (m model) baseView() string {
	switch m.screen {
	case screenLogin:
		return m.loginView()
	case screenRepos:
		return titleStyle.Render("Select a repository") + "\n" + m.repoQuery.View() + "\n" + m.repoTable.View() + "\n" + m.renderFooter()
	case screenNotes:
		return m.notesView()
	case screenEditor:
		if m.ed == nil {
			return ""
		}
		return m.ed.View() + "\n" + m.renderFooter()
	default:
		return "\n  " + m.status + "\n"
	}
}

func (m model) loginView() string {
	lines := []string{
		titleStyle.Render("gitnotes"),
		"",
		"Notes are stored as issues in a GitHub repository you choose.",
		"Create a personal access token with the repo scope and paste it below.",
		"",
		m.token.View(),
		"",
		m.statusText(),
		"",
		dimStyle.Render("enter=sign in • ctrl+v=paste • esc=quit"),
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

func (m model) notesView() string {
	var body string
	if len(m.rows) == 0 {
		msg := "No notes yet. Press n to write one."
		if m.st.Cache().Len() > 0 {
			msg = "No notes match the filter. Press / to change it."
		}
		body = lipgloss.NewStyle().Padding(1, 2).Render(dimStyle.Render(msg))
		body = lipgloss.NewStyle().Height(max(m.table.Height(), 3)).Render(body)
	} else {
		body = m.table.View()
	}
	if w := m.sidebarWidth(); w > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebarStyle.Width(w-1).Height(max(m.table.Height(), 3)).Render(m.sidebarView(w-2)), body)
	}
	return body + "\n" + m.renderFooter()
}

// sidebarView lists the account, repository and label counts.
func (m model) sidebarView(width int) string {
	user := m.st.User()
	repo := m.st.SelectedRepo()
	lines := []string{
		boldStyle.Render(truncate(user.Login, width)),
		dimStyle.Render(truncate(repo.String(), width)),
		"",
	}
	all := m.st.Cache().All()
	open := 0
	counts := map[string]int{}
	var order []string
	for _, n := range all {
		if n.State != api.StateClosed {
			open++
		}
		for _, l := range n.Labels {
			key := strings.ToLower(l)
			if counts[key] == 0 {
				order = append(order, l)
			}
			counts[key]++
		}
	}
	lines = append(lines, fmt.Sprintf("%d notes, %d open", len(all), open), "")
	if len(order) > 0 {
		lines = append(lines, boldStyle.Render("Labels"))
		for _, l := range order {
			lines = append(lines, truncate(fmt.Sprintf("%s (%d)", l, counts[strings.ToLower(l)]), width))
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

func (m model) statusText() string {
	if m.status == "" {
		return ""
	}
	s := m.status
	if m.lastDuration > 0 {
		s = fmt.Sprintf("%s (%s)", s, m.lastDuration.Round(1e6))
	}
	if m.retry != nil {
		s += fmt.Sprintf(" • ctrl+r=%s", m.retryLabel)
	}
	if m.statusErr {
		return errStyle.Render(s)
	}
	return okStyle.Render(s)
}

func (m model) helpText() string {
	switch m.screen {
	case screenRepos:
		return "type to filter • ↑/↓ move • enter=select • esc=back • ctrl+l=sign out"
	case screenNotes:
		return "enter=edit • n=new • v=view • d=delete • x=close/reopen • /=filter • o=sort • r=reload • y=copy link • R=repos • s=sidebar • t=theme • L=sign out • q=quit"
	case screenEditor:
		if m.ed != nil && m.ed.sess.Fullscreen() {
			return "f11=exit fullscreen • ctrl+s=save • esc=close"
		}
		return "ctrl+s=save • ctrl+p=view • ctrl+f=find • ctrl+g=insert • ctrl+b/alt+i/ctrl+k=format • ctrl+o=$EDITOR • alt+a=autosave • tab=focus • f11=fullscreen • esc=close"
	}
	return ""
}

func (m model) renderFooter() string {
	left := dimStyle.Render(m.helpText())
	var right string
	if m.screen == screenEditor && m.ed != nil {
		right = m.ed.statusLine(m.now())
		if m.status != "" {
			right = m.statusText() + " • " + right
		}
	} else {
		right = m.statusText()
		if m.screen == screenNotes {
			right += fmt.Sprintf(" • %d notes ", len(m.rows))
		}
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		return right + "\n" + left
	}
	return left + strings.Repeat(" ", space) + right
}
