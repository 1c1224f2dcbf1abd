package editor

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mithrel/gitnotes/pkg/api"
)

const (
	TitlePrefix  = "Title: "
	LabelsPrefix = "Labels: "
)

// ComposeContent creates the text presented to an external editor.
func ComposeContent(title string, labels []string, body string) string {
	var b bytes.Buffer
	b.WriteString("# gitnotes\n")
	b.WriteString("# Lines starting with '#' above the '---' line are ignored.\n")
	b.WriteString("# Set Title and Labels (comma-separated). After '---', write Markdown body.\n")
	b.WriteString(TitlePrefix)
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(LabelsPrefix)
	if len(labels) > 0 {
		b.WriteString(strings.Join(labels, ", "))
	}
	b.WriteString("\n---\n")
	if body != "" {
		if !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		b.WriteString(body)
	}
	return b.String()
}

// PreferredEditor finds a suitable editor from env or common defaults.
func PreferredEditor() (string, error) {
	if v := os.Getenv("VISUAL"); v != "" {
		return v, nil
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e, nil
	}
	for _, cand := range []string{"nvim", "vim", "vi", "nano"} {
		if p, err := exec.LookPath(cand); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no editor found; set $EDITOR or $VISUAL")
}

// PathForNote returns the scratch file used to edit a note. number is 0
// for a note that does not exist yet.
func PathForNote(repo api.RepoRef, number int) (string, error) {
	id := "new"
	if number > 0 {
		id = strconv.Itoa(number)
	}
	name := sanitize(repo.String()) + "." + id + ".gitnotes.md"
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, "gitnotes", name), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "gitnotes", "edit", name), nil
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

func writeFile0600(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, fs.FileMode(0o600))
}

// Command builds the process that edits path. VISUAL/EDITOR may carry
// flags, so they run through a shell.
func Command(path string) (*exec.Cmd, error) {
	ed := os.Getenv("VISUAL")
	if ed == "" {
		ed = os.Getenv("EDITOR")
	}
	if strings.TrimSpace(ed) != "" {
		cmd := exec.Command("sh", "-c", "$EDITORCMD \"$FILEPATH\"")
		cmd.Env = append(os.Environ(), "EDITORCMD="+ed, "FILEPATH="+path)
		return cmd, nil
	}
	prog, err := PreferredEditor()
	if err != nil {
		return nil, err
	}
	return exec.Command(prog, path), nil
}

// OpenAt opens the editor at path with initial content and returns final bytes and whether it changed.
func OpenAt(path string, initial []byte) (final []byte, changed bool, err error) {
	if err := writeFile0600(path, initial); err != nil {
		return nil, false, err
	}
	cmd, err := Command(path)
	if err != nil {
		return nil, false, err
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, false, err
	}
	out, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return out, !bytes.Equal(out, initial), nil
}

// PrepareAt writes the initial content to the given path with secure perms.
func PrepareAt(path string, initial []byte) error {
	return writeFile0600(path, initial)
}

// ParseEditedNote extracts title, labels and body from the editor output.
func ParseEditedNote(s string) (title string, labels []string, body string) {
	lines := strings.Split(s, "\n")
	inBody := false
	var bodyLines []string
	titleKey := strings.TrimSpace(TitlePrefix)
	labelsKey := strings.TrimSpace(LabelsPrefix)
	for _, line := range lines {
		if inBody {
			bodyLines = append(bodyLines, line)
			continue
		}
		switch {
		case strings.HasPrefix(strings.TrimSpace(line), "#"):
		case strings.HasPrefix(line, titleKey):
			title = strings.TrimSpace(strings.TrimPrefix(line, titleKey))
		case strings.HasPrefix(line, labelsKey):
			raw := strings.TrimSpace(strings.TrimPrefix(line, labelsKey))
			for _, l := range strings.Split(raw, ",") {
				if ll := strings.TrimSpace(l); ll != "" {
					labels = append(labels, ll)
				}
			}
		case strings.TrimSpace(line) == "---":
			inBody = true
		}
	}
	body = strings.TrimRight(strings.Join(bodyLines, "\n"), "\n")
	return title, labels, strings.TrimSpace(body)
}

// FirstLine returns the first trimmed line, squashed and truncated.
func FirstLine(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 120 {
		s = string(r[:120])
	}
	return s
}
