// Package clip copies text to the system clipboard, falling back to an
// OSC52 escape sequence on terminals without a clipboard helper.
package clip

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

type Method uint8

const (
	MethodSystem Method = iota
	MethodOSC52
)

func (m Method) String() string {
	if m == MethodOSC52 {
		return "osc52"
	}
	return "system"
}

var (
	writeSystem = clipboard.WriteAll
	writeOSC52  = writeTTY
	readSystem  = clipboard.ReadAll
)

// Copy writes text to the clipboard and reports which path succeeded.
func Copy(text string) (Method, error) {
	sysErr := writeSystem(text)
	if sysErr == nil {
		return MethodSystem, nil
	}
	if oscErr := writeOSC52(text); oscErr != nil {
		return MethodSystem, combine(sysErr, oscErr)
	}
	return MethodOSC52, nil
}

// Paste reads the system clipboard. OSC52 cannot be read back.
func Paste() (string, error) {
	return readSystem()
}

func writeTTY(text string) error {
	if !osc52Enabled() {
		return errors.New("OSC52 unavailable for this terminal")
	}
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open /dev/tty: %w", err)
	}
	defer tty.Close()
	return WriteSequence(tty, text, os.Getenv("TERM"), os.Getenv("TMUX") != "")
}

// WriteSequence emits the OSC52 sequence for text, wrapped for tmux or
// screen when needed.
func WriteSequence(w io.Writer, text, term string, tmux bool) error {
	term = strings.ToLower(strings.TrimSpace(term))
	seq := osc52.New(text)
	if tmux {
		if _, err := seq.WriteTo(w); err != nil {
			return err
		}
		_, err := seq.Tmux().WriteTo(w)
		return err
	}
	if strings.HasPrefix(term, "screen") {
		_, err := seq.Screen().WriteTo(w)
		return err
	}
	_, err := seq.WriteTo(w)
	return err
}

func osc52Enabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("GITNOTES_DISABLE_OSC52"))) {
	case "1", "true", "yes", "on":
		return false
	}
	term := strings.TrimSpace(os.Getenv("TERM"))
	return term != "" && !strings.EqualFold(term, "dumb")
}

func combine(sysErr, oscErr error) error {
	if missingDisplay() {
		return fmt.Errorf("no GUI clipboard available (DISPLAY/WAYLAND_DISPLAY unset); OSC52 fallback failed: %v", oscErr)
	}
	return fmt.Errorf("system clipboard failed: %v; OSC52 fallback failed: %v", sysErr, oscErr)
}

func missingDisplay() bool {
	return strings.TrimSpace(os.Getenv("DISPLAY")) == "" && strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) == ""
}
