package clip

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stub(t *testing.T, sys, osc func(string) error) {
	t.Helper()
	prevSys, prevOSC := writeSystem, writeOSC52
	writeSystem, writeOSC52 = sys, osc
	t.Cleanup(func() { writeSystem, writeOSC52 = prevSys, prevOSC })
}

func TestCopyPrefersSystem(t *testing.T) {
	var got string
	stub(t, func(s string) error { got = s; return nil }, func(string) error {
		t.Fatal("osc52 should not be used")
		return nil
	})
	m, err := Copy("hello")
	require.NoError(t, err)
	assert.Equal(t, MethodSystem, m)
	assert.Equal(t, "hello", got)
}

func TestCopyFallsBackToOSC52(t *testing.T) {
	var got string
	stub(t, func(string) error { return errors.New("exit status 1") }, func(s string) error { got = s; return nil })
	m, err := Copy("hello")
	require.NoError(t, err)
	assert.Equal(t, MethodOSC52, m)
	assert.Equal(t, "osc52", m.String())
	assert.Equal(t, "hello", got)
}

func TestCopyBothFail(t *testing.T) {
	stub(t, func(string) error { return errors.New("no xclip") }, func(string) error { return errors.New("no tty") })
	_, err := Copy("hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tty")
}

func TestWriteSequence(t *testing.T) {
	var plain bytes.Buffer
	require.NoError(t, WriteSequence(&plain, "hi", "xterm-256color", false))
	assert.True(t, strings.HasPrefix(plain.String(), "\x1b]52;c;"))

	var tmux bytes.Buffer
	require.NoError(t, WriteSequence(&tmux, "hi", "screen", true))
	assert.Contains(t, tmux.String(), "\x1bPtmux;")

	var screen bytes.Buffer
	require.NoError(t, WriteSequence(&screen, "hi", "screen-256color", false))
	assert.True(t, strings.HasPrefix(screen.String(), "\x1bP"))
}
