package config

import (
	"os"
	"path/filepath"
	"time"
)

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the configuration options, their defaults and
// meanings. It is the single source for defaults and generated files.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state; DB is data_dir/gitnotes.db"},
		{Key: "token_store", Default: "keyring", Comment: "Where the GitHub token is kept: keyring or state"},

		{Key: "github.api_url", Default: "https://api.github.com", Comment: "GitHub REST API base URL"},
		{Key: "github.graphql_url", Default: "https://api.github.com/graphql", Comment: "GitHub GraphQL endpoint, used for deleting issues"},
		{Key: "github.timeout", Default: 30 * time.Second, Comment: "Per-request timeout"},
		{Key: "github.page_size", Default: 100, Comment: "Issues fetched per reload (1-100)"},

		{Key: "editor.autosave", Default: true, Comment: "Save existing notes after a pause in typing"},
		{Key: "editor.autosave_delay", Default: 30 * time.Second, Comment: "Pause before an autosave"},
		{Key: "editor.default_view", Default: "edit", Comment: "View when a note opens: edit, split or preview"},

		{Key: "ui.theme", Default: "dark", Comment: "Color theme: dark, light or auto"},
		{Key: "ui.sidebar", Default: true, Comment: "Show the account and label sidebar beside the note list"},

		{Key: "render.word_wrap", Default: 80, Comment: "Markdown preview wrap width"},

		{Key: "log.level", Default: "info", Comment: "Log level: debug, info, warn or error"},
		{Key: "log.file", Default: "", Comment: "Log file; empty logs to data_dir/gitnotes.log"},
	}
}

// defaultDataDir resolves default data dir: $XDG_DATA_HOME/gitnotes or ~/.local/share/gitnotes
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "gitnotes")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "gitnotes")
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, "gitnotes", "config.toml")
}

func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// ResolveDataDir returns data_dir with ~ expanded.
func ResolveDataDir(s Settings) string {
	dir := s.DataDir
	if dir == "" {
		dir = defaultDataDir()
	}
	return expandHome(dir)
}

// ResolveDBPath returns the sqlite state file path.
func ResolveDBPath(s Settings) string {
	return filepath.Join(ResolveDataDir(s), "gitnotes.db")
}

// ResolveLogPath returns log.file, or the default inside data_dir.
func ResolveLogPath(s Settings) string {
	if s.Log.File != "" {
		return expandHome(s.Log.File)
	}
	return filepath.Join(ResolveDataDir(s), "gitnotes.log")
}
