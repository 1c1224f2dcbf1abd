package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	applyDefaults(v)
	return v
}

func TestCheckConfigValidityValid(t *testing.T) {
	v := defaults(t)
	v.Set("data_dir", "/tmp/gitnotes")
	require.NoError(t, CheckConfigValidity(v))
}

func TestCheckConfigValidityInvalid(t *testing.T) {
	v := defaults(t)
	v.Set("data_dir", "")
	v.Set("token_store", "vault")
	v.Set("github.api_url", "not a url")
	v.Set("github.page_size", 500)
	v.Set("github.timeout", "0s")
	v.Set("editor.default_view", "sideways")
	v.Set("log.level", "loud")

	err := CheckConfigValidity(v)
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		"data_dir is required",
		"token_store must be keyring or state",
		"github.api_url must be a URL",
		"github.page_size must be between 1 and 100",
		"github.timeout must be greater than 0",
		"editor.default_view must be edit, split or preview",
		"log.level must be debug, info, warn or error",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir = "/srv/notes"

[github]
page_size = 50

[editor]
autosave_delay = "10s"
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GITNOTES_UI_THEME=light\n"), 0o600))
	t.Setenv("GITNOTES_GITHUB_PAGE_SIZE", "20")
	t.Cleanup(func() { os.Unsetenv("GITNOTES_UI_THEME") })

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, Load(context.Background(), v))
	s, err := Decode(v)
	require.NoError(t, err)

	assert.Equal(t, "/srv/notes", s.DataDir)
	assert.Equal(t, 20, s.GitHub.PageSize, "env beats file")
	assert.Equal(t, 10*time.Second, s.Editor.AutosaveDelay)
	assert.Equal(t, 30*time.Second, s.GitHub.Timeout)
	assert.Equal(t, "light", s.UI.Theme)
	assert.True(t, s.Editor.Autosave)
	assert.Equal(t, "/srv/notes/gitnotes.db", ResolveDBPath(s))
	assert.Equal(t, "/srv/notes/gitnotes.log", ResolveLogPath(s))
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir = \n[[["), 0o600))
	v := viper.New()
	v.SetConfigFile(path)
	require.Error(t, Load(context.Background(), v))
}

func TestRenderDefaultTOMLParses(t *testing.T) {
	out := RenderDefaultTOML()
	var doc map[string]any
	require.NoError(t, toml.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "keyring", doc["token_store"])
	gh, ok := doc["github"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(100), gh["page_size"])
	assert.Equal(t, "30s", gh["timeout"])
	editor := doc["editor"].(map[string]any)
	assert.Equal(t, true, editor["autosave"])

	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(out)))
	require.NoError(t, CheckConfigValidity(v))
}

func TestUpdateTOML(t *testing.T) {
	in := strings.TrimSpace(`
data_dir = "/x"
namespace = "old"

[github]
page_size = 10
`)
	out, changed := UpdateTOML(in)
	require.True(t, changed)
	assert.Contains(t, out, "# OUTDATED: option removed from config schema\n# namespace = \"old\"")
	assert.Contains(t, out, "page_size = 10")
	assert.Contains(t, out, "# Added by config update")
	assert.Contains(t, out, "autosave_delay = \"30s\"")

	var doc map[string]any
	require.NoError(t, toml.Unmarshal([]byte(out), &doc))

	again, changed := UpdateTOML(RenderDefaultTOML())
	assert.False(t, changed)
	assert.NotEmpty(t, again)
}
