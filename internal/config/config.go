// Package config resolves settings from defaults, config.toml, .env and
// GITNOTES_* environment variables.
package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings is the decoded configuration.
type Settings struct {
	DataDir    string         `mapstructure:"data_dir" json:"data_dir"`
	TokenStore string         `mapstructure:"token_store" json:"token_store"`
	GitHub     GitHubSettings `mapstructure:"github" json:"github"`
	Editor     EditorSettings `mapstructure:"editor" json:"editor"`
	UI         UISettings     `mapstructure:"ui" json:"ui"`
	Render     RenderSettings `mapstructure:"render" json:"render"`
	Log        LogSettings    `mapstructure:"log" json:"log"`
}

type GitHubSettings struct {
	APIURL     string        `mapstructure:"api_url" json:"api_url"`
	GraphQLURL string        `mapstructure:"graphql_url" json:"graphql_url"`
	Timeout    time.Duration `mapstructure:"timeout" json:"timeout"`
	PageSize   int           `mapstructure:"page_size" json:"page_size"`
}

type EditorSettings struct {
	Autosave      bool          `mapstructure:"autosave" json:"autosave"`
	AutosaveDelay time.Duration `mapstructure:"autosave_delay" json:"autosave_delay"`
	DefaultView   string        `mapstructure:"default_view" json:"default_view"`
}

type UISettings struct {
	Theme   string `mapstructure:"theme" json:"theme"`
	Sidebar bool   `mapstructure:"sidebar" json:"sidebar"`
}

type RenderSettings struct {
	WordWrap int `mapstructure:"word_wrap" json:"word_wrap"`
}

type LogSettings struct {
	Level string `mapstructure:"level" json:"level"`
	File  string `mapstructure:"file" json:"file"`
}

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < .env < env.
// The provided Viper instance is mutated with defaults, file contents, and env.
func Load(ctx context.Context, v *viper.Viper) error {
	dir := filepath.Dir(DefaultConfigPath())
	if used := v.ConfigFileUsed(); used != "" {
		dir = filepath.Dir(used)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "gitnotes"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "gitnotes"))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	// A missing file is fine; a malformed one is not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	// .env next to the config file, then in the working directory. Existing
	// environment variables win.
	for _, p := range []string{filepath.Join(dir, ".env"), ".env"} {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				return err
			}
		}
	}

	v.SetEnvPrefix("gitnotes")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		v.Set("data_dir", defaultDataDir())
	}
	return nil
}

// Decode reads the resolved settings out of v.
func Decode(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, err
	}
	s.TokenStore = strings.ToLower(strings.TrimSpace(s.TokenStore))
	s.Editor.DefaultView = strings.ToLower(strings.TrimSpace(s.Editor.DefaultView))
	s.Log.Level = strings.ToLower(strings.TrimSpace(s.Log.Level))
	return s, nil
}

// EnvToken returns a token supplied through GITNOTES_TOKEN or GITHUB_TOKEN.
func EnvToken() string {
	for _, k := range []string{"GITNOTES_TOKEN", "GITHUB_TOKEN"} {
		if t := strings.TrimSpace(os.Getenv(k)); t != "" {
			return t
		}
	}
	return ""
}
