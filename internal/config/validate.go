package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

func (s GitHubSettings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.APIURL, validation.Required.Error("is required"), is.URL.Error("must be a URL")),
		validation.Field(&s.GraphQLURL, validation.Required.Error("is required"), is.URL.Error("must be a URL")),
		validation.Field(&s.Timeout, validation.Required.Error("must be greater than 0"), validation.Min(int64(0)).Exclusive().Error("must be greater than 0")),
		validation.Field(&s.PageSize, validation.Required.Error("must be between 1 and 100"), validation.Min(1).Error("must be between 1 and 100"), validation.Max(100).Error("must be between 1 and 100")),
	)
}

func (s EditorSettings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.AutosaveDelay, validation.Required.Error("must be greater than 0"), validation.Min(int64(0)).Exclusive().Error("must be greater than 0")),
		validation.Field(&s.DefaultView, validation.In("edit", "split", "preview").Error("must be edit, split or preview")),
	)
}

func (s UISettings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Theme, validation.In("dark", "light", "auto", "notty").Error("must be dark, light or auto")),
	)
}

func (s RenderSettings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.WordWrap, validation.Min(0).Error("must not be negative")),
	)
}

func (s LogSettings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Level, validation.In("debug", "info", "warn", "error").Error("must be debug, info, warn or error")),
	)
}

// Validate checks every section.
func (s *Settings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.DataDir, validation.Required.Error("is required")),
		validation.Field(&s.TokenStore, validation.In("keyring", "state").Error("must be keyring or state")),
		validation.Field(&s.GitHub),
		validation.Field(&s.Editor),
		validation.Field(&s.UI),
		validation.Field(&s.Render),
		validation.Field(&s.Log),
	)
}

// CheckConfigValidity decodes v and reports every invalid key, one per
// line, as "key message".
func CheckConfigValidity(v *viper.Viper) error {
	s, err := Decode(v)
	if err != nil {
		return err
	}
	err = s.Validate()
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	problems := flatten("", verrs)
	sort.Strings(problems)
	return errors.New("invalid configuration:\n  " + strings.Join(problems, "\n  "))
}

// flatten turns nested validation errors into dotted keys.
func flatten(prefix string, errs validation.Errors) []string {
	var out []string
	for field, err := range errs {
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			out = append(out, flatten(key, nested)...)
			continue
		}
		out = append(out, fmt.Sprintf("%s %s", key, err.Error()))
	}
	return out
}
