package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mithrel/gitnotes/internal/config"
)

// applyConfigFlagOverrides copies flags the user set into v. keys maps a
// flag name to its config key; flags named after a config key map to
// themselves.
func applyConfigFlagOverrides(cmd *cobra.Command, v *viper.Viper, keys map[string]string) {
	known := make(map[string]bool)
	for _, opt := range config.GetConfigOptions() {
		known[opt.Key] = true
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		key, ok := keys[f.Name]
		if !ok {
			if !known[f.Name] {
				return
			}
			key = f.Name
		}
		setFromFlag(cmd, v, f, key)
	})
}

func setFromFlag(cmd *cobra.Command, v *viper.Viper, f *pflag.Flag, key string) {
	fs := cmd.Flags()
	switch f.Value.Type() {
	case "bool":
		if val, err := fs.GetBool(f.Name); err == nil {
			v.Set(key, val)
		}
	case "int":
		if val, err := fs.GetInt(f.Name); err == nil {
			v.Set(key, val)
		}
	case "duration":
		if val, err := fs.GetDuration(f.Name); err == nil {
			v.Set(key, val)
		}
	case "stringSlice":
		if val, err := fs.GetStringSlice(f.Name); err == nil {
			v.Set(key, val)
		}
	default:
		v.Set(key, f.Value.String())
	}
}
