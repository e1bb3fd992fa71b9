package config

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hamidzr/surferh/constant"
	"github.com/hamidzr/surferh/model"
)

// BindFlags binds CLI flags to the cobra command
func BindFlags(cmd *cobra.Command) {
	defaults := model.DefaultConfig()

	cmd.PersistentFlags().StringP("profile", "P", defaults.Profile, "Settings profile; each profile has its own slot and config directory")
	cmd.PersistentFlags().StringP("backend", "b", defaults.Backend, "Storage backend: file, sqlite, redis or memory")
	cmd.PersistentFlags().String("data-dir", defaults.DataDir, "Directory for the file and sqlite backends")
	cmd.PersistentFlags().String("storage-key", defaults.StorageKey, "Slot key the settings are stored under")
	cmd.PersistentFlags().String("sqlite-path", defaults.SQLitePath, "Database file for the sqlite backend")
	cmd.PersistentFlags().String("redis-url", defaults.RedisURL, "Connection URL for the redis backend")
	cmd.PersistentFlags().StringP("log-level", "l", defaults.LogLevel, "Log level")
	cmd.PersistentFlags().Duration("watch-debounce", defaults.WatchDebounce, "Quiet period before a watched change is reloaded")
	cmd.PersistentFlags().Bool("init-config", false, "Generate and save default config file")
}

// SetViperDefaults sets default values in viper configuration
func SetViperDefaults(v *viper.Viper) {
	defaults := model.DefaultConfig()
	v.SetDefault("profile", defaults.Profile)
	v.SetDefault("backend", defaults.Backend)
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("storage_key", defaults.StorageKey)
	v.SetDefault("sqlite_path", defaults.SQLitePath)
	v.SetDefault("redis_url", defaults.RedisURL)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("watch_debounce", defaults.WatchDebounce)
}

// SetViperEnvSettings configures viper environment variable settings
func SetViperEnvSettings(v *viper.Viper) {
	v.SetEnvPrefix(constant.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}
