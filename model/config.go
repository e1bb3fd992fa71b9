package model

import (
	"time"

	"github.com/hamidzr/surferh/constant"
)

// Storage backends understood by store.OpenSlot.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds the host configuration of the settings manager: where the
// settings slot lives and how the process logs.
type Config struct {
	Profile       string        `mapstructure:"profile" yaml:"profile"`
	Backend       string        `mapstructure:"backend" yaml:"backend"`
	DataDir       string        `mapstructure:"data_dir" yaml:"data_dir"`
	StorageKey    string        `mapstructure:"storage_key" yaml:"storage_key"`
	SQLitePath    string        `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	RedisURL      string        `mapstructure:"redis_url" yaml:"redis_url"`
	LogLevel      string        `mapstructure:"log_level" yaml:"log_level"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce" yaml:"watch_debounce"`
}

// DefaultConfig returns a config with default values. An empty DataDir or
// SQLitePath is resolved against the user's data directory by the store.
func DefaultConfig() *Config {
	return &Config{
		Profile:       "",
		Backend:       BackendFile,
		DataDir:       "",
		StorageKey:    constant.SettingsStorageKey,
		SQLitePath:    "",
		RedisURL:      "redis://localhost:6379/0",
		LogLevel:      "warn",
		WatchDebounce: 200 * time.Millisecond,
	}
}

// SlotKey is the storage key settings are kept under. Profiles get their own
// key so they never share a slot.
func (c *Config) SlotKey() string {
	key := c.StorageKey
	if key == "" {
		key = constant.SettingsStorageKey
	}
	if c.Profile == "" {
		return key
	}
	return key + "-" + c.Profile
}
