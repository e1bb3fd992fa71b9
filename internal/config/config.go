package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/hamidzr/surferh/constant"
	"github.com/hamidzr/surferh/model"
)

// getConfigPaths returns the config directory paths in priority order
// prefers ~/.config over the platform config dir
func getConfigPaths(profile string) []string {
	var paths []string

	// when a profile is selected, prioritize namespaced configs
	if profile != "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			paths = append(paths, filepath.Join(homeDir, ".config", constant.ProjectName, profile))
			paths = append(paths, filepath.Join(homeDir, "."+constant.ProjectName, profile))
		}
		if configDir, err := os.UserConfigDir(); err == nil {
			paths = append(paths, filepath.Join(configDir, constant.ProjectName, profile))
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", constant.ProjectName))
		paths = append(paths, filepath.Join(homeDir, "."+constant.ProjectName))
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, constant.ProjectName))
	}
	paths = append(paths, ".")

	return paths
}

// getPreferredConfigDir returns the preferred config directory for writing
func getPreferredConfigDir(profile string) (string, error) {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", constant.ProjectName, profile), nil
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(userConfigDir, constant.ProjectName, profile), nil
	}
	return "", fmt.Errorf("unable to determine config directory")
}

// selectedProfile reads the profile before the config file is located, since
// the profile decides where to look.
func selectedProfile(cmd *cobra.Command) string {
	if flag := cmd.Flags().Lookup("profile"); flag != nil && flag.Changed {
		return flag.Value.String()
	}
	return os.Getenv(constant.EnvPrefix + "_PROFILE")
}

// InitConfig initializes Viper configuration with proper priority:
// 1. CLI flags (highest priority)
// 2. Environment variables
// 3. Config file (lowest priority)
func InitConfig(cmd *cobra.Command) (*model.Config, error) {
	v := viper.New()

	// look for config.yaml so data files next to it are never picked up
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	profile := selectedProfile(cmd)
	for _, path := range getConfigPaths(profile) {
		v.AddConfigPath(path)
	}

	SetViperEnvSettings(v)
	SetViperDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// config file not found is ok, we'll use defaults + env vars + flags
	} else if err := validateConfigFileKeys(v.ConfigFileUsed()); err != nil {
		return nil, err
	}
	// aliases move camelCase values already read from the file onto their
	// snake_case keys, so they are registered after reading
	registerConfigKeyAliases(v)

	if err := bindConfigFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}

	var config model.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if config.Profile == "" {
		config.Profile = profile
	}
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validateConfig(config *model.Config) error {
	switch config.Backend {
	case model.BackendFile, model.BackendSQLite, model.BackendRedis, model.BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q; use one of %s, %s, %s, %s", config.Backend,
			model.BackendFile, model.BackendSQLite, model.BackendRedis, model.BackendMemory)
	}
	if config.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must not be negative, got %s", config.WatchDebounce)
	}
	return nil
}

// InitConfigFile generates and saves a default config file to the appropriate location
func InitConfigFile(profile string) (string, error) {
	configDir, err := getPreferredConfigDir(profile)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}

	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists at %s", configPath)
	}

	defaults := model.DefaultConfig()
	defaults.Profile = profile

	yamlData, err := yaml.Marshal(configFile{
		Profile:       defaults.Profile,
		Backend:       defaults.Backend,
		DataDir:       defaults.DataDir,
		StorageKey:    defaults.StorageKey,
		SQLitePath:    defaults.SQLitePath,
		RedisURL:      defaults.RedisURL,
		LogLevel:      defaults.LogLevel,
		WatchDebounce: defaults.WatchDebounce.String(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	header := `# surferh configuration file
# Generated automatically - customize as needed
#
# backend options: file, sqlite, redis, memory
# data_dir and sqlite_path default to the user data directory when empty
#

`

	if err := os.WriteFile(configPath, []byte(header+string(yamlData)), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file %s: %w", configPath, err)
	}

	return configPath, nil
}

// configFile is the on-disk shape of model.Config; durations are written in
// their readable form.
type configFile struct {
	Profile       string `yaml:"profile"`
	Backend       string `yaml:"backend"`
	DataDir       string `yaml:"data_dir"`
	StorageKey    string `yaml:"storage_key"`
	SQLitePath    string `yaml:"sqlite_path"`
	RedisURL      string `yaml:"redis_url"`
	LogLevel      string `yaml:"log_level"`
	WatchDebounce string `yaml:"watch_debounce"`
}
