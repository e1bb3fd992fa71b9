package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	yamlv3 "gopkg.in/yaml.v3"
)

type configKeyVariant struct {
	canonical string
	camel     string
	flag      string
}

var configKeyVariants = []configKeyVariant{
	{canonical: "profile", flag: "profile"},
	{canonical: "backend", flag: "backend"},
	{canonical: "data_dir", camel: "dataDir", flag: "data-dir"},
	{canonical: "storage_key", camel: "storageKey", flag: "storage-key"},
	{canonical: "sqlite_path", camel: "sqlitePath", flag: "sqlite-path"},
	{canonical: "redis_url", camel: "redisUrl", flag: "redis-url"},
	{canonical: "log_level", camel: "logLevel", flag: "log-level"},
	{canonical: "watch_debounce", camel: "watchDebounce", flag: "watch-debounce"},
}

var canonicalByKey = func() map[string]string {
	m := make(map[string]string, len(configKeyVariants)*2)
	for _, variant := range configKeyVariants {
		m[variant.canonical] = variant.canonical
		if variant.camel != "" {
			m[variant.camel] = variant.canonical
		}
	}
	return m
}()

func registerConfigKeyAliases(v *viper.Viper) {
	for _, variant := range configKeyVariants {
		if variant.camel != "" {
			v.RegisterAlias(variant.camel, variant.canonical)
		}
	}
}

// bindConfigFlags binds each kebab-case flag to its snake_case key.
func bindConfigFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, variant := range configKeyVariants {
		flag := flags.Lookup(variant.flag)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(variant.canonical, flag); err != nil {
			return fmt.Errorf("error binding flag %s: %w", variant.flag, err)
		}
	}
	return nil
}

func validateConfigFileKeys(configPath string) error {
	if configPath == "" {
		return nil
	}

	displayPath := configFileDisplayPath(configPath)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("error reading config file %s: %w", displayPath, err)
	}

	if len(data) == 0 {
		return nil
	}

	var raw map[string]interface{}
	if err := yamlv3.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", displayPath, err)
	}

	seen := make(map[string]string, len(raw))
	for key := range raw {
		canonical, ok := canonicalByKey[key]
		if !ok {
			return fmt.Errorf("config file %s contains invalid key %q", displayPath, key)
		}
		if previous, exists := seen[canonical]; exists && previous != key {
			return fmt.Errorf("config file %s contains both %q (%s) and %q (%s); use one naming style for %q", displayPath, previous, keyStyle(previous), key, keyStyle(key), canonical)
		}
		seen[canonical] = key
	}

	return nil
}

func keyStyle(key string) string {
	if strings.Contains(key, "_") {
		return "snake_case"
	}
	if strings.Contains(key, "-") {
		return "kebab-case"
	}
	if len(key) == 0 {
		return "unknown style"
	}
	return "camelCase"
}

func configFileDisplayPath(path string) string {
	if path == "" {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
