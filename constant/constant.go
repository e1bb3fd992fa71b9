package constant

// ProjectName is used for config/data directory names and the CLI binary.
const ProjectName = "surferh"

// SettingsStorageKey names the persistent slot holding the agent settings.
const SettingsStorageKey = "surferh-agent-settings"

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "SURFERH"
