package model

// ModelIdentifier is the canonical token of a selectable model backend.
type ModelIdentifier string

const (
	ModelGPT41   ModelIdentifier = "gpt-4.1"
	ModelHolo17B ModelIdentifier = "holo1-7b-20250521"
	ModelHolo15  ModelIdentifier = "holo1-5-7b-20250915"
)

// ModelEntry is one row of the model registry.
type ModelEntry struct {
	Name  string
	Token ModelIdentifier
	Label string
}

// Registry is the ordered set of currently selectable models.
type Registry []ModelEntry

// Tokens returns the registered tokens in registry order.
func (r Registry) Tokens() []ModelIdentifier {
	tokens := make([]ModelIdentifier, 0, len(r))
	for _, entry := range r {
		tokens = append(tokens, entry.Token)
	}
	return tokens
}

// Contains reports whether token is a currently registered model.
func (r Registry) Contains(token string) bool {
	for _, entry := range r {
		if string(entry.Token) == token {
			return true
		}
	}
	return false
}

// Label returns the display label for token, or the token itself when it is
// not registered.
func (r Registry) Label(token ModelIdentifier) string {
	for _, entry := range r {
		if entry.Token == token {
			return entry.Label
		}
	}
	return string(token)
}

// Lookup returns the entry registered under the logical name.
func (r Registry) Lookup(name string) (ModelEntry, bool) {
	for _, entry := range r {
		if entry.Name == name {
			return entry, true
		}
	}
	return ModelEntry{}, false
}

// Models is the production model registry.
var Models = Registry{
	{Name: "GPT4_1", Token: ModelGPT41, Label: "GPT-4.1"},
	{Name: "HOLO1_7B", Token: ModelHolo17B, Label: "Holo1-7B"},
	{Name: "HOLO1_5", Token: ModelHolo15, Label: "Holo1-5-7B"},
}

// LegacyModels maps deprecated tokens to their current replacement.
var LegacyModels = map[string]ModelIdentifier{
	"h-model": ModelHolo17B,
	"gpt-4.1": ModelGPT41,
}

// DefaultURL is the starting page of a fresh install.
const DefaultURL = "https://www.hcompany.ai"

// AgentSettings holds the runtime settings handed to the browsing agent.
type AgentSettings struct {
	URL               string          `json:"url" yaml:"url"`
	MaxNSteps         int             `json:"max_n_steps" yaml:"max_n_steps"`
	MaxTimeSeconds    int             `json:"max_time_seconds" yaml:"max_time_seconds"`
	NavigationModel   ModelIdentifier `json:"navigation_model" yaml:"navigation_model"`
	LocalizationModel ModelIdentifier `json:"localization_model" yaml:"localization_model"`
	ValidationModel   ModelIdentifier `json:"validation_model" yaml:"validation_model"`
	HeadlessBrowser   bool            `json:"headless_browser" yaml:"headless_browser"`
	ActionTimeout     int             `json:"action_timeout" yaml:"action_timeout"`
}

// DefaultSettings returns the settings of a fresh install.
func DefaultSettings() AgentSettings {
	return AgentSettings{
		URL:               DefaultURL,
		MaxNSteps:         30,
		MaxTimeSeconds:    600,
		NavigationModel:   ModelHolo17B,
		LocalizationModel: ModelHolo15,
		ValidationModel:   ModelHolo17B,
		HeadlessBrowser:   true,
		ActionTimeout:     10,
	}
}

// Schema bundles everything the load path needs to turn untrusted persisted
// data into valid settings. Treat it as immutable once built.
type Schema struct {
	Defaults AgentSettings
	Models   Registry
	Legacy   map[string]ModelIdentifier
}

// DefaultSchema returns the production schema.
func DefaultSchema() Schema {
	legacy := make(map[string]ModelIdentifier, len(LegacyModels))
	for k, v := range LegacyModels {
		legacy[k] = v
	}
	models := make(Registry, len(Models))
	copy(models, Models)
	return Schema{
		Defaults: DefaultSettings(),
		Models:   models,
		Legacy:   legacy,
	}
}

// FallbackModel returns the token used when a model field cannot be resolved.
func (s Schema) FallbackModel(field string) ModelIdentifier {
	switch field {
	case FieldNavigationModel:
		return s.Defaults.NavigationModel
	case FieldLocalizationModel:
		return s.Defaults.LocalizationModel
	case FieldValidationModel:
		return s.Defaults.ValidationModel
	}
	return ""
}
