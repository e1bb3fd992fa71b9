package model

import "strings"

// Model providers recognised by the agent server.
const (
	ProviderOpenAI = "openai"
	ProviderHolo   = "holo"
)

// StartAgentRequest is the body the agent server expects when a run starts.
type StartAgentRequest struct {
	Task                  string `json:"task"`
	URL                   string `json:"url"`
	MaxNSteps             int    `json:"max_n_steps"`
	MaxTimeSeconds        int    `json:"max_time_seconds"`
	ModelNameNavigation   string `json:"model_name_navigation"`
	ModelNameLocalization string `json:"model_name_localization"`
	ModelNameValidation   string `json:"model_name_validation"`
	HeadlessBrowser       bool   `json:"headless_browser"`
	ActionTimeout         int    `json:"action_timeout"`
}

// NewStartAgentRequest builds a start request for task from settings.
func NewStartAgentRequest(task string, settings AgentSettings) StartAgentRequest {
	return StartAgentRequest{
		Task:                  task,
		URL:                   settings.URL,
		MaxNSteps:             settings.MaxNSteps,
		MaxTimeSeconds:        settings.MaxTimeSeconds,
		ModelNameNavigation:   string(settings.NavigationModel),
		ModelNameLocalization: string(settings.LocalizationModel),
		ModelNameValidation:   string(settings.ValidationModel),
		HeadlessBrowser:       settings.HeadlessBrowser,
		ActionTimeout:         settings.ActionTimeout,
	}
}

// ProviderFor reports which provider serves token. Anything that is not a
// Holo model is sent to OpenAI, matching the server's routing.
func ProviderFor(token ModelIdentifier) string {
	lower := strings.ToLower(string(token))
	if strings.Contains(lower, "holo") && !strings.Contains(lower, "gpt") {
		return ProviderHolo
	}
	return ProviderOpenAI
}
