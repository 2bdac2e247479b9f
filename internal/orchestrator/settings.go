package orchestrator

import "sync"

// AISettingsView is a plain snapshot of the runtime AI configuration, the
// shape the dashboard reads and writes.
type AISettingsView struct {
	Enabled      bool   `json:"enabled"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	APIKey       string `json:"apiKey,omitempty"`
	SystemPrompt string `json:"systemPrompt"`
}

// AISettings holds the mutable AI configuration. Startup values come from
// the environment; the dashboard can change them at runtime.
type AISettings struct {
	mu   sync.RWMutex
	view AISettingsView
}

// NewAISettings seeds the settings with startup values.
func NewAISettings(view AISettingsView) *AISettings {
	return &AISettings{view: view}
}

// Snapshot returns the current settings.
func (s *AISettings) Snapshot() AISettingsView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Apply merges the given changes. Empty strings leave the current value in
// place so the dashboard can toggle the flag without resending the key.
func (s *AISettings) Apply(changes AISettingsView) AISettingsView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Enabled = changes.Enabled
	if changes.Provider != "" {
		s.view.Provider = changes.Provider
	}
	if changes.Model != "" {
		s.view.Model = changes.Model
	}
	if changes.APIKey != "" {
		s.view.APIKey = changes.APIKey
	}
	if changes.SystemPrompt != "" {
		s.view.SystemPrompt = changes.SystemPrompt
	}
	return s.view
}
