package core

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hamidzr/surferh/examples"
	"github.com/hamidzr/surferh/model"
	"github.com/hamidzr/surferh/store"
)

// ErrNotStarted is returned by mutations made before Start loaded the settings.
var ErrNotStarted = errors.New("session not started")

// Session owns the in-memory settings for one run of the host application.
// Settings are loaded once by Start and written back after every mutation.
type Session struct {
	mu       sync.Mutex
	store    *store.SettingsStore
	settings model.AgentSettings
	task     string
	started  bool
}

func NewSession(st *store.SettingsStore) *Session {
	return &Session{
		store:    st,
		settings: st.Schema().Defaults,
	}
}

// Start loads the persisted settings. Calling it again reloads them.
func (s *Session) Start() model.AgentSettings {
	loaded := s.store.Load()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = loaded
	s.started = true
	return loaded
}

// Settings returns a copy of the current settings.
func (s *Session) Settings() model.AgentSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Task returns the task text picked through SelectExample, if any.
func (s *Session) Task() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task
}

// Set applies a single field edit and persists the result. The value is
// converted to the field type but not range checked; ranges are the editor's
// concern.
func (s *Session) Set(key string, value any) error {
	return s.Update(func(settings *model.AgentSettings) error {
		return settings.SetField(key, value)
	})
}

// SetString parses raw user input for key and applies it like Set.
func (s *Session) SetString(key, raw string) error {
	value, err := model.ParseFieldValue(key, raw)
	if err != nil {
		return err
	}
	return s.Set(key, value)
}

// Update runs fn against a copy of the settings and, when fn succeeds,
// installs and saves the copy.
func (s *Session) Update(fn func(*model.AgentSettings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	next := s.settings
	if err := fn(&next); err != nil {
		return err
	}
	s.settings = next
	s.store.Save(next)
	return nil
}

// SelectExample records task as the current task and, when the task is one of
// the suggested examples, points the starting URL at the page it needs. It
// reports whether the URL changed.
func (s *Session) SelectExample(task string) (bool, error) {
	url, mapped := examples.URLFor(task)
	err := s.Update(func(settings *model.AgentSettings) error {
		if mapped {
			settings.URL = url
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	s.task = task
	s.mu.Unlock()
	return mapped, nil
}

// Reset restores the schema defaults and persists them.
func (s *Session) Reset() (model.AgentSettings, error) {
	defaults := s.store.Schema().Defaults
	err := s.Update(func(settings *model.AgentSettings) error {
		*settings = defaults
		return nil
	})
	return defaults, err
}

// StartRequest builds the agent start payload for task from the current
// settings.
func (s *Session) StartRequest(task string) model.StartAgentRequest {
	return model.NewStartAgentRequest(task, s.Settings())
}

// Watch adopts settings written by other processes until ctx is done.
// onChange, when set, is called with every adopted value.
func (s *Session) Watch(ctx context.Context, debounce time.Duration, onChange func(model.AgentSettings)) error {
	return s.store.Watch(ctx, debounce, func(settings model.AgentSettings) {
		s.mu.Lock()
		s.settings = settings
		s.started = true
		s.mu.Unlock()
		if onChange != nil {
			onChange(settings)
		}
	})
}
