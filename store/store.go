package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hamidzr/surferh/constant"
	"github.com/hamidzr/surferh/model"
)

// SettingsStore persists agent settings in a single slot key. Load and Save
// never fail from the caller's point of view: storage problems are logged as
// warnings and absorbed.
type SettingsStore struct {
	slot   Slot
	key    string
	schema model.Schema
	log    logrus.FieldLogger
}

// Option customizes a SettingsStore.
type Option func(*SettingsStore)

// WithKey overrides the slot key.
func WithKey(key string) Option {
	return func(s *SettingsStore) {
		s.key = key
	}
}

// WithLogger sets the logger used for storage warnings.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *SettingsStore) {
		s.log = log
	}
}

func NewSettingsStore(slot Slot, schema model.Schema, opts ...Option) *SettingsStore {
	s := &SettingsStore{
		slot:   slot,
		key:    constant.SettingsStorageKey,
		schema: schema,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SettingsStore) Key() string {
	return s.key
}

func (s *SettingsStore) Schema() model.Schema {
	return s.schema
}

// Location describes where the settings are kept, for display.
func (s *SettingsStore) Location() string {
	if l, ok := s.slot.(Locator); ok {
		return l.Locate(s.key)
	}
	return fmt.Sprintf("%T (key %q)", s.slot, s.key)
}

// Load returns the persisted settings after migration. An empty slot, a
// storage error or unparsable content all yield the schema defaults.
func (s *SettingsStore) Load() model.AgentSettings {
	raw, err := s.read()
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.WithError(err).Warn("failed to load settings, using defaults")
		}
		return s.schema.Defaults
	}
	return model.Migrate(s.schema, raw)
}

// Save writes settings to the slot, replacing whatever was there.
func (s *SettingsStore) Save(settings model.AgentSettings) {
	if err := s.write(settings); err != nil {
		s.log.WithError(err).Warn("failed to save settings")
	}
}

// Clear empties the slot so the next Load returns defaults.
func (s *SettingsStore) Clear() {
	if err := s.slot.Remove(s.key); err != nil {
		s.log.WithError(&StorageError{Op: "remove", Key: s.key, Err: err}).Warn("failed to clear settings")
	}
}

// ReadRaw returns the slot content without any decoding.
func (s *SettingsStore) ReadRaw() (string, error) {
	value, err := s.slot.Get(s.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", err
		}
		return "", &StorageError{Op: "read", Key: s.key, Err: err}
	}
	return value, nil
}

func (s *SettingsStore) read() (map[string]any, error) {
	value, err := s.ReadRaw()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(value) == "" {
		return nil, ErrNotFound
	}
	raw, err := DecodeRecord([]byte(value))
	if err != nil {
		return nil, &StorageError{Op: "decode", Key: s.key, Err: err}
	}
	return raw, nil
}

func (s *SettingsStore) write(settings model.AgentSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return &StorageError{Op: "encode", Key: s.key, Err: err}
	}
	if err := s.slot.Set(s.key, string(data)); err != nil {
		return &StorageError{Op: "write", Key: s.key, Err: err}
	}
	return nil
}

// DecodeRecord parses persisted text into a loosely typed record. Anything
// other than a single JSON object is rejected.
func DecodeRecord(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "parsing settings json")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after settings object")
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, errors.Errorf("settings must be a JSON object, got %T", v)
	}
	return raw, nil
}
