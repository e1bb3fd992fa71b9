package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Canonical persisted keys.
const (
	FieldURL               = "url"
	FieldMaxNSteps         = "max_n_steps"
	FieldMaxTimeSeconds    = "max_time_seconds"
	FieldNavigationModel   = "navigation_model"
	FieldLocalizationModel = "localization_model"
	FieldValidationModel   = "validation_model"
	FieldHeadlessBrowser   = "headless_browser"
	FieldActionTimeout     = "action_timeout"
)

// FieldKind is the value type of a settings field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindBool
	KindModel
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindBool:
		return "boolean"
	case KindModel:
		return "model"
	default:
		return "unknown"
	}
}

// Field describes one settings field. Min and Max are the intended input
// range of integer fields; they are advisory and not enforced on load.
type Field struct {
	Key   string
	Camel string
	Kind  FieldKind
	Label string
	Min   int
	Max   int
}

// Fields lists every settings field in display order.
var Fields = []Field{
	{Key: FieldURL, Kind: KindString, Label: "Starting URL"},
	{Key: FieldMaxNSteps, Camel: "maxNSteps", Kind: KindInt, Label: "Max Steps", Min: 1, Max: 100},
	{Key: FieldMaxTimeSeconds, Camel: "maxTimeSeconds", Kind: KindInt, Label: "Max Time (seconds)", Min: 60, Max: 3600},
	{Key: FieldActionTimeout, Camel: "actionTimeout", Kind: KindInt, Label: "Action Timeout (seconds)", Min: 1, Max: 60},
	{Key: FieldNavigationModel, Camel: "navigationModel", Kind: KindModel, Label: "Navigation Model"},
	{Key: FieldLocalizationModel, Camel: "localizationModel", Kind: KindModel, Label: "Localization Model"},
	{Key: FieldValidationModel, Camel: "validationModel", Kind: KindModel, Label: "Validation Model"},
	{Key: FieldHeadlessBrowser, Camel: "headlessBrowser", Kind: KindBool, Label: "Run browser in headless mode"},
}

// ModelFields are the keys resolved through the model registry on load.
var ModelFields = []string{FieldNavigationModel, FieldLocalizationModel, FieldValidationModel}

var fieldByKey = func() map[string]Field {
	m := make(map[string]Field, len(Fields)*2)
	for _, f := range Fields {
		m[f.Key] = f
		if f.Camel != "" {
			m[f.Camel] = f
		}
	}
	return m
}()

// LookupField finds a field by its canonical or camelCase key.
func LookupField(key string) (Field, bool) {
	f, ok := fieldByKey[key]
	return f, ok
}

// UnknownFieldError is returned for keys that name no settings field.
type UnknownFieldError struct {
	Key string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown settings field %q", e.Key)
}

// FieldTypeError is returned when a value cannot be stored in a field.
type FieldTypeError struct {
	Key   string
	Kind  FieldKind
	Value any
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %q expects a %s value, got %T", e.Key, e.Kind, e.Value)
}

// SetField stores value in the field named key. Values are coerced to the
// field's type but not range checked.
func (s *AgentSettings) SetField(key string, value any) error {
	f, ok := LookupField(key)
	if !ok {
		return &UnknownFieldError{Key: key}
	}
	switch f.Kind {
	case KindString:
		v, ok := value.(string)
		if !ok {
			return &FieldTypeError{Key: f.Key, Kind: f.Kind, Value: value}
		}
		s.URL = v
	case KindModel:
		var token ModelIdentifier
		switch v := value.(type) {
		case string:
			token = ModelIdentifier(v)
		case ModelIdentifier:
			token = v
		default:
			return &FieldTypeError{Key: f.Key, Kind: f.Kind, Value: value}
		}
		*s.modelField(f.Key) = token
	case KindInt:
		v, ok := AsInt(value)
		if !ok {
			return &FieldTypeError{Key: f.Key, Kind: f.Kind, Value: value}
		}
		*s.intField(f.Key) = v
	case KindBool:
		v, ok := value.(bool)
		if !ok {
			return &FieldTypeError{Key: f.Key, Kind: f.Kind, Value: value}
		}
		s.HeadlessBrowser = v
	}
	return nil
}

// Field returns the current value of the field named key.
func (s AgentSettings) Field(key string) (any, error) {
	f, ok := LookupField(key)
	if !ok {
		return nil, &UnknownFieldError{Key: key}
	}
	switch f.Kind {
	case KindString:
		return s.URL, nil
	case KindModel:
		return *s.modelField(f.Key), nil
	case KindInt:
		return *s.intField(f.Key), nil
	default:
		return s.HeadlessBrowser, nil
	}
}

// ParseFieldValue converts raw text typed by a user into a value suitable for
// SetField.
func ParseFieldValue(key, raw string) (any, error) {
	f, ok := LookupField(key)
	if !ok {
		return nil, &UnknownFieldError{Key: key}
	}
	switch f.Kind {
	case KindInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.Key, err)
		}
		return v, nil
	case KindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.Key, err)
		}
		return v, nil
	default:
		return raw, nil
	}
}

func (s *AgentSettings) modelField(key string) *ModelIdentifier {
	switch key {
	case FieldLocalizationModel:
		return &s.LocalizationModel
	case FieldValidationModel:
		return &s.ValidationModel
	default:
		return &s.NavigationModel
	}
}

func (s *AgentSettings) intField(key string) *int {
	switch key {
	case FieldMaxTimeSeconds:
		return &s.MaxTimeSeconds
	case FieldActionTimeout:
		return &s.ActionTimeout
	default:
		return &s.MaxNSteps
	}
}

// AsInt converts decoded JSON/YAML numbers to int. Non-integral or
// out-of-range numbers are rejected.
func AsInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		if v > math.MaxInt || v < math.MinInt {
			return 0, false
		}
		return int(v), true
	case uint64:
		if v > math.MaxInt {
			return 0, false
		}
		return int(v), true
	case float64:
		return floatToInt(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return AsInt(i)
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int(f), true
}
