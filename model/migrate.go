package model

// Migrate turns a loosely typed persisted record into complete, valid
// settings. Keys absent from raw keep their default. Model fields go through
// ResolveModel. Other fields are copied when they hold a value of the right
// type and otherwise keep their default. Integer ranges are not enforced.
func Migrate(schema Schema, raw map[string]any) AgentSettings {
	out := schema.Defaults
	for _, f := range Fields {
		if f.Kind == KindModel {
			continue
		}
		value, ok := raw[f.Key]
		if !ok {
			continue
		}
		// a mistyped value leaves the default in place
		_ = out.SetField(f.Key, value)
	}
	for _, key := range ModelFields {
		*out.modelField(key) = schema.ResolveModel(key, raw[key])
	}
	return out
}

// ResolveModel picks the token stored for a model field: non-strings and
// unknown strings fall back to the field default, legacy tokens are mapped to
// their replacement, and registered tokens are kept.
func (s Schema) ResolveModel(field string, value any) ModelIdentifier {
	var name string
	switch v := value.(type) {
	case string:
		name = v
	case ModelIdentifier:
		name = string(v)
	default:
		return s.FallbackModel(field)
	}
	if replacement, ok := s.Legacy[name]; ok {
		return replacement
	}
	if s.Models.Contains(name) {
		return ModelIdentifier(name)
	}
	return s.FallbackModel(field)
}
