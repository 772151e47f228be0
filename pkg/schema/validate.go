package schema

import "sort"

// Field describes one prop of a component.
type Field struct {
	Type        Type
	Required    bool
	Default     any
	Description string
}

// Schema is a map of prop names to their fields.
type Schema map[string]Field

// Keys returns the prop names in sorted order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Defaults returns a fresh map holding every declared default value.
func (s Schema) Defaults() map[string]any {
	out := make(map[string]any, len(s))
	for name, f := range s {
		if f.Default != nil {
			out[name] = f.Default
		}
	}
	return out
}

// Validate checks if data conforms to the schema.
// Unknown keys are ignored; missing required keys and type mismatches are reported.
// Errors are returned in prop-name order.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	var errs []error
	for _, name := range schema.Keys() {
		field := schema[name]
		value, exists := data[name]
		if !exists || value == nil {
			if field.Required {
				errs = append(errs, &ValidationError{Key: name, Reason: "required"})
			}
			continue
		}
		if field.Type == nil {
			continue
		}
		if err := field.Type.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    name,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
