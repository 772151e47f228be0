package schema

import (
	"encoding/json"
	"fmt"
)

type fieldJSON struct {
	Type        string `json:"type"`
	Required    bool   `json:"required,omitempty"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// MarshalJSON serializes the schema as a map of prop names to type descriptors.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}

	raw := make(map[string]fieldJSON, len(s))
	for key, f := range s {
		if f.Type == nil {
			return nil, fmt.Errorf("prop %s: type is nil", key)
		}
		raw[key] = fieldJSON{
			Type:        f.Type.Name(),
			Required:    f.Required,
			Default:     f.Default,
			Description: f.Description,
		}
	}
	return json.Marshal(raw)
}
