package render

import (
	"encoding/json"
)

type viewJSON struct {
	Root         any       `json:"root"`
	Warnings     []Warning `json:"warnings,omitempty"`
	Elements     int       `json:"elements"`
	Placeholders int       `json:"placeholders"`
}

// MarshalJSON serializes the view as a nested element tree, each element tagged
// with its component type.
func (v *View) MarshalJSON() ([]byte, error) {
	root, err := elementJSON(v.Root)
	if err != nil {
		return nil, err
	}
	return json.Marshal(viewJSON{
		Root:         root,
		Warnings:     v.Warnings,
		Elements:     v.Elements,
		Placeholders: v.Placeholders,
	})
}

func elementJSON(e Element) (map[string]any, error) {
	if e == nil {
		return nil, nil
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if k := e.Kind(); k != "" {
		out["type"] = string(k)
	} else {
		out["type"] = "Placeholder"
	}
	if c, ok := e.(Container); ok {
		children := make([]any, 0, len(c.Items()))
		for _, child := range c.Items() {
			cj, err := elementJSON(child)
			if err != nil {
				return nil, err
			}
			children = append(children, cj)
		}
		out["children"] = children
	}
	return out, nil
}

// Walk calls fn for e and every descendant, depth first in children order.
func Walk(e Element, fn func(Element)) {
	if e == nil {
		return
	}
	fn(e)
	if c, ok := e.(Container); ok {
		for _, child := range c.Items() {
			Walk(child, fn)
		}
	}
}

// Find returns the first element with the given id.
func Find(root Element, id string) Element {
	var found Element
	Walk(root, func(e Element) {
		if found == nil && e.ID() == id {
			found = e
		}
	})
	return found
}
