package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/schema"
)

// Spec is the contract of one component type.
type Spec struct {
	Type            ComponentType
	Category        Category
	Description     string
	Props           schema.Schema
	AcceptsChildren bool
}

// Catalog holds the component specs, keyed by type.
type Catalog struct {
	specs map[ComponentType]Spec
	order []ComponentType
}

// New builds a catalog from the given specs. Later specs replace earlier ones
// with the same type.
func New(specs ...Spec) *Catalog {
	c := &Catalog{specs: make(map[ComponentType]Spec, len(specs))}
	for _, s := range specs {
		if _, exists := c.specs[s.Type]; !exists {
			c.order = append(c.order, s.Type)
		}
		c.specs[s.Type] = s
	}
	return c
}

// Lookup returns the spec for a raw type name.
func (c *Catalog) Lookup(name string) (Spec, bool) {
	s, ok := c.specs[ComponentType(name)]
	return s, ok
}

// Parse maps a raw type name to its ComponentType, or Unknown.
func (c *Catalog) Parse(name string) ComponentType {
	if _, ok := c.specs[ComponentType(name)]; ok {
		return ComponentType(name)
	}
	return Unknown
}

// Specs returns all specs in declaration order.
func (c *Catalog) Specs() []Spec {
	out := make([]Spec, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.specs[t])
	}
	return out
}

// Names returns all component names in declaration order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, string(t))
	}
	return out
}

// Defaults returns the default props for a component type.
func (c *Catalog) Defaults(t ComponentType) map[string]any {
	s, ok := c.specs[t]
	if !ok {
		return map[string]any{}
	}
	return s.Props.Defaults()
}

// ValidateProps checks props against the component's schema.
// Unknown types have no schema and always pass.
func (c *Catalog) ValidateProps(t ComponentType, props map[string]any) error {
	s, ok := c.specs[t]
	if !ok {
		return nil
	}
	return schema.Validate(s.Props, props)
}

// Describe renders the catalog as compact text for a model prompt.
func (c *Catalog) Describe() string {
	var b strings.Builder
	var current Category
	for _, s := range c.Specs() {
		if s.Category != current {
			current = s.Category
			fmt.Fprintf(&b, "\n## %s\n", strings.ToUpper(string(current)))
		}
		fmt.Fprintf(&b, "- %s: %s", s.Type, s.Description)
		if s.AcceptsChildren {
			b.WriteString(" (accepts children)")
		}
		b.WriteString("\n")
		for _, name := range s.Props.Keys() {
			f := s.Props[name]
			req := ""
			if f.Required {
				req = ", required"
			}
			fmt.Fprintf(&b, "    %s (%s%s)", name, f.Type.Name(), req)
			if f.Description != "" {
				fmt.Fprintf(&b, ": %s", f.Description)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimLeft(b.String(), "\n")
}

type specJSON struct {
	Type            ComponentType `json:"type"`
	Category        Category      `json:"category"`
	Description     string        `json:"description"`
	Props           schema.Schema `json:"props"`
	AcceptsChildren bool          `json:"accepts_children"`
}

// MarshalJSON serializes the catalog as an ordered list of specs.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	out := make([]specJSON, 0, len(c.order))
	for _, s := range c.Specs() {
		out = append(out, specJSON{
			Type:            s.Type,
			Category:        s.Category,
			Description:     s.Description,
			Props:           s.Props,
			AcceptsChildren: s.AcceptsChildren,
		})
	}
	return json.Marshal(out)
}
