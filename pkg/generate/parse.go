package generate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// StripFences removes a surrounding Markdown code fence (``` or ```json), if any.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// Drop the opening fence line, including any language tag.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseTree decodes the model's reply into a UITree. The reply must be exactly one
// JSON object with root and elements; there is no partial recovery.
func ParseTree(raw string) (*domain.UITree, error) {
	text := StripFences(raw)

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var probe map[string]json.RawMessage
	if err := dec.Decode(&probe); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidJSON, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after the JSON object", domain.ErrInvalidJSON)
	}

	rootRaw, hasRoot := probe["root"]
	elemsRaw, hasElems := probe["elements"]
	if !hasRoot || !hasElems {
		return nil, fmt.Errorf("%w: missing root or elements", domain.ErrInvalidTree)
	}

	tree := &domain.UITree{}
	if err := json.Unmarshal(rootRaw, &tree.Root); err != nil {
		return nil, fmt.Errorf("%w: root must be a string", domain.ErrInvalidTree)
	}
	edec := json.NewDecoder(bytes.NewReader(elemsRaw))
	edec.UseNumber()
	if err := edec.Decode(&tree.Elements); err != nil {
		return nil, fmt.Errorf("%w: elements: %v", domain.ErrInvalidTree, err)
	}
	if tree.Elements == nil {
		return nil, fmt.Errorf("%w: elements is null", domain.ErrInvalidTree)
	}
	return tree, nil
}
