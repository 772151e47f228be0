package domain

// UINode is a single element of a UITree.
type UINode struct {
	Key      string         `json:"key"`
	Type     string         `json:"type"`
	Props    map[string]any `json:"props,omitempty"`
	Children []string       `json:"children,omitempty"`
}

// UITree describes a UI as a root id plus a flat map of node id to node.
// Children reference other nodes by id, so a malformed tree can contain dangling
// references or cycles; see the validator and interpreter for how those are handled.
type UITree struct {
	Root     string            `json:"root"`
	Elements map[string]UINode `json:"elements"`
}

// Node returns the node stored under id.
func (t *UITree) Node(id string) (UINode, bool) {
	if t == nil || t.Elements == nil {
		return UINode{}, false
	}
	n, ok := t.Elements[id]
	return n, ok
}

// Len returns the number of elements in the tree, reachable or not.
func (t *UITree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Elements)
}

// Clone returns a deep copy of the tree. Props are copied recursively for maps and
// slices so that local optimistic edits never leak into the original.
func (t *UITree) Clone() *UITree {
	if t == nil {
		return nil
	}
	out := &UITree{
		Root:     t.Root,
		Elements: make(map[string]UINode, len(t.Elements)),
	}
	for id, n := range t.Elements {
		out.Elements[id] = n.Clone()
	}
	return out
}

// Clone returns a deep copy of the node.
func (n UINode) Clone() UINode {
	c := UINode{Key: n.Key, Type: n.Type}
	if n.Props != nil {
		c.Props = CloneProps(n.Props)
	}
	if n.Children != nil {
		c.Children = append([]string(nil), n.Children...)
	}
	return c
}

// CloneProps deep-copies a props map.
func CloneProps(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneProps(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = CloneProps(item)
		}
		return out
	default:
		return v
	}
}
