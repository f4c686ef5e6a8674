package configtree

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Decode populates out (a pointer to a typed schema struct) from a subtree
// dictionary. Struct fields use yaml tags named after the CLI nodes, e.g.
// `yaml:"default-metric"`.
func Decode(dict map[string]any, out any) error {
	var n yaml.Node
	if err := n.Encode(dict); err != nil {
		return fmt.Errorf("encoding config dict: %w", err)
	}
	if err := n.Decode(out); err != nil {
		return fmt.Errorf("decoding config dict: %w", err)
	}
	return nil
}

// Flag is a valueless leaf node such as "disable". It is true when the node
// is present.
type Flag bool

// UnmarshalYAML accepts an empty mapping (the tree form of a valueless leaf)
// or a boolean scalar.
func (f *Flag) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.MappingNode:
		*f = true
		return nil
	case yaml.ScalarNode:
		if n.Value == "" {
			*f = true
			return nil
		}
		var b bool
		if err := n.Decode(&b); err != nil {
			return fmt.Errorf("line %d: %q is not a valueless node", n.Line, n.Value)
		}
		*f = Flag(b)
		return nil
	}
	return fmt.Errorf("line %d: unexpected node for valueless leaf", n.Line)
}

// Values is a multi-value leaf. A single scalar decodes to a one-element slice.
type Values []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (v *Values) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*v = Values{n.Value}
		return nil
	case yaml.SequenceNode:
		out := make(Values, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: multi-value leaf must hold scalars", c.Line)
			}
			out = append(out, c.Value)
		}
		*v = out
		return nil
	}
	return fmt.Errorf("line %d: unexpected node for multi-value leaf", n.Line)
}
