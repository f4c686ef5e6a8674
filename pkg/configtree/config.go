package configtree

import "sort"

// Config is the configuration view handed to one script invocation: the
// proposed tree being committed and the effective tree that is currently
// applied. Queries read the proposed tree.
type Config struct {
	Proposed  *Tree
	Effective *Tree
}

// NewConfig returns a Config over the given trees. A nil effective tree is
// treated as empty.
func NewConfig(proposed, effective *Tree) *Config {
	if proposed == nil {
		proposed = New()
	}
	if effective == nil {
		effective = New()
	}
	return &Config{Proposed: proposed, Effective: effective}
}

// Exists reports whether path exists in the proposed configuration.
func (c *Config) Exists(path ...string) bool {
	return c.Proposed.Exists(path...)
}

// ReturnValue returns a leaf value from the proposed configuration.
func (c *Config) ReturnValue(path ...string) (string, bool) {
	return c.Proposed.ReturnValue(path...)
}

// ReturnValues returns all values of a leaf in the proposed configuration.
func (c *Config) ReturnValues(path ...string) []string {
	return c.Proposed.ReturnValues(path...)
}

// ListNodes returns the sorted children of path in the proposed configuration.
func (c *Config) ListNodes(path ...string) []string {
	return c.Proposed.ListNodes(path...)
}

// GetConfigDict returns a copy of the proposed subtree at path.
func (c *Config) GetConfigDict(path ...string) map[string]any {
	return c.Proposed.GetConfigDict(path...)
}

// NodeChanged returns the children of path that exist in the effective
// configuration but are gone from the proposed one, sorted.
func (c *Config) NodeChanged(path ...string) []string {
	var removed []string
	for _, name := range c.Effective.ListNodes(path...) {
		if !c.Proposed.Exists(append(append([]string(nil), path...), name)...) {
			removed = append(removed, name)
		}
	}
	sort.Strings(removed)
	return removed
}
