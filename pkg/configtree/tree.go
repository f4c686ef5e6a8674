// Package configtree holds the hierarchical configuration store that every
// configuration script reads from.
//
// A tree is a nested map. Interior nodes are maps, tag nodes are maps keyed by
// the tag value, leaf values are strings (or string slices for multi-value
// leaves) and valueless leaves such as "disable" are empty maps:
//
//	protocols:
//	  rip:
//	    network: [10.0.0.0/8, 172.16.0.0/12]
//	    interface:
//	      eth0:
//	        split-horizon:
//	          disable: {}
package configtree

import (
	"fmt"
	"sort"
	"strings"
)

// Tree is one complete configuration (proposed or effective).
type Tree struct {
	root map[string]any
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{root: map[string]any{}}
}

// FromMap builds a tree from a generic nested map, normalizing scalars to
// strings, sequences to []string and nil values to valueless leaves.
func FromMap(m map[string]any) (*Tree, error) {
	root, err := normalizeMap(m, nil)
	if err != nil {
		return nil, err
	}
	return &Tree{root: root}, nil
}

func normalizeMap(m map[string]any, path []string) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		nv, err := normalizeValue(v, append(append([]string(nil), path...), k))
		if err != nil {
			return nil, err
		}
		out[k] = nv
	}
	return out, nil
}

func normalizeValue(v any, path []string) (any, error) {
	switch val := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return normalizeMap(val, path)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, vv := range val {
			m[fmt.Sprint(k)] = vv
		}
		return normalizeMap(m, path)
	case []string:
		return append([]string(nil), val...), nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			switch item.(type) {
			case map[string]any, map[any]any, []any, nil:
				return nil, fmt.Errorf("%s: multi-value leaf must hold scalars", strings.Join(path, " "))
			}
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	case string:
		return val, nil
	default:
		return fmt.Sprint(val), nil
	}
}

// node walks path and returns the value found there.
func (t *Tree) node(path []string) (any, bool) {
	if t == nil {
		return nil, false
	}
	var cur any = t.root
	for _, elem := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[elem]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Exists reports whether a node exists at path. The empty path is the root
// and always exists.
func (t *Tree) Exists(path ...string) bool {
	_, ok := t.node(path)
	return ok
}

// ReturnValue returns the value of a single-value leaf. A multi-value leaf
// returns its first value.
func (t *Tree) ReturnValue(path ...string) (string, bool) {
	v, ok := t.node(path)
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case []string:
		if len(val) == 0 {
			return "", false
		}
		return val[0], true
	}
	return "", false
}

// ReturnValues returns all values of a leaf. A single-value leaf yields a
// one-element slice.
func (t *Tree) ReturnValues(path ...string) []string {
	v, ok := t.node(path)
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case string:
		return []string{val}
	case []string:
		return append([]string(nil), val...)
	}
	return nil
}

// ListNodes returns the sorted child names of the node at path.
func (t *Tree) ListNodes(path ...string) []string {
	v, ok := t.node(path)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return sortedKeys(m)
}

// GetConfigDict returns a deep copy of the subtree at path. A missing or
// non-interior node yields an empty map.
func (t *Tree) GetConfigDict(path ...string) map[string]any {
	v, ok := t.node(path)
	if !ok {
		return map[string]any{}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return copyMap(m)
}

// Set stores value at path, creating interior nodes as needed. value may be
// a string, []string, or a nested map; nil stores a valueless leaf.
func (t *Tree) Set(value any, path ...string) error {
	if len(path) == 0 {
		return fmt.Errorf("set: empty path")
	}
	nv, err := normalizeValue(value, path)
	if err != nil {
		return err
	}
	parent, err := t.ensure(path[:len(path)-1])
	if err != nil {
		return err
	}
	parent[path[len(path)-1]] = nv
	return nil
}

// Delete removes the node at path. Deleting a missing node is a no-op.
func (t *Tree) Delete(path ...string) {
	if len(path) == 0 {
		t.root = map[string]any{}
		return
	}
	v, ok := t.node(path[:len(path)-1])
	if !ok {
		return
	}
	if m, ok := v.(map[string]any); ok {
		delete(m, path[len(path)-1])
	}
}

// ReplaceSubtree replaces the node at path with a copy of sub's subtree at
// the same path. If sub has no such node the path is deleted.
func (t *Tree) ReplaceSubtree(sub *Tree, path ...string) error {
	v, ok := sub.node(path)
	if !ok {
		t.Delete(path...)
		return nil
	}
	if len(path) == 0 {
		m, _ := v.(map[string]any)
		t.root = copyMap(m)
		return nil
	}
	return t.Set(copyValue(v), path...)
}

// Map returns a deep copy of the whole tree.
func (t *Tree) Map() map[string]any {
	if t == nil {
		return map[string]any{}
	}
	return copyMap(t.root)
}

func (t *Tree) ensure(path []string) (map[string]any, error) {
	cur := t.root
	for i, elem := range path {
		next, ok := cur[elem]
		if !ok {
			m := map[string]any{}
			cur[elem] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s is a leaf", strings.Join(path[:i+1], " "))
		}
		cur = m
	}
	return cur, nil
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyMap(val)
	case []string:
		return append([]string(nil), val...)
	}
	return v
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
