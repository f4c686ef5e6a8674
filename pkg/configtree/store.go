package configtree

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/confmode/confmode/pkg/util"
)

// Store loads a configuration tree and persists subtrees of it.
type Store interface {
	Load(ctx context.Context) (*Tree, error)
	SaveSubtree(ctx context.Context, tree *Tree, path ...string) error
}

// FileStore keeps a tree in a YAML file.
type FileStore struct {
	Path string
	// AllowMissing makes Load return an empty tree when the file does not exist.
	AllowMissing bool
}

// NewFileStore creates a YAML file store
func NewFileStore(path string, allowMissing bool) *FileStore {
	return &FileStore{Path: path, AllowMissing: allowMissing}
}

// Load reads and parses the YAML file.
func (s *FileStore) Load(ctx context.Context) (*Tree, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) && s.AllowMissing {
			return New(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", s.Path, err)
	}
	t, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", s.Path, err)
	}
	return t, nil
}

// SaveSubtree replaces the subtree at path in the file with tree's subtree.
func (s *FileStore) SaveSubtree(ctx context.Context, tree *Tree, path ...string) error {
	cur, err := (&FileStore{Path: s.Path, AllowMissing: true}).Load(ctx)
	if err != nil {
		return err
	}
	if err := cur.ReplaceSubtree(tree, path...); err != nil {
		return err
	}
	data, err := MarshalYAML(cur)
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(s.Path, data, 0644, nil)
}

// ParseYAML parses a YAML document into a tree.
func ParseYAML(data []byte) (*Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return New(), nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return New(), nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: top level must be a mapping", root.Line)
	}
	v, err := nodeValue(root)
	if err != nil {
		return nil, err
	}
	return &Tree{root: v.(map[string]any)}, nil
}

// MarshalYAML serializes a tree with sorted keys.
func MarshalYAML(t *Tree) ([]byte, error) {
	return yaml.Marshal(t.Map())
}

func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: node names must be scalars", k.Line)
			}
			val, err := nodeValue(v)
			if err != nil {
				return nil, err
			}
			m[k.Value] = val
		}
		return m, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: multi-value leaf must hold scalars", c.Line)
			}
			out = append(out, c.Value)
		}
		return out, nil
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return map[string]any{}, nil
		}
		return n.Value, nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}
