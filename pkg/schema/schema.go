// Package schema holds the default values of every configuration subtree a
// script reads.
//
// Defaults are YAML documents named after the base path with elements joined
// by "." (protocols rip -> protocols.rip.yaml). A "*" key under a tag node
// holds the defaults of every instance of that tag:
//
//	server:
//	  "*":
//	    port: "1812"
package schema

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/confmode/confmode/pkg/configtree"
)

// Wildcard is the key that applies defaults to each instance of a tag node.
const Wildcard = "*"

//go:embed defaults/*.yaml
var defaultsFS embed.FS

var (
	loadOnce sync.Once
	registry map[string]map[string]any
	loadErr  error
)

func load() {
	registry = map[string]map[string]any{}
	entries, err := defaultsFS.ReadDir("defaults")
	if err != nil {
		loadErr = err
		return
	}
	for _, e := range entries {
		data, err := defaultsFS.ReadFile(path.Join("defaults", e.Name()))
		if err != nil {
			loadErr = err
			return
		}
		t, err := configtree.ParseYAML(data)
		if err != nil {
			loadErr = fmt.Errorf("schema %s: %w", e.Name(), err)
			return
		}
		registry[strings.TrimSuffix(e.Name(), ".yaml")] = t.Map()
	}
}

func key(base []string) string {
	return strings.Join(base, ".")
}

// Bases lists the base paths that have defaults, sorted.
func Bases() ([]string, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, strings.ReplaceAll(k, ".", " "))
	}
	sort.Strings(out)
	return out, nil
}

// Defaults returns a copy of the raw defaults registered for base, wildcards
// included. A base without defaults yields an empty map.
func Defaults(base ...string) (map[string]any, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	d, ok := registry[key(base)]
	if !ok {
		return map[string]any{}, nil
	}
	return configtree.MergeDefaults(d, nil), nil
}

// Merge fills explicit with the defaults of base and returns the result.
// Explicit values always win. Wildcard defaults are expanded for each tag
// instance present in explicit; explicit is not modified.
func Merge(explicit map[string]any, base ...string) (map[string]any, error) {
	d, err := Defaults(base...)
	if err != nil {
		return nil, err
	}
	return configtree.MergeDefaults(Expand(d, explicit), explicit), nil
}

// Expand resolves the wildcards of defaults against explicit and returns
// concrete defaults.
//
// Leaf defaults are always kept. A container is dropped when it would end up
// empty. Below a wildcard a container is only kept when the instance already
// has it, so "interface * srv6 hmac" never creates srv6 on an interface.
func Expand(defaults, explicit map[string]any) map[string]any {
	return expand(defaults, explicit, false)
}

func expand(defaults, explicit map[string]any, underTag bool) map[string]any {
	out := map[string]any{}
	for k, dv := range defaults {
		if k == Wildcard {
			continue
		}
		dm, ok := dv.(map[string]any)
		if !ok {
			out[k] = dv
			continue
		}
		em, present := explicit[k].(map[string]any)

		if wc, ok := dm[Wildcard].(map[string]any); ok {
			if !present {
				continue
			}
			instances := make(map[string]any, len(em))
			for name, iv := range em {
				im, _ := iv.(map[string]any)
				instances[name] = expand(wc, im, true)
			}
			out[k] = instances
			continue
		}

		if underTag && !present {
			continue
		}
		if sub := expand(dm, em, underTag); len(sub) > 0 || present {
			out[k] = sub
		}
	}
	return out
}
