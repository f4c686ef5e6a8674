// Package policy reads the shared "policy" subtree that routing scripts
// cross-reference: access lists, prefix lists and route maps.
package policy

import (
	"github.com/confmode/confmode/pkg/configtree"
	"github.com/confmode/confmode/pkg/util"
)

// Base is the policy subtree.
var Base = []string{"policy"}

// Rule is one numbered rule of a list or route map. Only its presence
// matters to the scripts reading it.
type Rule map[string]any

// List is an access list, prefix list or route map.
type List struct {
	Description string          `yaml:"description"`
	Rule        map[string]Rule `yaml:"rule"`
}

// Policy holds the named policy objects of the configuration.
type Policy struct {
	AccessList  map[string]*List `yaml:"access-list"`
	AccessList6 map[string]*List `yaml:"access-list6"`
	PrefixList  map[string]*List `yaml:"prefix-list"`
	PrefixList6 map[string]*List `yaml:"prefix-list6"`
	RouteMap    map[string]*List `yaml:"route-map"`
}

// Load decodes the policy subtree of cfg. A missing subtree gives an empty
// Policy.
func Load(cfg *configtree.Config) (*Policy, error) {
	p := &Policy{}
	if err := configtree.Decode(cfg.GetConfigDict(Base...), p); err != nil {
		return nil, err
	}
	return p, nil
}

// HasAccessList reports whether IPv4 access list name exists.
func (p *Policy) HasAccessList(name string) bool {
	_, ok := p.AccessList[name]
	return ok
}

// HasPrefixList reports whether IPv4 prefix list name exists.
func (p *Policy) HasPrefixList(name string) bool {
	_, ok := p.PrefixList[name]
	return ok
}

// HasRouteMap reports whether route map name exists.
func (p *Policy) HasRouteMap(name string) bool {
	_, ok := p.RouteMap[name]
	return ok
}

// VerifyRouteMaps fails on the first name in names, in order, that is not a
// defined route map. Empty names are skipped.
func (p *Policy) VerifyRouteMaps(names ...string) error {
	for _, n := range names {
		if n != "" && !p.HasRouteMap(n) {
			return util.NewDependencyError("Specified", "route-map", n)
		}
	}
	return nil
}
