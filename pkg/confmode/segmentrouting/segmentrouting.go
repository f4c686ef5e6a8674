// Package segmentrouting configures SRv6 in zebra and the per-interface
// seg6 kernel parameters from "protocols segment-routing".
package segmentrouting

import (
	"context"
	"sort"

	"github.com/confmode/confmode/pkg/configtree"
	"github.com/confmode/confmode/pkg/confmode"
	"github.com/confmode/confmode/pkg/frr"
	"github.com/confmode/confmode/pkg/schema"
	"github.com/confmode/confmode/pkg/sysctl"
	"github.com/confmode/confmode/pkg/template"
	"github.com/confmode/confmode/pkg/util"
)

// Daemon is the FRR daemon this script reloads.
const Daemon = "zebra"

// Base is the configuration subtree of this script.
var Base = []string{"protocols", "segment-routing"}

// seg6_require_hmac values per HMAC policy.
var hmacPolicy = map[string]string{
	"accept": "0",
	"drop":   "1",
	"ignore": "-1",
}

// SegmentRouting is the "protocols segment-routing" subtree.
type SegmentRouting struct {
	Interface map[string]*Interface `yaml:"interface"`
	SRv6      *SRv6                 `yaml:"srv6"`
}

type Interface struct {
	SRv6 *InterfaceSRv6 `yaml:"srv6"`
}

type InterfaceSRv6 struct {
	HMAC string `yaml:"hmac"`
}

type SRv6 struct {
	Locator map[string]*Locator `yaml:"locator"`
}

type Locator struct {
	Prefix       string          `yaml:"prefix"`
	BlockLen     string          `yaml:"block-len"`
	NodeLen      string          `yaml:"node-len"`
	FuncBits     string          `yaml:"func-bits"`
	BehaviorUSID configtree.Flag `yaml:"behavior-usid"`
}

// Config is the extracted state of one invocation.
type Config struct {
	Present        bool
	SegmentRouting SegmentRouting
	// InterfacesRemoved are interfaces deleted since the effective
	// configuration.
	InterfacesRemoved []string

	NewFRRConfig string
}

// Script returns the runnable segment-routing script.
func Script() confmode.Script {
	return confmode.NewScript("segment-routing", "SRv6 segment routing (zebra, seg6 sysctls)", Base, confmode.Stages[*Config]{
		GetConfig: GetConfig,
		Verify:    Verify,
		Generate:  Generate,
		Apply:     Apply,
		Rendered:  func(c *Config) string { return c.NewFRRConfig },
	})
}

// GetConfig extracts "protocols segment-routing" and the interfaces
// removed from it.
func GetConfig(env *confmode.Env) (*Config, error) {
	c := &Config{
		InterfacesRemoved: env.Config.NodeChanged(append(append([]string(nil), Base...), "interface")...),
	}
	if !env.Config.Exists(Base...) {
		return c, nil
	}
	c.Present = true

	dict, err := schema.Merge(env.Config.GetConfigDict(Base...), Base...)
	if err != nil {
		return nil, err
	}
	if err := configtree.Decode(dict, &c.SegmentRouting); err != nil {
		return nil, err
	}
	return c, nil
}

// Verify requires SRv6 on at least one interface once srv6 is configured.
func Verify(c *Config) error {
	sr := &c.SegmentRouting
	if !c.Present || sr.SRv6 == nil {
		return nil
	}
	enabled := false
	for _, iface := range sr.Interface {
		if iface != nil && iface.SRv6 != nil {
			enabled = true
			break
		}
	}
	if !enabled {
		return util.NewConfigError("SRv6 should be enabled on at least one interface!")
	}
	for _, name := range sortedKeys(sr.SRv6.Locator) {
		loc := sr.SRv6.Locator[name]
		if loc != nil && loc.Prefix != "" && !util.IsValidIPv6Prefix(loc.Prefix) {
			return util.NewConfigError("SRv6 locator %q prefix %q is not a valid IPv6 prefix!", name, loc.Prefix)
		}
	}
	return nil
}

// Generate renders the zebra segment-routing section.
func Generate(c *Config) error {
	if !c.Present {
		c.NewFRRConfig = ""
		return nil
	}
	text, err := template.Render("frr/zebra.segment_routing.frr.tmpl", &c.SegmentRouting)
	if err != nil {
		return err
	}
	c.NewFRRConfig = text
	return nil
}

// Apply sets the seg6 parameters of every affected interface and replaces
// the segment-routing section of zebra.
func Apply(ctx context.Context, env *confmode.Env, c *Config) error {
	for _, ifname := range c.InterfacesRemoved {
		if err := env.WriteSysctl(sysctl.IPv6Conf(ifname, "seg6_enabled"), "0"); err != nil {
			return err
		}
	}

	ifaces := c.SegmentRouting.Interface
	for _, ifname := range sortedKeys(ifaces) {
		if err := applyInterface(env, ifname, ifaces[ifname]); err != nil {
			return err
		}
	}

	cfg, err := frr.Load(ctx, env.FRR, Daemon)
	if err != nil {
		return err
	}
	if err := cfg.ModifySection(`segment-routing`, ""); err != nil {
		return err
	}
	if err := cfg.AddBefore(frr.DefaultAddBefore, c.NewFRRConfig); err != nil {
		return err
	}
	return env.CommitFRR(ctx, cfg)
}

func applyInterface(env *confmode.Env, ifname string, iface *Interface) error {
	if iface == nil || iface.SRv6 == nil {
		return env.WriteSysctl(sysctl.IPv6Conf(ifname, "seg6_enabled"), "0")
	}
	if err := env.WriteSysctl(sysctl.IPv6Conf(ifname, "seg6_enabled"), "1"); err != nil {
		return err
	}
	v, ok := hmacPolicy[iface.SRv6.HMAC]
	if !ok {
		return nil
	}
	return env.WriteSysctl(sysctl.IPv6Conf(ifname, "seg6_require_hmac"), v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
