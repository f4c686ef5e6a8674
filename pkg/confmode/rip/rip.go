// Package rip configures the FRR RIP daemon from "protocols rip".
package rip

import (
	"context"
	"fmt"
	"sort"

	"github.com/confmode/confmode/pkg/configtree"
	"github.com/confmode/confmode/pkg/confmode"
	"github.com/confmode/confmode/pkg/confmode/policy"
	"github.com/confmode/confmode/pkg/frr"
	"github.com/confmode/confmode/pkg/schema"
	"github.com/confmode/confmode/pkg/template"
	"github.com/confmode/confmode/pkg/util"
)

// Daemon is the FRR daemon this script reloads.
const Daemon = "ripd"

// Base is the configuration subtree of this script.
var Base = []string{"protocols", "rip"}

// Sections owned by this script in the ripd configuration.
var staleSections = []string{`key chain \S+`, `interface \S+`, `router rip`}

const addBefore = `(ip prefix-list .*|route-map .*|line vty)`

// blankCommitRepeats is how many extra times an empty configuration is
// committed.
const blankCommitRepeats = 5

// Config is the extracted state of one invocation.
type Config struct {
	// Present is false when "protocols rip" does not exist; RIP is then
	// removed from ripd.
	Present bool
	RIP     RIP
	Policy  *policy.Policy

	NewFRRConfig string
}

// Script returns the runnable rip script.
func Script() confmode.Script {
	return confmode.NewScript("rip", "Routing Information Protocol (ripd)", Base, confmode.Stages[*Config]{
		GetConfig: GetConfig,
		Verify:    Verify,
		Generate:  Generate,
		Apply:     Apply,
		Rendered:  func(c *Config) string { return c.NewFRRConfig },
	})
}

// GetConfig extracts "protocols rip" with defaults and the policy objects
// it may reference.
func GetConfig(env *confmode.Env) (*Config, error) {
	c := &Config{Policy: &policy.Policy{}}
	if !env.Config.Exists(Base...) {
		return c, nil
	}
	c.Present = true

	dict, err := schema.Merge(env.Config.GetConfigDict(Base...), Base...)
	if err != nil {
		return nil, err
	}
	if err := configtree.Decode(dict, &c.RIP); err != nil {
		return nil, err
	}

	c.Policy, err = policy.Load(env.Config)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Verify checks cross references and conflicting interface options.
func Verify(c *Config) error {
	if !c.Present {
		return nil
	}
	r := &c.RIP

	if dl := r.DistributeList; dl != nil {
		if err := verifyLists(c.Policy, dl.AccessList, dl.PrefixList, ""); err != nil {
			return err
		}
		for _, ifname := range sortedKeys(dl.Interface) {
			lists := dl.Interface[ifname]
			if lists == nil {
				continue
			}
			if err := verifyLists(c.Policy, lists.AccessList, lists.PrefixList, ifname); err != nil {
				return err
			}
		}
	}

	for _, ifname := range sortedKeys(r.Interface) {
		iface := r.Interface[ifname]
		if iface == nil {
			continue
		}
		if a := iface.Authentication; a != nil && len(a.MD5) > 0 && a.PlaintextPassword != "" {
			return util.NewConfigError("Can not use both md5 and plaintext-password at the same time!")
		}
		if sh := iface.SplitHorizon; sh != nil && bool(sh.Disable) && bool(sh.PoisonReverse) {
			return util.NewConfigError(`You can not have "split-horizon poison-reverse" enabled with "split-horizon disable" for "%s"!`, ifname)
		}
	}

	var routeMaps []string
	for _, proto := range sortedKeys(r.Redistribute) {
		if rd := r.Redistribute[proto]; rd != nil {
			routeMaps = append(routeMaps, rd.RouteMap)
		}
	}
	return c.Policy.VerifyRouteMaps(routeMaps...)
}

func verifyLists(p *policy.Policy, acl, prefix Direction, ifname string) error {
	checks := []struct {
		role, kind, name string
		exists           func(string) bool
	}{
		{"Inbound", "ACL", acl.In, p.HasAccessList},
		{"Outbound", "ACL", acl.Out, p.HasAccessList},
		{"Inbound", "prefix-list", prefix.In, p.HasPrefixList},
		{"Outbound", "prefix-list", prefix.Out, p.HasPrefixList},
	}
	for _, ch := range checks {
		if ch.name == "" || ch.exists(ch.name) {
			continue
		}
		err := util.NewDependencyError(ch.role, ch.kind, ch.name)
		if ifname != "" {
			err.Context = fmt.Sprintf("interface %q", ifname)
		}
		return err
	}
	return nil
}

// Generate renders the ripd configuration; it is empty when RIP is not
// configured.
func Generate(c *Config) error {
	if !c.Present {
		c.NewFRRConfig = ""
		return nil
	}
	text, err := template.Render("frr/rip.frr.tmpl", &c.RIP)
	if err != nil {
		return err
	}
	c.NewFRRConfig = text
	return nil
}

// Apply replaces the RIP sections of ripd's running configuration and
// reloads it.
func Apply(ctx context.Context, env *confmode.Env, c *Config) error {
	cfg, err := frr.Load(ctx, env.FRR, Daemon)
	if err != nil {
		return err
	}
	for _, section := range staleSections {
		if err := cfg.ModifySection(section, ""); err != nil {
			return err
		}
	}
	if err := cfg.AddBefore(addBefore, c.NewFRRConfig); err != nil {
		return err
	}
	if err := env.CommitFRR(ctx, cfg); err != nil {
		return err
	}

	// TODO: frr-reload.py does not always clear a removed router rip in one
	// pass, so an empty configuration is committed again. Drop this once it
	// is verified against the FRR release in use.
	if c.NewFRRConfig == "" {
		if !env.Execute {
			env.Printf("would repeat the %s commit %d times\n", Daemon, blankCommitRepeats)
			return nil
		}
		for i := 0; i < blankCommitRepeats; i++ {
			if err := env.CommitFRR(ctx, cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
