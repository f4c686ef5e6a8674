// Package radius configures PAM RADIUS authentication from
// "system login radius".
package radius

import (
	"context"
	"sort"

	"github.com/confmode/confmode/pkg/configtree"
	"github.com/confmode/confmode/pkg/confmode"
	"github.com/confmode/confmode/pkg/nsswitch"
	"github.com/confmode/confmode/pkg/runner"
	"github.com/confmode/confmode/pkg/schema"
	"github.com/confmode/confmode/pkg/template"
	"github.com/confmode/confmode/pkg/util"
)

// Base is the configuration subtree of this script.
var Base = []string{"system", "login", "radius"}

const (
	pamProfile    = "radius"
	maxTimeout    = 240
	configPerm    = 0600
	pamAuthUpdate = "pam-auth-update"
)

// Radius is the "system login radius" subtree.
type Radius struct {
	SourceAddress string             `yaml:"source-address"`
	Server        map[string]*Server `yaml:"server"`
}

// Server is one RADIUS server, keyed by its address.
type Server struct {
	Address string          `yaml:"-"`
	Disable configtree.Flag `yaml:"disable"`
	Key     string          `yaml:"key"`
	Port    string          `yaml:"port"`
	Timeout string          `yaml:"timeout"`
}

// Config is the extracted state of one invocation.
type Config struct {
	Present bool
	Radius  Radius
	// Servers lists Radius.Server sorted by address.
	Servers []*Server

	Rendered string
}

// Active reports whether RADIUS authentication should be enabled.
func (c *Config) Active() bool {
	return len(c.Servers) > 0
}

// Script returns the runnable radius script.
func Script() confmode.Script {
	return confmode.NewScript("radius", "RADIUS login (pam_radius, nsswitch)", Base, confmode.Stages[*Config]{
		GetConfig: GetConfig,
		Verify:    Verify,
		Generate:  Generate,
		Apply:     Apply,
		Rendered:  func(c *Config) string { return c.Rendered },
	})
}

// GetConfig extracts "system login radius" with server defaults.
func GetConfig(env *confmode.Env) (*Config, error) {
	c := &Config{}
	if !env.Config.Exists(Base...) {
		return c, nil
	}
	c.Present = true

	dict, err := schema.Merge(env.Config.GetConfigDict(Base...), Base...)
	if err != nil {
		return nil, err
	}
	if err := configtree.Decode(dict, &c.Radius); err != nil {
		return nil, err
	}

	addrs := make([]string, 0, len(c.Radius.Server))
	for addr := range c.Radius.Server {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	for _, addr := range addrs {
		s := c.Radius.Server[addr]
		if s == nil {
			s = &Server{}
			c.Radius.Server[addr] = s
		}
		s.Address = addr
		c.Servers = append(c.Servers, s)
	}
	return c, nil
}

// Verify requires an active server when servers are configured and checks
// each server's values.
func Verify(c *Config) error {
	if !c.Active() {
		return nil
	}

	active := false
	for _, s := range c.Servers {
		if !s.Disable {
			active = true
			break
		}
	}
	if !active {
		return util.NewConfigError("At least one RADIUS server must be active.")
	}

	if sa := c.Radius.SourceAddress; sa != "" && !util.IsValidIP(sa) {
		return util.NewConfigError("RADIUS source-address %q is not a valid IP address!", sa)
	}
	for _, s := range c.Servers {
		if !util.IsValidIP(s.Address) {
			return util.NewConfigError("RADIUS server %q is not a valid IP address!", s.Address)
		}
		if s.Disable {
			continue
		}
		if s.Key == "" {
			return util.NewConfigError("RADIUS server %q requires key!", s.Address)
		}
		if err := util.ValidatePort(s.Port); err != nil {
			return util.NewConfigError("RADIUS server %q: %v", s.Address, err)
		}
		if _, err := util.ParseUintInRange("timeout", s.Timeout, 1, maxTimeout); err != nil {
			return util.NewConfigError("RADIUS server %q: %v", s.Address, err)
		}
	}
	return nil
}

// Generate renders pam_radius_auth.conf; it is empty without servers.
func Generate(c *Config) error {
	if !c.Active() {
		c.Rendered = ""
		return nil
	}
	text, err := template.Render("radius/pam_radius_auth.conf.tmpl", struct {
		SourceAddress string
		Servers       []*Server
	}{c.Radius.SourceAddress, c.Servers})
	if err != nil {
		return err
	}
	c.Rendered = text
	return nil
}

// Apply installs or removes the RADIUS configuration, the PAM profile and
// the NSS user mapping.
func Apply(ctx context.Context, env *confmode.Env, c *Config) error {
	if c.Active() {
		err := enable(ctx, env, c)
		return util.WrapConfigError(err, "RADIUS configuration failed")
	}
	err := disable(ctx, env)
	return util.WrapConfigError(err, "Removing RADIUS configuration failed")
}

func enable(ctx context.Context, env *confmode.Env, c *Config) error {
	if err := env.WriteFile(env.Paths.RadiusConfig, []byte(c.Rendered), configPerm); err != nil {
		return err
	}
	if err := env.RunCommand(ctx, pamCommand("--enable")); err != nil {
		return err
	}
	return env.EditNSSwitch((*nsswitch.File).EnableMapping)
}

func disable(ctx context.Context, env *confmode.Env) error {
	if err := env.RemoveFile(env.Paths.RadiusConfig); err != nil {
		return err
	}
	if err := env.RunCommand(ctx, pamCommand("--remove")); err != nil {
		return err
	}
	return env.EditNSSwitch((*nsswitch.File).DisableMapping)
}

func pamCommand(action string) runner.Command {
	return runner.Command{
		Name: pamAuthUpdate,
		Args: []string{"--package", action, pamProfile},
		Env:  []string{"DEBIAN_FRONTEND=noninteractive"},
	}
}
