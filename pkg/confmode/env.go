// Package confmode runs configuration scripts. A script maps one subtree of
// the configuration to one backend service through four stages: GetConfig,
// Verify, Generate and Apply.
//
// Write operations preview by default. Env.Execute must be set for Apply
// to touch the daemon, the filesystem or the kernel.
package confmode

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/confmode/confmode/pkg/configtree"
	"github.com/confmode/confmode/pkg/frr"
	"github.com/confmode/confmode/pkg/nsswitch"
	"github.com/confmode/confmode/pkg/runner"
	"github.com/confmode/confmode/pkg/sysctl"
	"github.com/confmode/confmode/pkg/util"
)

// Paths locates the system files scripts write.
type Paths struct {
	RadiusConfig string
	NSSwitch     string
	SysctlRoot   string
}

// DefaultPaths returns the standard system locations.
func DefaultPaths() Paths {
	return Paths{
		RadiusConfig: "/etc/pam_radius_auth.conf",
		NSSwitch:     nsswitch.DefaultPath,
		SysctlRoot:   sysctl.DefaultRoot,
	}
}

// Env is everything one script invocation may use. It is built once per
// invocation and never shared.
type Env struct {
	Config *configtree.Config
	FRR    frr.Backend
	// Runner runs local system commands such as pam-auth-update.
	Runner runner.Runner
	Paths  Paths
	// Owner receives files holding secrets. Nil leaves ownership alone.
	Owner   *util.Owner
	Execute bool
	Out     io.Writer
	Log     *logrus.Entry
}

// NewEnv returns an Env with local defaults for everything but the config.
func NewEnv(cfg *configtree.Config) *Env {
	r := runner.Local{}
	return &Env{
		Config: cfg,
		FRR:    frr.NewVtyshBackend(r),
		Runner: r,
		Paths:  DefaultPaths(),
		Out:    os.Stdout,
		Log:    logrus.NewEntry(util.Logger),
	}
}

// Printf writes to the invocation's output.
func (e *Env) Printf(format string, args ...interface{}) {
	if e.Out == nil {
		return
	}
	fmt.Fprintf(e.Out, format, args...)
}

func (e *Env) logger() *logrus.Entry {
	if e.Log == nil {
		return logrus.NewEntry(util.Logger)
	}
	return e.Log
}

// CommitFRR commits cfg to its daemon, or prints the diff when previewing.
func (e *Env) CommitFRR(ctx context.Context, cfg *frr.Config) error {
	if !e.Execute {
		if !cfg.Changed() {
			e.Printf("%s: no changes\n", cfg.Daemon())
			return nil
		}
		diff, err := cfg.Diff()
		if err != nil {
			return err
		}
		e.Printf("%s", diff)
		return nil
	}
	e.logger().WithField("daemon", cfg.Daemon()).Info("reloading")
	return cfg.Commit(ctx, e.FRR)
}

// WriteFile writes data to path atomically with perm and the Env owner,
// or prints it when previewing.
func (e *Env) WriteFile(path string, data []byte, perm os.FileMode) error {
	if !e.Execute {
		e.Printf("would write %s (mode %04o):\n%s", path, perm, data)
		return nil
	}
	e.logger().WithField("path", path).Info("writing file")
	return util.WriteFileAtomic(path, data, perm, e.Owner)
}

// RemoveFile deletes path if it exists, or reports it when previewing.
func (e *Env) RemoveFile(path string) error {
	if !e.Execute {
		if _, err := os.Stat(path); err == nil {
			e.Printf("would remove %s\n", path)
		}
		return nil
	}
	e.logger().WithField("path", path).Info("removing file")
	return util.RemoveIfExists(path)
}

// RunCommand runs cmd through the Env runner, or prints it when previewing.
func (e *Env) RunCommand(ctx context.Context, cmd runner.Command) error {
	if !e.Execute {
		e.Printf("would run: %s\n", cmd)
		return nil
	}
	e.logger().WithField("cmd", cmd.String()).Info("running")
	_, err := e.Runner.Run(ctx, cmd)
	return err
}

// WriteSysctl sets a kernel parameter, or prints the change when previewing.
func (e *Env) WriteSysctl(k sysctl.Key, value string) error {
	tree := sysctl.New(e.Paths.SysctlRoot)
	if !e.Execute {
		cur, ok, err := tree.Read(k)
		if err != nil {
			return err
		}
		if ok && cur != value {
			e.Printf("would set %s = %s (was %s)\n", k, value, cur)
		}
		return nil
	}
	_, err := tree.Write(k, value)
	return err
}

// EditNSSwitch loads nsswitch.conf, applies edit and saves it when edit
// reports a change. Previewing prints the result instead.
func (e *Env) EditNSSwitch(edit func(*nsswitch.File) bool) error {
	f, err := nsswitch.Load(e.Paths.NSSwitch)
	if err != nil {
		return err
	}
	if !edit(f) {
		return nil
	}
	if !e.Execute {
		e.Printf("would update %s:\n%s", e.Paths.NSSwitch, f.Bytes())
		return nil
	}
	e.logger().WithField("path", e.Paths.NSSwitch).Info("updating name service switch")
	return f.Save(e.Paths.NSSwitch)
}
