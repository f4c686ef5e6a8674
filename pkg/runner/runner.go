// Package runner executes external commands, locally or on a remote host
// over SSH.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/confmode/confmode/pkg/util"
)

// Command is one external program invocation.
type Command struct {
	Name  string
	Args  []string
	Stdin string
	Env   []string // extra KEY=VALUE pairs added to the environment
}

// Shell returns a command that runs script through "sh -c".
func Shell(script string) Command {
	return Command{Name: "sh", Args: []string{"-c", script}}
}

// String renders the command as a shell line, environment first.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Env)+len(c.Args)+1)
	for _, kv := range c.Env {
		parts = append(parts, Quote(kv))
	}
	parts = append(parts, Quote(c.Name))
	for _, a := range c.Args {
		parts = append(parts, Quote(a))
	}
	return strings.Join(parts, " ")
}

// Runner runs commands and returns their standard output.
type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

// Local runs commands on this host.
type Local struct{}

// Run executes cmd with os/exec. On failure the error carries stderr.
func (Local) Run(ctx context.Context, cmd Command) (string, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	}
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	util.WithField("cmd", cmd.String()).Debug("exec")
	if err := c.Run(); err != nil {
		return stdout.String(), fmt.Errorf("%s: %w: %s", cmd.Name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Quote quotes s for a POSIX shell when it holds anything but safe characters.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=:,+@%", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
