// Package testutil provides fakes and fixtures for unit tests, plus Redis
// helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/confmode/confmode/pkg/runner"
)

// FakeDaemon is an in-memory FRR: Reload replaces a daemon's running
// configuration with the committed text. It satisfies frr.Backend.
type FakeDaemon struct {
	mu      sync.Mutex
	running map[string]string
	commits map[string][]string

	// FailReload makes Reload return this error when set.
	FailReload error
}

// NewFakeDaemon returns a fake with the given running configurations.
func NewFakeDaemon(running map[string]string) *FakeDaemon {
	f := &FakeDaemon{running: map[string]string{}, commits: map[string][]string{}}
	for d, text := range running {
		f.running[d] = text
	}
	return f
}

// ShowRunning returns the running configuration of daemon.
func (f *FakeDaemon) ShowRunning(ctx context.Context, daemon string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running[daemon], nil
}

// Reload commits text as the running configuration of daemon.
func (f *FakeDaemon) Reload(ctx context.Context, daemon, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailReload != nil {
		return f.FailReload
	}
	f.running[daemon] = text
	f.commits[daemon] = append(f.commits[daemon], text)
	return nil
}

// Running returns the current configuration of daemon.
func (f *FakeDaemon) Running(daemon string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running[daemon]
}

// Commits returns every text committed to daemon, oldest first.
func (f *FakeDaemon) Commits(daemon string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commits[daemon]...)
}

// RecordingRunner records every command instead of running it.
type RecordingRunner struct {
	mu       sync.Mutex
	commands []runner.Command

	// Outputs maps a command's program name to its canned output.
	Outputs map[string]string
	// Errors maps a command's program name to the error it returns.
	Errors map[string]error
}

// Run records cmd and returns the canned output for its program.
func (r *RecordingRunner) Run(ctx context.Context, cmd runner.Command) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	if err, ok := r.Errors[cmd.Name]; ok {
		return "", err
	}
	return r.Outputs[cmd.Name], nil
}

// Commands returns the recorded commands.
func (r *RecordingRunner) Commands() []runner.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]runner.Command(nil), r.commands...)
}

// Lines returns the recorded commands as shell lines.
func (r *RecordingRunner) Lines() []string {
	var out []string
	for _, c := range r.Commands() {
		out = append(out, c.String())
	}
	return out
}

// Ran reports whether a command whose shell line contains substr was run.
func (r *RecordingRunner) Ran(substr string) bool {
	for _, l := range r.Lines() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// String lists the recorded commands, one per line.
func (r *RecordingRunner) String() string {
	var b strings.Builder
	for i, l := range r.Lines() {
		fmt.Fprintf(&b, "%d: %s\n", i, l)
	}
	return b.String()
}
