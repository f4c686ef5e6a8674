// Package frr edits and reloads the running configuration of FRR daemons.
//
// A Config is loaded from a daemon, edited section by section and
// committed back through frr-reload:
//
//	cfg, err := frr.Load(ctx, backend, "ripd")
//	cfg.ModifySection(`router rip`, "")
//	cfg.AddBefore(`(ip prefix-list .*|route-map .*|line vty)`, text)
//	err = cfg.Commit(ctx, backend)
package frr

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/confmode/confmode/pkg/util"
)

// DefaultAddBefore anchors new sections ahead of the trailing global
// objects of an FRR configuration.
const DefaultAddBefore = `(ip prefix-list .*|route-map .*|line vty|end)`

// Backend reads and reloads a daemon's running configuration.
type Backend interface {
	ShowRunning(ctx context.Context, daemon string) (string, error)
	Reload(ctx context.Context, daemon, text string) error
}

// Config is a daemon's configuration as a list of lines.
type Config struct {
	daemon   string
	original []string
	lines    []string
}

// NewConfig builds a Config for daemon from text.
func NewConfig(daemon, text string) *Config {
	lines := splitLines(text)
	return &Config{
		daemon:   daemon,
		original: append([]string(nil), lines...),
		lines:    lines,
	}
}

// Load reads the running configuration of daemon.
func Load(ctx context.Context, b Backend, daemon string) (*Config, error) {
	text, err := b.ShowRunning(ctx, daemon)
	if err != nil {
		return nil, fmt.Errorf("loading %s configuration: %w", daemon, err)
	}
	util.WithDaemon(daemon).Debugf("loaded %d bytes of running configuration", len(text))
	return NewConfig(daemon, text), nil
}

// Daemon returns the daemon this configuration belongs to.
func (c *Config) Daemon() string {
	return c.daemon
}

// ModifySection replaces every section whose first line fully matches start
// with replacement; an empty replacement removes them. A section is its
// start line plus the indented lines below it. A closing "exit" and the "!"
// after it belong to the section, as does a bare "!" directly after it.
//
// The replacement, if any, goes where the first section was. Nothing is
// inserted when no section matches.
func (c *Config) ModifySection(start, replacement string) error {
	re, err := fullLine(start)
	if err != nil {
		return err
	}

	var out []string
	insertAt := -1
	for i := 0; i < len(c.lines); {
		if !re.MatchString(c.lines[i]) {
			out = append(out, c.lines[i])
			i++
			continue
		}
		if insertAt < 0 {
			insertAt = len(out)
		}
		i = sectionEnd(c.lines, i)
	}

	if insertAt >= 0 && replacement != "" {
		out = insertLines(out, insertAt, splitLines(replacement))
	}
	c.lines = out
	return nil
}

// sectionEnd returns the index just past the section starting at i.
func sectionEnd(lines []string, i int) int {
	j := i + 1
	for j < len(lines) && isIndented(lines[j]) {
		j++
	}
	if j < len(lines) && strings.TrimSpace(lines[j]) == "exit" {
		j++
	}
	if j < len(lines) && strings.TrimSpace(lines[j]) == "!" {
		j++
	}
	return j
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

// AddBefore inserts text before the first line fully matching pattern, or
// appends it when no line matches. Empty text is a no-op.
func (c *Config) AddBefore(pattern, text string) error {
	re, err := fullLine(pattern)
	if err != nil {
		return err
	}
	add := splitLines(text)
	if len(add) == 0 {
		return nil
	}
	for i, l := range c.lines {
		if re.MatchString(l) {
			c.lines = insertLines(c.lines, i, add)
			return nil
		}
	}
	c.lines = append(c.lines, add...)
	return nil
}

// String returns the edited configuration text.
func (c *Config) String() string {
	return joinLines(c.lines)
}

// Original returns the configuration text as loaded.
func (c *Config) Original() string {
	return joinLines(c.original)
}

// Changed reports whether the edits changed the configuration.
func (c *Config) Changed() bool {
	return c.String() != c.Original()
}

// Diff returns a unified diff from the loaded to the edited configuration.
func (c *Config) Diff() (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(c.Original()),
		B:        difflib.SplitLines(c.String()),
		FromFile: c.daemon + " (running)",
		ToFile:   c.daemon + " (proposed)",
		Context:  3,
	})
}

// Commit reloads the daemon with the edited configuration.
func (c *Config) Commit(ctx context.Context, b Backend) error {
	util.WithDaemon(c.daemon).Debug("committing configuration")
	if err := b.Reload(ctx, c.daemon, c.String()); err != nil {
		return fmt.Errorf("committing %s configuration: %w", c.daemon, err)
	}
	return nil
}

func fullLine(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + strings.TrimSuffix(strings.TrimPrefix(pattern, "^"), "$") + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid section pattern %q: %w", pattern, err)
	}
	return re, nil
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func insertLines(lines []string, at int, add []string) []string {
	out := make([]string, 0, len(lines)+len(add))
	out = append(out, lines[:at]...)
	out = append(out, add...)
	return append(out, lines[at:]...)
}
