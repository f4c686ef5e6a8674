// Package sysctl reads and writes kernel parameters under /proc/sys.
package sysctl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/confmode/confmode/pkg/util"
)

// DefaultRoot is where the kernel exposes its parameters.
const DefaultRoot = "/proc/sys"

// Tree reads and writes parameters below Root.
type Tree struct {
	Root string
}

// New returns a Tree rooted at root, or DefaultRoot when root is empty.
func New(root string) *Tree {
	if root == "" {
		root = DefaultRoot
	}
	return &Tree{Root: root}
}

// Key is a parameter path. Elements may contain dots (eth0.10), so keys are
// never split on ".".
type Key []string

// IPv6Conf is the key of a per-interface IPv6 parameter.
func IPv6Conf(ifname, name string) Key {
	return Key{"net", "ipv6", "conf", ifname, name}
}

// String renders the key the way sysctl(8) does, using "/" when an element
// holds a dot.
func (k Key) String() string {
	for _, e := range k {
		if strings.Contains(e, ".") {
			return strings.Join(k, "/")
		}
	}
	return strings.Join(k, ".")
}

func (t *Tree) path(k Key) string {
	return filepath.Join(append([]string{t.Root}, k...)...)
}

// Read returns the current value of k. ok is false when the parameter does
// not exist, e.g. for an interface that is gone.
func (t *Tree) Read(k Key) (value string, ok bool, err error) {
	data, err := os.ReadFile(t.path(k))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", k, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// Write sets k to value and reports whether it changed. A parameter that does
// not exist is skipped; an equal value is not rewritten.
func (t *Tree) Write(k Key, value string) (bool, error) {
	cur, ok, err := t.Read(k)
	if err != nil {
		return false, err
	}
	if !ok {
		util.WithField("sysctl", k.String()).Debug("parameter does not exist, skipping")
		return false, nil
	}
	if cur == value {
		return false, nil
	}

	f, err := os.OpenFile(t.path(k), os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", k, err)
	}
	defer f.Close()
	if _, err := f.WriteString(value + "\n"); err != nil {
		return false, fmt.Errorf("writing %s=%s: %w", k, value, err)
	}
	util.WithField("sysctl", k.String()).Debugf("set to %s", value)
	return true, nil
}
