package frr

import (
	"context"
	"fmt"
	"strings"

	"github.com/confmode/confmode/pkg/runner"
)

// FRRReloadPath is where FRR installs its reload helper.
const FRRReloadPath = "/usr/lib/frr/frr-reload.py"

// VtyshBackend talks to FRR with vtysh and frr-reload.py.
type VtyshBackend struct {
	Runner     runner.Runner
	ReloadPath string
}

// NewVtyshBackend returns a backend running FRR tools through r.
func NewVtyshBackend(r runner.Runner) *VtyshBackend {
	return &VtyshBackend{Runner: r, ReloadPath: FRRReloadPath}
}

// ShowRunning runs "show running-config <daemon> no-header" and strips the
// banner lines vtysh still prints.
func (b *VtyshBackend) ShowRunning(ctx context.Context, daemon string) (string, error) {
	out, err := b.Runner.Run(ctx, runner.Command{
		Name: "vtysh",
		Args: []string{"-c", "show running-config " + daemon + " no-header"},
	})
	if err != nil {
		return "", err
	}
	return stripBanner(out), nil
}

// Reload hands text to frr-reload.py through a temporary file created and
// removed on the FRR host.
func (b *VtyshBackend) Reload(ctx context.Context, daemon, text string) error {
	reload := b.ReloadPath
	if reload == "" {
		reload = FRRReloadPath
	}
	script := fmt.Sprintf(`f=$(mktemp) || exit 1; cat > "$f"; %s --reload --daemon %s "$f"; rc=$?; rm -f "$f"; exit $rc`,
		runner.Quote(reload), runner.Quote(daemon))
	cmd := runner.Shell(script)
	cmd.Stdin = text
	if _, err := b.Runner.Run(ctx, cmd); err != nil {
		return err
	}
	return nil
}

func stripBanner(out string) string {
	lines := strings.Split(strings.ReplaceAll(out, "\r", ""), "\n")
	i := 0
	for i < len(lines) {
		l := strings.TrimSpace(lines[i])
		if l == "" || l == "Building configuration..." || strings.HasPrefix(l, "Current configuration:") {
			i++
			continue
		}
		break
	}
	return strings.Join(lines[i:], "\n")
}
