package radius

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/confmode/confmode/internal/testutil"
	"github.com/confmode/confmode/pkg/configtree"
	"github.com/confmode/confmode/pkg/confmode"
)

const nsswitchConf = `# /etc/nsswitch.conf
passwd:         files systemd
group:          files systemd
shadow:         files
hosts:          files dns
`

type fixture struct {
	env    *confmode.Env
	runner *testutil.RecordingRunner
	out    *bytes.Buffer
}

func newFixture(t *testing.T, proposed string) *fixture {
	t.Helper()
	dir := t.TempDir()
	ns := filepath.Join(dir, "nsswitch.conf")
	if err := os.WriteFile(ns, []byte(nsswitchConf), 0644); err != nil {
		t.Fatal(err)
	}

	tree, err := configtree.ParseYAML([]byte(proposed))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	f := &fixture{runner: &testutil.RecordingRunner{}, out: &bytes.Buffer{}}
	f.env = confmode.NewEnv(configtree.NewConfig(tree, nil))
	f.env.FRR = testutil.NewFakeDaemon(nil)
	f.env.Runner = f.runner
	f.env.Out = f.out
	f.env.Execute = true
	f.env.Paths.RadiusConfig = filepath.Join(dir, "pam_radius_auth.conf")
	f.env.Paths.NSSwitch = ns
	return f
}

func (f *fixture) run(t *testing.T) error {
	t.Helper()
	return Script().Run(context.Background(), f.env)
}

func (f *fixture) read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

const twoServers = `
system:
  login:
    radius:
      server:
        192.0.2.10:
          key: s3cret
        192.0.2.11:
          key: other
          disable:
`

func TestGetConfigDefaults(t *testing.T) {
	f := newFixture(t, twoServers)
	c, err := GetConfig(f.env)
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	want := []*Server{
		{Address: "192.0.2.10", Key: "s3cret", Port: "1812", Timeout: "2"},
		{Address: "192.0.2.11", Key: "other", Port: "1812", Timeout: "2", Disable: true},
	}
	if diff := cmp.Diff(want, c.Servers); diff != "" {
		t.Errorf("Servers mismatch (-want +got):\n%s", diff)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		servers string
		extra   string
		wantErr string
	}{
		{
			name:    "one active",
			servers: "        192.0.2.10: {key: k}\n        192.0.2.11: {key: k, disable: null}\n",
		},
		{
			name:    "all disabled",
			servers: "        192.0.2.10: {key: k, disable: null}\n        192.0.2.11: {disable: null}\n",
			wantErr: "At least one RADIUS server must be active.",
		},
		{
			name:    "missing key",
			servers: "        192.0.2.10: {port: 1645}\n",
			wantErr: `RADIUS server "192.0.2.10" requires key!`,
		},
		{
			name:    "disabled server needs no key",
			servers: "        192.0.2.10: {key: k}\n        192.0.2.11: {disable: null}\n",
		},
		{
			name:    "bad port",
			servers: "        192.0.2.10: {key: k, port: 70000}\n",
			wantErr: `RADIUS server "192.0.2.10": port must be between 1 and 65535, got 70000`,
		},
		{
			name:    "bad timeout",
			servers: "        192.0.2.10: {key: k, timeout: 0}\n",
			wantErr: `RADIUS server "192.0.2.10": timeout must be between 1 and 240, got 0`,
		},
		{
			name:    "bad address",
			servers: "        radius.example.com: {key: k}\n",
			wantErr: `RADIUS server "radius.example.com" is not a valid IP address!`,
		},
		{
			name:    "bad source-address",
			servers: "        192.0.2.10: {key: k}\n",
			extra:   "      source-address: 300.1.1.1\n",
			wantErr: `RADIUS source-address "300.1.1.1" is not a valid IP address!`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "system:\n  login:\n    radius:\n"+tt.extra+"      server:\n"+tt.servers)
			c, err := GetConfig(f.env)
			if err != nil {
				t.Fatal(err)
			}
			err = Verify(c)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Verify() error = %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("Verify() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestRunEnabledAndDisabledServer(t *testing.T) {
	f := newFixture(t, twoServers)
	if err := f.run(t); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	conf := f.read(t, f.env.Paths.RadiusConfig)
	if !strings.Contains(conf, "\n192.0.2.10:1812 s3cret 2\n") {
		t.Errorf("enabled server missing:\n%s", conf)
	}
	if strings.Contains(conf, "192.0.2.11") {
		t.Errorf("disabled server rendered:\n%s", conf)
	}
	if !strings.HasSuffix(conf, "\npriv-lvl 15\nmapped_priv_user radius_priv_user\n") {
		t.Errorf("privilege mapping missing:\n%s", conf)
	}
	st, err := os.Stat(f.env.Paths.RadiusConfig)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode().Perm() != 0600 {
		t.Errorf("mode = %o, want 0600", st.Mode().Perm())
	}

	wantCmds := []string{"DEBIAN_FRONTEND=noninteractive pam-auth-update --package --enable radius"}
	if diff := cmp.Diff(wantCmds, f.runner.Lines()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}

	ns := f.read(t, f.env.Paths.NSSwitch)
	for _, want := range []string{
		"passwd:         mapuid files systemd mapname\n",
		"group:          mapname files systemd\n",
		"shadow:         files\n",
	} {
		if !strings.Contains(ns, want) {
			t.Errorf("nsswitch.conf missing %q:\n%s", want, ns)
		}
	}

	// A second run leaves nsswitch.conf alone.
	if err := f.run(t); err != nil {
		t.Fatal(err)
	}
	if again := f.read(t, f.env.Paths.NSSwitch); again != ns {
		t.Errorf("second run changed nsswitch.conf:\n%s", cmp.Diff(ns, again))
	}
}

func TestRunSourceAddressAndIPv6(t *testing.T) {
	f := newFixture(t, `
system:
  login:
    radius:
      source-address: 192.0.2.1
      server:
        2001:db8::10:
          key: v6
          port: 1645
          timeout: 5
`)
	if err := f.run(t); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	conf := f.read(t, f.env.Paths.RadiusConfig)
	if !strings.Contains(conf, "\n[2001:db8::10]:1645 v6 5 192.0.2.1\n") {
		t.Errorf("server line missing:\n%s", conf)
	}
}

func TestRunRemoval(t *testing.T) {
	f := newFixture(t, twoServers)
	if err := f.run(t); err != nil {
		t.Fatal(err)
	}

	// Drop the subtree and run again.
	f.env.Config = configtree.NewConfig(nil, f.env.Config.Proposed)
	c, err := GetConfig(f.env)
	if err != nil {
		t.Fatal(err)
	}
	if err := Generate(c); err != nil {
		t.Fatal(err)
	}
	if c.Rendered != "" {
		t.Errorf("Rendered = %q, want empty", c.Rendered)
	}
	if err := f.run(t); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := os.Stat(f.env.Paths.RadiusConfig); !os.IsNotExist(err) {
		t.Error("pam_radius_auth.conf left behind")
	}
	if !f.runner.Ran("pam-auth-update --package --remove radius") {
		t.Errorf("PAM profile not removed:\n%s", f.runner)
	}
	if ns := f.read(t, f.env.Paths.NSSwitch); ns != nsswitchConf {
		t.Errorf("nsswitch.conf not restored:\n%s", cmp.Diff(nsswitchConf, ns))
	}

	// Removing again with nothing installed is fine.
	if err := f.run(t); err != nil {
		t.Errorf("second removal error = %v", err)
	}
}

func TestRunPreview(t *testing.T) {
	f := newFixture(t, twoServers)
	f.env.Execute = false
	if err := f.run(t); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(f.env.Paths.RadiusConfig); !os.IsNotExist(err) {
		t.Error("preview wrote pam_radius_auth.conf")
	}
	if len(f.runner.Commands()) != 0 {
		t.Errorf("preview ran commands:\n%s", f.runner)
	}
	if ns := f.read(t, f.env.Paths.NSSwitch); ns != nsswitchConf {
		t.Error("preview changed nsswitch.conf")
	}
	out := f.out.String()
	for _, want := range []string{"would write", "192.0.2.10:1812 s3cret 2", "would run: DEBIAN_FRONTEND=noninteractive pam-auth-update"} {
		if !strings.Contains(out, want) {
			t.Errorf("preview output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommandFailure(t *testing.T) {
	f := newFixture(t, twoServers)
	f.runner.Errors = map[string]error{pamAuthUpdate: os.ErrPermission}
	err := f.run(t)
	if err == nil {
		t.Fatal("Run() = nil")
	}
	if !strings.HasPrefix(err.Error(), "RADIUS configuration failed: ") {
		t.Errorf("Run() error = %q", err)
	}
}
