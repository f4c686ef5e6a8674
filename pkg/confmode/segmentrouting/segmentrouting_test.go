package segmentrouting

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

const zebraRunning = `frr version 8.5
hostname r1
!
ip forwarding
!
line vty
!
`

const srConfig = `
protocols:
  segment-routing:
    interface:
      eth0:
        srv6:
          hmac: drop
      eth1: {}
      eth3:
        srv6: {}
    srv6:
      locator:
        MAIN:
          prefix: 2001:db8:1::/48
          behavior-usid:
`

const srText = `segment-routing
 srv6
  locators
   locator MAIN
    prefix 2001:db8:1::/48 block-len 40 node-len 24 func-bits 16
    behavior usid
   exit
   !
  exit
  !
 exit
 !
exit
!
`

type fixture struct {
	env    *confmode.Env
	daemon *testutil.FakeDaemon
	root   string
}

func newFixture(t *testing.T, proposed, effective string) *fixture {
	t.Helper()
	f := &fixture{
		daemon: testutil.NewFakeDaemon(map[string]string{Daemon: zebraRunning}),
		root:   t.TempDir(),
	}
	for _, ifname := range []string{"eth0", "eth1", "eth2", "eth3"} {
		dir := filepath.Join(f.root, "net", "ipv6", "conf", ifname)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		f.set(t, ifname, "seg6_enabled", "0")
		f.set(t, ifname, "seg6_require_hmac", "0")
	}
	f.env = confmode.NewEnv(configtree.NewConfig(parse(t, proposed), parse(t, effective)))
	f.env.FRR = f.daemon
	f.env.Runner = &testutil.RecordingRunner{}
	f.env.Out = &bytes.Buffer{}
	f.env.Execute = true
	f.env.Paths.SysctlRoot = f.root
	return f
}

func parse(t *testing.T, s string) *configtree.Tree {
	t.Helper()
	tree, err := configtree.ParseYAML([]byte(s))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	return tree
}

func (f *fixture) set(t *testing.T, ifname, name, value string) {
	t.Helper()
	path := filepath.Join(f.root, "net", "ipv6", "conf", ifname, name)
	if err := os.WriteFile(path, []byte(value+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) get(t *testing.T, ifname, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.root, "net", "ipv6", "conf", ifname, name))
	if err != nil {
		t.Fatal(err)
	}
	return strings.TrimSpace(string(data))
}

func TestGetConfig(t *testing.T) {
	effective := "protocols:\n  segment-routing:\n    interface:\n      eth0: {}\n      eth2: {}\n"
	f := newFixture(t, srConfig, effective)
	c, err := GetConfig(f.env)
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if diff := cmp.Diff([]string{"eth2"}, c.InterfacesRemoved); diff != "" {
		t.Errorf("InterfacesRemoved mismatch (-want +got):\n%s", diff)
	}

	ifs := c.SegmentRouting.Interface
	if got := ifs["eth0"].SRv6.HMAC; got != "drop" {
		t.Errorf("eth0 hmac = %q, want drop", got)
	}
	if got := ifs["eth3"].SRv6.HMAC; got != "accept" {
		t.Errorf("eth3 hmac = %q, want default accept", got)
	}
	if ifs["eth1"].SRv6 != nil {
		t.Error("eth1 gained srv6 from defaults")
	}
	want := &Locator{Prefix: "2001:db8:1::/48", BlockLen: "40", NodeLen: "24", FuncBits: "16", BehaviorUSID: true}
	if diff := cmp.Diff(want, c.SegmentRouting.SRv6.Locator["MAIN"]); diff != "" {
		t.Errorf("locator mismatch (-want +got):\n%s", diff)
	}
}

func TestVerify(t *testing.T) {
	const noInterface = "SRv6 should be enabled on at least one interface!"
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{"absent", "", ""},
		{"srv6 with interface", srConfig, ""},
		{"interfaces only", "protocols:\n  segment-routing:\n    interface:\n      eth1: {}\n", ""},
		{"srv6 without interface", "protocols:\n  segment-routing:\n    srv6:\n      locator:\n        MAIN: {prefix: 2001:db8::/48}\n", noInterface},
		{"srv6 with plain interface", "protocols:\n  segment-routing:\n    interface:\n      eth1: {}\n    srv6:\n      locator:\n        MAIN: {prefix: 2001:db8::/48}\n", noInterface},
		{
			"ipv4 locator prefix",
			"protocols:\n  segment-routing:\n    interface:\n      eth1: {srv6: {}}\n    srv6:\n      locator:\n        MAIN: {prefix: 10.0.0.0/8}\n",
			`SRv6 locator "MAIN" prefix "10.0.0.0/8" is not a valid IPv6 prefix!`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.config, "")
			c, err := GetConfig(f.env)
			if err != nil {
				t.Fatal(err)
			}
			err = Verify(c)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Verify() error = %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("Verify() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	f := newFixture(t, srConfig, "")
	text, err := Script().Render(context.Background(), f.env)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if diff := cmp.Diff(srText, text); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}

	f = newFixture(t, "protocols:\n  segment-routing:\n    interface:\n      eth1: {}\n", "")
	if text, _ := Script().Render(context.Background(), f.env); text != "" {
		t.Errorf("Render() without locators = %q, want empty", text)
	}
}

func TestRun(t *testing.T) {
	effective := "protocols:\n  segment-routing:\n    interface:\n      eth2:\n        srv6: {}\n"
	f := newFixture(t, srConfig, effective)
	f.set(t, "eth1", "seg6_enabled", "1")
	f.set(t, "eth2", "seg6_enabled", "1")

	for i := 0; i < 2; i++ {
		if err := Script().Run(context.Background(), f.env); err != nil {
			t.Fatalf("Run() #%d error = %v", i, err)
		}
	}

	sysctls := []struct{ ifname, name, want string }{
		{"eth0", "seg6_enabled", "1"},
		{"eth0", "seg6_require_hmac", "1"},
		{"eth1", "seg6_enabled", "0"},
		{"eth2", "seg6_enabled", "0"},
		{"eth3", "seg6_enabled", "1"},
		{"eth3", "seg6_require_hmac", "0"},
	}
	for _, s := range sysctls {
		if got := f.get(t, s.ifname, s.name); got != s.want {
			t.Errorf("%s %s = %s, want %s", s.ifname, s.name, got, s.want)
		}
	}

	want := "frr version 8.5\nhostname r1\n!\nip forwarding\n!\n" + srText + "line vty\n!\n"
	if diff := cmp.Diff(want, f.daemon.Running(Daemon)); diff != "" {
		t.Errorf("zebra mismatch (-want +got):\n%s", diff)
	}
	commits := f.daemon.Commits(Daemon)
	if len(commits) != 2 || commits[0] != commits[1] {
		t.Errorf("repeated apply was not idempotent: %d commits", len(commits))
	}
}

func TestRunRemoval(t *testing.T) {
	f := newFixture(t, srConfig, "")
	if err := Script().Run(context.Background(), f.env); err != nil {
		t.Fatal(err)
	}

	f.env.Config = configtree.NewConfig(nil, f.env.Config.Proposed)
	if err := Script().Run(context.Background(), f.env); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, ifname := range []string{"eth0", "eth1", "eth3"} {
		if got := f.get(t, ifname, "seg6_enabled"); got != "0" {
			t.Errorf("%s seg6_enabled = %s, want 0", ifname, got)
		}
	}
	if diff := cmp.Diff(zebraRunning, f.daemon.Running(Daemon)); diff != "" {
		t.Errorf("segment-routing left in zebra (-want +got):\n%s", diff)
	}
}

func TestRunVanishedInterface(t *testing.T) {
	effective := "protocols:\n  segment-routing:\n    interface:\n      eth9:\n        srv6: {}\n"
	f := newFixture(t, srConfig, effective)
	if err := Script().Run(context.Background(), f.env); err != nil {
		t.Errorf("Run() with a removed interface missing from the kernel: %v", err)
	}
}
