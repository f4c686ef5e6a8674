package schema

import (
	"reflect"
	"testing"
)

func TestBases(t *testing.T) {
	got, err := Bases()
	if err != nil {
		t.Fatalf("Bases() error = %v", err)
	}
	want := []string{"protocols rip", "protocols segment-routing", "system login radius"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Bases() = %v, want %v", got, want)
	}
}

func TestMergeRIP(t *testing.T) {
	tests := []struct {
		name     string
		explicit map[string]any
		want     map[string]any
	}{
		{
			name:     "all defaults",
			explicit: map[string]any{},
			want: map[string]any{
				"default-metric": "1",
				"timers": map[string]any{
					"update":             "30",
					"timeout":            "180",
					"garbage-collection": "120",
				},
			},
		},
		{
			name: "explicit wins",
			explicit: map[string]any{
				"default-metric": "4",
				"timers":         map[string]any{"update": "10"},
				"network":        []string{"10.0.0.0/8"},
			},
			want: map[string]any{
				"default-metric": "4",
				"network":        []string{"10.0.0.0/8"},
				"timers": map[string]any{
					"update":             "10",
					"timeout":            "180",
					"garbage-collection": "120",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Merge(tt.explicit, "protocols", "rip")
			if err != nil {
				t.Fatalf("Merge() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Merge() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeRadiusWildcard(t *testing.T) {
	explicit := map[string]any{
		"server": map[string]any{
			"192.0.2.10": map[string]any{"key": "secret"},
			"192.0.2.11": map[string]any{"key": "other", "port": "1645"},
		},
	}
	got, err := Merge(explicit, "system", "login", "radius")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	want := map[string]any{
		"server": map[string]any{
			"192.0.2.10": map[string]any{"key": "secret", "port": "1812", "timeout": "2"},
			"192.0.2.11": map[string]any{"key": "other", "port": "1645", "timeout": "2"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
	if _, ok := explicit["server"].(map[string]any)["192.0.2.10"].(map[string]any)["port"]; ok {
		t.Error("Merge() modified its input")
	}
}

func TestMergeRadiusNoServers(t *testing.T) {
	got, err := Merge(map[string]any{"source-address": "192.0.2.1"}, "system", "login", "radius")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if _, ok := got["server"]; ok {
		t.Errorf("wildcard defaults created a server node: %v", got)
	}
}

func TestMergeSegmentRouting(t *testing.T) {
	explicit := map[string]any{
		"interface": map[string]any{
			"eth0": map[string]any{"srv6": map[string]any{}},
			"eth1": map[string]any{},
		},
	}
	got, err := Merge(explicit, "protocols", "segment-routing")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	want := map[string]any{
		"interface": map[string]any{
			"eth0": map[string]any{"srv6": map[string]any{"hmac": "accept"}},
			"eth1": map[string]any{},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
}

func TestMergeSegmentRoutingLocator(t *testing.T) {
	explicit := map[string]any{
		"srv6": map[string]any{
			"locator": map[string]any{
				"main": map[string]any{"prefix": "2001:db8:1::/48", "node-len": "32"},
			},
		},
	}
	got, err := Merge(explicit, "protocols", "segment-routing")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	loc := got["srv6"].(map[string]any)["locator"].(map[string]any)["main"].(map[string]any)
	want := map[string]any{
		"prefix":    "2001:db8:1::/48",
		"block-len": "40",
		"node-len":  "32",
		"func-bits": "16",
	}
	if !reflect.DeepEqual(loc, want) {
		t.Errorf("locator main = %v, want %v", loc, want)
	}
}

func TestMergeUnknownBase(t *testing.T) {
	explicit := map[string]any{"a": "b"}
	got, err := Merge(explicit, "service", "unknown")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if !reflect.DeepEqual(got, explicit) {
		t.Errorf("Merge() = %v, want %v", got, explicit)
	}
}
