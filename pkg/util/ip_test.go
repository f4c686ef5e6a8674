package util

import "testing"

func TestIsValidIP(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"192.0.2.1", true},
		{"2001:db8::1", true},
		{"::1", true},
		{"256.0.0.1", false},
		{"radius.example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsValidIP(tt.input); got != tt.want {
				t.Errorf("IsValidIP(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsValidIPv6Prefix(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"fc00:0:1::/48", true},
		{"2001:db8::/129", false},
		{"10.0.0.0/8", false},
		{"2001:db8::1", false},
	}

	for _, tt := range tests {
		if got := IsValidIPv6Prefix(tt.input); got != tt.want {
			t.Errorf("IsValidIPv6Prefix(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		port    string
		wantErr bool
	}{
		{"1812", false},
		{"1", false},
		{"65535", false},
		{"0", true},
		{"65536", true},
		{"radius", true},
		{"-1", true},
	}

	for _, tt := range tests {
		t.Run(tt.port, func(t *testing.T) {
			err := ValidatePort(tt.port)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePort(%q) error = %v, wantErr %v", tt.port, err, tt.wantErr)
			}
		})
	}
}

func TestParseUintInRange(t *testing.T) {
	n, err := ParseUintInRange("timeout", "2", 1, 60)
	if err != nil || n != 2 {
		t.Errorf("ParseUintInRange() = %d, %v; want 2, nil", n, err)
	}
	if _, err := ParseUintInRange("timeout", "61", 1, 60); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestHostPort(t *testing.T) {
	if got := HostPort("192.0.2.1", "1812"); got != "192.0.2.1:1812" {
		t.Errorf("HostPort() = %q", got)
	}
	if got := HostPort("2001:db8::1", "1812"); got != "[2001:db8::1]:1812" {
		t.Errorf("HostPort() = %q", got)
	}
}
