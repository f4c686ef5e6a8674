package cli

import (
	"errors"
	"strings"
	"testing"
)

func TestDotPad(t *testing.T) {
	tests := []struct {
		name  string
		width int
		want  string
	}{
		{"rip", 12, "rip ........"},
		{"segment-routing", 20, "segment-routing ...."},
		{"segment-routing", 16, "segment-routing"},
		{"segment-routing", 4, "segment-routing"},
		{"", 3, " .."},
	}
	for _, tt := range tests {
		got := DotPad(tt.name, tt.width)
		if got != tt.want {
			t.Errorf("DotPad(%q, %d) = %q, want %q", tt.name, tt.width, got, tt.want)
		}
		if len(tt.name) < tt.width-1 && len(got) != tt.width {
			t.Errorf("DotPad(%q, %d) has length %d", tt.name, tt.width, len(got))
		}
	}
}

func TestColorFunctions(t *testing.T) {
	saved := colorEnabled
	colorEnabled = true
	defer func() { colorEnabled = saved }()

	tests := []struct {
		name   string
		fn     func(string) string
		prefix string
	}{
		{"Green", Green, "\033[32m"},
		{"Yellow", Yellow, "\033[33m"},
		{"Red", Red, "\033[31m"},
		{"Dim", Dim, "\033[2m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn("hello")
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("%s should start with %q", tt.name, tt.prefix)
			}
			if !strings.Contains(got, "hello") {
				t.Errorf("%s should contain the input string", tt.name)
			}
			if !strings.HasSuffix(got, "\033[0m") {
				t.Errorf("%s should end with reset code", tt.name)
			}
		})

		t.Run(tt.name+"_empty", func(t *testing.T) {
			got := tt.fn("")
			if !strings.HasSuffix(got, "\033[0m") {
				t.Errorf("%s(\"\") should end with reset code", tt.name)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	saved := colorEnabled
	colorEnabled = false
	defer func() { colorEnabled = saved }()

	tests := []struct {
		err     error
		execute bool
		want    string
	}{
		{nil, false, "preview"},
		{nil, true, "applied"},
		{errors.New("boom"), true, "FAILED"},
		{errors.New("boom"), false, "FAILED"},
	}
	for _, tt := range tests {
		if got := Status(tt.err, tt.execute); got != tt.want {
			t.Errorf("Status(%v, %v) = %q, want %q", tt.err, tt.execute, got, tt.want)
		}
	}
}
