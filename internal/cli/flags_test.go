package cli

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseGlobalFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		want     globalOptions
		wantRest []string
	}{
		{
			name:     "separate values",
			args:     []string{"--config", "/tmp/c.toml", "--run-id", "7", "-v", "chat", "hi"},
			want:     globalOptions{configPath: "/tmp/c.toml", runID: "7", verbose: true},
			wantRest: []string{"chat", "hi"},
		},
		{
			name:     "inline values",
			args:     []string{"--config=/tmp/c.toml", "--run-id=7", "ready"},
			want:     globalOptions{configPath: "/tmp/c.toml", runID: "7"},
			wantRest: []string{"ready"},
		},
		{
			name:     "flags after command are left alone",
			args:     []string{"resources", "--json"},
			wantRest: []string{"resources", "--json"},
		},
		{
			name:     "separator",
			args:     []string{"--verbose", "--", "--odd-command"},
			want:     globalOptions{verbose: true},
			wantRest: []string{"--odd-command"},
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest, err := parseGlobalFlags(tt.args)
			if err != nil {
				t.Fatalf("parseGlobalFlags() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(globalOptions{})); diff != "" {
				t.Fatalf("options mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantRest, rest); diff != "" {
				t.Fatalf("rest mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseGlobalFlagsErrors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"--config"}, want: "missing value for --config"},
		{args: []string{"--run-id"}, want: "missing value for --run-id"},
		{args: []string{"--json", "resources"}, want: "unknown flag: --json"},
	}

	for _, tt := range tests {
		_, _, err := parseGlobalFlags(tt.args)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("parseGlobalFlags(%q) error = %v, want %q", tt.args, err, tt.want)
		}
	}
}

func TestParseResourcesArgs(t *testing.T) {
	parsed, err := parseResourcesArgs(nil)
	if err != nil {
		t.Fatalf("parseResourcesArgs(nil) error = %v", err)
	}
	if parsed.mode.isJSON() {
		t.Fatal("default mode is JSON, want text")
	}

	parsed, err = parseResourcesArgs([]string{"--json"})
	if err != nil {
		t.Fatalf("parseResourcesArgs(--json) error = %v", err)
	}
	if !parsed.mode.isJSON() {
		t.Fatal("mode is text, want JSON")
	}
}

func TestParseInitArgs(t *testing.T) {
	got, err := parseInitArgs([]string{"--force", "--new-run"})
	if err != nil {
		t.Fatalf("parseInitArgs() error = %v", err)
	}
	if !got.force || !got.newRun {
		t.Fatalf("parseInitArgs() = %+v, want both set", got)
	}

	if _, err := parseInitArgs([]string{"--yes"}); err == nil {
		t.Fatal("parseInitArgs(--yes) error = nil, want error")
	}
}
