package cmdutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~/x/../y", filepath.Join(home, "y")},
		{"rel/a.xml", filepath.Join(wd, "rel", "a.xml")},
		{"/abs//b/", "/abs/b"},
	}
	for _, tt := range tests {
		got, err := ResolvePath(tt.in)
		if err != nil {
			t.Fatalf("ResolvePath(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ResolvePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOverride(t *testing.T) {
	var format string
	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	cmd.Flags().StringVar(&format, "format", "xml", "")

	if got := Override(cmd, "format", format, "yaml"); got != "yaml" {
		t.Errorf("unset flag: Override() = %q, want config value", got)
	}
	if got := Override(cmd, "missing", "a", "b"); got != "b" {
		t.Errorf("unknown flag: Override() = %q, want config value", got)
	}

	if err := cmd.Flags().Set("format", "json"); err != nil {
		t.Fatal(err)
	}
	if got := Override(cmd, "format", format, "yaml"); got != "json" {
		t.Errorf("set flag: Override() = %q, want flag value", got)
	}
}
