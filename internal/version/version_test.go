package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet_Version(t *testing.T) {
	got := Get().Version
	if got == "" || got != strings.TrimSpace(got) {
		t.Fatalf("Get().Version = %q, want trimmed non-empty version", got)
	}
	if parts := strings.SplitN(got, ".", 3); len(parts) < 3 {
		t.Errorf("Get().Version = %q, want MAJOR.MINOR.PATCH", got)
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{
			name: "formats all fields",
			info: Info{Version: "1.0.0", GitCommit: "abc1234", BuildDate: "2026-01-10T15:04:05Z", GoVersion: "go1.25.1"},
			want: "Version:    1.0.0\nGit Commit: abc1234\nBuild Date: 2026-01-10T15:04:05Z\nGo Version: go1.25.1",
		},
		{
			name: "handles unknown values",
			info: Info{Version: "0.1.0", GitCommit: "unknown", BuildDate: "unknown", GoVersion: "go1.25.1"},
			want: "Version:    0.1.0\nGit Commit: unknown\nBuild Date: unknown\nGo Version: go1.25.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("Info.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInfoShort(t *testing.T) {
	info := Info{Version: "0.1.0", GitCommit: "def5678-dirty"}
	if got, want := info.Short(), "0.1.0 (def5678-dirty)"; got != want {
		t.Errorf("Info.Short() = %q, want %q", got, want)
	}
}

func TestVCSRevisionFormat(t *testing.T) {
	got := vcsRevision()
	if got == "" {
		t.Fatal("vcsRevision() returned empty string, expected value or 'unknown'")
	}
	if got == "unknown" {
		return
	}
	for _, c := range strings.TrimSuffix(got, "-dirty") {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			t.Errorf("vcsRevision() = %q, contains non-hex character %q", got, c)
			return
		}
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version == "" {
		t.Error("Get().Version is empty, expected embedded version")
	}
	if info.GitCommit == "" {
		t.Error("Get().GitCommit is empty, expected value or 'unknown'")
	}
	if info.BuildDate != "unknown" && buildDate == "" {
		t.Errorf("Get().BuildDate = %q without linker flag, want unknown", info.BuildDate)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("Get().GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}
