// Package version reports the build identity of the xmldisassembler binary.
package version

import (
	_ "embed"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var versionFile string

// Set with -ldflags "-X github.com/leefowlercu/xml-disassembler/internal/version.gitCommit=VALUE".
var (
	gitCommit string
	buildDate string
)

const unknown = "unknown"

// Info describes the running binary.
type Info struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
}

// String renders Info as aligned "Key: value" lines.
func (i Info) String() string {
	return fmt.Sprintf("Version:    %s\nGit Commit: %s\nBuild Date: %s\nGo Version: %s",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion)
}

// Short returns "<version> (<commit>)" for the root command's --version flag.
func (i Info) Short() string {
	return fmt.Sprintf("%s (%s)", i.Version, i.GitCommit)
}

// Get collects version information from the embedded VERSION file, linker
// flags and the module build info.
func Get() Info {
	info := Info{
		Version:   strings.TrimSpace(versionFile),
		GitCommit: gitCommit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
	}
	if info.GitCommit == "" {
		info.GitCommit = vcsRevision()
	}
	if info.BuildDate == "" {
		info.BuildDate = unknown
	}
	return info
}

// vcsRevision returns the 7-character VCS revision recorded by `go install`,
// suffixed with "-dirty" for modified trees.
func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return unknown
	}

	var rev string
	var dirty bool
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return unknown
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}
