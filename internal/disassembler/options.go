package disassembler

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/leefowlercu/xml-disassembler/internal/multilevel"
)

// Strategy selects how nested elements are distributed across files.
type Strategy string

const (
	// StrategyUniqueID writes one file per nested element.
	StrategyUniqueID Strategy = "unique-id"

	// StrategyGroupedByTag writes one file per distinct nested tag.
	StrategyGroupedByTag Strategy = "grouped-by-tag"
)

// ParseStrategy returns the named strategy. Unknown names fall back to
// unique-id with a warning.
func ParseStrategy(name string, logger *slog.Logger) Strategy {
	switch Strategy(strings.TrimSpace(name)) {
	case StrategyUniqueID, "":
		return StrategyUniqueID
	case StrategyGroupedByTag:
		return StrategyGroupedByTag
	}
	if logger != nil {
		logger.Warn("unknown strategy; using unique-id", "strategy", name)
	}
	return StrategyUniqueID
}

// Split tag modes.
const (
	ModeSplit = "split"
	ModeGroup = "group"
)

// UngroupedName is the file name used in group mode for elements that lack
// the grouping field.
const UngroupedName = "_ungrouped"

// SplitTag customizes grouped-by-tag output for one tag.
type SplitTag struct {
	Tag       string
	Directory string
	Mode      string
	Field     string
}

// ParseSplitTags parses a comma-separated list of "tag:mode:field" or
// "tag:path:mode:field" rules. A later rule for the same tag replaces an
// earlier one.
func ParseSplitTags(list string) (map[string]SplitTag, error) {
	rules := make(map[string]SplitTag)
	for _, raw := range strings.Split(list, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		parts := strings.SplitN(raw, ":", 4)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		var rule SplitTag
		switch len(parts) {
		case 3:
			rule = SplitTag{Tag: parts[0], Directory: parts[0], Mode: parts[1], Field: parts[2]}
		case 4:
			rule = SplitTag{Tag: parts[0], Directory: parts[1], Mode: parts[2], Field: parts[3]}
		default:
			return nil, fmt.Errorf("invalid split tag rule %q; expected tag:mode:field or tag:path:mode:field", raw)
		}

		if rule.Tag == "" || rule.Mode == "" || rule.Field == "" {
			return nil, fmt.Errorf("invalid split tag rule %q; tag, mode and field are required", raw)
		}
		if rule.Mode != ModeSplit && rule.Mode != ModeGroup {
			return nil, fmt.Errorf("invalid split tag rule %q; mode must be %q or %q", raw, ModeSplit, ModeGroup)
		}
		dir, err := cleanDirectory(rule.Directory)
		if err != nil {
			return nil, fmt.Errorf("invalid split tag rule %q; %w", raw, err)
		}
		rule.Directory = dir

		rules[rule.Tag] = rule
	}
	return rules, nil
}

func cleanDirectory(dir string) (string, error) {
	dir = strings.ReplaceAll(dir, "\\", "/")
	if dir == "" || strings.HasPrefix(dir, "/") {
		return "", fmt.Errorf("directory %q must be a relative path", dir)
	}
	cleaned := path.Clean(dir)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("directory %q must stay inside the output directory", dir)
	}
	return cleaned, nil
}

// Config holds the settings of a disassembly run.
type Config struct {
	// UniqueIDElements is the ordered list of attribute or child names tried
	// when naming a fragment.
	UniqueIDElements []string

	Strategy Strategy

	// PrePurge removes the output directory before writing.
	PrePurge bool

	// PostPurge removes the input file after a successful disassembly.
	PostPurge bool

	// IgnorePath is the gitignore-style file consulted when walking a directory.
	IgnorePath string

	// Format is the fragment format name; empty means xml.
	Format string

	SplitTags map[string]SplitTag

	MultiLevel []multilevel.Rule

	// Concurrency bounds the number of files processed at once in directory
	// mode. Zero means the number of CPUs.
	Concurrency int
}
