// Package multilevel strips a nested wrapper from selected fragment files,
// disassembles the result a second time, and records what is needed to undo
// both steps during reassembly.
package multilevel

import (
	"fmt"
	"strings"
)

// Rule selects fragment files and the wrapper to strip from them.
type Rule struct {
	// FilePattern is matched as a substring of the fragment's relative path.
	FilePattern string

	// RootToStrip names either the fragment's root tag or the tag of the
	// root's only element child.
	RootToStrip string

	// UniqueIDElements is the naming priority list for the inner disassembly.
	UniqueIDElements []string
}

// ParseRule parses "file_pattern:root_to_strip:id1,id2".
func ParseRule(s string) (Rule, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	if len(parts) != 3 {
		return Rule{}, fmt.Errorf("invalid multi-level rule %q; expected file_pattern:root_to_strip:unique_id_elements", s)
	}

	rule := Rule{
		FilePattern: strings.TrimSpace(parts[0]),
		RootToStrip: strings.TrimSpace(parts[1]),
	}
	for _, id := range strings.Split(parts[2], ",") {
		if id = strings.TrimSpace(id); id != "" {
			rule.UniqueIDElements = append(rule.UniqueIDElements, id)
		}
	}

	if rule.FilePattern == "" || rule.RootToStrip == "" || len(rule.UniqueIDElements) == 0 {
		return Rule{}, fmt.Errorf("invalid multi-level rule %q; all three parts are required", s)
	}
	return rule, nil
}

// String returns the rule in its textual form.
func (r Rule) String() string {
	return r.FilePattern + ":" + r.RootToStrip + ":" + strings.Join(r.UniqueIDElements, ",")
}
