package disassemble

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/xml-disassembler/internal/cmdutil"
	"github.com/leefowlercu/xml-disassembler/internal/config"
	"github.com/leefowlercu/xml-disassembler/internal/disassembler"
	"github.com/leefowlercu/xml-disassembler/internal/multilevel"
)

// Options holds the disassembly flags. The watch command registers the same
// set.
type Options struct {
	UniqueIDElements []string
	Strategy         string
	PrePurge         bool
	PostPurge        bool
	IgnorePath       string
	Format           string
	SplitTags        string
	MultiLevel       []string
	Concurrency      int
}

// Register adds the disassembly flags to cmd.
func (o *Options) Register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceVar(&o.UniqueIDElements, "unique-id-elements", nil,
		"Comma-separated element names used to name nested element files")
	f.StringVar(&o.Strategy, "strategy", config.DefaultStrategy,
		"Disassembly strategy (unique-id, grouped-by-tag)")
	f.BoolVar(&o.PrePurge, "prepurge", false,
		"Remove an existing output directory before writing")
	f.BoolVar(&o.PostPurge, "postpurge", false,
		"Remove the source file after a successful disassembly")
	f.StringVar(&o.IgnorePath, "ignore-path", config.DefaultIgnorePath,
		"Path to a gitignore-style file listing inputs to skip")
	f.StringVar(&o.Format, "format", config.DefaultFormat,
		"Output format for written files (xml, json, json5, yaml, toml)")
	f.StringVar(&o.SplitTags, "split-tags", "",
		"Grouped-by-tag overrides: tag:mode:field or tag:path:mode:field, comma-separated")
	f.StringArrayVar(&o.MultiLevel, "multi-level", nil,
		"Further split matching fragments: file_pattern:root_to_strip:unique_id_elements (repeatable)")
	f.IntVar(&o.Concurrency, "concurrency", config.DefaultConcurrency,
		"Files processed in parallel in directory mode (0 = number of CPUs)")
}

// Resolve merges the flags set on cmd over the configured defaults and
// returns the disassembler configuration.
func (o *Options) Resolve(cmd *cobra.Command, logger *slog.Logger) (disassembler.Config, error) {
	cfg, err := config.Current()
	if err != nil {
		return disassembler.Config{}, err
	}
	d := cfg.Disassemble

	out := disassembler.Config{
		UniqueIDElements: cmdutil.Override(cmd, "unique-id-elements", o.UniqueIDElements, d.UniqueIDElements),
		Strategy:         disassembler.ParseStrategy(cmdutil.Override(cmd, "strategy", o.Strategy, d.Strategy), logger),
		PrePurge:         o.PrePurge,
		PostPurge:        o.PostPurge,
		IgnorePath:       config.ExpandPath(cmdutil.Override(cmd, "ignore-path", o.IgnorePath, d.IgnorePath)),
		Format:           cmdutil.Override(cmd, "format", o.Format, d.Format),
		Concurrency:      cmdutil.Override(cmd, "concurrency", o.Concurrency, d.Concurrency),
	}

	if o.SplitTags != "" {
		out.SplitTags, err = disassembler.ParseSplitTags(o.SplitTags)
		if err != nil {
			return disassembler.Config{}, fmt.Errorf("invalid --split-tags; %w", err)
		}
	}

	for _, raw := range o.MultiLevel {
		rule, err := multilevel.ParseRule(raw)
		if err != nil {
			return disassembler.Config{}, fmt.Errorf("invalid --multi-level; %w", err)
		}
		out.MultiLevel = append(out.MultiLevel, rule)
	}

	return out, nil
}
