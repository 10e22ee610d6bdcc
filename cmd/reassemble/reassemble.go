// Package reassemble implements the reassemble command.
package reassemble

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/xml-disassembler/internal/cmdutil"
	"github.com/leefowlercu/xml-disassembler/internal/config"
	"github.com/leefowlercu/xml-disassembler/internal/formats"
	"github.com/leefowlercu/xml-disassembler/internal/reassembler"
	"github.com/leefowlercu/xml-disassembler/internal/tui/styles"
)

var (
	reassembleExtension string
	reassemblePostPurge bool
)

// ReassembleCmd merges a disassembly directory back into one document.
var ReassembleCmd = &cobra.Command{
	Use:   "reassemble <dir>",
	Short: "Merge a disassembled directory back into one document",
	Long: "Merge a disassembled directory back into one document.\n\n" +
		"The directory must hold its skeleton file, named after the directory. " +
		"Multi-level splits recorded in the directory are collapsed first. The " +
		"result is written next to the directory, named after the skeleton with " +
		"the chosen extension.",
	Example: `  # Rebuild Admin.profile-meta.xml from Admin/
  xmldisassembler reassemble Admin

  # Rebuild as JSON and remove the directory afterwards
  xmldisassembler reassemble Admin --extension=json --postpurge`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateReassemble,
	RunE:    runReassemble,
}

func init() {
	ReassembleCmd.Flags().StringVar(&reassembleExtension, "extension", config.DefaultExtension,
		"Extension and format of the rebuilt file (xml, json, json5, yaml, toml)")
	ReassembleCmd.Flags().BoolVar(&reassemblePostPurge, "postpurge", false,
		"Remove the directory after a successful reassembly")
}

func validateReassemble(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("extension") {
		if _, err := formats.Lookup(reassembleExtension); err != nil {
			return err
		}
	}

	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runReassemble(cmd *cobra.Command, args []string) error {
	dir, err := cmdutil.ResolvePath(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path; %w", err)
	}

	cfg, err := config.Current()
	if err != nil {
		return err
	}
	ext := cmdutil.Override(cmd, "extension", reassembleExtension, cfg.Reassemble.Extension)

	res, err := reassembler.New(slog.Default()).Reassemble(cmd.Context(), dir, ext, reassemblePostPurge)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, styles.OK(res.Output))
	rows := []styles.Row{
		{Label: "Files merged", Value: strconv.Itoa(res.Fragments)},
		{Label: "Multi-level collapsed", Value: strconv.Itoa(res.Collapsed)},
	}
	if reassemblePostPurge {
		rows = append(rows, styles.Row{Label: "Removed", Value: dir})
	}
	fmt.Fprint(out, styles.Summary("Summary", rows))
	return nil
}
