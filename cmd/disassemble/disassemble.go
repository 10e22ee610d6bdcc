// Package disassemble implements the disassemble command.
package disassemble

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/xml-disassembler/internal/cmdutil"
	"github.com/leefowlercu/xml-disassembler/internal/disassembler"
	"github.com/leefowlercu/xml-disassembler/internal/tui/styles"
)

var disassembleOpts Options

// DisassembleCmd splits an XML file, or every XML file under a directory,
// into a directory of smaller files.
var DisassembleCmd = &cobra.Command{
	Use:   "disassemble <path>",
	Short: "Split XML files into directories of smaller files",
	Long: "Split an XML file, or every XML file under a directory, into a directory of smaller files.\n\n" +
		"Each input <name>.xml produces a directory <name>/ next to it holding a skeleton file " +
		"with the root and its leaf elements, plus one file per nested element (unique-id strategy) " +
		"or per nested tag (grouped-by-tag strategy). Files listed in the ignore file are skipped. " +
		"Defaults come from the configuration file; flags override them.",
	Example: `  # Disassemble one file, naming nested element files by their fullName child
  xmldisassembler disassemble Admin.profile-meta.xml --unique-id-elements=fullName

  # Disassemble a directory into YAML fragments grouped by tag
  xmldisassembler disassemble force-app/ --strategy=grouped-by-tag --format=yaml

  # Split flows further after the first pass
  xmldisassembler disassemble Bot.xml --multi-level="flows/:Flow:name"`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateDisassemble,
	RunE:    runDisassemble,
}

func init() {
	disassembleOpts.Register(DisassembleCmd)
}

func validateDisassemble(cmd *cobra.Command, args []string) error {
	if disassembleOpts.Concurrency < 0 {
		return fmt.Errorf("--concurrency must not be negative")
	}

	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runDisassemble(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	input, err := cmdutil.ResolvePath(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path; %w", err)
	}

	cfg, err := disassembleOpts.Resolve(cmd, logger)
	if err != nil {
		return err
	}

	d, err := disassembler.New(cfg, disassembler.WithLogger(logger))
	if err != nil {
		return err
	}

	res, runErr := d.Disassemble(cmd.Context(), input)
	if res != nil {
		printResult(cmd.OutOrStdout(), input, res)
	}
	return runErr
}

func printResult(w io.Writer, input string, res *disassembler.Result) {
	base := input
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		base = filepath.Dir(input)
	}

	var done, skipped, failed int
	for _, fr := range res.Files {
		name := relative(base, fr.Input)
		switch {
		case fr.Err != nil:
			failed++
			fmt.Fprintln(w, styles.Failed(fmt.Sprintf("%s: %v", name, fr.Err)))
		case fr.Skipped:
			skipped++
			fmt.Fprintln(w, styles.Skipped(name))
		default:
			done++
			fmt.Fprintln(w, styles.OK(fmt.Sprintf("%s → %s (%d files)", name, relative(base, fr.OutputDir), fr.Fragments)))
		}
	}

	rows := []styles.Row{
		{Label: "Disassembled", Value: strconv.Itoa(done)},
		{Label: "Files written", Value: strconv.Itoa(res.Written())},
		{Label: "Skipped", Value: strconv.Itoa(skipped)},
		{Label: "Failed", Value: strconv.Itoa(failed)},
	}
	fmt.Fprint(w, styles.Summary("Summary", rows))
}

func relative(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}
