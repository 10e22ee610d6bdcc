package subcommands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/xml-disassembler/internal/config"
	"github.com/leefowlercu/xml-disassembler/internal/tui/styles"
)

var (
	initForce bool
)

// InitCmd writes a configuration file holding the defaults.
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Long: "Write a configuration file with default values.\n\n" +
		"Creates config.yaml in the configuration directory so the defaults can be " +
		"edited. An existing file is left alone unless --force is given.",
	Example: `  # Create the configuration file
  xmldisassembler config init

  # Overwrite an existing configuration file
  xmldisassembler config init --force`,
	PreRunE: validateInit,
	RunE:    runInit,
}

func init() {
	InitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
}

func validateInit(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.ActivePath()
	if config.ConfigExistsAt(path) && !initForce {
		return fmt.Errorf("configuration file already exists at %s; use --force to overwrite", path)
	}

	cfg := config.NewDefaultConfig()
	if err := config.Write(&cfg, path); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), styles.OK("Configuration written to "+path))
	return nil
}
