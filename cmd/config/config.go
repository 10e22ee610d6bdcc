// Package config provides the config parent command and subcommands.
package config

import (
	"github.com/spf13/cobra"

	"github.com/leefowlercu/xml-disassembler/cmd/config/subcommands"
)

// ConfigCmd is the parent command for all config-related subcommands.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage xmldisassembler configuration",
	Long: "Manage xmldisassembler configuration.\n\n" +
		"The config command allows you to create, view, edit, validate and reset the " +
		"configuration. Configuration is stored in a YAML file located at " +
		"~/.config/xmldisassembler/config.yaml by default, or in the directory named " +
		"by XMLDISASSEMBLER_CONFIG_DIR.",
}

func init() {
	ConfigCmd.AddCommand(subcommands.InitCmd)
	ConfigCmd.AddCommand(subcommands.ShowCmd)
	ConfigCmd.AddCommand(subcommands.EditCmd)
	ConfigCmd.AddCommand(subcommands.ResetCmd)
	ConfigCmd.AddCommand(subcommands.ValidateCmd)
}
