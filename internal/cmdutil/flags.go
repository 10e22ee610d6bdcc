package cmdutil

import "github.com/spf13/cobra"

// Override returns flagValue when the named flag was set on the command line,
// otherwise configValue.
func Override[T any](cmd *cobra.Command, name string, flagValue, configValue T) T {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return flagValue
	}
	return configValue
}
