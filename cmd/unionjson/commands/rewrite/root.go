// Package rewrite wires the document rewrite commands into the CLI.
package rewrite

import "github.com/spf13/cobra"

func Apply(rootCmd *cobra.Command) {
	rootCmd.AddCommand(flattenCmd)
	rootCmd.AddCommand(wrapCmd)
	rootCmd.AddCommand(validateCmd)
}
