//go:build !( js || wasm)

package main

import (
	"github.com/cottand/loon/cmd"
	"github.com/spf13/cobra"
	"os"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "loon [subcommand]",
	Short:        "loon 🪶\n a subtyping and overload analyzer for a gradually typed scripting language",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.SubtypeCmd)
	rootCmd.AddCommand(cmd.ResolveCmd)
}
