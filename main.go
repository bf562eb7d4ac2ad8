package main

import (
	"os"

	"github.com/cottand/rootcause/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "rootcause [subcommand]",
	Short:        "rootcause 🔎\n derivations of subtyping constraints, for diagnosing type errors",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.LeqCmd)
	rootCmd.AddCommand(cmd.PathsCmd)
	rootCmd.AddCommand(cmd.DotCmd)
}
