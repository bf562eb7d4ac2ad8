package cmd

import (
	"fmt"

	"github.com/cottand/rootcause/graph"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var DotCmd = &cobra.Command{
	Use:          "dot fixture.yaml",
	Short:        "Print the constraint graph of a fixture in the Graphviz DOT format",
	RunE:         runDot,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var dotFlags *commonFlags

func init() {
	dotFlags = addCommonFlags(DotCmd)
}

func runDot(cmd *cobra.Command, args []string) error {
	fx, _, err := dotFlags.load(args[0])
	if err != nil {
		return err
	}
	g := graph.NewFromConstraints(fx.Constraints)
	if err := g.GenerateGraph(); err != nil {
		return errors.Wrapf(err, "could not generate constraint graph of %s", args[0])
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), g.ToDotString())
	return err
}
