package cmd

import (
	"fmt"
	"io"

	"github.com/cottand/rootcause/constraint"
	"github.com/cottand/rootcause/graph"
	"github.com/cottand/rootcause/saturate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var PathsCmd = &cobra.Command{
	Use:          "paths fixture.yaml",
	Short:        "Print the shortest derivation of each query of a fixture from its constraints",
	RunE:         runPaths,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var pathsFlags *commonFlags

func init() {
	pathsFlags = addCommonFlags(PathsCmd)
}

func runPaths(cmd *cobra.Command, args []string) error {
	fx, opts, err := pathsFlags.load(args[0])
	if err != nil {
		return err
	}

	g := graph.NewFromConstraints(fx.Constraints)
	for _, q := range fx.Queries {
		g.GetNode(q.Lhs)
		g.GetNode(q.Rhs)
	}
	saturated, err := saturate.Saturate(g, fx.Axioms, opts)
	if err != nil {
		return errors.Wrapf(err, "could not saturate constraints of %s", args[0])
	}

	out := cmd.OutOrStdout()
	for _, q := range fx.Queries {
		writePath(out, saturated, q.Lhs, q.Rhs)
		if q.Rel == constraint.EQ {
			writePath(out, saturated, q.Rhs, q.Lhs)
		}
	}
	return nil
}

func writePath(out io.Writer, saturated *saturate.SaturatedGraph, lhs, rhs constraint.Element) {
	g := saturated.Graph()
	from, to := g.GetNode(lhs), g.GetNode(rhs)
	_, _ = fmt.Fprintf(out, "%s <= %s:\n", lhs, rhs)
	path := saturated.LeqPath(from, to)
	switch {
	case path == nil:
		_, _ = fmt.Fprintln(out, "   no derivation")
	case len(path) == 0 && from == to:
		_, _ = fmt.Fprintln(out, "   reflexivity")
	case len(path) == 0:
		_, _ = fmt.Fprintln(out, "   holds without any constraint")
	default:
		_, _ = fmt.Fprint(out, graph.PathString(path))
	}
}
