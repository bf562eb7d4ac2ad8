package cmd

import (
	"fmt"
	"maps"
	"slices"

	"github.com/cottand/rootcause/constraint"
	"github.com/cottand/rootcause/hypothesis"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var LeqCmd = &cobra.Command{
	Use:          "leq fixture.yaml",
	Short:        "Check the queries of a fixture against its assumptions and axioms",
	RunE:         runLeq,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	leqFlags     *commonFlags
	leqNoGraph   *bool
	leqNoFuncApp *bool
)

func init() {
	leqFlags = addCommonFlags(LeqCmd)
	leqNoGraph = LeqCmd.Flags().Bool("no-graph", false, "only add the assumptions to the hypothesis graph, and decompose other queries structurally")
	leqNoFuncApp = LeqCmd.Flags().Bool("no-function-applications", false, "do not add applications of declared functions to the hypothesis graph")
}

func runLeq(cmd *cobra.Command, args []string) error {
	fx, satOpts, err := leqFlags.load(args[0])
	if err != nil {
		return err
	}

	opts := hypothesis.DefaultOptions()
	opts.Saturation = satOpts
	opts.UseGraph = !*leqNoGraph
	opts.FunctionApplications = !*leqNoFuncApp

	h := hypothesis.NewWithOptions(opts)
	for _, ieq := range fx.Assumptions {
		h.AddInequality(ieq)
	}
	h.AddElements(fx.Elements...)
	h.AddAxioms(fx.Axioms...)
	h.AddFunctions(slices.Collect(maps.Values(fx.Functions))...)

	entailment, err := h.Saturate()
	if err != nil {
		return errors.Wrapf(err, "could not saturate hypothesis of %s", args[0])
	}

	mismatches := 0
	for _, q := range fx.Queries {
		holds := entailment.Leq(q.Lhs, q.Rhs)
		if q.Rel == constraint.EQ {
			holds = holds && entailment.Leq(q.Rhs, q.Lhs)
		}
		line := fmt.Sprintf("%s: %v", q.Inequality, holds)
		if q.Expect != nil && *q.Expect != holds {
			mismatches++
			line += fmt.Sprintf(" (expected %v)", *q.Expect)
			logger.Warn("unexpected entailment", "query", q.Inequality, "at", q.Pos, "expected", *q.Expect)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	if mismatches > 0 {
		return errors.Errorf("%d of %d queries did not match their expectation", mismatches, len(fx.Queries))
	}
	return nil
}
