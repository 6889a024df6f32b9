package cmd

import (
	"fmt"
	"log/slog"

	"github.com/cottand/loon/frontend/types"
	"github.com/cottand/loon/internal/log"
	"github.com/cottand/loon/loon"
	"github.com/spf13/cobra"
)

var ResolveCmd = &cobra.Command{
	Use:          "resolve <fn> [<arg>...]",
	Short:        "Resolve a call against a function or overload intersection",
	RunE:         runResolve,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var resolveSteps *int

func init() {
	resolveSteps = ResolveCmd.Flags().IntP("steps", "s", 0, "step budget per query, 0 for the default")
}

func runResolve(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.LevelError)

	analyzer := loon.NewAnalyzer(cmd.Context(), loon.Settings{Steps: *resolveSteps})
	callee, errs := analyzer.ParseType(args[0])
	var argTys []types.TypeId
	for _, src := range args[1:] {
		ty, moreErrs := analyzer.ParseType(src)
		errs = errs.Merge(moreErrs)
		argTys = append(argTys, ty)
	}
	if errs.HasError() {
		return fmt.Errorf("errors found in the input:%s", formatErrors(errs))
	}

	pack := analyzer.Arena().Pack(argTys, nil)
	analysis, chosen, queryErrs := analyzer.SelectOverload(callee, pack, nil)
	if queryErrs.HasError() {
		return fmt.Errorf("the query failed:%s", formatErrors(queryErrs))
	}
	resolver, queryErrs := analyzer.Resolve(callee, pack, nil, nil, nil)
	if queryErrs.HasError() {
		return fmt.Errorf("the query failed:%s", formatErrors(queryErrs))
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "%s: %s\n", analysis, chosen); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, loon.DescribeResolution(resolver))
	return err
}
