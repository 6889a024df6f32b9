package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cottand/loon/frontend/loonerr"
	"github.com/cottand/loon/internal/log"
	"github.com/cottand/loon/loon"
	"github.com/spf13/cobra"
)

var SubtypeCmd = &cobra.Command{
	Use:          "subtype <sub> <super>",
	Short:        "Decide whether one type is a subtype of another",
	RunE:         runSubtype,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
}

var (
	subtypeSteps *int
	logLevel     *int
)

func init() {
	subtypeSteps = SubtypeCmd.Flags().IntP("steps", "s", 0, "step budget per query, 0 for the default")
	logLevel = SubtypeCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "log level")
}

func runSubtype(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*logLevel))

	analyzer := loon.NewAnalyzer(cmd.Context(), loon.Settings{Steps: *subtypeSteps})
	sub, errs := analyzer.ParseType(args[0])
	superTy, moreErrs := analyzer.ParseType(args[1])
	errs = errs.Merge(moreErrs)
	if errs.HasError() {
		return fmt.Errorf("errors found in the input:%s", formatErrors(errs))
	}

	result, queryErrs := analyzer.IsSubtype(sub, superTy)
	if queryErrs.HasError() {
		return fmt.Errorf("the query failed:%s", formatErrors(queryErrs))
	}

	_, err := fmt.Fprintln(cmd.OutOrStdout(), loon.DescribeResult(result))
	return err
}

func formatErrors(errs *loonerr.Errors) string {
	sb := &strings.Builder{}
	for _, loonError := range errs.Errors() {
		sb.WriteString("\n")
		sb.WriteString(loonerr.FormatWithCode(loonError))
	}
	return sb.String()
}
