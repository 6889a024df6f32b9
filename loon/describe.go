package loon

import (
	"fmt"
	"strings"

	"github.com/cottand/loon/frontend/loonerr"
	"github.com/cottand/loon/frontend/types"
)

// DescribeResult renders a judgement for people: the verdict first, then one
// line per reasoning and per diagnostic.
func DescribeResult(result types.SubtypingResult) string {
	var sb strings.Builder
	if result.IsSubtype {
		sb.WriteString("subtype: yes")
	} else {
		sb.WriteString("subtype: no")
	}
	if result.NormalizationTooComplex {
		sb.WriteString(" (too complex to decide, answering conservatively)")
	}
	for _, reasoning := range result.Reasoning.Slice() {
		sb.WriteString("\n  " + reasoning.String())
	}
	for _, err := range result.Errors.Errors() {
		sb.WriteString("\n  " + loonerr.FormatWithCode(err))
	}
	return sb.String()
}

// DescribeResolution renders the per-candidate verdicts of a resolved call,
// in the order the candidates were tried.
func DescribeResolution(resolver *types.OverloadResolver) string {
	var sb strings.Builder
	for i, entry := range resolver.Resolutions() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s: %s", entry.Fst, entry.Snd.Analysis)
		for _, err := range candidateErrors(resolver, entry.Snd).Errors() {
			sb.WriteString("\n  " + loonerr.FormatWithCode(err))
		}
	}
	return sb.String()
}

func candidateErrors(resolver *types.OverloadResolver, c types.OverloadClassification) *loonerr.Errors {
	switch c.Analysis {
	case types.ArityMismatch:
		return resolver.ArityMismatches[c.Index].Snd
	case types.OverloadIsNonviable:
		return resolver.NonviableOverloads[c.Index].Snd
	default:
		return nil
	}
}
