//go:build js && wasm

package loon

import (
	"context"
	"fmt"
	"strings"
	"syscall/js"

	"github.com/cottand/loon/frontend/loonerr"
	"github.com/cottand/loon/frontend/types"
)

// CheckSubtype evaluates a judgement written as two type expressions and
// renders the verdict with its reasoning, or error messages when either side
// does not parse.
func CheckSubtype(_ js.Value, args []js.Value) (ret any) {
	defer func() {
		if r := recover(); r != nil {
			ret = "analyzer panicked: " + fmt.Sprint(r)
		}
	}()

	analyzer := NewAnalyzer(context.Background(), Settings{})
	sub, errs := analyzer.ParseType(args[0].String())
	superTy, moreErrs := analyzer.ParseType(args[1].String())
	errs = errs.Merge(moreErrs)
	if errs.HasError() {
		return formatErrors(errs)
	}
	result, queryErrs := analyzer.IsSubtype(sub, superTy)
	if queryErrs.HasError() {
		return formatErrors(queryErrs)
	}
	return DescribeResult(result)
}

// ResolveCall resolves a call written as a callee type expression followed by
// argument type expressions.
//
// output: { error: string } | { analysis: string, chosen: string, candidates: string }
func ResolveCall(_ js.Value, args []js.Value) (ret any) {
	errorObj := func(err string) any {
		return js.ValueOf(map[string]any{"error": err})
	}
	defer func() {
		if r := recover(); r != nil {
			ret = errorObj("analyzer panicked: " + fmt.Sprint(r))
		}
	}()

	analyzer := NewAnalyzer(context.Background(), Settings{})
	callee, errs := analyzer.ParseType(args[0].String())
	var argTys []types.TypeId
	for _, arg := range args[1:] {
		ty, moreErrs := analyzer.ParseType(arg.String())
		errs = errs.Merge(moreErrs)
		argTys = append(argTys, ty)
	}
	if errs.HasError() {
		return errorObj(formatErrors(errs))
	}
	pack := analyzer.Arena().Pack(argTys, nil)
	analysis, chosen, queryErrs := analyzer.SelectOverload(callee, pack, nil)
	if queryErrs.HasError() {
		return errorObj(formatErrors(queryErrs))
	}
	resolver, queryErrs := analyzer.Resolve(callee, pack, nil, nil, nil)
	if queryErrs.HasError() {
		return errorObj(formatErrors(queryErrs))
	}
	return js.ValueOf(map[string]any{
		"analysis":   analysis.String(),
		"chosen":     chosen.String(),
		"candidates": DescribeResolution(resolver),
	})
}

func formatErrors(errs *loonerr.Errors) string {
	sb := strings.Builder{}
	sb.WriteString("the input has the following errors:\n")
	for _, err := range errs.Errors() {
		sb.WriteString(loonerr.FormatWithCode(err))
		sb.WriteByte('\n')
	}
	return sb.String()
}
