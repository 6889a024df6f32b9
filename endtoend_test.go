package main

import (
	"context"
	"embed"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"testing"

	"github.com/cottand/loon/frontend/types"
	"github.com/cottand/loon/loon"
	"github.com/stretchr/testify/assert"
)

// embeds the test folder
//
//go:embed test
var testSet embed.FS

// scenario files hold a directive comment followed by type expressions, one
// per line:
//
//	-- subtype: yes|no
//	<sub type>
//	<super type>
//
//	-- resolve: ok|nonviable|arity|not-a-function <candidate index|callee>
//	<callee type>
//	<argument type>...
func scenarioLines(content string) (directive string, exprs []string) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "--") {
			if directive == "" {
				directive = strings.TrimSpace(strings.TrimPrefix(line, "--"))
			}
			continue
		}
		exprs = append(exprs, line)
	}
	return directive, exprs
}

func TestSubtypingEndToEnd(t *testing.T) {
	files, err := testSet.ReadDir("test/subtyping")
	assert.NoError(t, err)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".loon") {
			continue
		}
		testSubtypeFile(t, f)
	}
}

func TestOverloadsEndToEnd(t *testing.T) {
	files, err := testSet.ReadDir("test/overloads")
	assert.NoError(t, err)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".loon") {
			continue
		}
		testOverloadFile(t, f)
	}
}

func testSubtypeFile(t *testing.T, f fs.DirEntry) bool {
	return t.Run(f.Name(), func(t *testing.T) {
		content, err := testSet.ReadFile(path.Join("test/subtyping", f.Name()))
		assert.NoError(t, err)

		directive, exprs := scenarioLines(string(content))
		verdict, ok := strings.CutPrefix(directive, "subtype: ")
		if !ok || len(exprs) != 2 || verdict != "yes" && verdict != "no" {
			t.Fatalf("malformed scenario file:\n%s", content)
		}

		analyzer := loon.NewAnalyzer(context.Background(), loon.Settings{})
		sub := parseScenarioType(t, analyzer, exprs[0])
		superTy := parseScenarioType(t, analyzer, exprs[1])

		result, queryErrs := analyzer.IsSubtype(sub, superTy)
		assert.False(t, queryErrs.HasError(), "query failed: %v", queryErrs.Errors())
		assert.Equal(t, verdict == "yes", result.IsSubtype,
			"%s ≤ %s, expected %s:\n%s", sub, superTy, verdict, loon.DescribeResult(result))
	})
}

func testOverloadFile(t *testing.T, f fs.DirEntry) bool {
	return t.Run(f.Name(), func(t *testing.T) {
		content, err := testSet.ReadFile(path.Join("test/overloads", f.Name()))
		assert.NoError(t, err)

		directive, exprs := scenarioLines(string(content))
		expectation, ok := strings.CutPrefix(directive, "resolve: ")
		if !ok || len(exprs) == 0 {
			t.Fatalf("malformed scenario file:\n%s", content)
		}
		analysisWord, chosenWord, ok := strings.Cut(expectation, " ")
		if !ok {
			t.Fatalf("malformed resolve directive: %q", directive)
		}
		wantAnalysis, ok := map[string]types.Analysis{
			"ok":             types.AnalysisOk,
			"nonviable":      types.OverloadIsNonviable,
			"arity":          types.ArityMismatch,
			"not-a-function": types.TypeIsNotAFunction,
		}[analysisWord]
		if !ok {
			t.Fatalf("unknown analysis %q in directive %q", analysisWord, directive)
		}

		analyzer := loon.NewAnalyzer(context.Background(), loon.Settings{})
		callee := parseScenarioType(t, analyzer, exprs[0])
		var argTys []types.TypeId
		for _, expr := range exprs[1:] {
			argTys = append(argTys, parseScenarioType(t, analyzer, expr))
		}
		args := analyzer.Arena().Pack(argTys, nil)

		analysis, chosen, queryErrs := analyzer.SelectOverload(callee, args, nil)
		assert.False(t, queryErrs.HasError(), "query failed: %v", queryErrs.Errors())
		assert.Equal(t, wantAnalysis, analysis, "resolving %s against %s", callee, args)

		if chosenWord == "callee" {
			assert.Same(t, callee, chosen)
			return
		}
		idx, err := strconv.Atoi(chosenWord)
		assert.NoError(t, err, "bad candidate index in directive %q", directive)
		candidates := []types.TypeId{callee}
		if inter, isInter := callee.(*types.IntersectionType); isInter {
			candidates = inter.Members
		}
		if assert.Less(t, idx, len(candidates)) {
			assert.Same(t, candidates[idx], chosen)
		}
	})
}

func parseScenarioType(t *testing.T, analyzer *loon.Analyzer, src string) types.TypeId {
	t.Helper()
	ty, errs := analyzer.ParseType(src)
	if errs.HasError() {
		t.Fatalf("scenario type %q does not parse: %v", src, errs.Errors())
	}
	return ty
}
