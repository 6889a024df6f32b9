package ir

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExprStringNestedCall(t *testing.T) {
	expr := &Call{
		Func: &Var{Name: "f"},
		Args: []Expr{
			&Var{Name: "x"},
			&Call{Func: &Var{Name: "g"}, Args: []Expr{NumberLiteral("1", nil)}},
		},
	}

	assert.Equal(t, "f(x, g(1))", ExprString(expr))
}

func TestExprStringMethodCall(t *testing.T) {
	expr := &MethodCall{
		Recv: &Var{Name: "obj"},
		Name: "insert",
		Args: []Expr{StringLiteral(`"a"`, nil)},
	}

	assert.Equal(t, `obj:insert("a")`, ExprString(expr))
}

func TestLiteralConstructors(t *testing.T) {
	at := Range{PosStart: 3, PosEnd: 7}

	str := StringLiteral(`"hi"`, at)
	assert.Equal(t, at, str.Range)
	assert.True(t, IsLiteral(str))
	assert.Equal(t, `string "hi"`, str.Describe())

	num := NumberLiteral("42", at)
	assert.Equal(t, "number 42", num.Describe())

	assert.Equal(t, "true", BoolLiteral(true, at).Syntax)
	assert.Equal(t, "false", BoolLiteral(false, at).Syntax)
	assert.Equal(t, "nil", NilLiteral(at).Syntax)

	assert.False(t, IsLiteral(&Var{Name: "x"}))
}

func TestExprHashes(t *testing.T) {
	x := &Var{Name: "x"}
	y := &Var{Name: "y"}
	assert.NotEqual(t, x.Hash(), y.Hash())
	assert.Equal(t, x.Hash(), (&Var{Name: "x", Range: Range{PosStart: 9}}).Hash(),
		"hashes are structural, positions do not contribute")

	call := &Call{Func: x, Args: []Expr{y}}
	swapped := &Call{Func: x, Args: []Expr{x}}
	assert.NotEqual(t, call.Hash(), swapped.Hash())

	method := &MethodCall{Recv: x, Name: "m", Args: []Expr{y}}
	renamed := &MethodCall{Recv: x, Name: "n", Args: []Expr{y}}
	assert.NotEqual(t, method.Hash(), renamed.Hash())
}

func TestRangeOf(t *testing.T) {
	assert.Equal(t, Range{}, RangeOf(nil))

	at := Range{PosStart: 2, PosEnd: 5}
	assert.Equal(t, at, RangeOf(at))
	assert.Equal(t, at, RangeOf(&at))

	spanned := RangeBetween(Range{PosStart: 2, PosEnd: 3}, Range{PosStart: 4, PosEnd: 5})
	assert.Equal(t, Range{PosStart: 2, PosEnd: 5}, spanned)
}

func TestIRSlogHandlerRendersExprAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(IRSlogHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("checking", "expr", &Var{Name: "x", Range: Range{PosStart: 1, PosEnd: 2}})

	out := buf.String()
	assert.Contains(t, out, "expr.str=x")
	assert.Contains(t, out, `expr.name="variable x"`)
	assert.Contains(t, out, "expr.pos=1-2")
}
