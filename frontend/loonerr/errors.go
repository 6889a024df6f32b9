package loonerr

import (
	"fmt"
	"github.com/cottand/loon/frontend/ir"
	"runtime/debug"
	"strings"
)

// enableDebugErrorPrinting makes errors include their stacktrace when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	Parse
	TypeMismatch
	CountMismatch
	NotAFunction
	UninhabitedTypeFamily
	GenericBoundMismatch
	NormalizationTooComplex
	Internal
)

type LoonError interface {
	Error() string
	Code() ErrCode
	ir.Positioner

	withStack([]byte) LoonError
	getStack() []byte
}

func FormatWithCode(e LoonError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			stack = strings.Split(stack, "\n")[6]
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func New[E LoonError](err E) LoonError {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From error
	ir.Positioner
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) LoonError {
	e.stack = stack
	return e
}

type NewParse struct {
	ir.Positioner
	ParserMessage string
	Hint          string
	stack         []byte
}

func (e NewParse) Error() string {
	return e.ParserMessage
}
func (e NewParse) Code() ErrCode    { return Parse }
func (e NewParse) getStack() []byte { return e.stack }
func (e NewParse) withStack(stack []byte) LoonError {
	e.stack = stack
	return e
}

// NewTypeMismatch reports a failed subtyping judgement. Sub and Super are the
// rendered top-level types; SubPath and SuperPath locate the mismatched
// leaves inside them, when known.
type NewTypeMismatch struct {
	ir.Positioner
	Sub       string
	Super     string
	SubPath   string
	SuperPath string
	Variance  string
	stack     []byte
}

func (e NewTypeMismatch) Error() string {
	msg := fmt.Sprintf("type mismatch: '%v' is not compatible where '%v' is expected", e.Sub, e.Super)
	if e.SubPath != "" || e.SuperPath != "" {
		at := e.SuperPath
		if at == "" {
			at = e.SubPath
		}
		msg = fmt.Sprintf("%v (at %v", msg, at)
		if e.Variance != "" {
			msg = fmt.Sprintf("%v, %v position", msg, e.Variance)
		}
		msg += ")"
	}
	return msg
}
func (e NewTypeMismatch) Code() ErrCode    { return TypeMismatch }
func (e NewTypeMismatch) getStack() []byte { return e.stack }
func (e NewTypeMismatch) withStack(stack []byte) LoonError {
	e.stack = stack
	return e
}

type NewCountMismatch struct {
	ir.Positioner
	Expected         int
	Actual           int
	ExpectedVariadic bool
	stack            []byte
}

func (e NewCountMismatch) Error() string {
	if e.ExpectedVariadic {
		return fmt.Sprintf("this function takes at least %v argument(s), but %v were provided", e.Expected, e.Actual)
	}
	return fmt.Sprintf("this function takes %v argument(s), but %v were provided", e.Expected, e.Actual)
}
func (e NewCountMismatch) Code() ErrCode    { return CountMismatch }
func (e NewCountMismatch) getStack() []byte { return e.stack }
func (e NewCountMismatch) withStack(stack []byte) LoonError {
	e.stack = stack
	return e
}

type NewNotAFunction struct {
	ir.Positioner
	Ty    string
	stack []byte
}

func (e NewNotAFunction) Error() string {
	return fmt.Sprintf("cannot call a value of type '%v'", e.Ty)
}
func (e NewNotAFunction) Code() ErrCode    { return NotAFunction }
func (e NewNotAFunction) getStack() []byte { return e.stack }
func (e NewNotAFunction) withStack(stack []byte) LoonError {
	e.stack = stack
	return e
}

type NewUninhabitedTypeFamily struct {
	ir.Positioner
	Family string
	stack  []byte
}

func (e NewUninhabitedTypeFamily) Error() string {
	return fmt.Sprintf("type family '%v' could not be reduced to a concrete type", e.Family)
}
func (e NewUninhabitedTypeFamily) Code() ErrCode    { return UninhabitedTypeFamily }
func (e NewUninhabitedTypeFamily) getStack() []byte { return e.stack }
func (e NewUninhabitedTypeFamily) withStack(stack []byte) LoonError {
	e.stack = stack
	return e
}

type NewGenericBoundMismatch struct {
	ir.Positioner
	Generic string
	Lower   string
	Upper   string
	stack   []byte
}

func (e NewGenericBoundMismatch) Error() string {
	return fmt.Sprintf("generic '%v' would have to be both at least '%v' and at most '%v'", e.Generic, e.Lower, e.Upper)
}
func (e NewGenericBoundMismatch) Code() ErrCode    { return GenericBoundMismatch }
func (e NewGenericBoundMismatch) getStack() []byte { return e.stack }
func (e NewGenericBoundMismatch) withStack(stack []byte) LoonError {
	e.stack = stack
	return e
}

type NewNormalizationTooComplex struct {
	ir.Positioner
	stack []byte
}

func (e NewNormalizationTooComplex) Error() string {
	return "type is too complex to compare; consider simplifying it"
}
func (e NewNormalizationTooComplex) Code() ErrCode    { return NormalizationTooComplex }
func (e NewNormalizationTooComplex) getStack() []byte { return e.stack }
func (e NewNormalizationTooComplex) withStack(stack []byte) LoonError {
	e.stack = stack
	return e
}

type NewInternal struct {
	ir.Positioner
	Msg   string
	stack []byte
}

func (e NewInternal) Error() string {
	return fmt.Sprintf("internal analyzer error: %v", e.Msg)
}
func (e NewInternal) Code() ErrCode    { return Internal }
func (e NewInternal) getStack() []byte { return e.stack }
func (e NewInternal) withStack(stack []byte) LoonError {
	e.stack = stack
	return e
}
