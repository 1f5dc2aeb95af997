// Package value implements Dakota's runtime value model: a tagged union
// over integers, floats, strings, booleans, matrices, and none, plus the
// arithmetic, comparison, and truthiness rules the evaluator dispatches
// through.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags which variant of Value is populated.
type Kind int

const (
	Integer Kind = iota
	Float
	String
	Boolean
	MatrixKind
	NoneKind
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Boolean:
		return "boolean"
	case MatrixKind:
		return "matrix"
	case NoneKind:
		return "none"
	}
	return "unknown"
}

// Value is Dakota's tagged runtime value. Only the field matching Kind is
// meaningful.
type Value struct {
	Kind Kind
	Int  int64
	Flt  float64
	Str  string
	Bool bool
	Mat  *Matrix
}

func NewInt(v int64) Value        { return Value{Kind: Integer, Int: v} }
func NewFloat(v float64) Value    { return Value{Kind: Float, Flt: v} }
func NewString(s string) Value    { return Value{Kind: String, Str: s} }
func NewBool(b bool) Value        { return Value{Kind: Boolean, Bool: b} }
func NewMatrixValue(m *Matrix) Value { return Value{Kind: MatrixKind, Mat: m} }
func None() Value                 { return Value{Kind: NoneKind} }

func (v Value) TypeName() string { return v.Kind.String() }

// Truthy reports whether v counts as true in a boolean context: integers
// and floats are truthy when non-zero, strings and matrices when
// non-empty, booleans by their own value, and None is always false.
func (v Value) Truthy() bool {
	switch v.Kind {
	case Integer:
		return v.Int != 0
	case Float:
		return v.Flt != 0
	case String:
		return len(v.Str) > 0
	case Boolean:
		return v.Bool
	case MatrixKind:
		return v.Mat != nil && !v.Mat.IsEmpty()
	case NoneKind:
		return false
	}
	return false
}

func isNumeric(v Value) bool { return v.Kind == Integer || v.Kind == Float }

func asFloat(v Value) float64 {
	if v.Kind == Integer {
		return float64(v.Int)
	}
	return v.Flt
}

func typeMismatch(op string, a, b Value) error {
	return fmt.Errorf("type mismatch: cannot apply %s to %s and %s", op, a.TypeName(), b.TypeName())
}

// Add dispatches "+": string concatenation, element-wise matrix addition,
// or numeric addition with integer+integer staying integer and any float
// operand promoting both sides to float.
func Add(a, b Value) (Value, error) {
	switch {
	case a.Kind == String && b.Kind == String:
		return NewString(a.Str + b.Str), nil
	case a.Kind == MatrixKind && b.Kind == MatrixKind:
		m, err := AddMatrix(a.Mat, b.Mat)
		if err != nil {
			return Value{}, err
		}
		return NewMatrixValue(m), nil
	case isNumeric(a) && isNumeric(b):
		return numericBinary(a, b, func(x, y int64) int64 { return x + y }, func(x, y float64) float64 { return x + y }), nil
	}
	return Value{}, typeMismatch("+", a, b)
}

// Sub dispatches "-": element-wise matrix subtraction or numeric
// subtraction.
func Sub(a, b Value) (Value, error) {
	switch {
	case a.Kind == MatrixKind && b.Kind == MatrixKind:
		m, err := SubMatrix(a.Mat, b.Mat)
		if err != nil {
			return Value{}, err
		}
		return NewMatrixValue(m), nil
	case isNumeric(a) && isNumeric(b):
		return numericBinary(a, b, func(x, y int64) int64 { return x - y }, func(x, y float64) float64 { return x - y }), nil
	}
	return Value{}, typeMismatch("-", a, b)
}

// Mul dispatches "*": scalar·matrix, matrix·scalar (both element-wise
// scale), or numeric·numeric. Matrix·matrix is not supported here — that is
// MatMul's job (surface syntax "mult").
func Mul(a, b Value) (Value, error) {
	switch {
	case a.Kind == MatrixKind && isNumeric(b):
		return NewMatrixValue(ScaleMatrix(a.Mat, asFloat(b))), nil
	case isNumeric(a) && b.Kind == MatrixKind:
		return NewMatrixValue(ScaleMatrix(b.Mat, asFloat(a))), nil
	case isNumeric(a) && isNumeric(b):
		return numericBinary(a, b, func(x, y int64) int64 { return x * y }, func(x, y float64) float64 { return x * y }), nil
	}
	return Value{}, typeMismatch("*", a, b)
}

// Div always produces a float and rejects a zero divisor.
func Div(a, b Value) (Value, error) {
	if !isNumeric(a) || !isNumeric(b) {
		return Value{}, typeMismatch("/", a, b)
	}
	if asFloat(b) == 0 {
		return Value{}, fmt.Errorf("division by zero")
	}
	return NewFloat(asFloat(a) / asFloat(b)), nil
}

// Mod requires two integers and rejects a zero divisor.
func Mod(a, b Value) (Value, error) {
	if a.Kind != Integer || b.Kind != Integer {
		return Value{}, typeMismatch("%", a, b)
	}
	if b.Int == 0 {
		return Value{}, fmt.Errorf("modulo by zero")
	}
	return NewInt(a.Int % b.Int), nil
}

// Pow always produces a float.
func Pow(a, b Value) (Value, error) {
	if !isNumeric(a) || !isNumeric(b) {
		return Value{}, typeMismatch("**", a, b)
	}
	return NewFloat(math.Pow(asFloat(a), asFloat(b))), nil
}

// MatMul is the matrix-multiply operator (surface syntax "mult"); both
// operands must be matrices with compatible inner dimensions.
func MatMul(a, b Value) (Value, error) {
	if a.Kind != MatrixKind || b.Kind != MatrixKind {
		return Value{}, typeMismatch("mult", a, b)
	}
	m, err := MultiplyMatrix(a.Mat, b.Mat)
	if err != nil {
		return Value{}, err
	}
	return NewMatrixValue(m), nil
}

func numericBinary(a, b Value, intOp func(x, y int64) int64, floatOp func(x, y float64) float64) Value {
	if a.Kind == Integer && b.Kind == Integer {
		return NewInt(intOp(a.Int, b.Int))
	}
	return NewFloat(floatOp(asFloat(a), asFloat(b)))
}

// Eq compares for equality: numeric compared via float
// promotion within floatEpsilon, strings lexicographically, booleans and
// None by value, matrices element-wise, and any other cross-type pairing
// is simply false rather than an error.
func Eq(a, b Value) (Value, error) {
	switch {
	case isNumeric(a) && isNumeric(b):
		return NewBool(math.Abs(asFloat(a)-asFloat(b)) <= floatEpsilon), nil
	case a.Kind == String && b.Kind == String:
		return NewBool(a.Str == b.Str), nil
	case a.Kind == Boolean && b.Kind == Boolean:
		return NewBool(a.Bool == b.Bool), nil
	case a.Kind == NoneKind && b.Kind == NoneKind:
		return NewBool(true), nil
	case a.Kind == MatrixKind && b.Kind == MatrixKind:
		return NewBool(matricesEqual(a.Mat, b.Mat)), nil
	}
	return NewBool(false), nil
}

func matricesEqual(a, b *Matrix) bool {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return false
	}
	for i := range a.Data {
		if math.Abs(a.Data[i]-b.Data[i]) > floatEpsilon {
			return false
		}
	}
	return true
}

// Ne is the logical negation of Eq.
func Ne(a, b Value) (Value, error) {
	eq, err := Eq(a, b)
	if err != nil {
		return Value{}, err
	}
	return NewBool(!eq.Bool), nil
}

// Lt supports numeric (float-promoted) and lexicographic string ordering.
// Cross-type or otherwise-undefined ordering is an error.
func Lt(a, b Value) (Value, error) {
	switch {
	case isNumeric(a) && isNumeric(b):
		return NewBool(asFloat(a) < asFloat(b)), nil
	case a.Kind == String && b.Kind == String:
		return NewBool(strings.Compare(a.Str, b.Str) < 0), nil
	case a.Kind != b.Kind:
		return Value{}, fmt.Errorf("cross-type ordering is undefined between %s and %s", a.TypeName(), b.TypeName())
	}
	return Value{}, fmt.Errorf("ordering is undefined for %s", a.TypeName())
}

// Le is defined as "< or =".
func Le(a, b Value) (Value, error) {
	lt, err := Lt(a, b)
	if err != nil {
		return Value{}, err
	}
	if lt.Bool {
		return NewBool(true), nil
	}
	return Eq(a, b)
}

// Gt is defined as "not <=".
func Gt(a, b Value) (Value, error) {
	le, err := Le(a, b)
	if err != nil {
		return Value{}, err
	}
	return NewBool(!le.Bool), nil
}

// Ge is defined as "not <".
func Ge(a, b Value) (Value, error) {
	lt, err := Lt(a, b)
	if err != nil {
		return Value{}, err
	}
	return NewBool(!lt.Bool), nil
}

// Negate implements unary "-": numerics and matrices negate element-wise.
func Negate(v Value) (Value, error) {
	switch v.Kind {
	case Integer:
		return NewInt(-v.Int), nil
	case Float:
		return NewFloat(-v.Flt), nil
	case MatrixKind:
		return NewMatrixValue(ScaleMatrix(v.Mat, -1)), nil
	}
	return Value{}, fmt.Errorf("cannot negate a %s", v.TypeName())
}

// Not implements unary "not": truthiness then inversion.
func Not(v Value) Value { return NewBool(!v.Truthy()) }

// String renders v the way print() joins its arguments.
func (v Value) String() string {
	switch v.Kind {
	case Integer:
		return strconv.FormatInt(v.Int, 10)
	case Float:
		return formatFloat(v.Flt)
	case String:
		return v.Str
	case Boolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case MatrixKind:
		return formatMatrix(v.Mat)
	case NoneKind:
		return "none"
	}
	return "?"
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatMatrixCell(f float64) string {
	if f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatMatrix(m *Matrix) string {
	if m == nil || m.IsEmpty() {
		return "[]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < m.Rows; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('[')
		for j := 0; j < m.Cols; j++ {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(formatMatrixCell(m.At(i, j)))
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}
