package eval

import (
	"fmt"
	"math"
	"strings"

	"github.com/dakota-lang/dakota/internal/arena"
	"github.com/dakota-lang/dakota/internal/value"
)

// builtinFunc is the shape every built-in shares: the evaluator (for
// stdout/stdin access), the call-site node (unused by most, kept for
// symmetry with evalCall), and the already-evaluated argument list.
type builtinFunc func(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error)

// builtins is the fixed roster of Dakota's built-in functions. A
// user-defined function with the same name can never be called — evalCall
// checks this table first.
var builtins = map[string]builtinFunc{
	"print":       builtinPrint,
	"input":       builtinInput,
	"len":         builtinLen,
	"abs":         builtinAbs,
	"sqrt":        builtinSqrt,
	"sin":         builtinSin,
	"cos":         builtinCos,
	"tan":         builtinTan,
	"pow":         builtinPow,
	"floor":       builtinFloor,
	"ceil":        builtinCeil,
	"round":       builtinRound,
	"zeros":       builtinZeros,
	"ones":        builtinOnes,
	"eye":         builtinEye,
	"transpose":   builtinTranspose,
	"determinant": builtinDeterminant,
	"inverse":     builtinInverse,
	"range":       builtinRange,
}

func arityError(name string, want string, got int) error {
	return fmt.Errorf("'%s' expects %s argument(s), got %d", name, want, got)
}

// print joins its arguments with a single space, using each value's
// String() rendering, and terminates with a newline.
func builtinPrint(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	fmt.Fprintln(ev.stdout, strings.Join(parts, " "))
	return value.None(), nil
}

// input optionally prints a prompt (its single string argument), then
// reads and returns one line of stdin with its trailing newline stripped.
func builtinInput(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	if len(args) > 1 {
		return value.Value{}, arityError("input", "0 or 1", len(args))
	}
	if len(args) == 1 {
		fmt.Fprint(ev.stdout, args[0].String())
	}
	line, err := ev.stdin.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && line == "" {
		return value.NewString(""), nil
	}
	return value.NewString(line), nil
}

// len reports a string's byte length or a matrix's row count.
func builtinLen(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("len", "1", len(args))
	}
	switch args[0].Kind {
	case value.String:
		return value.NewInt(int64(len(args[0].Str))), nil
	case value.MatrixKind:
		return value.NewInt(int64(args[0].Mat.Rows)), nil
	}
	return value.Value{}, fmt.Errorf("'len' requires a string or matrix, got %s", args[0].TypeName())
}

func requireOneNumeric(name string, args []value.Value) (float64, error) {
	if len(args) != 1 {
		return 0, arityError(name, "1", len(args))
	}
	a := args[0]
	if a.Kind == value.Integer {
		return float64(a.Int), nil
	}
	if a.Kind == value.Float {
		return a.Flt, nil
	}
	return 0, fmt.Errorf("'%s' requires a numeric argument, got %s", name, a.TypeName())
}

func builtinAbs(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("abs", "1", len(args))
	}
	if args[0].Kind == value.Integer {
		v := args[0].Int
		if v < 0 {
			v = -v
		}
		return value.NewInt(v), nil
	}
	f, err := requireOneNumeric("abs", args)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(math.Abs(f)), nil
}

func builtinSqrt(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	f, err := requireOneNumeric("sqrt", args)
	if err != nil {
		return value.Value{}, err
	}
	if f < 0 {
		return value.Value{}, fmt.Errorf("sqrt of a negative number")
	}
	return value.NewFloat(math.Sqrt(f)), nil
}

func builtinSin(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	f, err := requireOneNumeric("sin", args)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(math.Sin(f)), nil
}

func builtinCos(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	f, err := requireOneNumeric("cos", args)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(math.Cos(f)), nil
}

func builtinTan(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	f, err := requireOneNumeric("tan", args)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(math.Tan(f)), nil
}

func builtinPow(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, arityError("pow", "2", len(args))
	}
	return value.Pow(args[0], args[1])
}

func builtinFloor(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	f, err := requireOneNumeric("floor", args)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewInt(int64(math.Floor(f))), nil
}

func builtinCeil(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	f, err := requireOneNumeric("ceil", args)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewInt(int64(math.Ceil(f))), nil
}

func builtinRound(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	f, err := requireOneNumeric("round", args)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewInt(int64(math.Round(f))), nil
}

func requireNonNegInt(name string, v value.Value) (int, error) {
	if v.Kind != value.Integer {
		return 0, fmt.Errorf("'%s' requires integer argument(s), got %s", name, v.TypeName())
	}
	if v.Int < 0 {
		return 0, fmt.Errorf("'%s' requires non-negative argument(s), got %d", name, v.Int)
	}
	return int(v.Int), nil
}

func builtinZeros(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	rows, cols, err := dims2(ev, "zeros", args)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewMatrixValue(value.ZerosMatrix(rows, cols)), nil
}

func builtinOnes(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	rows, cols, err := dims2(ev, "ones", args)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewMatrixValue(value.OnesMatrix(rows, cols)), nil
}

// dims2 accepts either zeros(n) / ones(n) (square) or zeros(r, c) / ones(r, c).
func dims2(ev *Evaluator, name string, args []value.Value) (int, int, error) {
	switch len(args) {
	case 1:
		n, err := requireNonNegInt(name, args[0])
		if err != nil {
			return 0, 0, err
		}
		return n, n, nil
	case 2:
		r, err := requireNonNegInt(name, args[0])
		if err != nil {
			return 0, 0, err
		}
		c, err := requireNonNegInt(name, args[1])
		if err != nil {
			return 0, 0, err
		}
		return r, c, nil
	}
	return 0, 0, arityError(name, "1 or 2", len(args))
}

func builtinEye(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("eye", "1", len(args))
	}
	n, err := requireNonNegInt("eye", args[0])
	if err != nil {
		return value.Value{}, err
	}
	return value.NewMatrixValue(value.EyeMatrix(n)), nil
}

func requireMatrix(name string, args []value.Value) (*value.Matrix, error) {
	if len(args) != 1 {
		return nil, arityError(name, "1", len(args))
	}
	if args[0].Kind != value.MatrixKind {
		return nil, fmt.Errorf("'%s' requires a matrix, got %s", name, args[0].TypeName())
	}
	return args[0].Mat, nil
}

func builtinTranspose(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	m, err := requireMatrix("transpose", args)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewMatrixValue(value.TransposeMatrix(m)), nil
}

func builtinDeterminant(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	m, err := requireMatrix("determinant", args)
	if err != nil {
		return value.Value{}, err
	}
	d, err := value.DeterminantMatrix(m)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(d), nil
}

func builtinInverse(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	m, err := requireMatrix("inverse", args)
	if err != nil {
		return value.Value{}, err
	}
	inv, err := value.InverseMatrix(m)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewMatrixValue(inv), nil
}

// range(n) yields 0..n-1, range(a, b) yields a..b-1, range(a, b, step)
// honors a positive or negative step — each as an integer-valued,
// single-element row so a bound for-loop variable unwraps to a bare
// scalar (see scalarFromCell in eval.go).
func builtinRange(ev *Evaluator, site *arena.Node, args []value.Value) (value.Value, error) {
	var start, stop, step int64
	step = 1
	switch len(args) {
	case 1:
		n, err := requireIntArg("range", args[0])
		if err != nil {
			return value.Value{}, err
		}
		start, stop = 0, n
	case 2:
		a, err := requireIntArg("range", args[0])
		if err != nil {
			return value.Value{}, err
		}
		b, err := requireIntArg("range", args[1])
		if err != nil {
			return value.Value{}, err
		}
		start, stop = a, b
	case 3:
		a, err := requireIntArg("range", args[0])
		if err != nil {
			return value.Value{}, err
		}
		b, err := requireIntArg("range", args[1])
		if err != nil {
			return value.Value{}, err
		}
		s, err := requireIntArg("range", args[2])
		if err != nil {
			return value.Value{}, err
		}
		if s == 0 {
			return value.Value{}, fmt.Errorf("'range' step must not be zero")
		}
		start, stop, step = a, b, s
	default:
		return value.Value{}, arityError("range", "1, 2, or 3", len(args))
	}

	var cells []int64
	if step > 0 {
		for i := start; i < stop; i += step {
			cells = append(cells, i)
		}
	} else {
		for i := start; i > stop; i += step {
			cells = append(cells, i)
		}
	}
	m := value.NewMatrix(len(cells), 1)
	for i, c := range cells {
		m.Set(i, 0, float64(c))
	}
	return value.NewMatrixValue(m), nil
}

func requireIntArg(name string, v value.Value) (int64, error) {
	if v.Kind != value.Integer {
		return 0, fmt.Errorf("'%s' requires integer argument(s), got %s", name, v.TypeName())
	}
	return v.Int, nil
}
