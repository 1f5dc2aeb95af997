package eval

import (
	"strings"
	"testing"
)

func TestBuiltinLenStringAndMatrix(t *testing.T) {
	_, out, err := run(t, "print(len(\"hello\"))\nprint(len(zeros(3, 2)))\n")
	if err != nil {
		t.Fatalf("Interpret returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "5" || lines[1] != "3" {
		t.Errorf("output = %v, want [5 3]", lines)
	}
}

func TestBuiltinLenRejectsNumber(t *testing.T) {
	_, _, err := run(t, "len(5)\n")
	if err == nil {
		t.Fatalf("expected an error for len() of a number, got none")
	}
}

func TestBuiltinAbsIntStaysInteger(t *testing.T) {
	_, out, err := run(t, "print(abs(-3))\n")
	if err != nil {
		t.Fatalf("Interpret returned error: %v", err)
	}
	if strings.TrimSpace(out) != "3" {
		t.Errorf("abs(-3) = %q, want 3", strings.TrimSpace(out))
	}
}

func TestBuiltinSqrtNegativeErrors(t *testing.T) {
	_, _, err := run(t, "sqrt(-1)\n")
	if err == nil {
		t.Fatalf("expected an error for sqrt of a negative number, got none")
	}
}

func TestBuiltinRangeThreeArgStep(t *testing.T) {
	_, out, err := run(t, "total = 0\nfor i in range(10, 0, -2):\n    total = total + i\nprint(total)\n")
	if err != nil {
		t.Fatalf("Interpret returned error: %v", err)
	}
	// 10 + 8 + 6 + 4 + 2 = 30
	if strings.TrimSpace(out) != "30" {
		t.Errorf("output = %q, want %q", out, "30")
	}
}

func TestBuiltinRangeZeroStepErrors(t *testing.T) {
	_, _, err := run(t, "for i in range(1, 5, 0):\n    print(i)\n")
	if err == nil {
		t.Fatalf("expected an error for a zero range step, got none")
	}
}

func TestBuiltinZerosOnesEyeDims(t *testing.T) {
	_, out, err := run(t, "print(zeros(2))\nprint(ones(1, 3))\nprint(eye(2))\n")
	if err != nil {
		t.Fatalf("Interpret returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "[[0,0],[0,0]]" {
		t.Errorf("zeros(2) = %q", lines[0])
	}
	if lines[1] != "[[1,1,1]]" {
		t.Errorf("ones(1, 3) = %q", lines[1])
	}
	if lines[2] != "[[1,0],[0,1]]" {
		t.Errorf("eye(2) = %q", lines[2])
	}
}

func TestBuiltinDeterminant(t *testing.T) {
	src := "m = [4, 7; 2, 6]\nprint(determinant(m))\n"
	_, out, err := run(t, src)
	if err != nil {
		t.Fatalf("Interpret returned error: %v", err)
	}
	if strings.TrimSpace(out) != "10.0" {
		t.Errorf("determinant output = %q, want 10.0", strings.TrimSpace(out))
	}
}

func TestBuiltinArityErrors(t *testing.T) {
	cases := []string{
		"sqrt(1, 2)\n",
		"pow(2)\n",
		"eye(1, 2)\n",
	}
	for _, src := range cases {
		if _, _, err := run(t, src); err == nil {
			t.Errorf("expected an arity error for %q, got none", src)
		}
	}
}

func TestBuiltinTransposeThreeRowMatrixLiteral(t *testing.T) {
	src := "m = [1, 2; 3, 4; 5, 6]\nprint(transpose(m))\n"
	_, out, err := run(t, src)
	if err != nil {
		t.Fatalf("Interpret returned error: %v", err)
	}
	if strings.TrimSpace(out) != "[[1,3,5],[2,4,6]]" {
		t.Errorf("output = %q, want %q", out, "[[1,3,5],[2,4,6]]")
	}
}

func TestBuiltinFunctionsCannotBeShadowed(t *testing.T) {
	// evalCall checks the builtin table first, so a same-named user
	// function is simply never reachable through a call.
	_, out, err := run(t, "function print(x):\n    return \"user\"\nprint(\"builtin\")\n")
	if err != nil {
		t.Fatalf("Interpret returned error: %v", err)
	}
	if strings.TrimSpace(out) != "builtin" {
		t.Errorf("output = %q, want the built-in print to run, not the user-defined one", out)
	}
}
