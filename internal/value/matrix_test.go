package value

import (
	"math"
	"testing"
)

func fillMatrix(rows, cols int, vals []float64) *Matrix {
	m := NewMatrix(rows, cols)
	copy(m.Data, vals)
	return m
}

func TestAddMatrixDimensionMismatch(t *testing.T) {
	a := NewMatrix(2, 2)
	b := NewMatrix(3, 3)
	if _, err := AddMatrix(a, b); err == nil {
		t.Errorf("expected dimension-mismatch error, got none")
	}
}

func TestMultiplyMatrix(t *testing.T) {
	a := fillMatrix(2, 2, []float64{1, 2, 3, 4})
	b := fillMatrix(2, 2, []float64{5, 6, 7, 8})
	got, err := MultiplyMatrix(a, b)
	if err != nil {
		t.Fatalf("MultiplyMatrix: %v", err)
	}
	want := []float64{19, 22, 43, 50}
	for i, w := range want {
		if got.Data[i] != w {
			t.Errorf("product.Data[%d] = %v, want %v", i, got.Data[i], w)
		}
	}
}

func TestTransposeMatrix(t *testing.T) {
	m := fillMatrix(2, 3, []float64{1, 2, 3, 4, 5, 6})
	got := TransposeMatrix(m)
	if got.Rows != 3 || got.Cols != 2 {
		t.Fatalf("Transpose dims = %dx%d, want 3x2", got.Rows, got.Cols)
	}
	if got.At(0, 1) != 4 || got.At(2, 0) != 3 {
		t.Errorf("transpose values wrong: %v", got.Data)
	}
}

func TestDeterminantMatrix(t *testing.T) {
	tests := []struct {
		name string
		m    *Matrix
		want float64
	}{
		{"1x1", fillMatrix(1, 1, []float64{5}), 5},
		{"2x2", fillMatrix(2, 2, []float64{1, 2, 3, 4}), -2},
		{"3x3", fillMatrix(3, 3, []float64{1, 0, 2, -1, 3, 1, 0, -1, 4}), 15},
	}
	for _, tc := range tests {
		got, err := DeterminantMatrix(tc.m)
		if err != nil {
			t.Fatalf("%s: DeterminantMatrix: %v", tc.name, err)
		}
		if math.Abs(got-tc.want) > floatEpsilon {
			t.Errorf("%s: determinant = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDeterminantRequiresSquare(t *testing.T) {
	if _, err := DeterminantMatrix(NewMatrix(2, 3)); err == nil {
		t.Errorf("expected error for non-square determinant, got none")
	}
}

func TestInverseMatrix(t *testing.T) {
	m := fillMatrix(2, 2, []float64{4, 7, 2, 6})
	inv, err := InverseMatrix(m)
	if err != nil {
		t.Fatalf("InverseMatrix: %v", err)
	}
	product, err := MultiplyMatrix(m, inv)
	if err != nil {
		t.Fatalf("MultiplyMatrix: %v", err)
	}
	ident := EyeMatrix(2)
	for i := range ident.Data {
		if math.Abs(product.Data[i]-ident.Data[i]) > 1e-9 {
			t.Errorf("m * inverse(m) != I: got %v", product.Data)
			break
		}
	}
}

func TestInverseSingularMatrixErrors(t *testing.T) {
	m := fillMatrix(2, 2, []float64{1, 2, 2, 4})
	if _, err := InverseMatrix(m); err == nil {
		t.Errorf("expected singular-matrix error, got none")
	}
}

func TestZerosOnesEye(t *testing.T) {
	z := ZerosMatrix(2, 3)
	for _, v := range z.Data {
		if v != 0 {
			t.Errorf("ZerosMatrix produced a nonzero element: %v", z.Data)
			break
		}
	}

	o := OnesMatrix(2, 2)
	for _, v := range o.Data {
		if v != 1 {
			t.Errorf("OnesMatrix produced a non-one element: %v", o.Data)
			break
		}
	}

	eye := EyeMatrix(3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if eye.At(i, j) != want {
				t.Errorf("EyeMatrix(%d,%d) = %v, want %v", i, j, eye.At(i, j), want)
			}
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := fillMatrix(1, 2, []float64{1, 2})
	c := m.Clone()
	c.Set(0, 0, 99)
	if m.At(0, 0) == 99 {
		t.Errorf("Clone shares backing storage with the original")
	}
}
