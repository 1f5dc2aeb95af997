package value

import (
	"fmt"
	"math"
)

// floatEpsilon is the tolerance used for float equality and for detecting a
// singular pivot during Gauss-Jordan elimination, confirmed against the
// original prototype's Value::operator== (see SPEC_FULL.md).
const floatEpsilon = 1e-10

// Matrix is a dense, rectangular, row-major matrix of float64. Integers
// stored in a matrix are always represented as their float64 value; Dakota
// has no separate integer-matrix representation.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

// NewMatrix allocates a zero-filled r×c matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

func (m *Matrix) At(r, c int) float64 { return m.Data[r*m.Cols+c] }
func (m *Matrix) Set(r, c int, v float64) { m.Data[r*m.Cols+c] = v }

func (m *Matrix) IsEmpty() bool { return m.Rows == 0 || m.Cols == 0 }

// Clone returns a deep copy, honoring Dakota's pass/return-by-value
// semantics: a matrix is never aliased, only cloned.
func (m *Matrix) Clone() *Matrix {
	data := make([]float64, len(m.Data))
	copy(data, m.Data)
	return &Matrix{Rows: m.Rows, Cols: m.Cols, Data: data}
}

// Row extracts row r as a fresh 1×cols matrix.
func (m *Matrix) Row(r int) *Matrix {
	out := NewMatrix(1, m.Cols)
	copy(out.Data, m.Data[r*m.Cols:(r+1)*m.Cols])
	return out
}

func dimError(op string, a, b *Matrix) error {
	return fmt.Errorf("dimension mismatch in matrix %s: %dx%d vs %dx%d", op, a.Rows, a.Cols, b.Rows, b.Cols)
}

// AddMatrix performs element-wise addition; both operands must share
// dimensions.
func AddMatrix(a, b *Matrix) (*Matrix, error) {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return nil, dimError("addition", a, b)
	}
	out := NewMatrix(a.Rows, a.Cols)
	for i := range out.Data {
		out.Data[i] = a.Data[i] + b.Data[i]
	}
	return out, nil
}

// SubMatrix performs element-wise subtraction; both operands must share
// dimensions.
func SubMatrix(a, b *Matrix) (*Matrix, error) {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return nil, dimError("subtraction", a, b)
	}
	out := NewMatrix(a.Rows, a.Cols)
	for i := range out.Data {
		out.Data[i] = a.Data[i] - b.Data[i]
	}
	return out, nil
}

// ScaleMatrix multiplies every element by a scalar (element-wise scale for
// scalar·matrix or matrix·scalar).
func ScaleMatrix(m *Matrix, s float64) *Matrix {
	out := NewMatrix(m.Rows, m.Cols)
	for i, v := range m.Data {
		out.Data[i] = v * s
	}
	return out
}

// MultiplyMatrix computes the classic matrix product; a.Cols must equal
// b.Rows.
func MultiplyMatrix(a, b *Matrix) (*Matrix, error) {
	if a.Cols != b.Rows {
		return nil, fmt.Errorf("dimension mismatch in matrix multiply: %dx%d mult %dx%d", a.Rows, a.Cols, b.Rows, b.Cols)
	}
	out := NewMatrix(a.Rows, b.Cols)
	for i := 0; i < a.Rows; i++ {
		for k := 0; k < a.Cols; k++ {
			aik := a.At(i, k)
			if aik == 0 {
				continue
			}
			for j := 0; j < b.Cols; j++ {
				out.Set(i, j, out.At(i, j)+aik*b.At(k, j))
			}
		}
	}
	return out, nil
}

// TransposeMatrix swaps rows and columns; an empty matrix transposes to an
// empty matrix.
func TransposeMatrix(m *Matrix) *Matrix {
	out := NewMatrix(m.Cols, m.Rows)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			out.Set(j, i, m.At(i, j))
		}
	}
	return out
}

// DeterminantMatrix requires a square matrix. Size 1 returns the scalar
// directly; size 2 uses ad-bc; larger sizes expand cofactors along row 0.
func DeterminantMatrix(m *Matrix) (float64, error) {
	if m.Rows != m.Cols {
		return 0, fmt.Errorf("determinant requires a square matrix, got %dx%d", m.Rows, m.Cols)
	}
	return determinant(m), nil
}

func determinant(m *Matrix) float64 {
	n := m.Rows
	switch n {
	case 0:
		return 1
	case 1:
		return m.At(0, 0)
	case 2:
		return m.At(0, 0)*m.At(1, 1) - m.At(0, 1)*m.At(1, 0)
	}
	det := 0.0
	sign := 1.0
	for col := 0; col < n; col++ {
		minor := minorMatrix(m, 0, col)
		det += sign * m.At(0, col) * determinant(minor)
		sign = -sign
	}
	return det
}

func minorMatrix(m *Matrix, skipRow, skipCol int) *Matrix {
	out := NewMatrix(m.Rows-1, m.Cols-1)
	oi := 0
	for i := 0; i < m.Rows; i++ {
		if i == skipRow {
			continue
		}
		oj := 0
		for j := 0; j < m.Cols; j++ {
			if j == skipCol {
				continue
			}
			out.Set(oi, oj, m.At(i, j))
			oj++
		}
		oi++
	}
	return out
}

// InverseMatrix requires a square matrix. Gauss-Jordan elimination on the
// augmented [A | I] with partial pivoting (largest absolute value in the
// pivot column); a pivot magnitude below floatEpsilon reports the matrix as
// singular.
func InverseMatrix(m *Matrix) (*Matrix, error) {
	n := m.Rows
	if n != m.Cols {
		return nil, fmt.Errorf("inverse requires a square matrix, got %dx%d", m.Rows, m.Cols)
	}

	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		aug[i] = make([]float64, 2*n)
		for j := 0; j < n; j++ {
			aug[i][j] = m.At(i, j)
		}
		aug[i][n+i] = 1
	}

	for col := 0; col < n; col++ {
		pivotRow := col
		best := math.Abs(aug[col][col])
		for r := col + 1; r < n; r++ {
			if v := math.Abs(aug[r][col]); v > best {
				best = v
				pivotRow = r
			}
		}
		if best < floatEpsilon {
			return nil, fmt.Errorf("Matrix is singular")
		}
		aug[col], aug[pivotRow] = aug[pivotRow], aug[col]

		pivot := aug[col][col]
		for j := 0; j < 2*n; j++ {
			aug[col][j] /= pivot
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := aug[r][col]
			if factor == 0 {
				continue
			}
			for j := 0; j < 2*n; j++ {
				aug[r][j] -= factor * aug[col][j]
			}
		}
	}

	out := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, aug[i][n+j])
		}
	}
	return out, nil
}

// ZerosMatrix, OnesMatrix, and EyeMatrix back the zeros/ones/eye builtins.
func ZerosMatrix(rows, cols int) *Matrix { return NewMatrix(rows, cols) }

func OnesMatrix(rows, cols int) *Matrix {
	out := NewMatrix(rows, cols)
	for i := range out.Data {
		out.Data[i] = 1
	}
	return out
}

func EyeMatrix(n int) *Matrix {
	out := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1)
	}
	return out
}
