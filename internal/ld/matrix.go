// Package ld acquires linkage-disequilibrium matrices from an external
// correlation tool and reconciles them with the caller's SNP set.
package ld

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a square correlation matrix with the position of each row, in
// the order the correlation tool returned them.
type Matrix struct {
	Values    *mat.SymDense
	Positions []int64

	index map[int64]int
}

// NewMatrix wraps values whose rows correspond to positions.
func NewMatrix(values *mat.SymDense, positions []int64) (*Matrix, error) {
	if values == nil || values.SymmetricDim() != len(positions) {
		return nil, fmt.Errorf("ld matrix: dimension does not match %d positions", len(positions))
	}
	m := &Matrix{Values: values, Positions: positions, index: make(map[int64]int, len(positions))}
	for i, p := range positions {
		if _, dup := m.index[p]; dup {
			return nil, fmt.Errorf("ld matrix: position %d appears twice", p)
		}
		m.index[p] = i
	}
	return m, nil
}

// Len returns the number of SNPs in the matrix.
func (m *Matrix) Len() int {
	return len(m.Positions)
}

// Index returns the row of pos.
func (m *Matrix) Index(pos int64) (int, bool) {
	i, ok := m.index[pos]
	return i, ok
}

// Select returns the square submatrix for positions, in that order.
func (m *Matrix) Select(positions []int64) (*mat.SymDense, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("select ld submatrix: no positions")
	}
	rows := make([]int, len(positions))
	for i, p := range positions {
		j, ok := m.index[p]
		if !ok {
			return nil, fmt.Errorf("select ld submatrix: position %d not in matrix", p)
		}
		rows[i] = j
	}
	out := mat.NewSymDense(len(rows), nil)
	for i := range rows {
		for j := i; j < len(rows); j++ {
			out.SetSym(i, j, m.Values.At(rows[i], rows[j]))
		}
	}
	return out, nil
}

// addDiagonal adds eps to every diagonal element.
func (m *Matrix) addDiagonal(eps float64) {
	for i := 0; i < m.Len(); i++ {
		m.Values.SetSym(i, i, m.Values.At(i, i)+eps)
	}
}
