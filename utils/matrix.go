package utils

import (
	"gonum.org/v1/gonum/mat"
)

// LinearSystem is a reusable dense N x N system A x = b for the small systems
// solved during cell location (Jacobians, barycentric edge matrices).
type LinearSystem struct {
	N    int
	A    *mat.Dense
	B, X *mat.VecDense
}

func NewLinearSystem(N int) (ls *LinearSystem) {
	ls = &LinearSystem{
		N: N,
		A: mat.NewDense(N, N, nil),
		B: mat.NewVecDense(N, nil),
		X: mat.NewVecDense(N, nil),
	}
	return
}

// Solve solves the current system into X. It reports false if A is singular
// or too ill-conditioned for the result to be trusted.
func (ls *LinearSystem) Solve() (ok bool) {
	if err := ls.X.SolveVec(ls.A, ls.B); err != nil {
		return false
	}
	return true
}

// MaxConditionNumber rejects least squares systems whose rows are too close to
// rank deficient.
const MaxConditionNumber = 1e12

// NormalEquations accumulates least squares rows r . x = rhs directly into
// the symmetric matrix AtA and vector Atb, without storing the rows.
type NormalEquations struct {
	N    int
	Rows int
	AtA  *mat.SymDense
	Atb  *mat.VecDense
	chol mat.Cholesky
	x    *mat.VecDense
}

func NewNormalEquations(N int) (ne *NormalEquations) {
	ne = &NormalEquations{
		N:   N,
		AtA: mat.NewSymDense(N, nil),
		Atb: mat.NewVecDense(N, nil),
		x:   mat.NewVecDense(N, nil),
	}
	return
}

func (ne *NormalEquations) Reset() {
	ne.Rows = 0
	ne.AtA.Zero()
	ne.Atb.Zero()
}

func (ne *NormalEquations) AddRow(row []float64, rhs float64) {
	for i := 0; i < ne.N; i++ {
		for j := i; j < ne.N; j++ {
			ne.AtA.SetSym(i, j, ne.AtA.At(i, j)+row[i]*row[j])
		}
		ne.Atb.SetVec(i, ne.Atb.AtVec(i)+row[i]*rhs)
	}
	ne.Rows++
}

// Solve returns the least squares solution, or ok == false when the rows do
// not determine all N unknowns.
func (ne *NormalEquations) Solve() (x []float64, ok bool) {
	if ne.Rows < ne.N {
		return nil, false
	}
	if ok = ne.chol.Factorize(ne.AtA); !ok || ne.chol.Cond() > MaxConditionNumber {
		return nil, false
	}
	if err := ne.chol.SolveVecTo(ne.x, ne.Atb); err != nil {
		return nil, false
	}
	x = make([]float64, ne.N)
	copy(x, ne.x.RawVector().Data)
	return x, true
}
