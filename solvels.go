// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package navedit

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Maximum number of unknowns referenced by one constraint row
const MaxTerms = 3

// Coefficient of one unknown in a constraint row
type Term struct {
	Col  int
	Coef float64
}

type sparseRow struct {
	n    int
	col  [MaxTerms]int
	coef [MaxTerms]float64
}

// Sparse least squares system A x ≈ d with at most MaxTerms nonzeros per row
type SparseSystem struct {
	ncols int
	rows  []sparseRow
	d     []float64
}

// Allocate a system of ncols unknowns with room for rowHint rows
func NewSparseSystem(ncols, rowHint int) (s *SparseSystem, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("%w: %v", ErrAllocation, r)
		}
	}()
	if ncols <= 0 {
		return nil, fmt.Errorf("%w: %d unknowns", ErrAllocation, ncols)
	}
	return &SparseSystem{
		ncols: ncols,
		rows:  make([]sparseRow, 0, rowHint),
		d:     make([]float64, 0, rowHint),
	}, nil
}

// Add the constraint sum(coef * x[col]) = d
func (s *SparseSystem) AddRow(d float64, terms ...Term) error {
	if len(terms) == 0 || len(terms) > MaxTerms {
		return fmt.Errorf("invalid number of terms in a row (%d)", len(terms))
	}
	var r sparseRow
	for _, t := range terms {
		if t.Col < 0 || t.Col >= s.ncols {
			return fmt.Errorf("column out of range (col=%d, ncols=%d)", t.Col, s.ncols)
		}
		r.col[r.n] = t.Col
		r.coef[r.n] = t.Coef
		r.n++
	}
	s.rows = append(s.rows, r)
	s.d = append(s.d, d)
	return nil
}

// Number of rows and unknowns
func (s *SparseSystem) Dims() (r, c int) {
	return len(s.rows), s.ncols
}

// y = A x
func (s *SparseSystem) MulVec(y, x []float64) {
	for i, r := range s.rows {
		v := 0.0
		for k := 0; k < r.n; k++ {
			v += r.coef[k] * x[r.col[k]]
		}
		y[i] = v
	}
}

// y = A^T r
func (s *SparseSystem) MulTransVec(y, r []float64) {
	for j := range y {
		y[j] = 0
	}
	for i, row := range s.rows {
		for k := 0; k < row.n; k++ {
			y[row.col[k]] += row.coef[k] * r[i]
		}
	}
}

// Gershgorin bound on the largest eigenvalue of A^T A
func (s *SparseSystem) GershgorinBound() float64 {
	g := make([]float64, s.ncols)
	for _, r := range s.rows {
		sum := 0.0
		for k := 0; k < r.n; k++ {
			sum += math.Abs(r.coef[k])
		}
		for k := 0; k < r.n; k++ {
			g[r.col[k]] += math.Abs(r.coef[k]) * sum
		}
	}
	return floats.Max(g)
}

// Eigenvalue estimate of the normal operator A^T A
type EigenEstimate struct {
	Smax float64 // Rayleigh quotient of the power iterate
	Err  float64 // Residual norm of the power iterate
	Sup  float64 // Gershgorin bound
}

// Upper bound used for the Chebyshev interval
func (e EigenEstimate) Bound() float64 {
	return math.Max(e.Smax+e.Err, e.Sup)
}

// Power iteration on A^T A starting from the unit vector v (updated in place)
func (s *SparseSystem) powerIterate(v, w, tmp []float64, ncyc int) (smax, res float64) {
	for k := 0; k < ncyc; k++ {
		s.MulVec(tmp, v)
		s.MulTransVec(w, tmp)
		n := floats.Norm(w, 2)
		if n == 0 {
			return 0, 0
		}
		floats.ScaleTo(v, 1/n, w)
	}
	s.MulVec(tmp, v)
	s.MulTransVec(w, tmp)
	smax = floats.Dot(v, w)
	floats.AddScaled(w, -smax, v)
	res = floats.Norm(w, 2)
	return
}

// Estimate the largest eigenvalue of A^T A: a warm-up pass followed by refinement rounds
func (s *SparseSystem) EstimateEigen(log *slog.Logger) EigenEstimate {
	n := s.ncols
	v := make([]float64, n)
	for i := range v {
		v[i] = 1 + 0.5*math.Sin(float64(i)+1)
	}
	floats.Scale(1/floats.Norm(v, 2), v)
	w := make([]float64, n)
	tmp := make([]float64, len(s.rows))

	est := EigenEstimate{Sup: s.GershgorinBound()}
	est.Smax, est.Err = s.powerIterate(v, w, tmp, eigWarmup)
	log.Debug("eigen warm-up", "smax", est.Smax, "err", est.Err, "sup", est.Sup)
	for i := 0; i < eigRounds; i++ {
		est.Smax, est.Err = s.powerIterate(v, w, tmp, eigCycles)
		log.Debug("eigen refine", "round", i, "smax", est.Smax, "err", est.Err, "bound", est.Bound())
	}
	return est
}

// Chebyshev step sizes for Richardson iteration with eigenvalues in [lo, hi].
// Steps are ordered so that large and small steps alternate.
func ChebyshevSteps(n int, hi, lo float64) []float64 {
	if n <= 0 {
		return nil
	}
	steps := make([]float64, n)
	for i, k := range chebyOrder(n) {
		steps[i] = 0.5*(hi+lo) + 0.5*(hi-lo)*math.Cos(PI*float64(2*k+1)/float64(2*n))
	}
	return steps
}

// Root order for the Chebyshev steps
func chebyOrder(n int) []int {
	if n&(n-1) == 0 {
		o := []int{0}
		for m := 2; m <= n; m *= 2 {
			next := make([]int, 0, m)
			for _, j := range o {
				next = append(next, j, m-1-j)
			}
			o = next
		}
		return o
	}
	o := make([]int, 0, n)
	for i, j := 0, n-1; i <= j; i, j = i+1, j-1 {
		o = append(o, i)
		if i != j {
			o = append(o, j)
		}
	}
	return o
}

// Theoretical error reduction of n Chebyshev steps over [lo, hi]
func ChebyshevError(n int, hi, lo float64) float64 {
	if hi <= lo {
		return 0
	}
	return 1 / math.Cosh(float64(n)*math.Acosh((hi+lo)/(hi-lo)))
}

// Options of the iterative solve
type SolveOpt struct {
	Cycles    int     // Number of Richardson iterations
	Bandwidth float64 // Ratio of upper to lower eigenvalue bound
}

func NewSolveOpt() *SolveOpt {
	return &SolveOpt{
		Cycles:    DefaultCycles,
		Bandwidth: DefaultBandwidth,
	}
}

// Diagnostics of a solve
type SolveStats struct {
	Rows             int
	Cols             int
	Cycles           int
	EigenMax         float64
	EigenErr         float64
	EigenBound       float64
	TheoreticalError float64
}

// Solve the system by Chebyshev accelerated Richardson iteration on the normal equations
func (s *SparseSystem) Solve(opt *SolveOpt, log *slog.Logger) (x []float64, st SolveStats, err error) {
	if log == nil {
		log = slog.Default()
	}
	defer func() {
		if r := recover(); r != nil {
			x, err = nil, fmt.Errorf("%w: %v", ErrAllocation, r)
		}
	}()

	nr, nc := s.Dims()
	st = SolveStats{Rows: nr, Cols: nc, Cycles: opt.Cycles}
	if nr == 0 {
		return make([]float64, nc), st, nil
	}

	// Upper bound on the maximum eigenvalue
	est := s.EstimateEigen(log)
	st.EigenMax = est.Smax
	st.EigenErr = est.Err
	st.EigenBound = est.Bound()
	if st.EigenBound <= 0 {
		return make([]float64, nc), st, nil
	}

	// Chebyshev factors
	lo := st.EigenBound / opt.Bandwidth
	sigma := ChebyshevSteps(opt.Cycles, st.EigenBound, lo)
	st.TheoreticalError = ChebyshevError(opt.Cycles, st.EigenBound, lo)

	// Iterate x += A^T (d - A x) / sigma
	x = make([]float64, nc)
	g := make([]float64, nc)
	r := make([]float64, nr)
	for _, sg := range sigma {
		s.MulVec(r, x)
		floats.SubTo(r, s.d, r)
		s.MulTransVec(g, r)
		floats.AddScaled(x, 1/sg, g)
	}
	log.Debug("chebyshev solve", "rows", nr, "cols", nc, "cycles", opt.Cycles,
		"bound", st.EigenBound, "theoretical_error", st.TheoreticalError)
	return x, st, nil
}

// Solve the normal equations (A^T A) x = A^T d directly
func (s *SparseSystem) SolveDense() ([]float64, error) {
	nc := s.ncols
	ata := mat.NewSymDense(nc, nil)
	atd := mat.NewVecDense(nc, nil)
	for i, r := range s.rows {
		for a := 0; a < r.n; a++ {
			ca := r.col[a]
			atd.SetVec(ca, atd.AtVec(ca)+r.coef[a]*s.d[i])
			for b := a; b < r.n; b++ {
				cb := r.col[b]
				v := r.coef[a] * r.coef[b]
				if a != b && ca == cb {
					v *= 2
				}
				if ca == cb {
					ata.SetSym(ca, ca, ata.At(ca, ca)+v)
				} else {
					ata.SetSym(ca, cb, ata.At(ca, cb)+v)
				}
			}
		}
	}

	var x mat.VecDense
	var chol mat.Cholesky
	if chol.Factorize(ata) {
		if err := chol.SolveVecTo(&x, atd); err != nil {
			return nil, err
		}
	} else if err := x.SolveVec(ata, atd); err != nil {
		return nil, fmt.Errorf("normal equations are singular: %w", err)
	}
	return mat.Col(nil, 0, &x), nil
}
