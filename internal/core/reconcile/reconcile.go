// Package reconcile finds the inputs of a vector valued model that reproduce a goal
// vector, by Levenberg-Marquardt least squares over a forward difference Jacobian.
package reconcile

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	perr "vdyp/internal/platform/errors"
)

// Func evaluates the model at x. The returned slice has the same length as x
type Func func(x []float64) ([]float64, error)

// Solver limits
var (
	ErrTooManyEvaluations = perr.New(perr.ErrorCodeProcessing, "reconcile: maximal count of evaluations exceeded")
	ErrTooManyIterations  = perr.New(perr.ErrorCodeProcessing, "reconcile: maximal count of iterations exceeded")
)

// Options tune the solver. Zero values take the defaults
type Options struct {
	CostRelativeTolerance float64
	ParRelativeTolerance  float64
	OrthoTolerance        float64
	MaxEvaluations        int
	MaxIterations         int

	// Trace, if set, receives every accepted iterate
	Trace func(iteration int, cost float64, x []float64)
}

// Defaults used for zero Options fields
const (
	DefaultCostRelativeTolerance = 2e-3
	DefaultParRelativeTolerance  = 1e-10
	DefaultOrthoTolerance        = 1e-10
	DefaultMaxEvaluations        = 200
	DefaultMaxIterations         = 1000
)

func (o Options) withDefaults() Options {
	if o.CostRelativeTolerance <= 0 {
		o.CostRelativeTolerance = DefaultCostRelativeTolerance
	}
	if o.ParRelativeTolerance <= 0 {
		o.ParRelativeTolerance = DefaultParRelativeTolerance
	}
	if o.OrthoTolerance <= 0 {
		o.OrthoTolerance = DefaultOrthoTolerance
	}
	if o.MaxEvaluations <= 0 {
		o.MaxEvaluations = DefaultMaxEvaluations
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	return o
}

// Result is the solution point and how it was reached
type Result struct {
	X           []float64
	Cost        float64
	Evaluations int
	Iterations  int
}

type problem struct {
	f     Func
	goal  []float64
	sqrtW float64
	opt   Options
	evals int
}

// residuals evaluates the model at x and returns the model output and the weighted residual
func (p *problem) residuals(x []float64) (y, r []float64, err error) {
	p.evals++
	if p.evals > p.opt.MaxEvaluations {
		return nil, nil, ErrTooManyEvaluations
	}
	y, err = p.f(x)
	if err != nil {
		return nil, nil, err
	}
	if len(y) != len(p.goal) {
		return nil, nil, perr.Processingf("reconcile: model returned %d values, want %d", len(y), len(p.goal))
	}
	r = make([]float64, len(y))
	for i := range y {
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return nil, nil, perr.Processingf("reconcile: model value %d is %g at %v", i, y[i], x)
		}
		r[i] = p.sqrtW * (p.goal[i] - y[i])
	}
	return y, r, nil
}

// Solve minimizes the weighted distance between f(x) and goal starting from x0. Every
// residual carries the weight len(x0)
func Solve(ctx context.Context, f Func, goal, x0 []float64, opt Options) (Result, error) {
	n := len(x0)
	if n == 0 || len(goal) != n {
		return Result{}, perr.InvalidArgf("reconcile: %d unknowns for %d goals", n, len(goal))
	}
	p := &problem{f: f, goal: goal, sqrtW: math.Sqrt(float64(n)), opt: opt.withDefaults()}

	x := append([]float64(nil), x0...)
	y, r, err := p.residuals(x)
	if err != nil {
		return Result{}, err
	}
	cost := floats.Norm(r, 2)

	var lambda float64
	nu := 2.0
	for iter := 1; ; iter++ {
		if iter > p.opt.MaxIterations {
			return Result{}, ErrTooManyIterations
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res := Result{X: x, Cost: cost, Evaluations: p.evals, Iterations: iter}
		if cost == 0 {
			return res, nil
		}

		fj, err := ForwardJacobian(f, x, y)
		if err != nil {
			return Result{}, err
		}
		// Jacobian of the weighted residual
		var jr mat.Dense
		jr.Scale(-p.sqrtW, fj)

		var a mat.Dense
		a.Mul(jr.T(), &jr)
		var g mat.VecDense
		g.MulVec(jr.T(), mat.NewVecDense(n, r))

		if orthogonal(&jr, r, cost, p.opt.OrthoTolerance) {
			return res, nil
		}

		if lambda == 0 {
			var maxDiag float64
			for j := 0; j < n; j++ {
				maxDiag = math.Max(maxDiag, a.At(j, j))
			}
			lambda = 1e-3 * maxDiag
			if lambda == 0 {
				lambda = 1e-3
			}
		}

		for {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
			if math.IsNaN(lambda) || math.IsInf(lambda, 0) {
				return Result{}, perr.Processingf("reconcile: damping is %g after %d iterations", lambda, iter)
			}
			step, ok := dampedStep(&a, &g, lambda)
			if !ok {
				// a failed step counts as an iteration
				iter++
				if iter > p.opt.MaxIterations {
					return Result{}, ErrTooManyIterations
				}
				lambda *= nu
				nu *= 2
				continue
			}

			xt := make([]float64, n)
			floats.AddTo(xt, x, step)
			yt, rt, err := p.residuals(xt)
			if err != nil {
				return Result{}, err
			}
			costT := floats.Norm(rt, 2)

			// predicted residual after the linearized step
			var js mat.VecDense
			js.MulVec(&jr, mat.NewVecDense(n, step))
			lin := make([]float64, n)
			floats.AddTo(lin, r, js.RawVector().Data)
			preRed := 1 - math.Pow(floats.Norm(lin, 2)/cost, 2)

			actRed := -1.0
			if 0.1*costT < cost {
				actRed = 1 - math.Pow(costT/cost, 2)
			}
			ratio := 0.0
			if preRed != 0 {
				ratio = actRed / preRed
			}

			accepted := ratio > 1e-4
			if accepted {
				x, y, r, cost = xt, yt, rt, costT
				lambda *= math.Max(1.0/3, 1-math.Pow(2*ratio-1, 3))
				nu = 2
				if p.opt.Trace != nil {
					p.opt.Trace(iter, cost, x)
				}
			} else {
				lambda *= nu
				nu *= 2
			}

			converged := (math.Abs(actRed) <= p.opt.CostRelativeTolerance && preRed <= p.opt.CostRelativeTolerance && ratio <= 2) ||
				floats.Norm(step, 2) <= p.opt.ParRelativeTolerance*floats.Norm(x, 2)
			if converged {
				return Result{X: x, Cost: cost, Evaluations: p.evals, Iterations: iter}, nil
			}
			if accepted {
				break
			}
		}
	}
}

// dampedStep solves (A + lambda diag(A)) step = -g
func dampedStep(a *mat.Dense, g *mat.VecDense, lambda float64) ([]float64, bool) {
	n, _ := a.Dims()
	var m mat.Dense
	m.CloneFrom(a)
	for j := 0; j < n; j++ {
		d := a.At(j, j)
		if d == 0 {
			d = 1
		}
		m.Set(j, j, a.At(j, j)+lambda*d)
	}
	var rhs mat.VecDense
	rhs.ScaleVec(-1, g)

	var step mat.VecDense
	if err := step.SolveVec(&m, &rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, false
		}
	}
	out := step.RawVector().Data
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
	}
	return append([]float64(nil), out...), true
}

// orthogonal reports whether the residual is orthogonal to every Jacobian column
func orthogonal(jr *mat.Dense, r []float64, cost, tol float64) bool {
	_, n := jr.Dims()
	col := make([]float64, len(r))
	var maxCos float64
	for j := 0; j < n; j++ {
		mat.Col(col, j, jr)
		norm := floats.Norm(col, 2)
		if norm == 0 {
			continue
		}
		maxCos = math.Max(maxCos, math.Abs(floats.Dot(col, r))/(norm*cost))
	}
	return maxCos <= tol
}
