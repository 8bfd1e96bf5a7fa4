package reconcile

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// jacobianEpsilon is the relative forward difference step
var jacobianEpsilon = math.Sqrt(math.Max(1.19e-7, 2.220446049250313e-16))

// ForwardJacobian approximates the Jacobian of f at x, where y = f(x). Column j is
// (f(x + h e_j) - y) / h with h = eps |x_j|, or eps when x_j is zero
func ForwardJacobian(f Func, x, y []float64) (*mat.Dense, error) {
	n, m := len(x), len(y)
	jac := mat.NewDense(m, n, nil)
	xh := append([]float64(nil), x...)
	for j := 0; j < n; j++ {
		h := jacobianEpsilon * math.Abs(x[j])
		if h == 0 {
			h = jacobianEpsilon
		}
		xh[j] = x[j] + h
		yh, err := f(xh)
		xh[j] = x[j]
		if err != nil {
			return nil, err
		}
		for i := 0; i < m && i < len(yh); i++ {
			jac.Set(i, j, (yh[i]-y[i])/h)
		}
	}
	return jac, nil
}
