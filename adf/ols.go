package adf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type olsFit struct {
	beta []float64
	se   []float64
	ssr  float64
	aic  float64
}

// ols fits y = X·b by the normal equations. The ADF design matrices are
// small (a handful of columns), so the explicit inverse is acceptable.
func ols(y []float64, x *mat.Dense) (olsFit, error) {
	n, k := x.Dims()
	if n <= k {
		return olsFit{}, fmt.Errorf("%w: %d observations for %d coefficients", ErrTooShort, n, k)
	}

	yv := mat.NewVecDense(n, y)

	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return olsFit{}, fmt.Errorf("adf: singular design: %w", err)
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), yv)

	var b mat.VecDense
	b.MulVec(&inv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(x, &b)

	ssr := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		ssr += r * r
	}

	sigma2 := ssr / float64(n-k)
	fit := olsFit{
		beta: make([]float64, k),
		se:   make([]float64, k),
		ssr:  ssr,
	}
	for i := 0; i < k; i++ {
		fit.beta[i] = b.AtVec(i)
		fit.se[i] = math.Sqrt(sigma2 * inv.At(i, i))
	}

	nf := float64(n)
	llf := -nf / 2 * (math.Log(2*math.Pi) + math.Log(ssr/nf) + 1)
	fit.aic = -2*llf + 2*float64(k)

	return fit, nil
}
