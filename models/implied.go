package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

const impliedTolerance = 1e-6

// ImpliedVolatility finds the volatility at which the closed-form barrier
// price equals target. Barrier prices are not monotone in volatility for
// every case, so the root nearest the contract's own volatility is returned.
func ImpliedVolatility(c Contract, target float64) (float64, error) {
	if _, _, err := c.signs(); err != nil {
		return 0, err
	}
	b := NewBarrierOption(c)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if x[0] <= 0 {
				return 1e6 * (1 - x[0])
			}
			price, err := b.Valuation(WithVolatility(x[0]))
			if err != nil || math.IsNaN(price[0]) {
				return 1e6
			}
			diff := price[0] - target
			return diff * diff
		},
	}

	guess := c.Volatility
	if guess <= 0 {
		guess = 0.2
	}

	result, err := optimize.Minimize(problem, []float64{guess}, nil, &optimize.NelderMead{SimplexSize: 0.05})
	if err != nil {
		return 0, err
	}

	vol := result.X[0]
	if vol <= 0 || math.Sqrt(result.F) > impliedTolerance*math.Max(1, math.Abs(target)) {
		return 0, fmt.Errorf("implied volatility did not converge for target %v (best %v)", target, vol)
	}
	return vol, nil
}
