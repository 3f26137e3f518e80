package models

import "fmt"

// ValuationOption overrides one contract input for a single valuation call.
type ValuationOption func(*valuationInputs)

type valuationInputs struct {
	spot []float64
	vol  []float64
	time []float64 // in the contract's time unit
}

// WithSpot overrides the spot price. Several values produce a vector result.
func WithSpot(s ...float64) ValuationOption {
	return func(in *valuationInputs) { in.spot = s }
}

// WithVolatility overrides the annualised volatility.
func WithVolatility(v ...float64) ValuationOption {
	return func(in *valuationInputs) { in.vol = v }
}

// WithTime overrides time to maturity, expressed in the unit the contract was
// built with.
func WithTime(t ...float64) ValuationOption {
	return func(in *valuationInputs) { in.time = t }
}

// resolved holds broadcast-ready inputs; single-element slices apply to every index.
type resolved struct {
	n     int
	spot  []float64
	vol   []float64
	years []float64
}

func (r resolved) at(i int) (s, v, t float64) {
	return pick(r.spot, i), pick(r.vol, i), pick(r.years, i)
}

func pick(x []float64, i int) float64 {
	if len(x) == 1 {
		return x[0]
	}
	return x[i]
}

func (c Contract) resolve(opts []ValuationOption) (resolved, error) {
	var in valuationInputs
	for _, opt := range opts {
		opt(&in)
	}

	r := resolved{
		spot:  []float64{c.Spot},
		vol:   []float64{c.Volatility},
		years: []float64{c.Maturity},
	}
	if len(in.spot) > 0 {
		r.spot = in.spot
	}
	if len(in.vol) > 0 {
		r.vol = in.vol
	}
	if len(in.time) > 0 {
		r.years = make([]float64, len(in.time))
		for i, t := range in.time {
			r.years[i] = c.Years(t)
		}
	}

	n, err := broadcastLen(r.spot, r.vol, r.years)
	if err != nil {
		return resolved{}, err
	}
	r.n = n
	return r, nil
}

// broadcastLen returns the common length of the inputs, treating length one as a scalar.
func broadcastLen(inputs ...[]float64) (int, error) {
	n := 1
	for _, x := range inputs {
		switch {
		case len(x) == 1 || len(x) == n:
		case n == 1:
			n = len(x)
		default:
			return 0, fmt.Errorf("%w: vector inputs of length %d and %d", ErrShapeMismatch, n, len(x))
		}
	}
	return n, nil
}
