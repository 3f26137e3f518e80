package models

import "math"

// Vanilla is the European option on the same underlying, strike and maturity
// as a barrier contract. Barrier fields of the contract are ignored.
type Vanilla struct {
	Contract Contract
}

func NewVanilla(c Contract) *Vanilla {
	return &Vanilla{Contract: c}
}

type bsmLegs struct {
	phi    float64
	d1, d2 float64
	sq, kr float64 // discounted spot and strike
	sqrtT  float64
}

func (o *Vanilla) legs(s, v, t float64) bsmLegs {
	c := o.Contract
	phi := 1.0
	if c.OptionType == Put {
		phi = -1
	}
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/c.Strike) + (c.Rate-c.Yield+0.5*v*v)*t) / (v * sqrtT)
	return bsmLegs{
		phi:   phi,
		d1:    d1,
		d2:    d1 - v*sqrtT,
		sq:    s * math.Exp(-c.Yield*t),
		kr:    c.Strike * math.Exp(-c.Rate*t),
		sqrtT: sqrtT,
	}
}

func (o *Vanilla) each(opts []ValuationOption, fn func(s, v, t float64) float64) ([]float64, error) {
	if _, _, err := o.Contract.signs(); err != nil {
		return nil, err
	}
	in, err := o.Contract.resolve(opts)
	if err != nil {
		return nil, err
	}
	out := make([]float64, in.n)
	for i := range out {
		out[i] = fn(in.at(i))
	}
	return out, nil
}

// Valuation is the generalised Black-Scholes price with carry.
func (o *Vanilla) Valuation(opts ...ValuationOption) ([]float64, error) {
	return o.each(opts, func(s, v, t float64) float64 {
		l := o.legs(s, v, t)
		return l.phi*l.sq*normCDF(l.phi*l.d1) - l.phi*l.kr*normCDF(l.phi*l.d2)
	})
}

func (o *Vanilla) Delta(opts ...ValuationOption) ([]float64, error) {
	return o.each(opts, func(s, v, t float64) float64 {
		l := o.legs(s, v, t)
		return l.phi * math.Exp(-o.Contract.Yield*t) * normCDF(l.phi*l.d1)
	})
}

func (o *Vanilla) Gamma(opts ...ValuationOption) ([]float64, error) {
	return o.each(opts, func(s, v, t float64) float64 {
		l := o.legs(s, v, t)
		return l.sq * normPDF(l.d1) / (s * s * v * l.sqrtT)
	})
}

// Vega is per unit of volatility, not per percentage point.
func (o *Vanilla) Vega(opts ...ValuationOption) ([]float64, error) {
	return o.each(opts, func(s, v, t float64) float64 {
		l := o.legs(s, v, t)
		return l.sq * normPDF(l.d1) * l.sqrtT
	})
}

// Theta is the derivative with respect to calendar time, per year.
func (o *Vanilla) Theta(opts ...ValuationOption) ([]float64, error) {
	return o.each(opts, func(s, v, t float64) float64 {
		l := o.legs(s, v, t)
		c := o.Contract
		return -l.sq*normPDF(l.d1)*v/(2*l.sqrtT) -
			l.phi*c.Rate*l.kr*normCDF(l.phi*l.d2) +
			l.phi*c.Yield*l.sq*normCDF(l.phi*l.d1)
	})
}
