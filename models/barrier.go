package models

import (
	"fmt"
	"math"
)

// BarrierOption prices a single barrier contract with the Reiner-Rubinstein
// closed form. Rebates on knock-in contracts are paid at expiry, rebates on
// knock-out contracts are paid when the barrier is hit.
type BarrierOption struct {
	Contract Contract
}

func NewBarrierOption(c Contract) *BarrierOption {
	return &BarrierOption{Contract: c}
}

// terms are the building blocks combined per case: A and B are vanilla-like
// legs at the strike and at the barrier, C and D their reflected images, E the
// rebate of a knock-in that never triggers and F the rebate of a knock-out.
type terms struct {
	A, B, C, D, E, F float64
}

type caseKey struct {
	option      OptionType
	barrier     BarrierType
	strikeAbove bool // k > h
}

var valueTable = map[caseKey]func(terms) float64{
	{Call, DownIn, true}:   func(x terms) float64 { return x.C + x.E },
	{Call, DownIn, false}:  func(x terms) float64 { return x.A - x.B + x.D + x.E },
	{Call, UpIn, true}:     func(x terms) float64 { return x.A + x.E },
	{Call, UpIn, false}:    func(x terms) float64 { return x.B - x.C + x.D + x.E },
	{Call, DownOut, true}:  func(x terms) float64 { return x.A - x.C + x.F },
	{Call, DownOut, false}: func(x terms) float64 { return x.B - x.D + x.F },
	{Call, UpOut, true}:    func(x terms) float64 { return x.F },
	{Call, UpOut, false}:   func(x terms) float64 { return x.A - x.B + x.C - x.D + x.F },

	{Put, DownIn, true}:   func(x terms) float64 { return x.B - x.C + x.D + x.E },
	{Put, DownIn, false}:  func(x terms) float64 { return x.A + x.E },
	{Put, UpIn, true}:     func(x terms) float64 { return x.A - x.B + x.D + x.E },
	{Put, UpIn, false}:    func(x terms) float64 { return x.C + x.E },
	{Put, DownOut, true}:  func(x terms) float64 { return x.A - x.B + x.C - x.D + x.F },
	{Put, DownOut, false}: func(x terms) float64 { return x.F },
	{Put, UpOut, true}:    func(x terms) float64 { return x.B - x.D + x.F },
	{Put, UpOut, false}:   func(x terms) float64 { return x.A - x.C + x.F },
}

// signs returns phi (+1 call, -1 put) and eta (+1 down, -1 up).
func (c Contract) signs() (phi, eta float64, err error) {
	switch c.OptionType {
	case Call:
		phi = 1
	case Put:
		phi = -1
	default:
		return 0, 0, fmt.Errorf("%w: option type %v must be one of c, p", ErrConfiguration, c.OptionType)
	}
	switch c.BarrierType {
	case DownIn, DownOut:
		eta = 1
	case UpIn, UpOut:
		eta = -1
	default:
		return 0, 0, fmt.Errorf("%w: barrier type %v must be one of ui, uo, di, do", ErrConfiguration, c.BarrierType)
	}
	return phi, eta, nil
}

// Valuation returns the closed-form price for every broadcast index of the
// overrides. Without overrides the result has a single element. Inputs with
// t = 0 or v = 0 give NaN or Inf.
func (b *BarrierOption) Valuation(opts ...ValuationOption) ([]float64, error) {
	c := b.Contract
	phi, eta, err := c.signs()
	if err != nil {
		return nil, err
	}
	combine, ok := valueTable[caseKey{c.OptionType, c.BarrierType, c.Strike > c.Barrier}]
	if !ok {
		// signs has rejected unknown codes and the table covers every valid one
		panic(fmt.Sprintf("models: no closed form for %v/%v", c.OptionType, c.BarrierType))
	}

	in, err := c.resolve(opts)
	if err != nil {
		return nil, err
	}

	out := make([]float64, in.n)
	for i := range out {
		s, v, t := in.at(i)
		out[i] = combine(c.terms(s, v, t, phi, eta))
	}
	return out, nil
}

// Price is Valuation at the contract's own spot, volatility and maturity.
func (b *BarrierOption) Price() (float64, error) {
	v, err := b.Valuation()
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

func (c Contract) terms(s, v, t, phi, eta float64) terms {
	k, h, r, q := c.Strike, c.Barrier, c.Rate, c.Yield

	mu := (r-q)/(v*v) - 0.5
	lam := math.Sqrt(mu*mu + 2*r/(v*v))

	vt := v * math.Sqrt(t)
	x1 := math.Log(s/k)/vt + (1+mu)*vt
	x2 := math.Log(s/h)/vt + (1+mu)*vt
	y1 := math.Log(h*h/(s*k))/vt + (1+mu)*vt
	y2 := math.Log(h/s)/vt + (1+mu)*vt
	z := math.Log(h/s)/vt + lam*vt

	sq := s * math.Exp(-q*t)
	kr := k * math.Exp(-r*t)
	ratio := h / s
	image := math.Pow(ratio, 2*(mu+1))
	imageK := math.Pow(ratio, 2*mu)

	return terms{
		A: phi*sq*normCDF(phi*x1) - phi*kr*normCDF(phi*x1-phi*vt),
		B: phi*sq*normCDF(phi*x2) - phi*kr*normCDF(phi*x2-phi*vt),
		C: phi*sq*image*normCDF(eta*y1) - phi*kr*imageK*normCDF(eta*y1-eta*vt),
		D: phi*sq*image*normCDF(eta*y2) - phi*kr*imageK*normCDF(eta*y2-eta*vt),
		E: c.Rebate * math.Exp(-r*t) * (normCDF(eta*x2-eta*vt) - imageK*normCDF(eta*y2-eta*vt)),
		F: c.Rebate * (math.Pow(ratio, mu+lam)*normCDF(eta*z) + math.Pow(ratio, mu-lam)*normCDF(eta*z-2*eta*lam*vt)),
	}
}
