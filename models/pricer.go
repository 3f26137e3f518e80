package models

import "fmt"

// Pricer is anything that can value a contract, optionally with overrides.
type Pricer interface {
	Valuation(opts ...ValuationOption) ([]float64, error)
}

// Sensitivities is the optional Greeks capability of a Pricer.
type Sensitivities interface {
	Delta(opts ...ValuationOption) ([]float64, error)
	Gamma(opts ...ValuationOption) ([]float64, error)
	Vega(opts ...ValuationOption) ([]float64, error)
	Theta(opts ...ValuationOption) ([]float64, error)
}

var (
	_ Pricer        = (*BarrierOption)(nil)
	_ Pricer        = (*Vanilla)(nil)
	_ Sensitivities = (*Vanilla)(nil)
)

func sensitivities(p Pricer, greek string) (Sensitivities, error) {
	s, ok := p.(Sensitivities)
	if !ok {
		return nil, fmt.Errorf("%w: %s for %T", ErrNotImplemented, greek, p)
	}
	return s, nil
}

func Delta(p Pricer, opts ...ValuationOption) ([]float64, error) {
	s, err := sensitivities(p, "delta")
	if err != nil {
		return nil, err
	}
	return s.Delta(opts...)
}

func Gamma(p Pricer, opts ...ValuationOption) ([]float64, error) {
	s, err := sensitivities(p, "gamma")
	if err != nil {
		return nil, err
	}
	return s.Gamma(opts...)
}

func Vega(p Pricer, opts ...ValuationOption) ([]float64, error) {
	s, err := sensitivities(p, "vega")
	if err != nil {
		return nil, err
	}
	return s.Vega(opts...)
}

func Theta(p Pricer, opts ...ValuationOption) ([]float64, error) {
	s, err := sensitivities(p, "theta")
	if err != nil {
		return nil, err
	}
	return s.Theta(opts...)
}
