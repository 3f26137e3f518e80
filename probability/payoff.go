package probability

import (
	"math"

	"github.com/bcdannyboy/barrierq/models"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Valuation is the outcome of one simulated path.
type Valuation struct {
	OptionPrice float64 `json:"OptionPrice"` // discounted payoff
	LastPrice   float64 `json:"LastPrice"`
}

// EvaluatePayoffs values every path of the batch. Knock-out paths that breach
// and knock-in paths that never breach pay the rebate; every other path pays
// the European payoff on its last price. All payoffs are discounted over the
// contract maturity.
func (e *Engine) EvaluatePayoffs(b *Batch) ([]Valuation, error) {
	c := e.Contract
	if err := c.Validate(); err != nil {
		return nil, err
	}

	discount := math.Exp(-c.Rate * c.Maturity)
	paths, _ := b.Dims()
	out := make([]Valuation, paths)
	for i := range out {
		path := b.Path(i)
		last := path[len(path)-1]

		payoff := math.Max(last-c.Strike, 0)
		if c.OptionType == models.Put {
			payoff = math.Max(c.Strike-last, 0)
		}

		breached := e.breached(path)
		switch {
		case breached && !c.BarrierType.IsKnockIn():
			payoff = c.Rebate
		case !breached && c.BarrierType.IsKnockIn():
			payoff = c.Rebate
		}

		out[i] = Valuation{
			OptionPrice: payoff * discount,
			LastPrice:   last,
		}
	}
	return out, nil
}

// breached reports whether the path ever crosses the barrier strictly.
func (e *Engine) breached(path []float64) bool {
	if e.Contract.BarrierType.IsDown() {
		return floats.Min(path) < e.Contract.Barrier
	}
	return floats.Max(path) > e.Contract.Barrier
}

// Run simulates a batch and values it.
func (e *Engine) Run(spots []float64, paths, steps int, method Method, seq SequenceProvider) ([]Valuation, error) {
	batch, err := e.GeneratePaths(spots, paths, steps, method, seq)
	if err != nil {
		return nil, err
	}
	vals, err := e.EvaluatePayoffs(batch)
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"barrier": e.Contract.BarrierType,
		"option":  e.Contract.OptionType,
		"paths":   len(vals),
	}).Debug("Valued barrier paths")
	return vals, nil
}
