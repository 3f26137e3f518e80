package probability

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

const z95 = 1.959963984540054

// Summary aggregates a Monte Carlo ensemble.
type Summary struct {
	Paths     int     `json:"paths"`
	Mean      float64 `json:"mean"` // price estimate
	StdDev    float64 `json:"std_dev"`
	StdErr    float64 `json:"std_err"`
	CILow     float64 `json:"ci95_low"`
	CIHigh    float64 `json:"ci95_high"`
	PayoffP05 float64 `json:"payoff_p05"`
	PayoffP95 float64 `json:"payoff_p95"`
	LastMean  float64 `json:"last_mean"`
	LastP05   float64 `json:"last_p05"`
	LastP50   float64 `json:"last_p50"`
	LastP95   float64 `json:"last_p95"`
}

func Summarize(vals []Valuation) Summary {
	if len(vals) == 0 {
		return Summary{}
	}

	payoffs := make([]float64, len(vals))
	lasts := make([]float64, len(vals))
	for i, v := range vals {
		payoffs[i] = v.OptionPrice
		lasts[i] = v.LastPrice
	}

	s := Summary{Paths: len(vals)}
	if len(vals) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(payoffs, nil)
		s.StdErr = stat.StdErr(s.StdDev, float64(len(vals)))
	} else {
		s.Mean = payoffs[0]
	}
	s.CILow = s.Mean - z95*s.StdErr
	s.CIHigh = s.Mean + z95*s.StdErr
	s.LastMean = stat.Mean(lasts, nil)

	sort.Float64s(payoffs)
	sort.Float64s(lasts)
	s.PayoffP05 = stat.Quantile(0.05, stat.Empirical, payoffs, nil)
	s.PayoffP95 = stat.Quantile(0.95, stat.Empirical, payoffs, nil)
	s.LastP05 = stat.Quantile(0.05, stat.Empirical, lasts, nil)
	s.LastP50 = stat.Quantile(0.5, stat.Empirical, lasts, nil)
	s.LastP95 = stat.Quantile(0.95, stat.Empirical, lasts, nil)

	return s
}
