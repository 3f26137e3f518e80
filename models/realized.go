package models

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Bar is one day of OHLC prices.
type Bar struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Estimator selects how RealizedVolatility reads a price history.
type Estimator uint8

const (
	CloseToClose Estimator = iota
	Parkinson
	GarmanKlass
	RogersSatchell
	YangZhang
)

var estimatorCodes = map[string]Estimator{
	"close":           CloseToClose,
	"parkinson":       Parkinson,
	"garman-klass":    GarmanKlass,
	"rogers-satchell": RogersSatchell,
	"yang-zhang":      YangZhang,
}

func (e Estimator) String() string {
	for code, est := range estimatorCodes {
		if est == e {
			return code
		}
	}
	return fmt.Sprintf("Estimator(%d)", uint8(e))
}

// ParseEstimator maps an estimator code; the empty string means CloseToClose.
func ParseEstimator(code string) (Estimator, error) {
	if code == "" {
		return CloseToClose, nil
	}
	if est, ok := estimatorCodes[strings.ToLower(code)]; ok {
		return est, nil
	}
	return 0, fmt.Errorf("%w: unknown volatility estimator %q", ErrConfiguration, code)
}

// RealizedVolatility annualises the daily volatility of bars using
// tradingDays per year (DefaultTradingDays when not positive).
func RealizedVolatility(bars []Bar, est Estimator, tradingDays int) (float64, error) {
	if len(bars) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 bars, got %d", ErrConfiguration, len(bars))
	}
	for i, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return 0, fmt.Errorf("%w: bar %d has a non-positive price", ErrConfiguration, i)
		}
		if b.High < b.Low {
			return 0, fmt.Errorf("%w: bar %d has high below low", ErrConfiguration, i)
		}
	}
	if tradingDays <= 0 {
		tradingDays = DefaultTradingDays
	}

	var variance float64
	switch est {
	case CloseToClose:
		variance = closeToCloseVariance(bars)
	case Parkinson:
		variance = parkinsonVariance(bars)
	case GarmanKlass:
		variance = garmanKlassVariance(bars)
	case RogersSatchell:
		variance = rogersSatchellVariance(bars)
	case YangZhang:
		variance = yangZhangVariance(bars)
	default:
		return 0, fmt.Errorf("%w: unknown volatility estimator %d", ErrConfiguration, est)
	}

	// Garman-Klass can go negative on bars with a narrow range and a wide body
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * float64(tradingDays)), nil
}

func closeToCloseVariance(bars []Bar) float64 {
	returns := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		returns[i-1] = math.Log(bars[i].Close / bars[i-1].Close)
	}
	if len(returns) < 2 {
		return returns[0] * returns[0]
	}
	return stat.Variance(returns, nil)
}

func parkinsonVariance(bars []Bar) float64 {
	sum := 0.0
	for _, b := range bars {
		hl := math.Log(b.High / b.Low)
		sum += hl * hl
	}
	return sum / (4 * float64(len(bars)) * math.Ln2)
}

func garmanKlassVariance(bars []Bar) float64 {
	sum := 0.0
	for _, b := range bars {
		hl := math.Log(b.High / b.Low)
		co := math.Log(b.Close / b.Open)
		sum += 0.5*hl*hl - (2*math.Ln2-1)*co*co
	}
	return sum / float64(len(bars))
}

func rogersSatchellVariance(bars []Bar) float64 {
	sum := 0.0
	for _, b := range bars {
		sum += math.Log(b.High/b.Close)*math.Log(b.High/b.Open) +
			math.Log(b.Low/b.Close)*math.Log(b.Low/b.Open)
	}
	return sum / float64(len(bars))
}

func yangZhangVariance(bars []Bar) float64 {
	n := float64(len(bars))
	overnight := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		overnight[i-1] = math.Log(bars[i].Open / bars[i-1].Close)
	}
	openClose := make([]float64, len(bars))
	for i, b := range bars {
		openClose[i] = math.Log(b.Close / b.Open)
	}

	overnightVar := 0.0
	if len(overnight) > 1 {
		overnightVar = stat.Variance(overnight, nil)
	}
	k := 0.34 / (1.34 + (n+1)/(n-1))
	return overnightVar + k*stat.Variance(openClose, nil) + (1-k)*rogersSatchellVariance(bars)
}
