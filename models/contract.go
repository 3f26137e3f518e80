package models

import (
	"fmt"
	"math"
	"strings"
)

const DefaultTradingDays = 252

type OptionType uint8

const (
	Call OptionType = iota + 1
	Put
)

func (o OptionType) String() string {
	switch o {
	case Call:
		return "c"
	case Put:
		return "p"
	default:
		return fmt.Sprintf("OptionType(%d)", uint8(o))
	}
}

// ParseOptionType accepts "c" or "p".
func ParseOptionType(code string) (OptionType, error) {
	switch code {
	case "c":
		return Call, nil
	case "p":
		return Put, nil
	}
	return 0, fmt.Errorf("%w: option type %q must be one of c, p", ErrConfiguration, code)
}

type BarrierType uint8

const (
	DownIn BarrierType = iota + 1
	UpIn
	DownOut
	UpOut
)

func (b BarrierType) String() string {
	switch b {
	case DownIn:
		return "di"
	case UpIn:
		return "ui"
	case DownOut:
		return "do"
	case UpOut:
		return "uo"
	default:
		return fmt.Sprintf("BarrierType(%d)", uint8(b))
	}
}

// IsDown reports whether the barrier sits below the spot.
func (b BarrierType) IsDown() bool { return b == DownIn || b == DownOut }

// IsKnockIn reports whether a breach activates the option.
func (b BarrierType) IsKnockIn() bool { return b == DownIn || b == UpIn }

// ParseBarrierType accepts "di", "ui", "do" or "uo".
func ParseBarrierType(code string) (BarrierType, error) {
	switch code {
	case "di":
		return DownIn, nil
	case "ui":
		return UpIn, nil
	case "do":
		return DownOut, nil
	case "uo":
		return UpOut, nil
	}
	return 0, fmt.Errorf("%w: barrier type %q must be one of ui, uo, di, do", ErrConfiguration, code)
}

type TimeUnit uint8

const (
	Years TimeUnit = iota
	Days
)

func (u TimeUnit) String() string {
	if u == Days {
		return "days"
	}
	return "years"
}

// ParseTimeUnit accepts "years" or "days". An empty code means years.
func ParseTimeUnit(code string) (TimeUnit, error) {
	switch strings.ToLower(code) {
	case "", "years":
		return Years, nil
	case "days":
		return Days, nil
	}
	return 0, fmt.Errorf("%w: time unit %q must be years or days", ErrConfiguration, code)
}

// ContractSpec is the raw, unvalidated description of a barrier contract.
type ContractSpec struct {
	Spot        float64 `json:"spot"`
	Strike      float64 `json:"strike"`
	Rate        float64 `json:"rate"`
	Yield       float64 `json:"yield"`
	Volatility  float64 `json:"volatility"`
	Maturity    float64 `json:"maturity"` // in TimeUnit
	TimeUnit    string  `json:"time_unit"`
	Barrier     float64 `json:"barrier"`
	Rebate      float64 `json:"rebate"`
	BarrierType string  `json:"barrier_type"`
	OptionType  string  `json:"option_type"`
	TradingDays int     `json:"trading_days"` // 0 means DefaultTradingDays
}

// Contract holds validated barrier option parameters. Maturity is always in years.
type Contract struct {
	Spot        float64
	Strike      float64
	Rate        float64
	Yield       float64 // continuous dividend / carry yield
	Volatility  float64
	Maturity    float64
	Barrier     float64
	Rebate      float64
	BarrierType BarrierType
	OptionType  OptionType
	TradingDays int
	Unit        TimeUnit // unit used for time overrides
}

func NewContract(spec ContractSpec) (Contract, error) {
	optionType, err := ParseOptionType(spec.OptionType)
	if err != nil {
		return Contract{}, err
	}
	barrierType, err := ParseBarrierType(spec.BarrierType)
	if err != nil {
		return Contract{}, err
	}
	unit, err := ParseTimeUnit(spec.TimeUnit)
	if err != nil {
		return Contract{}, err
	}

	tradingDays := spec.TradingDays
	if tradingDays == 0 {
		tradingDays = DefaultTradingDays
	}

	c := Contract{
		Spot:        spec.Spot,
		Strike:      spec.Strike,
		Rate:        spec.Rate,
		Yield:       spec.Yield,
		Volatility:  spec.Volatility,
		Barrier:     spec.Barrier,
		Rebate:      spec.Rebate,
		BarrierType: barrierType,
		OptionType:  optionType,
		TradingDays: tradingDays,
		Unit:        unit,
	}
	c.Maturity = c.Years(spec.Maturity)

	if err := c.Validate(); err != nil {
		return Contract{}, err
	}
	return c, nil
}

// Years converts a time expressed in the contract's unit to years. Days are
// divided by the contract's TradingDays, not a fixed 252, so a 250-day
// calendar turns 125 days into exactly half a year.
func (c Contract) Years(t float64) float64 {
	if c.Unit == Days {
		return t / float64(c.TradingDays)
	}
	return t
}

// Validate checks the field invariants. Zero volatility is allowed; the
// closed form is undefined there but simulated paths are deterministic.
func (c Contract) Validate() error {
	if _, err := ParseOptionType(c.OptionType.String()); err != nil {
		return err
	}
	if _, err := ParseBarrierType(c.BarrierType.String()); err != nil {
		return err
	}
	switch {
	case math.IsNaN(c.Volatility) || c.Volatility < 0:
		return fmt.Errorf("%w: volatility %v must be non-negative", ErrConfiguration, c.Volatility)
	case math.IsNaN(c.Maturity) || c.Maturity < 0:
		return fmt.Errorf("%w: maturity %v must be non-negative", ErrConfiguration, c.Maturity)
	case !(c.Barrier > 0):
		return fmt.Errorf("%w: barrier %v must be positive", ErrConfiguration, c.Barrier)
	case c.TradingDays <= 0:
		return fmt.Errorf("%w: trading days %d must be positive", ErrConfiguration, c.TradingDays)
	}
	return nil
}
