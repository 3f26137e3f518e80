package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/bcdannyboy/barrierq/models"
)

// Config drives a single command run. Environment variables (optionally
// loaded from .env) set the defaults and flags override them.
type Config struct {
	Contract     models.ContractSpec
	Paths        int
	Steps        int
	Method       string
	SequenceFile string
	Seed         uint64
	BookFile     string
	HistoryFile  string
	Estimator    string
	Output       string
	Verbose      bool
}

func defaultConfig() Config {
	return Config{
		Contract: models.ContractSpec{
			Spot:        100,
			Strike:      100,
			Rate:        0.05,
			Volatility:  0.2,
			Maturity:    0.5,
			TimeUnit:    "years",
			Barrier:     90,
			BarrierType: "do",
			OptionType:  "c",
			TradingDays: models.DefaultTradingDays,
		},
		Paths:  10000,
		Method: "pseudo",
	}
}

// LoadConfig reads BARRIER_* environment variables on top of the defaults.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	c := &cfg.Contract

	floats := map[string]*float64{
		"BARRIER_SPOT":       &c.Spot,
		"BARRIER_STRIKE":     &c.Strike,
		"BARRIER_RATE":       &c.Rate,
		"BARRIER_YIELD":      &c.Yield,
		"BARRIER_VOLATILITY": &c.Volatility,
		"BARRIER_MATURITY":   &c.Maturity,
		"BARRIER_LEVEL":      &c.Barrier,
		"BARRIER_REBATE":     &c.Rebate,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return Config{}, fmt.Errorf("%s: %w", key, err)
			}
			*dst = f
		}
	}

	ints := map[string]*int{
		"BARRIER_TRADING_DAYS": &c.TradingDays,
		"BARRIER_MC_PATHS":     &cfg.Paths,
		"BARRIER_MC_STEPS":     &cfg.Steps,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return Config{}, fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	strs := map[string]*string{
		"BARRIER_TIME_UNIT":     &c.TimeUnit,
		"BARRIER_TYPE":          &c.BarrierType,
		"BARRIER_OPTION_TYPE":   &c.OptionType,
		"BARRIER_MC_METHOD":     &cfg.Method,
		"BARRIER_SEQUENCE_FILE": &cfg.SequenceFile,
		"BARRIER_BOOK_FILE":     &cfg.BookFile,
		"BARRIER_HISTORY_FILE":  &cfg.HistoryFile,
		"BARRIER_VOL_ESTIMATOR": &cfg.Estimator,
		"BARRIER_OUTPUT":        &cfg.Output,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("BARRIER_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("BARRIER_SEED: %w", err)
		}
		cfg.Seed = seed
	}
	return cfg, nil
}

// registerFlags binds flags to cfg, using its current values as defaults.
func registerFlags(fs *flag.FlagSet, cfg *Config) {
	c := &cfg.Contract
	fs.Float64Var(&c.Spot, "spot", c.Spot, "spot price")
	fs.Float64Var(&c.Strike, "strike", c.Strike, "strike price")
	fs.Float64Var(&c.Rate, "rate", c.Rate, "risk-free rate")
	fs.Float64Var(&c.Yield, "yield", c.Yield, "dividend or carry yield")
	fs.Float64Var(&c.Volatility, "vol", c.Volatility, "annualised volatility")
	fs.Float64Var(&c.Maturity, "t", c.Maturity, "time to maturity in -unit")
	fs.StringVar(&c.TimeUnit, "unit", c.TimeUnit, "time unit: years or days")
	fs.Float64Var(&c.Barrier, "barrier", c.Barrier, "barrier level")
	fs.Float64Var(&c.Rebate, "rebate", c.Rebate, "rebate amount")
	fs.StringVar(&c.BarrierType, "type", c.BarrierType, "barrier type: di, ui, do, uo")
	fs.StringVar(&c.OptionType, "option", c.OptionType, "option type: c or p")
	fs.IntVar(&c.TradingDays, "days", c.TradingDays, "trading days per year")
	fs.IntVar(&cfg.Paths, "paths", cfg.Paths, "Monte Carlo paths, 0 disables simulation")
	fs.IntVar(&cfg.Steps, "steps", cfg.Steps, "Monte Carlo steps, 0 uses the maturity in trading days")
	fs.StringVar(&cfg.Method, "method", cfg.Method, "Monte Carlo method: sobol or pseudo")
	fs.StringVar(&cfg.SequenceFile, "seq", cfg.SequenceFile, "sequence table (.csv or .json) for -method sobol")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed, 0 for a random one")
	fs.StringVar(&cfg.BookFile, "book", cfg.BookFile, "JSON book of positions to value instead of a single contract")
	fs.StringVar(&cfg.HistoryFile, "history", cfg.HistoryFile, "JSON OHLC history; when set its realized volatility replaces -vol")
	fs.StringVar(&cfg.Estimator, "estimator", cfg.Estimator, "volatility estimator: close, parkinson, garman-klass, rogers-satchell, yang-zhang")
	fs.StringVar(&cfg.Output, "out", cfg.Output, "output file, stdout when empty")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")
}
