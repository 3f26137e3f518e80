package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/bcdannyboy/barrierq/models"
	"github.com/bcdannyboy/barrierq/positions"
	"github.com/bcdannyboy/barrierq/probability"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xhhuango/json"
)

const reportPlaces = 6

type MonteCarloReport struct {
	Paths   int             `json:"paths"`
	Mean    decimal.Decimal `json:"mean"`
	StdErr  decimal.Decimal `json:"std_err"`
	CILow   decimal.Decimal `json:"ci95_low"`
	CIHigh  decimal.Decimal `json:"ci95_high"`
	LastP05 decimal.Decimal `json:"last_p05"`
	LastP50 decimal.Decimal `json:"last_p50"`
	LastP95 decimal.Decimal `json:"last_p95"`
}

type Report struct {
	Contract   models.ContractSpec `json:"contract"`
	Analytic   decimal.Decimal     `json:"analytic"`
	Vanilla    decimal.Decimal     `json:"vanilla"`
	MonteCarlo *MonteCarloReport   `json:"monte_carlo,omitempty"`
}

// BookEntry is one position of a book report.
type BookEntry struct {
	Name       string            `json:"name"`
	Analytic   decimal.Decimal   `json:"analytic"`
	MonteCarlo *MonteCarloReport `json:"monte_carlo,omitempty"`
	Error      string            `json:"error,omitempty"`
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded")
	}

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	registerFlags(flag.CommandLine, &cfg)
	flag.Parse()

	if cfg.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	var out bytes.Buffer
	if err := run(cfg, logger, &out); err != nil {
		logger.Fatalf("Valuation failed: %v", err)
	}

	if cfg.Output == "" {
		os.Stdout.Write(out.Bytes())
		return
	}
	if err := os.WriteFile(cfg.Output, out.Bytes(), 0644); err != nil {
		logger.Fatalf("Error writing to file %s: %v", cfg.Output, err)
	}
	logger.WithField("file", cfg.Output).Info("Report written")
}

func run(cfg Config, logger *logrus.Logger, w io.Writer) error {
	var seq probability.SequenceProvider
	if cfg.SequenceFile != "" {
		seq = probability.FileSequence{Path: cfg.SequenceFile}
	}

	var result interface{}
	if cfg.BookFile != "" {
		book, err := readBook(cfg.BookFile)
		if err != nil {
			return err
		}
		bookCfg := positions.BookConfig{
			Paths:    cfg.Paths,
			Steps:    cfg.Steps,
			Method:   probability.ParseMethod(cfg.Method),
			Sequence: seq,
			Seed:     cfg.Seed,
			Progress: cfg.Verbose,
			Logger:   logger,
		}
		if cfg.Verbose {
			bookCfg.MonitorCPU = 5 * time.Second
		}
		result = bookReport(positions.ValueBook(book, bookCfg))
	} else {
		report, err := valueContract(cfg, seq, logger)
		if err != nil {
			return err
		}
		result = report
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshalling report: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func readBook(path string) ([]positions.Position, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var book []positions.Position
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("parsing book %s: %w", path, err)
	}
	return book, nil
}

func readBars(path string) ([]models.Bar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bars []models.Bar
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, fmt.Errorf("parsing history %s: %w", path, err)
	}
	return bars, nil
}

// realizedVolatility estimates the contract volatility from cfg.HistoryFile.
func realizedVolatility(cfg Config, logger *logrus.Logger) (float64, error) {
	est, err := models.ParseEstimator(cfg.Estimator)
	if err != nil {
		return 0, err
	}
	bars, err := readBars(cfg.HistoryFile)
	if err != nil {
		return 0, err
	}
	vol, err := models.RealizedVolatility(bars, est, cfg.Contract.TradingDays)
	if err != nil {
		return 0, err
	}
	logger.WithFields(logrus.Fields{
		"estimator":  est,
		"bars":       len(bars),
		"volatility": vol,
	}).Info("Realized volatility")
	return vol, nil
}

func valueContract(cfg Config, seq probability.SequenceProvider, logger *logrus.Logger) (*Report, error) {
	if cfg.HistoryFile != "" {
		vol, err := realizedVolatility(cfg, logger)
		if err != nil {
			return nil, err
		}
		cfg.Contract.Volatility = vol
	}

	c, err := models.NewContract(cfg.Contract)
	if err != nil {
		return nil, err
	}

	analytic, err := models.NewBarrierOption(c).Price()
	if err != nil {
		return nil, err
	}
	vanilla, err := models.NewVanilla(c).Valuation()
	if err != nil {
		return nil, err
	}
	if !finite(analytic) || !finite(vanilla[0]) {
		return nil, fmt.Errorf("%w: price is not finite, maturity and volatility must be positive", models.ErrConfiguration)
	}

	report := &Report{
		Contract: cfg.Contract,
		Analytic: round(analytic),
		Vanilla:  round(vanilla[0]),
	}
	logger.WithFields(logrus.Fields{
		"barrier":  c.BarrierType,
		"option":   c.OptionType,
		"analytic": analytic,
	}).Info("Closed-form price")

	if cfg.Paths <= 0 {
		return report, nil
	}

	steps := cfg.Steps
	if steps <= 0 {
		steps = int(math.Round(c.Maturity * float64(c.TradingDays)))
	}
	opts := []probability.Option{probability.WithLogger(logger)}
	if cfg.Seed != 0 {
		opts = append(opts, probability.WithSeed(cfg.Seed))
	}
	vals, err := probability.NewEngine(c, opts...).Run([]float64{c.Spot}, cfg.Paths, steps, probability.ParseMethod(cfg.Method), seq)
	if err != nil {
		return nil, err
	}

	s := probability.Summarize(vals)
	report.MonteCarlo = monteCarloReport(s)
	logger.WithFields(logrus.Fields{
		"paths":   s.Paths,
		"mean":    s.Mean,
		"std_err": s.StdErr,
	}).Info("Monte Carlo estimate")
	return report, nil
}

func monteCarloReport(s probability.Summary) *MonteCarloReport {
	return &MonteCarloReport{
		Paths:   s.Paths,
		Mean:    round(s.Mean),
		StdErr:  round(s.StdErr),
		CILow:   round(s.CILow),
		CIHigh:  round(s.CIHigh),
		LastP05: round(s.LastP05),
		LastP50: round(s.LastP50),
		LastP95: round(s.LastP95),
	}
}

// bookReport rounds book results the same way as a single-contract Report.
func bookReport(results []positions.PositionValuation) []BookEntry {
	entries := make([]BookEntry, len(results))
	for i, res := range results {
		entries[i] = BookEntry{Name: res.Name, Error: res.Error}
		if res.Err != nil {
			continue
		}
		entries[i].Analytic = round(res.Analytic)
		if res.MonteCarlo.Paths > 0 {
			entries[i].MonteCarlo = monteCarloReport(res.MonteCarlo)
		}
	}
	return entries
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func round(x float64) decimal.Decimal {
	return decimal.NewFromFloat(x).Round(reportPlaces)
}
