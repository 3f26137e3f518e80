package probability

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bcdannyboy/barrierq/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type Method uint8

const (
	MethodPseudo Method = iota // independent normals from the engine's generator
	MethodSobol                // draws sliced from a SequenceProvider
)

func (m Method) String() string {
	if m == MethodSobol {
		return "sobol"
	}
	return "pseudo"
}

// ParseMethod maps "sobol" (any case) to MethodSobol and everything else to MethodPseudo.
func ParseMethod(code string) Method {
	if strings.EqualFold(code, "sobol") {
		return MethodSobol
	}
	return MethodPseudo
}

// Engine simulates daily GBM paths for one contract and values the barrier
// payoff on them. An Engine is not safe for concurrent use.
type Engine struct {
	Contract models.Contract

	rng    *rand.Rand
	logger *logrus.Logger
}

type Option func(*Engine)

// WithSeed makes pseudo-random paths reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

var seedCounter uint64

// entropySeed mixes the wall clock with a process counter so engines built in
// the same instant still differ.
func entropySeed() uint64 {
	n := atomic.AddUint64(&seedCounter, 1)
	return uint64(time.Now().UnixNano()) ^ (n * 0x9e3779b97f4a7c15)
}

func NewEngine(c models.Contract, opts ...Option) *Engine {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	e := &Engine{
		Contract: c,
		rng:      rand.New(rand.NewSource(entropySeed())),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Batch is a set of simulated price paths: one row per path, column 0 is the
// initial spot and each further column is one trading day.
type Batch struct {
	Prices *mat.Dense
}

func NewBatch(prices *mat.Dense) *Batch {
	return &Batch{Prices: prices}
}

// Dims returns the number of paths and the number of simulated steps.
func (b *Batch) Dims() (paths, steps int) {
	r, c := b.Prices.Dims()
	return r, c - 1
}

// Path returns row i without copying.
func (b *Batch) Path(i int) []float64 {
	return b.Prices.RawRowView(i)
}

// GeneratePaths simulates paths x (steps+1) prices. spots holds either one
// initial price for all paths or one per path. With MethodSobol a table
// smaller than requested is logged as a warning and the simulation continues
// on the rows and columns available.
func (e *Engine) GeneratePaths(spots []float64, paths, steps int, method Method, seq SequenceProvider) (*Batch, error) {
	if paths <= 0 || steps < 0 {
		return nil, fmt.Errorf("%w: %d paths and %d steps", models.ErrConfiguration, paths, steps)
	}
	if len(spots) != 1 && len(spots) != paths {
		return nil, fmt.Errorf("%w: %d spots for %d paths", models.ErrShapeMismatch, len(spots), paths)
	}

	rows, cols, draw, err := e.draws(paths, steps, method, seq)
	if err != nil {
		return nil, err
	}

	c := e.Contract
	dt := 1.0 / float64(c.TradingDays)
	drift := (c.Rate - c.Yield - 0.5*c.Volatility*c.Volatility) * dt
	diffusion := c.Volatility * math.Sqrt(dt)

	prices := mat.NewDense(rows, cols+1, nil)
	increments := make([]float64, cols+1)
	cumulative := make([]float64, cols+1)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			increments[j+1] = drift + diffusion*draw(i, j)
		}
		floats.CumSum(cumulative, increments)

		s0 := spots[0]
		if len(spots) > 1 {
			s0 = spots[i]
		}
		row := prices.RawRowView(i)
		for j, x := range cumulative {
			row[j] = s0 * math.Exp(x)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"paths":  rows,
		"steps":  cols,
		"method": method,
	}).Debug("Simulated barrier paths")

	return NewBatch(prices), nil
}

func (e *Engine) draws(paths, steps int, method Method, seq SequenceProvider) (rows, cols int, draw func(i, j int) float64, err error) {
	if method != MethodSobol {
		return paths, steps, func(int, int) float64 { return e.rng.NormFloat64() }, nil
	}

	if seq == nil {
		return 0, 0, nil, fmt.Errorf("%w: sobol method needs a sequence provider", models.ErrConfiguration)
	}
	table, err := seq.Sequence()
	if err != nil {
		return 0, 0, nil, err
	}

	available, width := table.Dims()
	rows, cols = paths, steps
	if paths > available {
		e.logger.WithFields(logrus.Fields{
			"requested": paths,
			"available": available,
		}).Warn("MC length is too long for the sequence table, using available rows")
		rows = available
	}
	if steps > width {
		e.logger.WithFields(logrus.Fields{
			"requested": steps,
			"available": width,
		}).Warn("Step count exceeds sequence table columns, using available columns")
		cols = width
	}
	if rows == 0 {
		return 0, 0, nil, fmt.Errorf("%w: sequence table has no rows", models.ErrConfiguration)
	}
	return rows, cols, table.At, nil
}
