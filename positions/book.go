package positions

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/bcdannyboy/barrierq/models"
	"github.com/bcdannyboy/barrierq/probability"
	"github.com/shirou/gopsutil/cpu"
	"github.com/sirupsen/logrus"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

const jobBatchSize = 64

// Position is one named barrier contract in a book.
type Position struct {
	Name     string              `json:"name"`
	Contract models.ContractSpec `json:"contract"`
}

type BookConfig struct {
	Paths      int
	Steps      int // 0 derives the step count from the maturity in trading days
	Method     probability.Method
	Sequence   probability.SequenceProvider
	Seed       uint64 // 0 seeds every engine randomly
	Workers    int    // 0 uses every CPU
	Progress   bool
	MonitorCPU time.Duration // 0 disables CPU usage logging
	Logger     *logrus.Logger
}

type PositionValuation struct {
	Name       string              `json:"name"`
	Analytic   float64             `json:"analytic"`
	MonteCarlo probability.Summary `json:"monte_carlo"`
	Err        error               `json:"-"`
	Error      string              `json:"error,omitempty"`
}

type job struct {
	index    int
	position Position
}

// ValueBook prices every position with the closed form and with a Monte Carlo
// run. Results keep the order of book; a position that fails carries its error.
func ValueBook(book []Position, cfg BookConfig) []PositionValuation {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	numWorkers := cfg.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	logger.WithFields(logrus.Fields{
		"positions": len(book),
		"workers":   numWorkers,
		"paths":     cfg.Paths,
		"method":    cfg.Method,
	}).Info("Valuing barrier book")

	if cfg.MonitorCPU > 0 {
		done := make(chan struct{})
		defer close(done)
		go monitorCPUUsage(logger, cfg.MonitorCPU, done)
	}

	var p *mpb.Progress
	var bar *mpb.Bar
	// an empty bar never completes and Wait would block forever
	if cfg.Progress && len(book) > 0 {
		p = mpb.New(mpb.WithWidth(64))
		bar = p.AddBar(int64(len(book)),
			mpb.PrependDecorators(
				decor.Name("Positions"),
				decor.Percentage(decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
			),
		)
	}

	start := time.Now()
	results := processJobs(book, cfg, logger, numWorkers, bar)
	if p != nil {
		p.Wait()
	}

	logger.WithField("elapsed", time.Since(start)).Info("Barrier book valued")
	return results
}

func processJobs(book []Position, cfg BookConfig, logger *logrus.Logger, numWorkers int, bar *mpb.Bar) []PositionValuation {
	results := make([]PositionValuation, len(book))
	jobChan := make(chan job, jobBatchSize)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go worker(jobChan, results, cfg, logger, &wg, bar)
	}

	for i, pos := range book {
		jobChan <- job{index: i, position: pos}
	}
	close(jobChan)
	wg.Wait()

	return results
}

// worker writes each result into its own slot, so no lock is needed.
func worker(jobs <-chan job, results []PositionValuation, cfg BookConfig, logger *logrus.Logger, wg *sync.WaitGroup, bar *mpb.Bar) {
	defer wg.Done()
	for j := range jobs {
		res := valuePosition(j, cfg, logger)
		if res.Err != nil {
			res.Error = res.Err.Error()
			logger.WithFields(logrus.Fields{
				"position": j.position.Name,
				"error":    res.Err,
			}).Error("Position valuation failed")
		}
		results[j.index] = res
		if bar != nil {
			bar.Increment()
		}
	}
}

func valuePosition(j job, cfg BookConfig, logger *logrus.Logger) PositionValuation {
	res := PositionValuation{Name: j.position.Name}

	c, err := models.NewContract(j.position.Contract)
	if err != nil {
		res.Err = err
		return res
	}

	res.Analytic, err = models.NewBarrierOption(c).Price()
	if err != nil {
		res.Err = err
		return res
	}
	if math.IsNaN(res.Analytic) || math.IsInf(res.Analytic, 0) {
		res.Analytic = 0
		res.Err = fmt.Errorf("%w: price is not finite, maturity and volatility must be positive", models.ErrConfiguration)
		return res
	}

	if cfg.Paths <= 0 {
		return res
	}

	steps := cfg.Steps
	if steps <= 0 {
		steps = int(math.Round(c.Maturity * float64(c.TradingDays)))
	}

	opts := []probability.Option{probability.WithLogger(logger)}
	if cfg.Seed != 0 {
		opts = append(opts, probability.WithSeed(cfg.Seed+uint64(j.index)))
	}
	vals, err := probability.NewEngine(c, opts...).Run([]float64{c.Spot}, cfg.Paths, steps, cfg.Method, cfg.Sequence)
	if err != nil {
		res.Err = err
		return res
	}
	res.MonteCarlo = probability.Summarize(vals)
	return res
}

func monitorCPUUsage(logger *logrus.Logger, every time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			percentage, err := cpu.Percent(0, false)
			if err != nil || len(percentage) == 0 {
				continue
			}
			logger.WithField("cpu_percent", percentage[0]).Info("CPU usage")
		}
	}
}
