package positions

import (
	"errors"
	"testing"
	"time"

	"github.com/bcdannyboy/barrierq/models"
	"github.com/bcdannyboy/barrierq/probability"
	"github.com/sirupsen/logrus/hooks/test"
)

func testBook() []Position {
	return []Position{
		{Name: "doc", Contract: models.ContractSpec{
			Spot: 100, Strike: 100, Rate: 0.05, Volatility: 0.2, Maturity: 0.5,
			Barrier: 90, BarrierType: "do", OptionType: "c",
		}},
		{Name: "bad", Contract: models.ContractSpec{
			Spot: 100, Strike: 100, Rate: 0.05, Volatility: 0.2, Maturity: 0.5,
			Barrier: 90, BarrierType: "do", OptionType: "x",
		}},
		{Name: "uip", Contract: models.ContractSpec{
			Spot: 100, Strike: 100, Rate: 0.08, Yield: 0.04, Volatility: 0.25, Maturity: 0.5,
			Barrier: 105, Rebate: 3, BarrierType: "ui", OptionType: "p",
		}},
	}
}

func TestValueBook(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := BookConfig{Paths: 500, Seed: 11, Workers: 2, Logger: logger}

	book := testBook()
	results := ValueBook(book, cfg)
	if len(results) != len(book) {
		t.Fatalf("expected %d results, got %d", len(book), len(results))
	}

	for i, res := range results {
		if res.Name != book[i].Name {
			t.Fatalf("result %d is %q, want %q", i, res.Name, book[i].Name)
		}
	}

	if !errors.Is(results[1].Err, models.ErrConfiguration) || results[1].Error == "" {
		t.Fatalf("expected a configuration error for %q, got %v", results[1].Name, results[1].Err)
	}

	for _, i := range []int{0, 2} {
		res := results[i]
		if res.Err != nil {
			t.Fatalf("%s: %v", res.Name, res.Err)
		}
		c, _ := models.NewContract(book[i].Contract)
		want, _ := models.NewBarrierOption(c).Price()
		if res.Analytic != want {
			t.Errorf("%s: analytic %v, want %v", res.Name, res.Analytic, want)
		}
		if res.MonteCarlo.Paths != cfg.Paths {
			t.Errorf("%s: %d paths, want %d", res.Name, res.MonteCarlo.Paths, cfg.Paths)
		}
	}

	again := ValueBook(book, cfg)
	for i := range results {
		if again[i].MonteCarlo != results[i].MonteCarlo {
			t.Errorf("%s: seeded runs differ", results[i].Name)
		}
	}
}

func TestValueBookWithSequence(t *testing.T) {
	logger, _ := test.NewNullLogger()
	seq, err := probability.NewTableSequence([][]float64{
		{0.1, -0.3, 0.2},
		{-1.0, 0.4, 0.9},
	})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	book := testBook()[:1]

	results := ValueBook(book, BookConfig{
		Paths: 2, Steps: 3, Method: probability.MethodSobol, Sequence: seq, Logger: logger,
	})
	if results[0].Err != nil {
		t.Fatalf("unexpected error: %v", results[0].Err)
	}
	if results[0].MonteCarlo.Paths != 2 {
		t.Fatalf("expected 2 paths, got %d", results[0].MonteCarlo.Paths)
	}
}

func TestValueBookAnalyticOnly(t *testing.T) {
	logger, _ := test.NewNullLogger()
	results := ValueBook(testBook()[:1], BookConfig{Logger: logger})
	if results[0].MonteCarlo.Paths != 0 {
		t.Fatalf("expected no simulation, got %+v", results[0].MonteCarlo)
	}
	if results[0].Analytic <= 0 {
		t.Fatalf("expected a positive analytic price, got %v", results[0].Analytic)
	}
}

func TestValueBookEmptyWithProgress(t *testing.T) {
	logger, _ := test.NewNullLogger()
	done := make(chan []PositionValuation)
	go func() {
		done <- ValueBook(nil, BookConfig{Paths: 10, Progress: true, Logger: logger})
	}()

	select {
	case results := <-done:
		if len(results) != 0 {
			t.Errorf("expected no results, got %d", len(results))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ValueBook did not return for an empty book")
	}
}
