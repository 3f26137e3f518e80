package models

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func mustContract(t *testing.T, spec ContractSpec) Contract {
	t.Helper()
	c, err := NewContract(spec)
	if err != nil {
		t.Fatalf("NewContract(%+v): %v", spec, err)
	}
	return c
}

func mustPrice(t *testing.T, p Pricer, opts ...ValuationOption) float64 {
	t.Helper()
	v, err := p.Valuation(opts...)
	if err != nil {
		t.Fatalf("valuation: %v", err)
	}
	if len(v) != 1 {
		t.Fatalf("expected a single value, got %d", len(v))
	}
	return v[0]
}

// Haug, The Complete Guide to Option Pricing Formulas, barrier table:
// S=100, r=0.08, q=0.04, v=0.25, t=0.5, rebate=3.
func TestBarrierReferenceTable(t *testing.T) {
	tests := []struct {
		option  string
		barrier string
		h       float64
		want    [3]float64 // K = 90, 100, 110
	}{
		{"c", "do", 95, [3]float64{9.0246, 6.7924, 4.8759}},
		{"c", "do", 100, [3]float64{3.0000, 3.0000, 3.0000}},
		{"c", "uo", 105, [3]float64{2.6789, 2.3580, 2.3453}},
		{"c", "di", 95, [3]float64{7.7627, 4.0109, 2.0576}},
		{"c", "di", 100, [3]float64{13.8333, 7.8494, 3.9795}},
		{"c", "ui", 105, [3]float64{14.1112, 8.4482, 4.5910}},
		{"p", "di", 95, [3]float64{2.9586, 6.5677, 11.9752}},
		{"p", "di", 100, [3]float64{2.2845, 5.9085, 11.6465}},
		{"p", "ui", 105, [3]float64{1.4653, 3.3721, 7.0846}},
		{"p", "do", 95, [3]float64{2.2798, 2.2947, 2.6252}},
		{"p", "do", 100, [3]float64{3.0000, 3.0000, 3.0000}},
		{"p", "uo", 105, [3]float64{3.7760, 5.4932, 7.5187}},
	}

	for _, tt := range tests {
		for i, k := range []float64{90, 100, 110} {
			c := mustContract(t, ContractSpec{
				Spot: 100, Strike: k, Rate: 0.08, Yield: 0.04, Volatility: 0.25, Maturity: 0.5,
				Barrier: tt.h, Rebate: 3, BarrierType: tt.barrier, OptionType: tt.option,
			})
			got := mustPrice(t, NewBarrierOption(c))
			if !almostEqual(got, tt.want[i], 1e-4) {
				t.Errorf("%s/%s h=%v k=%v: got %.6f want %.4f", tt.option, tt.barrier, tt.h, k, got, tt.want[i])
			}
		}
	}
}

func TestDownAndOutCallReference(t *testing.T) {
	c := mustContract(t, ContractSpec{
		Spot: 100, Strike: 100, Rate: 0.05, Volatility: 0.2, Maturity: 0.5,
		Barrier: 90, BarrierType: "do", OptionType: "c",
	})
	got, err := NewBarrierOption(c).Price()
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !almostEqual(got, 6.414532697414348, 1e-8) {
		t.Fatalf("down-and-out call: got %.10f", got)
	}
}

func TestDownAndInCallStrikeBelowBarrier(t *testing.T) {
	// k <= h selects A - B + D + E.
	c := mustContract(t, ContractSpec{
		Spot: 100, Strike: 90, Rate: 0.05, Volatility: 0.2, Maturity: 0.5,
		Barrier: 95, BarrierType: "di", OptionType: "c",
	})
	b := NewBarrierOption(c)
	got := mustPrice(t, b)

	phi, eta, _ := c.signs()
	x := c.terms(c.Spot, c.Volatility, c.Maturity, phi, eta)
	if want := x.A - x.B + x.D + x.E; got != want {
		t.Fatalf("expected A-B+D+E = %v, got %v", want, got)
	}
	if !almostEqual(got, 5.850801418653177, 1e-8) {
		t.Fatalf("down-and-in call: got %.10f", got)
	}
}

func TestInOutParity(t *testing.T) {
	pairs := []struct {
		in, out string
		h       float64
	}{
		{"di", "do", 90},
		{"ui", "uo", 110},
	}

	for _, option := range []string{"c", "p"} {
		for _, p := range pairs {
			for _, k := range []float64{85, 100, 120} {
				spec := ContractSpec{
					Spot: 100, Strike: k, Rate: 0.05, Yield: 0.02, Volatility: 0.25, Maturity: 0.75,
					Barrier: p.h, OptionType: option,
				}
				spec.BarrierType = p.in
				in := mustPrice(t, NewBarrierOption(mustContract(t, spec)))
				spec.BarrierType = p.out
				out := mustPrice(t, NewBarrierOption(mustContract(t, spec)))
				vanilla := mustPrice(t, NewVanilla(mustContract(t, spec)))

				if !almostEqual(in+out, vanilla, 1e-9) {
					t.Errorf("%s %s/%s k=%v: in+out=%v vanilla=%v", option, p.in, p.out, k, in+out, vanilla)
				}
			}
		}
	}
}

func TestFarBarrierConvergesToVanilla(t *testing.T) {
	tests := []struct {
		option, barrier string
		h               float64
	}{
		{"c", "do", 1},
		{"p", "do", 1},
		{"c", "uo", 1e4},
		{"p", "uo", 1e4},
	}
	for _, tt := range tests {
		c := mustContract(t, ContractSpec{
			Spot: 100, Strike: 100, Rate: 0.05, Yield: 0.01, Volatility: 0.2, Maturity: 0.5,
			Barrier: tt.h, BarrierType: tt.barrier, OptionType: tt.option,
		})
		got := mustPrice(t, NewBarrierOption(c))
		want := mustPrice(t, NewVanilla(c))
		if !almostEqual(got, want, 1e-9) {
			t.Errorf("%s/%s h=%v: got %v want vanilla %v", tt.option, tt.barrier, tt.h, got, want)
		}
	}
}

func TestValuationOverrides(t *testing.T) {
	c := mustContract(t, ContractSpec{
		Spot: 100, Strike: 100, Rate: 0.05, Volatility: 0.2, Maturity: 126, TimeUnit: "days",
		Barrier: 90, Rebate: 1, BarrierType: "do", OptionType: "c",
	})
	b := NewBarrierOption(c)

	spots := []float64{95, 100, 105}
	got, err := b.Valuation(WithSpot(spots...), WithVolatility(0.25), WithTime(63))
	if err != nil {
		t.Fatalf("valuation: %v", err)
	}
	if len(got) != len(spots) {
		t.Fatalf("expected %d values, got %d", len(spots), len(got))
	}

	years := c
	years.Unit = Years
	for i, s := range spots {
		want := mustPrice(t, NewBarrierOption(years), WithSpot(s), WithVolatility(0.25), WithTime(0.25))
		if !almostEqual(got[i], want, 1e-12) {
			t.Errorf("spot %v: got %v want %v", s, got[i], want)
		}
	}

	if _, err := b.Valuation(WithSpot(1, 2), WithVolatility(0.1, 0.2, 0.3)); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestDaysAreConvertedToYears(t *testing.T) {
	spec := ContractSpec{
		Spot: 100, Strike: 100, Rate: 0.05, Volatility: 0.2, Maturity: 126, TimeUnit: "days",
		Barrier: 90, BarrierType: "do", OptionType: "c",
	}
	c := mustContract(t, spec)
	if c.Maturity != 0.5 {
		t.Fatalf("expected 0.5 years, got %v", c.Maturity)
	}
	got := mustPrice(t, NewBarrierOption(c))
	if !almostEqual(got, 6.414532697414348, 1e-8) {
		t.Fatalf("got %v", got)
	}
}

func TestDaysUseContractCalendar(t *testing.T) {
	c := mustContract(t, ContractSpec{
		Spot: 100, Strike: 100, Rate: 0.05, Volatility: 0.2, Maturity: 125, TimeUnit: "days",
		Barrier: 90, BarrierType: "do", OptionType: "c", TradingDays: 250,
	})
	if c.Maturity != 0.5 {
		t.Fatalf("expected 0.5 years on a 250-day calendar, got %v", c.Maturity)
	}
	if got := c.Years(50); got != 0.2 {
		t.Errorf("Years(50) = %v, want 0.2", got)
	}
}

func TestConfigurationErrors(t *testing.T) {
	base := ContractSpec{
		Spot: 100, Strike: 100, Rate: 0.05, Volatility: 0.2, Maturity: 0.5,
		Barrier: 90, BarrierType: "do", OptionType: "c",
	}
	tests := []struct {
		name   string
		mutate func(*ContractSpec)
	}{
		{"option type", func(s *ContractSpec) { s.OptionType = "x" }},
		{"barrier type", func(s *ContractSpec) { s.BarrierType = "dx" }},
		{"time unit", func(s *ContractSpec) { s.TimeUnit = "weeks" }},
		{"negative volatility", func(s *ContractSpec) { s.Volatility = -0.1 }},
		{"negative maturity", func(s *ContractSpec) { s.Maturity = -1 }},
		{"zero barrier", func(s *ContractSpec) { s.Barrier = 0 }},
	}
	for _, tt := range tests {
		spec := base
		tt.mutate(&spec)
		if _, err := NewContract(spec); !errors.Is(err, ErrConfiguration) {
			t.Errorf("%s: expected ErrConfiguration, got %v", tt.name, err)
		}
	}

	// A contract built without NewContract is still checked before pricing.
	bad := mustContract(t, base)
	bad.OptionType = OptionType(9)
	v, err := NewBarrierOption(bad).Valuation()
	if !errors.Is(err, ErrConfiguration) || v != nil {
		t.Fatalf("expected ErrConfiguration and no value, got %v, %v", v, err)
	}

	bad = mustContract(t, base)
	bad.BarrierType = 0
	if _, err := NewBarrierOption(bad).Price(); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
