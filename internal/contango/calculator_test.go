package contango

import (
	"math"
	"testing"
	"time"

	"github.com/sabarim/contango/internal/chain"
	"github.com/sabarim/contango/internal/settlement"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// monthlyChain builds n contracts with expiries one month apart
func monthlyChain(n int, first time.Time) []chain.Symbol {
	contracts := make([]chain.Symbol, n)
	for i := 0; i < n; i++ {
		contracts[i] = chain.NewSymbol("VX", "CFE", first.AddDate(0, i, 0))
	}
	return contracts
}

// barsFor lays settles onto one trading date in reverse chain order, so
// the calculator has to sort by expiry itself.
func barsFor(tradeDate time.Time, contracts []chain.Symbol, settles []float64) settlement.BarsByDate {
	bars := make(settlement.BarsByDate)
	for i := len(settles) - 1; i >= 0; i-- {
		bars[tradeDate] = append(bars[tradeDate], settlement.Bar{
			Symbol: contracts[i],
			Date:   tradeDate,
			Settle: settles[i],
		})
	}
	return bars
}

func fixedCutoff(cutoff time.Time) PreviousExpiryResolver {
	return func(chain.Symbol) (time.Time, error) {
		return cutoff, nil
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestComputeNinePositions(t *testing.T) {
	contracts := monthlyChain(9, date(2022, time.January, 19))
	tradeDate := date(2022, time.January, 10)
	settles := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18}
	bars := barsFor(tradeDate, contracts, settles)

	calc := NewCalculator(fixedCutoff(date(2021, time.December, 22)))
	records, err := calc.Compute(bars, contracts)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if !r.Date.Equal(tradeDate) {
		t.Fatalf("record date = %s", r.Date.Format("2006-01-02"))
	}
	if r.FrontMonth != int(time.January) {
		t.Fatalf("front month = %d, want %d", r.FrontMonth, int(time.January))
	}
	if len(r.Prices) != 9 {
		t.Fatalf("expected 9 prices, got %d", len(r.Prices))
	}
	for i, want := range settles {
		if r.Prices[i] != want {
			t.Fatalf("F%d = %v, want %v", i+1, r.Prices[i], want)
		}
	}
	if !almostEqual(r.Contango21, 0.1) {
		t.Fatalf("Contango21 = %v, want 0.1", r.Contango21)
	}
	if !almostEqual(r.Contango74, 3.0/13.0) {
		t.Fatalf("Contango74 = %v, want %v", r.Contango74, 3.0/13.0)
	}
	if !almostEqual(r.Contango74Div3, r.Contango74/3) {
		t.Fatalf("Contango74Div3 = %v, want %v", r.Contango74Div3, r.Contango74/3)
	}
}

func TestComputeCapsAtTwelvePositions(t *testing.T) {
	contracts := monthlyChain(14, date(2022, time.January, 19))
	tradeDate := date(2022, time.January, 10)
	settles := make([]float64, 14)
	for i := range settles {
		settles[i] = float64(20 + i)
	}
	bars := barsFor(tradeDate, contracts, settles)

	calc := NewCalculator(fixedCutoff(date(2021, time.December, 22)))
	records, err := calc.Compute(bars, contracts)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if len(records[0].Prices) != MaxPositions {
		t.Fatalf("expected %d prices, got %d", MaxPositions, len(records[0].Prices))
	}
}

func TestComputeSkipsThinDates(t *testing.T) {
	contracts := monthlyChain(9, date(2022, time.January, 19))
	tradeDate := date(2022, time.January, 10)
	bars := barsFor(tradeDate, contracts[:7], []float64{10, 11, 12, 13, 14, 15, 16})

	calc := NewCalculator(fixedCutoff(date(2021, time.December, 22)))
	records, err := calc.Compute(bars, contracts)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records for a date with %d bars", MinBarsPerDate-1)
	}
}

func TestComputeSkipsDatesBeforeCutoff(t *testing.T) {
	contracts := monthlyChain(9, date(2022, time.January, 19))
	tradeDate := date(2021, time.December, 10)
	bars := barsFor(tradeDate, contracts, []float64{10, 11, 12, 13, 14, 15, 16, 17, 18})

	calc := NewCalculator(fixedCutoff(date(2021, time.December, 22)))
	records, err := calc.Compute(bars, contracts)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected dates before the previous expiry to be dropped")
	}
}

func TestComputeEmptyChain(t *testing.T) {
	calc := NewCalculator(fixedCutoff(date(2021, time.December, 22)))
	records, err := calc.Compute(make(settlement.BarsByDate), nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty result for empty chain")
	}
}

func TestRegistryPreviousExpiry(t *testing.T) {
	front := chain.NewSymbol("VX", "CFE", date(2022, time.January, 19))
	cutoff, err := RegistryPreviousExpiry(front)
	if err != nil {
		t.Fatalf("RegistryPreviousExpiry: %v", err)
	}
	if !cutoff.Equal(date(2021, time.December, 22)) {
		t.Fatalf("previous expiry = %s, want 2021-12-22", cutoff.Format("2006-01-02"))
	}

	unknown := chain.NewSymbol("ES", "CME", date(2022, time.March, 18))
	if _, err := RegistryPreviousExpiry(unknown); err == nil {
		t.Fatalf("expected error for unregistered ticker")
	}
}
