package contango

import (
	"fmt"
	"sort"
	"time"

	"github.com/sabarim/contango/internal/chain"
	"github.com/sabarim/contango/internal/settlement"
)

// PreviousExpiryResolver returns the expiry of the contract one cycle
// before the front-month contract. Dates earlier than it were observed
// while a different contract was front month and are discarded.
type PreviousExpiryResolver func(front chain.Symbol) (time.Time, error)

// RegistryPreviousExpiry resolves the previous expiry through the
// chain package's expiry registry.
func RegistryPreviousExpiry(front chain.Symbol) (time.Time, error) {
	fn, err := chain.ExpiryFunction(front.Ticker, front.Market)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot resolve previous expiry: %w", err)
	}
	return fn(front.Expiry.AddDate(0, -1, 0)), nil
}

// Calculator derives contango records from grouped settlement bars
type Calculator struct {
	previousExpiry PreviousExpiryResolver
}

// NewCalculator creates a calculator. A nil resolver falls back to the
// expiry registry.
func NewCalculator(resolver PreviousExpiryResolver) *Calculator {
	if resolver == nil {
		resolver = RegistryPreviousExpiry
	}
	return &Calculator{previousExpiry: resolver}
}

// Compute builds one record per qualifying trading date. The result is
// unordered; the dataset layer sorts by date before writing.
func (c *Calculator) Compute(bars settlement.BarsByDate, contracts []chain.Symbol) ([]Record, error) {
	if len(contracts) == 0 {
		return nil, nil
	}

	cutoff, err := c.previousExpiry(contracts[0])
	if err != nil {
		return nil, err
	}

	var records []Record
	for date, dayBars := range bars {
		if len(dayBars) < MinBarsPerDate {
			continue
		}
		if date.Before(cutoff) {
			continue
		}

		sorted := append([]settlement.Bar(nil), dayBars...)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Symbol.Expiry.Before(sorted[j].Symbol.Expiry)
		})

		n := len(sorted)
		if n > MaxPositions {
			n = MaxPositions
		}
		prices := make([]float64, n)
		for i := 0; i < n; i++ {
			prices[i] = sorted[i].Settle
		}

		record := Record{
			Date:       date,
			FrontMonth: int(sorted[0].Symbol.Expiry.Month()),
			Prices:     prices,
		}
		record.Contango21 = (prices[1] - prices[0]) / prices[0]
		record.Contango74 = (prices[6] - prices[3]) / prices[3]
		record.Contango74Div3 = record.Contango74 / 3

		records = append(records, record)
	}
	return records, nil
}
