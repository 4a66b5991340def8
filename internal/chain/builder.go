package chain

import (
	"fmt"
	"sort"
	"time"
)

// DefaultLookAhead is how many not-yet-expired contracts the data
// source is expected to publish at any time.
const DefaultLookAhead = 12

// Builder computes the ordered list of contracts to fetch
type Builder struct {
	ticker string
	market string
	now    func() time.Time
}

// NewBuilder creates a chain builder for a ticker. The venue is
// resolved from the market registry.
func NewBuilder(ticker string) (*Builder, error) {
	market, err := Market(ticker)
	if err != nil {
		return nil, err
	}
	return &Builder{
		ticker: ticker,
		market: market,
		now:    time.Now,
	}, nil
}

// Build walks calendar days forward from start and collects distinct
// contract expiries until lookAhead expiries on or after the current
// date have been found. Expiries before start belong to contracts that
// are already off the board and are discarded. When start is in the
// past the result also contains contracts that have expired since, so
// it grows beyond lookAhead entries.
func (b *Builder) Build(start time.Time, lookAhead int) ([]Symbol, error) {
	expiryFn, err := ExpiryFunction(b.ticker, b.market)
	if err != nil {
		return nil, fmt.Errorf("cannot build chain: %w", err)
	}

	start = truncateToDay(start)
	today := truncateToDay(b.now().UTC())

	seen := make(map[time.Time]bool)
	day := start
	futureDated := 0
	for futureDated < lookAhead {
		expiry := truncateToDay(expiryFn(day))
		if expiry.Before(start) {
			day = day.AddDate(0, 0, 1)
			continue
		}
		if !seen[expiry] {
			seen[expiry] = true
			if !expiry.Before(today) {
				futureDated++
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	symbols := make([]Symbol, 0, len(seen))
	for expiry := range seen {
		symbols = append(symbols, NewSymbol(b.ticker, b.market, expiry))
	}
	sort.Slice(symbols, func(i, j int) bool {
		return symbols[i].Expiry.Before(symbols[j].Expiry)
	})
	return symbols, nil
}
