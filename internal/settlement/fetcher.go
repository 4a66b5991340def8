package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sabarim/contango/internal/chain"
)

const (
	// MaxFetchAttempts bounds retries per contract. Exhausting it is
	// fatal for the whole run: later contracts depend on earlier
	// contiguous data.
	MaxFetchAttempts = 5

	// DefaultRequestInterval is the minimum spacing between outbound
	// requests, shared across the whole fetch loop including retries.
	DefaultRequestInterval = 5 * time.Second

	// A settlement row needs at least date, ticker, open, high, low,
	// close and settle columns to be usable.
	minFields = 7
)

// Fetcher downloads and parses daily settlement data contract by
// contract, in chain order.
type Fetcher struct {
	baseURL     string
	strategy    FetchStrategy
	limiter     *rate.Limiter
	maxAttempts int
}

// NewFetcher creates a settlement fetcher. The rate limiter is owned
// by the fetcher and serializes every attempt made through it.
func NewFetcher(baseURL string, interval time.Duration, maxAttempts int, strategy FetchStrategy) *Fetcher {
	if interval <= 0 {
		interval = DefaultRequestInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = MaxFetchAttempts
	}
	return &Fetcher{
		baseURL:     strings.TrimRight(baseURL, "/"),
		strategy:    strategy,
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		maxAttempts: maxAttempts,
	}
}

// URL builds the per-contract resource locator.
func (f *Fetcher) URL(contract chain.Symbol) string {
	return fmt.Sprintf("%s/%s/%s/", f.baseURL, strings.ToUpper(contract.Ticker), contract.Expiry.Format("2006-01-02"))
}

// FetchSettlements retrieves settlement data for each contract in
// chain order. The first contract the source reports as not found
// short-circuits the remaining chain: contracts further out are assumed
// equally unpublished and the accumulated bars are returned as-is.
func (f *Fetcher) FetchSettlements(ctx context.Context, contracts []chain.Symbol) (BarsByDate, error) {
	bars := make(BarsByDate)
	for _, contract := range contracts {
		body, err := f.fetchWithRetry(ctx, contract)
		if errors.Is(err, ErrNotFound) {
			log.Printf("No settlement data published for %s expiring %s, stopping chain",
				contract.Ticker, contract.Expiry.Format("2006-01-02"))
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(body) == "" {
			return nil, fmt.Errorf("empty settlement payload for %s expiring %s",
				contract.Ticker, contract.Expiry.Format("2006-01-02"))
		}
		if err := parseSettlements(body, contract, bars); err != nil {
			return nil, err
		}
	}
	return bars, nil
}

// fetchWithRetry attempts a single contract download up to maxAttempts
// times, waiting on the shared limiter before every attempt. A
// not-found response is returned immediately without retrying.
func (f *Fetcher) fetchWithRetry(ctx context.Context, contract chain.Symbol) (string, error) {
	url := f.URL(contract)

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait interrupted: %w", err)
		}

		body, err := f.strategy.Fetch(ctx, url)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, ErrNotFound) {
			return "", err
		}
		lastErr = err
		log.Printf("Retry %d/%d: error fetching %s: %v", attempt, f.maxAttempts, url, err)
	}

	return "", fmt.Errorf("max retries exceeded for %s: %w", url, lastErr)
}

// parseSettlements parses the raw CBOE settlement CSV for one contract
// and accumulates its rows into bars. Column order: trade date, ticker
// label, open, high, low, close (unused upstream, skipped here too),
// settlement price.
func parseSettlements(body string, contract chain.Symbol, bars BarsByDate) error {
	body = strings.ReplaceAll(body, "\r", "")
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// Header lines start with a column name, data lines with a date.
		if line[0] < '0' || line[0] > '9' {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < minFields {
			continue
		}

		date, err := time.Parse("2006-01-02", fields[0])
		if err != nil {
			return fmt.Errorf("malformed trade date %q for %s: %w", fields[0], contract.Ticker, err)
		}
		// The source never carries the contract's own final settlement
		// date; anything on or past expiry is out of range.
		if !date.Before(contract.Expiry) {
			continue
		}

		open, err := parsePrice(fields[2], "open", contract)
		if err != nil {
			return err
		}
		high, err := parsePrice(fields[3], "high", contract)
		if err != nil {
			return err
		}
		low, err := parsePrice(fields[4], "low", contract)
		if err != nil {
			return err
		}
		settle, err := parsePrice(fields[6], "settle", contract)
		if err != nil {
			return err
		}

		bars[date] = append(bars[date], Bar{
			Symbol: contract,
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Settle: settle,
		})
	}
	return nil
}

func parsePrice(raw, column string, contract chain.Symbol) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed %s price %q for %s expiring %s: %w",
			column, raw, contract.Ticker, contract.Expiry.Format("2006-01-02"), err)
	}
	return value, nil
}
