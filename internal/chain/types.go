package chain

import "time"

// Symbol identifies a single futures contract
type Symbol struct {
	Ticker string
	Market string
	Expiry time.Time
}

// NewSymbol creates a contract symbol with a date-only expiry
func NewSymbol(ticker, market string, expiry time.Time) Symbol {
	return Symbol{
		Ticker: ticker,
		Market: market,
		Expiry: truncateToDay(expiry),
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
