package chain

import (
	"fmt"
	"time"
)

// ExpiryFunc maps a reference date to the expiry date of the contract
// whose cycle contains that date. The returned expiry may be earlier
// than the reference date when the cycle's contract has already gone
// off the board.
type ExpiryFunc func(time.Time) time.Time

var expiryFuncs = map[string]ExpiryFunc{
	"VX|CFE": vxExpiry,
}

var markets = map[string]string{
	"VX": "CFE",
}

// ExpiryFunction returns the expiry function registered for a
// ticker/market pair.
func ExpiryFunction(ticker, market string) (ExpiryFunc, error) {
	fn, ok := expiryFuncs[ticker+"|"+market]
	if !ok {
		return nil, fmt.Errorf("no expiry function registered for %s on %s", ticker, market)
	}
	return fn, nil
}

// Market returns the trading venue for a ticker.
func Market(ticker string) (string, error) {
	market, ok := markets[ticker]
	if !ok {
		return "", fmt.Errorf("no market registered for ticker %s", ticker)
	}
	return market, nil
}

// vxExpiry computes the CBOE VIX futures expiry for the contract month
// containing t: the Wednesday 30 days before the third Friday of the
// following calendar month.
func vxExpiry(t time.Time) time.Time {
	following := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return thirdFriday(following).AddDate(0, 0, -30)
}

func thirdFriday(firstOfMonth time.Time) time.Time {
	daysUntilFriday := (int(time.Friday) - int(firstOfMonth.Weekday()) + 7) % 7
	return firstOfMonth.AddDate(0, 0, daysUntilFriday+14)
}
