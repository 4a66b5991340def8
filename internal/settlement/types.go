package settlement

import (
	"time"

	"github.com/sabarim/contango/internal/chain"
)

// Bar is one contract's daily settlement record. The close column of
// the source file is not used; the settlement price stands in for it.
type Bar struct {
	Symbol chain.Symbol
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Settle float64
}

// BarsByDate groups bars by trading date across all fetched contracts.
// Bars within a date are in fetch order, not expiry order.
type BarsByDate map[time.Time][]Bar
