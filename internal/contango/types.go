package contango

import "time"

const (
	// MinBarsPerDate is the breadth a trading date needs before a
	// record is produced. Empirically the source always publishes at
	// least eight contracts once a date is tradeable at all.
	MinBarsPerDate = 8

	// MaxPositions caps the F1..F12 positional price columns.
	MaxPositions = 12
)

// Record is one output row: the term-structure prices and contango
// ratios for a single trading date. Prices holds F1..Fn in expiry
// order; its length is between MinBarsPerDate and MaxPositions, and
// positions past its length are absent, not zero.
type Record struct {
	Date       time.Time
	FrontMonth int
	Prices     []float64

	// (F2-F1)/F1, (F7-F4)/F4 and the latter divided by three. A zero
	// denominator propagates as a non-finite float; the dataset layer
	// renders those as absent.
	Contango21     float64
	Contango74     float64
	Contango74Div3 float64
}
