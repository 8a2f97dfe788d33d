// Package fee computes parking charges from session duration.
package fee

import (
	"math"
	"time"
)

// Compute returns the fee for a stay from checkinAt to checkoutAt at the
// given hourly rate, rounded half-up to cents. A zero or negative duration
// (clock skew) yields zero, never a negative amount.
func Compute(checkinAt, checkoutAt time.Time, ratePerHour float64) float64 {
	duration := checkoutAt.Sub(checkinAt)
	if duration <= 0 {
		return 0
	}
	amount := duration.Hours() * ratePerHour
	return math.Floor(amount*100+0.5) / 100
}
