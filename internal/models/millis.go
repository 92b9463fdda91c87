package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var (
	nanosPerMilli = decimal.NewFromInt(int64(time.Millisecond))
	maxNanos      = decimal.NewFromInt(math.MaxInt64)
	minNanos      = decimal.NewFromInt(math.MinInt64)
)

// MillisToDuration converts a millisecond count, possibly fractional, to a Duration
// rounded to the nearest nanosecond. It reports false when the value does not fit.
func MillisToDuration(ms decimal.Decimal) (time.Duration, bool) {
	ns := ms.Mul(nanosPerMilli).Round(0)
	if ns.GreaterThan(maxNanos) || ns.LessThan(minNanos) {
		return 0, false
	}
	return time.Duration(ns.IntPart()), true
}

// DurationMillis returns d in milliseconds without losing sub-millisecond digits.
func DurationMillis(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d)).Div(nanosPerMilli)
}

// MillisToTime converts epoch milliseconds to a UTC time. Values outside the range
// representable as Unix nanoseconds report false.
func MillisToTime(ms decimal.Decimal) (time.Time, bool) {
	ns, ok := MillisToDuration(ms)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(0, int64(ns)).UTC(), true
}
