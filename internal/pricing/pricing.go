package pricing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const secondsPerDay = 24 * 60 * 60

// ErrEmptyPeriod is returned for a zero or negative rental window.
var ErrEmptyPeriod = errors.New("pricing: end must be after start")

// Days returns the number of billable days between start and end. A trailing
// partial day, down to the nanosecond, is billed as a whole day. Unix
// seconds are used so windows longer than a time.Duration are not clamped.
func Days(start, end time.Time) (int64, error) {
	secs := end.Unix() - start.Unix()
	nanos := end.Nanosecond() - start.Nanosecond()
	if nanos < 0 {
		secs--
		nanos += int(time.Second)
	}
	if secs < 0 || (secs == 0 && nanos == 0) {
		return 0, ErrEmptyPeriod
	}
	days := secs / secondsPerDay
	if secs%secondsPerDay != 0 || nanos != 0 {
		days++
	}
	return days, nil
}

// Price calculates the cost of renting for the window at pricePerDay.
func Price(start, end time.Time, pricePerDay decimal.Decimal) (decimal.Decimal, error) {
	days, err := Days(start, end)
	if err != nil {
		return decimal.Zero, err
	}
	return pricePerDay.Mul(decimal.NewFromInt(days)), nil
}

// Delta is the amount the client owes (positive) or is owed (negative)
// when a rental is repriced.
func Delta(oldPrice, newPrice decimal.Decimal) decimal.Decimal {
	return newPrice.Sub(oldPrice)
}
