package engine

import (
	"errors"
	"time"
)

var ErrInvalidHour = errors.New("hour of day must be in range 0-23")

// Tariff band boundaries (hour of day, end exclusive). The three bands
// partition the full 24 hours:
//
//	off-peak: 00-08
//	standard: 08-10, 14-18, 22-24
//	peak:     10-14, 18-22
const (
	offPeakEnd     = 8
	morningPeak    = 10
	morningPeakEnd = 14
	eveningPeak    = 18
	eveningPeakEnd = 22
)

// ClassifyHour maps an hour of day to its tariff period. Hours outside
// [0,23] are rejected; callers working from a time.Time should use
// ClassifyTime instead.
func ClassifyHour(hour int) (TariffPeriod, error) {
	if hour < 0 || hour > 23 {
		return "", ErrInvalidHour
	}
	switch {
	case hour < offPeakEnd:
		return PeriodOffPeak, nil
	case hour >= morningPeak && hour < morningPeakEnd:
		return PeriodPeak, nil
	case hour >= eveningPeak && hour < eveningPeakEnd:
		return PeriodPeak, nil
	default:
		return PeriodStandard, nil
	}
}

// ClassifyTime buckets a timestamp using the hour in the timestamp's own
// location. Records written with a local timestamp land in the local band.
func ClassifyTime(t time.Time) TariffPeriod {
	period, _ := ClassifyHour(t.Hour()) // Hour() is always 0-23
	return period
}

// OffPeakWindow returns the daily off-peak band as [start, end) hours,
// used by scheduling recommendations to name a concrete target window.
func OffPeakWindow() (startHour, endHour int) {
	return 0, offPeakEnd
}
