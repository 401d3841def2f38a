package engine

import (
	"testing"
	"time"
)

func TestClassifyHour(t *testing.T) {
	tests := []struct {
		hour int
		want TariffPeriod
	}{
		{2, PeriodOffPeak},
		{0, PeriodOffPeak},
		{7, PeriodOffPeak},
		{8, PeriodStandard},
		{9, PeriodStandard},
		{10, PeriodPeak},
		{13, PeriodPeak},
		{14, PeriodStandard},
		{17, PeriodStandard},
		{18, PeriodPeak},
		{21, PeriodPeak},
		{22, PeriodStandard},
		{23, PeriodStandard},
	}

	for _, tt := range tests {
		got, err := ClassifyHour(tt.hour)
		if err != nil {
			t.Errorf("ClassifyHour(%d): unexpected error: %v", tt.hour, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ClassifyHour(%d) = %s, want %s", tt.hour, got, tt.want)
		}
	}
}

func TestClassifyHourInvalid(t *testing.T) {
	for _, hour := range []int{-1, 24, 100} {
		if _, err := ClassifyHour(hour); err == nil {
			t.Errorf("ClassifyHour(%d): expected error", hour)
		}
	}
}

// The three bands must partition all 24 hours with no gaps or overlaps.
func TestTariffPartitionComplete(t *testing.T) {
	counts := map[TariffPeriod]int{}
	for h := 0; h < 24; h++ {
		period, err := ClassifyHour(h)
		if err != nil {
			t.Fatalf("ClassifyHour(%d): %v", h, err)
		}
		switch period {
		case PeriodPeak, PeriodStandard, PeriodOffPeak:
			counts[period]++
		default:
			t.Fatalf("ClassifyHour(%d) returned unknown period %q", h, period)
		}
	}

	if counts[PeriodOffPeak] != 8 {
		t.Errorf("off-peak covers %d hours, want 8", counts[PeriodOffPeak])
	}
	if counts[PeriodPeak] != 8 {
		t.Errorf("peak covers %d hours, want 8", counts[PeriodPeak])
	}
	if counts[PeriodStandard] != 8 {
		t.Errorf("standard covers %d hours, want 8", counts[PeriodStandard])
	}
}

func TestClassifyTimeUsesLocalHour(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	// 09:00 in UTC+2 is 07:00 UTC; classification must follow the
	// timestamp's own clock, not UTC.
	ts := time.Date(2025, 6, 1, 9, 0, 0, 0, loc)
	if got := ClassifyTime(ts); got != PeriodStandard {
		t.Errorf("ClassifyTime(09:00+02:00) = %s, want %s", got, PeriodStandard)
	}
}
