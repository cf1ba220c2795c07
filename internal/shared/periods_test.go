package shared

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthProgress(t *testing.T) {
	day, days := MonthProgress(date(2025, time.June, 28))
	if day != 28 || days != 30 {
		t.Fatalf("expected 28/30 got %d/%d", day, days)
	}
	day, days = MonthProgress(date(2024, time.February, 5))
	if day != 5 || days != 29 {
		t.Fatalf("expected 5/29 got %d/%d", day, days)
	}
}

func TestSameDayMonthsAgoClampsMonthEnd(t *testing.T) {
	got := SameDayMonthsAgo(date(2025, time.March, 31), 1)
	if !got.Equal(date(2025, time.February, 28)) {
		t.Fatalf("expected 2025-02-28 got %s", got.Format("2006-01-02"))
	}
	got = SameDayMonthsAgo(date(2025, time.January, 15), 1)
	if !got.Equal(date(2024, time.December, 15)) {
		t.Fatalf("expected 2024-12-15 got %s", got.Format("2006-01-02"))
	}
}

func TestSameDayYearsAgoLeapDay(t *testing.T) {
	got := SameDayYearsAgo(date(2024, time.February, 29), 1)
	if !got.Equal(date(2023, time.February, 28)) {
		t.Fatalf("expected 2023-02-28 got %s", got.Format("2006-01-02"))
	}
}

func TestPeriodKey(t *testing.T) {
	if key := PeriodKey(date(2025, time.June, 28)); key != "202506" {
		t.Fatalf("expected 202506 got %s", key)
	}
}
