package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriod_StartClampsMonthEnds(t *testing.T) {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name   string
		period Period
		now    time.Time
		want   time.Time
	}{
		{"month from Mar 31", PeriodMonth, date(2025, 3, 31), date(2025, 2, 28)},
		{"month from Mar 30 leap", PeriodMonth, date(2024, 3, 30), date(2024, 2, 29)},
		{"month mid", PeriodMonth, time.Date(2025, 3, 20, 18, 0, 0, 0, time.UTC), date(2025, 2, 20)},
		{"quarter from May 31", PeriodQuarter, date(2025, 5, 31), date(2025, 2, 28)},
		{"quarter from Dec 31", PeriodQuarter, date(2025, 12, 31), date(2025, 9, 30)},
		{"quarter across year", PeriodQuarter, date(2025, 1, 29), date(2024, 10, 29)},
		{"year from leap day", PeriodYear, date(2024, 2, 29), date(2023, 2, 28)},
		{"week", PeriodWeek, date(2025, 3, 3), date(2025, 2, 24)},
		{"day", PeriodDay, date(2025, 3, 1), date(2025, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.period.Start(tt.now))
		})
	}
}
