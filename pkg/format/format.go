package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout     = "2006-01-02"
	DayLabel       = "Jan 2"
	WeekLabel      = "Week of Jan 2"
	MonthLabel     = "Jan 2006"
	DisplayDate    = "Jan 2, 2006"
	CurrencySymbol = "$"
)

// Currency renders amount with two decimals, thousands separators and the
// currency symbol, e.g. -1234.5 -> "-$1,234.50".
func Currency(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	whole, frac, _ := strings.Cut(rounded.Abs().StringFixed(2), ".")

	var b strings.Builder
	if rounded.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(CurrencySymbol)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func Percentage(p decimal.Decimal) string {
	return p.StringFixed(1) + "%"
}

func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayDate)
}

func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}
