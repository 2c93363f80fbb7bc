package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"120", "$120.00"},
		{"1234.5", "$1,234.50"},
		{"1000000", "$1,000,000.00"},
		{"-630", "-$630.00"},
		{"999.999", "$1,000.00"},
		{"-0.004", "$0.00"},
		{"-0.005", "-$0.01"},
		{"-999.999", "-$1,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Currency(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "100.0%", Percentage(decimal.NewFromInt(100)))
	assert.Equal(t, "33.3%", Percentage(decimal.RequireFromString("33.333")))
}

func TestDate(t *testing.T) {
	assert.Equal(t, "", Date(time.Time{}))
	assert.Equal(t, "Mar 15, 2025", Date(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)))

	parsed, err := ParseDate(" 2025-03-15 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), parsed)

	_, err = ParseDate("15/03/2025")
	assert.Error(t, err)
}
