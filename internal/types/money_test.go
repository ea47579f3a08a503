package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundAmount(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "half rounds up", value: "2.675", want: "2.68"},
		{name: "below half rounds down", value: "2.674", want: "2.67"},
		{name: "exact value unchanged", value: "19.98", want: "19.98"},
		{name: "pads to two decimals", value: "15", want: "15.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundAmount(decimal.RequireFromString(tt.value))
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	amount := decimal.RequireFromString("34.98")

	assert.Equal(t, "USD 34.98", FormatAmount("USD", amount))
	assert.Equal(t, "Rs 34.98", FormatAmount("Rs", amount))
	assert.Equal(t, "34.98", FormatAmount("", amount))
	assert.Equal(t, "34.98", FormatAmount("  ", amount))
	assert.Equal(t, "USD 0.00", FormatAmount("USD", decimal.Zero))
}
