package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"INR", true},
		{"USD", true},
		{"usd", true},
		{" eur ", true},
		{"JPY", true},
		{"US", false},
		{"RUPEES", false},
		{"₹", false},
		{"12A", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValid(tt.code))
		})
	}
}

func TestGetInfo(t *testing.T) {
	info, ok := GetInfo(INR)
	assert.True(t, ok)
	assert.Equal(t, "₹", info.Symbol)
	assert.Equal(t, 2, info.DecimalPlaces)

	_, ok = GetInfo(Currency("XXX"))
	assert.False(t, ok)
}

func TestFromSymbol(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want Currency
	}{
		{"₹1,499", INR},
		{"$19.99", USD},
		{"US$ 5", USD},
		{"€12", INR},
		{"1499", INR},
		{"", INR},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FromSymbol(tt.text))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, USD, Normalize("usd"))
	assert.Equal(t, GBP, Normalize("GBP"))
	assert.Equal(t, Currency("JPY"), Normalize(" jpy "))
	assert.Equal(t, INR, Normalize("Rupees"))
	assert.Equal(t, INR, Normalize(""))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		amount decimal.Decimal
		code   string
		want   string
	}{
		{"rupee", decimal.NewFromFloat(1499), "INR", "₹1499.00"},
		{"dollar rounds", decimal.NewFromFloat(19.999), "USD", "$20.00"},
		{"unknown code", decimal.NewFromFloat(5), "JPY", "5.00 JPY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.amount, tt.code))
		})
	}
}
