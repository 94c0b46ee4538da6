package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecimal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"thousands comma with decimal point", "1,234.5", 1234.5},
		{"comma as decimal point", "12,5", 12.5},
		{"european grouping", "1.234,56", 1234.56},
		{"negative loses sign", "-5", 5.0},
		{"currency noise", "UF 350,75", 350.75},
		{"repeated grouping", "1.000.000", 1000000},
		{"empty", "", 0.0},
		{"garbage", "sin monto", 0.0},
		{"lone separator", ".", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Decimal(tt.in), 1e-9)
		})
	}
}

func TestDecimalClampsToMax(t *testing.T) {
	assert.Equal(t, MaxAmount, Decimal("99999999999999999999999"))

	r := DecimalRule{Max: 100, Default: -1}
	assert.Equal(t, 100.0, r.Parse("250"))
	assert.Equal(t, -1.0, r.Parse("n/a"))
}

func TestDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-09-01", "2024-09-01"},
		{"01/09/2024", "2024-09-01"},
		{"2024/09/01", "2024-09-01"},
		{"01-09-2024", "2024-09-01"},
		{"1/9/2024", "2024-09-01"},
		{"1 de septiembre de 2024", "2024-09-01"},
		{"15 de Marzo de 2023", "2023-03-15"},
		{"  3  DE  DICIEMBRE  DE 2025 ", "2025-12-03"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Date(tt.in)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateRejectsUnknownInput(t *testing.T) {
	for _, in := range []string{"", "mañana", "1 de brumario de 2024", "31 de febrero de 2024", "2024-13-01"} {
		_, ok := Date(in)
		assert.False(t, ok, in)
	}
}

func TestAmount(t *testing.T) {
	v, ok := Amount("UF 12,5")
	assert.True(t, ok)
	assert.InDelta(t, 12.5, v, 1e-9)

	v, ok = Amount("100 UF por día")
	assert.True(t, ok)
	assert.InDelta(t, 100.0, v, 1e-9)

	_, ok = Amount("a convenir")
	assert.False(t, ok)
}
