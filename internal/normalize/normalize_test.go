package normalize_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrecon/internal/normalize"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"12,5", "12.50"},
		{" 7,00 ", "7.00"},
		{"19.99", "19.99"},
		{"-3,10", "-3.10"},
		{"0", "0.00"},
		{"12.345.678,9", "12345678.90"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalize.Amount(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmountRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "12,34 EUR", "MwSt."} {
		_, err := normalize.Amount(in)
		assert.ErrorIs(t, err, normalize.ErrInvalidAmount, in)
	}
}

func TestSumAndEqual(t *testing.T) {
	sum, err := normalize.Sum("10.10", "5.05", "0.01")
	require.NoError(t, err)
	assert.Equal(t, "15.16", sum)

	assert.True(t, normalize.Equal("15.10", "15.1"))
	assert.False(t, normalize.Equal("15.10", "15.11"))
	assert.False(t, normalize.Equal("keine Angabe", "keine Angabe"))

	_, err = normalize.Sum("1.00", "x")
	assert.ErrorIs(t, err, normalize.ErrInvalidAmount)
}

func TestDate(t *testing.T) {
	got, err := normalize.Date("10.01.2023")
	require.NoError(t, err)
	assert.Equal(t, "2023-01-10", got)

	got, err = normalize.Date("2023-01-10")
	require.NoError(t, err)
	assert.Equal(t, "2023-01-10", got)

	got, err = normalize.Date("1.2.2023")
	require.NoError(t, err)
	assert.Equal(t, "2023-02-01", got)

	_, err = normalize.Date("31/01/2023")
	assert.ErrorIs(t, err, normalize.ErrInvalidDate)

	german, err := normalize.GermanDate("2023-02-01")
	require.NoError(t, err)
	assert.Equal(t, "01.02.2023", german)
}

func TestWithinDaysBoundary(t *testing.T) {
	base := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)

	assert.True(t, normalize.WithinDays(base, base, 1))
	assert.True(t, normalize.WithinDays(base, base.AddDate(0, 0, 1), 1))
	assert.False(t, normalize.WithinDays(base, base.AddDate(0, 0, 2), 1))
	assert.False(t, normalize.WithinDays(base, base.AddDate(0, 0, -1), 1))
}
