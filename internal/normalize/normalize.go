// Package normalize converts German locale numbers and dates into the canonical
// forms every other package works with: amounts as strings with exactly two
// fractional digits ("1234.56") and dates as ISO strings ("2023-01-10").
//
// Amounts are handled as shopspring decimals and never as floats, so repeated
// sums over the same records always produce the same strings.
package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ISODate is the canonical date layout.
const ISODate = "2006-01-02"

var (
	// ErrInvalidAmount is returned when a string cannot be read as a number.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidDate is returned when a string matches none of the known date layouts.
	ErrInvalidDate = errors.New("invalid date")
)

var dateLayouts = []string{
	"02.01.2006", // DD.MM.YYYY
	"2.1.2006",   // D.M.YYYY
	ISODate,
}

// Decimal parses a locale formatted number such as "1.234,56" or "12,5".
// Dots are treated as thousands separators only when a comma is present.
func Decimal(s string) (decimal.Decimal, error) {
	const op = "Decimal"

	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%s: empty string: %w", op, ErrInvalidAmount)
	}

	if strings.Contains(cleaned, ".") && strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %q: %w", op, s, ErrInvalidAmount)
	}
	return d, nil
}

// Amount normalizes a locale formatted number to a 2-decimal string.
func Amount(s string) (string, error) {
	d, err := Decimal(s)
	if err != nil {
		return "", err
	}
	return d.StringFixed(2), nil
}

// Format renders a decimal as a 2-decimal string.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Sum adds already normalized amounts.
func Sum(amounts ...string) (string, error) {
	const op = "Sum"

	total := decimal.Zero
	for _, a := range amounts {
		d, err := Decimal(a)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		total = total.Add(d)
	}
	return Format(total), nil
}

// Equal compares two amounts numerically. Unparseable amounts are never equal.
func Equal(a, b string) bool {
	da, err := Decimal(a)
	if err != nil {
		return false
	}
	db, err := Decimal(b)
	if err != nil {
		return false
	}
	return da.Equal(db)
}

// ParseDate reads a German ("10.01.2023", "1.2.2023") or ISO date.
func ParseDate(s string) (time.Time, error) {
	const op = "ParseDate"

	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("%s: empty string: %w", op, ErrInvalidDate)
	}

	for _, layout := range dateLayouts {
		if date, err := time.Parse(layout, cleaned); err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("%s: %q: %w", op, s, ErrInvalidDate)
}

// Date normalizes a German or ISO date to ISO.
func Date(s string) (string, error) {
	date, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return date.Format(ISODate), nil
}

// GermanDate renders an ISO date as DD.MM.YYYY.
func GermanDate(iso string) (string, error) {
	date, err := time.Parse(ISODate, iso)
	if err != nil {
		return "", fmt.Errorf("GermanDate: %q: %w", iso, ErrInvalidDate)
	}
	return date.Format("02.01.2006"), nil
}

// WithinDays reports whether test lies in the closed interval [base, base+days].
// Only the calendar date of both values is compared.
func WithinDays(base, test time.Time, days int) bool {
	start := truncate(base)
	end := start.AddDate(0, 0, days)
	t := truncate(test)
	return !t.Before(start) && !t.After(end)
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
