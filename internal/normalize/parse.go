package normalize

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	errMissing   = errors.New("empty value")
	errNotFinite = errors.New("not a finite number")
)

func clean(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s, pct := strings.CutSuffix(s, "%")
	return strings.TrimSpace(s), pct
}

func parseFloat(s string) (float64, error) {
	v, _ := clean(s)
	if v == "" {
		return 0, errMissing
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

// parseFraction reads a coverage ratio given either as a fraction (0.85) or
// as a percentage ("85%" or 85). A bare value above 1 is taken as a
// percentage, so 1% must be written "1%": a bare "1" means full coverage.
func parseFraction(s string) (float64, error) {
	v, pct := clean(s)
	if v == "" {
		return 0, errMissing
	}
	f, err := parseFloat(v)
	if err != nil {
		return 0, err
	}
	if pct || f > 1 {
		f /= 100
	}
	return f, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	v, _ := clean(s)
	if v == "" {
		return decimal.Zero, errMissing
	}
	return decimal.NewFromString(v)
}

// parseOptionalDecimal returns an invalid NullDecimal for blank input.
func parseOptionalDecimal(s string) (decimal.NullDecimal, error) {
	v, _ := clean(s)
	if v == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// parseTermYears understands "1 year", "3 Years", "3", "1yr" and the Cost
// Explorer enums ONE_YEAR and THREE_YEARS.
func parseTermYears(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "ONE"):
		return 1, true
	case strings.HasPrefix(s, "THREE"):
		return 3, true
	}
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end < 0 {
		end = len(s)
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
