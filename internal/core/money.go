// Package core provides the finance domain model.
//
// This file contains the amount codec used by the record files: amounts
// are plain floating-point decimals, written in the shortest form that
// parses back to the same value. Plain notation always carries a
// fractional part; very large or very small magnitudes switch to exponent
// notation with a signed, two-digit-minimum exponent. Files written by
// older versions of the app use the same rendering.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts a decimal string into a float64.
//
// Surrounding whitespace is ignored. No range check is applied: negative
// and non-finite values parse the same way they are stored.
//
// Examples:
//
//	ParseAmount("100.0")  -> 100, nil
//	ParseAmount(" 30.5 ") -> 30.5, nil
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// Decimal exponents outside [minPlainExp, maxPlainExp) use exponent form.
const (
	minPlainExp = -4
	maxPlainExp = 16
)

// FormatAmount renders v for storage: "100.0", "30.5", "0.1", "1e+16",
// "1.5e-05".
func FormatAmount(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if v != 0 {
		e := strconv.FormatFloat(v, 'e', -1, 64)
		exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
		if exp < minPlainExp || exp >= maxPlainExp {
			return e
		}
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatDisplay renders v with two decimals for pages.
func FormatDisplay(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
