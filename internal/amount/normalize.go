// Package amount resolves locale-ambiguous numeric strings into exact
// decimal values. French invoices write 1059,61 where English ones write
// 1,059.61; resolution is a fixed decision table, not a heuristic.
package amount

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/selectt/autofacture-extractor/internal/common"
)

// Normalize converts a raw numeric string containing digits and the two
// separator glyphs (comma, period) into an exact decimal. The decision
// table, applied in order:
//
//  1. one glyph type, every group after the first has exactly 3 digits
//     -> thousands separator, strip it
//  2. one glyph type, single occurrence followed by 1-2 trailing digits
//     -> decimal separator
//  3. both glyph types -> the rightmost glyph is the decimal separator,
//     the other is stripped
//  4. no separator -> already canonical
//
// Anything else (multiple decimal glyphs, residual non-digits, grouping
// that fits no case) is an AmountParseError rather than a guess.
func Normalize(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, &common.AmountParseError{Input: raw, Reason: "empty"}
	}

	commas := strings.Count(s, ",")
	periods := strings.Count(s, ".")

	var canonical string
	switch {
	case commas > 0 && periods > 0:
		var dec, thous string
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			dec, thous = ",", "."
		} else {
			dec, thous = ".", ","
		}
		if strings.Count(s, dec) > 1 {
			return decimal.Decimal{}, &common.AmountParseError{Input: raw, Reason: "multiple decimal separators"}
		}
		canonical = strings.ReplaceAll(s, thous, "")
		canonical = strings.Replace(canonical, dec, ".", 1)
	case commas > 0:
		c, err := resolveSingleGlyph(raw, s, ",")
		if err != nil {
			return decimal.Decimal{}, err
		}
		canonical = c
	case periods > 0:
		c, err := resolveSingleGlyph(raw, s, ".")
		if err != nil {
			return decimal.Decimal{}, err
		}
		canonical = c
	default:
		canonical = s
	}

	if !digitsWithOptionalPoint(canonical) {
		return decimal.Decimal{}, &common.AmountParseError{Input: raw, Reason: "non-numeric residue"}
	}
	d, err := decimal.NewFromString(canonical)
	if err != nil {
		return decimal.Decimal{}, &common.AmountParseError{Input: raw, Reason: err.Error()}
	}
	return d, nil
}

// resolveSingleGlyph handles strings with exactly one separator glyph type.
func resolveSingleGlyph(raw, s, glyph string) (string, error) {
	parts := strings.Split(s, glyph)
	for _, p := range parts {
		if p == "" || !allDigits(p) {
			return "", &common.AmountParseError{Input: raw, Reason: "non-numeric residue"}
		}
	}

	// Case 1: thousands grouping. Every group after the first is exactly 3 digits.
	grouped := true
	for _, p := range parts[1:] {
		if len(p) != 3 {
			grouped = false
			break
		}
	}
	if grouped {
		return strings.Join(parts, ""), nil
	}

	// Case 2: single occurrence with a 1-2 digit trailing group is a decimal separator.
	if len(parts) == 2 && len(parts[1]) >= 1 && len(parts[1]) <= 2 {
		return parts[0] + "." + parts[1], nil
	}

	return "", &common.AmountParseError{Input: raw, Reason: "separator layout not covered by decision table"}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func digitsWithOptionalPoint(s string) bool {
	intPart, fracPart, found := strings.Cut(s, ".")
	if !allDigits(intPart) {
		return false
	}
	if found && !allDigits(fracPart) {
		return false
	}
	return true
}
