// Package utils provides shared helpers for security-code handling and
// Japan Standard Time date arithmetic.
package utils

import (
	"strings"
	"unicode"
)

// NormalizeCode reduces a raw company code from a disclosure feed to the
// canonical 4-character security code. TDnet feeds report 5-digit codes
// (4-digit code + check digit "0"); EDINET uses the same 5-digit form.
// Returns "" when the input has no usable code.
func NormalizeCode(raw string) string {
	code := strings.TrimSpace(raw)
	if len(code) > 4 {
		code = code[:4]
	}
	if code == "" {
		return ""
	}
	return code
}

// ToFeedCode expands a 4-character security code to the 5-digit form the
// TDnet and EDINET APIs key on. Short codes are left-padded with zeros
// before the trailing "0" is appended.
func ToFeedCode(code string) string {
	code = strings.TrimSpace(code)
	for len(code) < 4 {
		code = "0" + code
	}
	return code + "0"
}

// IsSecurityCode reports whether s looks like a plain 4-digit security
// code, as opposed to a company-name query.
func IsSecurityCode(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ToYahooTicker converts a security code to the Yahoo Finance symbol for
// Tokyo Stock Exchange listings.
func ToYahooTicker(code string) string {
	if strings.Contains(code, ".") {
		return code
	}
	return code + ".T"
}

// FromYahooTicker strips the exchange suffix from a Yahoo Finance symbol.
func FromYahooTicker(ticker string) string {
	if i := strings.Index(ticker, "."); i > 0 {
		return ticker[:i]
	}
	return ticker
}
