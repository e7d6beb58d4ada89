package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	moneyCleanRe = regexp.MustCompile(`[^0-9.\-]`)
	currencyRe   = regexp.MustCompile(`(?i)\b(USD|EUR|GBP|NGN|KES|ZAR|GHS|INR|CAD|AUD)\b`)
)

var currencySymbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"₦": "NGN",
	"₹": "INR",
}

// CleanText trims and collapses internal whitespace
func CleanText(s string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// CleanRef normalizes a reference for matching: cleaned and uppercased
func CleanRef(s string) string {
	return strings.ToUpper(CleanText(s))
}

// ParseMoney parses an amount cell, stripping currency symbols and
// thousands separators before the decimal conversion.
func ParseMoney(s string) (decimal.Decimal, error) {
	cleaned := moneyCleanRe.ReplaceAllString(strings.TrimSpace(s), "")
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return decimal.Zero, fmt.Errorf("no numeric value in %q", s)
	}
	// "1.234.56" style artifacts from stripped separators: keep the
	// last dot as the decimal point.
	if strings.Count(cleaned, ".") > 1 {
		last := strings.LastIndex(cleaned, ".")
		cleaned = strings.ReplaceAll(cleaned[:last], ".", "") + cleaned[last:]
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return amount, nil
}

// NormalizeCurrency extracts a known currency code from a cell. Codes
// win over symbols; unknown values return the cleaned uppercase input.
func NormalizeCurrency(s string) string {
	cleaned := CleanText(s)
	if cleaned == "" {
		return ""
	}
	if match := currencyRe.FindString(cleaned); match != "" {
		return strings.ToUpper(match)
	}
	for symbol, code := range currencySymbols {
		if strings.Contains(cleaned, symbol) {
			return code
		}
	}
	return strings.ToUpper(cleaned)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02.01.2006",
	time.RFC3339,
}

// ParseFlexibleDate parses the date formats seen in real invoice and
// bank exports. Spreadsheet serial numbers are recognized as days
// since the 1899-12-30 epoch. Day-first layouts are tried before
// month-first, so ambiguous slash dates resolve day-first.
func ParseFlexibleDate(s string) (time.Time, error) {
	cleaned := CleanText(s)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if serial, err := strconv.ParseFloat(cleaned, 64); err == nil && serial > 59 && serial < 200000 {
		epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
		return epoch.AddDate(0, 0, int(serial)), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}

// DaysBetween returns the whole-day difference b minus a, ignoring the
// time-of-day component.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
