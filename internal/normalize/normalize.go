// Package normalize turns heterogeneous date and amount text from statement
// imports and bank feeds into the canonical forms stored in the ledger:
// calendar days at UTC midnight and signed amounts in cents.
package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel parse failures, used for per-row error tagging by the ingestion
// pipeline.
var (
	ErrInvalidDate   = errors.New("could not parse date")
	ErrInvalidAmount = errors.New("invalid amount")
)

// fallbackLayouts are tried, in order, for free-text dates that match none
// of the structured formats.
var fallbackLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"2006/01/02",
	"02 January 2006",
}

// Date parses a raw date string into a calendar day (UTC midnight).
//
// Accepted forms: ISO (YYYY-MM-DD), slash-delimited M/D/YYYY or M/D/YY
// (two-digit years >50 are 19xx, <=50 are 20xx), month/day-only (assumes
// the current year), dash- or dot-delimited variants of the same, and a
// small set of free-text fallbacks. Unparseable input returns
// ErrInvalidDate.
func Date(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Day(t), nil
	}

	// Dash and dot delimited variants are handled by the slash path.
	normalized := strings.NewReplacer("-", "/", ".", "/").Replace(s)
	if t, ok := parseSlashDate(normalized); ok {
		return t, nil
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// parseSlashDate handles M/D/YYYY, M/D/YY, and month/day-only forms.
func parseSlashDate(s string) (time.Time, bool) {
	parts := strings.Split(s, "/")

	var month, day, year int
	switch len(parts) {
	case 3:
		m, errM := strconv.Atoi(parts[0])
		d, errD := strconv.Atoi(parts[1])
		y, errY := strconv.Atoi(parts[2])
		if errM != nil || errD != nil || errY != nil {
			return time.Time{}, false
		}
		month, day, year = m, d, y
		if len(parts[2]) <= 2 {
			if year > 50 {
				year += 1900
			} else {
				year += 2000
			}
		}
	case 2:
		m, errM := strconv.Atoi(parts[0])
		d, errD := strconv.Atoi(parts[1])
		if errM != nil || errD != nil {
			return time.Time{}, false
		}
		month, day = m, d
		year = time.Now().UTC().Year()
	default:
		return time.Time{}, false
	}

	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1000 || year > 9999 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject overflowed days such as 2/30.
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return t, true
}

// Day truncates a time to its calendar day at UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayString formats a calendar day in the canonical YYYY-MM-DD form used
// for fingerprints and dedup keys.
func DayString(t time.Time) string {
	return t.Format("2006-01-02")
}

// amountCleaner strips currency symbols and thousands separators.
var amountCleaner = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "", ",", "", " ", "",
)

// Amount parses a raw amount string into signed cents. Currency symbols
// and thousands separators are stripped; anything that still fails to
// parse returns ErrInvalidAmount.
func Amount(raw string) (int64, error) {
	s := amountCleaner.Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// Cents converts a float amount in major units (the bank-feed wire format)
// to cents without accumulating float error.
func Cents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// SignConvention describes how a source encodes expense amounts.
type SignConvention string

const (
	// SignNegativeExpense sources already use the ledger convention:
	// negative = money out. Amounts are stored as-is.
	SignNegativeExpense SignConvention = "negative_expense"
	// SignPositiveExpense sources report expenses as positive values (the
	// bank-sync provider's native convention). Amounts are negated before
	// storage.
	SignPositiveExpense SignConvention = "positive_expense"
)

// Valid reports whether the convention is a known value.
func (c SignConvention) Valid() bool {
	return c == SignNegativeExpense || c == SignPositiveExpense
}

// Apply converts a source amount in cents to the ledger convention.
func (c SignConvention) Apply(cents int64) int64 {
	if c == SignPositiveExpense {
		return -cents
	}
	return cents
}
