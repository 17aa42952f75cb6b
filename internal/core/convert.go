package core

// convert.go provides type conversion functions from bronze cells to silver values.
//
// Bronze data arrives as text (CSV cells, XLSX cells or columns cast to text by
// the database source), so these functions deal with the usual mess:
//   - Multiple date and timestamp layouts
//   - Currency symbols and thousand separators in amounts
//   - Accounting negatives "(123.45)"
//   - Integer-encoded dates (20230115)
//
// Parsers never fail: a value that cannot be read becomes NULL (Valid=false),
// which is the fallback every cleaning rule defines for malformed input.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// numericRegex validates that a string is a plain decimal after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// dateIntLayout is the layout of integer-encoded dates such as 20230115.
const dateIntLayout = "20060102"

var (
	dateLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006",
		"Jan 2, 2006", "2 Jan 2006",
		dateIntLayout,
	}
	timestampLayouts = []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02 15:04:05-07",
		"1/2/2006 15:04",
		"1/2/2006 15:04:05",
	}
)

// Cell returns the value of col in row, or NULL when the column is absent
// from the header or the row is short.
func Cell(row RawRow, idx HeaderIndex, col string) pgtype.Text {
	i, ok := idx[strings.ToLower(col)]
	if !ok || i < 0 || i >= len(row) {
		return pgtype.Text{}
	}
	return row[i]
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// RawText converts a string to pgtype.Text without trimming.
// Only the empty string is NULL; whitespace survives for the cleaning rules.
func RawText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// TrimText trims surrounding whitespace and keeps NULL as NULL.
func TrimText(t pgtype.Text) pgtype.Text {
	if !t.Valid {
		return t
	}
	return pgtype.Text{String: strings.TrimSpace(t.String), Valid: true}
}

// NormalizeCode upper-cases and trims a code value for matching.
// NULL becomes "".
func NormalizeCode(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(t.String))
}

// ParseInt converts a cell to pgtype.Int8.
// Accepts a trailing ".0" as written by spreadsheet exports.
func ParseInt(t pgtype.Text) pgtype.Int8 {
	if !t.Valid {
		return pgtype.Int8{}
	}
	s := strings.TrimSpace(t.String)
	s = strings.TrimSuffix(s, ".0")
	if s == "" {
		return pgtype.Int8{}
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: i, Valid: true}
}

// ParseDecimal converts a cell to a decimal.
// Handles currency symbols, thousands separators, and accounting format (parentheses for negative).
func ParseDecimal(t pgtype.Text) decimal.NullDecimal {
	if !t.Valid {
		return decimal.NullDecimal{}
	}
	s := strings.TrimSpace(t.String)
	if s == "" {
		return decimal.NullDecimal{}
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// ToPgDate converts a cell to pgtype.Date.
// Timestamps are accepted and truncated to their date.
func ToPgDate(t pgtype.Text) pgtype.Date {
	if !t.Valid {
		return pgtype.Date{}
	}
	s := strings.TrimSpace(t.String)
	if s == "" {
		return pgtype.Date{}
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return pgtype.Date{Time: dateOnly(parsed), Valid: true}
		}
	}
	if ts := ToPgTimestamp(t); ts.Valid {
		return pgtype.Date{Time: dateOnly(ts.Time), Valid: true}
	}

	return pgtype.Date{}
}

// ToPgTimestamp converts a cell to pgtype.Timestamp.
// Plain dates are accepted and read as midnight.
func ToPgTimestamp(t pgtype.Text) pgtype.Timestamp {
	if !t.Valid {
		return pgtype.Timestamp{}
	}
	s := strings.TrimSpace(t.String)
	if s == "" {
		return pgtype.Timestamp{}
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return pgtype.Timestamp{Time: parsed.UTC(), Valid: true}
		}
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return pgtype.Timestamp{Time: parsed, Valid: true}
		}
	}

	return pgtype.Timestamp{}
}

// DateFromInt converts an integer-encoded date (YYYYMMDD) to pgtype.Date.
//
// The value is valid iff it is positive, renders as exactly 8 digits and the
// digits form a real calendar date. Everything else is NULL: 0, 202301150,
// 20231399 and 20230229 all yield an invalid date.
func DateFromInt(v pgtype.Int8) pgtype.Date {
	if !v.Valid || v.Int64 <= 0 {
		return pgtype.Date{}
	}
	s := strconv.FormatInt(v.Int64, 10)
	if len(s) != len(dateIntLayout) {
		return pgtype.Date{}
	}
	parsed, err := time.Parse(dateIntLayout, s)
	if err != nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: parsed, Valid: true}
}

// ToPgNumeric converts a decimal to pgtype.Numeric without a text round trip.
func ToPgNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// NullToPgNumeric converts a nullable decimal to pgtype.Numeric.
func NullToPgNumeric(d decimal.NullDecimal) pgtype.Numeric {
	if !d.Valid {
		return pgtype.Numeric{}
	}
	return ToPgNumeric(d.Decimal)
}

// ToPgInt4 narrows an Int8 to Int4. Out-of-range values become NULL.
func ToPgInt4(v pgtype.Int8) pgtype.Int4 {
	if !v.Valid || v.Int64 > 1<<31-1 || v.Int64 < -1<<31 {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(v.Int64), Valid: true}
}

// AddDays shifts a valid date by n days. NULL stays NULL.
func AddDays(d pgtype.Date, n int) pgtype.Date {
	if !d.Valid {
		return d
	}
	return pgtype.Date{Time: d.Time.AddDate(0, 0, n), Valid: true}
}

// DateOf returns the calendar date of a timestamp. NULL stays NULL.
func DateOf(ts pgtype.Timestamp) pgtype.Date {
	if !ts.Valid {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: dateOnly(ts.Time), Valid: true}
}

// dateOnly drops the clock part of t in UTC.
func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	y, m, d := u.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Keys are lowercased for case-insensitive matching.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		idx[key] = i
	}
	return idx
}

// Require returns an error naming every column missing from the header.
func (h HeaderIndex) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := h[strings.ToLower(c)]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required column: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CleanCell removes common CSV artifacts from a header or cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}
