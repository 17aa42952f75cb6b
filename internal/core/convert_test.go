package core

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}

var null = pgtype.Text{}

// ----------------------------------------------------------------------------
// ParseDecimal Tests
// ----------------------------------------------------------------------------

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name      string
		input     pgtype.Text
		wantValid bool
		wantValue string
	}{
		{name: "null", input: null, wantValid: false},
		{name: "empty", input: text(""), wantValid: false},
		{name: "whitespace", input: text("   "), wantValid: false},
		{name: "positive integer", input: text("123"), wantValid: true, wantValue: "123"},
		{name: "zero", input: text("0"), wantValid: true, wantValue: "0"},
		{name: "negative integer", input: text("-456"), wantValid: true, wantValue: "-456"},
		{name: "decimal number", input: text("123.45"), wantValid: true, wantValue: "123.45"},
		{name: "leading decimal point", input: text(".99"), wantValid: true, wantValue: "0.99"},
		{name: "dollar sign", input: text("$1,234.50"), wantValid: true, wantValue: "1234.5"},
		{name: "euro sign", input: text("€99"), wantValid: true, wantValue: "99"},
		{name: "accounting negative", input: text("(123.45)"), wantValid: true, wantValue: "-123.45"},
		{name: "surrounding spaces", input: text("  42  "), wantValid: true, wantValue: "42"},
		{name: "letters", input: text("abc"), wantValid: false},
		{name: "two points", input: text("1.2.3"), wantValid: false},
		{name: "embedded letter", input: text("12a"), wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDecimal(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ParseDecimal(%q).Valid = %v, want %v", tt.input.String, got.Valid, tt.wantValid)
			}
			if tt.wantValid && got.Decimal.String() != tt.wantValue {
				t.Errorf("ParseDecimal(%q) = %s, want %s", tt.input.String, got.Decimal.String(), tt.wantValue)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseInt Tests
// ----------------------------------------------------------------------------

func TestParseInt(t *testing.T) {
	tests := []struct {
		name      string
		input     pgtype.Text
		wantValid bool
		want      int64
	}{
		{name: "null", input: null},
		{name: "empty", input: text("")},
		{name: "plain", input: text("11000"), wantValid: true, want: 11000},
		{name: "padded", input: text(" 7 "), wantValid: true, want: 7},
		{name: "negative", input: text("-3"), wantValid: true, want: -3},
		{name: "spreadsheet float", input: text("20230115.0"), wantValid: true, want: 20230115},
		{name: "fraction", input: text("1.5")},
		{name: "text", input: text("n/a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseInt(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ParseInt(%q).Valid = %v, want %v", tt.input.String, got.Valid, tt.wantValid)
			}
			if got.Int64 != tt.want {
				t.Errorf("ParseInt(%q) = %d, want %d", tt.input.String, got.Int64, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// DateFromInt Tests
// ----------------------------------------------------------------------------

func TestDateFromInt(t *testing.T) {
	tests := []struct {
		name      string
		input     pgtype.Int8
		wantValid bool
		wantDate  string
	}{
		{name: "null", input: pgtype.Int8{}},
		{name: "zero", input: pgtype.Int8{Int64: 0, Valid: true}},
		{name: "negative", input: pgtype.Int8{Int64: -20230115, Valid: true}},
		{name: "nine digits", input: pgtype.Int8{Int64: 202301150, Valid: true}},
		{name: "seven digits", input: pgtype.Int8{Int64: 2023011, Valid: true}},
		{name: "not a leap year", input: pgtype.Int8{Int64: 20230229, Valid: true}},
		{name: "leap year", input: pgtype.Int8{Int64: 20240229, Valid: true}, wantValid: true, wantDate: "2024-02-29"},
		{name: "month 13", input: pgtype.Int8{Int64: 20231301, Valid: true}},
		{name: "day 32", input: pgtype.Int8{Int64: 20230132, Valid: true}},
		{name: "ordinary", input: pgtype.Int8{Int64: 20101229, Valid: true}, wantValid: true, wantDate: "2010-12-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DateFromInt(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("DateFromInt(%d).Valid = %v, want %v", tt.input.Int64, got.Valid, tt.wantValid)
			}
			if tt.wantValid {
				if s := got.Time.Format("2006-01-02"); s != tt.wantDate {
					t.Errorf("DateFromInt(%d) = %s, want %s", tt.input.Int64, s, tt.wantDate)
				}
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgDate / ToPgTimestamp Tests
// ----------------------------------------------------------------------------

func TestToPgDate(t *testing.T) {
	tests := []struct {
		name      string
		input     pgtype.Text
		wantValid bool
		wantDate  string
	}{
		{name: "null", input: null},
		{name: "empty", input: text(" ")},
		{name: "ISO", input: text("2021-01-01"), wantValid: true, wantDate: "2021-01-01"},
		{name: "US", input: text("3/15/2024"), wantValid: true, wantDate: "2024-03-15"},
		{name: "month name", input: text("Jan 15, 2024"), wantValid: true, wantDate: "2024-01-15"},
		{name: "timestamp truncated", input: text("2012-07-01 13:45:00"), wantValid: true, wantDate: "2012-07-01"},
		{name: "garbage", input: text("yesterday")},
		{name: "impossible", input: text("2023-02-30")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgDate(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgDate(%q).Valid = %v, want %v", tt.input.String, got.Valid, tt.wantValid)
			}
			if tt.wantValid {
				if s := got.Time.Format("2006-01-02"); s != tt.wantDate {
					t.Errorf("ToPgDate(%q) = %s, want %s", tt.input.String, s, tt.wantDate)
				}
			}
		})
	}
}

func TestToPgTimestamp(t *testing.T) {
	tests := []struct {
		name      string
		input     pgtype.Text
		wantValid bool
		want      time.Time
	}{
		{name: "null", input: null},
		{name: "postgres text", input: text("2025-10-06 08:30:00"), wantValid: true,
			want: time.Date(2025, 10, 6, 8, 30, 0, 0, time.UTC)},
		{name: "ISO T", input: text("2025-10-06T08:30:00"), wantValid: true,
			want: time.Date(2025, 10, 6, 8, 30, 0, 0, time.UTC)},
		{name: "date only", input: text("2025-10-06"), wantValid: true,
			want: time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", input: text("not a date")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgTimestamp(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgTimestamp(%q).Valid = %v, want %v", tt.input.String, got.Valid, tt.wantValid)
			}
			if tt.wantValid && !got.Time.Equal(tt.want) {
				t.Errorf("ToPgTimestamp(%q) = %v, want %v", tt.input.String, got.Time, tt.want)
			}
		})
	}
}

func TestAddDays(t *testing.T) {
	start := ToPgDate(text("2021-06-01"))
	got := AddDays(start, -1)
	if s := got.Time.Format("2006-01-02"); s != "2021-05-31" {
		t.Errorf("AddDays(2021-06-01, -1) = %s, want 2021-05-31", s)
	}
	if AddDays(pgtype.Date{}, -1).Valid {
		t.Error("AddDays(NULL) should stay NULL")
	}
}

// ----------------------------------------------------------------------------
// Text Tests
// ----------------------------------------------------------------------------

func TestToPgText(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		want      string
	}{
		{input: "", wantValid: false},
		{input: "   ", wantValid: false},
		{input: "  Jon ", wantValid: true, want: "Jon"},
	}

	for _, tt := range tests {
		got := ToPgText(tt.input)
		if got.Valid != tt.wantValid || got.String != tt.want {
			t.Errorf("ToPgText(%q) = %+v, want {%q %v}", tt.input, got, tt.want, tt.wantValid)
		}
	}
}

func TestRawText(t *testing.T) {
	if RawText("").Valid {
		t.Error("RawText(\"\") should be NULL")
	}
	got := RawText("  Jon ")
	if !got.Valid || got.String != "  Jon " {
		t.Errorf("RawText kept %q, want untrimmed value", got.String)
	}
}

func TestTrimText(t *testing.T) {
	if TrimText(null).Valid {
		t.Error("TrimText(NULL) should stay NULL")
	}
	if got := TrimText(text("  Jon  ")); got.String != "Jon" {
		t.Errorf("TrimText = %q, want %q", got.String, "Jon")
	}
	if got := TrimText(text("   ")); !got.Valid || got.String != "" {
		t.Errorf("TrimText(blank) = %+v, want valid empty string", got)
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		input pgtype.Text
		want  string
	}{
		{input: null, want: ""},
		{input: text(" m "), want: "M"},
		{input: text("Female"), want: "FEMALE"},
	}
	for _, tt := range tests {
		if got := NormalizeCode(tt.input); got != tt.want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", tt.input.String, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// Numeric conversion Tests
// ----------------------------------------------------------------------------

func TestToPgNumeric(t *testing.T) {
	d := ParseDecimal(text("-12.50")).Decimal
	n := ToPgNumeric(d)
	if !n.Valid {
		t.Fatal("ToPgNumeric should be valid")
	}
	f, err := n.Float64Value()
	if err != nil {
		t.Fatalf("Float64Value: %v", err)
	}
	if f.Float64 != -12.5 {
		t.Errorf("ToPgNumeric(-12.50) = %v, want -12.5", f.Float64)
	}

	if NullToPgNumeric(ParseDecimal(null)).Valid {
		t.Error("NullToPgNumeric(NULL) should be NULL")
	}
}

func TestToPgInt4(t *testing.T) {
	if got := ToPgInt4(pgtype.Int8{Int64: 42, Valid: true}); !got.Valid || got.Int32 != 42 {
		t.Errorf("ToPgInt4(42) = %+v", got)
	}
	if ToPgInt4(pgtype.Int8{Int64: 1 << 40, Valid: true}).Valid {
		t.Error("ToPgInt4 overflow should be NULL")
	}
}

// ----------------------------------------------------------------------------
// Header Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "  cst_id  ", want: "cst_id"},
		{input: `="00123"`, want: "00123"},
		{input: "=SUM", want: "SUM"},
		{input: `"quoted"`, want: "quoted"},
		{input: "'single'", want: "single"},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.input); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMakeHeaderIndex(t *testing.T) {
	idx := MakeHeaderIndex([]string{"CST_ID", " cst_key ", `"cst_firstname"`})

	want := map[string]int{"cst_id": 0, "cst_key": 1, "cst_firstname": 2}
	for k, v := range want {
		if got, ok := idx[k]; !ok || got != v {
			t.Errorf("idx[%q] = %d, %v; want %d", k, got, ok, v)
		}
	}
}

func TestHeaderIndexRequire(t *testing.T) {
	idx := MakeHeaderIndex([]string{"cid", "cntry"})

	if err := idx.Require("CID", "cntry"); err != nil {
		t.Errorf("Require() unexpected error: %v", err)
	}

	err := idx.Require("cid", "bdate", "gen")
	if err == nil {
		t.Fatal("Require() expected error for missing columns")
	}
	if got := err.Error(); got != "missing required column: bdate, gen" {
		t.Errorf("Require() error = %q", got)
	}
}

func TestCell(t *testing.T) {
	idx := MakeHeaderIndex([]string{"a", "b", "c"})
	row := RawRow{text("1"), null}

	if got := Cell(row, idx, "A"); got.String != "1" {
		t.Errorf("Cell(a) = %q, want 1", got.String)
	}
	if Cell(row, idx, "b").Valid {
		t.Error("Cell(b) should be NULL")
	}
	if Cell(row, idx, "c").Valid {
		t.Error("Cell(c) on a short row should be NULL")
	}
	if Cell(row, idx, "missing").Valid {
		t.Error("Cell(missing) should be NULL")
	}
}

func TestDateOf(t *testing.T) {
	ts := ToPgTimestamp(text("2025-10-06 23:59:59"))
	if got := DateOf(ts).Time.Format("2006-01-02 15:04"); got != "2025-10-06 00:00" {
		t.Errorf("DateOf() = %s, want 2025-10-06 00:00", got)
	}
	if DateOf(ToPgTimestamp(null)).Valid {
		t.Error("DateOf(NULL) should be NULL")
	}
}
