package entities

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestNormalizeCountry(t *testing.T) {
	tests := []struct {
		input pgtype.Text
		want  string
	}{
		{input: pgtype.Text{String: "DE", Valid: true}, want: "Germany"},
		{input: pgtype.Text{String: " us ", Valid: true}, want: "United States"},
		{input: pgtype.Text{String: "USA", Valid: true}, want: "United States"},
		{input: pgtype.Text{String: "  ", Valid: true}, want: "n/a"},
		{input: pgtype.Text{}, want: "n/a"},
		{input: pgtype.Text{String: " Australia ", Valid: true}, want: "Australia"},
	}

	for _, tt := range tests {
		if got := NormalizeCountry(tt.input); got != tt.want {
			t.Errorf("NormalizeCountry(%q) = %q, want %q", tt.input.String, got, tt.want)
		}
	}
}

func TestLocations(t *testing.T) {
	raw := batch(locationColumns,
		[]string{"AW-00011000", "Australia"},
		[]string{"AW-000-11001", "DE"},
		[]string{nullCell, nullCell},
	)

	rows := run(t, "erp_loc_a101", raw, testEnv().Now)

	if got := textString(rows[0][0]); got != "AW00011000" {
		t.Errorf("cid = %q, want AW00011000", got)
	}
	if got := textString(rows[1][0]); got != "AW00011001" {
		t.Errorf("cid = %q, want AW00011001", got)
	}
	if got := textString(rows[1][1]); got != "Germany" {
		t.Errorf("cntry = %q, want Germany", got)
	}
	if got := textString(rows[2][0]); got != "NULL" {
		t.Errorf("NULL cid = %q, want NULL", got)
	}
	if got := textString(rows[2][1]); got != "n/a" {
		t.Errorf("NULL cntry = %q, want n/a", got)
	}
}
