package entities

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/warehouse/internal/core"
)

// nullCell marks a NULL bronze cell in test tables.
const nullCell = "<null>"

func batch(header []string, rows ...[]string) core.RawBatch {
	b := core.RawBatch{Header: core.MakeHeaderIndex(header)}
	for _, r := range rows {
		raw := make(core.RawRow, len(r))
		for i, v := range r {
			if v != nullCell {
				raw[i] = pgtype.Text{String: v, Valid: true}
			}
		}
		b.Rows = append(b.Rows, raw)
	}
	return b
}

func mustDefinition(t *testing.T, name string) core.EntityDefinition {
	t.Helper()
	def, ok := core.Get(name)
	if !ok {
		t.Fatalf("entity %s is not registered", name)
	}
	return def
}

func run(t *testing.T, name string, raw core.RawBatch, now time.Time) []core.Row {
	t.Helper()
	def := mustDefinition(t, name)
	rows, err := def.Transform(raw, core.TransformEnv{Now: now})
	if err != nil {
		t.Fatalf("%s transform: %v", name, err)
	}
	for i, r := range rows {
		if len(r) != len(def.Info.Columns) {
			t.Fatalf("%s row %d has %d values, want %d", name, i, len(r), len(def.Info.Columns))
		}
	}
	return rows
}

func dateString(v any) string {
	d, ok := v.(pgtype.Date)
	if !ok || !d.Valid {
		return "NULL"
	}
	return d.Time.Format("2006-01-02")
}

func textString(v any) string {
	switch t := v.(type) {
	case pgtype.Text:
		if !t.Valid {
			return "NULL"
		}
		return t.String
	case string:
		return t
	}
	return "?"
}

func numericString(v any) string {
	n, ok := v.(pgtype.Numeric)
	if !ok || !n.Valid {
		return "NULL"
	}
	val, err := n.Value()
	if err != nil {
		return "ERR"
	}
	return decimal.RequireFromString(val.(string)).String()
}

func testEnv() core.TransformEnv {
	return core.TransformEnv{Now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
}

func allNames() []string {
	var names []string
	for _, def := range core.All() {
		names = append(names, def.Info.Name)
	}
	return names
}
