package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/warehouse/internal/core"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"postgres://u:p@localhost:5432/dwh?sslmode=disable", "pgx5://u:p@localhost:5432/dwh?sslmode=disable"},
		{"postgresql://localhost/dwh", "pgx5://localhost/dwh"},
		{"pgx5://localhost/dwh", "pgx5://localhost/dwh"},
	}
	for _, tt := range tests {
		if got := migrateURL(tt.input); got != tt.want {
			t.Errorf("migrateURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "connection exception", err: &pgconn.PgError{Code: "08006"}, want: true},
		{name: "admin shutdown", err: &pgconn.PgError{Code: "57P01"}, want: true},
		{name: "undefined table", err: &pgconn.PgError{Code: "42P01"}, want: false},
		{name: "numeric overflow", err: &pgconn.PgError{Code: "22003"}, want: false},
		{name: "cancelled", err: fmt.Errorf("copy: %w", context.Canceled), want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(Unavailable(tt.err), core.ErrStoreUnavailable)
			if got != tt.want {
				t.Errorf("Unavailable(%v) wraps ErrStoreUnavailable = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	if Unavailable(nil) != nil {
		t.Error("Unavailable(nil) should be nil")
	}
}

func TestCheckColumns(t *testing.T) {
	info := core.EntityInfo{Name: "erp_cust_az12", Columns: []string{"cid", "bdate", "gen"}}

	if err := checkColumns(info, []core.Row{{"a", nil, "MALE"}}); err != nil {
		t.Errorf("checkColumns() unexpected error: %v", err)
	}
	err := checkColumns(info, []core.Row{{"a", nil, "MALE"}, {"b"}})
	if err == nil {
		t.Fatal("checkColumns() expected error")
	}
	if got := core.ErrorCode(err); got != "VAL005" {
		t.Errorf("ErrorCode() = %q, want VAL005", got)
	}
}

func TestErrorLimit(t *testing.T) {
	if errorLimit(0) != DefaultErrorLimit || errorLimit(-3) != DefaultErrorLimit {
		t.Error("non-positive limits should fall back to DefaultErrorLimit")
	}
	if errorLimit(7) != 7 {
		t.Error("positive limits should be kept")
	}
}
