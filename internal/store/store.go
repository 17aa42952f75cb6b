// Package store provides the silver destination, the load error log and the
// run history, backed by Postgres or by memory.
package store

import (
	"fmt"

	"github.com/JonMunkholm/warehouse/internal/core"
)

// DefaultErrorLimit caps error log listings that do not set a limit.
const DefaultErrorLimit = 100

// checkColumns verifies every row matches the entity's silver column list.
func checkColumns(info core.EntityInfo, rows []core.Row) error {
	want := len(info.Columns)
	for i, r := range rows {
		if len(r) != want {
			return fmt.Errorf("%s row %d: column count %d, want %d", info.Name, i+1, len(r), want)
		}
	}
	return nil
}

func errorLimit(limit int) int {
	if limit <= 0 {
		return DefaultErrorLimit
	}
	return limit
}
