// Package entities registers the bronze to silver entity transforms with the
// core registry. Import this package to ensure all entities are registered.
package entities

import "github.com/JonMunkholm/warehouse/internal/core"

// Pipeline order. Gaps leave room for new entities.
const (
	orderCustomers = (iota + 1) * 10
	orderProducts
	orderSales
	orderErpCustomers
	orderLocations
	orderCategories
)

// transform assembles a core transform from the three steps every entity
// shares: parse bronze cells into typed records, apply the cleaning rules to
// the whole batch, then flatten each cleaned record into a Row.
func transform[R, S any](
	required []string,
	parse func(core.RawRow, core.HeaderIndex) R,
	clean func([]R, core.TransformEnv) []S,
	toRow func(S) core.Row,
) func(core.RawBatch, core.TransformEnv) ([]core.Row, error) {
	return func(raw core.RawBatch, env core.TransformEnv) ([]core.Row, error) {
		if err := raw.Header.Require(required...); err != nil {
			return nil, err
		}

		records := make([]R, 0, raw.Len())
		for _, r := range raw.Rows {
			records = append(records, parse(r, raw.Header))
		}

		cleaned := clean(records, env)
		rows := make([]core.Row, 0, len(cleaned))
		for _, c := range cleaned {
			rows = append(rows, toRow(c))
		}
		return rows, nil
	}
}
