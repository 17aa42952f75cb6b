package entities

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/warehouse/internal/core"
)

func init() {
	registerCategories()
}

var categoryColumns = []string{"id", "cat", "subcat", "maintenance"}

func registerCategories() {
	core.Register(core.EntityDefinition{
		Info: core.EntityInfo{
			Name:          "erp_px_cat_g1v2",
			System:        "ERP",
			Label:         "Product Categories",
			Order:         orderCategories,
			SourceFile:    "source_erp/PX_CAT_G1V2",
			SourceColumns: categoryColumns,
		},
		Transform: transform(categoryColumns, parseCategory, cleanCategories, Category.row),
	})
}

// Category is one product category. The bronze data is already clean, so
// only surrounding whitespace is removed.
type Category struct {
	ID          pgtype.Text
	Category    pgtype.Text
	Subcategory pgtype.Text
	Maintenance pgtype.Text
}

func parseCategory(row core.RawRow, idx core.HeaderIndex) Category {
	return Category{
		ID:          core.Cell(row, idx, "id"),
		Category:    core.Cell(row, idx, "cat"),
		Subcategory: core.Cell(row, idx, "subcat"),
		Maintenance: core.Cell(row, idx, "maintenance"),
	}
}

func cleanCategories(records []Category, _ core.TransformEnv) []Category {
	out := make([]Category, 0, len(records))
	for _, r := range records {
		out = append(out, Category{
			ID:          core.TrimText(r.ID),
			Category:    core.TrimText(r.Category),
			Subcategory: core.TrimText(r.Subcategory),
			Maintenance: core.TrimText(r.Maintenance),
		})
	}
	return out
}

func (c Category) row() core.Row {
	return core.Row{c.ID, c.Category, c.Subcategory, c.Maintenance}
}
