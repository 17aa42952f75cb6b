package entities

import (
	"sort"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/warehouse/internal/core"
)

func init() {
	registerProducts()
}

var productSourceColumns = []string{
	"prd_id", "prd_key", "prd_nm", "prd_cost", "prd_line", "prd_start_dt", "prd_end_dt",
}

func registerProducts() {
	core.Register(core.EntityDefinition{
		Info: core.EntityInfo{
			Name:          "crm_prd_info",
			System:        "CRM",
			Label:         "Products",
			Order:         orderProducts,
			SourceFile:    "source_crm/prd_info",
			SourceColumns: productSourceColumns,
			Columns: []string{
				"prd_id", "cat_id", "prd_key", "prd_nm", "prd_cost", "prd_line", "prd_start_dt", "prd_end_dt",
			},
		},
		// prd_end_dt is derived, so the bronze column is optional.
		Transform: transform(productSourceColumns[:6], parseProduct, cleanProducts, Product.row),
	})
}

type rawProduct struct {
	ID        pgtype.Int8
	Key       pgtype.Text
	Name      pgtype.Text
	Cost      decimal.NullDecimal
	Line      pgtype.Text
	StartDate pgtype.Date
}

// Product is one silver product version.
type Product struct {
	ID         pgtype.Int8
	CategoryID pgtype.Text
	Key        pgtype.Text
	Name       pgtype.Text
	Cost       decimal.Decimal
	Line       string
	StartDate  pgtype.Date
	EndDate    pgtype.Date
}

func parseProduct(row core.RawRow, idx core.HeaderIndex) rawProduct {
	return rawProduct{
		ID:        core.ParseInt(core.Cell(row, idx, "prd_id")),
		Key:       core.Cell(row, idx, "prd_key"),
		Name:      core.Cell(row, idx, "prd_nm"),
		Cost:      core.ParseDecimal(core.Cell(row, idx, "prd_cost")),
		Line:      core.Cell(row, idx, "prd_line"),
		StartDate: core.ToPgDate(core.Cell(row, idx, "prd_start_dt")),
	}
}

// SplitProductKey splits a bronze product key into its category id
// (characters 1-5) and item key (characters 7 onward), with dashes replaced
// by underscores. Keys shorter than the positions yield what is available.
func SplitProductKey(key string) (categoryID, itemKey string) {
	return underscoreDashes(substr(key, 0, 5)), underscoreDashes(substr(key, 6, -1))
}

// cleanProducts orders versions by bronze key then start date and derives
// each end date as the day before the next version's start. The last
// version of a key stays open (NULL end date).
func cleanProducts(records []rawProduct, _ core.TransformEnv) []Product {
	sorted := make([]rawProduct, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if c := compareText(a.Key, b.Key); c != 0 {
			return c < 0
		}
		return dateBefore(a.StartDate, b.StartDate)
	})

	out := make([]Product, 0, len(sorted))
	for i, r := range sorted {
		p := Product{
			ID:        r.ID,
			Name:      r.Name,
			Cost:      decimal.Zero,
			Line:      normalizeCode(r.Line, productLines, "N/A"),
			StartDate: r.StartDate,
		}

		if r.Key.Valid {
			cat, item := SplitProductKey(r.Key.String)
			p.CategoryID = pgtype.Text{String: cat, Valid: true}
			p.Key = pgtype.Text{String: item, Valid: true}
		}

		if r.Cost.Valid && !r.Cost.Decimal.IsNegative() {
			p.Cost = r.Cost.Decimal
		}

		if i+1 < len(sorted) && compareText(sorted[i+1].Key, r.Key) == 0 {
			p.EndDate = core.AddDays(sorted[i+1].StartDate, -1)
		}

		out = append(out, p)
	}
	return out
}

// compareText orders NULL before any value, then by string.
func compareText(a, b pgtype.Text) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	case a.String < b.String:
		return -1
	case a.String > b.String:
		return 1
	}
	return 0
}

// dateBefore orders NULL before any date.
func dateBefore(a, b pgtype.Date) bool {
	if !a.Valid {
		return b.Valid
	}
	return b.Valid && a.Time.Before(b.Time)
}

func (p Product) row() core.Row {
	return core.Row{
		p.ID,
		p.CategoryID,
		p.Key,
		p.Name,
		core.ToPgNumeric(p.Cost),
		p.Line,
		p.StartDate,
		p.EndDate,
	}
}
