package entities

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/warehouse/internal/core"
)

func init() {
	registerSales()
}

var salesColumns = []string{
	"sls_ord_num", "sls_prd_key", "sls_cust_id",
	"sls_order_dt", "sls_ship_dt", "sls_due_dt",
	"sls_sales", "sls_quantity", "sls_price",
}

// priceScale is the number of decimals kept when a price is derived.
const priceScale = 2

func registerSales() {
	core.Register(core.EntityDefinition{
		Info: core.EntityInfo{
			Name:          "crm_sales_details",
			System:        "CRM",
			Label:         "Sales Details",
			Order:         orderSales,
			SourceFile:    "source_crm/sales_details",
			SourceColumns: salesColumns,
		},
		Transform: transform(salesColumns, parseSale, cleanSales, Sale.row),
	})
}

type rawSale struct {
	OrderNumber pgtype.Text
	ProductKey  pgtype.Text
	CustomerID  pgtype.Int8
	OrderDate   pgtype.Int8
	ShipDate    pgtype.Int8
	DueDate     pgtype.Int8
	Sales       decimal.NullDecimal
	Quantity    pgtype.Int8
	Price       decimal.NullDecimal
}

// Sale is one silver sales line.
type Sale struct {
	OrderNumber pgtype.Text
	ProductKey  pgtype.Text
	CustomerID  pgtype.Int8
	OrderDate   pgtype.Date
	ShipDate    pgtype.Date
	DueDate     pgtype.Date
	Sales       decimal.NullDecimal
	Quantity    pgtype.Int8
	Price       decimal.NullDecimal
}

func parseSale(row core.RawRow, idx core.HeaderIndex) rawSale {
	return rawSale{
		OrderNumber: core.Cell(row, idx, "sls_ord_num"),
		ProductKey:  core.Cell(row, idx, "sls_prd_key"),
		CustomerID:  core.ParseInt(core.Cell(row, idx, "sls_cust_id")),
		OrderDate:   core.ParseInt(core.Cell(row, idx, "sls_order_dt")),
		ShipDate:    core.ParseInt(core.Cell(row, idx, "sls_ship_dt")),
		DueDate:     core.ParseInt(core.Cell(row, idx, "sls_due_dt")),
		Sales:       core.ParseDecimal(core.Cell(row, idx, "sls_sales")),
		Quantity:    core.ParseInt(core.Cell(row, idx, "sls_quantity")),
		Price:       core.ParseDecimal(core.Cell(row, idx, "sls_price")),
	}
}

func cleanSales(records []rawSale, _ core.TransformEnv) []Sale {
	out := make([]Sale, 0, len(records))
	for _, r := range records {
		sales, price := ReconcileAmounts(r.Sales, r.Quantity, r.Price)
		out = append(out, Sale{
			OrderNumber: core.TrimText(r.OrderNumber),
			ProductKey:  r.ProductKey,
			CustomerID:  r.CustomerID,
			OrderDate:   core.DateFromInt(r.OrderDate),
			ShipDate:    core.DateFromInt(r.ShipDate),
			DueDate:     core.DateFromInt(r.DueDate),
			Sales:       sales,
			Quantity:    r.Quantity,
			Price:       price,
		})
	}
	return out
}

// ReconcileAmounts repairs a sales line's amount and unit price.
//
// The amount is replaced by quantity*|price| when it is NULL, not positive,
// or differs from that product. The price is then replaced by
// amount/quantity when it is NULL or not positive, using the amount just
// computed. NULL operands give NULL results and a zero quantity gives a NULL
// price.
func ReconcileAmounts(sales decimal.NullDecimal, quantity pgtype.Int8, price decimal.NullDecimal) (decimal.NullDecimal, decimal.NullDecimal) {
	expected := decimal.NullDecimal{}
	if quantity.Valid && price.Valid {
		expected = decimal.NullDecimal{
			Decimal: decimal.NewFromInt(quantity.Int64).Mul(price.Decimal.Abs()),
			Valid:   true,
		}
	}

	if !sales.Valid || !sales.Decimal.IsPositive() ||
		(expected.Valid && !sales.Decimal.Equal(expected.Decimal)) {
		sales = expected
	}

	if !price.Valid || !price.Decimal.IsPositive() {
		price = decimal.NullDecimal{}
		if sales.Valid && quantity.Valid && quantity.Int64 != 0 {
			price = decimal.NullDecimal{
				Decimal: sales.Decimal.DivRound(decimal.NewFromInt(quantity.Int64), priceScale),
				Valid:   true,
			}
		}
	}

	return sales, price
}

func (s Sale) row() core.Row {
	return core.Row{
		s.OrderNumber,
		s.ProductKey,
		s.CustomerID,
		s.OrderDate,
		s.ShipDate,
		s.DueDate,
		core.NullToPgNumeric(s.Sales),
		s.Quantity,
		core.NullToPgNumeric(s.Price),
	}
}
