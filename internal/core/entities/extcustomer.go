package entities

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/warehouse/internal/core"
)

func init() {
	registerErpCustomers()
}

var erpCustomerColumns = []string{"cid", "bdate", "gen"}

// erpCustomerPrefix is prepended to some customer ids by the ERP export.
const erpCustomerPrefix = "NAS"

func registerErpCustomers() {
	core.Register(core.EntityDefinition{
		Info: core.EntityInfo{
			Name:          "erp_cust_az12",
			System:        "ERP",
			Label:         "Customer Attributes",
			Order:         orderErpCustomers,
			SourceFile:    "source_erp/CUST_AZ12",
			SourceColumns: erpCustomerColumns,
		},
		Transform: transform(erpCustomerColumns, parseErpCustomer, cleanErpCustomers, ErpCustomer.row),
	})
}

type rawErpCustomer struct {
	ID        pgtype.Text
	BirthDate pgtype.Date
	Gender    pgtype.Text
}

// ErpCustomer is one silver ERP customer attribute record.
type ErpCustomer struct {
	ID        pgtype.Text
	BirthDate pgtype.Date
	Gender    string
}

func parseErpCustomer(row core.RawRow, idx core.HeaderIndex) rawErpCustomer {
	return rawErpCustomer{
		ID:        core.Cell(row, idx, "cid"),
		BirthDate: core.ToPgDate(core.Cell(row, idx, "bdate")),
		Gender:    core.Cell(row, idx, "gen"),
	}
}

// cleanErpCustomers strips the id prefix, drops birth dates after the run
// date and normalizes gender.
func cleanErpCustomers(records []rawErpCustomer, env core.TransformEnv) []ErpCustomer {
	today := core.DateOf(pgtype.Timestamp{Time: env.Now, Valid: !env.Now.IsZero()})

	out := make([]ErpCustomer, 0, len(records))
	for _, r := range records {
		c := ErpCustomer{
			ID:        r.ID,
			BirthDate: r.BirthDate,
			Gender:    normalizeCode(r.Gender, erpGenders, "N/A"),
		}
		if c.ID.Valid {
			c.ID.String = strings.TrimPrefix(c.ID.String, erpCustomerPrefix)
		}
		if c.BirthDate.Valid && today.Valid && c.BirthDate.Time.After(today.Time) {
			c.BirthDate = pgtype.Date{}
		}
		out = append(out, c)
	}
	return out
}

func (c ErpCustomer) row() core.Row {
	return core.Row{c.ID, c.BirthDate, c.Gender}
}
