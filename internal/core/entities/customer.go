package entities

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/warehouse/internal/core"
)

func init() {
	registerCustomers()
}

var customerColumns = []string{
	"cst_id", "cst_key", "cst_firstname", "cst_lastname",
	"cst_marital_status", "cst_gndr", "cst_create_date",
}

func registerCustomers() {
	core.Register(core.EntityDefinition{
		Info: core.EntityInfo{
			Name:          "crm_cust_info",
			System:        "CRM",
			Label:         "Customers",
			Order:         orderCustomers,
			SourceFile:    "source_crm/cust_info",
			SourceColumns: customerColumns,
		},
		Transform: transform(customerColumns, parseCustomer, cleanCustomers, Customer.row),
	})
}

// rawCustomer is one bronze customer record with typed cells.
type rawCustomer struct {
	ID            pgtype.Int8
	Key           pgtype.Text
	FirstName     pgtype.Text
	LastName      pgtype.Text
	MaritalStatus pgtype.Text
	Gender        pgtype.Text
	CreatedAt     pgtype.Timestamp
}

// Customer is one silver customer.
type Customer struct {
	ID            int64
	Key           pgtype.Text
	FirstName     pgtype.Text
	LastName      pgtype.Text
	MaritalStatus string
	Gender        string
	CreatedAt     pgtype.Timestamp
}

func parseCustomer(row core.RawRow, idx core.HeaderIndex) rawCustomer {
	return rawCustomer{
		ID:            core.ParseInt(core.Cell(row, idx, "cst_id")),
		Key:           core.Cell(row, idx, "cst_key"),
		FirstName:     core.Cell(row, idx, "cst_firstname"),
		LastName:      core.Cell(row, idx, "cst_lastname"),
		MaritalStatus: core.Cell(row, idx, "cst_marital_status"),
		Gender:        core.Cell(row, idx, "cst_gndr"),
		CreatedAt:     core.ToPgTimestamp(core.Cell(row, idx, "cst_create_date")),
	}
}

// cleanCustomers drops records without an id and keeps one record per id:
// the one with the latest creation timestamp. A NULL timestamp loses to any
// real one and equal timestamps keep the record seen first. Output follows
// the order in which each id first appears.
func cleanCustomers(records []rawCustomer, _ core.TransformEnv) []Customer {
	pos := make(map[int64]int)
	kept := make([]rawCustomer, 0, len(records))

	for _, r := range records {
		if !r.ID.Valid {
			continue
		}
		i, seen := pos[r.ID.Int64]
		if !seen {
			pos[r.ID.Int64] = len(kept)
			kept = append(kept, r)
			continue
		}
		if newerThan(r.CreatedAt, kept[i].CreatedAt) {
			kept[i] = r
		}
	}

	out := make([]Customer, 0, len(kept))
	for _, r := range kept {
		out = append(out, Customer{
			ID:            r.ID.Int64,
			Key:           r.Key,
			FirstName:     core.TrimText(r.FirstName),
			LastName:      core.TrimText(r.LastName),
			MaritalStatus: normalizeCode(r.MaritalStatus, maritalStatuses, "n/a"),
			Gender:        normalizeCode(r.Gender, customerGenders, "n/a"),
			CreatedAt:     r.CreatedAt,
		})
	}
	return out
}

// newerThan reports whether a ranks strictly above b.
func newerThan(a, b pgtype.Timestamp) bool {
	if !a.Valid {
		return false
	}
	if !b.Valid {
		return true
	}
	return a.Time.After(b.Time)
}

func (c Customer) row() core.Row {
	return core.Row{
		c.ID,
		c.Key,
		c.FirstName,
		c.LastName,
		c.MaritalStatus,
		c.Gender,
		core.DateOf(c.CreatedAt),
	}
}
