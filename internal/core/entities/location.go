package entities

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/warehouse/internal/core"
)

func init() {
	registerLocations()
}

var locationColumns = []string{"cid", "cntry"}

func registerLocations() {
	core.Register(core.EntityDefinition{
		Info: core.EntityInfo{
			Name:          "erp_loc_a101",
			System:        "ERP",
			Label:         "Customer Locations",
			Order:         orderLocations,
			SourceFile:    "source_erp/LOC_A101",
			SourceColumns: locationColumns,
		},
		Transform: transform(locationColumns, parseLocation, cleanLocations, Location.row),
	})
}

// Location is one customer's country. Bronze and silver share the shape.
type Location struct {
	CustomerID pgtype.Text
	Country    pgtype.Text
}

func parseLocation(row core.RawRow, idx core.HeaderIndex) Location {
	return Location{
		CustomerID: core.Cell(row, idx, "cid"),
		Country:    core.Cell(row, idx, "cntry"),
	}
}

func cleanLocations(records []Location, _ core.TransformEnv) []Location {
	out := make([]Location, 0, len(records))
	for _, r := range records {
		l := Location{
			CustomerID: r.CustomerID,
			Country:    pgtype.Text{String: NormalizeCountry(r.Country), Valid: true},
		}
		if l.CustomerID.Valid {
			l.CustomerID.String = strings.ReplaceAll(l.CustomerID.String, "-", "")
		}
		out = append(out, l)
	}
	return out
}

func (l Location) row() core.Row {
	return core.Row{l.CustomerID, l.Country}
}
