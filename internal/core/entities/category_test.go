package entities

import "testing"

func TestCategories(t *testing.T) {
	raw := batch([]string{"ID", "CAT", "SUBCAT", "MAINTENANCE"},
		[]string{"AC_BR", " Accessories", "Bike Racks ", "Yes"},
		[]string{"CO_RF", "Components", "Road Frames", nullCell},
	)

	rows := run(t, "erp_px_cat_g1v2", raw, testEnv().Now)

	want := [][]string{
		{"AC_BR", "Accessories", "Bike Racks", "Yes"},
		{"CO_RF", "Components", "Road Frames", "NULL"},
	}
	for i, w := range want {
		for j, v := range w {
			if got := textString(rows[i][j]); got != v {
				t.Errorf("row %d col %d = %q, want %q", i, j, got, v)
			}
		}
	}
}

func TestRegistryOrder(t *testing.T) {
	// registration comes from init(); the order is fixed.
	want := []string{
		"crm_cust_info", "crm_prd_info", "crm_sales_details",
		"erp_cust_az12", "erp_loc_a101", "erp_px_cat_g1v2",
	}
	all := allNames()
	if len(all) != len(want) {
		t.Fatalf("registered %v, want %v", all, want)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("position %d = %s, want %s", i, all[i], want[i])
		}
	}
}
