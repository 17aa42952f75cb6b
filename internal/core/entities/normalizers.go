package entities

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/warehouse/internal/core"
)

// Code vocabularies. Keys are upper-case, trimmed codes.
var (
	maritalStatuses = map[string]string{
		"S": "Single",
		"M": "Married",
	}

	customerGenders = map[string]string{
		"F": "Female",
		"M": "Male",
	}

	productLines = map[string]string{
		"R": "Road",
		"M": "Mountain",
		"S": "Other Sales",
		"T": "Touring",
	}

	erpGenders = map[string]string{
		"F":      "FEMALE",
		"FEMALE": "FEMALE",
		"M":      "MALE",
		"MALE":   "MALE",
	}

	countries = map[string]string{
		"DE":  "Germany",
		"US":  "United States",
		"USA": "United States",
	}
)

// normalizeCode maps a code through vocab, case-insensitively and trimmed.
// Anything not in vocab (including NULL) becomes fallback.
func normalizeCode(t pgtype.Text, vocab map[string]string, fallback string) string {
	if v, ok := vocab[core.NormalizeCode(t)]; ok {
		return v
	}
	return fallback
}

// NormalizeCountry converts country codes to display names.
// Blank or NULL is "n/a"; unknown values are kept, trimmed.
func NormalizeCountry(t pgtype.Text) string {
	code := core.NormalizeCode(t)
	if code == "" {
		return "n/a"
	}
	if name, ok := countries[code]; ok {
		return name
	}
	return strings.TrimSpace(t.String)
}

// substr returns up to n runes of s starting at rune offset start (0-based).
// n < 0 means to the end. Out-of-range offsets yield "".
func substr(s string, start, n int) string {
	r := []rune(s)
	if start >= len(r) {
		return ""
	}
	end := len(r)
	if n >= 0 && start+n < end {
		end = start + n
	}
	return string(r[start:end])
}

// underscoreDashes replaces every "-" with "_".
func underscoreDashes(s string) string {
	return strings.ReplaceAll(s, "-", "_")
}
