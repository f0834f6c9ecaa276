package parse

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// psHeaderRenames maps the header variants observed in real PS exports
// (accented, spaced, composite "> Descripción" columns) onto canonical
// field names.
var psHeaderRenames = map[string]string{
	"Energía facturada": "Energia_facturada",
	"Energia facturada": "Energia_facturada",
	"Energia_facturada": "Energia_facturada",

	"Tarifa de acceso":               "Tarifa_acceso",
	"Tarifa acceso":                  "Tarifa_acceso",
	"Tarifa_acceso":                  "Tarifa_acceso",
	"Tarifa de acceso > Descripción": "Tarifa_acceso",

	"CUPS":               "CUPS",
	"CUPS > Descripción": "CUPS",

	"Fecha final": "Fecha_final",
	"Fecha_final": "Fecha_final",

	"Póliza":               "Poliza",
	"Poliza":               "Poliza",
	"Póliza > agree_tipus": "Poliza",

	"Total": "Total",
}

// CanonicalizePSHeaders renames PS columns to their canonical names. If
// no canonical "Poliza" column results, the first column whose
// accent-stripped name contains "poliza" is taken instead.
func CanonicalizePSHeaders(rows []Row) []Row {
	if len(rows) == 0 {
		return rows
	}

	rename := make(map[string]string)
	for key := range rows[0] {
		if canonical, ok := psHeaderRenames[key]; ok {
			rename[key] = canonical
		}
	}

	hasPoliza := false
	for _, canonical := range rename {
		if canonical == "Poliza" {
			hasPoliza = true
			break
		}
	}
	if _, ok := rows[0]["Poliza"]; ok {
		hasPoliza = true
	}
	if !hasPoliza {
		for key := range rows[0] {
			if strings.Contains(NormalizeHeader(key), "poliza") {
				rename[key] = "Poliza"
				break
			}
		}
	}

	if len(rename) == 0 {
		return rows
	}

	out := make([]Row, len(rows))
	for i, row := range rows {
		renamed := make(Row, len(row))
		for key, value := range row {
			if canonical, ok := rename[key]; ok {
				renamed[canonical] = value
			} else {
				renamed[key] = value
			}
		}
		out[i] = renamed
	}
	return out
}

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader lowercases a header name, strips accents and replaces
// spaces with underscores so lookups survive cosmetic variation.
func NormalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if stripped, _, err := transform.String(stripDiacritics, s); err == nil {
		s = stripped
	}
	return strings.ReplaceAll(s, " ", "_")
}
