package parse

import "testing"

func TestCanonicalizePSHeaders_Renames(t *testing.T) {
	rows := []Row{
		{
			"Energía facturada":              "100",
			"Tarifa de acceso > Descripción": "2.0TD",
			"Póliza > agree_tipus":           "3",
			"CUPS":                           "ES001",
			"Fecha final":                    "2024-01-31",
			"Total":                          "42,5",
		},
	}
	out := CanonicalizePSHeaders(rows)
	if out[0]["Energia_facturada"] != "100" {
		t.Fatalf("expected Energia_facturada, got row %v", out[0])
	}
	if out[0]["Tarifa_acceso"] != "2.0TD" {
		t.Fatalf("expected Tarifa_acceso, got row %v", out[0])
	}
	if out[0]["Poliza"] != "3" {
		t.Fatalf("expected Poliza, got row %v", out[0])
	}
	if out[0]["Fecha_final"] != "2024-01-31" {
		t.Fatalf("expected Fecha_final, got row %v", out[0])
	}
}

func TestCanonicalizePSHeaders_FuzzyPoliza(t *testing.T) {
	rows := []Row{{"Tipo de póliza contratada": "2", "Total": "1"}}
	out := CanonicalizePSHeaders(rows)
	if out[0]["Poliza"] != "2" {
		t.Fatalf("expected fuzzy Poliza match, got row %v", out[0])
	}
}

func TestCanonicalizePSHeaders_Empty(t *testing.T) {
	if out := CanonicalizePSHeaders(nil); out != nil {
		t.Fatalf("expected nil, got %v", out)
	}
}

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Póliza":            "poliza",
		"  Fecha Final  ":   "fecha_final",
		"Energía Facturada": "energia_facturada",
	}
	for in, want := range cases {
		if got := NormalizeHeader(in); got != want {
			t.Fatalf("NormalizeHeader(%q): expected %q, got %q", in, want, got)
		}
	}
}
