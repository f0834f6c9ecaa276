package application

import (
	"context"
	"errors"
	"testing"

	ingestion "medidas-cloud/internal/ingestion/domain"
	"medidas-cloud/internal/ingestion/parse"
)

func TestClassifyPoliza(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{" 2 ", 2},
		{"4,0", 4},
		{"4.6", 5},    // rounds to nearest
		{"0", 0},      // out of range, no digit 1-5
		{"7", 0},      // out of range
		{"tipo 3", 3}, // first literal digit wins
		{"T-5 bis", 5},
		{"", 0},
		{"sin tipo", 0},
	}
	for _, tc := range cases {
		if got := classifyPoliza(tc.in); got != tc.want {
			t.Fatalf("classifyPoliza(%q): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestProcessPS_BucketsAndTotals(t *testing.T) {
	processors, _, _ := newTestProcessors(t)
	file := testFile(40, ingestion.TipoPS, "PS_202401.csv", 2024, 1)
	rows := []parse.Row{
		{"Fecha_final": "2024-01-31", "Poliza": "1", "CUPS": "ES001", "Energia_facturada": "100", "Total": "30", "Tarifa_acceso": "2.0TD"},
		{"Fecha_final": "2024-01-31", "Poliza": "1", "CUPS": "ES002", "Energia_facturada": "50", "Total": "15", "Tarifa_acceso": "2.0TD"},
		{"Fecha_final": "2024-01-31", "Poliza": "3", "CUPS": "ES003", "Energia_facturada": "200", "Total": "60", "Tarifa_acceso": "6.1TD"},
		// Unclassifiable: excluded from type buckets and totals, kept in tariffs.
		{"Fecha_final": "2024-01-31", "Poliza": "otros", "CUPS": "ES004", "Energia_facturada": "10", "Total": "3", "Tarifa_acceso": "2.0TD"},
	}

	result, err := processors.ProcessPS(context.Background(), 1, 2, file, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mp := result.Medida

	if result.ExcludedRows != 1 {
		t.Fatalf("expected 1 excluded row, got %d", result.ExcludedRows)
	}
	if !almostEqual(mp.Tipos[0].EnergiaKWh, 150) || mp.Tipos[0].CUPS != 2 {
		t.Fatalf("unexpected type 1 bucket: %+v", mp.Tipos[0])
	}
	if !almostEqual(mp.Tipos[2].EnergiaKWh, 200) || mp.Tipos[2].CUPS != 1 {
		t.Fatalf("unexpected type 3 bucket: %+v", mp.Tipos[2])
	}
	// Totals are sums over the classified buckets: the excluded row is out.
	if !almostEqual(mp.TipoTotal.EnergiaKWh, 350) || mp.TipoTotal.CUPS != 3 || !almostEqual(mp.TipoTotal.ImporteEUR, 105) {
		t.Fatalf("unexpected totals: %+v", mp.TipoTotal)
	}
	// Tariff blocks run over all rows, excluded one included.
	if !almostEqual(mp.Tarifas[0].EnergiaKWh, 160) || mp.Tarifas[0].CUPS != 3 {
		t.Fatalf("unexpected 2.0TD block: %+v", mp.Tarifas[0])
	}
	if !almostEqual(mp.Tarifas[3].EnergiaKWh, 200) || mp.Tarifas[3].CUPS != 1 {
		t.Fatalf("unexpected 6.1TD block: %+v", mp.Tarifas[3])
	}
	if mp.Anio != 2024 || mp.Mes != 1 {
		t.Fatalf("expected period 2024-01, got %d-%d", mp.Anio, mp.Mes)
	}
}

func TestProcessPS_FullReplace(t *testing.T) {
	processors, _, _ := newTestProcessors(t)
	file := testFile(41, ingestion.TipoPS, "PS_202401.csv", 2024, 1)
	first := []parse.Row{
		{"Fecha_final": "2024-01-31", "Poliza": "2", "CUPS": "ES001", "Energia_facturada": "500", "Total": "100", "Tarifa_acceso": "3.0TD"},
	}
	if _, err := processors.ProcessPS(context.Background(), 1, 2, file, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := []parse.Row{
		{"Fecha_final": "2024-01-31", "Poliza": "4", "CUPS": "ES009", "Energia_facturada": "70", "Total": "20", "Tarifa_acceso": "6.2TD"},
	}
	result, err := processors.ProcessPS(context.Background(), 1, 2, file, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mp := result.Medida
	if !almostEqual(mp.Tipos[1].EnergiaKWh, 0) || mp.Tipos[1].CUPS != 0 {
		t.Fatalf("expected type 2 bucket wiped, got %+v", mp.Tipos[1])
	}
	if !almostEqual(mp.Tipos[3].EnergiaKWh, 70) {
		t.Fatalf("expected type 4 bucket 70, got %+v", mp.Tipos[3])
	}
	if !almostEqual(mp.TipoTotal.EnergiaKWh, 70) || mp.TipoTotal.CUPS != 1 {
		t.Fatalf("expected totals fully recomputed, got %+v", mp.TipoTotal)
	}
}

func TestProcessPS_Empty(t *testing.T) {
	processors, _, _ := newTestProcessors(t)
	file := testFile(42, ingestion.TipoPS, "PS_202401.csv", 2024, 1)
	if _, err := processors.ProcessPS(context.Background(), 1, 2, file, nil); !errors.Is(err, ingestion.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
