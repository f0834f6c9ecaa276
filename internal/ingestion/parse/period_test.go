package parse

import (
	"errors"
	"testing"
)

func TestPeriodFromFilename(t *testing.T) {
	cases := []struct {
		tipo     string
		filename string
		want     Period
	}{
		{"M1_AUTOCONSUMO", "M1_AUTOCONSUMO_202401_empresa.csv", Period{2024, 1}},
		{"ACUMCIL", "ACUMCIL_202312_v2.csv", Period{2023, 12}},
		{"M1", "M1_202402.xlsx", Period{2024, 2}},
		{"ACUM_H2_GRD", "ACUM_H2_GRD_202401", Period{2024, 1}},
		{"BALD", "BALD_123_202401_20240318.csv", Period{2024, 1}},
		{"bald", "bald_9_202311_20240105.csv", Period{2023, 11}},
		// Unknown type falls back to the generic trailing token.
		{"FOO", "FOO_202401.csv", Period{2024, 1}},
	}
	for _, tc := range cases {
		got, err := PeriodFromFilename(tc.tipo, tc.filename)
		if err != nil {
			t.Fatalf("PeriodFromFilename(%q, %q): unexpected error %v", tc.tipo, tc.filename, err)
		}
		if got != tc.want {
			t.Fatalf("PeriodFromFilename(%q, %q): expected %+v, got %+v", tc.tipo, tc.filename, tc.want, got)
		}
	}
}

func TestPeriodFromFilename_NoMatch(t *testing.T) {
	if _, err := PeriodFromFilename("M1", "sin-periodo.csv"); !errors.Is(err, ErrPeriodInference) {
		t.Fatalf("expected ErrPeriodInference, got %v", err)
	}
}

func TestPeriodFromDelimitedToken_RequiresBothDelimiters(t *testing.T) {
	if _, err := PeriodFromDelimitedToken("ACUMCIL_202312.csv"); !errors.Is(err, ErrPeriodInference) {
		t.Fatalf("expected ErrPeriodInference for trailing-only token, got %v", err)
	}
	got, err := PeriodFromDelimitedToken("ACUMCIL_202312_v1.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Period{2023, 12}) {
		t.Fatalf("expected 2023-12, got %+v", got)
	}
}

func TestPeriodFromRows_TakesLatestFechaFinal(t *testing.T) {
	rows := []Row{
		{"Fecha_final": "2024-01-31"},
		{"Fecha_final": "2024-02-29"},
		{"Fecha_final": "2024-01-15"},
	}
	got, err := PeriodFromRows(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Period{2024, 2}) {
		t.Fatalf("expected 2024-02, got %+v", got)
	}
}

func TestPeriodFromRows_MissingColumn(t *testing.T) {
	if _, err := PeriodFromRows([]Row{{"otra": "x"}}); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestPeriodFromRows_BadDate(t *testing.T) {
	rows := []Row{{"Fecha_final": "garbage"}}
	if _, err := PeriodFromRows(rows); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}
