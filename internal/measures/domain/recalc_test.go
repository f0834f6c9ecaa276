package measures

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRecalcPFFinal(t *testing.T) {
	mg := &MedidaGeneral{
		EnergiaPFKWh:         100,
		EnergiaGeneradaKWh:   50,
		EnergiaFronteraDDKWh: 30,
	}
	RecalcPFFinal(mg)
	if !almostEqual(mg.EnergiaPFFinalKWh, 120) {
		t.Fatalf("expected pf_final 120, got %v", mg.EnergiaPFFinalKWh)
	}
}

func TestRecalcNetAndLosses_Base(t *testing.T) {
	mg := &MedidaGeneral{
		EnergiaBrutaFacturada: 1000,
		EnergiaAutoconsumoKWh: 100,
		EnergiaPFFinalKWh:     950,
		EnergiaFronteraDDKWh:  50,
	}
	RecalcNetAndLosses(mg)
	if !almostEqual(mg.EnergiaNetaFacturadaKWh, 900) {
		t.Fatalf("expected neta 900, got %v", mg.EnergiaNetaFacturadaKWh)
	}
	if !almostEqual(mg.PerdidasKWh, 50) {
		t.Fatalf("expected perdidas 50, got %v", mg.PerdidasKWh)
	}
	if mg.PerdidasPct == nil {
		t.Fatal("expected perdidas_pct to be set")
	}
	// 50 / (900 + 50) * 100
	if !almostEqual(*mg.PerdidasPct, 50.0/950.0*100.0) {
		t.Fatalf("expected pct %v, got %v", 50.0/950.0*100.0, *mg.PerdidasPct)
	}
}

func TestRecalcNetAndLosses_NilPctOnZeroDenominator(t *testing.T) {
	mg := &MedidaGeneral{}
	RecalcNetAndLosses(mg)
	if mg.PerdidasPct != nil {
		t.Fatalf("expected nil pct, got %v", *mg.PerdidasPct)
	}
	for _, w := range Windows() {
		if mg.WindowMetrics(w).PerdidasPct != nil {
			t.Fatalf("expected nil pct for window %s", w)
		}
	}
}

func TestRecalcNetAndLosses_Windows(t *testing.T) {
	mg := &MedidaGeneral{}
	wm := mg.WindowMetrics(WindowM11)
	wm.EnergiaPublicadaKWh = 500
	wm.EnergiaAutoconsumoKWh = 100
	wm.EnergiaPFKWh = 300
	wm.EnergiaGeneradaKWh = 200
	wm.EnergiaFronteraDDKWh = 60

	RecalcNetAndLosses(mg)

	if !almostEqual(wm.EnergiaNetaFacturadaKWh, 400) {
		t.Fatalf("expected window neta 400, got %v", wm.EnergiaNetaFacturadaKWh)
	}
	// pf_final inline: 300 + 200 - 60 = 440; perdidas = 440 - 400 = 40.
	if !almostEqual(wm.PerdidasKWh, 40) {
		t.Fatalf("expected window perdidas 40, got %v", wm.PerdidasKWh)
	}
	if wm.PerdidasPct == nil || !almostEqual(*wm.PerdidasPct, 40.0/460.0*100.0) {
		t.Fatalf("unexpected window pct: %v", wm.PerdidasPct)
	}
	// Untouched windows stay zero with nil pct.
	if mg.M2.PerdidasPct != nil || !almostEqual(mg.M2.PerdidasKWh, 0) {
		t.Fatal("expected M2 to remain zeroed")
	}
}

func TestClone_IndependentPct(t *testing.T) {
	pct := 12.5
	mg := &MedidaGeneral{PerdidasPct: &pct}
	clone := mg.Clone()
	*clone.PerdidasPct = 99
	if *mg.PerdidasPct != 12.5 {
		t.Fatal("expected clone pct to be independent")
	}
}
