package measures

// RecalcNetAndLosses recomputes the derived metrics of the base set and
// of every BALD window. It is unconditionally re-run in full after any
// base metric changes so no window is ever left stale.
func RecalcNetAndLosses(mg *MedidaGeneral) {
	if mg == nil {
		return
	}

	neta := mg.EnergiaBrutaFacturada - mg.EnergiaAutoconsumoKWh
	mg.EnergiaNetaFacturadaKWh = neta

	perdidas := mg.EnergiaPFFinalKWh - neta
	mg.PerdidasKWh = perdidas
	mg.PerdidasPct = lossPct(perdidas, neta+mg.EnergiaFronteraDDKWh)

	for _, w := range Windows() {
		wm := mg.WindowMetrics(w)

		netaWin := wm.EnergiaPublicadaKWh - wm.EnergiaAutoconsumoKWh
		wm.EnergiaNetaFacturadaKWh = netaWin

		// Windowed pf_final is computed inline, never stored.
		pfFinalWin := wm.EnergiaPFKWh + wm.EnergiaGeneradaKWh - wm.EnergiaFronteraDDKWh

		perdidasWin := pfFinalWin - netaWin
		wm.PerdidasKWh = perdidasWin
		wm.PerdidasPct = lossPct(perdidasWin, netaWin+wm.EnergiaFronteraDDKWh)
	}
}

// RecalcPFFinal recomputes the stored base pf_final from its inputs and
// then cascades into net and loss recalculation.
func RecalcPFFinal(mg *MedidaGeneral) {
	if mg == nil {
		return
	}
	mg.EnergiaPFFinalKWh = mg.EnergiaPFKWh + mg.EnergiaGeneradaKWh - mg.EnergiaFronteraDDKWh
	RecalcNetAndLosses(mg)
}

// lossPct returns perdidas/denom as a percentage, or nil (not zero) when
// the denominator is not positive.
func lossPct(perdidas, denom float64) *float64 {
	if denom <= 0 {
		return nil
	}
	pct := (perdidas / denom) * 100.0
	return &pct
}
