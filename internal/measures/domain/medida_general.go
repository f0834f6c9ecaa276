package measures

import "time"

// WindowMetrics holds the per-window slice of the monthly energy balance.
// The five inputs are written by the BALD processor; the last three are
// derived and only ever written by the recalculation cascade.
type WindowMetrics struct {
	EnergiaPublicadaKWh   float64
	EnergiaAutoconsumoKWh float64
	EnergiaPFKWh          float64
	EnergiaFronteraDDKWh  float64
	EnergiaGeneradaKWh    float64

	EnergiaNetaFacturadaKWh float64
	PerdidasKWh             float64
	PerdidasPct             *float64
}

// MedidaGeneral is the monthly energy balance aggregate, one row per
// (tenant, empresa, anio, mes). PuntoID records the first contributing
// source for provenance and is not part of the lookup key.
type MedidaGeneral struct {
	ID        int64
	TenantID  int64
	EmpresaID int64
	PuntoID   string
	Anio      int
	Mes       int

	EnergiaBrutaFacturada float64
	EnergiaAutoconsumoKWh float64
	EnergiaGeneradaKWh    float64
	EnergiaFronteraDDKWh  float64
	EnergiaPFKWh          float64

	EnergiaPFFinalKWh       float64
	EnergiaNetaFacturadaKWh float64
	PerdidasKWh             float64
	PerdidasPct             *float64

	M2    WindowMetrics
	M7    WindowMetrics
	M11   WindowMetrics
	Art15 WindowMetrics

	// Last file that touched this row, regardless of which field.
	FileID int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WindowMetrics returns the mutable per-window block for a window.
func (mg *MedidaGeneral) WindowMetrics(w Window) *WindowMetrics {
	switch w {
	case WindowM7:
		return &mg.M7
	case WindowM11:
		return &mg.M11
	case WindowArt15:
		return &mg.Art15
	default:
		return &mg.M2
	}
}

// Clone returns a deep copy.
func (mg *MedidaGeneral) Clone() *MedidaGeneral {
	if mg == nil {
		return nil
	}
	out := *mg
	out.PerdidasPct = clonePct(mg.PerdidasPct)
	out.M2.PerdidasPct = clonePct(mg.M2.PerdidasPct)
	out.M7.PerdidasPct = clonePct(mg.M7.PerdidasPct)
	out.M11.PerdidasPct = clonePct(mg.M11.PerdidasPct)
	out.Art15.PerdidasPct = clonePct(mg.Art15.PerdidasPct)
	return &out
}

func clonePct(v *float64) *float64 {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}
