package measures

import "time"

// PSBlock is one breakdown bucket of a PS report: billed energy, number
// of distinct supply points (CUPS) and billed amount.
type PSBlock struct {
	EnergiaKWh float64
	CUPS       int
	ImporteEUR float64
}

// TarifaClass pairs a tariff code as it appears in PS files with the
// column suffix used for persistence.
type TarifaClass struct {
	Code   string
	Suffix string
}

// TarifaClasses lists the access tariff classes broken out by the PS
// aggregate, in persistence order.
func TarifaClasses() []TarifaClass {
	return []TarifaClass{
		{Code: "2.0TD", Suffix: "20td"},
		{Code: "3.0TD", Suffix: "30td"},
		{Code: "3.0TDVE", Suffix: "30tdve"},
		{Code: "6.1TD", Suffix: "61td"},
		{Code: "6.2TD", Suffix: "62td"},
		{Code: "6.3TD", Suffix: "63td"},
		{Code: "6.4TD", Suffix: "64td"},
	}
}

// NumPolicyTypes is the number of poliza types (1..5) broken out.
const NumPolicyTypes = 5

// MedidaPS is the monthly PS policy/tariff aggregate, one row per
// (tenant, empresa, punto_id="PS", anio, mes). Unlike MedidaGeneral it is
// derived by full recomputation: every PS file for a period overwrites
// the whole row.
type MedidaPS struct {
	ID        int64
	TenantID  int64
	EmpresaID int64
	PuntoID   string
	Anio      int
	Mes       int

	// Tipos[i] is poliza type i+1.
	Tipos     [NumPolicyTypes]PSBlock
	TipoTotal PSBlock

	// Tarifas is parallel to TarifaClasses().
	Tarifas [7]PSBlock

	FileID int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy (the struct holds no reference fields).
func (mp *MedidaPS) Clone() *MedidaPS {
	if mp == nil {
		return nil
	}
	out := *mp
	return &out
}
