package ingestion

import "time"

// File statuses. A file makes a single processing attempt per dispatch:
// pending -> processing -> ok|error. A re-upload for the same
// (tenant, empresa, tipo, periodo) resets the row to pending.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusOK         = "ok"
	StatusError      = "error"
)

// Supported file type tags, matched case-insensitively on dispatch.
const (
	TipoM1            = "M1"
	TipoM1Autoconsumo = "M1_AUTOCONSUMO"
	TipoAcumcil       = "ACUMCIL"
	TipoAcumH2GRD     = "ACUM_H2_GRD"
	TipoAcumH2GEN     = "ACUM_H2_GEN"
	TipoAcumH2RDDP1   = "ACUM_H2_RDD_P1"
	TipoAcumH2RDDP2   = "ACUM_H2_RDD_P2"
	TipoPS            = "PS"
	TipoBALD          = "BALD"
)

// KnownTipo reports whether a (case-insensitivity already applied) type
// tag has a processor.
func KnownTipo(tipo string) bool {
	switch tipo {
	case TipoM1, TipoM1Autoconsumo, TipoAcumcil, TipoAcumH2GRD, TipoAcumH2GEN,
		TipoAcumH2RDDP1, TipoAcumH2RDDP2, TipoPS, TipoBALD:
		return true
	default:
		return false
	}
}

// File is one uploaded metering artifact. Processors receive it
// read-only; only the orchestrator mutates status and counters.
type File struct {
	ID        int64
	TenantID  int64
	EmpresaID int64
	Tipo      string
	Anio      int
	Mes       int

	Filename   string
	StorageKey string

	Status       string
	UploadedBy   int64
	RowsOK       int
	RowsError    int
	ErrorMessage string
	ProcessedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
