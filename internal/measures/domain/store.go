package measures

import "context"

// GeneralStore is the upsert-by-natural-key contract for monthly energy
// balance rows. FindOrCreate must look rows up by (tenant, empresa, anio,
// mes) only; puntoID is recorded as provenance when the row is created.
type GeneralStore interface {
	FindOrCreate(ctx context.Context, tenantID, empresaID int64, puntoID string, anio, mes int) (*MedidaGeneral, error)
	Save(ctx context.Context, mg *MedidaGeneral) error
	DeleteByFileIDs(ctx context.Context, tenantID int64, fileIDs []int64) (int64, error)
}

// PSStore is the upsert-by-natural-key contract for monthly PS rows.
type PSStore interface {
	FindOrCreate(ctx context.Context, tenantID, empresaID int64, puntoID string, anio, mes int) (*MedidaPS, error)
	Save(ctx context.Context, mp *MedidaPS) error
	DeleteByFileIDs(ctx context.Context, tenantID int64, fileIDs []int64) (int64, error)
}
