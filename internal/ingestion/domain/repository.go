package ingestion

import (
	"context"
	"io"
)

// Filter narrows file listings and purges. Nil fields match everything.
type Filter struct {
	EmpresaID *int64
	Tipo      *string
	Status    *string
	Anio      *int
	Mes       *int
}

// FileStore persists ingestion file rows. One row exists per
// (tenant, empresa, tipo, anio, mes); re-uploads update it in place.
type FileStore interface {
	GetByID(ctx context.Context, tenantID, id int64) (*File, error)
	FindByNaturalKey(ctx context.Context, tenantID, empresaID int64, tipo string, anio, mes int) (*File, error)
	Create(ctx context.Context, f *File) error
	Update(ctx context.Context, f *File) error
	List(ctx context.Context, tenantID int64, filter Filter) ([]*File, error)
	// Delete removes matching rows and returns their ids so callers can
	// purge dependent aggregates by provenance.
	Delete(ctx context.Context, tenantID int64, filter Filter) ([]int64, error)
}

// BlobStore stages uploaded file content and resolves it back to a
// readable local path (the storage key).
type BlobStore interface {
	Save(f *File, content io.Reader) (storageKey string, err error)
	// Remove deletes stored content, best-effort: it never fails the
	// surrounding flow.
	Remove(storageKey string)
}
