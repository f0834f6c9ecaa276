package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	measures "medidas-cloud/internal/measures/domain"
)

func periodKey(tenantID, empresaID int64, anio, mes int) string {
	return fmt.Sprintf("%d/%d/%d/%d", tenantID, empresaID, anio, mes)
}

// GeneralRepository is an in-memory GeneralStore for tests.
type GeneralRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[string]*measures.MedidaGeneral
}

// NewGeneralRepository constructs an empty repository.
func NewGeneralRepository() *GeneralRepository {
	return &GeneralRepository{rows: make(map[string]*measures.MedidaGeneral)}
}

// FindOrCreate loads or inserts the row for (tenant, empresa, anio, mes).
func (r *GeneralRepository) FindOrCreate(_ context.Context, tenantID, empresaID int64, puntoID string, anio, mes int) (*measures.MedidaGeneral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := periodKey(tenantID, empresaID, anio, mes)
	if existing, ok := r.rows[key]; ok {
		return existing.Clone(), nil
	}
	r.nextID++
	now := time.Now().UTC()
	mg := &measures.MedidaGeneral{
		ID:        r.nextID,
		TenantID:  tenantID,
		EmpresaID: empresaID,
		PuntoID:   puntoID,
		Anio:      anio,
		Mes:       mes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.rows[key] = mg.Clone()
	return mg, nil
}

// Save overwrites the stored row.
func (r *GeneralRepository) Save(_ context.Context, mg *measures.MedidaGeneral) error {
	if mg == nil {
		return measures.ErrNilAggregate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := periodKey(mg.TenantID, mg.EmpresaID, mg.Anio, mg.Mes)
	if _, ok := r.rows[key]; !ok {
		return measures.ErrAggregateNotFound
	}
	mg.UpdatedAt = time.Now().UTC()
	r.rows[key] = mg.Clone()
	return nil
}

// List returns tenant rows matching the optional filters.
func (r *GeneralRepository) List(_ context.Context, tenantID int64, empresaID *int64, anio, mes *int) ([]*measures.MedidaGeneral, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*measures.MedidaGeneral
	for _, mg := range r.rows {
		if mg.TenantID != tenantID {
			continue
		}
		if empresaID != nil && mg.EmpresaID != *empresaID {
			continue
		}
		if anio != nil && mg.Anio != *anio {
			continue
		}
		if mes != nil && mg.Mes != *mes {
			continue
		}
		result = append(result, mg.Clone())
	}
	return result, nil
}

// DeleteByFileIDs removes rows whose file_id is in fileIDs.
func (r *GeneralRepository) DeleteByFileIDs(_ context.Context, tenantID int64, fileIDs []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[int64]bool, len(fileIDs))
	for _, id := range fileIDs {
		ids[id] = true
	}
	var deleted int64
	for key, mg := range r.rows {
		if mg.TenantID == tenantID && ids[mg.FileID] {
			delete(r.rows, key)
			deleted++
		}
	}
	return deleted, nil
}

// PSRepository is an in-memory PSStore for tests.
type PSRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[string]*measures.MedidaPS
}

// NewPSRepository constructs an empty repository.
func NewPSRepository() *PSRepository {
	return &PSRepository{rows: make(map[string]*measures.MedidaPS)}
}

// FindOrCreate loads or inserts the row for (tenant, empresa, anio, mes).
func (r *PSRepository) FindOrCreate(_ context.Context, tenantID, empresaID int64, puntoID string, anio, mes int) (*measures.MedidaPS, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := periodKey(tenantID, empresaID, anio, mes)
	if existing, ok := r.rows[key]; ok {
		return existing.Clone(), nil
	}
	r.nextID++
	now := time.Now().UTC()
	mp := &measures.MedidaPS{
		ID:        r.nextID,
		TenantID:  tenantID,
		EmpresaID: empresaID,
		PuntoID:   puntoID,
		Anio:      anio,
		Mes:       mes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.rows[key] = mp.Clone()
	return mp, nil
}

// Save overwrites the stored row.
func (r *PSRepository) Save(_ context.Context, mp *measures.MedidaPS) error {
	if mp == nil {
		return measures.ErrNilAggregate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := periodKey(mp.TenantID, mp.EmpresaID, mp.Anio, mp.Mes)
	if _, ok := r.rows[key]; !ok {
		return measures.ErrAggregateNotFound
	}
	mp.UpdatedAt = time.Now().UTC()
	r.rows[key] = mp.Clone()
	return nil
}

// List returns tenant rows matching the optional filters.
func (r *PSRepository) List(_ context.Context, tenantID int64, empresaID *int64, anio, mes *int) ([]*measures.MedidaPS, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*measures.MedidaPS
	for _, mp := range r.rows {
		if mp.TenantID != tenantID {
			continue
		}
		if empresaID != nil && mp.EmpresaID != *empresaID {
			continue
		}
		if anio != nil && mp.Anio != *anio {
			continue
		}
		if mes != nil && mp.Mes != *mes {
			continue
		}
		result = append(result, mp.Clone())
	}
	return result, nil
}

// DeleteByFileIDs removes rows whose file_id is in fileIDs.
func (r *PSRepository) DeleteByFileIDs(_ context.Context, tenantID int64, fileIDs []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[int64]bool, len(fileIDs))
	for _, id := range fileIDs {
		ids[id] = true
	}
	var deleted int64
	for key, mp := range r.rows {
		if mp.TenantID == tenantID && ids[mp.FileID] {
			delete(r.rows, key)
			deleted++
		}
	}
	return deleted, nil
}
