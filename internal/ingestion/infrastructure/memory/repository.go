package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	ingestion "medidas-cloud/internal/ingestion/domain"
)

// FileRepository is an in-memory FileStore for tests.
type FileRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]*ingestion.File
}

// NewFileRepository constructs an empty repository.
func NewFileRepository() *FileRepository {
	return &FileRepository{rows: make(map[int64]*ingestion.File)}
}

func cloneFile(f *ingestion.File) *ingestion.File {
	if f == nil {
		return nil
	}
	out := *f
	if f.ProcessedAt != nil {
		t := *f.ProcessedAt
		out.ProcessedAt = &t
	}
	return &out
}

// GetByID fetches one tenant file.
func (r *FileRepository) GetByID(_ context.Context, tenantID, id int64) (*ingestion.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.rows[id]
	if !ok || f.TenantID != tenantID {
		return nil, nil
	}
	return cloneFile(f), nil
}

// FindByNaturalKey fetches the file for (tenant, empresa, tipo, periodo).
func (r *FileRepository) FindByNaturalKey(_ context.Context, tenantID, empresaID int64, tipo string, anio, mes int) (*ingestion.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.rows {
		if f.TenantID == tenantID && f.EmpresaID == empresaID && f.Tipo == tipo && f.Anio == anio && f.Mes == mes {
			return cloneFile(f), nil
		}
	}
	return nil, nil
}

// Create inserts a file row and assigns its id.
func (r *FileRepository) Create(_ context.Context, f *ingestion.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	f.ID = r.nextID
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	r.rows[f.ID] = cloneFile(f)
	return nil
}

// Update overwrites an existing row.
func (r *FileRepository) Update(_ context.Context, f *ingestion.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[f.ID]; !ok {
		return ingestion.ErrFileNotFound
	}
	f.UpdatedAt = time.Now().UTC()
	r.rows[f.ID] = cloneFile(f)
	return nil
}

func matches(f *ingestion.File, filter ingestion.Filter) bool {
	if filter.EmpresaID != nil && f.EmpresaID != *filter.EmpresaID {
		return false
	}
	if filter.Tipo != nil && f.Tipo != *filter.Tipo {
		return false
	}
	if filter.Status != nil && f.Status != *filter.Status {
		return false
	}
	if filter.Anio != nil && f.Anio != *filter.Anio {
		return false
	}
	if filter.Mes != nil && f.Mes != *filter.Mes {
		return false
	}
	return true
}

// List returns tenant files matching the filter.
func (r *FileRepository) List(_ context.Context, tenantID int64, filter ingestion.Filter) ([]*ingestion.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*ingestion.File
	for _, f := range r.rows {
		if f.TenantID == tenantID && matches(f, filter) {
			result = append(result, cloneFile(f))
		}
	}
	return result, nil
}

// Delete removes matching rows and returns their ids.
func (r *FileRepository) Delete(_ context.Context, tenantID int64, filter ingestion.Filter) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for id, f := range r.rows {
		if f.TenantID == tenantID && matches(f, filter) {
			delete(r.rows, id)
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// BlobRepository is an in-memory BlobStore for tests. Storage keys are
// synthetic paths; Content returns what was saved under a key.
type BlobRepository struct {
	mu     sync.RWMutex
	nextID int64
	blobs  map[string][]byte
}

// NewBlobRepository constructs an empty store.
func NewBlobRepository() *BlobRepository {
	return &BlobRepository{blobs: make(map[string][]byte)}
}

// Save stores content under a fresh key.
func (b *BlobRepository) Save(f *ingestion.File, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	key := fmt.Sprintf("mem://%d/%s", b.nextID, f.Filename)
	b.blobs[key] = bytes.Clone(data)
	return key, nil
}

// Remove forgets a key.
func (b *BlobRepository) Remove(storageKey string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, storageKey)
}

// Has reports whether a key is still stored.
func (b *BlobRepository) Has(storageKey string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.blobs[storageKey]
	return ok
}
