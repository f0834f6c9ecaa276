package storage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	ingestion "medidas-cloud/internal/ingestion/domain"
)

// LocalStore writes uploaded files under a root directory, grouped as
// tenant_<id>/empresa_<id>/<TIPO>/<YYYYMM>/<filename>. The returned
// storage key is the absolute path of the written file.
type LocalStore struct {
	root   string
	logger *log.Logger
}

// NewLocalStore constructs a store rooted at root.
func NewLocalStore(root string, logger *log.Logger) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("storage: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: abs, logger: logger}, nil
}

// Save streams content to disk and returns the storage key.
func (s *LocalStore) Save(f *ingestion.File, content io.Reader) (string, error) {
	if s == nil {
		return "", errors.New("storage: nil store")
	}
	if f == nil {
		return "", errors.New("storage: nil file")
	}
	name := filepath.Base(f.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("storage: invalid filename %q", f.Filename)
	}
	dir := filepath.Join(s.root,
		fmt.Sprintf("tenant_%d", f.TenantID),
		fmt.Sprintf("empresa_%d", f.EmpresaID),
		f.Tipo,
		fmt.Sprintf("%04d%02d", f.Anio, f.Mes),
	)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, content); err != nil {
		out.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// Remove unlinks a stored file. Failures are logged, never returned: a
// leftover blob must not fail the operation that triggered the cleanup.
func (s *LocalStore) Remove(storageKey string) {
	if s == nil || storageKey == "" {
		return
	}
	if err := os.Remove(storageKey); err != nil && !errors.Is(err, os.ErrNotExist) {
		if s.logger != nil {
			s.logger.Printf("storage: could not remove %s: %v", storageKey, err)
		}
	}
}
