package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	ingestion "medidas-cloud/internal/ingestion/domain"
)

func TestLocalStoreSave_LayoutAndContent(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	file := &ingestion.File{TenantID: 1, EmpresaID: 2, Tipo: "M1", Anio: 2024, Mes: 3, Filename: "M1_202403.csv"}
	key, err := store.Save(file, strings.NewReader("contenido"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	want := filepath.Join(root, "tenant_1", "empresa_2", "M1", "202403", "M1_202403.csv")
	if key != want {
		t.Fatalf("expected key %s, got %s", want, key)
	}
	data, err := os.ReadFile(key)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "contenido" {
		t.Fatalf("expected stored content, got %q", data)
	}
}

func TestLocalStoreSave_StripsPathFromFilename(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	file := &ingestion.File{TenantID: 1, EmpresaID: 2, Tipo: "M1", Anio: 2024, Mes: 3, Filename: "../../evil/M1_202403.csv"}
	key, err := store.Save(file, strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(key) != "M1_202403.csv" {
		t.Fatalf("expected base name only, got %s", key)
	}
	if strings.Contains(key, "evil") {
		t.Fatalf("expected traversal stripped, got %s", key)
	}
}

func TestLocalStoreRemove_MissingFileIsSilent(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	store.Remove(filepath.Join(store.root, "no-such-file"))
}
