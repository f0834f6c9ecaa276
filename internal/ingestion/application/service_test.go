package application

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	ingestion "medidas-cloud/internal/ingestion/domain"
	ingestmemory "medidas-cloud/internal/ingestion/infrastructure/memory"
	"medidas-cloud/internal/ingestion/infrastructure/storage"
	measuresmemory "medidas-cloud/internal/measures/infrastructure/memory"
)

type serviceFixture struct {
	service *Service
	files   *ingestmemory.FileRepository
	general *measuresmemory.GeneralRepository
	ps      *measuresmemory.PSRepository
	blobs   *storage.LocalStore
}

func newServiceFixture(t *testing.T, deleteAfterOK bool) *serviceFixture {
	t.Helper()
	files := ingestmemory.NewFileRepository()
	general := measuresmemory.NewGeneralRepository()
	ps := measuresmemory.NewPSRepository()
	blobs, err := storage.NewLocalStore(t.TempDir(), log.New(os.Stderr, "", 0))
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	processors, err := NewProcessors(general, ps)
	if err != nil {
		t.Fatalf("processors: %v", err)
	}
	service, err := NewService(files, blobs, processors, general, ps, deleteAfterOK, log.New(os.Stderr, "", 0))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return &serviceFixture{service: service, files: files, general: general, ps: ps, blobs: blobs}
}

func (f *serviceFixture) upload(t *testing.T, tipo, filename, content string) *ingestion.File {
	t.Helper()
	file, err := f.service.Upload(context.Background(), 1, 2, 10, tipo, filename, strings.NewReader(content))
	if err != nil {
		t.Fatalf("upload %s: %v", filename, err)
	}
	return file
}

func TestServiceUpload_InfersPeriodAndStartsPending(t *testing.T) {
	f := newServiceFixture(t, false)
	file := f.upload(t, "M1", "M1_202401.csv", "Fecha_final;Energia_Kwh\n2024-01-31;10\n")

	if file.Status != ingestion.StatusPending {
		t.Fatalf("expected pending, got %s", file.Status)
	}
	if file.Anio != 2024 || file.Mes != 1 {
		t.Fatalf("expected period 2024-01, got %d-%d", file.Anio, file.Mes)
	}
	if file.StorageKey == "" {
		t.Fatal("expected storage key")
	}
	if _, err := os.Stat(file.StorageKey); err != nil {
		t.Fatalf("expected stored blob: %v", err)
	}
}

func TestServiceUpload_RejectsUninferrablePeriod(t *testing.T) {
	f := newServiceFixture(t, false)
	_, err := f.service.Upload(context.Background(), 1, 2, 10, "M1", "sin-periodo.csv", strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected error for filename without period token")
	}
}

func TestServiceUpload_SupersedesExisting(t *testing.T) {
	f := newServiceFixture(t, false)
	first := f.upload(t, "M1", "M1_202401.csv", "Fecha_final;Energia_Kwh\n2024-01-31;10\n")

	processed, err := f.service.Process(context.Background(), 1, first.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if processed.Status != ingestion.StatusOK {
		t.Fatalf("expected ok, got %s (%s)", processed.Status, processed.ErrorMessage)
	}

	second := f.upload(t, "M1", "M1_v2_202401.csv", "Fecha_final;Energia_Kwh\n2024-01-31;20\n")
	if second.ID != first.ID {
		t.Fatalf("expected same row superseded, got ids %d and %d", first.ID, second.ID)
	}
	if second.Status != ingestion.StatusPending {
		t.Fatalf("expected reset to pending, got %s", second.Status)
	}
	if second.RowsOK != 0 || second.RowsError != 0 || second.ProcessedAt != nil {
		t.Fatalf("expected counters cleared, got %+v", second)
	}
	if second.Filename != "M1_v2_202401.csv" {
		t.Fatalf("expected new filename, got %s", second.Filename)
	}
	// The first blob is unlinked once replaced.
	if _, err := os.Stat(first.StorageKey); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected old blob removed, got %v", err)
	}
}

func TestServiceProcess_M1EndToEnd(t *testing.T) {
	f := newServiceFixture(t, false)
	file := f.upload(t, "M1", "M1_202401.csv", "Fecha_final;Energia_Kwh\n2024-01-31;10,5\n2024-01-15;2\n")

	processed, err := f.service.Process(context.Background(), 1, file.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if processed.Status != ingestion.StatusOK {
		t.Fatalf("expected ok, got %s (%s)", processed.Status, processed.ErrorMessage)
	}
	if processed.RowsOK != 1 || processed.RowsError != 0 {
		t.Fatalf("expected attempt counters 1/0, got %d/%d", processed.RowsOK, processed.RowsError)
	}
	if processed.ProcessedAt == nil {
		t.Fatal("expected processed_at set")
	}

	mg, err := f.general.FindOrCreate(context.Background(), 1, 2, "M1", 2024, 1)
	if err != nil {
		t.Fatalf("find aggregate: %v", err)
	}
	if mg.EnergiaBrutaFacturada != 12.5 {
		t.Fatalf("expected bruta 12.5, got %v", mg.EnergiaBrutaFacturada)
	}
}

func TestServiceProcess_UnsupportedTypeFailsWithoutProcessing(t *testing.T) {
	f := newServiceFixture(t, false)
	file := f.upload(t, "FOO", "FOO_202401.csv", "a;b\n1;2\n")

	processed, err := f.service.Process(context.Background(), 1, file.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if processed.Status != ingestion.StatusError {
		t.Fatalf("expected error status, got %s", processed.Status)
	}
	if !strings.Contains(processed.ErrorMessage, "FOO") {
		t.Fatalf("expected error message naming the type, got %q", processed.ErrorMessage)
	}
	if processed.RowsError != 1 {
		t.Fatalf("expected rows_error 1, got %d", processed.RowsError)
	}

	// No aggregate may exist for the period.
	rows, err := f.general.List(context.Background(), 1, nil, nil, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no aggregates, got %d", len(rows))
	}
}

func TestServiceProcess_FailedFileCanBeRetried(t *testing.T) {
	f := newServiceFixture(t, false)
	// Header only: the M1 processor rejects files without data rows.
	file := f.upload(t, "M1", "M1_202401.csv", "Fecha_final;Energia_Kwh\n")

	processed, err := f.service.Process(context.Background(), 1, file.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if processed.Status != ingestion.StatusError {
		t.Fatalf("expected error, got %s", processed.Status)
	}

	// Error files stay processable.
	again, err := f.service.Process(context.Background(), 1, file.ID)
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if again.RowsError != 2 {
		t.Fatalf("expected rows_error 2 after retry, got %d", again.RowsError)
	}
}

func TestServiceProcess_OKFileNotProcessable(t *testing.T) {
	f := newServiceFixture(t, false)
	file := f.upload(t, "M1", "M1_202401.csv", "Fecha_final;Energia_Kwh\n2024-01-31;1\n")
	if _, err := f.service.Process(context.Background(), 1, file.ID); err != nil {
		t.Fatalf("process: %v", err)
	}
	if _, err := f.service.Process(context.Background(), 1, file.ID); !errors.Is(err, ingestion.ErrNotProcessable) {
		t.Fatalf("expected ErrNotProcessable, got %v", err)
	}
}

func TestServiceProcess_NotFound(t *testing.T) {
	f := newServiceFixture(t, false)
	if _, err := f.service.Process(context.Background(), 1, 999); !errors.Is(err, ingestion.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestServiceProcess_DeleteAfterOK(t *testing.T) {
	f := newServiceFixture(t, true)
	file := f.upload(t, "M1", "M1_202401.csv", "Fecha_final;Energia_Kwh\n2024-01-31;1\n")

	processed, err := f.service.Process(context.Background(), 1, file.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if processed.Status != ingestion.StatusOK {
		t.Fatalf("expected ok, got %s (%s)", processed.Status, processed.ErrorMessage)
	}
	if _, err := os.Stat(file.StorageKey); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected blob removed after ok, got %v", err)
	}
}

func TestServiceProcess_BALDUsesDeclaredPeriodAndWindow(t *testing.T) {
	f := newServiceFixture(t, false)
	// Positional BALD row: only the fields read by the processor matter.
	fields := make([]string, 29)
	fields[0] = "UP001"
	fields[2] = "30"  // ED
	fields[3] = "20"  // CIL
	fields[7] = "50"  // DD_S
	fields[22] = "1000" // Demanda_suministrada
	fields[23] = "100"  // Demanda_vertida
	fields[25] = "900"  // Adquisicion
	content := strings.Join(fields, ";") + "\n"

	file := f.upload(t, "BALD", "BALD_5_202401_20240815.csv", content)
	processed, err := f.service.Process(context.Background(), 1, file.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if processed.Status != ingestion.StatusOK {
		t.Fatalf("expected ok, got %s (%s)", processed.Status, processed.ErrorMessage)
	}

	mg, err := f.general.FindOrCreate(context.Background(), 1, 2, "BALD", 2024, 1)
	if err != nil {
		t.Fatalf("find aggregate: %v", err)
	}
	// Published 7 months after the period: lands on the M7 window.
	if mg.M7.EnergiaPublicadaKWh != 1000 {
		t.Fatalf("expected M7 publicada 1000, got %v", mg.M7.EnergiaPublicadaKWh)
	}
	if mg.M7.EnergiaGeneradaKWh != 50 {
		t.Fatalf("expected M7 generada 50, got %v", mg.M7.EnergiaGeneradaKWh)
	}
	if mg.M2.EnergiaPublicadaKWh != 0 {
		t.Fatal("expected M2 untouched")
	}
}

func TestServicePurge_RemovesFilesAndAggregates(t *testing.T) {
	f := newServiceFixture(t, false)
	file := f.upload(t, "M1", "M1_202401.csv", "Fecha_final;Energia_Kwh\n2024-01-31;5\n")
	if _, err := f.service.Process(context.Background(), 1, file.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	result, err := f.service.Purge(context.Background(), 1, ingestion.Filter{})
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if result.DeletedFiles != 1 {
		t.Fatalf("expected 1 deleted file, got %d", result.DeletedFiles)
	}
	if result.DeletedMedidasGeneral != 1 {
		t.Fatalf("expected 1 deleted aggregate, got %d", result.DeletedMedidasGeneral)
	}

	rows, err := f.general.List(context.Background(), 1, nil, nil, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected aggregates purged, got %d", len(rows))
	}
}
