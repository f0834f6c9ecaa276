package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	ingestion "medidas-cloud/internal/ingestion/domain"
	"medidas-cloud/internal/ingestion/parse"
	measures "medidas-cloud/internal/measures/domain"
	"medidas-cloud/internal/observability/metrics"
)

// Service is the ingestion orchestrator: it owns the file lifecycle
// (pending -> processing -> ok|error), dispatches files to the processor
// for their declared type and triggers storage cleanup.
type Service struct {
	files      ingestion.FileStore
	blobs      ingestion.BlobStore
	processors *Processors
	general    measures.GeneralStore
	ps         measures.PSStore

	deleteAfterOK bool
	logger        *log.Logger
	keys          keyedMutex
}

// NewService constructs the orchestrator.
func NewService(files ingestion.FileStore, blobs ingestion.BlobStore, processors *Processors, general measures.GeneralStore, ps measures.PSStore, deleteAfterOK bool, logger *log.Logger) (*Service, error) {
	if files == nil {
		return nil, errors.New("ingestion service: nil file store")
	}
	if blobs == nil {
		return nil, errors.New("ingestion service: nil blob store")
	}
	if processors == nil {
		return nil, errors.New("ingestion service: nil processors")
	}
	if general == nil || ps == nil {
		return nil, errors.New("ingestion service: nil aggregate store")
	}
	return &Service{
		files:         files,
		blobs:         blobs,
		processors:    processors,
		general:       general,
		ps:            ps,
		deleteAfterOK: deleteAfterOK,
		logger:        logger,
	}, nil
}

// Upload stages a new file and registers (or supersedes) its ingestion
// row. The declared period is inferred from the filename up front: a
// filename no pattern matches aborts the upload. A fresh upload for an
// existing (tenant, empresa, tipo, periodo) resets that row to pending
// and unlinks the previously stored content.
func (s *Service) Upload(ctx context.Context, tenantID, empresaID, uploadedBy int64, tipo, filename string, content io.Reader) (*ingestion.File, error) {
	tipoNorm := strings.ToUpper(strings.TrimSpace(tipo))
	if filename == "" {
		return nil, fmt.Errorf("%w: file must have a name", ingestion.ErrValidation)
	}

	period, err := parse.PeriodFromFilename(tipoNorm, filename)
	if err != nil {
		return nil, err
	}

	file := &ingestion.File{
		TenantID:   tenantID,
		EmpresaID:  empresaID,
		Tipo:       tipoNorm,
		Anio:       period.Anio,
		Mes:        period.Mes,
		Filename:   filename,
		Status:     ingestion.StatusPending,
		UploadedBy: uploadedBy,
	}

	storageKey, err := s.blobs.Save(file, content)
	if err != nil {
		return nil, err
	}
	file.StorageKey = storageKey

	existing, err := s.files.FindByNaturalKey(ctx, tenantID, empresaID, tipoNorm, period.Anio, period.Mes)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		oldStorageKey := existing.StorageKey

		existing.Filename = filename
		existing.StorageKey = storageKey
		existing.Tipo = tipoNorm
		existing.Anio = period.Anio
		existing.Mes = period.Mes
		existing.Status = ingestion.StatusPending
		existing.RowsOK = 0
		existing.RowsError = 0
		existing.ErrorMessage = ""
		existing.ProcessedAt = nil
		if err := s.files.Update(ctx, existing); err != nil {
			return nil, err
		}
		if oldStorageKey != "" && oldStorageKey != storageKey {
			s.blobs.Remove(oldStorageKey)
		}
		metrics.IncFileUpload(tipoNorm)
		return existing, nil
	}

	if err := s.files.Create(ctx, file); err != nil {
		return nil, err
	}
	metrics.IncFileUpload(tipoNorm)
	return file, nil
}

// Process runs one processing attempt for a pending or errored file.
// Any parsing, period-resolution or processor failure is caught here and
// turned into a terminal error status; it never propagates to the
// caller, so one bad file cannot abort others.
func (s *Service) Process(ctx context.Context, tenantID, fileID int64) (*ingestion.File, error) {
	file, err := s.files.GetByID(ctx, tenantID, fileID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, ingestion.ErrFileNotFound
	}
	if file.Status != ingestion.StatusPending && file.Status != ingestion.StatusError {
		return nil, fmt.Errorf("%w: status %s", ingestion.ErrNotProcessable, file.Status)
	}
	if file.StorageKey == "" {
		return nil, ingestion.ErrNoStorageKey
	}

	tipo := strings.ToUpper(strings.TrimSpace(file.Tipo))

	// Unknown types never reach the processing state.
	if !ingestion.KnownTipo(tipo) {
		s.finish(ctx, file, fmt.Errorf("%w: %s", ingestion.ErrUnsupportedType, tipo))
		return file, nil
	}

	file.Status = ingestion.StatusProcessing
	if err := s.files.Update(ctx, file); err != nil {
		return nil, err
	}

	storageKey := file.StorageKey
	started := time.Now()

	// Serialize aggregate mutation per (tenant, empresa): accumulating
	// processors do read-modify-write on the same natural key and two
	// concurrent attempts would lose an update.
	unlock := s.keys.lock(fmt.Sprintf("%d/%d", file.TenantID, file.EmpresaID))
	processErr := s.dispatch(ctx, file, tipo, storageKey)
	unlock()

	metrics.ObserveFileProcessed(tipo, processErr, time.Since(started))
	s.finish(ctx, file, processErr)

	if processErr == nil && s.deleteAfterOK {
		s.blobs.Remove(storageKey)
	}
	return file, nil
}

func (s *Service) dispatch(ctx context.Context, file *ingestion.File, tipo, path string) error {
	tenantID, empresaID := file.TenantID, file.EmpresaID

	switch tipo {
	case ingestion.TipoM1:
		rows, err := parse.ReadHeadered(path)
		if err != nil {
			return err
		}
		_, err = s.processors.ProcessM1(ctx, tenantID, empresaID, file, rows)
		return err

	case ingestion.TipoM1Autoconsumo:
		rows, err := parse.ReadHeadered(path)
		if err != nil {
			return err
		}
		_, err = s.processors.ProcessM1Autoconsumo(ctx, tenantID, empresaID, file, rows)
		return err

	case ingestion.TipoAcumcil:
		rows, err := parse.ReadPositional(path, parse.AcumcilColumns)
		if err != nil {
			return err
		}
		_, err = s.processors.ProcessAcumcil(ctx, tenantID, empresaID, file, rows)
		return err

	case ingestion.TipoAcumH2GRD:
		rows, err := parse.ReadPositional(path, parse.AcumH2GRDColumns)
		if err != nil {
			return err
		}
		_, err = s.processors.ProcessAcumH2GRD(ctx, tenantID, empresaID, file, rows)
		return err

	case ingestion.TipoAcumH2GEN:
		rows, err := parse.ReadPositional(path, parse.AcumH2GENColumns)
		if err != nil {
			return err
		}
		_, err = s.processors.ProcessAcumH2GEN(ctx, tenantID, empresaID, file, rows)
		return err

	case ingestion.TipoAcumH2RDDP2:
		rows, err := parse.ReadPositional(path, parse.AcumH2RDDColumns)
		if err != nil {
			return err
		}
		_, err = s.processors.ProcessAcumH2RDDFronteraDD(ctx, tenantID, empresaID, file, rows, "AE")
		return err

	case ingestion.TipoAcumH2RDDP1:
		// P1 feeds two fields from the same file: frontier energy from
		// the AS rows, then policy-frontier energy from the AE rows.
		rows, err := parse.ReadPositional(path, parse.AcumH2RDDColumns)
		if err != nil {
			return err
		}
		if _, err := s.processors.ProcessAcumH2RDDFronteraDD(ctx, tenantID, empresaID, file, rows, "AS"); err != nil {
			return err
		}
		_, err = s.processors.ProcessAcumH2RDDPF(ctx, tenantID, empresaID, file, rows)
		return err

	case ingestion.TipoBALD:
		rows, err := parse.ReadPositional(path, parse.BaldColumns)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("%w: BALD file has no data rows", ingestion.ErrValidation)
		}
		window, err := measures.WindowFromFilename(file.Filename)
		if err != nil {
			return err
		}
		_, err = s.processors.ProcessBALD(ctx, tenantID, empresaID, file, window, rows[0])
		return err

	case ingestion.TipoPS:
		rows, err := parse.ReadHeadered(path)
		if err != nil {
			return err
		}
		rows = parse.CanonicalizePSHeaders(rows)
		result, err := s.processors.ProcessPS(ctx, tenantID, empresaID, file, rows)
		if err != nil {
			return err
		}
		if result.ExcludedRows > 0 {
			metrics.AddPSExcludedRows(result.ExcludedRows)
			if s.logger != nil {
				s.logger.Printf("ps file %d: %d rows excluded by Poliza classification", file.ID, result.ExcludedRows)
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: %s", ingestion.ErrUnsupportedType, tipo)
	}
}

// finish applies the terminal transition for one attempt. The counters
// are attempt-level: processors persist whole-file aggregates, not
// per-row records.
func (s *Service) finish(ctx context.Context, file *ingestion.File, processErr error) {
	now := time.Now().UTC()
	if processErr == nil {
		file.Status = ingestion.StatusOK
		file.RowsOK++
		file.ErrorMessage = ""
	} else {
		file.Status = ingestion.StatusError
		file.RowsError++
		file.ErrorMessage = processErr.Error()
		if s.logger != nil {
			s.logger.Printf("file %d (%s) failed: %v", file.ID, file.Tipo, processErr)
		}
	}
	file.ProcessedAt = &now
	if err := s.files.Update(ctx, file); err != nil && s.logger != nil {
		s.logger.Printf("file %d: status update failed: %v", file.ID, err)
	}
}

// List returns tenant files matching the filter.
func (s *Service) List(ctx context.Context, tenantID int64, filter ingestion.Filter) ([]*ingestion.File, error) {
	return s.files.List(ctx, tenantID, filter)
}

// PurgeResult reports a bulk administrative purge.
type PurgeResult struct {
	DeletedFiles          int64 `json:"deleted_ingestion_files"`
	DeletedMedidasGeneral int64 `json:"deleted_medidas_general"`
	DeletedMedidasPS      int64 `json:"deleted_medidas_ps"`
}

// Purge deletes matching file rows together with the aggregates whose
// provenance points at them.
func (s *Service) Purge(ctx context.Context, tenantID int64, filter ingestion.Filter) (PurgeResult, error) {
	ids, err := s.files.Delete(ctx, tenantID, filter)
	if err != nil {
		return PurgeResult{}, err
	}
	result := PurgeResult{DeletedFiles: int64(len(ids))}
	if len(ids) == 0 {
		return result, nil
	}
	if result.DeletedMedidasGeneral, err = s.general.DeleteByFileIDs(ctx, tenantID, ids); err != nil {
		return result, err
	}
	if result.DeletedMedidasPS, err = s.ps.DeleteByFileIDs(ctx, tenantID, ids); err != nil {
		return result, err
	}
	return result, nil
}
