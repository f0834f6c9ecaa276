package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	ingestion "medidas-cloud/internal/ingestion/domain"
)

const fileColumns = `tenant_id, empresa_id, tipo, anio, mes, filename, storage_key,
	status, uploaded_by, rows_ok, rows_error, error_message, processed_at, created_at, updated_at`

// FileRepository persists ingestion file rows.
type FileRepository struct {
	db *sql.DB
}

// NewFileRepository constructs a repository.
func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

// GetByID fetches one tenant file.
func (r *FileRepository) GetByID(ctx context.Context, tenantID, id int64) (*ingestion.File, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("file repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, `+fileColumns+`
FROM ingestion_files
WHERE tenant_id = $1 AND id = $2
LIMIT 1`, tenantID, id)
	return scanFile(row)
}

// FindByNaturalKey fetches the file for (tenant, empresa, tipo, periodo).
func (r *FileRepository) FindByNaturalKey(ctx context.Context, tenantID, empresaID int64, tipo string, anio, mes int) (*ingestion.File, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("file repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, `+fileColumns+`
FROM ingestion_files
WHERE tenant_id = $1 AND empresa_id = $2 AND tipo = $3 AND anio = $4 AND mes = $5
LIMIT 1`, tenantID, empresaID, tipo, anio, mes)
	return scanFile(row)
}

// Create inserts a file row and assigns its id.
func (r *FileRepository) Create(ctx context.Context, f *ingestion.File) error {
	if r == nil || r.db == nil {
		return errors.New("file repo: nil db")
	}
	if f == nil {
		return errors.New("file repo: nil file")
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	return r.db.QueryRowContext(ctx, `
INSERT INTO ingestion_files (`+fileColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING id`,
		f.TenantID, f.EmpresaID, f.Tipo, f.Anio, f.Mes, f.Filename, f.StorageKey,
		f.Status, f.UploadedBy, f.RowsOK, f.RowsError, nullString(f.ErrorMessage),
		nullTime(f.ProcessedAt), f.CreatedAt, f.UpdatedAt,
	).Scan(&f.ID)
}

// Update writes every mutable field of an existing row.
func (r *FileRepository) Update(ctx context.Context, f *ingestion.File) error {
	if r == nil || r.db == nil {
		return errors.New("file repo: nil db")
	}
	if f == nil {
		return errors.New("file repo: nil file")
	}
	f.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
UPDATE ingestion_files
SET tipo = $1, anio = $2, mes = $3, filename = $4, storage_key = $5,
	status = $6, rows_ok = $7, rows_error = $8, error_message = $9,
	processed_at = $10, updated_at = $11
WHERE tenant_id = $12 AND id = $13`,
		f.Tipo, f.Anio, f.Mes, f.Filename, f.StorageKey,
		f.Status, f.RowsOK, f.RowsError, nullString(f.ErrorMessage),
		nullTime(f.ProcessedAt), f.UpdatedAt, f.TenantID, f.ID)
	return err
}

// List returns tenant files matching the filter, newest first.
func (r *FileRepository) List(ctx context.Context, tenantID int64, filter ingestion.Filter) ([]*ingestion.File, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("file repo: nil db")
	}
	where, args := filterClauses(tenantID, filter)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT id, `+fileColumns+`
FROM ingestion_files
WHERE %s
ORDER BY created_at DESC, id DESC`, strings.Join(where, " AND ")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*ingestion.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		if f != nil {
			result = append(result, f)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes matching rows and returns their ids.
func (r *FileRepository) Delete(ctx context.Context, tenantID int64, filter ingestion.Filter) ([]int64, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("file repo: nil db")
	}
	where, args := filterClauses(tenantID, filter)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
DELETE FROM ingestion_files
WHERE %s
RETURNING id`, strings.Join(where, " AND ")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func filterClauses(tenantID int64, filter ingestion.Filter) ([]string, []any) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if filter.EmpresaID != nil {
		args = append(args, *filter.EmpresaID)
		where = append(where, fmt.Sprintf("empresa_id = $%d", len(args)))
	}
	if filter.Tipo != nil {
		args = append(args, *filter.Tipo)
		where = append(where, fmt.Sprintf("tipo = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Anio != nil {
		args = append(args, *filter.Anio)
		where = append(where, fmt.Sprintf("anio = $%d", len(args)))
	}
	if filter.Mes != nil {
		args = append(args, *filter.Mes)
		where = append(where, fmt.Sprintf("mes = $%d", len(args)))
	}
	return where, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*ingestion.File, error) {
	var f ingestion.File
	var errorMessage sql.NullString
	var processedAt sql.NullTime
	err := row.Scan(
		&f.ID,
		&f.TenantID, &f.EmpresaID, &f.Tipo, &f.Anio, &f.Mes, &f.Filename, &f.StorageKey,
		&f.Status, &f.UploadedBy, &f.RowsOK, &f.RowsError, &errorMessage,
		&processedAt, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if errorMessage.Valid {
		f.ErrorMessage = errorMessage.String
	}
	if processedAt.Valid {
		t := processedAt.Time.UTC()
		f.ProcessedAt = &t
	}
	f.CreatedAt = f.CreatedAt.UTC()
	f.UpdatedAt = f.UpdatedAt.UTC()
	return &f, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
