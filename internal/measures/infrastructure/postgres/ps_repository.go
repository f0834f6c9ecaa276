package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	measures "medidas-cloud/internal/measures/domain"
)

func blockColumns(suffix string) []string {
	return []string{
		"energia_" + suffix + "_kwh",
		"cups_" + suffix,
		"importe_" + suffix + "_eur",
	}
}

// psColumns is every medidas_ps column except id, in the order used by
// all queries in this file.
var psColumns = func() []string {
	cols := []string{"tenant_id", "empresa_id", "punto_id", "anio", "mes"}
	for i := 1; i <= measures.NumPolicyTypes; i++ {
		cols = append(cols, blockColumns(fmt.Sprintf("tipo%d", i))...)
	}
	cols = append(cols, blockColumns("total")...)
	for _, tc := range measures.TarifaClasses() {
		cols = append(cols, blockColumns(tc.Suffix)...)
	}
	return append(cols, "file_id", "created_at", "updated_at")
}()

func psValues(mp *measures.MedidaPS) []any {
	vals := []any{mp.TenantID, mp.EmpresaID, mp.PuntoID, mp.Anio, mp.Mes}
	for i := range mp.Tipos {
		vals = append(vals, mp.Tipos[i].EnergiaKWh, mp.Tipos[i].CUPS, mp.Tipos[i].ImporteEUR)
	}
	vals = append(vals, mp.TipoTotal.EnergiaKWh, mp.TipoTotal.CUPS, mp.TipoTotal.ImporteEUR)
	for i := range mp.Tarifas {
		vals = append(vals, mp.Tarifas[i].EnergiaKWh, mp.Tarifas[i].CUPS, mp.Tarifas[i].ImporteEUR)
	}
	return append(vals, mp.FileID, mp.CreatedAt, mp.UpdatedAt)
}

// PSRepository persists monthly PS policy/tariff aggregates.
type PSRepository struct {
	db *sql.DB
}

// NewPSRepository constructs a repository.
func NewPSRepository(db *sql.DB) *PSRepository {
	return &PSRepository{db: db}
}

// FindOrCreate loads the row for (tenant, empresa, anio, mes) or inserts
// a zeroed one.
func (r *PSRepository) FindOrCreate(ctx context.Context, tenantID, empresaID int64, puntoID string, anio, mes int) (*measures.MedidaPS, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ps repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
SELECT id, %s
FROM medidas_ps
WHERE tenant_id = $1 AND empresa_id = $2 AND anio = $3 AND mes = $4
LIMIT 1`, strings.Join(psColumns, ", ")), tenantID, empresaID, anio, mes)
	mp, err := scanPS(row)
	if err != nil {
		return nil, err
	}
	if mp != nil {
		return mp, nil
	}

	now := time.Now().UTC()
	mp = &measures.MedidaPS{
		TenantID:  tenantID,
		EmpresaID: empresaID,
		PuntoID:   puntoID,
		Anio:      anio,
		Mes:       mes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = r.db.QueryRowContext(ctx, fmt.Sprintf(`
INSERT INTO medidas_ps (%s)
VALUES (%s)
RETURNING id`, strings.Join(psColumns, ", "), placeholders(len(psColumns))),
		psValues(mp)...).Scan(&mp.ID)
	if err != nil {
		return nil, err
	}
	return mp, nil
}

// Save writes every field of an existing row.
func (r *PSRepository) Save(ctx context.Context, mp *measures.MedidaPS) error {
	if r == nil || r.db == nil {
		return errors.New("ps repo: nil db")
	}
	if mp == nil {
		return measures.ErrNilAggregate
	}
	if mp.ID == 0 {
		return measures.ErrAggregateNotFound
	}
	mp.UpdatedAt = time.Now().UTC()

	assignments := make([]string, len(psColumns))
	for i, col := range psColumns {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	args := append(psValues(mp), mp.ID)
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
UPDATE medidas_ps
SET %s
WHERE id = $%d`, strings.Join(assignments, ", "), len(args)), args...)
	return err
}

// List returns tenant aggregates matching the optional filters, newest
// period first.
func (r *PSRepository) List(ctx context.Context, tenantID int64, empresaID *int64, anio, mes *int) ([]*measures.MedidaPS, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ps repo: nil db")
	}
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if empresaID != nil {
		args = append(args, *empresaID)
		where = append(where, fmt.Sprintf("empresa_id = $%d", len(args)))
	}
	if anio != nil {
		args = append(args, *anio)
		where = append(where, fmt.Sprintf("anio = $%d", len(args)))
	}
	if mes != nil {
		args = append(args, *mes)
		where = append(where, fmt.Sprintf("mes = $%d", len(args)))
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT id, %s
FROM medidas_ps
WHERE %s
ORDER BY anio DESC, mes DESC, empresa_id ASC`,
		strings.Join(psColumns, ", "), strings.Join(where, " AND ")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*measures.MedidaPS
	for rows.Next() {
		mp, err := scanPS(rows)
		if err != nil {
			return nil, err
		}
		if mp != nil {
			result = append(result, mp)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteByFileIDs removes aggregates whose provenance file was deleted.
func (r *PSRepository) DeleteByFileIDs(ctx context.Context, tenantID int64, fileIDs []int64) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("ps repo: nil db")
	}
	if len(fileIDs) == 0 {
		return 0, nil
	}
	args := []any{tenantID}
	ph := make([]string, len(fileIDs))
	for i, id := range fileIDs {
		args = append(args, id)
		ph[i] = fmt.Sprintf("$%d", len(args))
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
DELETE FROM medidas_ps
WHERE tenant_id = $1 AND file_id IN (%s)`, strings.Join(ph, ",")), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanPS(row rowScanner) (*measures.MedidaPS, error) {
	var mp measures.MedidaPS
	dest := []any{
		&mp.ID,
		&mp.TenantID, &mp.EmpresaID, &mp.PuntoID, &mp.Anio, &mp.Mes,
	}
	for i := range mp.Tipos {
		dest = append(dest, &mp.Tipos[i].EnergiaKWh, &mp.Tipos[i].CUPS, &mp.Tipos[i].ImporteEUR)
	}
	dest = append(dest, &mp.TipoTotal.EnergiaKWh, &mp.TipoTotal.CUPS, &mp.TipoTotal.ImporteEUR)
	for i := range mp.Tarifas {
		dest = append(dest, &mp.Tarifas[i].EnergiaKWh, &mp.Tarifas[i].CUPS, &mp.Tarifas[i].ImporteEUR)
	}
	dest = append(dest, &mp.FileID, &mp.CreatedAt, &mp.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	mp.CreatedAt = mp.CreatedAt.UTC()
	mp.UpdatedAt = mp.UpdatedAt.UTC()
	return &mp, nil
}
