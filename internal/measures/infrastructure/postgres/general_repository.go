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

// windowSuffixes maps regulatory windows to column suffixes, in
// persistence order.
func windowSuffixes() []string {
	windows := measures.Windows()
	suffixes := make([]string, 0, len(windows))
	for _, w := range windows {
		suffixes = append(suffixes, strings.ToLower(string(w)))
	}
	return suffixes
}

var windowMetricColumns = []string{
	"energia_publicada_kwh",
	"energia_autoconsumo_kwh",
	"energia_pf_kwh",
	"energia_frontera_dd_kwh",
	"energia_generada_kwh",
	"energia_neta_facturada_kwh",
	"perdidas_kwh",
	"perdidas_pct",
}

// generalColumns is every medidas_general column except id, in the order
// used by all queries in this file.
var generalColumns = func() []string {
	cols := []string{
		"tenant_id", "empresa_id", "punto_id", "anio", "mes",
		"energia_bruta_facturada", "energia_autoconsumo_kwh", "energia_generada_kwh",
		"energia_frontera_dd_kwh", "energia_pf_kwh",
		"energia_pf_final_kwh", "energia_neta_facturada_kwh", "perdidas_kwh", "perdidas_pct",
	}
	for _, suffix := range windowSuffixes() {
		for _, col := range windowMetricColumns {
			cols = append(cols, col+"_"+suffix)
		}
	}
	return append(cols, "file_id", "created_at", "updated_at")
}()

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ",")
}

// generalValues returns mg's fields in generalColumns order.
func generalValues(mg *measures.MedidaGeneral) []any {
	vals := []any{
		mg.TenantID, mg.EmpresaID, mg.PuntoID, mg.Anio, mg.Mes,
		mg.EnergiaBrutaFacturada, mg.EnergiaAutoconsumoKWh, mg.EnergiaGeneradaKWh,
		mg.EnergiaFronteraDDKWh, mg.EnergiaPFKWh,
		mg.EnergiaPFFinalKWh, mg.EnergiaNetaFacturadaKWh, mg.PerdidasKWh, nullPct(mg.PerdidasPct),
	}
	for _, w := range measures.Windows() {
		wm := mg.WindowMetrics(w)
		vals = append(vals,
			wm.EnergiaPublicadaKWh, wm.EnergiaAutoconsumoKWh, wm.EnergiaPFKWh,
			wm.EnergiaFronteraDDKWh, wm.EnergiaGeneradaKWh,
			wm.EnergiaNetaFacturadaKWh, wm.PerdidasKWh, nullPct(wm.PerdidasPct),
		)
	}
	return append(vals, mg.FileID, mg.CreatedAt, mg.UpdatedAt)
}

// GeneralRepository persists monthly energy balance aggregates.
type GeneralRepository struct {
	db *sql.DB
}

// NewGeneralRepository constructs a repository.
func NewGeneralRepository(db *sql.DB) *GeneralRepository {
	return &GeneralRepository{db: db}
}

// FindOrCreate loads the row for (tenant, empresa, anio, mes) or inserts
// a zeroed one. PuntoID is provenance only: an existing row keeps the
// punto of whichever file created it.
func (r *GeneralRepository) FindOrCreate(ctx context.Context, tenantID, empresaID int64, puntoID string, anio, mes int) (*measures.MedidaGeneral, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("general repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
SELECT id, %s
FROM medidas_general
WHERE tenant_id = $1 AND empresa_id = $2 AND anio = $3 AND mes = $4
LIMIT 1`, strings.Join(generalColumns, ", ")), tenantID, empresaID, anio, mes)
	mg, err := scanGeneral(row)
	if err != nil {
		return nil, err
	}
	if mg != nil {
		return mg, nil
	}

	now := time.Now().UTC()
	mg = &measures.MedidaGeneral{
		TenantID:  tenantID,
		EmpresaID: empresaID,
		PuntoID:   puntoID,
		Anio:      anio,
		Mes:       mes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = r.db.QueryRowContext(ctx, fmt.Sprintf(`
INSERT INTO medidas_general (%s)
VALUES (%s)
RETURNING id`, strings.Join(generalColumns, ", "), placeholders(len(generalColumns))),
		generalValues(mg)...).Scan(&mg.ID)
	if err != nil {
		return nil, err
	}
	return mg, nil
}

// Save writes every field of an existing row.
func (r *GeneralRepository) Save(ctx context.Context, mg *measures.MedidaGeneral) error {
	if r == nil || r.db == nil {
		return errors.New("general repo: nil db")
	}
	if mg == nil {
		return measures.ErrNilAggregate
	}
	if mg.ID == 0 {
		return measures.ErrAggregateNotFound
	}
	mg.UpdatedAt = time.Now().UTC()

	assignments := make([]string, len(generalColumns))
	for i, col := range generalColumns {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	args := append(generalValues(mg), mg.ID)
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
UPDATE medidas_general
SET %s
WHERE id = $%d`, strings.Join(assignments, ", "), len(args)), args...)
	return err
}

// List returns tenant aggregates matching the optional filters, newest
// period first.
func (r *GeneralRepository) List(ctx context.Context, tenantID int64, empresaID *int64, anio, mes *int) ([]*measures.MedidaGeneral, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("general repo: nil db")
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
FROM medidas_general
WHERE %s
ORDER BY anio DESC, mes DESC, empresa_id ASC`,
		strings.Join(generalColumns, ", "), strings.Join(where, " AND ")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*measures.MedidaGeneral
	for rows.Next() {
		mg, err := scanGeneral(rows)
		if err != nil {
			return nil, err
		}
		if mg != nil {
			result = append(result, mg)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteByFileIDs removes aggregates whose provenance file was deleted.
func (r *GeneralRepository) DeleteByFileIDs(ctx context.Context, tenantID int64, fileIDs []int64) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("general repo: nil db")
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
DELETE FROM medidas_general
WHERE tenant_id = $1 AND file_id IN (%s)`, strings.Join(ph, ",")), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneral(row rowScanner) (*measures.MedidaGeneral, error) {
	var mg measures.MedidaGeneral
	var pct sql.NullFloat64
	windowPcts := make([]sql.NullFloat64, len(measures.Windows()))

	dest := []any{
		&mg.ID,
		&mg.TenantID, &mg.EmpresaID, &mg.PuntoID, &mg.Anio, &mg.Mes,
		&mg.EnergiaBrutaFacturada, &mg.EnergiaAutoconsumoKWh, &mg.EnergiaGeneradaKWh,
		&mg.EnergiaFronteraDDKWh, &mg.EnergiaPFKWh,
		&mg.EnergiaPFFinalKWh, &mg.EnergiaNetaFacturadaKWh, &mg.PerdidasKWh, &pct,
	}
	for i, w := range measures.Windows() {
		wm := mg.WindowMetrics(w)
		dest = append(dest,
			&wm.EnergiaPublicadaKWh, &wm.EnergiaAutoconsumoKWh, &wm.EnergiaPFKWh,
			&wm.EnergiaFronteraDDKWh, &wm.EnergiaGeneradaKWh,
			&wm.EnergiaNetaFacturadaKWh, &wm.PerdidasKWh, &windowPcts[i],
		)
	}
	dest = append(dest, &mg.FileID, &mg.CreatedAt, &mg.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	mg.PerdidasPct = pctPtr(pct)
	for i, w := range measures.Windows() {
		mg.WindowMetrics(w).PerdidasPct = pctPtr(windowPcts[i])
	}
	mg.CreatedAt = mg.CreatedAt.UTC()
	mg.UpdatedAt = mg.UpdatedAt.UTC()
	return &mg, nil
}

func nullPct(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func pctPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	value := v.Float64
	return &value
}
