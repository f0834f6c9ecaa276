package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ingestion "medidas-cloud/internal/ingestion/domain"
	"medidas-cloud/internal/ingestion/parse"
	measures "medidas-cloud/internal/measures/domain"
)

// Processors fold parsed file rows into the monthly aggregates. Every
// processor is idempotent on the aggregate natural key: it finds or
// creates the row, mutates its field(s), runs the recalculation cascade
// and persists. Parsing and summation happen before the row is touched,
// so a failed file never leaves a partially mutated aggregate behind.
type Processors struct {
	general measures.GeneralStore
	ps      measures.PSStore
}

// NewProcessors constructs the processor set.
func NewProcessors(general measures.GeneralStore, ps measures.PSStore) (*Processors, error) {
	if general == nil {
		return nil, errors.New("processors: nil general store")
	}
	if ps == nil {
		return nil, errors.New("processors: nil ps store")
	}
	return &Processors{general: general, ps: ps}, nil
}

// ProcessM1 folds an M1 billing file into energia_bruta_facturada
// (replace). The period is the (year, month) of the latest Fecha_final;
// rows outside that month are excluded, so a file spanning several
// months only contributes its most recent one.
func (p *Processors) ProcessM1(ctx context.Context, tenantID, empresaID int64, file *ingestion.File, rows []parse.Row) (*measures.MedidaGeneral, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: M1 file has no data rows", ingestion.ErrValidation)
	}

	dates := make([]time.Time, len(rows))
	for i, row := range rows {
		raw, ok := row["Fecha_final"]
		if !ok {
			return nil, fmt.Errorf("%w: Fecha_final in M1 rows", parse.ErrMissingColumn)
		}
		t, err := parse.ToDate(raw)
		if err != nil {
			return nil, err
		}
		dates[i] = t
	}

	period, err := parse.PeriodFromRows(rows)
	if err != nil {
		return nil, err
	}

	total := 0.0
	matched := false
	for i, row := range rows {
		if dates[i].Year() != period.Anio || int(dates[i].Month()) != period.Mes {
			continue
		}
		matched = true
		total += parse.ToFloat(row["Energia_Kwh"])
	}
	if !matched {
		return nil, fmt.Errorf("%w: no M1 rows in detected month", ingestion.ErrValidation)
	}

	mg, err := p.general.FindOrCreate(ctx, tenantID, empresaID, "M1", period.Anio, period.Mes)
	if err != nil {
		return nil, err
	}
	mg.EnergiaBrutaFacturada = total
	mg.FileID = file.ID
	measures.RecalcNetAndLosses(mg)
	if err := p.general.Save(ctx, mg); err != nil {
		return nil, err
	}
	return mg, nil
}

// ProcessM1Autoconsumo folds an M1 self-consumption file into
// energia_autoconsumo_kwh (replace). The period comes from the _YYYYMM_
// filename token.
func (p *Processors) ProcessM1Autoconsumo(ctx context.Context, tenantID, empresaID int64, file *ingestion.File, rows []parse.Row) (*measures.MedidaGeneral, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: M1 self-consumption file has no data rows", ingestion.ErrValidation)
	}

	total := 0.0
	for _, row := range rows {
		total += parse.ToFloat(row["Kwh"])
	}

	period, err := parse.PeriodFromDelimitedToken(file.Filename)
	if err != nil {
		return nil, err
	}

	mg, err := p.general.FindOrCreate(ctx, tenantID, empresaID, "M1", period.Anio, period.Mes)
	if err != nil {
		return nil, err
	}
	mg.EnergiaAutoconsumoKWh = total
	mg.FileID = file.ID
	measures.RecalcNetAndLosses(mg)
	if err := p.general.Save(ctx, mg); err != nil {
		return nil, err
	}
	return mg, nil
}

// ProcessAcumcil accumulates AS-magnitude generation energy from an
// ACUMCIL file into energia_generada_kwh.
func (p *Processors) ProcessAcumcil(ctx context.Context, tenantID, empresaID int64, file *ingestion.File, rows []parse.Row) (*measures.MedidaGeneral, error) {
	total, err := sumMagnitudeEnergy(rows, "AS", "ACUMCIL")
	if err != nil {
		return nil, err
	}
	period, err := parse.PeriodFromDelimitedToken(file.Filename)
	if err != nil {
		return nil, err
	}
	return p.accumulateGenerated(ctx, tenantID, empresaID, "ACUMCIL", period, file.ID, total)
}

// ProcessAcumH2GRD accumulates AS-magnitude generation energy from an
// ACUM_H2_GRD file into energia_generada_kwh.
func (p *Processors) ProcessAcumH2GRD(ctx context.Context, tenantID, empresaID int64, file *ingestion.File, rows []parse.Row) (*measures.MedidaGeneral, error) {
	total, err := sumMagnitudeEnergy(rows, "AS", "ACUM H2 GRD")
	if err != nil {
		return nil, err
	}
	period, err := parse.PeriodFromTrailingToken(file.Filename)
	if err != nil {
		return nil, err
	}
	return p.accumulateGenerated(ctx, tenantID, empresaID, "ACUM_H2_GRD", period, file.ID, total)
}

// ProcessAcumH2GEN handles ACUM_H2_GEN files, which share the GRD layout
// and treatment verbatim.
func (p *Processors) ProcessAcumH2GEN(ctx context.Context, tenantID, empresaID int64, file *ingestion.File, rows []parse.Row) (*measures.MedidaGeneral, error) {
	return p.ProcessAcumH2GRD(ctx, tenantID, empresaID, file, rows)
}

// ProcessAcumH2RDDFronteraDD accumulates the given target magnitude from
// an ACUM_H2_RDD file into energia_frontera_dd_kwh. P1 files contribute
// magnitude AS, P2 files magnitude AE; both add onto the same field.
func (p *Processors) ProcessAcumH2RDDFronteraDD(ctx context.Context, tenantID, empresaID int64, file *ingestion.File, rows []parse.Row, magnitudObjetivo string) (*measures.MedidaGeneral, error) {
	target := strings.ToUpper(strings.TrimSpace(magnitudObjetivo))
	total, err := sumMagnitudeEnergy(rows, target, "ACUM H2 RDD")
	if err != nil {
		return nil, err
	}
	period, err := parse.PeriodFromTrailingToken(file.Filename)
	if err != nil {
		return nil, err
	}

	mg, err := p.general.FindOrCreate(ctx, tenantID, empresaID, "ACUM_H2_RDD", period.Anio, period.Mes)
	if err != nil {
		return nil, err
	}
	mg.EnergiaFronteraDDKWh += total
	mg.FileID = file.ID
	measures.RecalcPFFinal(mg)
	if err := p.general.Save(ctx, mg); err != nil {
		return nil, err
	}
	return mg, nil
}

// ProcessAcumH2RDDPF accumulates AE-magnitude energy from an ACUM_H2_RDD
// P1 file into energia_pf_kwh.
func (p *Processors) ProcessAcumH2RDDPF(ctx context.Context, tenantID, empresaID int64, file *ingestion.File, rows []parse.Row) (*measures.MedidaGeneral, error) {
	total, err := sumMagnitudeEnergy(rows, "AE", "ACUM H2 RDD (PF)")
	if err != nil {
		return nil, err
	}
	period, err := parse.PeriodFromTrailingToken(file.Filename)
	if err != nil {
		return nil, err
	}

	mg, err := p.general.FindOrCreate(ctx, tenantID, empresaID, "ACUM_H2_RDD_PF", period.Anio, period.Mes)
	if err != nil {
		return nil, err
	}
	mg.EnergiaPFKWh += total
	mg.FileID = file.ID
	measures.RecalcPFFinal(mg)
	if err := p.general.Save(ctx, mg); err != nil {
		return nil, err
	}
	return mg, nil
}

// ProcessBALD writes one publication window's metrics from the first row
// of a BALD file (replace, per window). The declared file period is used;
// the window comes from the filename classification.
func (p *Processors) ProcessBALD(ctx context.Context, tenantID, empresaID int64, file *ingestion.File, window measures.Window, row parse.Row) (*measures.MedidaGeneral, error) {
	mg, err := p.general.FindOrCreate(ctx, tenantID, empresaID, "BALD", file.Anio, file.Mes)
	if err != nil {
		return nil, err
	}

	wm := mg.WindowMetrics(window)
	wm.EnergiaPublicadaKWh = parse.ToFloat(row["Demanda_suministrada"])
	wm.EnergiaAutoconsumoKWh = parse.ToFloat(row["Demanda_vertida"])
	wm.EnergiaPFKWh = parse.ToFloat(row["Adquisicion"])
	wm.EnergiaFronteraDDKWh = parse.ToFloat(row["DD_S"])
	wm.EnergiaGeneradaKWh = parse.ToFloat(row["ED"]) + parse.ToFloat(row["CIL"])

	measures.RecalcNetAndLosses(mg)
	mg.FileID = file.ID
	if err := p.general.Save(ctx, mg); err != nil {
		return nil, err
	}
	return mg, nil
}

func (p *Processors) accumulateGenerated(ctx context.Context, tenantID, empresaID int64, puntoID string, period parse.Period, fileID int64, total float64) (*measures.MedidaGeneral, error) {
	mg, err := p.general.FindOrCreate(ctx, tenantID, empresaID, puntoID, period.Anio, period.Mes)
	if err != nil {
		return nil, err
	}
	mg.EnergiaGeneradaKWh += total
	mg.FileID = fileID
	measures.RecalcPFFinal(mg)
	if err := p.general.Save(ctx, mg); err != nil {
		return nil, err
	}
	return mg, nil
}

// sumMagnitudeEnergy filters rows by normalized Magnitud and sums their
// Valor_Acumulado_Total_Energia.
func sumMagnitudeEnergy(rows []parse.Row, magnitud, label string) (float64, error) {
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: %s file has no data rows", ingestion.ErrValidation, label)
	}
	total := 0.0
	matched := false
	for _, row := range rows {
		if strings.ToUpper(strings.TrimSpace(row["Magnitud"])) != magnitud {
			continue
		}
		matched = true
		total += parse.ToFloat(row["Valor_Acumulado_Total_Energia"])
	}
	if !matched {
		return 0, fmt.Errorf("%w: no rows with Magnitud %q in %s file", ingestion.ErrValidation, magnitud, label)
	}
	return total, nil
}
