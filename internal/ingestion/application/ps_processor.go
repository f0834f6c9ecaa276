package application

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	ingestion "medidas-cloud/internal/ingestion/domain"
	"medidas-cloud/internal/ingestion/parse"
	measures "medidas-cloud/internal/measures/domain"
)

// PSResult reports a PS aggregation outcome. ExcludedRows counts rows
// whose Poliza value could not be classified into a type 1..5; those
// rows are silently left out of the per-type buckets and of the totals
// (which are sums over the buckets), but still feed the tariff blocks.
type PSResult struct {
	Medida       *measures.MedidaPS
	ExcludedRows int
}

var polizaDigit = regexp.MustCompile(`[1-5]`)

// ProcessPS rebuilds the monthly PS aggregate from one PS file. Unlike
// the energy-balance processors it performs a full recomputation: every
// field of the row is overwritten, so a later PS file for the same
// period completely supersedes the earlier one.
func (p *Processors) ProcessPS(ctx context.Context, tenantID, empresaID int64, file *ingestion.File, rows []parse.Row) (*PSResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: PS file has no data rows", ingestion.ErrValidation)
	}

	period, err := parse.PeriodFromRows(rows)
	if err != nil {
		return nil, err
	}

	var tipos [measures.NumPolicyTypes]measures.PSBlock
	excluded := 0
	cupsByTipo := make([]map[string]struct{}, measures.NumPolicyTypes)
	for i := range cupsByTipo {
		cupsByTipo[i] = make(map[string]struct{})
	}
	for _, row := range rows {
		tipo := classifyPoliza(row["Poliza"])
		if tipo == 0 {
			excluded++
			continue
		}
		i := tipo - 1
		tipos[i].EnergiaKWh += parse.ToFloat(row["Energia_facturada"])
		tipos[i].ImporteEUR += parse.ToFloat(row["Total"])
		if cups := strings.TrimSpace(row["CUPS"]); cups != "" {
			cupsByTipo[i][cups] = struct{}{}
		}
	}

	var total measures.PSBlock
	for i := range tipos {
		tipos[i].CUPS = len(cupsByTipo[i])
		total.EnergiaKWh += tipos[i].EnergiaKWh
		total.CUPS += tipos[i].CUPS
		total.ImporteEUR += tipos[i].ImporteEUR
	}

	var tarifas [7]measures.PSBlock
	for i, class := range measures.TarifaClasses() {
		cupsSet := make(map[string]struct{})
		for _, row := range rows {
			if strings.ToUpper(strings.TrimSpace(row["Tarifa_acceso"])) != class.Code {
				continue
			}
			tarifas[i].EnergiaKWh += parse.ToFloat(row["Energia_facturada"])
			tarifas[i].ImporteEUR += parse.ToFloat(row["Total"])
			if cups := strings.TrimSpace(row["CUPS"]); cups != "" {
				cupsSet[cups] = struct{}{}
			}
		}
		tarifas[i].CUPS = len(cupsSet)
	}

	mp, err := p.ps.FindOrCreate(ctx, tenantID, empresaID, "PS", period.Anio, period.Mes)
	if err != nil {
		return nil, err
	}
	mp.Tipos = tipos
	mp.TipoTotal = total
	mp.Tarifas = tarifas
	mp.FileID = file.ID
	if err := p.ps.Save(ctx, mp); err != nil {
		return nil, err
	}
	return &PSResult{Medida: mp, ExcludedRows: excluded}, nil
}

// classifyPoliza maps a raw Poliza cell to a policy type 1..5, or 0 when
// the value cannot be classified. Numeric values are rounded to the
// nearest integer and accepted when in range; otherwise the first
// literal digit 1-5 in the text wins.
func classifyPoliza(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	if num, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		if !math.IsNaN(num) && !math.IsInf(num, 0) {
			rounded := int(math.Round(num))
			if rounded >= 1 && rounded <= 5 {
				return rounded
			}
		}
	}

	if digit := polizaDigit.FindString(s); digit != "" {
		n, _ := strconv.Atoi(digit)
		return n
	}
	return 0
}
