package interfaces

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	measures "medidas-cloud/internal/measures/domain"
)

func pctValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// BuildBalancePDF renders the monthly energy balance report.
func BuildBalancePDF(generales []*measures.MedidaGeneral, ps []*measures.MedidaPS) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Balance energetico mensual")
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(22, 6, "Empresa", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Periodo", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Bruta (kWh)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(32, 6, "Autoconsumo (kWh)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Generada (kWh)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "PF final (kWh)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Neta (kWh)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Perdidas (kWh)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Perdidas (%)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, mg := range generales {
		pdf.CellFormat(22, 6, fmt.Sprintf("%d", mg.EmpresaID), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%04d-%02d", mg.Anio, mg.Mes), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.3f", mg.EnergiaBrutaFacturada), "1", 0, "R", false, 0, "")
		pdf.CellFormat(32, 6, fmt.Sprintf("%.3f", mg.EnergiaAutoconsumoKWh), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.3f", mg.EnergiaGeneradaKWh), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.3f", mg.EnergiaPFFinalKWh), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.3f", mg.EnergiaNetaFacturadaKWh), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.3f", mg.PerdidasKWh), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, pctValue(mg.PerdidasPct), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(ps) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(22, 6, "Empresa", "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, "Periodo", "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, "Energia total (kWh)", "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, "CUPS", "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, "Importe total (EUR)", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		for _, mp := range ps {
			pdf.CellFormat(22, 6, fmt.Sprintf("%d", mp.EmpresaID), "1", 0, "C", false, 0, "")
			pdf.CellFormat(20, 6, fmt.Sprintf("%04d-%02d", mp.Anio, mp.Mes), "1", 0, "C", false, 0, "")
			pdf.CellFormat(35, 6, fmt.Sprintf("%.3f", mp.TipoTotal.EnergiaKWh), "1", 0, "R", false, 0, "")
			pdf.CellFormat(25, 6, fmt.Sprintf("%d", mp.TipoTotal.CUPS), "1", 0, "R", false, 0, "")
			pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", mp.TipoTotal.ImporteEUR), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildBalanceXLSX renders the monthly energy balance workbook: one
// sheet for the general balance including the regulatory windows, one
// for the PS breakdown.
func BuildBalanceXLSX(generales []*measures.MedidaGeneral, ps []*measures.MedidaPS) ([]byte, error) {
	f := excelize.NewFile()
	generalSheet := "balance"
	psSheet := "ps"
	f.SetSheetName("Sheet1", generalSheet)
	f.NewSheet(psSheet)

	headers := []string{
		"Empresa", "Periodo", "Punto",
		"Energia bruta facturada (kWh)", "Energia autoconsumo (kWh)", "Energia generada (kWh)",
		"Energia frontera DD (kWh)", "Energia PF (kWh)", "Energia PF final (kWh)",
		"Energia neta facturada (kWh)", "Perdidas (kWh)", "Perdidas (%)",
	}
	for _, w := range measures.Windows() {
		headers = append(headers,
			fmt.Sprintf("%s publicada (kWh)", w),
			fmt.Sprintf("%s autoconsumo (kWh)", w),
			fmt.Sprintf("%s neta (kWh)", w),
			fmt.Sprintf("%s perdidas (kWh)", w),
			fmt.Sprintf("%s perdidas (%%)", w),
		)
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(generalSheet, cell, header)
	}
	for rowIdx, mg := range generales {
		values := []any{
			mg.EmpresaID, fmt.Sprintf("%04d-%02d", mg.Anio, mg.Mes), mg.PuntoID,
			mg.EnergiaBrutaFacturada, mg.EnergiaAutoconsumoKWh, mg.EnergiaGeneradaKWh,
			mg.EnergiaFronteraDDKWh, mg.EnergiaPFKWh, mg.EnergiaPFFinalKWh,
			mg.EnergiaNetaFacturadaKWh, mg.PerdidasKWh, cellPct(mg.PerdidasPct),
		}
		for _, w := range measures.Windows() {
			wm := mg.WindowMetrics(w)
			values = append(values,
				wm.EnergiaPublicadaKWh, wm.EnergiaAutoconsumoKWh,
				wm.EnergiaNetaFacturadaKWh, wm.PerdidasKWh, cellPct(wm.PerdidasPct),
			)
		}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			_ = f.SetCellValue(generalSheet, cell, value)
		}
	}

	psHeaders := []string{"Empresa", "Periodo"}
	for i := 1; i <= measures.NumPolicyTypes; i++ {
		psHeaders = append(psHeaders,
			fmt.Sprintf("Tipo %d energia (kWh)", i),
			fmt.Sprintf("Tipo %d CUPS", i),
			fmt.Sprintf("Tipo %d importe (EUR)", i),
		)
	}
	psHeaders = append(psHeaders, "Total energia (kWh)", "Total CUPS", "Total importe (EUR)")
	for _, tc := range measures.TarifaClasses() {
		psHeaders = append(psHeaders,
			fmt.Sprintf("%s energia (kWh)", tc.Code),
			fmt.Sprintf("%s CUPS", tc.Code),
			fmt.Sprintf("%s importe (EUR)", tc.Code),
		)
	}
	for i, header := range psHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(psSheet, cell, header)
	}
	for rowIdx, mp := range ps {
		values := []any{mp.EmpresaID, fmt.Sprintf("%04d-%02d", mp.Anio, mp.Mes)}
		for _, block := range mp.Tipos {
			values = append(values, block.EnergiaKWh, block.CUPS, block.ImporteEUR)
		}
		values = append(values, mp.TipoTotal.EnergiaKWh, mp.TipoTotal.CUPS, mp.TipoTotal.ImporteEUR)
		for _, block := range mp.Tarifas {
			values = append(values, block.EnergiaKWh, block.CUPS, block.ImporteEUR)
		}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			_ = f.SetCellValue(psSheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellPct(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
