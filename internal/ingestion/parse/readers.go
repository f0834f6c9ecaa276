package parse

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one parsed data row, keyed by column name. All values are raw
// text; numeric coercion happens downstream in the processors.
type Row map[string]string

// headerSheet is the sheet that carries the data table in the M1 Excel
// workbooks; files without it use the first sheet.
const headerSheet = "cabeceras"

// ReadHeadered reads a headered file: Excel (.xls/.xlsx/.xlsm) or
// ';'-separated CSV with a header row.
func ReadHeadered(path string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xls", ".xlsx", ".xlsm":
		return readHeaderedExcel(path)
	default:
		return readHeaderedCSV(path)
	}
}

func readHeaderedExcel(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer f.Close()

	sheet := ""
	if idx, err := f.GetSheetIndex(headerSheet); err == nil && idx >= 0 {
		sheet = headerSheet
	} else if sheets := f.GetSheetList(); len(sheets) > 0 {
		sheet = sheets[0]
	}
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrParse)
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return rowsFromRecords(records), nil
}

func readHeaderedCSV(path string) ([]Row, error) {
	records, err := readSemicolonCSV(path)
	if err != nil {
		return nil, err
	}
	return rowsFromRecords(records), nil
}

// ReadPositional reads a headerless ';'-separated file, assigning the
// given fixed column names by position. Short records leave trailing
// columns empty; extra fields are dropped.
func ReadPositional(path string, columns []string) ([]Row, error) {
	records, err := readSemicolonCSV(path)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(records))
	for _, record := range records {
		row := make(Row, len(columns))
		for i, name := range columns {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readSemicolonCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return records, nil
}

func rowsFromRecords(records [][]string) []Row {
	if len(records) == 0 {
		return nil
	}
	headers := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(headers))
		for i, name := range headers {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}
