package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Period is a reporting (year, month).
type Period struct {
	Anio int
	Mes  int
}

var (
	periodDelimited = regexp.MustCompile(`_(\d{4})(\d{2})_`)
	periodTrailing  = regexp.MustCompile(`_(\d{4})(\d{2})`)
	periodBald      = regexp.MustCompile(`BALD_\d+_(\d{6})_`)
)

// PeriodFromFilename extracts the YYYYMM period token from a filename.
// Each file type has its own pattern family; a generic _YYYYMM match is
// the last resort. Failing entirely aborts the upload: the period is
// mandatory metadata fixed before processing.
func PeriodFromFilename(tipo, filename string) (Period, error) {
	tipoNorm := strings.ToUpper(strings.TrimSpace(tipo))
	name := filename

	switch tipoNorm {
	case "M1_AUTOCONSUMO", "ACUMCIL":
		if m := periodDelimited.FindStringSubmatch(name); m != nil {
			return periodFromMatch(m[1], m[2]), nil
		}
	case "M1", "ACUM_H2_GRD", "ACUM_H2_GEN", "ACUM_H2_RDD_P1", "ACUM_H2_RDD_P2":
		if m := periodTrailing.FindStringSubmatch(name); m != nil {
			return periodFromMatch(m[1], m[2]), nil
		}
	case "BALD":
		if m := periodBald.FindStringSubmatch(strings.ToUpper(name)); m != nil {
			return periodFromMatch(m[1][:4], m[1][4:6]), nil
		}
	}

	if m := periodTrailing.FindStringSubmatch(name); m != nil {
		return periodFromMatch(m[1], m[2]), nil
	}
	return Period{}, fmt.Errorf("%w: filename %q, tipo %q", ErrPeriodInference, filename, tipoNorm)
}

func periodFromMatch(year, month string) Period {
	anio, _ := strconv.Atoi(year)
	mes, _ := strconv.Atoi(month)
	return Period{Anio: anio, Mes: mes}
}

// PeriodFromDelimitedToken extracts a _YYYYMM_ token, with no fallback.
// Used by processors whose filenames delimit the period on both sides.
func PeriodFromDelimitedToken(filename string) (Period, error) {
	if m := periodDelimited.FindStringSubmatch(filename); m != nil {
		return periodFromMatch(m[1], m[2]), nil
	}
	return Period{}, fmt.Errorf("%w: filename %q", ErrPeriodInference, filename)
}

// PeriodFromTrailingToken extracts a _YYYYMM token, with no fallback.
func PeriodFromTrailingToken(filename string) (Period, error) {
	if m := periodTrailing.FindStringSubmatch(filename); m != nil {
		return periodFromMatch(m[1], m[2]), nil
	}
	return Period{}, fmt.Errorf("%w: filename %q", ErrPeriodInference, filename)
}

// PeriodFromRows resolves the period as the (year, month) of the latest
// Fecha_final across all rows.
func PeriodFromRows(rows []Row) (Period, error) {
	var latest time.Time
	found := false
	for _, row := range rows {
		raw, ok := row["Fecha_final"]
		if !ok {
			return Period{}, fmt.Errorf("%w: Fecha_final", ErrMissingColumn)
		}
		t, err := ToDate(raw)
		if err != nil {
			return Period{}, err
		}
		if !found || t.After(latest) {
			latest = t
			found = true
		}
	}
	if !found {
		return Period{}, fmt.Errorf("%w: Fecha_final", ErrMissingColumn)
	}
	return Period{Anio: latest.Year(), Mes: int(latest.Month())}, nil
}
