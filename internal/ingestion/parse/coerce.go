package parse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ToFloat converts heterogeneous raw cell text to a float64, never
// failing: empty cells, NA/N/A/NULL markers, unparsable garbage and
// NaN/Inf all collapse to 0.0. A comma decimal separator is accepted.
// Malformed cells must not abort a whole file's aggregation; structural
// problems are reported through the readers instead.
func ToFloat(value string) float64 {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0.0
	}
	switch strings.ToUpper(s) {
	case "NA", "N/A", "NULL":
		return 0.0
	}

	s = strings.ReplaceAll(s, ",", ".")
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0.0
	}
	return x
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ToDate interprets a raw date cell. Slashes are normalized to dashes
// before ISO parsing; both plain dates and timestamps are accepted.
func ToDate(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrFormat)
	}
	s = strings.ReplaceAll(s, "/", "-")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", ErrFormat, value)
}
