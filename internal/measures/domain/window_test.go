package measures

import (
	"errors"
	"testing"
)

func TestWindowFromFilename(t *testing.T) {
	cases := []struct {
		filename string
		want     Window
	}{
		// Published 2 months after the period.
		{"BALD_123_202401_20240318.csv", WindowM2},
		{"BALD_123_202401_20240630.csv", WindowM2},
		// 7 to 9 months.
		{"BALD_123_202401_20240815.csv", WindowM7},
		{"BALD_123_202401_20241001.csv", WindowM7},
		// 10 to 13 months.
		{"BALD_123_202401_20241120.csv", WindowM11},
		{"BALD_123_202401_20250215.csv", WindowM11},
		// Beyond 13 months.
		{"BALD_123_202401_20250301.csv", WindowArt15},
		{"BALD_123_202401_20270101.csv", WindowArt15},
	}
	for _, tc := range cases {
		got, err := WindowFromFilename(tc.filename)
		if err != nil {
			t.Fatalf("WindowFromFilename(%q): unexpected error %v", tc.filename, err)
		}
		if got != tc.want {
			t.Fatalf("WindowFromFilename(%q): expected %s, got %s", tc.filename, tc.want, got)
		}
	}
}

func TestWindowFromFilename_PatternMismatch(t *testing.T) {
	for _, filename := range []string{"BALD.csv", "M1_202401.csv", "BALD_x_202401_20240301.csv"} {
		if _, err := WindowFromFilename(filename); !errors.Is(err, ErrPatternMismatch) {
			t.Fatalf("WindowFromFilename(%q): expected ErrPatternMismatch, got %v", filename, err)
		}
	}
}

func TestParseWindow(t *testing.T) {
	if w, err := ParseWindow(" art15 "); err != nil || w != WindowArt15 {
		t.Fatalf("expected ART15, got %v (%v)", w, err)
	}
	if _, err := ParseWindow("M3"); !errors.Is(err, ErrUnknownWindow) {
		t.Fatalf("expected ErrUnknownWindow, got %v", err)
	}
}

func TestWindowMetricsAccessor(t *testing.T) {
	mg := &MedidaGeneral{}
	mg.WindowMetrics(WindowM7).EnergiaPublicadaKWh = 5
	if mg.M7.EnergiaPublicadaKWh != 5 {
		t.Fatal("expected accessor to return a mutable reference to M7")
	}
}
