package parse

import (
	"errors"
	"testing"
	"time"
)

func TestToFloat(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"   ", 0},
		{"NA", 0},
		{"n/a", 0},
		{"NULL", 0},
		{"abc", 0},
		{"12.5", 12.5},
		{"12,5", 12.5},
		{" 7 ", 7},
		{"-3,25", -3.25},
		{"NaN", 0},
		{"Inf", 0},
	}
	for _, tc := range cases {
		if got := ToFloat(tc.in); got != tc.want {
			t.Fatalf("ToFloat(%q): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestToFloat_SeparatorEquivalence(t *testing.T) {
	if ToFloat("1234,56") != ToFloat("1234.56") {
		t.Fatal("expected comma and dot separators to parse identically")
	}
}

func TestToDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2024/01/15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-01-15 10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-01-15T10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ToDate(tc.in)
		if err != nil {
			t.Fatalf("ToDate(%q): unexpected error %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ToDate(%q): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestToDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "not-a-date", "15-01-2024"} {
		if _, err := ToDate(in); !errors.Is(err, ErrFormat) {
			t.Fatalf("ToDate(%q): expected ErrFormat, got %v", in, err)
		}
	}
}
