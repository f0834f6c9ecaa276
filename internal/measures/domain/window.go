package measures

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Window identifies a BALD publication window: how many months after the
// reporting period the balance file was published.
type Window string

const (
	WindowM2    Window = "M2"
	WindowM7    Window = "M7"
	WindowM11   Window = "M11"
	WindowArt15 Window = "ART15"
)

// Windows lists all BALD publication windows in recalculation order.
func Windows() []Window {
	return []Window{WindowM2, WindowM7, WindowM11, WindowArt15}
}

// ParseWindow validates a window tag (case-insensitive).
func ParseWindow(value string) (Window, error) {
	switch Window(strings.ToUpper(strings.TrimSpace(value))) {
	case WindowM2:
		return WindowM2, nil
	case WindowM7:
		return WindowM7, nil
	case WindowM11:
		return WindowM11, nil
	case WindowArt15:
		return WindowArt15, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownWindow, value)
	}
}

var baldNamePattern = regexp.MustCompile(`BALD_\d+_(\d{6})_(\d{8})`)

// WindowFromFilename classifies a BALD file by the month difference
// between its period token (YYYYMM) and publication token (YYYYMMDD):
// <7 months M2, [7,10) M7, [10,13] M11, >13 ART15.
func WindowFromFilename(filename string) (Window, error) {
	m := baldNamePattern.FindStringSubmatch(filename)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrPatternMismatch, filename)
	}

	periodYear, _ := strconv.Atoi(m[1][:4])
	periodMonth, _ := strconv.Atoi(m[1][4:6])
	pubYear, _ := strconv.Atoi(m[2][:4])
	pubMonth, _ := strconv.Atoi(m[2][4:6])

	diff := (pubYear-periodYear)*12 + (pubMonth - periodMonth)
	switch {
	case diff < 7:
		return WindowM2, nil
	case diff < 10:
		return WindowM7, nil
	case diff <= 13:
		return WindowM11, nil
	default:
		return WindowArt15, nil
	}
}
