// Package format renders durations for display.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// HMS renders seconds as H:MM:SS. Negative values and NaN clamp to zero,
// values beyond math.MaxInt64 (including +Inf) clamp to it, and fractions
// round to the nearest second. Hours are not wrapped into days.
func HMS(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	var total int64
	if r := math.Round(seconds); r >= math.MaxInt64 {
		total = math.MaxInt64
	} else {
		total = int64(r)
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// Seconds is a convenience wrapper around HMS for integer durations.
func Seconds(s int) string {
	return HMS(float64(s))
}

// ParseHMS parses H:MM:SS, MM:SS or SS back into seconds.
func ParseHMS(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, fmt.Errorf("empty duration")
	}
	parts := strings.Split(v, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("invalid duration %q: field %q out of range", v, p)
		}
		total = total*60 + n
	}
	return total, nil
}
