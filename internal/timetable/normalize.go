// Package timetable looks up TRA departures near a requested time.
package timetable

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrFormat = errors.New("invalid format")

var dateSeparators = strings.NewReplacer("-", "", "/", "", ".", "")

// NormalizeDate is NormalizeDateAt relative to the local clock.
func NormalizeDate(s string) (string, error) { return NormalizeDateAt(s, time.Now()) }

// NormalizeDateAt turns a partial date into YYYYMMDD. Eight digits pass
// through; three or four digits are MMDD in now's year; one or two digits
// are a day in now's month. Separators are removed first.
func NormalizeDateAt(s string, now time.Time) (string, error) {
	d := dateSeparators.Replace(strings.TrimSpace(s))
	if d == "" || !allDigits(d) {
		return "", fmt.Errorf("%w: date %q", ErrFormat, s)
	}
	var out string
	switch len(d) {
	case 8:
		out = d
	case 3, 4:
		out = fmt.Sprintf("%04d%s", now.Year(), leftPad(d, 4))
	case 1, 2:
		day, _ := strconv.Atoi(d)
		out = fmt.Sprintf("%04d%02d%02d", now.Year(), int(now.Month()), day)
	default:
		return "", fmt.Errorf("%w: date %q", ErrFormat, s)
	}
	if _, err := time.Parse("20060102", out); err != nil {
		return "", fmt.Errorf("%w: date %q is not a calendar day", ErrFormat, s)
	}
	return out, nil
}

// NormalizeTime turns "9:05", "0905" or "905" into "09:05".
func NormalizeTime(s string) (string, error) {
	t := strings.ReplaceAll(strings.TrimSpace(s), ":", "")
	if t == "" || !allDigits(t) {
		return "", fmt.Errorf("%w: time %q", ErrFormat, s)
	}
	if len(t) == 3 {
		t = "0" + t
	}
	if len(t) != 4 {
		return "", fmt.Errorf("%w: time %q", ErrFormat, s)
	}
	h, _ := strconv.Atoi(t[:2])
	m, _ := strconv.Atoi(t[2:])
	if h > 23 || m > 59 {
		return "", fmt.Errorf("%w: time %q out of range", ErrFormat, s)
	}
	return t[:2] + ":" + t[2:], nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func leftPad(s string, n int) string {
	return strings.Repeat("0", n-len(s)) + s
}
