package timetable

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Train is one departure from the origin station. Times are "HH:MM" or
// "HH:MM:SS"; Arrival is empty without a destination.
type Train struct {
	No        string
	TypeCode  string
	TypeName  string
	Departure string
	Arrival   string
}

// SelectNearby sorts trains by departure and returns up to n trains either
// side of the one closest to target, plus that train's index in the window.
// Trains without a departure time are dropped.
func SelectNearby(trains []Train, target string, n int) ([]Train, int, error) {
	tm, err := minutes(target)
	if err != nil {
		return nil, -1, err
	}
	timed := make([]Train, 0, len(trains))
	for _, t := range trains {
		if t.Departure != "" {
			timed = append(timed, t)
		}
	}
	if len(timed) == 0 {
		return nil, -1, nil
	}
	deps := make(map[string]int, len(timed))
	for _, t := range timed {
		m, err := minutes(t.Departure)
		if err != nil {
			return nil, -1, fmt.Errorf("train %s: %w", t.No, err)
		}
		deps[t.Departure] = m
	}
	sort.SliceStable(timed, func(i, j int) bool { return deps[timed[i].Departure] < deps[timed[j].Departure] })

	closest, best := 0, -1
	for i, t := range timed {
		d := deps[t.Departure] - tm
		if d < 0 {
			d = -d
		}
		if best < 0 || d < best {
			closest, best = i, d
		}
	}
	if n < 0 {
		n = 0
	}
	lo := max(0, closest-n)
	hi := min(len(timed), closest+n+1)
	return timed[lo:hi], closest - lo, nil
}

// minutes parses "HH:MM[:SS]" into minutes after midnight.
func minutes(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("%w: time %q", ErrFormat, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: time %q", ErrFormat, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: time %q", ErrFormat, s)
	}
	return h*60 + m, nil
}
