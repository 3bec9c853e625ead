package timetable

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

var typeNames = map[string]string{
	"1":  "太魯閣",
	"2":  "普悠瑪",
	"3":  "自強(3000)",
	"4":  "自強",
	"5":  "莒光",
	"6":  "復興",
	"7":  "區間",
	"10": "普快",
	"11": "區間快",
}

var parenthetical = regexp.MustCompile(`\(([^)]+)\)`)

// ShortTypeName drops verbose parentheticals such as "(推拉式自強號且無自行車車廂)"
// but keeps short ones like "(3000)".
func ShortTypeName(name string) string {
	out := parenthetical.ReplaceAllStringFunc(name, func(m string) string {
		inner := m[1 : len(m)-1]
		if len([]rune(inner)) > 4 || strings.Contains(inner, " ") {
			return ""
		}
		return m
	})
	return strings.TrimSpace(out)
}

func displayType(t Train) string {
	if s := ShortTypeName(t.TypeName); s != "" {
		return s
	}
	if s, ok := typeNames[t.TypeCode]; ok {
		return s
	}
	return t.TypeCode
}

// FormatDuration renders the travel time between two clock times, wrapping
// past midnight, as "1h09m" or "42m".
func FormatDuration(dep, arr string) (string, error) {
	d, err := minutes(dep)
	if err != nil {
		return "", err
	}
	a, err := minutes(arr)
	if err != nil {
		return "", err
	}
	total := a - d
	if total < 0 {
		total += 24 * 60
	}
	if h := total / 60; h > 0 {
		return fmt.Sprintf("%dh%02dm", h, total%60), nil
	}
	return fmt.Sprintf("%dm", total), nil
}

func hhmm(s string) string {
	if len(s) >= 5 {
		return s[:5]
	}
	if s == "" {
		return "-"
	}
	return s
}

// Query is a validated lookup request.
type Query struct {
	Date        string // YYYYMMDD
	Time        string // HH:MM
	Origin      string
	Destination string // optional
}

// PrintTable writes the nearby-departures table, marking the closest train.
func PrintTable(w io.Writer, q Query, window []Train, closest int) {
	route := q.Origin
	if q.Destination != "" {
		route += " -> " + q.Destination
	}
	fmt.Fprintf(w, "\n%s | %s/%s/%s around %s\n\n", route, q.Date[:4], q.Date[4:6], q.Date[6:], q.Time)

	withArrival := q.Destination != ""
	if withArrival {
		fmt.Fprintf(w, "%-6s %-12s %-7s %-7s %s\n", "Train", "Type", "Dep", "Arr", "Duration")
		fmt.Fprintln(w, strings.Repeat("─", 52))
	} else {
		fmt.Fprintf(w, "%-6s %-12s %s\n", "Train", "Type", "Dep")
		fmt.Fprintln(w, strings.Repeat("─", 38))
	}
	for i, t := range window {
		marker := ""
		if i == closest {
			marker = " ←"
		}
		if !withArrival {
			fmt.Fprintf(w, "%-6s %-12s %s%s\n", t.No, displayType(t), hhmm(t.Departure), marker)
			continue
		}
		dur := "-"
		if t.Departure != "" && t.Arrival != "" {
			if d, err := FormatDuration(t.Departure, t.Arrival); err == nil {
				dur = d
			}
		}
		fmt.Fprintf(w, "%-6s %-12s %-7s %-7s %s%s\n", t.No, displayType(t), hhmm(t.Departure), hhmm(t.Arrival), dur, marker)
	}
	fmt.Fprintln(w)
}
