// Package stations maps TRA station names to their four-digit codes.
package stations

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/tra-booker/internal/reservation"
)

//go:embed stations.yaml
var builtin []byte

var ErrUnknown = errors.New("unknown station")

type entry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type file struct {
	Stations []entry `yaml:"stations"`
}

// Table is read-only once built.
type Table struct {
	byName map[string]string
	byID   map[string]string
}

// Default returns the built-in table.
func Default() *Table {
	t, err := parse(builtin, newTable())
	if err != nil {
		panic(fmt.Sprintf("built-in station table: %v", err))
	}
	return t
}

// Load returns the built-in table with the entries of path layered on top.
// An empty path yields the built-in table.
func Load(path string) (*Table, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stations: %w", err)
	}
	if _, err := parse(b, t); err != nil {
		return nil, fmt.Errorf("stations %s: %w", path, err)
	}
	return t, nil
}

func newTable() *Table {
	return &Table{byName: map[string]string{}, byID: map[string]string{}}
}

func parse(b []byte, t *Table) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	for i, e := range f.Stations {
		id, name := strings.TrimSpace(e.ID), normalizeName(e.Name)
		if id == "" || name == "" {
			return nil, fmt.Errorf("entry %d: id and name required", i)
		}
		t.byName[name] = id
		t.byID[id] = name
	}
	return t, nil
}

// 台 and 臺 are used interchangeably; the table stores 臺.
func normalizeName(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "台", "臺")
}

// Resolve accepts a station name or code.
func (t *Table) Resolve(s string) (reservation.Station, error) {
	s = strings.TrimSpace(s)
	if name, ok := t.byID[s]; ok {
		return reservation.Station{ID: s, Name: name}, nil
	}
	name := normalizeName(s)
	if id, ok := t.byName[name]; ok {
		return reservation.Station{ID: id, Name: name}, nil
	}
	return reservation.Station{}, fmt.Errorf("%w %q", ErrUnknown, s)
}

func (t *Table) Names() []string {
	names := make([]string, 0, len(t.byName))
	for n := range t.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
