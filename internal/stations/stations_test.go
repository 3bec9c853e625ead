package stations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tra-booker/internal/reservation"
)

func TestResolve(t *testing.T) {
	tab := Default()
	tests := []struct {
		in   string
		want reservation.Station
	}{
		{"臺北", reservation.Station{ID: "1000", Name: "臺北"}},
		{"台北", reservation.Station{ID: "1000", Name: "臺北"}},
		{" 高雄 ", reservation.Station{ID: "4400", Name: "高雄"}},
		{"0990", reservation.Station{ID: "0990", Name: "松山"}},
	}
	for _, tt := range tests {
		got, err := tab.Resolve(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.want.ID+"-"+tt.want.Name, got.FormValue())
	}

	_, err := tab.Resolve("Atlantis")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`stations:
  - {id: "7130", name: 蘇澳新}
  - {id: "1001", name: 臺北}
`), 0o600))

	tab, err := Load(path)
	require.NoError(t, err)

	s, err := tab.Resolve("蘇澳新")
	require.NoError(t, err)
	assert.Equal(t, "7130", s.ID)

	s, err = tab.Resolve("台北")
	require.NoError(t, err)
	assert.Equal(t, "1001", s.ID)

	_, err = tab.Resolve("高雄")
	assert.NoError(t, err, "built-in entries survive an override")
	assert.Contains(t, tab.Names(), "蘇澳新")
}

func TestLoadRejectsIncompleteEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stations:\n  - {id: \"9999\"}\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}
