package cmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tra-booker/internal/config"
	"github.com/example/tra-booker/internal/crypto"
	"github.com/example/tra-booker/internal/history"
	"github.com/example/tra-booker/internal/reservation"
	"github.com/example/tra-booker/internal/stations"
)

func TestResultErrorExitCodes(t *testing.T) {
	tests := []struct {
		res  reservation.Result
		code int
	}{
		{reservation.Acquired(reservation.Seat{Car: "5", Number: 12}), 0},
		{reservation.Result{Kind: reservation.ResultNoSeats}, 2},
		{reservation.Result{Kind: reservation.ResultRetriesExhausted}, 1},
		{reservation.Fatal(errors.New("boom")), 1},
	}
	for _, tt := range tests {
		err := resultError(tt.res)
		assert.Equal(t, tt.code, exitCode(err), tt.res.String())
	}
	assert.Equal(t, 1, exitCode(errors.New("bad flag")))
}

func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	args = append(args, "--env-file", filepath.Join(t.TempDir(), "none.env"))
	code := run(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func TestVersion(t *testing.T) {
	out, _, code := execute(t, "version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "trabook dev"))
}

func TestKeys(t *testing.T) {
	out, _, code := execute(t, "keys")
	require.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	for i, name := range []string{"HOLD_HASH_KEY", "HOLD_BLOCK_KEY", "CRED_ENC_KEY"} {
		v, ok := strings.CutPrefix(lines[i], "export "+name+"=")
		require.True(t, ok, lines[i])
		b, err := base64.StdEncoding.DecodeString(v)
		require.NoError(t, err)
		assert.Len(t, b, 32)
	}
}

func TestLookupRequiresCredentials(t *testing.T) {
	t.Setenv("TDX_CLIENT_ID", "")
	t.Setenv("TDX_CLIENT_SECRET", "")
	_, errOut, code := execute(t, "lookup", "--from", "臺北", "--date", "0615", "--time", "0830")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "TDX_CLIENT_ID")
}

func TestBookRejectsInvalidRequest(t *testing.T) {
	t.Setenv("TRA_ACCOUNT", "A123456789")
	_, errOut, code := execute(t, "book", "--from", "Atlantis", "--to", "高雄", "--date", "0615", "--train", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "origin")
}

func TestRequestFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "req.yaml")
	require.NoError(t, os.WriteFile(path, []byte("origin: 臺北\ndestination: 高雄\ndate: \"20250615\"\ntrain: \"123\"\ncar: \"5\"\nseat_low: 10\n"), 0o600))

	var rf requestFlags
	c := &cobra.Command{Use: "book"}
	rf.register(c)
	require.NoError(t, c.ParseFlags([]string{"--request", path, "--car", "7", "--seat-high", "30", "--bounds", "inclusive"}))
	f, err := rf.file(c)
	require.NoError(t, err)

	assert.Equal(t, "臺北", f.Origin)
	assert.Equal(t, "7", f.Car)
	require.NotNil(t, f.SeatLow)
	assert.Equal(t, 10, *f.SeatLow)
	require.NotNil(t, f.SeatHigh)
	assert.Equal(t, 30, *f.SeatHigh)
	assert.Equal(t, "inclusive", f.Bounds)

	req, err := f.Build(stations.Default(), config.Config{Account: "A123456789"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, reservation.BoundsInclusive, req.Criteria.Bounds)
	assert.Equal(t, "A123456789", req.Account)
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	printRuns(&buf, nil)
	assert.Equal(t, "no runs recorded\n", buf.String())

	buf.Reset()
	printRuns(&buf, []history.Run{{
		ID: "r1", Account: "A1******89", Origin: "臺北", Destination: "高雄", Date: "20250615", TrainNo: "123",
		Criteria: "car=5", Result: "acquired", Seat: "5/15", Attempts: 3, StartedAt: time.Now(),
	}, {
		ID: "r2", Origin: "臺北", Destination: "高雄", Date: "20250615", TrainNo: "123",
		Criteria: "any", Result: "no_seats", Attempts: 1, StartedAt: time.Now(),
	}})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "RESULT")
	assert.Contains(t, lines[1], "5/15")
	assert.Contains(t, lines[1], "A1******89")
	assert.Contains(t, lines[2], "no_seats")
}

func TestUnsealRestoresSealedAccounts(t *testing.T) {
	aead, err := crypto.New(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	other, err := crypto.New(bytes.Repeat([]byte{8}, 32))
	require.NoError(t, err)

	sealed, err := aead.EncryptToString("A123456789")
	require.NoError(t, err)
	foreign, err := other.EncryptToString("B987654321")
	require.NoError(t, err)

	runs := []history.Run{{Account: sealed}, {Account: "A1******89"}, {Account: foreign}}
	unseal(runs, aead)
	assert.Equal(t, "A123456789", runs[0].Account)
	assert.Equal(t, "A1******89", runs[1].Account)
	assert.Equal(t, foreign, runs[2].Account)
}
