package store

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/notargets/gofsi/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempFile, err := os.CreateTemp(t.TempDir(), "test_*.db")
	require.NoError(t, err)
	tempFile.Close()

	s, err := Open(tempFile.Name())
	require.NoError(t, err)

	teardown := func() {
		s.Close()
		os.Remove(tempFile.Name())
	}
	return s, teardown
}

func TestRoundTrip(t *testing.T) {
	s, teardown := setupTestStore(t)
	defer teardown()

	run, err := s.BeginRun("cylinder", 4, "Dt: 0.1")
	require.NoError(t, err)

	snaps := []output.Snapshot{
		{Step: 0, Time: 0, X: []float64{0, 0, 0, 0}},
		{Step: 1, Time: 0.1, X: []float64{1.5, -2, math.Pi, 1e-300}, Iterations: 3, ResidualNorm: 1e-11},
		{Step: 2, Time: 0.2, X: []float64{2, -3, 0.5, math.Inf(1)}, Iterations: 2, ResidualNorm: 5e-12},
	}
	for _, snap := range snaps {
		require.NoError(t, s.Append(snap))
	}
	got, err := s.Snapshots(run.ID)
	require.NoError(t, err)
	assert.Equal(t, snaps, got)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "cylinder", runs[0].Title)
	assert.Equal(t, 4, runs[0].NumDofs)
	assert.Equal(t, "Dt: 0.1", runs[0].Params)
}

func TestAppendRules(t *testing.T) {
	s, teardown := setupTestStore(t)
	defer teardown()

	assert.Error(t, s.Append(output.Snapshot{Time: 0, X: []float64{1}}))

	_, err := s.BeginRun("first", 1, "")
	require.NoError(t, err)
	require.NoError(t, s.Append(output.Snapshot{Step: 0, Time: 1, X: []float64{1}}))
	err = s.Append(output.Snapshot{Step: 1, Time: 1, X: []float64{1}})
	assert.True(t, errors.Is(err, output.ErrNonMonotonic))
	assert.Error(t, s.Append(output.Snapshot{Step: 1, Time: 2, X: []float64{1, 2}}))

	// A new run restarts the clock
	second, err := s.BeginRun("second", 1, "")
	require.NoError(t, err)
	require.NoError(t, s.Append(output.Snapshot{Step: 0, Time: 0, X: []float64{7}}))
	got, err := s.Snapshots(second.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []float64{7}, got[0].X)

	runs, err := s.Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestOpenSettings(t *testing.T) {
	name := filepath.Join(t.TempDir(), "trajectory.db")
	s, err := Open(name)
	require.NoError(t, err)

	var mode string
	require.NoError(t, s.dbConn.Get(&mode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", mode)

	// Snapshots cannot reference a run that was never begun
	_, err = s.dbConn.Exec(`INSERT INTO snapshots (run_id, step, time, iterations, residual_norm, data)
	                        VALUES ('missing', 0, 0, 0, 0, x'00')`)
	assert.Error(t, err)

	run, err := s.BeginRun("kept", 1, "")
	require.NoError(t, err)
	require.NoError(t, s.Append(output.Snapshot{Time: 0, X: []float64{3}}))
	require.NoError(t, s.Close())

	// Reopening migrates nothing and keeps the recorded run
	s, err = Open(name)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	got, err := s.Snapshots(run.ID)
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, got[0].X)
}

func TestVectorCodec(t *testing.T) {
	x := []float64{0, -0.5, 1e10, math.SmallestNonzeroFloat64}
	data, err := encodeVector(x)
	require.NoError(t, err)
	back, err := decodeVector(data)
	require.NoError(t, err)
	assert.Equal(t, x, back)

	// A blob that is not a whole number of float64
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	_, err = bw.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, bw.Close())
	_, err = decodeVector(buf.Bytes())
	assert.Error(t, err)
}
