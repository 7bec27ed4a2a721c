package relation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/treescan/pkg/errors"
	"github.com/ajitpratap0/treescan/pkg/rio/riotest"
	"github.com/ajitpratap0/treescan/pkg/row"
)

func collectStream(t *testing.T, s *RecordStream) ([]row.Row, []error) {
	t.Helper()

	var rows []row.Row
	for rw := range s.Rows {
		rows = append(rows, rw)
	}
	var errs []error
	for err := range s.Errors {
		errs = append(errs, err)
	}
	return rows, errs
}

func TestStreamConcatenatesFiles(t *testing.T) {
	dir := t.TempDir()
	registerFile(t, dir, "a.root", eventsFile(1, 2))
	registerFile(t, dir, "b.root", eventsFile(3))

	rel, err := New(context.Background(), newConfig(dir))
	require.NoError(t, err)

	stream, err := rel.Stream(context.Background(), []string{"run"}, nil)
	require.NoError(t, err)

	rows, errs := collectStream(t, stream)
	require.Empty(t, errs)
	require.Len(t, rows, 3)

	// File order then entry order.
	assert.Equal(t, int32(1), rows[0][0])
	assert.Equal(t, int32(2), rows[1][0])
	assert.Equal(t, int32(3), rows[2][0])
}

func TestStreamSkipsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	registerFile(t, dir, "a.root", eventsFile(1))

	drifted := riotest.NewFile().AddTree(
		riotest.NewTree("events", 1).
			AddBranch("run", "double", riotest.NewPayload().Float64(9).Bytes()).
			AddBranch("nTracks", "int32_t", riotest.NewPayload().Int32(0).Bytes()).
			AddBranch("pt", "float[nTracks]", riotest.NewPayload().Bytes()))
	registerFile(t, dir, "b.root", drifted)

	registerFile(t, dir, "c.root", eventsFile(5))

	rel, err := New(context.Background(), newConfig(dir))
	require.NoError(t, err)

	stream, err := rel.Stream(context.Background(), []string{"run"}, nil)
	require.NoError(t, err)

	rows, errs := collectStream(t, stream)

	// The drifted file is reported and skipped; rows from the files
	// around it still arrive.
	require.Len(t, errs, 1)
	assert.True(t, errors.IsType(errs[0], errors.ErrorTypeSchemaMismatch))
	require.Len(t, rows, 2)
	assert.Equal(t, int32(1), rows[0][0])
	assert.Equal(t, int32(5), rows[1][0])
}

func TestStreamFiltersAreAdvisory(t *testing.T) {
	dir := t.TempDir()
	registerFile(t, dir, "a.root", eventsFile(1, 2, 3))

	rel, err := New(context.Background(), newConfig(dir))
	require.NoError(t, err)

	filters := []Predicate{{Column: "run", Op: ">", Value: 2}}
	stream, err := rel.Stream(context.Background(), []string{"run"}, filters)
	require.NoError(t, err)

	rows, errs := collectStream(t, stream)
	require.Empty(t, errs)

	// Filters are pushed through untouched; every row still arrives.
	assert.Len(t, rows, 3)
}

func TestStreamContextCancel(t *testing.T) {
	dir := t.TempDir()
	runs := make([]int32, 500)
	for i := range runs {
		runs[i] = int32(i)
	}
	registerFile(t, dir, "a.root", eventsFile(runs...))

	cfg := newConfig(dir)
	cfg.Performance.BufferSize = 1

	rel, err := New(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := rel.Stream(ctx, []string{"run"}, nil)
	require.NoError(t, err)

	// Take a few rows then cancel; the channels must close promptly.
	for i := 0; i < 3; i++ {
		_, ok := <-stream.Rows
		require.True(t, ok)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		for range stream.Rows {
		}
		for range stream.Errors {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not shut down after cancel")
	}
}

func TestStreamWithMetricsEnabled(t *testing.T) {
	dir := t.TempDir()
	registerFile(t, dir, "a.root", eventsFile(1, 2))

	cfg := newConfig(dir)
	cfg.Observability.EnableMetrics = true

	rel, err := New(context.Background(), cfg)
	require.NoError(t, err)

	stream, err := rel.Stream(context.Background(), nil, nil)
	require.NoError(t, err)

	rows, errs := collectStream(t, stream)
	require.Empty(t, errs)
	assert.Len(t, rows, 2)
}
