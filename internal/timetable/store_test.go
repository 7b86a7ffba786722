// store_test.go - Tests for the DuckDB-backed dataset store
package timetable

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zigzag-timetable/backend/internal/models"
	"github.com/zigzag-timetable/backend/internal/parser"
)

// createTestStore opens an in-memory store for testing
func createTestStore(t *testing.T) *Store {
	store, err := Open(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleResult() *parser.Result {
	return &parser.Result{
		Explicit: true,
		Stations: []models.Station{
			{Name: "Tokyo", Position: 0},
			{Name: "Nagoya", Position: 366},
			{Name: "Osaka", Position: 553},
		},
		Trips: []models.Trip{
			{From: "Tokyo", To: "Nagoya", Depart: 6, Arrive: 7.5,
				DepartClock: models.ClockTime{Hours: 6}, ArriveClock: models.ClockTime{Hours: 7, Minutes: 30},
				Style: "trainZigZag", Line: 2},
			{From: "Nagoya", To: "Osaka", Depart: 8, Arrive: 9,
				DepartClock: models.ClockTime{Hours: 8}, ArriveClock: models.ClockTime{Hours: 9},
				Style: "express", Line: 3},
			{From: "Osaka", To: "Tokyo", Depart: 23.5, Arrive: 26.25,
				DepartClock: models.ClockTime{Hours: 23, Minutes: 30}, ArriveClock: models.ClockTime{Hours: 26, Minutes: 15},
				Style: "trainZigZag", Line: 4},
		},
		Diagnostics: []parser.Diagnostic{
			{Severity: parser.SeverityWarning, Table: "trips", Line: 5, Code: parser.CodeArrivalBeforeDep, Message: "arrival precedes departure"},
		},
	}
}

func ptr(v float64) *float64 { return &v }

func TestStore_SaveAndLoad(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	ds, err := store.Save(ctx, "tokaido", sampleResult())
	require.NoError(t, err)
	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, "tokaido", ds.Name)
	assert.True(t, ds.Explicit)
	assert.Equal(t, 3, ds.StationCount)
	assert.Equal(t, 3, ds.TripCount)
	assert.Equal(t, 6.0, ds.FirstDepart)
	assert.Equal(t, 26.25, ds.LastArrive)

	tt, err := store.Load(ctx, ds.ID, TripFilter{})
	require.NoError(t, err)
	assert.Equal(t, sampleResult().Stations, tt.Stations)
	assert.Equal(t, sampleResult().Trips, tt.Trips)
	require.Len(t, tt.Diagnostics, 1)
	assert.Equal(t, parser.SeverityWarning, tt.Diagnostics[0].Severity)
	assert.Equal(t, 5, tt.Diagnostics[0].Line)
	assert.Equal(t, ds.ID, tt.Dataset.ID)
}

func TestStore_LoadFilters(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	ds, err := store.Save(ctx, "", sampleResult())
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter TripFilter
		want   []string // departure stations in order
	}{
		{"no filter", TripFilter{}, []string{"Tokyo", "Nagoya", "Osaka"}},
		{"from only", TripFilter{DepartFrom: ptr(8)}, []string{"Nagoya", "Osaka"}},
		{"to only", TripFilter{DepartTo: ptr(8)}, []string{"Tokyo", "Nagoya"}},
		{"window", TripFilter{DepartFrom: ptr(7), DepartTo: ptr(23)}, []string{"Nagoya"}},
		{"style", TripFilter{Style: "trainZigZag"}, []string{"Tokyo", "Osaka"}},
		{"empty window", TripFilter{DepartFrom: ptr(12), DepartTo: ptr(13)}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Load(ctx, ds.ID, tt.filter)
			require.NoError(t, err)

			from := []string{}
			for _, tr := range got.Trips {
				from = append(from, tr.From)
			}
			assert.Equal(t, tt.want, from)
			// Stations are never filtered.
			assert.Len(t, got.Stations, 3)
		})
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	first, err := store.Save(ctx, "first", sampleResult())
	require.NoError(t, err)
	second, err := store.Save(ctx, "second", &parser.Result{})
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, 0, list[0].TripCount)

	require.NoError(t, store.Delete(ctx, first.ID))
	_, err = store.Load(ctx, first.ID, TripFilter{})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(store.Delete(ctx, first.ID), ErrNotFound))

	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datasets.duckdb")
	ctx := context.Background()

	store, err := Open(Options{Path: path, Threads: 2, MemoryLimit: "256MB"})
	require.NoError(t, err)
	ds, err := store.Save(ctx, "kept", sampleResult())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(Options{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Name)
}

func TestStore_CancelledContext(t *testing.T) {
	store := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Fill every query slot so acquire must wait on the context.
	for i := 0; i < cap(store.querySem); i++ {
		store.querySem <- struct{}{}
	}
	_, err := store.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
