package acquire

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zigzag-timetable/backend/internal/models"
	"github.com/zigzag-timetable/backend/internal/parser"
	"github.com/zigzag-timetable/backend/internal/storage"
	"github.com/zigzag-timetable/backend/internal/testutil"
)

const (
	stationsCSV = "Name,Y\nTokyo,0\nOsaka,10\n"
	tripsCSV    = "from,to,depart,arrive\nTokyo,Osaka,9:00,11:30\nOsaka,Tokyo,12:00,14:30\n"
)

// blockingSource waits for cancellation before failing.
type blockingSource struct{}

func (blockingSource) Name() string { return "blocking" }

func (blockingSource) Open(ctx context.Context) (io.ReadCloser, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAcquire_TextSources(t *testing.T) {
	tables, err := Acquire(context.Background(), nil,
		TextSource{Label: "stations", Content: stationsCSV},
		TextSource{Label: "trips", Content: tripsCSV})
	require.NoError(t, err)

	require.NotNil(t, tables.Stations)
	assert.Len(t, tables.Stations.Rows, 2)
	assert.Len(t, tables.Trips.Rows, 2)
}

func TestAcquire_NilStations(t *testing.T) {
	tables, err := Acquire(context.Background(), nil, nil, TextSource{Label: "trips", Content: tripsCSV})
	require.NoError(t, err)
	assert.Nil(t, tables.Stations)
	assert.NotNil(t, tables.Trips)
}

func TestAcquire_RequiresTrips(t *testing.T) {
	_, err := Acquire(context.Background(), nil, TextSource{Label: "s", Content: stationsCSV}, nil)
	assert.Error(t, err)
}

func TestAcquire_FailureCancelsOtherFetch(t *testing.T) {
	done := make(chan error, 1)
	go func() {
		_, err := Acquire(context.Background(), nil,
			blockingSource{},
			FileSource{Path: filepath.Join(t.TempDir(), "missing.csv")})
		done <- err
	}()

	select {
	case err := <-done:
		var se *SourceError
		require.True(t, errors.As(err, &se))
		assert.True(t, errors.Is(err, os.ErrNotExist) || se.Source == "blocking")
	case <-time.After(5 * time.Second):
		t.Fatal("Acquire did not return after a source failed")
	}
}

func TestAcquire_EmptyTableReachesIngest(t *testing.T) {
	_, err := Load(context.Background(), nil,
		TextSource{Label: "stations", Content: "  \n"},
		TextSource{Label: "trips", Content: "from,to\nA,B\n"})

	var ie *parser.IngestError
	require.True(t, errors.As(err, &ie))
	// Both the empty station table and the trip table's missing columns are reported.
	assert.Len(t, ie.Problems, 2)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.csv")
	require.NoError(t, os.WriteFile(path, []byte(tripsCSV), 0644))

	res, err := Load(context.Background(), nil, nil, FileSource{Path: path})
	require.NoError(t, err)
	assert.Len(t, res.Trips, 2)
	assert.Equal(t, "trips.csv", FileSource{Path: path}.Name())
}

func TestStoreSource(t *testing.T) {
	store := testutil.NewMockStorage()
	store.AddFile("s1", "stations.csv", models.TableKindStations, []byte(stationsCSV))
	store.AddFile("t1", "trips.csv", models.TableKindTrips, []byte(tripsCSV))

	stationsSrc, err := NewStoreSource(store, "s1")
	require.NoError(t, err)
	tripsSrc, err := NewStoreSource(store, "t1")
	require.NoError(t, err)
	assert.Equal(t, "trips.csv", tripsSrc.Name())

	res, err := Load(context.Background(), nil, stationsSrc, tripsSrc)
	require.NoError(t, err)
	assert.True(t, res.Explicit)
	assert.Equal(t, 10.0, res.Stations[1].Position)

	_, err = NewStoreSource(store, "nope")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestURLSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/trips.csv":
			w.Header().Set("Content-Type", "text/csv")
			_, _ = io.WriteString(w, tripsCSV)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t.Run("downloads table", func(t *testing.T) {
		src := NewURLSource(srv.URL+"/trips.csv?v=2", 5*time.Second, 0)
		assert.Equal(t, "trips.csv", src.Name())

		res, err := Load(context.Background(), nil, nil, src)
		require.NoError(t, err)
		assert.Len(t, res.Trips, 2)
	})

	t.Run("reports status errors", func(t *testing.T) {
		_, err := Acquire(context.Background(), nil, nil, NewURLSource(srv.URL+"/missing", 5*time.Second, 0))
		var hse *HTTPStatusError
		require.True(t, errors.As(err, &hse))
		assert.Equal(t, http.StatusNotFound, hse.Status)
	})

	t.Run("enforces size cap", func(t *testing.T) {
		_, err := Acquire(context.Background(), nil, nil, NewURLSource(srv.URL+"/trips.csv", 5*time.Second, 8))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds")
	})
}
