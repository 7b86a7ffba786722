package acquire

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/zigzag-timetable/backend/internal/logging"
	"github.com/zigzag-timetable/backend/internal/parser"
)

var logger = logging.New("acquire")

// Tables holds the raw tables fetched for one diagram. Stations is nil when
// no station source was given.
type Tables struct {
	Stations *parser.RawTable
	Trips    *parser.RawTable
}

// SourceError names the source a fetch failed on.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("acquiring %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Acquire fetches both tables concurrently. stationsSrc may be nil. The first
// failure cancels the other fetch.
func Acquire(ctx context.Context, reg *parser.Registry, stationsSrc, tripsSrc Source) (*Tables, error) {
	if tripsSrc == nil {
		return nil, fmt.Errorf("a trips source is required")
	}
	if reg == nil {
		reg = parser.GetGlobalRegistry()
	}

	var tables Tables
	g, gctx := errgroup.WithContext(ctx)

	if stationsSrc != nil {
		g.Go(func() error {
			t, err := fetch(gctx, reg, stationsSrc)
			tables.Stations = t
			return err
		})
	}
	g.Go(func() error {
		t, err := fetch(gctx, reg, tripsSrc)
		tables.Trips = t
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &tables, nil
}

// Load acquires both tables and ingests them.
func Load(ctx context.Context, reg *parser.Registry, stationsSrc, tripsSrc Source) (*parser.Result, error) {
	tables, err := Acquire(ctx, reg, stationsSrc, tripsSrc)
	if err != nil {
		return nil, err
	}
	return parser.Ingest(tables.Stations, tables.Trips)
}

func fetch(ctx context.Context, reg *parser.Registry, src Source) (*parser.RawTable, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, &SourceError{Source: src.Name(), Err: err}
	}
	defer rc.Close()

	table, err := reg.ReadTable(src.Name(), rc)
	var empty *parser.EmptyTableError
	if errors.As(err, &empty) {
		// Ingest reports empty tables together with the other table's problems.
		return &parser.RawTable{Name: src.Name()}, nil
	}
	if err != nil {
		return nil, &SourceError{Source: src.Name(), Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &SourceError{Source: src.Name(), Err: err}
	}

	logger.Debugf("read %s: %d rows (%s)", src.Name(), len(table.Rows), table.Format)
	return table, nil
}
