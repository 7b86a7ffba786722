// Package timetable persists ingested timetables in DuckDB so diagrams can be
// re-rendered, and narrowed, without re-uploading the tables.
package timetable

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"

	"github.com/zigzag-timetable/backend/internal/logging"
	"github.com/zigzag-timetable/backend/internal/models"
	"github.com/zigzag-timetable/backend/internal/parser"
)

var logger = logging.New("timetable")

// ErrNotFound is returned for an unknown dataset id.
var ErrNotFound = errors.New("dataset not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS datasets (
		id            VARCHAR PRIMARY KEY,
		name          VARCHAR,
		explicit      BOOLEAN NOT NULL,
		station_count INTEGER NOT NULL,
		trip_count    INTEGER NOT NULL,
		first_depart  DOUBLE,
		last_arrive   DOUBLE,
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stations (
		dataset_id VARCHAR NOT NULL,
		seq        INTEGER NOT NULL,
		name       VARCHAR NOT NULL,
		position   DOUBLE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trips (
		dataset_id   VARCHAR NOT NULL,
		seq          INTEGER NOT NULL,
		from_station VARCHAR NOT NULL,
		to_station   VARCHAR NOT NULL,
		depart       DOUBLE NOT NULL,
		arrive       DOUBLE NOT NULL,
		depart_h     INTEGER NOT NULL,
		depart_m     INTEGER NOT NULL,
		arrive_h     INTEGER NOT NULL,
		arrive_m     INTEGER NOT NULL,
		style        VARCHAR NOT NULL,
		line         INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS diagnostics (
		dataset_id VARCHAR NOT NULL,
		seq        INTEGER NOT NULL,
		severity   VARCHAR NOT NULL,
		tbl        VARCHAR NOT NULL,
		line       INTEGER NOT NULL,
		code       VARCHAR NOT NULL,
		message    VARCHAR NOT NULL
	)`,
}

// Options configures the DuckDB database.
type Options struct {
	// Path of the database file. Empty keeps everything in memory.
	Path        string
	MemoryLimit string
	Threads     int
	// MaxQueries bounds concurrent queries.
	MaxQueries int
}

// Timetable is a stored dataset with its stations and the trips that passed a filter.
type Timetable struct {
	Dataset     models.Dataset      `json:"dataset"`
	Stations    []models.Station    `json:"stations"`
	Trips       []models.Trip       `json:"trips"`
	Diagnostics []parser.Diagnostic `json:"diagnostics,omitempty"`
}

// TripFilter narrows the trips returned by Load. Nil bounds are open.
type TripFilter struct {
	DepartFrom *float64
	DepartTo   *float64
	Style      string
}

// Store keeps timetables in a DuckDB database.
type Store struct {
	db       *sql.DB
	path     string
	querySem chan struct{}
}

// Open creates or opens the dataset database.
func Open(opts Options) (*Store, error) {
	if opts.MaxQueries <= 0 {
		opts.MaxQueries = 3
	}

	var pragmas []string
	if opts.MemoryLimit != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", strings.ReplaceAll(opts.MemoryLimit, "'", "")))
	}
	if opts.Threads > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", opts.Threads))
	}
	pragmas = append(pragmas, "PRAGMA enable_progress_bar=false")

	connector, err := duckdb.NewConnector(opts.Path, func(execer driver.ExecerContext) error {
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	where := opts.Path
	if where == "" {
		where = "memory"
	}
	logger.Infof("dataset store ready (%s)", where)

	return &Store{
		db:       db,
		path:     opts.Path,
		querySem: make(chan struct{}, opts.MaxQueries),
	}, nil
}

// acquire takes a query slot, honoring cancellation.
func (s *Store) acquire(ctx context.Context) (func(), error) {
	select {
	case s.querySem <- struct{}{}:
		return func() { <-s.querySem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Save stores an ingestion result and returns its summary.
func (s *Store) Save(ctx context.Context, name string, res *parser.Result) (*models.Dataset, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ds := summarize(res)
	ds.ID = uuid.New().String()
	ds.Name = name
	ds.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	start := time.Now()
	if err := s.appendRows(ctx, ds.ID, res); err != nil {
		s.purge(ds.ID)
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO datasets (id, name, explicit, station_count, trip_count, first_depart, last_arrive, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ds.ID, ds.Name, ds.Explicit, ds.StationCount, ds.TripCount, ds.FirstDepart, ds.LastArrive, ds.CreatedAt)
	if err != nil {
		s.purge(ds.ID)
		return nil, fmt.Errorf("failed to insert dataset: %w", err)
	}

	logger.Debugf("saved dataset %s: %d stations, %d trips in %v", ds.ID, ds.StationCount, ds.TripCount, time.Since(start))
	return &ds, nil
}

// appendRows writes stations, trips and diagnostics with the DuckDB appender.
func (s *Store) appendRows(ctx context.Context, id string, res *parser.Result) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	return conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		if err := appendAll(dConn, "stations", len(res.Stations), func(a *duckdb.Appender, i int) error {
			st := res.Stations[i]
			return a.AppendRow(id, int32(i), st.Name, st.Position)
		}); err != nil {
			return err
		}

		if err := appendAll(dConn, "trips", len(res.Trips), func(a *duckdb.Appender, i int) error {
			tr := res.Trips[i]
			return a.AppendRow(id, int32(i), tr.From, tr.To, tr.Depart, tr.Arrive,
				int32(tr.DepartClock.Hours), int32(tr.DepartClock.Minutes),
				int32(tr.ArriveClock.Hours), int32(tr.ArriveClock.Minutes),
				tr.Style, int32(tr.Line))
		}); err != nil {
			return err
		}

		return appendAll(dConn, "diagnostics", len(res.Diagnostics), func(a *duckdb.Appender, i int) error {
			d := res.Diagnostics[i]
			return a.AppendRow(id, int32(i), string(d.Severity), d.Table, int32(d.Line), d.Code, d.Message)
		})
	})
}

func appendAll(conn *duckdb.Conn, table string, n int, row func(*duckdb.Appender, int) error) error {
	if n == 0 {
		return nil
	}
	appender, err := duckdb.NewAppenderFromConn(conn, "", table)
	if err != nil {
		return fmt.Errorf("failed to create %s appender: %w", table, err)
	}
	defer appender.Close()

	for i := 0; i < n; i++ {
		if err := row(appender, i); err != nil {
			return fmt.Errorf("failed to append %s row %d: %w", table, i, err)
		}
	}
	return appender.Flush()
}

// purge removes partially written rows after a failed save.
func (s *Store) purge(id string) {
	for _, table := range []string{"stations", "trips", "diagnostics", "datasets"} {
		col := "dataset_id"
		if table == "datasets" {
			col = "id"
		}
		if _, err := s.db.Exec("DELETE FROM "+table+" WHERE "+col+" = ?", id); err != nil {
			logger.Warnf("cleanup of %s for %s failed: %v", table, id, err)
		}
	}
}

func summarize(res *parser.Result) models.Dataset {
	ds := models.Dataset{
		Explicit:     res.Explicit,
		StationCount: len(res.Stations),
		TripCount:    len(res.Trips),
	}
	for i, tr := range res.Trips {
		if i == 0 || tr.Depart < ds.FirstDepart {
			ds.FirstDepart = tr.Depart
		}
		if i == 0 || tr.Arrive > ds.LastArrive {
			ds.LastArrive = tr.Arrive
		}
	}
	return ds
}

// Get returns a dataset summary.
func (s *Store) Get(ctx context.Context, id string) (*models.Dataset, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.get(ctx, id)
}

func (s *Store) get(ctx context.Context, id string) (*models.Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, explicit, station_count, trip_count, first_depart, last_arrive, created_at
		 FROM datasets WHERE id = ?`, id)
	ds, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("dataset query failed: %w", err)
	}
	return ds, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDataset(row rowScanner) (*models.Dataset, error) {
	var ds models.Dataset
	var name sql.NullString
	var first, last sql.NullFloat64
	if err := row.Scan(&ds.ID, &name, &ds.Explicit, &ds.StationCount, &ds.TripCount, &first, &last, &ds.CreatedAt); err != nil {
		return nil, err
	}
	ds.Name = name.String
	ds.FirstDepart = first.Float64
	ds.LastArrive = last.Float64
	return &ds, nil
}

// List returns all dataset summaries, newest first.
func (s *Store) List(ctx context.Context) ([]models.Dataset, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, explicit, station_count, trip_count, first_depart, last_arrive, created_at
		 FROM datasets ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("dataset query failed: %w", err)
	}
	defer rows.Close()

	list := []models.Dataset{}
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *ds)
	}
	return list, rows.Err()
}

// Load returns a dataset's stations in stored order and the trips that pass f,
// also in stored order.
func (s *Store) Load(ctx context.Context, id string, f TripFilter) (*Timetable, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ds, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	tt := &Timetable{Dataset: *ds}

	if tt.Stations, err = s.loadStations(ctx, id); err != nil {
		return nil, err
	}
	if tt.Trips, err = s.loadTrips(ctx, id, f); err != nil {
		return nil, err
	}
	if tt.Diagnostics, err = s.loadDiagnostics(ctx, id); err != nil {
		return nil, err
	}
	return tt, nil
}

func (s *Store) loadStations(ctx context.Context, id string) ([]models.Station, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, position FROM stations WHERE dataset_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("station query failed: %w", err)
	}
	defer rows.Close()

	list := []models.Station{}
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.Name, &st.Position); err != nil {
			return nil, err
		}
		list = append(list, st)
	}
	return list, rows.Err()
}

// buildWhereClause renders f as SQL conditions over the trips table.
func (f TripFilter) buildWhereClause(id string) (string, []interface{}) {
	conds := []string{"dataset_id = ?"}
	args := []interface{}{id}
	if f.DepartFrom != nil {
		conds = append(conds, "depart >= ?")
		args = append(args, *f.DepartFrom)
	}
	if f.DepartTo != nil {
		conds = append(conds, "depart <= ?")
		args = append(args, *f.DepartTo)
	}
	if f.Style != "" {
		conds = append(conds, "style = ?")
		args = append(args, f.Style)
	}
	return strings.Join(conds, " AND "), args
}

func (s *Store) loadTrips(ctx context.Context, id string, f TripFilter) ([]models.Trip, error) {
	where, args := f.buildWhereClause(id)
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_station, to_station, depart, arrive, depart_h, depart_m, arrive_h, arrive_m, style, line
		 FROM trips WHERE `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("trip query failed: %w", err)
	}
	defer rows.Close()

	list := []models.Trip{}
	for rows.Next() {
		var tr models.Trip
		if err := rows.Scan(&tr.From, &tr.To, &tr.Depart, &tr.Arrive,
			&tr.DepartClock.Hours, &tr.DepartClock.Minutes,
			&tr.ArriveClock.Hours, &tr.ArriveClock.Minutes,
			&tr.Style, &tr.Line); err != nil {
			return nil, err
		}
		list = append(list, tr)
	}
	return list, rows.Err()
}

func (s *Store) loadDiagnostics(ctx context.Context, id string) ([]parser.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT severity, tbl, line, code, message FROM diagnostics WHERE dataset_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("diagnostic query failed: %w", err)
	}
	defer rows.Close()

	var list []parser.Diagnostic
	for rows.Next() {
		var d parser.Diagnostic
		var severity string
		if err := rows.Scan(&severity, &d.Table, &d.Line, &d.Code, &d.Message); err != nil {
			return nil, err
		}
		d.Severity = parser.Severity(severity)
		list = append(list, d)
	}
	return list, rows.Err()
}

// Delete removes a dataset and its rows.
func (s *Store) Delete(ctx context.Context, id string) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	s.purge(id)
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
