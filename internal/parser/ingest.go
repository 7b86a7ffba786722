package parser

import (
	"fmt"
	"math"
	"strconv"

	"github.com/zigzag-timetable/backend/internal/models"
	"github.com/zigzag-timetable/backend/internal/stations"
)

const (
	tableStations = "stations"
	tableTrips    = "trips"
)

// Result is the typed outcome of a successful ingestion. Diagnostics lists the
// rows that were skipped or flagged; it may be empty.
type Result struct {
	Stations    []models.Station
	Trips       []models.Trip
	Diagnostics []Diagnostic
	Explicit    bool // stations came from an explicit table
}

type tripColumns struct {
	from, to       int
	depart, arrive int
	decimalDepart  bool
	decimalArrive  bool
	style          int
}

type stationColumns struct {
	name, position int
}

// Ingest validates a trip table and an optional station table and converts
// them into typed stations and trips.
//
// Table-level problems (no table, missing columns) in either table abort the
// whole call with an *IngestError listing every problem. Row-level problems
// are collected as diagnostics and the offending rows are skipped.
//
// With a nil station table, stations are derived from the trips in order of
// first appearance. With a station table, every trip must name declared
// stations.
func Ingest(stationTable, tripTable *RawTable) (*Result, error) {
	var problems []error
	var diags []Diagnostic

	var tc tripColumns
	if tripTable == nil || len(tripTable.Headers) == 0 {
		problems = append(problems, &EmptyTableError{Table: tableTrips})
	} else {
		var missing []string
		var deprecated []string
		tc, missing, deprecated = resolveTripColumns(tripTable)
		if len(missing) > 0 {
			problems = append(problems, &MissingColumnError{Table: tableTrips, Columns: missing})
		}
		for _, col := range deprecated {
			diags = append(diags, warning(tableTrips, 0, CodeDeprecatedColumn,
				fmt.Sprintf("column %q is deprecated", col)))
		}
	}

	var sc stationColumns
	explicit := stationTable != nil
	if explicit {
		if len(stationTable.Headers) == 0 {
			problems = append(problems, &EmptyTableError{Table: tableStations})
		} else {
			var missing []string
			sc, missing = resolveStationColumns(stationTable)
			if len(missing) > 0 {
				problems = append(problems, &MissingColumnError{Table: tableStations, Columns: missing})
			}
		}
	}

	if len(problems) > 0 {
		return nil, &IngestError{Problems: problems}
	}

	res := &Result{Explicit: explicit}
	names := newNameTable()

	var known map[string]struct{}
	if explicit {
		var stationDiags []Diagnostic
		res.Stations, stationDiags = ingestStations(stationTable, sc, names)
		diags = append(diags, stationDiags...)

		known = make(map[string]struct{}, len(res.Stations))
		for _, s := range res.Stations {
			known[s.Name] = struct{}{}
		}
	}

	var tripDiags []Diagnostic
	res.Trips, tripDiags = ingestTrips(tripTable, tc, known, names)
	diags = append(diags, tripDiags...)

	if !explicit {
		res.Stations = stations.BuildIndex(res.Trips).Stations()
	}

	res.Diagnostics = diags
	return res, nil
}

func resolveTripColumns(t *RawTable) (tripColumns, []string, []string) {
	tc := tripColumns{
		from:   t.Column("from"),
		to:     t.Column("to"),
		depart: t.Column("depart"),
		arrive: t.Column("arrive"),
		style:  t.Column("styleclass"),
	}

	var deprecated []string
	if tc.to < 0 {
		if tc.to = t.Column("to direct"); tc.to >= 0 {
			deprecated = append(deprecated, "to direct")
		}
	}
	if tc.depart < 0 {
		if tc.depart = t.Column("dephrs"); tc.depart >= 0 {
			tc.decimalDepart = true
			deprecated = append(deprecated, "dephrs")
		}
	}
	if tc.arrive < 0 {
		if tc.arrive = t.Column("arrhrs"); tc.arrive >= 0 {
			tc.decimalArrive = true
			deprecated = append(deprecated, "arrhrs")
		}
	}

	var missing []string
	for _, c := range []struct {
		name string
		idx  int
	}{{"from", tc.from}, {"to", tc.to}, {"depart", tc.depart}, {"arrive", tc.arrive}} {
		if c.idx < 0 {
			missing = append(missing, c.name)
		}
	}
	return tc, missing, deprecated
}

func resolveStationColumns(t *RawTable) (stationColumns, []string) {
	sc := stationColumns{name: t.Column("name"), position: t.Column("y")}
	if sc.position < 0 {
		sc.position = t.Column("position")
	}

	var missing []string
	if sc.name < 0 {
		missing = append(missing, "name")
	}
	if sc.position < 0 {
		missing = append(missing, "y")
	}
	return sc, missing
}

func ingestStations(t *RawTable, sc stationColumns, names *nameTable) ([]models.Station, []Diagnostic) {
	var out []models.Station
	var diags []Diagnostic
	firstLine := make(map[string]int)

	for _, row := range t.Rows {
		if len(row.Cells) != len(t.Headers) {
			diags = append(diags, rowError(tableStations, row.Line, CodeRowShape,
				&RowShapeError{Table: tableStations, Line: row.Line, Want: len(t.Headers), Got: len(row.Cells)}))
			continue
		}

		name := row.Cells[sc.name]
		if name == "" {
			diags = append(diags, rowError(tableStations, row.Line, CodeEmptyField,
				&EmptyFieldError{Table: tableStations, Line: row.Line, Column: "name"}))
			continue
		}

		raw := row.Cells[sc.position]
		pos, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(pos) || math.IsInf(pos, 0) {
			diags = append(diags, rowError(tableStations, row.Line, CodeMalformedPosition,
				&MalformedPositionError{Line: row.Line, Value: raw}))
			continue
		}

		if first, dup := firstLine[name]; dup {
			diags = append(diags, rowError(tableStations, row.Line, CodeDuplicateStation,
				&DuplicateStationError{Line: row.Line, Station: name, FirstLine: first}))
			continue
		}
		firstLine[name] = row.Line
		out = append(out, models.Station{Name: names.intern(name), Position: pos})
	}
	return out, diags
}

// ingestTrips converts trip rows. When known is non-nil, trips naming a
// station outside it are rejected.
func ingestTrips(t *RawTable, tc tripColumns, known map[string]struct{}, names *nameTable) ([]models.Trip, []Diagnostic) {
	var out []models.Trip
	var diags []Diagnostic

	for _, row := range t.Rows {
		if len(row.Cells) != len(t.Headers) {
			diags = append(diags, rowError(tableTrips, row.Line, CodeRowShape,
				&RowShapeError{Table: tableTrips, Line: row.Line, Want: len(t.Headers), Got: len(row.Cells)}))
			continue
		}

		from, to := row.Cells[tc.from], row.Cells[tc.to]
		if from == "" || to == "" {
			col := "from"
			if from != "" {
				col = "to"
			}
			diags = append(diags, rowError(tableTrips, row.Line, CodeEmptyField,
				&EmptyFieldError{Table: tableTrips, Line: row.Line, Column: col}))
			continue
		}

		depart, departClock, err := readTime(row.Cells[tc.depart], tc.decimalDepart)
		if err != nil {
			diags = append(diags, rowError(tableTrips, row.Line, CodeMalformedTime, err))
			continue
		}
		arrive, arriveClock, err := readTime(row.Cells[tc.arrive], tc.decimalArrive)
		if err != nil {
			diags = append(diags, rowError(tableTrips, row.Line, CodeMalformedTime, err))
			continue
		}

		if known != nil {
			unknown := ""
			if _, ok := known[from]; !ok {
				unknown = from
			} else if _, ok := known[to]; !ok {
				unknown = to
			}
			if unknown != "" {
				diags = append(diags, rowError(tableTrips, row.Line, CodeUnknownStation,
					&UnknownStationError{Line: row.Line, Station: unknown}))
				continue
			}
		}

		style := models.DefaultTripStyle
		if tc.style >= 0 && row.Cells[tc.style] != "" {
			style = row.Cells[tc.style]
		}

		if arrive < depart {
			diags = append(diags, warning(tableTrips, row.Line, CodeArrivalBeforeDep,
				fmt.Sprintf("arrival %s precedes departure %s", arriveClock.HHMM(), departClock.HHMM())))
		}

		out = append(out, models.Trip{
			From:        names.intern(from),
			To:          names.intern(to),
			Depart:      depart,
			Arrive:      arrive,
			DepartClock: departClock,
			ArriveClock: arriveClock,
			Style:       names.intern(style),
			Line:        row.Line,
		})
	}
	return out, diags
}

func readTime(token string, decimal bool) (float64, models.ClockTime, error) {
	if decimal {
		return ParseHours(token)
	}
	clock, err := ParseClock(token)
	if err != nil {
		return 0, models.ClockTime{}, err
	}
	return clock.Fractional(), clock, nil
}
