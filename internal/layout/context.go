package layout

import (
	"fmt"
	"math"

	"github.com/zigzag-timetable/backend/internal/models"
)

// UnresolvedStationError reports a trip naming a station the layout was not given.
type UnresolvedStationError struct {
	Station string
	Line    int
}

func (e *UnresolvedStationError) Error() string {
	return fmt.Sprintf("trip on line %d references unresolved station %q", e.Line, e.Station)
}

// InvalidTimeError reports a negative or non-finite trip time.
type InvalidTimeError struct {
	Value float64
	Line  int
}

func (e *InvalidTimeError) Error() string {
	return fmt.Sprintf("trip on line %d has invalid time %v", e.Line, e.Value)
}

// diagramContext holds the coordinate transform of one layout call.
type diagramContext struct {
	timeScale    float64
	stationScale float64
	positions    map[string]float64
	clockLabel   func(models.ClockTime) string
}

func newContext(stations []models.Station, opts Options) *diagramContext {
	positions := make(map[string]float64, len(stations))
	for _, s := range stations {
		positions[s.Name] = s.Position
	}
	return &diagramContext{
		timeScale:    opts.TimeScale,
		stationScale: opts.StationScale,
		positions:    positions,
		clockLabel:   models.ClockTime.HHMM,
	}
}

func (c *diagramContext) x(hours float64) float64 {
	return hours * c.timeScale
}

func (c *diagramContext) y(position float64) float64 {
	return position * c.stationScale
}

// stationY returns the scaled vertical coordinate of a station.
func (c *diagramContext) stationY(name string, line int) (float64, error) {
	pos, ok := c.positions[name]
	if !ok {
		return 0, &UnresolvedStationError{Station: name, Line: line}
	}
	return c.y(pos), nil
}

func checkTime(v float64, line int) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidTimeError{Value: v, Line: line}
	}
	return nil
}
