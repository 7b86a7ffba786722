package layout

import (
	"strconv"

	"github.com/zigzag-timetable/backend/internal/models"
)

// Layout produces the primitives of a diagram in a fixed stacking order:
//
//  1. minor hour gridlines
//  2. major hour gridlines, each followed by its hour-of-day label
//  3. station reference lines
//  4. station labels at the left margin, then mirrored at the right margin
//  5. per trip: the segment, then its departure and arrival time labels
//
// Coordinates are time*TimeScale and position*StationScale with no offset,
// clipping or inversion. Zero options fall back to the implicit-mode
// defaults; callers laying out explicit positions should pass options already
// resolved with WithDefaults(true).
//
// Every trip must name a station in stations. Options outside the ranges
// checked by Validate yield an *OptionsError. Each call builds its own
// context, so identical inputs give identical output.
func Layout(stations []models.Station, trips []models.Trip, opts Options) ([]models.Primitive, error) {
	opts = opts.WithDefaults(false)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	ctx := newContext(stations, opts)

	minorCount := opts.MaxHour/opts.HourMinorInterval + 1
	majorCount := opts.MaxHour/opts.HourMajorInterval + 1
	out := make([]models.Primitive, 0, minorCount+2*majorCount+3*len(stations)+3*len(trips))

	top, bottom := verticalExtent(ctx, stations)
	top -= opts.GridPadding
	bottom += opts.GridPadding
	right := ctx.x(float64(opts.MaxHour))

	for h := 0; h <= opts.MaxHour; h += opts.HourMinorInterval {
		x := ctx.x(float64(h))
		out = append(out, models.Line(x, top, x, bottom, StyleThinHourLine))
	}

	for h := 0; h <= opts.MaxHour; h += opts.HourMajorInterval {
		x := ctx.x(float64(h))
		out = append(out,
			models.Line(x, top, x, bottom, StyleHourLine),
			models.Label(x, top-opts.LabelMargin, strconv.Itoa(h%24)+"h", StyleHourLabel),
		)
	}

	for _, s := range stations {
		y := ctx.y(s.Position)
		out = append(out, models.Line(0, y, right, y, StyleStationLine))
	}

	for _, s := range stations {
		out = append(out, models.Label(-opts.LabelMargin, ctx.y(s.Position), s.Name, StyleStationLabel))
	}
	if !opts.HideMirroredLabels {
		for _, s := range stations {
			out = append(out, models.Label(right+opts.LabelMargin, ctx.y(s.Position), s.Name, StyleSmallLabel))
		}
	}

	for _, t := range trips {
		if err := checkTime(t.Depart, t.Line); err != nil {
			return nil, err
		}
		if err := checkTime(t.Arrive, t.Line); err != nil {
			return nil, err
		}
		y1, err := ctx.stationY(t.From, t.Line)
		if err != nil {
			return nil, err
		}
		y2, err := ctx.stationY(t.To, t.Line)
		if err != nil {
			return nil, err
		}

		style := t.Style
		if style == "" {
			style = models.DefaultTripStyle
		}
		x1, x2 := ctx.x(t.Depart), ctx.x(t.Arrive)
		out = append(out,
			models.Line(x1, y1, x2, y2, style),
			models.RotatedLabel(x1, y1, ctx.clockLabel(t.DepartClock), StyleTimeLabel, opts.TimeLabelAngle),
			models.RotatedLabel(x2, y2, ctx.clockLabel(t.ArriveClock), StyleTimeLabel, opts.TimeLabelAngle),
		)
	}

	return out, nil
}

// verticalExtent returns the smallest and largest scaled station coordinate.
func verticalExtent(ctx *diagramContext, stations []models.Station) (float64, float64) {
	if len(stations) == 0 {
		return 0, 0
	}
	lo, hi := ctx.y(stations[0].Position), ctx.y(stations[0].Position)
	for _, s := range stations[1:] {
		y := ctx.y(s.Position)
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	return lo, hi
}
