// diagram.go - Shared query binding and rendering for diagram endpoints
package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/zigzag-timetable/backend/internal/cache"
	"github.com/zigzag-timetable/backend/internal/layout"
	"github.com/zigzag-timetable/backend/internal/models"
	"github.com/zigzag-timetable/backend/internal/parser"
	"github.com/zigzag-timetable/backend/internal/render"
	"github.com/zigzag-timetable/backend/internal/timetable"
)

// diagramQuery holds the query parameters accepted by diagram endpoints.
type diagramQuery struct {
	Format  string
	Options layout.Options
	Filter  timetable.TripFilter
}

// bindDiagramQuery reads format, layout overrides and the trip filter.
// from and to accept the same time notations as the trip table.
func bindDiagramQuery(c echo.Context) (*diagramQuery, error) {
	var q diagramQuery
	var from, to string

	err := echo.QueryParamsBinder(c).
		String("format", &q.Format).
		Float64("timeScale", &q.Options.TimeScale).
		Float64("stationScale", &q.Options.StationScale).
		Int("maxHour", &q.Options.MaxHour).
		Int("hourMajorInterval", &q.Options.HourMajorInterval).
		Int("hourMinorInterval", &q.Options.HourMinorInterval).
		Bool("hideMirroredLabels", &q.Options.HideMirroredLabels).
		String("from", &from).
		String("to", &to).
		String("style", &q.Filter.Style).
		BindError()
	if err != nil {
		return nil, NewBadRequestError("invalid query parameters", err)
	}

	if err := validateOptions(q.Options); err != nil {
		return nil, err
	}

	if from != "" {
		v, err := parser.ParseTime(from)
		if err != nil {
			return nil, NewBadRequestError("invalid from time", err)
		}
		q.Filter.DepartFrom = &v
	}
	if to != "" {
		v, err := parser.ParseTime(to)
		if err != nil {
			return nil, NewBadRequestError("invalid to time", err)
		}
		q.Filter.DepartTo = &v
	}
	if q.Filter.DepartFrom != nil && q.Filter.DepartTo != nil && *q.Filter.DepartTo < *q.Filter.DepartFrom {
		return nil, NewBadRequestError("to must not precede from", nil)
	}

	return &q, nil
}

// validateOptions rejects overrides outside the layout ranges; zero means
// "use the default".
func validateOptions(o layout.Options) error {
	if err := o.Validate(); err != nil {
		return optionsError(err)
	}
	return nil
}

func optionsError(err error) *APIError {
	var oe *layout.OptionsError
	if !errors.As(err, &oe) {
		return NewBadRequestError("invalid layout options", err)
	}
	apiErr := NewValidationError(oe.Field)
	apiErr.Details = oe.Error()
	return apiErr
}

// diagramRenderer resolves the output format and layout options for one request.
type diagramRenderer struct {
	renderers     *render.Registry
	defaults      layout.Options
	defaultFormat string
}

func (d *diagramRenderer) renderer(format string) (render.Renderer, error) {
	if format == "" {
		format = d.defaultFormat
	}
	rd, err := d.renderers.Get(format)
	if err != nil {
		return nil, NewBadRequestError("unsupported format", err)
	}
	return rd, nil
}

// draw lays out stations and trips and renders the diagram.
func (d *diagramRenderer) draw(rd render.Renderer, stations []models.Station, trips []models.Trip, explicit bool, override layout.Options) (cache.Diagram, error) {
	opts := d.defaults.Merge(override).WithDefaults(explicit)

	prims, err := layout.Layout(stations, trips, opts)
	if err != nil {
		var unresolved *layout.UnresolvedStationError
		var invalid *layout.InvalidTimeError
		var bounds *layout.OptionsError
		if errors.As(err, &bounds) {
			return cache.Diagram{}, optionsError(err)
		}
		if errors.As(err, &unresolved) || errors.As(err, &invalid) {
			return cache.Diagram{}, NewLayoutError(err)
		}
		return cache.Diagram{}, NewInternalError("layout failed", err)
	}

	var buf bytes.Buffer
	if err := rd.Render(&buf, prims); err != nil {
		return cache.Diagram{}, NewBadRequestError("diagram could not be rendered", err)
	}
	return cache.Diagram{ContentType: rd.ContentType(), Data: buf.Bytes(), Primitives: len(prims)}, nil
}

// write lays out stations and trips and writes the rendered diagram.
func (d *diagramRenderer) write(c echo.Context, rd render.Renderer, stations []models.Station, trips []models.Trip, explicit bool, override layout.Options) error {
	diagram, err := d.draw(rd, stations, trips, explicit, override)
	if err != nil {
		return err
	}
	return sendDiagram(c, diagram)
}

func sendDiagram(c echo.Context, diagram cache.Diagram) error {
	c.Response().Header().Set("X-Diagram-Primitives", strconv.Itoa(diagram.Primitives))
	return c.Blob(http.StatusOK, diagram.ContentType, diagram.Data)
}
