// handlers_diagrams.go - One-shot diagram rendering
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/zigzag-timetable/backend/internal/acquire"
	"github.com/zigzag-timetable/backend/internal/layout"
	"github.com/zigzag-timetable/backend/internal/parser"
)

// DiagramHandlerImpl implements the DiagramHandler interface
type DiagramHandlerImpl struct {
	readers  *parser.Registry
	diagrams *diagramRenderer
}

// NewDiagramHandler creates a new diagram handler instance
func NewDiagramHandler(deps *Dependencies) DiagramHandler {
	return &DiagramHandlerImpl{
		readers:  deps.readers(),
		diagrams: deps.diagramRenderer(),
	}
}

// HandleRenderDiagram renders table text from the request body without
// storing anything. Row-level diagnostics are counted in a response header.
func (h *DiagramHandlerImpl) HandleRenderDiagram(c echo.Context) error {
	var req renderDiagramRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	if err := req.validate(); err != nil {
		return err
	}

	rd, err := h.diagrams.renderer(req.Format)
	if err != nil {
		return err
	}

	var stationsSrc acquire.Source
	if strings.TrimSpace(req.Stations) != "" {
		stationsSrc = acquire.TextSource{Label: "stations", Content: req.Stations}
	}
	tripsSrc := acquire.TextSource{Label: "trips", Content: req.Trips}

	res, err := acquire.Load(c.Request().Context(), h.readers, stationsSrc, tripsSrc)
	if err != nil {
		return ingestFailure(err)
	}

	c.Response().Header().Set("X-Diagnostics", strconv.Itoa(len(res.Diagnostics)))
	return h.diagrams.write(c, rd, res.Stations, res.Trips, res.Explicit, req.Options)
}

// HandleGetFormats lists the available output formats
func (h *DiagramHandlerImpl) HandleGetFormats(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"formats": h.diagrams.renderers.Names(),
		"default": h.diagrams.defaultFormat,
	})
}

// Request/Response types

type renderDiagramRequest struct {
	Stations string         `json:"stations"`
	Trips    string         `json:"trips"`
	Format   string         `json:"format"`
	Options  layout.Options `json:"options"`
}

func (r *renderDiagramRequest) validate() error {
	if strings.TrimSpace(r.Trips) == "" {
		return NewValidationError("trips")
	}
	return validateOptions(r.Options)
}
