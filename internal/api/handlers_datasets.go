// handlers_datasets.go - Timetable dataset and diagram handlers
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zigzag-timetable/backend/internal/acquire"
	"github.com/zigzag-timetable/backend/internal/cache"
	"github.com/zigzag-timetable/backend/internal/models"
	"github.com/zigzag-timetable/backend/internal/parser"
	"github.com/zigzag-timetable/backend/internal/storage"
	"github.com/zigzag-timetable/backend/internal/timetable"
)

// DatasetHandlerImpl implements the DatasetHandler interface
type DatasetHandlerImpl struct {
	store        storage.Store
	datasets     DatasetStore
	readers      *parser.Registry
	diagrams     *diagramRenderer
	cache        *cache.Diagrams
	fetchTimeout time.Duration
	maxDownload  int64
}

// NewDatasetHandler creates a new dataset handler instance
func NewDatasetHandler(deps *Dependencies) DatasetHandler {
	return &DatasetHandlerImpl{
		store:        deps.Store,
		datasets:     deps.Datasets,
		readers:      deps.readers(),
		diagrams:     deps.diagramRenderer(),
		cache:        deps.Cache,
		fetchTimeout: deps.FetchTimeout,
		maxDownload:  deps.MaxDownload,
	}
}

// HandleCreateDataset ingests a trip table, and optionally a station table,
// from stored files or URLs and persists the result
func (h *DatasetHandlerImpl) HandleCreateDataset(c echo.Context) error {
	var req createDatasetRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	if err := req.validate(); err != nil {
		return err
	}

	tripsSrc, err := h.source(req.TripsFileID, req.TripsURL)
	if err != nil {
		return err
	}
	var stationsSrc acquire.Source
	if req.StationsFileID != "" || req.StationsURL != "" {
		if stationsSrc, err = h.source(req.StationsFileID, req.StationsURL); err != nil {
			return err
		}
	}

	ctx := c.Request().Context()
	res, err := acquire.Load(ctx, h.readers, stationsSrc, tripsSrc)
	if err != nil {
		return ingestFailure(err)
	}

	name := req.Name
	if name == "" {
		name = tripsSrc.Name()
	}
	ds, err := h.datasets.Save(ctx, name, res)
	if err != nil {
		return NewInternalError("failed to store dataset", err)
	}

	logger.Infof("dataset %s: %d stations, %d trips, %d diagnostics",
		ds.ID, ds.StationCount, ds.TripCount, len(res.Diagnostics))

	return c.JSON(http.StatusCreated, datasetResponse{
		Dataset:     ds,
		Diagnostics: nonNilDiagnostics(res.Diagnostics),
	})
}

// source builds a table source from a stored file id or a URL.
func (h *DatasetHandlerImpl) source(fileID, url string) (acquire.Source, error) {
	if url != "" {
		return acquire.NewURLSource(url, h.fetchTimeout, h.maxDownload), nil
	}
	src, err := acquire.NewStoreSource(h.store, fileID)
	if err != nil {
		return nil, storeError(err, fileID)
	}
	return src, nil
}

// HandleListDatasets returns all stored datasets, newest first
func (h *DatasetHandlerImpl) HandleListDatasets(c echo.Context) error {
	list, err := h.datasets.List(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to list datasets", err)
	}
	return c.JSON(http.StatusOK, list)
}

// HandleGetDataset returns a dataset with its stations, trips and diagnostics
func (h *DatasetHandlerImpl) HandleGetDataset(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	tt, err := h.datasets.Load(c.Request().Context(), id, timetable.TripFilter{})
	if err != nil {
		return datasetError(err, id)
	}
	return c.JSON(http.StatusOK, tt)
}

// HandleDeleteDataset removes a dataset
func (h *DatasetHandlerImpl) HandleDeleteDataset(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	if err := h.datasets.Delete(c.Request().Context(), id); err != nil {
		return datasetError(err, id)
	}
	if h.cache != nil {
		h.cache.InvalidateDataset(id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleDatasetDiagram renders a stored dataset, optionally narrowed to a
// departure window or style
func (h *DatasetHandlerImpl) HandleDatasetDiagram(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	q, err := bindDiagramQuery(c)
	if err != nil {
		return err
	}
	rd, err := h.diagrams.renderer(q.Format)
	if err != nil {
		return err
	}

	// Stored datasets are immutable; a rendering stays valid until deletion.
	key := id + "?" + c.QueryParams().Encode()
	if h.cache != nil {
		if diagram, ok := h.cache.Get(key); ok {
			c.Response().Header().Set("X-Cache", "hit")
			return sendDiagram(c, diagram)
		}
	}

	tt, err := h.datasets.Load(c.Request().Context(), id, q.Filter)
	if err != nil {
		return datasetError(err, id)
	}

	diagram, err := h.diagrams.draw(rd, tt.Stations, tt.Trips, tt.Dataset.Explicit, q.Options)
	if err != nil {
		return err
	}
	if h.cache != nil {
		h.cache.Put(id, key, diagram)
		c.Response().Header().Set("X-Cache", "miss")
	}
	return sendDiagram(c, diagram)
}

// ingestFailure maps acquisition and ingestion failures onto API errors.
func ingestFailure(err error) error {
	var ie *parser.IngestError
	if errors.As(err, &ie) {
		return NewIngestError(ie)
	}
	var hse *acquire.HTTPStatusError
	if errors.As(err, &hse) {
		return NewUpstreamError(err)
	}
	var se *acquire.SourceError
	if errors.As(err, &se) {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("table", se.Source)
		}
		return NewBadRequestError("table could not be read", err)
	}
	return NewInternalError("ingestion failed", err)
}

func datasetError(err error, id string) error {
	if errors.Is(err, timetable.ErrNotFound) {
		return NewNotFoundError("dataset", id)
	}
	return NewInternalError("dataset query failed", err)
}

func nonNilDiagnostics(d []parser.Diagnostic) []parser.Diagnostic {
	if d == nil {
		return []parser.Diagnostic{}
	}
	return d
}

// Request/Response types

type createDatasetRequest struct {
	Name           string `json:"name"`
	StationsFileID string `json:"stationsFileId"`
	TripsFileID    string `json:"tripsFileId"`
	StationsURL    string `json:"stationsUrl"`
	TripsURL       string `json:"tripsUrl"`
}

func (r *createDatasetRequest) validate() error {
	if (r.TripsFileID == "") == (r.TripsURL == "") {
		return NewBadRequestError("exactly one of tripsFileId or tripsUrl is required", nil)
	}
	if r.StationsFileID != "" && r.StationsURL != "" {
		return NewBadRequestError("give stationsFileId or stationsUrl, not both", nil)
	}
	for field, u := range map[string]string{"tripsUrl": r.TripsURL, "stationsUrl": r.StationsURL} {
		if u != "" && !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return NewValidationError(field)
		}
	}
	return nil
}

type datasetResponse struct {
	Dataset     *models.Dataset     `json:"dataset"`
	Diagnostics []parser.Diagnostic `json:"diagnostics"`
}
