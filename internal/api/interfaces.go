// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/zigzag-timetable/backend/internal/models"
	"github.com/zigzag-timetable/backend/internal/parser"
	"github.com/zigzag-timetable/backend/internal/timetable"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// TableHandler handles uploaded and pasted table files
type TableHandler interface {
	HandleUploadTable(c echo.Context) error
	HandlePasteTable(c echo.Context) error
	HandleGetRecentTables(c echo.Context) error
	HandleGetTable(c echo.Context) error
	HandleDeleteTable(c echo.Context) error
	HandleRenameTable(c echo.Context) error
}

// DatasetHandler handles ingested timetables and their diagrams
type DatasetHandler interface {
	HandleCreateDataset(c echo.Context) error
	HandleListDatasets(c echo.Context) error
	HandleGetDataset(c echo.Context) error
	HandleDeleteDataset(c echo.Context) error
	HandleDatasetDiagram(c echo.Context) error
}

// DiagramHandler handles one-shot diagram rendering
type DiagramHandler interface {
	HandleRenderDiagram(c echo.Context) error
	HandleGetFormats(c echo.Context) error
}

// DatasetStore defines the dataset persistence used by handlers.
// This allows mocking in tests
type DatasetStore interface {
	Save(ctx context.Context, name string, res *parser.Result) (*models.Dataset, error)
	Get(ctx context.Context, id string) (*models.Dataset, error)
	Load(ctx context.Context, id string, f timetable.TripFilter) (*timetable.Timetable, error)
	List(ctx context.Context) ([]models.Dataset, error)
	Delete(ctx context.Context, id string) error
}

var _ DatasetStore = (*timetable.Store)(nil)
