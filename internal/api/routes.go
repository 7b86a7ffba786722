// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/zigzag-timetable/backend/internal/cache"
	"github.com/zigzag-timetable/backend/internal/layout"
	"github.com/zigzag-timetable/backend/internal/logging"
	"github.com/zigzag-timetable/backend/internal/parser"
	"github.com/zigzag-timetable/backend/internal/render"
	"github.com/zigzag-timetable/backend/internal/storage"
)

var logger = logging.New("api")

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store     storage.Store
	Datasets  DatasetStore
	Readers   *parser.Registry
	Renderers *render.Registry

	// Cache holds rendered dataset diagrams; nil disables caching.
	Cache *cache.Diagrams

	// Layout holds the configured defaults that query overrides are merged onto.
	Layout        layout.Options
	DefaultFormat string

	FetchTimeout time.Duration
	MaxDownload  int64
	Version      string
}

func (d *Dependencies) readers() *parser.Registry {
	if d.Readers == nil {
		return parser.GetGlobalRegistry()
	}
	return d.Readers
}

func (d *Dependencies) diagramRenderer() *diagramRenderer {
	renderers := d.Renderers
	if renderers == nil {
		renderers = render.NewRegistry(nil)
	}
	format := d.DefaultFormat
	if format == "" {
		format = render.FormatSVG
	}
	return &diagramRenderer{renderers: renderers, defaults: d.Layout, defaultFormat: format}
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Tables   TableHandler
	Datasets DatasetHandler
	Diagrams DiagramHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.diagramRenderer().renderers.Names()),
		Tables:   NewTableHandler(deps.Store),
		Datasets: NewDatasetHandler(deps),
		Diagrams: NewDiagramHandler(deps),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Table files
	tableGroup := apiGroup.Group("/tables")
	tableGroup.POST("/upload", handlers.Tables.HandleUploadTable)
	tableGroup.POST("/paste", handlers.Tables.HandlePasteTable)
	tableGroup.GET("/recent", handlers.Tables.HandleGetRecentTables)
	tableGroup.GET("/:id", handlers.Tables.HandleGetTable)
	tableGroup.PUT("/:id", handlers.Tables.HandleRenameTable)
	tableGroup.DELETE("/:id", handlers.Tables.HandleDeleteTable)

	// Datasets
	datasetGroup := apiGroup.Group("/datasets")
	datasetGroup.POST("", handlers.Datasets.HandleCreateDataset)
	datasetGroup.GET("", handlers.Datasets.HandleListDatasets)
	datasetGroup.GET("/:id", handlers.Datasets.HandleGetDataset)
	datasetGroup.DELETE("/:id", handlers.Datasets.HandleDeleteDataset)
	datasetGroup.GET("/:id/diagram", handlers.Datasets.HandleDatasetDiagram)

	// One-shot diagrams
	diagramGroup := apiGroup.Group("/diagrams")
	diagramGroup.POST("/render", handlers.Diagrams.HandleRenderDiagram)
	diagramGroup.GET("/formats", handlers.Diagrams.HandleGetFormats)
}

// MiddlewareConfig selects the optional middleware
type MiddlewareConfig struct {
	RequestLogging bool
	EnableCORS     bool
	AllowOrigins   string
	BodyLimit      string
	Timeout        time.Duration
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			return !cfg.RequestLogging || c.Request().URL.Path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.Timeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: cfg.Timeout,
			Skipper: func(c echo.Context) bool {
				return strings.HasSuffix(c.Request().URL.Path, "/upload")
			},
			ErrorMessage: "Request timeout - diagram took too long",
		}))
	}

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if cfg.EnableCORS {
		origins := strings.Split(cfg.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  origins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			ExposeHeaders: []string{"X-Diagnostics", "X-Diagram-Primitives", "X-Cache"},
		}))
	}
}
