package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zigzag-timetable/backend/internal/api"
	"github.com/zigzag-timetable/backend/internal/cache"
	"github.com/zigzag-timetable/backend/internal/config"
	"github.com/zigzag-timetable/backend/internal/logging"
	"github.com/zigzag-timetable/backend/internal/parser"
	"github.com/zigzag-timetable/backend/internal/render"
	"github.com/zigzag-timetable/backend/internal/storage"
	"github.com/zigzag-timetable/backend/internal/timetable"
	"github.com/zigzag-timetable/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := os.Getenv("ZIGZAG_CONFIG")
	if configPath == "" {
		// Default to a config file next to the executable
		exePath, err := os.Executable()
		if err != nil {
			fmt.Printf("Failed to get executable path: %v\n", err)
			os.Exit(1)
		}
		configPath = filepath.Join(filepath.Dir(exePath), "ZigzagTimetable.config")
	}

	// Load XML configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logging.SetLevel(cfg.Advanced.LogLevel); err != nil {
		fmt.Printf("Failed to set log level: %v\n", err)
		os.Exit(1)
	}
	log := logging.New("server")

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	// Initialize table storage
	fileStore, err := storage.NewLocalStore(cfg.Storage.UploadsDirectory, cfg.MaxUploadBytes())
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}

	// Initialize dataset database
	datasets, err := timetable.Open(timetable.Options{
		Path:        cfg.Storage.DatasetDatabase,
		MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
		Threads:     cfg.Advanced.DuckDBThreads,
		MaxQueries:  cfg.Advanced.MaxConcurrentQueries,
	})
	if err != nil {
		fmt.Printf("Failed to open dataset database: %v\n", err)
		os.Exit(1)
	}
	defer datasets.Close()

	sheet, err := render.LoadStylesheet(cfg.Diagram.StylesheetPath)
	if err != nil {
		fmt.Printf("Failed to load stylesheet: %v\n", err)
		os.Exit(1)
	}
	renderers := render.NewRegistry(sheet)

	// Rendered dataset diagrams are cached until they expire or their dataset is deleted
	diagrams := cache.New(cfg.Advanced.DiagramCacheEntries, cfg.DiagramCacheAge())

	e := echo.New()
	e.HideBanner = true

	api.SetupMiddleware(e, api.MiddlewareConfig{
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   cfg.Server.AllowOrigins,
		BodyLimit:      cfg.Server.BodyLimit,
		Timeout:        time.Duration(cfg.Server.ReadTimeout) * time.Second,
	})

	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:         fileStore,
		Datasets:      datasets,
		Readers:       parser.GetGlobalRegistry(),
		Renderers:     renderers,
		Cache:         diagrams,
		Layout:        cfg.LayoutOptions(),
		DefaultFormat: cfg.Diagram.DefaultFormat,
		FetchTimeout:  cfg.FetchTimeout(),
		MaxDownload:   cfg.MaxDownloadBytes(),
		Version:       Version,
	}))

	// Register embedded viewer if available
	embeddedMode := web.HasEmbeddedFiles()
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			log.Warnf("failed to register static routes: %v", err)
			embeddedMode = false
		}
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	mode := "API only"
	if embeddedMode {
		mode = "API + Viewer"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Zigzag Timetable Server                         ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.Storage.DataDirectory)
	fmt.Printf("║  Formats:   %-46s║\n", fmt.Sprint(renderers.Names()))
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
		datasets.Close()
		log.Fatalf("server stopped: %v", err)
	}
}
