// Package config provides XML-based configuration for the diagram service.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/bytes"

	"github.com/zigzag-timetable/backend/internal/layout"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"ZigzagTimetable"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Diagram defaults
	Diagram DiagramConfig `xml:"Diagram"`

	// Remote table fetching
	Fetch FetchConfig `xml:"Fetch"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port" validate:"min=1,max=65535"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds" validate:"gte=0"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds" validate:"gte=0"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds" validate:"gte=0"`
	BodyLimit    string `xml:"BodyLimit" validate:"required"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory" validate:"required"`
	UploadsDirectory string `xml:"UploadsDirectory" validate:"required"`
	// DatasetDatabase is the DuckDB file holding ingested timetables.
	DatasetDatabase string `xml:"DatasetDatabase" validate:"required"`
	MaxUploadSize   string `xml:"MaxUploadSize" validate:"required"`
}

// DiagramConfig holds the layout defaults and stylesheet for rendered diagrams
type DiagramConfig struct {
	TimeScale          float64 `xml:"TimeScale" validate:"gte=0,lte=10000"`
	StationScale       float64 `xml:"StationScale" validate:"gte=0,lte=10000"`
	MaxHour            int     `xml:"MaxHour" validate:"gte=0,lte=168"`
	HourMajorInterval  int     `xml:"HourMajorInterval" validate:"gte=0,lte=168"`
	HourMinorInterval  int     `xml:"HourMinorInterval" validate:"gte=0,lte=168"`
	HideMirroredLabels bool    `xml:"HideMirroredLabels"`
	DefaultFormat      string  `xml:"DefaultFormat" validate:"oneof=svg png json msgpack"`
	StylesheetPath     string  `xml:"StylesheetPath"`
}

// FetchConfig limits table downloads from URLs
type FetchConfig struct {
	TimeoutSeconds  int    `xml:"TimeoutSeconds" validate:"min=1"`
	MaxDownloadSize string `xml:"MaxDownloadSize" validate:"required"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel" validate:"oneof=debug info warn error off"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	DuckDBThreads        int    `xml:"DuckDBThreads" validate:"gte=0"`
	DuckDBMemoryLimit    string `xml:"DuckDBMemoryLimit"`
	MaxConcurrentQueries int    `xml:"MaxConcurrentQueries" validate:"gte=0"`
	DiagramCacheEntries  int    `xml:"DiagramCacheEntries" validate:"gte=0"`
	DiagramCacheMinutes  int    `xml:"DiagramCacheMinutes" validate:"gte=0"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 60,
			IdleTimeout:  120,
			BodyLimit:    "64M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			DatasetDatabase:  "./data/datasets.duckdb",
			MaxUploadSize:    "32M",
		},
		Diagram: DiagramConfig{
			TimeScale:         layout.DefaultTimeScale,
			MaxHour:           layout.DefaultMaxHour,
			HourMajorInterval: layout.DefaultHourMajorInterval,
			HourMinorInterval: layout.DefaultHourMinorInterval,
			DefaultFormat:     "svg",
		},
		Fetch: FetchConfig{
			TimeoutSeconds:  30,
			MaxDownloadSize: "32M",
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			DuckDBThreads:        4,
			DuckDBMemoryLimit:    "1GB",
			MaxConcurrentQueries: 3,
			DiagramCacheEntries:  64,
			DiagramCacheMinutes:  30,
		},
	}
}

// LoadConfig loads configuration from XML file, creating it with defaults
// on first run.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Validate checks field constraints and size strings.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for name, size := range map[string]string{
		"Server.BodyLimit":      c.Server.BodyLimit,
		"Storage.MaxUploadSize": c.Storage.MaxUploadSize,
		"Fetch.MaxDownloadSize": c.Fetch.MaxDownloadSize,
	} {
		if _, err := bytes.Parse(size); err != nil {
			return fmt.Errorf("invalid config: %s: %w", name, err)
		}
	}
	return nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Zigzag Timetable Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR moves every storage path under the new directory
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
		c.Storage.DatasetDatabase = filepath.Join(dataDir, "datasets.duckdb")
	}

	if styles := os.Getenv("ZIGZAG_STYLES"); styles != "" {
		c.Diagram.StylesheetPath = styles
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Storage.DatasetDatabase,
		&c.Diagram.StylesheetPath,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// MaxUploadBytes returns the per-table upload cap.
func (c *AppConfig) MaxUploadBytes() int64 {
	n, _ := bytes.Parse(c.Storage.MaxUploadSize)
	return n
}

// MaxDownloadBytes returns the cap for tables fetched from URLs.
func (c *AppConfig) MaxDownloadBytes() int64 {
	n, _ := bytes.Parse(c.Fetch.MaxDownloadSize)
	return n
}

// FetchTimeout returns the URL fetch timeout.
func (c *AppConfig) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// LayoutOptions returns the configured layout defaults. Zero fields fall
// through to the engine's own defaults.
func (c *AppConfig) LayoutOptions() layout.Options {
	return layout.Options{
		TimeScale:          c.Diagram.TimeScale,
		StationScale:       c.Diagram.StationScale,
		MaxHour:            c.Diagram.MaxHour,
		HourMajorInterval:  c.Diagram.HourMajorInterval,
		HourMinorInterval:  c.Diagram.HourMinorInterval,
		HideMirroredLabels: c.Diagram.HideMirroredLabels,
	}
}

// DiagramCacheAge returns how long a rendered diagram stays cached.
func (c *AppConfig) DiagramCacheAge() time.Duration {
	return time.Duration(c.Advanced.DiagramCacheMinutes) * time.Minute
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		filepath.Dir(c.Storage.DatasetDatabase),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
