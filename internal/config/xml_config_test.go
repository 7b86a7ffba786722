package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.config")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "config file should be written on first run")
	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "data", "uploads"), cfg.Storage.UploadsDirectory)
	assert.Equal(t, filepath.Join(dir, "data", "datasets.duckdb"), cfg.Storage.DatasetDatabase)
	assert.Equal(t, int64(32*1000*1000), cfg.MaxUploadBytes())
	assert.Equal(t, 64, cfg.Advanced.DiagramCacheEntries)
	assert.Equal(t, 30*time.Minute, cfg.DiagramCacheAge())
}

func TestLoadConfig_ReadsFileAndKeepsDefaultsForMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.config")
	xmlData := `<?xml version="1.0" encoding="UTF-8"?>
<ZigzagTimetable>
  <Server><Port>9000</Port><BodyLimit>8M</BodyLimit></Server>
  <Diagram><MaxHour>48</MaxHour><HideMirroredLabels>true</HideMirroredLabels><DefaultFormat>png</DefaultFormat><StylesheetPath>styles.yaml</StylesheetPath></Diagram>
</ZigzagTimetable>`
	require.NoError(t, os.WriteFile(path, []byte(xmlData), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "png", cfg.Diagram.DefaultFormat)
	assert.Equal(t, filepath.Join(dir, "styles.yaml"), cfg.Diagram.StylesheetPath)
	// Sections absent from the file keep their defaults.
	assert.Equal(t, 30, cfg.Fetch.TimeoutSeconds)

	opts := cfg.LayoutOptions()
	assert.Equal(t, 48, opts.MaxHour)
	assert.True(t, opts.HideMirroredLabels)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PORT", "7070")
	t.Setenv("DATA_DIR", "/srv/zigzag")
	t.Setenv("ZIGZAG_STYLES", "/etc/zigzag/styles.yaml")

	cfg, err := LoadConfig(filepath.Join(dir, "app.config"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/srv/zigzag/uploads", cfg.Storage.UploadsDirectory)
	assert.Equal(t, "/srv/zigzag/datasets.duckdb", cfg.Storage.DatasetDatabase)
	assert.Equal(t, "/etc/zigzag/styles.yaml", cfg.Diagram.StylesheetPath)
	assert.Equal(t, "0.0.0.0:7070", cfg.GetServerAddr())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad port", `<ZigzagTimetable><Server><Port>70000</Port></Server></ZigzagTimetable>`},
		{"bad format", `<ZigzagTimetable><Diagram><DefaultFormat>pdf</DefaultFormat></Diagram></ZigzagTimetable>`},
		{"bad size", `<ZigzagTimetable><Storage><MaxUploadSize>lots</MaxUploadSize></Storage></ZigzagTimetable>`},
		{"bad level", `<ZigzagTimetable><Advanced><LogLevel>loud</LogLevel></Advanced></ZigzagTimetable>`},
		{"bad xml", `<ZigzagTimetable>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "app.config")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.config")
	cfg := DefaultConfig()
	cfg.Diagram.TimeScale = 60
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "<TimeScale>60</TimeScale>"))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 60.0, loaded.Diagram.TimeScale)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.resolvePaths(dir)

	require.NoError(t, cfg.EnsureDirectories())
	for _, d := range []string{cfg.Storage.DataDirectory, cfg.Storage.UploadsDirectory} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
