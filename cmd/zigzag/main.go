// Command zigzag renders a zigzag timetable diagram from trip and station tables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/gommon/bytes"

	"github.com/zigzag-timetable/backend/internal/acquire"
	"github.com/zigzag-timetable/backend/internal/config"
	"github.com/zigzag-timetable/backend/internal/layout"
	"github.com/zigzag-timetable/backend/internal/logging"
	"github.com/zigzag-timetable/backend/internal/models"
	"github.com/zigzag-timetable/backend/internal/parser"
	"github.com/zigzag-timetable/backend/internal/render"
)

const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxDownload  = "32M"
)

type options struct {
	trips       string
	stations    string
	tripsURL    string
	stationsURL string
	configPath  string
	styles      string
	format      string
	output      string
	maxHour     int
	hideMirror  bool
	debug       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("zigzag", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.trips, "trips", "", "trip table file")
	fs.StringVar(&o.stations, "stations", "", "station table file (optional)")
	fs.StringVar(&o.tripsURL, "trips-url", "", "fetch the trip table from a URL")
	fs.StringVar(&o.stationsURL, "stations-url", "", "fetch the station table from a URL")
	fs.StringVar(&o.configPath, "config", "", "XML config with diagram defaults")
	fs.StringVar(&o.styles, "styles", "", "YAML stylesheet")
	fs.StringVar(&o.format, "format", "", "output format: svg, png, json or msgpack")
	fs.StringVar(&o.output, "output", "", "output file (default stdout)")
	fs.IntVar(&o.maxHour, "max-hour", 0, "last hour drawn on the time axis")
	fs.BoolVar(&o.hideMirror, "hide-mirrored-labels", false, "omit station labels on the right")
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: zigzag --trips trips.csv [--stations stations.csv] [flags]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if (o.trips == "") == (o.tripsURL == "") {
		return nil, errors.New("exactly one of --trips or --trips-url is required")
	}
	if o.stations != "" && o.stationsURL != "" {
		return nil, errors.New("give --stations or --stations-url, not both")
	}
	if err := (layout.Options{MaxHour: o.maxHour}).Validate(); err != nil {
		return nil, fmt.Errorf("--max-hour must be between 0 and %d", layout.MaxHourLimit)
	}
	return &o, nil
}

// settings are the defaults a config file may supply.
type settings struct {
	layout       layout.Options
	format       string
	stylesheet   string
	fetchTimeout time.Duration
	maxDownload  int64
}

func loadSettings(o *options) (*settings, error) {
	maxDownload, _ := bytes.Parse(defaultMaxDownload)
	s := &settings{
		format:       render.FormatSVG,
		stylesheet:   os.Getenv("ZIGZAG_STYLES"),
		fetchTimeout: defaultFetchTimeout,
		maxDownload:  maxDownload,
	}
	if o.configPath != "" {
		cfg, err := config.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		s.layout = cfg.LayoutOptions()
		s.format = cfg.Diagram.DefaultFormat
		s.stylesheet = cfg.Diagram.StylesheetPath
		s.fetchTimeout = cfg.FetchTimeout()
		s.maxDownload = cfg.MaxDownloadBytes()
	}
	if o.styles != "" {
		s.stylesheet = o.styles
	}
	return s, nil
}

func (o *options) source(file, url string, s *settings) acquire.Source {
	switch {
	case url != "":
		return acquire.NewURLSource(url, s.fetchTimeout, s.maxDownload)
	case file != "":
		return acquire.FileSource{Path: file}
	}
	return nil
}

// outputFormat picks the explicit format, then the output extension, then the default.
func (o *options) outputFormat(reg *render.Registry, fallback string) string {
	if o.format != "" {
		return o.format
	}
	if ext := strings.TrimPrefix(filepath.Ext(o.output), "."); ext != "" {
		if _, err := reg.Get(ext); err == nil {
			return ext
		}
	}
	return fallback
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "zigzag: %v\n", err)
		return 2
	}

	logging.SetOutput(stderr)
	level := "warn"
	if o.debug {
		level = "debug"
	}
	_ = logging.SetLevel(level)
	log := logging.New("zigzag")

	s, err := loadSettings(o)
	if err != nil {
		fmt.Fprintf(stderr, "zigzag: %v\n", err)
		return 1
	}

	sheet, err := render.LoadStylesheet(s.stylesheet)
	if err != nil {
		fmt.Fprintf(stderr, "zigzag: %v\n", err)
		return 1
	}
	reg := render.NewRegistry(sheet)
	rd, err := reg.Get(o.outputFormat(reg, s.format))
	if err != nil {
		fmt.Fprintf(stderr, "zigzag: %v\n", err)
		return 2
	}

	res, err := acquire.Load(ctx, nil, o.source(o.stations, o.stationsURL, s), o.source(o.trips, o.tripsURL, s))
	if err != nil {
		var ie *parser.IngestError
		if errors.As(err, &ie) {
			fmt.Fprintf(stderr, "zigzag: timetable rejected (%d problems)\n", len(ie.Problems))
			for _, p := range ie.Problems {
				fmt.Fprintf(stderr, "  - %v\n", p)
			}
			return 1
		}
		fmt.Fprintf(stderr, "zigzag: %v\n", err)
		return 1
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintln(stderr, d.Error())
	}
	log.Debugf("ingested %d stations and %d trips", len(res.Stations), len(res.Trips))

	opts := s.layout.Merge(layout.Options{MaxHour: o.maxHour, HideMirroredLabels: o.hideMirror}).WithDefaults(res.Explicit)
	prims, err := layout.Layout(res.Stations, res.Trips, opts)
	if err != nil {
		fmt.Fprintf(stderr, "zigzag: %v\n", err)
		return 1
	}

	if err := write(o.output, rd, prims, stdout); err != nil {
		fmt.Fprintf(stderr, "zigzag: %v\n", err)
		return 1
	}
	log.Debugf("wrote %d primitives as %s", len(prims), rd.Name())
	return 0
}

func write(path string, rd render.Renderer, prims []models.Primitive, stdout io.Writer) (err error) {
	if path == "" {
		return rd.Render(stdout, prims)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return rd.Render(f, prims)
}
