// Package render materializes layout primitives on a drawing surface.
package render

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultStyleName is the entry used for style tags the stylesheet lacks.
const DefaultStyleName = "default"

// Style is the visual rendition of one style tag.
type Style struct {
	Stroke      string    `yaml:"stroke" json:"stroke,omitempty" validate:"omitempty,hexcolor"`
	StrokeWidth float64   `yaml:"stroke_width" json:"strokeWidth,omitempty" validate:"gte=0"`
	Dash        []float64 `yaml:"dash" json:"dash,omitempty" validate:"dive,gt=0"`
	Fill        string    `yaml:"fill" json:"fill,omitempty" validate:"omitempty,hexcolor"`
	FontSize    float64   `yaml:"font_size" json:"fontSize,omitempty" validate:"gte=0"`
	Anchor      string    `yaml:"anchor" json:"anchor,omitempty" validate:"omitempty,oneof=start middle end"`
}

// Stylesheet maps style tags to styles. It mirrors the YAML layout:
//
//	background: "#ffffff"
//	font_family: "Helvetica, Arial, sans-serif"
//	styles:
//	  trainZigZag: {stroke: "#c0392b", stroke_width: 1.5}
type Stylesheet struct {
	Background string           `yaml:"background" validate:"omitempty,hexcolor"`
	FontFamily string           `yaml:"font_family" validate:"omitempty,excludesall=<>{};"`
	Padding    float64          `yaml:"padding" validate:"gte=0"`
	Styles     map[string]Style `yaml:"styles" validate:"dive"`
}

// DefaultStylesheet covers every tag emitted by the layout engine.
func DefaultStylesheet() *Stylesheet {
	return &Stylesheet{
		Background: "#ffffff",
		FontFamily: "Helvetica, Arial, sans-serif",
		Padding:    40,
		Styles: map[string]Style{
			DefaultStyleName: {Stroke: "#000000", StrokeWidth: 1, Fill: "#000000", FontSize: 10, Anchor: "start"},
			"thinHourLine":   {Stroke: "#ececec", StrokeWidth: 0.5},
			"hourLine":       {Stroke: "#b4b4b4", StrokeWidth: 1},
			"hourLabel":      {Fill: "#555555", FontSize: 12, Anchor: "middle"},
			"stationLine":    {Stroke: "#cfcfcf", StrokeWidth: 0.75, Dash: []float64{4, 2}},
			"stationLabel":   {Fill: "#222222", FontSize: 12, Anchor: "end"},
			"smallLabel":     {Fill: "#666666", FontSize: 9, Anchor: "start"},
			"timeLabel":      {Fill: "#888888", FontSize: 6, Anchor: "start"},
			"trainZigZag":    {Stroke: "#c0392b", StrokeWidth: 1.25},
		},
	}
}

// LoadStylesheet reads a YAML stylesheet file. An empty path returns the defaults.
func LoadStylesheet(path string) (*Stylesheet, error) {
	if path == "" {
		return DefaultStylesheet(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stylesheet: %w", err)
	}
	defer f.Close()
	return ParseStylesheet(f)
}

// ParseStylesheet reads YAML from r and overlays it on the default stylesheet.
// Tags present in the YAML replace the default entry for that tag.
func ParseStylesheet(r io.Reader) (*Stylesheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var custom Stylesheet
	if err := yaml.Unmarshal(data, &custom); err != nil {
		return nil, fmt.Errorf("parsing stylesheet: %w", err)
	}

	sheet := DefaultStylesheet()
	if custom.Background != "" {
		sheet.Background = custom.Background
	}
	if custom.FontFamily != "" {
		sheet.FontFamily = custom.FontFamily
	}
	if custom.Padding > 0 {
		sheet.Padding = custom.Padding
	}
	for tag, st := range custom.Styles {
		sheet.Styles[tag] = st
	}

	if err := validator.New().Struct(sheet); err != nil {
		return nil, fmt.Errorf("invalid stylesheet: %w", err)
	}
	return sheet, nil
}

// Resolve returns the style for a tag, falling back to the default entry.
func (s *Stylesheet) Resolve(tag string) Style {
	if st, ok := s.Styles[tag]; ok {
		return st
	}
	return s.Styles[DefaultStyleName]
}

// Tags returns the stylesheet's tags in sorted order.
func (s *Stylesheet) Tags() []string {
	tags := make([]string, 0, len(s.Styles))
	for tag := range s.Styles {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
