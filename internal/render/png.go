package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/zigzag-timetable/backend/internal/models"
)

// FormatPNG is the name of the raster renderer.
const FormatPNG = "png"

// MaxPNGDimension caps the raster size in either direction.
const MaxPNGDimension = 16384

// PNGRenderer rasterizes primitives with go-chart's drawing backend.
type PNGRenderer struct {
	sheet *Stylesheet
}

// NewPNGRenderer creates a raster renderer using sheet.
func NewPNGRenderer(sheet *Stylesheet) *PNGRenderer {
	return &PNGRenderer{sheet: sheet}
}

func (r *PNGRenderer) Name() string        { return FormatPNG }
func (r *PNGRenderer) ContentType() string { return "image/png" }
func (r *PNGRenderer) Extension() string   { return ".png" }

// Render writes prims as a PNG image.
func (r *PNGRenderer) Render(w io.Writer, prims []models.Primitive) error {
	b := primitiveBounds(prims, r.sheet)
	width := int(math.Ceil(b.width()))
	height := int(math.Ceil(b.height()))
	if width > MaxPNGDimension || height > MaxPNGDimension {
		return fmt.Errorf("diagram too large to rasterize: %dx%d (max %d)", width, height, MaxPNGDimension)
	}

	rd, err := chart.PNG(width, height)
	if err != nil {
		return fmt.Errorf("creating raster surface: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("loading font: %w", err)
	}

	if r.sheet.Background != "" {
		rd.SetFillColor(parseColor(r.sheet.Background))
		rd.MoveTo(0, 0)
		rd.LineTo(width, 0)
		rd.LineTo(width, height)
		rd.LineTo(0, height)
		rd.Close()
		rd.Fill()
	}

	// Shift into image space where the top-left corner is the origin.
	tx := func(x float64) int { return int(math.Round(x - b.minX)) }
	ty := func(y float64) int { return int(math.Round(y - b.minY)) }

	for _, p := range prims {
		st := r.sheet.Resolve(p.Style)
		rd.ResetStyle()
		switch p.Kind {
		case models.PrimitiveLine:
			rd.SetStrokeColor(parseColor(orDefault(st.Stroke, "#000000")))
			rd.SetStrokeWidth(st.StrokeWidth)
			if len(st.Dash) > 0 {
				rd.SetStrokeDashArray(st.Dash)
			}
			rd.MoveTo(tx(p.X1), ty(p.Y1))
			rd.LineTo(tx(p.X2), ty(p.Y2))
			rd.Stroke()
		case models.PrimitiveLabel:
			rd.SetFont(font)
			rd.SetFontSize(st.FontSize)
			rd.SetFontColor(parseColor(orDefault(st.Fill, "#000000")))

			tw := float64(rd.MeasureText(p.Text).Width())
			dx := 0.0
			switch st.Anchor {
			case "end":
				dx = -tw
			case "middle":
				dx = -tw / 2
			}

			if p.Rotation != 0 {
				rd.SetTextRotation(p.Rotation * math.Pi / 180)
				rd.Text(p.Text, tx(p.X1), ty(p.Y1))
				rd.ClearTextRotation()
				continue
			}
			// Text is drawn from its baseline; nudge it down to center on the anchor.
			rd.Text(p.Text, tx(p.X1+dx), ty(p.Y1+st.FontSize/3))
		default:
			return fmt.Errorf("unsupported primitive kind %q", p.Kind)
		}
	}

	return rd.Save(w)
}

// parseColor accepts the #rgb, #rgba, #rrggbb and #rrggbbaa forms; alpha is dropped.
func parseColor(hex string) drawing.Color {
	hex = strings.TrimPrefix(hex, "#")
	switch len(hex) {
	case 4:
		hex = hex[:3]
	case 8:
		hex = hex[:6]
	}
	if len(hex) != 3 && len(hex) != 6 {
		return drawing.ColorBlack
	}
	return drawing.ColorFromHex(hex)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
