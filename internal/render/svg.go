package render

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/zigzag-timetable/backend/internal/models"
)

// FormatSVG is the name of the SVG renderer.
const FormatSVG = "svg"

// SVGRenderer writes a standalone SVG document. Style tags become CSS classes.
type SVGRenderer struct {
	sheet *Stylesheet
}

// NewSVGRenderer creates an SVG renderer using sheet.
func NewSVGRenderer(sheet *Stylesheet) *SVGRenderer {
	return &SVGRenderer{sheet: sheet}
}

func (r *SVGRenderer) Name() string        { return FormatSVG }
func (r *SVGRenderer) ContentType() string { return "image/svg+xml" }
func (r *SVGRenderer) Extension() string   { return ".svg" }

// Render writes prims as SVG.
func (r *SVGRenderer) Render(w io.Writer, prims []models.Primitive) error {
	b := primitiveBounds(prims, r.sheet)

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="%s %s %s %s">`+"\n",
		num(b.width()), num(b.height()), num(b.minX), num(b.minY), num(b.width()), num(b.height()))

	classes := newClassNames()
	r.writeStyle(&sb, prims, classes)

	if r.sheet.Background != "" {
		fmt.Fprintf(&sb, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
			num(b.minX), num(b.minY), num(b.width()), num(b.height()), r.sheet.Background)
	}

	for _, p := range prims {
		class, _ := classes.assign(p.Style)
		switch p.Kind {
		case models.PrimitiveLine:
			fmt.Fprintf(&sb, `<line class="%s" x1="%s" y1="%s" x2="%s" y2="%s"/>`+"\n",
				class, num(p.X1), num(p.Y1), num(p.X2), num(p.Y2))
		case models.PrimitiveLabel:
			fmt.Fprintf(&sb, `<text class="%s" x="%s" y="%s"`, class, num(p.X1), num(p.Y1))
			if p.Rotation != 0 {
				fmt.Fprintf(&sb, ` transform="rotate(%s %s %s)"`, num(p.Rotation), num(p.X1), num(p.Y1))
			}
			sb.WriteString(">")
			if err := xml.EscapeText(&sb, []byte(p.Text)); err != nil {
				return err
			}
			sb.WriteString("</text>\n")
		default:
			return fmt.Errorf("unsupported primitive kind %q", p.Kind)
		}
	}
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// writeStyle emits one CSS rule per class in the sheet plus any tag the
// primitives use that the sheet does not name.
func (r *SVGRenderer) writeStyle(sb *strings.Builder, prims []models.Primitive, classes *classNames) {
	sb.WriteString("<style>\n")
	if family := cssFontFamily(r.sheet.FontFamily); family != "" {
		fmt.Fprintf(sb, "text { font-family: %s; dominant-baseline: central; }\n", family)
	}

	emit := func(tag string, st Style) {
		class, added := classes.assign(tag)
		if !added {
			return
		}
		fmt.Fprintf(sb, "line.%s { %s }\n", class, lineCSS(st))
		fmt.Fprintf(sb, "text.%s { %s }\n", class, textCSS(st))
	}
	for _, tag := range r.sheet.Tags() {
		emit(tag, r.sheet.Styles[tag])
	}
	for _, p := range prims {
		emit(p.Style, r.sheet.Resolve(p.Style))
	}
	sb.WriteString("</style>\n")
}

func lineCSS(st Style) string {
	stroke := st.Stroke
	if stroke == "" {
		stroke = "#000000"
	}
	css := fmt.Sprintf("stroke: %s; stroke-width: %s; fill: none;", stroke, num(st.StrokeWidth))
	if len(st.Dash) > 0 {
		parts := make([]string, len(st.Dash))
		for i, d := range st.Dash {
			parts[i] = num(d)
		}
		css += " stroke-dasharray: " + strings.Join(parts, " ") + ";"
	}
	return css
}

func textCSS(st Style) string {
	fill := st.Fill
	if fill == "" {
		fill = "#000000"
	}
	anchor := st.Anchor
	if anchor == "" {
		anchor = "start"
	}
	return fmt.Sprintf("fill: %s; font-size: %spx; text-anchor: %s;", fill, num(st.FontSize), anchor)
}

// cssFontFamily drops the characters that could end the declaration or the
// enclosing <style> element.
func cssFontFamily(family string) string {
	return strings.TrimSpace(strings.Map(func(c rune) rune {
		if strings.ContainsRune("<>{};", c) {
			return -1
		}
		return c
	}, family))
}

// classNames gives each style tag its own CSS class. Tags that sanitize to
// the same name get a numeric suffix in first-seen order.
type classNames struct {
	byTag map[string]string
	used  map[string]bool
}

func newClassNames() *classNames {
	return &classNames{byTag: make(map[string]string), used: make(map[string]bool)}
}

// assign returns the class for tag and whether this call created it.
func (n *classNames) assign(tag string) (string, bool) {
	if tag == "" {
		tag = DefaultStyleName
	}
	if class, ok := n.byTag[tag]; ok {
		return class, false
	}
	base := className(tag)
	class := base
	for i := 2; n.used[class]; i++ {
		class = base + "_" + strconv.Itoa(i)
	}
	n.byTag[tag] = class
	n.used[class] = true
	return class, true
}

// className maps a style tag onto a valid CSS class name.
func className(tag string) string {
	if tag == "" {
		return DefaultStyleName
	}
	var sb strings.Builder
	for i, c := range tag {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
			sb.WriteRune(c)
		case (c >= '0' && c <= '9') || c == '-':
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(c)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
