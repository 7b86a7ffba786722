package render

import (
	"math"

	"github.com/zigzag-timetable/backend/internal/models"
)

// bounds is the bounding box of a primitive list.
type bounds struct {
	minX, maxX, minY, maxY float64
	isSet                  bool
}

func (b *bounds) updatePoint(x, y float64) {
	if !b.isSet {
		b.minX, b.maxX = x, x
		b.minY, b.maxY = y, y
		b.isSet = true
		return
	}
	b.minX = math.Min(b.minX, x)
	b.maxX = math.Max(b.maxX, x)
	b.minY = math.Min(b.minY, y)
	b.maxY = math.Max(b.maxY, y)
}

func (b bounds) width() float64  { return b.maxX - b.minX }
func (b bounds) height() float64 { return b.maxY - b.minY }

// estimateTextWidth approximates rendered text width from the character count.
func estimateTextWidth(text string, fontSize float64) float64 {
	return float64(len([]rune(text))) * fontSize * 0.6
}

// primitiveBounds measures prims, estimating label extents from the
// stylesheet, and pads the result.
func primitiveBounds(prims []models.Primitive, sheet *Stylesheet) bounds {
	var b bounds
	for _, p := range prims {
		switch p.Kind {
		case models.PrimitiveLine:
			b.updatePoint(p.X1, p.Y1)
			b.updatePoint(p.X2, p.Y2)
		case models.PrimitiveLabel:
			st := sheet.Resolve(p.Style)
			w := estimateTextWidth(p.Text, st.FontSize)
			left, right := p.X1, p.X1+w
			switch st.Anchor {
			case "end":
				left, right = p.X1-w, p.X1
			case "middle":
				left, right = p.X1-w/2, p.X1+w/2
			}
			b.updatePoint(left, p.Y1-st.FontSize)
			b.updatePoint(right, p.Y1+st.FontSize)
		}
	}
	if !b.isSet {
		b.updatePoint(0, 0)
	}
	b.minX -= sheet.Padding
	b.minY -= sheet.Padding
	b.maxX += sheet.Padding
	b.maxY += sheet.Padding
	return b
}
