package models

// PrimitiveKind tags the variant held by a Primitive.
type PrimitiveKind string

const (
	PrimitiveLine  PrimitiveKind = "line"
	PrimitiveLabel PrimitiveKind = "label"
)

// Primitive is a renderer-agnostic drawing instruction in post-scale coordinates.
// Lines use X1,Y1,X2,Y2. Labels use X1,Y1 as their anchor plus Text and Rotation.
type Primitive struct {
	Kind     PrimitiveKind `json:"kind" msgpack:"kind"`
	X1       float64       `json:"x1" msgpack:"x1"`
	Y1       float64       `json:"y1" msgpack:"y1"`
	X2       float64       `json:"x2,omitempty" msgpack:"x2,omitempty"`
	Y2       float64       `json:"y2,omitempty" msgpack:"y2,omitempty"`
	Text     string        `json:"text,omitempty" msgpack:"text,omitempty"`
	Rotation float64       `json:"rotation,omitempty" msgpack:"rotation,omitempty"` // degrees
	Style    string        `json:"style" msgpack:"style"`
}

// Line creates a line primitive.
func Line(x1, y1, x2, y2 float64, style string) Primitive {
	return Primitive{Kind: PrimitiveLine, X1: x1, Y1: y1, X2: x2, Y2: y2, Style: style}
}

// Label creates an unrotated label primitive.
func Label(x, y float64, text, style string) Primitive {
	return Primitive{Kind: PrimitiveLabel, X1: x, Y1: y, Text: text, Style: style}
}

// RotatedLabel creates a label primitive rotated by the given degrees.
func RotatedLabel(x, y float64, text, style string, degrees float64) Primitive {
	p := Label(x, y, text, style)
	p.Rotation = degrees
	return p
}
