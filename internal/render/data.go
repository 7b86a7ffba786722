package render

import (
	"encoding/json"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/zigzag-timetable/backend/internal/models"
)

// Names of the data renderers.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// PrimitiveDocument is the envelope written by the data renderers.
type PrimitiveDocument struct {
	Count      int                `json:"count" msgpack:"count"`
	Primitives []models.Primitive `json:"primitives" msgpack:"primitives"`
}

func newDocument(prims []models.Primitive) PrimitiveDocument {
	if prims == nil {
		prims = []models.Primitive{}
	}
	return PrimitiveDocument{Count: len(prims), Primitives: prims}
}

// JSONRenderer writes the primitive list as JSON for client-side drawing.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSON renderer.
func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Name() string        { return FormatJSON }
func (r *JSONRenderer) ContentType() string { return "application/json" }
func (r *JSONRenderer) Extension() string   { return ".json" }

func (r *JSONRenderer) Render(w io.Writer, prims []models.Primitive) error {
	return json.NewEncoder(w).Encode(newDocument(prims))
}

// MsgpackRenderer writes the primitive list as MessagePack.
type MsgpackRenderer struct{}

// NewMsgpackRenderer creates a MessagePack renderer.
func NewMsgpackRenderer() *MsgpackRenderer { return &MsgpackRenderer{} }

func (r *MsgpackRenderer) Name() string        { return FormatMsgpack }
func (r *MsgpackRenderer) ContentType() string { return "application/x-msgpack" }
func (r *MsgpackRenderer) Extension() string   { return ".msgpack" }

func (r *MsgpackRenderer) Render(w io.Writer, prims []models.Primitive) error {
	return msgpack.NewEncoder(w).Encode(newDocument(prims))
}
