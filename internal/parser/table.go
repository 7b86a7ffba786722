package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// RawTable is a header row plus data rows, before any typing or validation.
type RawTable struct {
	Name    string
	Format  string
	Headers []string
	Rows    []RawRow
}

// RawRow is one data row and the line it came from.
type RawRow struct {
	Line  int
	Cells []string
}

// Column returns the index of a normalized header, or -1.
func (t *RawTable) Column(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// NormalizeHeader lower-cases and trims a column name.
func NormalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// TableReader turns raw bytes of one input format into a RawTable.
type TableReader interface {
	// Name returns the unique name of the reader.
	Name() string
	// CanRead returns true if this reader recognizes the content.
	CanRead(content []byte) bool
	// Read parses the content into a table named name.
	Read(name string, content []byte) (*RawTable, error)
}

// Registry holds all available table readers and provides auto-detection.
type Registry struct {
	readers []TableReader
}

var globalRegistry = NewRegistry()

// NewRegistry returns a registry with the built-in readers. Readers are tried
// in order, so the HTML reader is consulted before the delimited fallback.
func NewRegistry() *Registry {
	return &Registry{
		readers: []TableReader{
			NewHTMLTableReader(),
			NewDelimitedReader(),
		},
	}
}

// GetGlobalRegistry returns the shared registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds a new reader to the registry.
func (r *Registry) Register(tr TableReader) {
	r.readers = append(r.readers, tr)
}

// GetReaderByName returns a reader by its name.
func (r *Registry) GetReaderByName(name string) (TableReader, error) {
	name = strings.ToLower(name)
	for _, tr := range r.readers {
		if strings.ToLower(tr.Name()) == name {
			return tr, nil
		}
	}
	return nil, fmt.Errorf("table reader not found: %s", name)
}

// ReadTable decodes src, detects its format and reads it into a RawTable.
func (r *Registry) ReadTable(name string, src io.Reader) (*RawTable, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	content, err := DecodeText(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, &EmptyTableError{Table: name}
	}

	for _, tr := range r.readers {
		if tr.CanRead(content) {
			return tr.Read(name, content)
		}
	}
	return nil, &EmptyTableError{Table: name}
}

// DecodeText strips a UTF-8 byte order mark and converts UTF-16 input (as
// written by spreadsheet exports) to UTF-8.
func DecodeText(raw []byte) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return nil, err
	}
	return out, nil
}
