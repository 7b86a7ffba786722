package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DelimitedReader reads comma, tab or semicolon separated text. The delimiter
// is sniffed from the header line.
type DelimitedReader struct{}

func NewDelimitedReader() *DelimitedReader {
	return &DelimitedReader{}
}

func (d *DelimitedReader) Name() string {
	return "delimited"
}

// CanRead accepts any non-empty text; it is the registry's fallback.
func (d *DelimitedReader) CanRead(content []byte) bool {
	return len(bytes.TrimSpace(content)) > 0
}

func (d *DelimitedReader) Read(name string, content []byte) (*RawTable, error) {
	header := firstLine(content)
	delim := SniffDelimiter(header)

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = delim
	reader.FieldsPerRecord = -1 // row shape is checked during ingestion
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	table := &RawTable{Name: name, Format: d.Name()}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		line, _ := reader.FieldPos(0)

		if isBlankRecord(record) {
			continue
		}
		cells := make([]string, len(record))
		for i, c := range record {
			cells[i] = strings.TrimSpace(c)
		}

		if table.Headers == nil {
			table.Headers = make([]string, len(cells))
			for i, c := range cells {
				table.Headers[i] = NormalizeHeader(c)
			}
			continue
		}
		table.Rows = append(table.Rows, RawRow{Line: line, Cells: trimTrailingEmpty(cells, len(table.Headers))})
	}

	if table.Headers == nil {
		return nil, &EmptyTableError{Table: name}
	}
	return table, nil
}

// SniffDelimiter picks the most frequent of tab, semicolon and comma in the
// header line, preferring comma on ties.
func SniffDelimiter(header string) rune {
	best, bestCount := ',', strings.Count(header, ",")
	for _, r := range []rune{'\t', ';'} {
		if n := strings.Count(header, string(r)); n > bestCount {
			best, bestCount = r, n
		}
	}
	return best
}

func firstLine(content []byte) string {
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func isBlankRecord(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// trimTrailingEmpty drops empty cells past the header width, which
// spreadsheet exports leave behind as trailing delimiters.
func trimTrailingEmpty(cells []string, width int) []string {
	for len(cells) > width && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}
