package parser

import (
	"fmt"
	"strings"
)

// MalformedTimeError reports a time token that could not be parsed.
type MalformedTimeError struct {
	Token  string
	Reason string
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("malformed time %q: %s", e.Token, e.Reason)
}

// MissingColumnError reports required columns absent from a table header.
// It rejects the whole table.
type MissingColumnError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s table is missing required columns: %s", e.Table, strings.Join(e.Columns, ", "))
}

// RowShapeError reports a data row whose cell count differs from the header.
type RowShapeError struct {
	Table string
	Line  int
	Want  int
	Got   int
}

func (e *RowShapeError) Error() string {
	return fmt.Sprintf("%s line %d: expected %d cells, got %d", e.Table, e.Line, e.Want, e.Got)
}

// UnknownStationError reports a trip naming a station absent from an explicit station table.
type UnknownStationError struct {
	Line    int
	Station string
}

func (e *UnknownStationError) Error() string {
	return fmt.Sprintf("trips line %d: unknown station %q", e.Line, e.Station)
}

// EmptyTableError reports an input that contains no table at all.
type EmptyTableError struct {
	Table string
}

func (e *EmptyTableError) Error() string {
	return fmt.Sprintf("no %s table found in input", e.Table)
}

// EmptyFieldError reports a required cell left blank.
type EmptyFieldError struct {
	Table  string
	Line   int
	Column string
}

func (e *EmptyFieldError) Error() string {
	return fmt.Sprintf("%s line %d: %s is empty", e.Table, e.Line, e.Column)
}

// MalformedPositionError reports a station position that is not a finite number.
type MalformedPositionError struct {
	Line  int
	Value string
}

func (e *MalformedPositionError) Error() string {
	return fmt.Sprintf("stations line %d: malformed position %q", e.Line, e.Value)
}

// DuplicateStationError reports a station declared twice in one table.
type DuplicateStationError struct {
	Line      int
	Station   string
	FirstLine int
}

func (e *DuplicateStationError) Error() string {
	return fmt.Sprintf("stations line %d: station %q already declared on line %d", e.Line, e.Station, e.FirstLine)
}

// IngestError is a hard ingestion failure. Problems lists every table-level
// error found so that callers can show them all at once.
type IngestError struct {
	Problems []error
}

func (e *IngestError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return "ingestion failed: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *IngestError) Unwrap() []error {
	return e.Problems
}
