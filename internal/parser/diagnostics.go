package parser

import "fmt"

// Severity grades a row-level diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic codes.
const (
	CodeRowShape          = "ROW_SHAPE"
	CodeMalformedTime     = "MALFORMED_TIME"
	CodeUnknownStation    = "UNKNOWN_STATION"
	CodeEmptyField        = "EMPTY_FIELD"
	CodeMalformedPosition = "MALFORMED_POSITION"
	CodeDuplicateStation  = "DUPLICATE_STATION"
	CodeArrivalBeforeDep  = "ARRIVAL_BEFORE_DEPARTURE"
	CodeDeprecatedColumn  = "DEPRECATED_COLUMN"
)

// Diagnostic is a row-level finding. Errors mean the row was skipped,
// warnings mean it was kept.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Table    string   `json:"table"`
	Line     int      `json:"line,omitempty"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Err      error    `json:"-"`
}

func (d Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("[%s] %s line %d: %s", d.Severity, d.Table, d.Line, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Table, d.Message)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

func rowError(table string, line int, code string, err error) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Table:    table,
		Line:     line,
		Code:     code,
		Message:  err.Error(),
		Err:      err,
	}
}

func warning(table string, line int, code, message string) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Table:    table,
		Line:     line,
		Code:     code,
		Message:  message,
	}
}

// CountErrors returns the number of error-severity diagnostics.
func CountErrors(diags []Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}
