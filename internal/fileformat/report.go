package fileformat

// report.go implements the error report accumulated over one validation run.
//
// A Report has a dual mutability model: identity fields (status, filename,
// cleaned table) change copy-on-write via the With* methods, while the error
// list is shared by reference across all copies produced during a run, so a
// caller holding an earlier report value still observes later appends.

import (
	"encoding/json"
	"fmt"
)

// Status is the overall outcome of a validation run.
type Status string

const (
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

// ErrorLevel distinguishes row-scoped from file-scoped errors.
type ErrorLevel string

const (
	LevelRow  ErrorLevel = "row"
	LevelFile ErrorLevel = "file"
)

// OnErrorRejectFile is the on_error option value that rejects the whole
// file when any row-level error is present.
const OnErrorRejectFile = "reject-file"

// Stable error codes reported by the pipeline. The spellings are part of
// the report contract and must not change.
const (
	CodeUnexpectedColumns = "found_unexpected_columms"
	CodeColumnsMissing    = "columns_missing"
	CodeDuplicateValue    = "duplicate_value"
	CodeInvalidPattern    = "invalid_pattern"
	CodeInvalidOption     = "invalid_value"
	CodeMissingValue      = "missing_value"
	CodeInvalidValue      = "invalid-value"
	CodeInternalError     = "internal_error"
)

// Error is a single violation found while processing a file.
// RowIndex, ColumnName and Value are set only for row-level errors.
type Error struct {
	Level      ErrorLevel `json:"error_level"`
	Code       string     `json:"error_code"`
	Message    string     `json:"error_message"`
	RowIndex   *int       `json:"row_index,omitempty"`
	ColumnName string     `json:"column_name,omitempty"`
	Value      any        `json:"value,omitempty"`
}

func (e Error) String() string {
	if e.Level == LevelFile {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	row := -1
	if e.RowIndex != nil {
		row = *e.RowIndex
	}
	return fmt.Sprintf("[%s#%d] %s:%s", e.ColumnName, row, e.Code, e.Message)
}

// errorSink is the error list shared by reference across report copies.
type errorSink struct {
	items []Error
}

// Report is the outcome of processing one file.
// Create reports with NewReport; the zero value has no error sink.
type Report struct {
	Status    Status
	Filename  string
	TotalRows int
	Table     *Table

	errs *errorSink
}

// NewReport creates an empty, accepted report for an input with the given
// row count.
func NewReport(totalRows int) Report {
	return Report{
		Status:    StatusAccepted,
		TotalRows: totalRows,
		errs:      &errorSink{},
	}
}

// Errors returns the accumulated errors in detection order.
func (r Report) Errors() []Error {
	if r.errs == nil {
		return nil
	}
	return r.errs.items
}

// AddFileError appends a file-level error.
func (r Report) AddFileError(code, message string) {
	r.errs.items = append(r.errs.items, Error{
		Level:   LevelFile,
		Code:    code,
		Message: message,
	})
}

// AddRowError appends a row-level error for the cell at the given original
// row position.
func (r Report) AddRowError(code, message string, rowIndex int, columnName string, value any) {
	i := rowIndex
	r.errs.items = append(r.errs.items, Error{
		Level:      LevelRow,
		Code:       code,
		Message:    message,
		RowIndex:   &i,
		ColumnName: columnName,
		Value:      value,
	})
}

// WithStatus returns a copy of the report with the given status.
func (r Report) WithStatus(status Status) Report {
	r.Status = status
	return r
}

// WithFilename returns a copy of the report with the given filename.
func (r Report) WithFilename(filename string) Report {
	r.Filename = filename
	return r
}

// WithTable returns a copy of the report carrying the given cleaned table.
func (r Report) WithTable(t *Table) Report {
	r.Table = t
	return r
}

// Accepted reports whether the file was accepted.
func (r Report) Accepted() bool {
	return r.Status == StatusAccepted
}

// RejectedRowCount returns the number of distinct rows referenced by
// row-level errors.
func (r Report) RejectedRowCount() int {
	rows := make(map[int]bool)
	for _, e := range r.Errors() {
		if e.Level == LevelRow && e.RowIndex != nil {
			rows[*e.RowIndex] = true
		}
	}
	return len(rows)
}

// rejectedRows returns the set of row indices referenced by row-level errors.
func (r Report) rejectedRows() map[int]bool {
	rows := make(map[int]bool)
	for _, e := range r.Errors() {
		if e.Level == LevelRow && e.RowIndex != nil {
			rows[*e.RowIndex] = true
		}
	}
	return rows
}

func (r Report) String() string {
	return fmt.Sprintf("<Report:status=%s #errors=%d>", r.Status, len(r.Errors()))
}

// MarshalJSON serializes the report in the machine-readable form consumed
// by pipeline tooling. The cleaned table is not part of the serialized
// report.
func (r Report) MarshalJSON() ([]byte, error) {
	errs := r.Errors()
	if errs == nil {
		errs = []Error{}
	}
	return json.Marshal(struct {
		Status    Status  `json:"status"`
		Filename  string  `json:"filename"`
		TotalRows int     `json:"total_rows"`
		Errors    []Error `json:"errors"`
	}{
		Status:    r.Status,
		Filename:  r.Filename,
		TotalRows: r.TotalRows,
		Errors:    errs,
	})
}
