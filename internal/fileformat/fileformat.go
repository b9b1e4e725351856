package fileformat

// fileformat.go implements the whole-file orchestration: structural
// checks, per-column processing, repeat-column aggregation, custom row
// validators and the final accept/reject decision.

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// Options are the whole-file processing options of a FileFormat.
type Options struct {
	// SkipRows is the number of leading rows to drop before the header.
	SkipRows int `yaml:"skiprows"`

	// IgnoreAdditionalColumns disables the unexpected-columns check.
	IgnoreAdditionalColumns bool `yaml:"ignore_additional_columns"`

	// RepeatLastColumn collapses all raw columns beyond the declared set
	// into a list-valued output column using the last column's format.
	RepeatLastColumn bool `yaml:"repeat_last_column"`

	// OnError selects the failure policy: "reject-file" rejects the whole
	// file on any error; otherwise only offending rows are dropped.
	OnError string `yaml:"on_error"`

	// Validators names row validators to run on every processed row.
	Validators []string `yaml:"validators"`
}

// FileFormat is the full schema of a tabular file: the ordered column
// formats plus whole-file options.
type FileFormat struct {
	Name        string
	Description string
	Columns     []*ColumnFormat
	Options     Options

	// Validators resolves named row validators. When nil, the package
	// default registry is used.
	Validators *ValidatorRegistry
}

func (f *FileFormat) String() string {
	return fmt.Sprintf("<FileFormat:%s>", f.Name)
}

// ProcessFile reads a delimited text file and processes it according to
// the format. The returned error covers only unreadable input; data-level
// problems are always captured in the report.
func (f *FileFormat) ProcessFile(path string) (Report, error) {
	slog.Info("processing file", "format", f.Name, "file", path)

	fh, err := os.Open(path)
	if err != nil {
		return Report{}, err
	}
	defer fh.Close()

	table, err := ReadTable(fh, f.Options.SkipRows)
	if err != nil {
		return Report{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return f.Process(table).WithFilename(path), nil
}

// Process validates and normalizes the given table. Every cell is expected
// to already be text or the missing marker. Process never fails for
// data-level problems; internal faults are absorbed into the report as a
// fatal internal_error.
func (f *FileFormat) Process(table *Table) (report Report) {
	report = NewReport(table.NumRows())
	defer func() {
		if p := recover(); p != nil {
			slog.Error("file processing failed with internal error", "format", f.Name, "panic", p)
			report.AddFileError(CodeInternalError, fmt.Sprint(p))
			report = report.WithStatus(StatusRejected)
		}
	}()

	out, err := f.process(table, report)
	if err != nil {
		slog.Error("file processing failed with internal error", "format", f.Name, "error", err)
		report.AddFileError(CodeInternalError, err.Error())
		return report.WithStatus(StatusRejected)
	}
	return out
}

func (f *FileFormat) process(table *Table, report Report) (Report, error) {
	expected := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		expected[i] = c.Label
	}

	// The unexpected-columns check is skipped whenever repeat_last_column
	// is set: trailing repeat columns are indistinguishable from genuinely
	// unexpected ones at this point.
	if !f.Options.IgnoreAdditionalColumns && !f.Options.RepeatLastColumn {
		f.checkAdditionalColumns(table, expected, report)
	}
	f.ensureExpectedColumns(table, expected, report)

	// Structural errors always reject the file, independent of on_error.
	if len(report.Errors()) > 0 {
		return report.WithStatus(StatusRejected), nil
	}

	columns := f.Columns
	var repeatFormat *ColumnFormat
	if f.Options.RepeatLastColumn {
		repeatFormat = columns[len(columns)-1]
		columns = columns[:len(columns)-1]
	}

	out := NewTable()
	for _, cf := range columns {
		raw, _ := table.Column(cf.Label)
		col, err := cf.Process(raw, &report)
		if err != nil {
			return Report{}, err
		}
		out.AppendColumn(Column{Name: cf.Name, Values: col.Values})
	}

	if repeatFormat != nil {
		repeats := make([]Column, 0, table.NumColumns()-len(columns))
		for i := len(columns); i < table.NumColumns(); i++ {
			repeats = append(repeats, table.ColumnAt(i))
		}
		col, err := f.processRepeatColumns(repeatFormat, repeats, table.NumRows(), &report)
		if err != nil {
			return Report{}, err
		}
		out.AppendColumn(col)
	}

	if len(f.Options.Validators) > 0 {
		if err := f.runValidators(out, &report); err != nil {
			return Report{}, err
		}
	}

	if len(report.Errors()) > 0 && f.Options.OnError == OnErrorRejectFile {
		// The processed table is still attached for inspection, but the
		// whole file is rejected.
		return report.WithTable(out).WithStatus(StatusRejected), nil
	}

	rejected := report.rejectedRows()
	clean := out.FilterRows(func(i int) bool { return !rejected[i] })
	return report.WithTable(clean), nil
}

// processRepeatColumns runs each trailing raw column through the repeat
// column's chain independently, then combines the per-row results into one
// list-valued column keeping the non-missing values in column order.
func (f *FileFormat) processRepeatColumns(cf *ColumnFormat, repeats []Column, numRows int, report *Report) (Column, error) {
	processed := make([]Column, len(repeats))
	for i, col := range repeats {
		c, err := cf.Process(col, report)
		if err != nil {
			return Column{}, err
		}
		processed[i] = c
	}

	values := make([]any, numRows)
	for i := 0; i < numRows; i++ {
		row := []any{}
		for _, col := range processed {
			if v := col.Values[i]; !isMissing(v) {
				row = append(row, v)
			}
		}
		values[i] = row
	}
	return Column{Name: cf.Name, Values: values}, nil
}

// runValidators resolves the named row validators and invokes each of them
// on every processed row. An unresolvable name is an internal fault.
func (f *FileFormat) runValidators(table *Table, report *Report) error {
	registry := f.Validators
	if registry == nil {
		registry = defaultValidators
	}

	fns := make([]RowValidator, len(f.Options.Validators))
	for i, name := range f.Options.Validators {
		fn, ok := registry.Get(name)
		if !ok {
			return fmt.Errorf("unknown row validator: %q", name)
		}
		fns[i] = fn
	}

	for i := 0; i < table.NumRows(); i++ {
		row := table.Row(i)
		for _, fn := range fns {
			fn(i, row, report)
		}
	}
	return nil
}

func (f *FileFormat) checkAdditionalColumns(table *Table, expected []string, report Report) {
	var extra []string
	for _, name := range table.Names() {
		if !slices.Contains(expected, name) {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		report.AddFileError(CodeUnexpectedColumns,
			fmt.Sprintf("Found unexpected additional columns: %s", strings.Join(extra, ", ")))
	}
}

func (f *FileFormat) ensureExpectedColumns(table *Table, expected []string, report Report) {
	names := table.Names()
	var missing []string
	for _, label := range expected {
		if !slices.Contains(names, label) {
			missing = append(missing, label)
		}
	}
	if len(missing) > 0 {
		report.AddFileError(CodeColumnsMissing,
			fmt.Sprintf("Requied columns missing: %s", strings.Join(missing, ", ")))
	}
}

// ReadTable reads delimited text into a table of string cells. The first
// row after skiprows is the header; ragged rows are padded to the widest
// observed row, extra raw columns get placeholder names (_x0, _x1, ...)
// and empty cells become the missing marker.
func ReadTable(r io.Reader, skiprows int) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if skiprows > 0 {
		if skiprows >= len(rows) {
			rows = nil
		} else {
			rows = rows[skiprows:]
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row found")
	}

	ncols := 0
	for _, row := range rows {
		ncols = max(ncols, len(row))
	}

	names := slices.Clone(rows[0])
	for i := 0; len(names) < ncols; i++ {
		names = append(names, fmt.Sprintf("_x%d", i))
	}

	data := rows[1:]
	table := NewTable()
	for j, name := range names {
		values := make([]any, len(data))
		for i, row := range data {
			if j < len(row) && row[j] != "" {
				values[i] = row[j]
			}
		}
		table.AppendColumn(Column{Name: name, Values: values})
	}
	return table, nil
}
