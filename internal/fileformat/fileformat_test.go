package fileformat

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func ordersFormat() *FileFormat {
	return &FileFormat{
		Name: "orders",
		Columns: []*ColumnFormat{
			{Name: "order_id", Label: "Order Id", Datatype: String, Required: true, Unique: true},
			{Name: "quantity", Label: "Quantity", Datatype: Integer, Required: true},
			{Name: "notes", Label: "Notes", Datatype: String},
		},
	}
}

func ordersTable(rows ...[]any) *Table {
	n := len(rows)
	get := func(j int) []any {
		values := make([]any, n)
		for i, row := range rows {
			values[i] = row[j]
		}
		return values
	}
	return NewTable(
		Column{Name: "Order Id", Values: get(0)},
		Column{Name: "Quantity", Values: get(1)},
		Column{Name: "Notes", Values: get(2)},
	)
}

// ----------------------------------------------------------------------------
// Structural checks
// ----------------------------------------------------------------------------

func TestProcessUnexpectedColumns(t *testing.T) {
	f := ordersFormat()
	table := NewTable(
		Column{Name: "Order Id", Values: []any{"A1"}},
		Column{Name: "Quantity", Values: []any{"1"}},
		Column{Name: "Notes", Values: []any{nil}},
		Column{Name: "Surprise", Values: []any{"x"}},
	)

	report := f.Process(table)
	if report.Status != StatusRejected {
		t.Errorf("status = %q, want REJECTED", report.Status)
	}
	errs := report.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	e := errs[0]
	if e.Level != LevelFile || e.Code != CodeUnexpectedColumns {
		t.Errorf("error = %+v", e)
	}
	if e.Message != "Found unexpected additional columns: Surprise" {
		t.Errorf("error_message = %q", e.Message)
	}
	if report.Table != nil {
		t.Error("structural rejection must not produce a cleaned table")
	}
}

func TestProcessMissingColumns(t *testing.T) {
	f := ordersFormat()
	table := NewTable(
		Column{Name: "Order Id", Values: []any{"A1"}},
	)

	report := f.Process(table)
	if report.Status != StatusRejected {
		t.Errorf("status = %q, want REJECTED", report.Status)
	}
	errs := report.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Code != CodeColumnsMissing {
		t.Errorf("error_code = %q", errs[0].Code)
	}
	if errs[0].Message != "Requied columns missing: Quantity, Notes" {
		t.Errorf("error_message = %q", errs[0].Message)
	}
}

func TestProcessIgnoreAdditionalColumns(t *testing.T) {
	f := ordersFormat()
	f.Options.IgnoreAdditionalColumns = true
	table := NewTable(
		Column{Name: "Order Id", Values: []any{"A1"}},
		Column{Name: "Quantity", Values: []any{"1"}},
		Column{Name: "Notes", Values: []any{"n"}},
		Column{Name: "Surprise", Values: []any{"x"}},
	)

	report := f.Process(table)
	if report.Status != StatusAccepted || len(report.Errors()) != 0 {
		t.Errorf("report = %v, errors = %v", report, report.Errors())
	}
	if got := report.Table.Names(); !reflect.DeepEqual(got, []string{"order_id", "quantity", "notes"}) {
		t.Errorf("output columns = %v", got)
	}
}

// The additional-columns check is skipped entirely whenever
// repeat_last_column is set, even with ignore_additional_columns unset.
// Genuinely unexpected columns go undetected under that combination; this
// is long-standing behavior that callers rely on.
func TestProcessRepeatLastColumnSkipsAdditionalCheck(t *testing.T) {
	f := &FileFormat{
		Name: "wide",
		Columns: []*ColumnFormat{
			{Name: "id", Label: "Id", Datatype: String, Required: true},
			{Name: "values", Label: "V", Datatype: Integer},
		},
		Options: Options{RepeatLastColumn: true},
	}
	table := NewTable(
		Column{Name: "Id", Values: []any{"a"}},
		Column{Name: "V", Values: []any{"1"}},
		Column{Name: "Totally Unexpected", Values: []any{"2"}},
	)

	report := f.Process(table)
	if report.Status != StatusAccepted {
		t.Errorf("status = %q, want ACCEPTED", report.Status)
	}
	for _, e := range report.Errors() {
		if e.Code == CodeUnexpectedColumns {
			t.Errorf("unexpected-columns check ran: %v", e)
		}
	}
}

// ----------------------------------------------------------------------------
// Row-level errors and filtering
// ----------------------------------------------------------------------------

func TestProcessDropsOffendingRows(t *testing.T) {
	f := ordersFormat()
	table := ordersTable(
		[]any{"A1", "1", nil},
		[]any{"A2", "x", nil},
		[]any{"A3", "3", "ok"},
	)

	report := f.Process(table)
	if report.Status != StatusAccepted {
		t.Errorf("status = %q, want ACCEPTED", report.Status)
	}
	errs := report.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	assertRowError(t, errs[0], CodeInvalidValue, "Invalid integer: 'x'", 1, "Quantity")

	// One error on a row drops the whole row.
	qty, _ := report.Table.Column("quantity")
	if !reflect.DeepEqual(qty.Values, []any{int64(1), int64(3)}) {
		t.Errorf("quantity = %v", qty.Values)
	}
	if report.TotalRows != 3 {
		t.Errorf("total_rows = %d, want 3", report.TotalRows)
	}
	if report.RejectedRowCount() != 1 {
		t.Errorf("rejected_row_count = %d, want 1", report.RejectedRowCount())
	}
}

func TestProcessOnErrorRejectFile(t *testing.T) {
	f := ordersFormat()
	f.Options.OnError = OnErrorRejectFile
	table := ordersTable(
		[]any{"A1", "1", nil},
		[]any{"A2", "x", nil},
	)

	report := f.Process(table)
	if report.Status != StatusRejected {
		t.Errorf("status = %q, want REJECTED", report.Status)
	}
	if len(report.Errors()) != 1 {
		t.Errorf("errors = %v", report.Errors())
	}
	// The processed table stays available for inspection.
	if report.Table == nil || report.Table.NumRows() != 2 {
		t.Errorf("table = %v", report.Table)
	}
}

func TestProcessIdempotent(t *testing.T) {
	f := &FileFormat{
		Name: "clean",
		Columns: []*ColumnFormat{
			{Name: "name", Label: "name", Datatype: String, Required: true},
			{Name: "count", Label: "count", Datatype: Integer, Required: true},
		},
	}
	table := NewTable(
		Column{Name: "name", Values: []any{"a", "b"}},
		Column{Name: "count", Values: []any{"1", "2"}},
	)

	first := f.Process(table)
	if len(first.Errors()) != 0 {
		t.Fatalf("first run errors: %v", first.Errors())
	}

	again := f.Process(NewTable(
		Column{Name: "name", Values: []any{"a", "b"}},
		Column{Name: "count", Values: []any{"1", "2"}},
	))
	if len(again.Errors()) != 0 {
		t.Fatalf("second run errors: %v", again.Errors())
	}
	c1, _ := first.Table.Column("count")
	c2, _ := again.Table.Column("count")
	if !reflect.DeepEqual(c1.Values, c2.Values) {
		t.Errorf("runs differ: %v vs %v", c1.Values, c2.Values)
	}
}

// ----------------------------------------------------------------------------
// Repeat columns
// ----------------------------------------------------------------------------

func TestProcessRepeatLastColumn(t *testing.T) {
	f := &FileFormat{
		Name: "timeseries",
		Columns: []*ColumnFormat{
			{Name: "product", Label: "Product", Datatype: String, Required: true},
			{Name: "sales", Label: "Sales", Datatype: Integer},
		},
		Options: Options{RepeatLastColumn: true},
	}
	table := NewTable(
		Column{Name: "Product", Values: []any{"apples", "pears"}},
		Column{Name: "Sales", Values: []any{"1", "4"}},
		Column{Name: "_x0", Values: []any{"2", nil}},
		Column{Name: "_x1", Values: []any{"3", "6"}},
	)

	report := f.Process(table)
	if report.Status != StatusAccepted {
		t.Fatalf("status = %q, errors = %v", report.Status, report.Errors())
	}

	sales, ok := report.Table.Column("sales")
	if !ok {
		t.Fatalf("no sales column: %v", report.Table.Names())
	}
	want := []any{
		[]any{int64(1), int64(2), int64(3)},
		[]any{int64(4), int64(6)},
	}
	if !reflect.DeepEqual(sales.Values, want) {
		t.Errorf("sales = %v, want %v", sales.Values, want)
	}
}

func TestProcessRepeatLastColumnReportsBadCells(t *testing.T) {
	f := &FileFormat{
		Name: "timeseries",
		Columns: []*ColumnFormat{
			{Name: "product", Label: "Product", Datatype: String, Required: true},
			{Name: "sales", Label: "Sales", Datatype: Integer},
		},
		Options: Options{RepeatLastColumn: true},
	}
	table := NewTable(
		Column{Name: "Product", Values: []any{"apples"}},
		Column{Name: "Sales", Values: []any{"1"}},
		Column{Name: "_x0", Values: []any{"oops"}},
	)

	report := f.Process(table)
	errs := report.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	assertRowError(t, errs[0], CodeInvalidValue, "Invalid integer: 'oops'", 0, "_x0")
}

// ----------------------------------------------------------------------------
// Row validators
// ----------------------------------------------------------------------------

func TestProcessRowValidators(t *testing.T) {
	registry := NewValidatorRegistry()
	registry.Register("max_quantity", func(rowIndex int, row Row, report *Report) {
		if q, ok := row["quantity"].(int64); ok && q > 10 {
			report.AddRowError("quantity_too_large", "Quantity exceeds the limit", rowIndex, "quantity", q)
		}
	})

	f := ordersFormat()
	f.Options.Validators = []string{"max_quantity"}
	f.Validators = registry

	table := ordersTable(
		[]any{"A1", "5", nil},
		[]any{"A2", "50", nil},
	)
	report := f.Process(table)
	errs := report.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Code != "quantity_too_large" || *errs[0].RowIndex != 1 {
		t.Errorf("error = %+v", errs[0])
	}
	if report.Table.NumRows() != 1 {
		t.Errorf("flagged row not dropped: %d rows", report.Table.NumRows())
	}
}

func TestProcessUnknownValidatorIsInternalError(t *testing.T) {
	f := ordersFormat()
	f.Options.Validators = []string{"does_not_exist"}
	f.Validators = NewValidatorRegistry()

	report := f.Process(ordersTable([]any{"A1", "1", nil}))
	if report.Status != StatusRejected {
		t.Errorf("status = %q, want REJECTED", report.Status)
	}
	errs := report.Errors()
	if len(errs) != 1 || errs[0].Code != CodeInternalError {
		t.Fatalf("errors = %v", errs)
	}
	if !strings.Contains(errs[0].Message, "does_not_exist") {
		t.Errorf("error_message = %q", errs[0].Message)
	}
}

// ----------------------------------------------------------------------------
// Defaults and required interplay
// ----------------------------------------------------------------------------

func TestProcessDefaultSubstitution(t *testing.T) {
	f := &FileFormat{
		Name: "inventory",
		Columns: []*ColumnFormat{
			{Name: "item", Label: "Item", Datatype: String, Required: true},
			{Name: "stock", Label: "Stock", Datatype: Integer, Default: "0"},
		},
	}
	table := NewTable(
		Column{Name: "Item", Values: []any{"a", "b"}},
		Column{Name: "Stock", Values: []any{"7", nil}},
	)

	report := f.Process(table)
	if len(report.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", report.Errors())
	}
	stock, _ := report.Table.Column("stock")
	if !reflect.DeepEqual(stock.Values, []any{int64(7), int64(0)}) {
		t.Errorf("stock = %v", stock.Values)
	}
}

// ----------------------------------------------------------------------------
// File reading
// ----------------------------------------------------------------------------

func TestReadTable(t *testing.T) {
	input := "junk line\nName,Count\nalice,1\nbob,2,extra\ncarol\n"
	table, err := ReadTable(strings.NewReader(input), 1)
	if err != nil {
		t.Fatal(err)
	}

	if got := table.Names(); !reflect.DeepEqual(got, []string{"Name", "Count", "_x0"}) {
		t.Errorf("names = %v", got)
	}
	count, _ := table.Column("Count")
	// Short rows are padded with the missing marker, empty cells too.
	if !reflect.DeepEqual(count.Values, []any{"1", "2", nil}) {
		t.Errorf("count = %v", count.Values)
	}
	extra, _ := table.Column("_x0")
	if !reflect.DeepEqual(extra.Values, []any{nil, "extra", nil}) {
		t.Errorf("extra = %v", extra.Values)
	}
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.csv")
	contents := "Order Id,Quantity,Notes\nA1,1,\nA2,x,\nA3,3,fine\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := ordersFormat().ProcessFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if report.Filename != path {
		t.Errorf("filename = %q, want %q", report.Filename, path)
	}
	if report.TotalRows != 3 {
		t.Errorf("total_rows = %d, want 3", report.TotalRows)
	}
	if len(report.Errors()) != 1 {
		t.Fatalf("errors = %v", report.Errors())
	}
	if report.Table.NumRows() != 2 {
		t.Errorf("cleaned rows = %d, want 2", report.Table.NumRows())
	}
}

func TestProcessFileWithExtraHeaderRejects(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.csv")
	contents := "Order Id,Quantity,Notes,Bonus\nA1,1,,x\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := ordersFormat().ProcessFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if report.Status != StatusRejected {
		t.Errorf("status = %q, want REJECTED", report.Status)
	}
	errs := report.Errors()
	if len(errs) != 1 || errs[0].Code != CodeUnexpectedColumns {
		t.Errorf("errors = %v", errs)
	}
	if report.Table != nil {
		t.Error("no cleaned table expected after structural rejection")
	}
}
