package fileformat

// processors.go implements the composable per-column validation and
// transformation steps. Every processor consumes one column and the shared
// report for the run and returns the (possibly replaced) column. Invalid
// data never aborts processing: it is reported as a row error and the cell
// is replaced with the type's missing marker. Only invalid processor
// construction (a malformed regex) yields a Go error.

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Processor is one step in a column's processing chain.
type Processor interface {
	Process(col Column, report *Report) Column
}

// formatValue renders a cell value for error messages, using the same
// quoting the report contract has always used: strings in single quotes,
// missing cells as None, NaN as nan.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		if strings.Contains(t, "'") {
			return strconv.Quote(t)
		}
		return "'" + t + "'"
	case float32:
		if math.IsNaN(float64(t)) {
			return "nan"
		}
		return fmt.Sprint(t)
	case float64:
		if math.IsNaN(t) {
			return "nan"
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}

// UniquenessProcessor flags every value after its first occurrence as a
// duplicate. The column is returned unchanged.
type UniquenessProcessor struct{}

func (UniquenessProcessor) Process(col Column, report *Report) Column {
	seen := make(map[any]bool, len(col.Values))
	for i, v := range col.Values {
		if seen[v] {
			report.AddRowError(CodeDuplicateValue,
				fmt.Sprintf("Found duplicate value: %s", formatValue(v)),
				i, col.Name, v)
			continue
		}
		seen[v] = true
	}
	return col
}

// RegexProcessor flags values that do not match the pattern at the start
// of the value. Missing cells are skipped.
type RegexProcessor struct {
	pattern string
	re      *regexp.Regexp
}

// NewRegexProcessor compiles the pattern, anchored at the start of the
// value (a match anywhere later in the value does not count). A malformed
// pattern is a construction error.
func NewRegexProcessor(pattern string) (*RegexProcessor, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return &RegexProcessor{pattern: pattern, re: re}, nil
}

func (p *RegexProcessor) Process(col Column, report *Report) Column {
	for i, v := range col.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if !p.re.MatchString(s) {
			report.AddRowError(CodeInvalidPattern,
				fmt.Sprintf("The value is not matching the pattern %s: %s", p.pattern, formatValue(v)),
				i, col.Name, v)
		}
	}
	return col
}

// OptionsProcessor flags values outside a closed allowed-value set.
// Missing and empty cells are skipped; required-ness is enforced by a
// separate processor.
type OptionsProcessor struct {
	options []string
}

// NewOptionsProcessor creates a processor for the given allowed values.
func NewOptionsProcessor(options []string) *OptionsProcessor {
	return &OptionsProcessor{options: options}
}

func (p *OptionsProcessor) Process(col Column, report *Report) Column {
	for i, v := range col.Values {
		if v == nil || v == "" {
			continue
		}
		s, ok := v.(string)
		if ok && slices.Contains(p.options, s) {
			continue
		}
		report.AddRowError(CodeInvalidOption,
			fmt.Sprintf("The value is not one of the allowed options: %s", formatValue(v)),
			i, col.Name, v)
	}
	return col
}

// RequiredProcessor flags missing cells. Values are not altered here; the
// datatype conversion performs the final substitution.
type RequiredProcessor struct{}

func (RequiredProcessor) Process(col Column, report *Report) Column {
	for i, v := range col.Values {
		if isMissing(v) {
			report.AddRowError(CodeMissingValue,
				fmt.Sprintf("Found missing value: %s", formatValue(v)),
				i, col.Name, v)
		}
	}
	return col
}

// DefaultsProcessor replaces missing cells, and cells matching any of the
// configured extra missing value strings, with the default value.
type DefaultsProcessor struct {
	defaultValue  any
	missingValues []string
}

// NewDefaultsProcessor creates a processor substituting defaultValue for
// missing cells. missingValues lists extra strings treated as missing
// besides the empty string and nil.
func NewDefaultsProcessor(defaultValue any, missingValues []string) *DefaultsProcessor {
	return &DefaultsProcessor{defaultValue: defaultValue, missingValues: missingValues}
}

func (p *DefaultsProcessor) Process(col Column, report *Report) Column {
	values := make([]any, len(col.Values))
	for i, v := range col.Values {
		if p.isMissing(v) {
			values[i] = p.defaultValue
			continue
		}
		values[i] = v
	}
	return Column{Name: col.Name, Values: values}
}

func (p *DefaultsProcessor) isMissing(v any) bool {
	if isMissing(v) {
		return true
	}
	if s, ok := v.(string); ok {
		return slices.Contains(p.missingValues, s)
	}
	return false
}

// DatatypeProcessor converts the column of raw strings into the target
// type. It must run last in the chain: all other processing happens on the
// textual form.
type DatatypeProcessor struct {
	datatype   Datatype
	dateformat string // source pattern as given
	layout     string // time.Parse layout derived from it
}

// NewDatatypeProcessor creates the terminal conversion step. The source
// date pattern is translated once at construction.
func NewDatatypeProcessor(datatype Datatype, dateformat string) *DatatypeProcessor {
	p := &DatatypeProcessor{datatype: datatype, dateformat: dateformat}
	if dateformat != "" {
		p.layout = timeLayout(ConvertDateFormat(dateformat))
	}
	return p
}

func (p *DatatypeProcessor) Process(col Column, report *Report) Column {
	values := make([]any, len(col.Values))
	for i, v := range col.Values {
		if isMissing(v) {
			values[i] = p.missingValue()
			continue
		}
		converted, err := p.convert(v)
		if err != nil {
			report.AddRowError(CodeInvalidValue, p.errorMessage(v), i, col.Name, v)
			values[i] = p.missingValue()
			continue
		}
		values[i] = converted
	}
	return Column{Name: col.Name, Values: values}
}

// missingValue returns the cell placeholder for missing input: NaN for
// floats, nil for everything else.
func (p *DatatypeProcessor) missingValue() any {
	if p.datatype == Float {
		return float32(math.NaN())
	}
	return nil
}

func (p *DatatypeProcessor) errorMessage(v any) string {
	switch p.datatype {
	case Integer:
		return fmt.Sprintf("Invalid integer: %s", formatValue(v))
	case Float:
		return fmt.Sprintf("Invalid number: %s", formatValue(v))
	case Date:
		return fmt.Sprintf("Invalid date: %s", formatValue(v))
	case DateTime:
		return fmt.Sprintf("Invalid timestamp: %s", formatValue(v))
	default:
		return "Invalid value"
	}
}

func (p *DatatypeProcessor) convert(v any) (any, error) {
	switch p.datatype {
	case Integer:
		return toInteger(v)
	case Float:
		return toFloat(v)
	case String:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	case Date:
		t, err := p.parseTime(v)
		if err != nil {
			return nil, err
		}
		return t.Format("2006-01-02"), nil
	case DateTime:
		return p.parseTime(v)
	}
	return nil, fmt.Errorf("unknown datatype: %q", p.datatype)
}

func (p *DatatypeProcessor) parseTime(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("not a date string: %v", v)
	}
	return time.Parse(p.layout, strings.TrimSpace(s))
}

func toInteger(v any) (int64, error) {
	switch t := v.(type) {
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		return int64(t), nil
	case float32:
		return int64(t), nil
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}

func toFloat(v any) (float32, error) {
	switch t := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 32)
		if err != nil {
			return 0, err
		}
		return float32(f), nil
	case int:
		return float32(t), nil
	case int64:
		return float32(t), nil
	case float64:
		return float32(t), nil
	case float32:
		return t, nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}
