package fileformat

// loader.go parses declarative format definitions (YAML documents) into
// FileFormat values. Schema construction errors (unknown datatype,
// malformed regex, missing dateformat) are reported here, before any file
// is processed.

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// columnKeys are the recognized per-column definition keys. Anything else
// is passed through as an opaque parameter.
var columnKeys = map[string]bool{
	"name":           true,
	"label":          true,
	"datatype":       true,
	"description":    true,
	"required":       true,
	"default":        true,
	"regex":          true,
	"transform":      true,
	"dateformat":     true,
	"unique":         true,
	"options":        true,
	"missing_values": true,
}

// FromFile parses a FileFormat from a YAML definition file.
func FromFile(path string) (*FileFormat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// FromBytes parses a FileFormat from a YAML document.
func FromBytes(data []byte) (*FileFormat, error) {
	var d map[string]any
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("invalid format definition: %w", err)
	}
	return FromDict(d)
}

// FromDict builds a FileFormat from a decoded definition document.
func FromDict(d map[string]any) (*FileFormat, error) {
	name, ok := d["name"].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("format definition has no name")
	}

	f := &FileFormat{Name: name}
	f.Description, _ = d["description"].(string)

	if opts, ok := d["options"].(map[string]any); ok {
		o, err := optionsFromDict(opts)
		if err != nil {
			return nil, fmt.Errorf("format %s: %w", name, err)
		}
		f.Options = o
	}

	rawColumns, ok := d["columns"].([]any)
	if !ok || len(rawColumns) == 0 {
		return nil, fmt.Errorf("format %s has no columns", name)
	}
	for i, raw := range rawColumns {
		cd, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("format %s: column %d is not a mapping", name, i)
		}
		c, err := columnFromDict(cd)
		if err != nil {
			return nil, fmt.Errorf("format %s: %w", name, err)
		}
		f.Columns = append(f.Columns, c)
	}
	return f, nil
}

func optionsFromDict(d map[string]any) (Options, error) {
	var o Options
	if v, ok := d["skiprows"]; ok {
		n, err := asInt(v)
		if err != nil {
			return o, fmt.Errorf("skiprows: %w", err)
		}
		o.SkipRows = n
	}
	if v, ok := d["ignore_additional_columns"].(bool); ok {
		o.IgnoreAdditionalColumns = v
	}
	if v, ok := d["repeat_last_column"].(bool); ok {
		o.RepeatLastColumn = v
	}
	if v, ok := d["on_error"].(string); ok {
		o.OnError = v
	}
	if v, ok := d["validators"]; ok {
		names, err := asStringSlice(v)
		if err != nil {
			return o, fmt.Errorf("validators: %w", err)
		}
		o.Validators = names
	}
	return o, nil
}

func columnFromDict(d map[string]any) (*ColumnFormat, error) {
	name, _ := d["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("column has no name")
	}

	c := &ColumnFormat{Name: name, Required: true}
	c.Label, _ = d["label"].(string)
	c.Description, _ = d["description"].(string)
	c.Regex, _ = d["regex"].(string)
	c.Transform, _ = d["transform"].(string)
	c.DateFormat, _ = d["dateformat"].(string)
	c.Unique, _ = d["unique"].(bool)
	c.Default = d["default"]

	// A column with a default is optional unless required is set
	// explicitly.
	if v, ok := d["required"].(bool); ok {
		c.Required = v
	} else if _, ok := d["default"]; ok {
		c.Required = false
	}

	datatypeName, _ := d["datatype"].(string)
	datatype, err := ParseDatatype(datatypeName)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", name, err)
	}
	c.Datatype = datatype

	if v, ok := d["options"]; ok {
		options, err := asStringSlice(v)
		if err != nil {
			return nil, fmt.Errorf("column %s: options: %w", name, err)
		}
		c.Options = options
	}
	if v, ok := d["missing_values"]; ok {
		missing, err := asStringSlice(v)
		if err != nil {
			return nil, fmt.Errorf("column %s: missing_values: %w", name, err)
		}
		c.MissingValues = missing
	}

	if c.Regex != "" && c.Datatype == String {
		if _, err := NewRegexProcessor(c.Regex); err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
	}
	if (c.Datatype == Date || c.Datatype == DateTime) && c.DateFormat == "" {
		return nil, fmt.Errorf("column %s: dateformat is required for %s columns", name, c.Datatype)
	}

	for k, v := range d {
		if !columnKeys[k] {
			if c.Params == nil {
				c.Params = make(map[string]any)
			}
			c.Params[k] = v
		}
	}
	return c, nil
}

func asInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func asStringSlice(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", item)
		}
		out[i] = s
	}
	return out, nil
}
