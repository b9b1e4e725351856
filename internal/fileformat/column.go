package fileformat

import "log/slog"

// ColumnFormat is the declarative spec for one output column.
//
// Label is the header text expected in the raw input (the matching key);
// Name identifies the column in the cleaned output. A column is required by
// default; supplying a Default makes it optional unless Required is set
// explicitly (FromDict applies that rule when loading definitions).
type ColumnFormat struct {
	Name          string
	Label         string
	Datatype      Datatype
	Description   string
	Required      bool
	Default       any
	Regex         string
	Transform     string
	DateFormat    string
	Unique        bool
	Options       []string
	MissingValues []string

	// Params carries unrecognized definition keys, available to custom
	// row validators.
	Params map[string]any
}

// Processors assembles the ordered processing chain from the column's
// flags. The chain is computed each time; the order is fixed:
//
//  1. uniqueness check
//  2. pattern check (string columns only)
//  3. allowed-values check
//  4. required check, or default substitution when not required
//  5. datatype conversion, always last
//
// Structural and content checks run on the raw textual values; the type
// conversion is the terminal, destructive step.
func (c *ColumnFormat) Processors() ([]Processor, error) {
	var chain []Processor

	if c.Unique {
		chain = append(chain, UniquenessProcessor{})
	}

	if c.Datatype == String && c.Regex != "" {
		p, err := NewRegexProcessor(c.Regex)
		if err != nil {
			return nil, err
		}
		chain = append(chain, p)
	}

	if c.Options != nil {
		chain = append(chain, NewOptionsProcessor(c.Options))
	}

	if c.Required {
		chain = append(chain, RequiredProcessor{})
	} else {
		chain = append(chain, NewDefaultsProcessor(c.Default, c.MissingValues))
	}

	chain = append(chain, NewDatatypeProcessor(c.Datatype, c.DateFormat))
	return chain, nil
}

// Process runs the column through the full processing chain, writing
// violations into the report. The returned error covers only chain
// construction faults, never invalid data.
func (c *ColumnFormat) Process(col Column, report *Report) (Column, error) {
	slog.Debug("processing column", "column", col.Name)
	chain, err := c.Processors()
	if err != nil {
		return Column{}, err
	}
	for _, p := range chain {
		col = p.Process(col, report)
	}
	return col, nil
}
