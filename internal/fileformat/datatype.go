package fileformat

import "fmt"

// Datatype is the target type of an output column.
type Datatype string

const (
	Integer  Datatype = "integer"
	Float    Datatype = "float"
	String   Datatype = "string"
	Date     Datatype = "date"
	DateTime Datatype = "datetime"
)

// ParseDatatype resolves a datatype by its name as used in format
// definitions. An unknown name is a schema construction error.
func ParseDatatype(name string) (Datatype, error) {
	switch Datatype(name) {
	case Integer, Float, String, Date, DateTime:
		return Datatype(name), nil
	}
	return "", fmt.Errorf("unknown datatype: %q", name)
}
