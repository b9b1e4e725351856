// Package fileformat validates and normalizes tabular input files against a
// declarative schema.
//
// A FileFormat describes the expected columns of a delimited file: their
// output names, the header labels to match in the raw input, datatypes and
// per-column constraints. Processing a file produces a Report carrying the
// accept/reject status, every violation found in a single pass, and the
// cleaned table with offending rows removed.
//
// Validation never stops at the first problem. Data-level issues are
// accumulated as row or file errors in the report; only schema construction
// mistakes (unknown datatype, malformed regex) surface as Go errors.
package fileformat
