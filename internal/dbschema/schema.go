// Package dbschema inspects a PostgreSQL database schema: the available
// tables and views, their columns and indexes, enum types and constraint
// names. Only reads from information_schema and pg_catalog, never from
// user tables.
package dbschema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the slice of pgx needed here. Both *pgx.Conn and
// *pgxpool.Pool satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Table is a table or view in the database.
type Table struct {
	Schema string `json:"table_schema"`
	Name   string `json:"table_name"`
	// Type is "BASE TABLE" or "VIEW".
	Type string `json:"table_type"`
}

// Column is a column in a database table.
type Column struct {
	Name     string  `json:"column_name"`
	DataType string  `json:"data_type"`
	Default  *string `json:"column_default"`
	Nullable bool    `json:"is_nullable"`
}

// EnumType is a user-defined enum type with its labels in sort order.
type EnumType struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Schema provides access to the schema of one database.
type Schema struct {
	db Querier
}

// New creates a Schema over the given connection or pool.
func New(db Querier) *Schema {
	return &Schema{db: db}
}

// Tables returns all tables and views in the given schema ("public" when
// empty), ordered by name.
func (s *Schema) Tables(ctx context.Context, tableSchema string) ([]Table, error) {
	if tableSchema == "" {
		tableSchema = "public"
	}
	rows, err := s.db.Query(ctx, `
		SELECT table_schema, table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = $1
		ORDER BY table_name`, tableSchema)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Schema, &t.Name, &t.Type); err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// Views returns only the views in the given schema.
func (s *Schema) Views(ctx context.Context, tableSchema string) ([]Table, error) {
	tables, err := s.Tables(ctx, tableSchema)
	if err != nil {
		return nil, err
	}
	var views []Table
	for _, t := range tables {
		if t.Type == "VIEW" {
			views = append(views, t)
		}
	}
	return views, nil
}

// HasTable reports whether the named table or view exists in the public
// schema.
func (s *Schema) HasTable(ctx context.Context, name string) (bool, error) {
	tables, err := s.Tables(ctx, "public")
	if err != nil {
		return false, err
	}
	for _, t := range tables {
		if t.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// Columns returns all columns of the named table in ordinal order.
func (s *Schema) Columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := s.db.Query(ctx, `
		SELECT column_name, data_type, column_default, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("listing columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.DataType, &c.Default, &c.Nullable); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// Indexes returns the index names of the named table.
func (s *Schema) Indexes(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT indexname
		FROM pg_indexes
		WHERE schemaname = 'public' AND tablename = $1
		ORDER BY indexname`, table)
	if err != nil {
		return nil, fmt.Errorf("listing indexes of %s: %w", table, err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// ConstraintNames returns the constraint names of the named table.
func (s *Schema) ConstraintNames(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT constraint_name
		FROM information_schema.table_constraints
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY constraint_name`, table)
	if err != nil {
		return nil, fmt.Errorf("listing constraints of %s: %w", table, err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// EnumTypes returns all enum types in the public schema with their labels
// in sort order.
func (s *Schema) EnumTypes(ctx context.Context) ([]EnumType, error) {
	rows, err := s.db.Query(ctx, `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = 'public'
		ORDER BY t.typname, e.enumsortorder`)
	if err != nil {
		return nil, fmt.Errorf("listing enum types: %w", err)
	}
	defer rows.Close()

	var enums []EnumType
	for rows.Next() {
		var name, label string
		if err := rows.Scan(&name, &label); err != nil {
			return nil, fmt.Errorf("scanning enum row: %w", err)
		}
		if len(enums) == 0 || enums[len(enums)-1].Name != name {
			enums = append(enums, EnumType{Name: name})
		}
		enums[len(enums)-1].Values = append(enums[len(enums)-1].Values, label)
	}
	return enums, rows.Err()
}

// EnumType returns the enum with the given name.
func (s *Schema) EnumType(ctx context.Context, name string) (EnumType, bool, error) {
	enums, err := s.EnumTypes(ctx)
	if err != nil {
		return EnumType{}, false, err
	}
	for _, e := range enums {
		if e.Name == name {
			return e, true, nil
		}
	}
	return EnumType{}, false, nil
}

func scanStrings(rows pgx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
