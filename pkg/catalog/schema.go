// Package catalog is the core's view of spec.md §6's consumed
// TableCatalogEntry collaborator: columns, bound constraints, types.
// Grounded on tae/pkg/catalog/table.go's struct shape, simplified since
// this layer has no create/drop transactional lifecycle of its own.
package catalog

import "github.com/karlkukk-dev/duckdb/pkg/vector"

// ColumnDefinition is one catalog column.
type ColumnDefinition struct {
	Name string
	Typ  vector.Type
}

// TableSchema is the concrete catalog entry for one table.
type TableSchema struct {
	TableName   string
	ColumnDefs  []ColumnDefinition
	Constraints []Constraint
}

// NewTableSchema builds a schema with no constraints; use AddConstraint
// to bind NOT NULL/CHECK/UNIQUE/FOREIGN KEY constraints afterward.
func NewTableSchema(name string, columns ...ColumnDefinition) *TableSchema {
	return &TableSchema{TableName: name, ColumnDefs: columns}
}

// AddConstraint binds a constraint to the schema.
func (s *TableSchema) AddConstraint(c Constraint) {
	s.Constraints = append(s.Constraints, c)
}

// TableCatalogEntry is spec.md §6's consumed Catalog collaborator.
type TableCatalogEntry interface {
	Name() string
	Columns() []ColumnDefinition
	BoundConstraints() []Constraint
	GetTypes() []vector.Type
}

func (s *TableSchema) Name() string { return s.TableName }

func (s *TableSchema) Columns() []ColumnDefinition { return s.ColumnDefs }

func (s *TableSchema) BoundConstraints() []Constraint { return s.Constraints }

func (s *TableSchema) GetTypes() []vector.Type {
	types := make([]vector.Type, len(s.ColumnDefs))
	for i, c := range s.ColumnDefs {
		types[i] = c.Typ
	}
	return types
}
