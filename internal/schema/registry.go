// Package schema holds the immutable description of the introspected
// database: table names, ordered column descriptors, and key metadata.
// A Descriptor is built once at startup and shared read-only by the
// synthesizer, formatter, and the descriptive-question tools.
package schema

import (
	"fmt"
	"strings"
)

// Column describes a single column of an introspected table.
type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	PrimaryKey  bool   `json:"primary_key,omitempty"`
	References  string `json:"references,omitempty"` // "table.column" for foreign keys
}

// Descriptor is the immutable table → columns mapping.
type Descriptor struct {
	tables map[string][]Column
	order  []string
}

// NewDescriptor builds a Descriptor from the given tables. Insertion order
// of the map iteration is not stable, so callers pass the order explicitly.
func NewDescriptor(order []string, tables map[string][]Column) *Descriptor {
	cp := make(map[string][]Column, len(tables))
	for name, cols := range tables {
		cp[strings.ToLower(name)] = append([]Column(nil), cols...)
	}
	ord := make([]string, len(order))
	for i, name := range order {
		ord[i] = strings.ToLower(name)
	}
	return &Descriptor{tables: cp, order: ord}
}

// Tables returns table names in introspection order.
func (d *Descriptor) Tables() []string {
	return append([]string(nil), d.order...)
}

// Columns returns the ordered column descriptors for a table.
func (d *Descriptor) Columns(table string) ([]Column, bool) {
	cols, ok := d.tables[strings.ToLower(table)]
	if !ok {
		return nil, false
	}
	return append([]Column(nil), cols...), true
}

// ColumnType returns the declared type of table.column, lowercased and
// stripped of any length/precision suffix ("numeric(10,2)" → "numeric").
func (d *Descriptor) ColumnType(table, column string) (string, bool) {
	cols, ok := d.tables[strings.ToLower(table)]
	if !ok {
		return "", false
	}
	for _, c := range cols {
		if strings.EqualFold(c.Name, column) {
			return BaseType(c.Type), true
		}
	}
	return "", false
}

// HasColumn reports whether the table declares the column.
func (d *Descriptor) HasColumn(table, column string) bool {
	_, ok := d.ColumnType(table, column)
	return ok
}

// Context renders the schema as prompt text for LLM grounding:
// one line per table listing columns with types and key annotations.
func (d *Descriptor) Context() string {
	var sb strings.Builder
	for _, name := range d.order {
		sb.WriteString(fmt.Sprintf("Table %q: ", name))
		parts := make([]string, 0, len(d.tables[name]))
		for _, c := range d.tables[name] {
			p := fmt.Sprintf("%s (%s", c.Name, c.Type)
			if c.PrimaryKey {
				p += ", primary key"
			}
			if c.References != "" {
				p += ", references " + c.References
			}
			p += ")"
			parts = append(parts, p)
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Describe renders a single table the way the describe_table tool reports
// it to the model.
func (d *Descriptor) Describe(table string) (string, bool) {
	cols, ok := d.tables[strings.ToLower(table)]
	if !ok {
		return "", false
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Table: %s\nColumns:\n", strings.ToLower(table)))
	for _, c := range cols {
		sb.WriteString(fmt.Sprintf("  %s %s", c.Name, c.Type))
		if c.PrimaryKey {
			sb.WriteString(" PRIMARY KEY")
		}
		if c.References != "" {
			sb.WriteString(" REFERENCES " + c.References)
		}
		if c.Description != "" {
			sb.WriteString(" -- " + c.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String(), true
}

// BaseType lowercases a declared type and strips precision arguments.
func BaseType(declared string) string {
	t := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(t, '('); i != -1 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}
