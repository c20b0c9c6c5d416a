package model

import (
	"fmt"
	"time"
)

// ColumnType is the storage class of a column.
type ColumnType int

const (
	// Text columns hold UTF-8 strings.
	Text ColumnType = iota + 1
	// Real columns hold float64 values.
	Real
	// Timestamp columns hold UTC Unix nanoseconds.
	Timestamp
)

// SQL returns the SQLite type name for the column type.
func (t ColumnType) SQL() string {
	switch t {
	case Text:
		return "TEXT"
	case Real:
		return "REAL"
	case Timestamp:
		return "INTEGER"
	default:
		return "BLOB"
	}
}

func (t ColumnType) String() string {
	switch t {
	case Text:
		return "text"
	case Real:
		return "real"
	case Timestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Reference names the column a foreign key points at.
type Reference struct {
	Table  string
	Column string
}

// Column declares one stored field of a record.
//
// Label is a human-readable description. It has no runtime effect; it is
// written into the table DDL as a comment and surfaced by `conclave schema`.
type Column struct {
	Name       string
	Type       ColumnType
	Label      string
	PrimaryKey bool
	NotNull    bool
	References *Reference
}

// Index declares a secondary index on a table.
type Index struct {
	Name    string
	Columns []string
}

// Table declares the columns of one record type in storage order.
type Table struct {
	Name    string
	Label   string
	Columns []Column
	Indexes []Index
}

// PrimaryKey returns the names of the primary key columns.
func (t *Table) PrimaryKey() []string {
	var keys []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// KeyColumn returns the single generated key column, or "" when the table
// uses a composite key.
func (t *Table) KeyColumn() string {
	keys := t.PrimaryKey()
	if len(keys) != 1 {
		return ""
	}
	return keys[0]
}

// ColumnNames returns the column names in storage order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Record is implemented by every persisted entity.
//
// Values must return one value per Descriptor().Columns entry, in order.
type Record interface {
	Descriptor() *Table
	Key() string
	SetKey(id string)
	ApplyDefaults(now time.Time)
	Values() []any
}

// Suffixed is implemented by records whose display name carries a random
// disambiguating suffix drawn at construction.
type Suffixed interface {
	Record
	NameColumn() string
	DisplayName() string
	ApplySuffix(suffix string)
}

// Registry holds the table descriptors of every entity, in declaration order.
type Registry struct {
	tables []*Table
	byName map[string]*Table
}

// NewRegistry creates a registry from the given tables.
// Panics on duplicate table names, which is a programming error.
func NewRegistry(tables ...*Table) *Registry {
	r := &Registry{byName: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a table descriptor.
func (r *Registry) Register(t *Table) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("register table: name is required")
	}
	if _, exists := r.byName[t.Name]; exists {
		return fmt.Errorf("register table: %q already registered", t.Name)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("register table %q: no columns", t.Name)
	}
	r.tables = append(r.tables, t)
	r.byName[t.Name] = t
	return nil
}

// Tables returns the registered tables in declaration order.
func (r *Registry) Tables() []*Table {
	out := make([]*Table, len(r.tables))
	copy(out, r.tables)
	return out
}

// Lookup returns the table with the given name.
func (r *Registry) Lookup(name string) (*Table, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Len returns the number of registered tables.
func (r *Registry) Len() int {
	return len(r.tables)
}

// DefaultRegistry returns the registry of the conversation store entities.
// Referenced tables are declared before the tables that reference them.
func DefaultRegistry() *Registry {
	return NewRegistry(AgentTable, MeetingTable, ChatTable, MembershipTable)
}
