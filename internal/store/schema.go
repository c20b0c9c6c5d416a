package store

import (
	"fmt"
	"strings"

	"github.com/roach88/conclave/internal/model"
)

// createTableSQL renders the DDL for one table descriptor. Column labels are
// written as SQL comments; SQLite keeps them in sqlite_master.
func createTableSQL(t *model.Table) string {
	var b strings.Builder

	if t.Label != "" {
		fmt.Fprintf(&b, "-- %s\n", commentText(t.Label))
	}
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", t.Name)

	keys := t.PrimaryKey()
	lines := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		var line strings.Builder
		if c.Label != "" {
			fmt.Fprintf(&line, "    -- %s\n", commentText(c.Label))
		}
		fmt.Fprintf(&line, "    %s %s", c.Name, c.Type.SQL())
		if c.PrimaryKey && len(keys) == 1 {
			line.WriteString(" PRIMARY KEY")
		}
		if c.NotNull || c.PrimaryKey {
			line.WriteString(" NOT NULL")
		}
		if c.References != nil {
			fmt.Fprintf(&line, " REFERENCES %s(%s)", c.References.Table, c.References.Column)
		}
		lines = append(lines, line.String())
	}
	if len(keys) > 1 {
		lines = append(lines, fmt.Sprintf("    PRIMARY KEY (%s)", strings.Join(keys, ", ")))
	}

	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")
	return b.String()
}

// createIndexSQL renders the DDL for one secondary index.
func createIndexSQL(t *model.Table, idx model.Index) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)",
		idx.Name, t.Name, strings.Join(idx.Columns, ", "))
}

// insertSQL renders an INSERT of every column of t.
func insertSQL(t *model.Table) string {
	cols := t.ColumnNames()
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, strings.Join(cols, ", "), marks)
}

func commentText(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
