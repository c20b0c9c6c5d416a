package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/conclave/internal/model"
)

// SchemaColumn describes one column in the schema command's JSON output.
type SchemaColumn struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Label      string `json:"label"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
	NotNull    bool   `json:"not_null,omitempty"`
	References string `json:"references,omitempty"`
}

// SchemaTable describes one table in the schema command's JSON output.
type SchemaTable struct {
	Name    string         `json:"name"`
	Label   string         `json:"label"`
	Columns []SchemaColumn `json:"columns"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the tables, columns and labels of the store schema",
		Long: `Print every table of the store schema in declaration order with each
column's storage type, constraints and label. No store is opened.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.resolve(cmd.ErrOrStderr()); err != nil {
				return err
			}
			return writeSchema(rootOpts.formatter(cmd), model.DefaultRegistry())
		},
	}
}

func writeSchema(out *OutputFormatter, registry *model.Registry) error {
	tables := registry.Tables()
	data := make([]SchemaTable, 0, len(tables))
	for _, t := range tables {
		st := SchemaTable{Name: t.Name, Label: t.Label}
		for _, c := range t.Columns {
			sc := SchemaColumn{
				Name:       c.Name,
				Type:       c.Type.SQL(),
				Label:      c.Label,
				PrimaryKey: c.PrimaryKey,
				NotNull:    c.NotNull,
			}
			if c.References != nil {
				sc.References = c.References.Table + "." + c.References.Column
			}
			st.Columns = append(st.Columns, sc)
		}
		data = append(data, st)
	}

	return out.Emit(data, func(w io.Writer) error {
		for i, t := range data {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s: %s\n", t.Name, t.Label)
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			for _, c := range t.Columns {
				fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", c.Name, c.Type, constraints(c), c.Label)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
		return nil
	})
}

func constraints(c SchemaColumn) string {
	switch {
	case c.PrimaryKey:
		return "PK"
	case c.References != "":
		return "-> " + c.References
	case c.NotNull:
		return "NOT NULL"
	default:
		return ""
	}
}
