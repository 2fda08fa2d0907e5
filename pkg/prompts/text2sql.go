// Package prompts builds the prompts sent to the generation service.
package prompts

import (
	"fmt"
	"strings"

	"github.com/dbquery-io/dbquery-engine/pkg/models"
)

// Text2SQLSystem is the system message for natural-language queries.
// The model is asked not to emit a LIMIT; the engine enforces its own
// row bound after validation.
const Text2SQLSystem = `You are a PostgreSQL query generator. Given a database schema and a question, respond with a single PostgreSQL SELECT statement that answers the question.

Rules:
- Respond with exactly one SELECT statement inside a ` + "```sql" + ` code block.
- Use only tables and columns that appear in the schema.
- Never modify data: no INSERT, UPDATE, DELETE, DDL, or EXPLAIN.
- Do not add a LIMIT clause unless the question asks for a specific number of rows.
- If the question cannot be answered from the schema, say so in plain text instead of guessing.`

// maxSchemaTables bounds the schema context so a very wide database
// cannot blow the prompt budget.
const maxSchemaTables = 100

// BuildText2SQLPrompt renders the user prompt: the schema context
// followed by the question.
func BuildText2SQLPrompt(snapshot *models.SchemaSnapshot, question string) string {
	var b strings.Builder

	b.WriteString("Database schema:\n\n")
	b.WriteString(BuildSchemaContext(snapshot))
	b.WriteString("\nQuestion: ")
	b.WriteString(question)

	return b.String()
}

// BuildSchemaContext renders a snapshot as compact DDL-like text:
// tables with columns, types, nullability and primary keys. Row counts
// are deliberately omitted; they are volatile and the model does not
// need them.
func BuildSchemaContext(snapshot *models.SchemaSnapshot) string {
	var b strings.Builder

	tables := snapshot.Tables
	truncated := false
	if len(tables) > maxSchemaTables {
		tables = tables[:maxSchemaTables]
		truncated = true
	}

	for _, table := range tables {
		writeRelation(&b, "TABLE", table.Name, table.Columns, table.PrimaryKey)
	}
	for _, view := range snapshot.Views {
		writeRelation(&b, "VIEW", view.Name, view.Columns, nil)
	}
	if truncated {
		fmt.Fprintf(&b, "-- %d more tables omitted\n", len(snapshot.Tables)-maxSchemaTables)
	}

	return b.String()
}

func writeRelation(b *strings.Builder, kind, name string, columns []models.ColumnInfo, primaryKey []string) {
	fmt.Fprintf(b, "%s %s (\n", kind, name)
	for _, col := range columns {
		fmt.Fprintf(b, "  %s %s", col.Name, col.DataType)
		if !col.Nullable {
			b.WriteString(" NOT NULL")
		}
		b.WriteString("\n")
	}
	if len(primaryKey) > 0 {
		fmt.Fprintf(b, "  PRIMARY KEY (%s)\n", strings.Join(primaryKey, ", "))
	}
	b.WriteString(")\n\n")
}
