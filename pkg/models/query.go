package models

// QueryRequest is the body of POST /api/v1/dbs/{name}/query.
type QueryRequest struct {
	SQL string `json:"sql"`
}

// NaturalLanguageRequest is the body of POST /api/v1/dbs/{name}/query/natural.
type NaturalLanguageRequest struct {
	Prompt string `json:"prompt"`
}

// ResultSet is the tabular outcome of an executed query. Every row has
// exactly len(Columns) cells and RowCount equals len(Rows).
type ResultSet struct {
	Columns         []string      `json:"columns"`
	Rows            [][]CellValue `json:"rows"`
	RowCount        int           `json:"rowCount"`
	ExecutionTimeMs int64         `json:"executionTimeMs"`
}
