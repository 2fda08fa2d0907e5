package models

import "time"

// SchemaSnapshot is a cached description of one connection's tables and
// views. Snapshots are internally consistent: every primary-key column
// named by a table appears in that table's column list.
type SchemaSnapshot struct {
	DBName    string      `json:"dbName"`
	Tables    []TableInfo `json:"tables"`
	Views     []ViewInfo  `json:"views"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// TableInfo describes one base table. RowCount is best-effort and nil
// when counting failed or was skipped.
type TableInfo struct {
	Name       string       `json:"name"`
	Columns    []ColumnInfo `json:"columns"`
	PrimaryKey []string     `json:"primaryKey,omitempty"`
	RowCount   *int64       `json:"rowCount,omitempty"`
}

// ViewInfo describes one view.
type ViewInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}

// ColumnInfo describes one column of a table or view.
type ColumnInfo struct {
	Name         string  `json:"name"`
	DataType     string  `json:"dataType"`
	Nullable     bool    `json:"nullable"`
	DefaultValue *string `json:"defaultValue,omitempty"`
}
