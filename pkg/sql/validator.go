// Package sql validates and normalizes user-submitted SQL before it is
// allowed anywhere near a database. Statements are parsed with
// PostgreSQL's own parser (via pg_query), classified, and bounded: only
// a single SELECT survives validation, and a SELECT without an explicit
// LIMIT gets one injected at the AST level.
package sql

import (
	"errors"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	pg_query_parser "github.com/pganalyze/pg_query_go/v6/parser"

	"github.com/dbquery-io/dbquery-engine/pkg/apperrors"
)

// DefaultRowLimit is appended to any SELECT that does not carry its own
// LIMIT or FETCH FIRST clause. An explicit limit is never lowered, even
// above this value.
const DefaultRowLimit = 1000

// ValidatedStatement is the outcome of successful validation: the exact
// SQL text to execute, with a row bound guaranteed present.
type ValidatedStatement struct {
	// SQL is the execution-ready statement text.
	SQL string
	// LimitApplied is true when the engine injected the default LIMIT.
	LimitApplied bool
}

// Validate parses raw SQL, rejects anything that is not a single
// read-only SELECT, and guarantees a row bound.
//
// Classification rules:
//   - unparseable input (including empty input) -> SYNTAX_ERROR
//   - more than one statement -> NOT_READ_ONLY
//   - any root other than a plain SELECT (INSERT, UPDATE, DELETE, DDL,
//     EXPLAIN, transaction wrappers, SELECT INTO, ...) -> NOT_READ_ONLY
//
// Bounding rules:
//   - a SELECT with its own LIMIT or FETCH FIRST is returned textually
//     unchanged (trailing semicolon stripped)
//   - otherwise LIMIT 1000 is attached to the statement's AST and the
//     tree is deparsed, so trailing comments or odd whitespace cannot
//     defeat the bound
func Validate(rawSQL string) (*ValidatedStatement, error) {
	trimmed := strings.TrimSpace(rawSQL)
	if trimmed == "" {
		return nil, apperrors.New(apperrors.KindSyntax, "empty SQL statement")
	}

	result, err := pg_query.Parse(trimmed)
	if err != nil {
		return nil, syntaxError(err)
	}

	if len(result.Stmts) == 0 {
		// Comment-only input parses to zero statements.
		return nil, apperrors.New(apperrors.KindSyntax, "empty SQL statement")
	}
	if len(result.Stmts) > 1 {
		return nil, apperrors.New(apperrors.KindNotReadOnly,
			"multiple statements not allowed; provide a single SELECT statement")
	}

	stmt := result.Stmts[0].Stmt
	sel := stmt.GetSelectStmt()
	if sel == nil {
		return nil, apperrors.New(apperrors.KindNotReadOnly,
			"only SELECT statements are allowed, got %s", statementType(stmt))
	}
	if sel.IntoClause != nil {
		// SELECT INTO creates a table.
		return nil, apperrors.New(apperrors.KindNotReadOnly,
			"only SELECT statements are allowed, got SELECT INTO")
	}

	if hasExplicitLimit(sel) {
		return &ValidatedStatement{SQL: stripTrailingSemicolon(trimmed)}, nil
	}

	sel.LimitCount = pg_query.MakeAConstIntNode(DefaultRowLimit, -1)
	sel.LimitOption = pg_query.LimitOption_LIMIT_OPTION_COUNT

	bounded, err := pg_query.Deparse(result)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindSyntax, err,
			"failed to serialize bounded statement: %v", err)
	}

	return &ValidatedStatement{SQL: bounded, LimitApplied: true}, nil
}

// hasExplicitLimit reports whether the top-level SELECT already bounds
// its result. LIMIT n and FETCH FIRST n ROWS [WITH TIES] both populate
// LimitCount; for set operations (UNION etc.) the bound lives on the
// outermost node, which is the one we receive. LIMIT ALL parses as a
// null constant and bounds nothing, so it does not count.
func hasExplicitLimit(sel *pg_query.SelectStmt) bool {
	if sel.LimitCount == nil {
		return false
	}
	if c := sel.LimitCount.GetAConst(); c != nil && c.GetIsnull() {
		return false
	}
	return true
}

// syntaxError converts a pg_query parse failure, carrying the parser's
// message and, when available, the 1-based character position.
func syntaxError(err error) error {
	var parseErr *pg_query_parser.Error
	if errors.As(err, &parseErr) {
		e := apperrors.Wrap(apperrors.KindSyntax, err, "invalid SQL syntax: %s", parseErr.Message)
		if parseErr.Cursorpos > 0 {
			e.WithDetail("position", parseErr.Cursorpos)
		}
		return e
	}
	return apperrors.Wrap(apperrors.KindSyntax, err, "invalid SQL syntax: %v", err)
}

// statementType names the root of a rejected statement for the error
// message.
func statementType(stmt *pg_query.Node) string {
	switch {
	case stmt.GetInsertStmt() != nil:
		return "INSERT"
	case stmt.GetUpdateStmt() != nil:
		return "UPDATE"
	case stmt.GetDeleteStmt() != nil:
		return "DELETE"
	case stmt.GetMergeStmt() != nil:
		return "MERGE"
	case stmt.GetTruncateStmt() != nil:
		return "TRUNCATE"
	case stmt.GetDropStmt() != nil:
		return "DROP"
	case stmt.GetAlterTableStmt() != nil:
		return "ALTER"
	case stmt.GetCreateStmt() != nil, stmt.GetCreateTableAsStmt() != nil,
		stmt.GetIndexStmt() != nil, stmt.GetViewStmt() != nil:
		return "CREATE"
	case stmt.GetExplainStmt() != nil:
		return "EXPLAIN"
	case stmt.GetTransactionStmt() != nil:
		return "TRANSACTION"
	case stmt.GetCopyStmt() != nil:
		return "COPY"
	case stmt.GetGrantStmt() != nil:
		return "GRANT"
	case stmt.GetVariableSetStmt() != nil:
		return "SET"
	case stmt.GetCallStmt() != nil:
		return "CALL"
	default:
		return "a non-SELECT statement"
	}
}

// stripTrailingSemicolon removes a trailing semicolon and surrounding
// whitespace. The parser has already guaranteed a single statement, so
// at most one can be present.
func stripTrailingSemicolon(sqlText string) string {
	sqlText = strings.TrimRight(sqlText, " \t\n\r")
	if strings.HasSuffix(sqlText, ";") {
		sqlText = strings.TrimRight(strings.TrimSuffix(sqlText, ";"), " \t\n\r")
	}
	return sqlText
}
