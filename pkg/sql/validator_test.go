package sql

import (
	"strings"
	"testing"

	"github.com/dbquery-io/dbquery-engine/pkg/apperrors"
)

func TestValidate_InjectsDefaultLimit(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"simple select", "SELECT * FROM users"},
		{"select with where", "SELECT id, name FROM users WHERE active = true"},
		{"select with order by", "SELECT id FROM events ORDER BY created_at DESC"},
		{"select with trailing semicolon", "SELECT * FROM users;"},
		{"select with trailing comment", "SELECT * FROM users -- all of them"},
		{"lowercase", "select id from users"},
		{"cte", "WITH recent AS (SELECT * FROM orders WHERE created_at > now() - interval '1 day') SELECT * FROM recent"},
		{"union", "SELECT id FROM a UNION SELECT id FROM b"},
		{"aggregate", "SELECT count(*) FROM users GROUP BY region"},
		{"limit all", "SELECT * FROM users LIMIT ALL"},
		{"limit null", "SELECT * FROM users LIMIT NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := Validate(tt.sql)
			if err != nil {
				t.Fatalf("Validate(%q) returned error: %v", tt.sql, err)
			}
			if !stmt.LimitApplied {
				t.Errorf("expected LimitApplied=true for %q", tt.sql)
			}
			if !strings.Contains(stmt.SQL, "LIMIT 1000") {
				t.Errorf("expected LIMIT 1000 in %q", stmt.SQL)
			}
			if strings.Contains(stmt.SQL, ";") {
				t.Errorf("bounded statement should not contain a semicolon: %q", stmt.SQL)
			}
		})
	}
}

func TestValidate_PreservesExplicitLimit(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"small limit", "SELECT * FROM users LIMIT 5", "SELECT * FROM users LIMIT 5"},
		{"limit above default", "SELECT * FROM users LIMIT 50000", "SELECT * FROM users LIMIT 50000"},
		{"limit with offset", "SELECT * FROM users LIMIT 10 OFFSET 20", "SELECT * FROM users LIMIT 10 OFFSET 20"},
		{"fetch first", "SELECT * FROM users FETCH FIRST 25 ROWS ONLY", "SELECT * FROM users FETCH FIRST 25 ROWS ONLY"},
		{"semicolon stripped", "SELECT * FROM users LIMIT 5;", "SELECT * FROM users LIMIT 5"},
		{"semicolon with trailing space", "SELECT * FROM users LIMIT 5 ;  ", "SELECT * FROM users LIMIT 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := Validate(tt.sql)
			if err != nil {
				t.Fatalf("Validate(%q) returned error: %v", tt.sql, err)
			}
			if stmt.LimitApplied {
				t.Errorf("expected LimitApplied=false for %q", tt.sql)
			}
			if stmt.SQL != tt.want {
				t.Errorf("Validate(%q) = %q, want %q", tt.sql, stmt.SQL, tt.want)
			}
		})
	}
}

func TestValidate_RejectsNonSelect(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		wantType string
	}{
		{"insert", "INSERT INTO users (name) VALUES ('x')", "INSERT"},
		{"update", "UPDATE users SET name = 'x' WHERE id = 1", "UPDATE"},
		{"delete", "DELETE FROM users WHERE id = 1", "DELETE"},
		{"delete lowercase", "delete from users", "DELETE"},
		{"truncate", "TRUNCATE users", "TRUNCATE"},
		{"drop", "DROP TABLE users", "DROP"},
		{"alter", "ALTER TABLE users ADD COLUMN age int", "ALTER"},
		{"create table", "CREATE TABLE t (id int)", "CREATE"},
		{"create table as", "CREATE TABLE t AS SELECT * FROM users", "CREATE"},
		{"create index", "CREATE INDEX idx ON users (name)", "CREATE"},
		{"merge", "MERGE INTO users u USING staged s ON u.id = s.id WHEN MATCHED THEN UPDATE SET name = s.name", "MERGE"},
		{"explain", "EXPLAIN SELECT * FROM users", "EXPLAIN"},
		{"explain analyze", "EXPLAIN ANALYZE SELECT * FROM users", "EXPLAIN"},
		{"begin", "BEGIN", "TRANSACTION"},
		{"copy", "COPY users TO STDOUT", "COPY"},
		{"grant", "GRANT SELECT ON users TO joe", "GRANT"},
		{"set", "SET search_path TO public", "SET"},
		{"select into", "SELECT * INTO backup FROM users", "SELECT INTO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.sql)
			if err == nil {
				t.Fatalf("expected error for %q", tt.sql)
			}
			if !apperrors.Is(err, apperrors.KindNotReadOnly) {
				t.Errorf("expected NOT_READ_ONLY for %q, got %s", tt.sql, apperrors.KindOf(err))
			}
			if !strings.Contains(err.Error(), tt.wantType) {
				t.Errorf("error %q should name statement type %s", err.Error(), tt.wantType)
			}
		})
	}
}

func TestValidate_RejectsMultipleStatements(t *testing.T) {
	tests := []string{
		"SELECT 1; SELECT 2",
		"SELECT * FROM users; DELETE FROM users",
		"SELECT 1; DROP TABLE users;",
	}

	for _, sql := range tests {
		_, err := Validate(sql)
		if err == nil {
			t.Fatalf("expected error for %q", sql)
		}
		if !apperrors.Is(err, apperrors.KindNotReadOnly) {
			t.Errorf("expected NOT_READ_ONLY for %q, got %s", sql, apperrors.KindOf(err))
		}
		if !strings.Contains(err.Error(), "multiple statements") {
			t.Errorf("error %q should mention multiple statements", err.Error())
		}
	}
}

func TestValidate_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t  "},
		{"comment only", "-- nothing here"},
		{"garbage", "SELEKT * FORM users"},
		{"unterminated string", "SELECT 'oops FROM users"},
		{"dangling keyword", "SELECT FROM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.sql)
			if err == nil {
				t.Fatalf("expected error for %q", tt.sql)
			}
			if !apperrors.Is(err, apperrors.KindSyntax) {
				t.Errorf("expected SYNTAX_ERROR for %q, got %s", tt.sql, apperrors.KindOf(err))
			}
		})
	}
}

func TestValidate_SemicolonInStringLiteral(t *testing.T) {
	stmt, err := Validate("SELECT * FROM users WHERE note = 'a;b'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stmt.LimitApplied {
		t.Error("expected LIMIT to be applied")
	}
	if !strings.Contains(stmt.SQL, "a;b") {
		t.Errorf("string literal should survive deparse: %q", stmt.SQL)
	}
}

func TestStripTrailingSemicolon(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT 1;", "SELECT 1"},
		{"SELECT 1 ;  ", "SELECT 1"},
		{"SELECT 1;\n", "SELECT 1"},
	}

	for _, tt := range tests {
		if got := stripTrailingSemicolon(tt.in); got != tt.want {
			t.Errorf("stripTrailingSemicolon(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
