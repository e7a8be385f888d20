package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// QueryError is returned when the database rejects an ad-hoc statement.
// Failures unrelated to the statement (lost connection, scan errors) are
// returned as ordinary errors.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string { return e.Err.Error() }

func (e *QueryError) Unwrap() error { return e.Err }

// Column describes one table column for schema browsing.
type Column struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	NotNull bool   `json:"notnull"`
	PK      bool   `json:"pk"`
}

// QueryRunner executes caller-supplied SQL against the analysis database.
// Statements are passed through unmodified; restrict access with database
// permissions on the configured user.
type QueryRunner struct {
	db *DB
}

// NewQueryRunner creates a query runner over db.
func NewQueryRunner(db *DB) *QueryRunner {
	return &QueryRunner{db: db}
}

// Run executes query and returns each row as a column name to value map.
// Byte values are returned as strings.
func (q *QueryRunner) Run(ctx context.Context, query string) ([]map[string]interface{}, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyQueryError(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	results := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, rowMap(columns, values))
	}

	if err := rows.Err(); err != nil {
		return nil, classifyQueryError(err)
	}

	return results, nil
}

// Schema returns the columns of every table in the public schema, keyed by table name.
func (q *QueryRunner) Schema(ctx context.Context) (map[string][]Column, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT c.table_name, c.column_name, c.data_type, c.is_nullable = 'NO',
		        EXISTS (
		            SELECT 1
		            FROM information_schema.table_constraints tc
		            JOIN information_schema.key_column_usage kcu
		              ON tc.constraint_name = kcu.constraint_name
		             AND tc.table_schema = kcu.table_schema
		            WHERE tc.constraint_type = 'PRIMARY KEY'
		              AND tc.table_schema = c.table_schema
		              AND tc.table_name = c.table_name
		              AND kcu.column_name = c.column_name
		        )
		 FROM information_schema.columns c
		 JOIN information_schema.tables t
		   ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		 WHERE c.table_schema = 'public' AND t.table_type = 'BASE TABLE'
		 ORDER BY c.table_name, c.ordinal_position`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query schema: %w", err)
	}
	defer rows.Close()

	schema := make(map[string][]Column)
	for rows.Next() {
		var table string
		var col Column
		if err := rows.Scan(&table, &col.Name, &col.Type, &col.NotNull, &col.PK); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		schema[table] = append(schema[table], col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schema: %w", err)
	}

	return schema, nil
}

// rowMap pairs column names with scanned values.
func rowMap(columns []string, values []interface{}) map[string]interface{} {
	row := make(map[string]interface{}, len(columns))
	for i, name := range columns {
		if b, ok := values[i].([]byte); ok {
			row[name] = string(b)
			continue
		}
		row[name] = values[i]
	}
	return row
}

// classifyQueryError wraps statement errors reported by the server in a QueryError.
func classifyQueryError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() != "08" {
		return &QueryError{Err: err}
	}
	return fmt.Errorf("failed to run query: %w", err)
}
