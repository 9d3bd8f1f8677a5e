package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/insightdb/insightdb/internal/models"
	"github.com/insightdb/insightdb/internal/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver
	"github.com/rs/zerolog/log"
)

// Postgres is the execution adapter: it runs gate-approved read queries
// and introspects the schema at startup. It is the only component that
// talks to the database.
type Postgres struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// New opens a pooled connection to the database and verifies it.
func New(ctx context.Context, dsn string, maxOpenConns, queryTimeoutMs int) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}

	return NewWithDB(db, queryTimeoutMs), nil
}

// NewWithDB wraps an existing *sql.DB. Used by tests with sqlmock.
func NewWithDB(db *sql.DB, queryTimeoutMs int) *Postgres {
	if queryTimeoutMs <= 0 {
		queryTimeoutMs = 60000
	}
	return &Postgres{
		db:           db,
		queryTimeout: time.Duration(queryTimeoutMs) * time.Millisecond,
	}
}

// Close releases the connection pool.
func (s *Postgres) Close() error {
	return s.db.Close()
}

// TestConnection verifies database connectivity.
func (s *Postgres) TestConnection(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// QueryResult holds columns and rows from a query execution.
type QueryResult struct {
	Columns         []string
	Rows            []models.Row
	ExecutionTimeMs int64
}

// ExecuteQuery runs exactly the given SQL and returns column names paired
// with row values. Driver errors are returned verbatim, wrapped; no
// partial result is ever produced alongside an error.
func (s *Postgres) ExecuteQuery(ctx context.Context, sqlText string) (*QueryResult, error) {
	qCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	start := time.Now()
	rows, err := s.db.QueryContext(qCtx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []models.Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(models.Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &QueryResult{
		Columns:         columns,
		Rows:            out,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// normalizeValue converts driver byte slices to strings so rows marshal
// as text rather than base64.
func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

const columnsQuery = `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = 'public'
ORDER BY table_name, ordinal_position`

const primaryKeysQuery = `
SELECT kcu.table_name, kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema = kcu.table_schema
WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = 'public'`

const foreignKeysQuery = `
SELECT kcu.table_name, kcu.column_name, ccu.table_name, ccu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON tc.constraint_name = ccu.constraint_name
 AND tc.table_schema = ccu.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = 'public'`

// IntrospectSchema reads table, column, and key metadata from
// information_schema and builds the immutable registry descriptor.
func (s *Postgres) IntrospectSchema(ctx context.Context) (*schema.Descriptor, error) {
	qCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	tables := make(map[string][]schema.Column)
	var order []string

	rows, err := s.db.QueryContext(qCtx, columnsQuery)
	if err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			return nil, fmt.Errorf("introspect scan: %w", err)
		}
		if _, seen := tables[table]; !seen {
			order = append(order, table)
		}
		tables[table] = append(tables[table], schema.Column{Name: column, Type: dataType})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("introspect rows: %w", err)
	}

	// Key metadata is best-effort: the registry is still usable without it.
	if err := s.annotatePrimaryKeys(qCtx, tables); err != nil {
		log.Warn().Err(err).Msg("primary key introspection failed")
	}
	if err := s.annotateForeignKeys(qCtx, tables); err != nil {
		log.Warn().Err(err).Msg("foreign key introspection failed")
	}

	log.Info().Int("tables", len(order)).Msg("schema introspected")
	return schema.NewDescriptor(order, tables), nil
}

func (s *Postgres) annotatePrimaryKeys(ctx context.Context, tables map[string][]schema.Column) error {
	rows, err := s.db.QueryContext(ctx, primaryKeysQuery)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return err
		}
		markColumn(tables, table, column, func(c *schema.Column) { c.PrimaryKey = true })
	}
	return rows.Err()
}

func (s *Postgres) annotateForeignKeys(ctx context.Context, tables map[string][]schema.Column) error {
	rows, err := s.db.QueryContext(ctx, foreignKeysQuery)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var table, column, refTable, refColumn string
		if err := rows.Scan(&table, &column, &refTable, &refColumn); err != nil {
			return err
		}
		ref := refTable + "." + refColumn
		markColumn(tables, table, column, func(c *schema.Column) { c.References = ref })
	}
	return rows.Err()
}

func markColumn(tables map[string][]schema.Column, table, column string, mark func(*schema.Column)) {
	cols := tables[table]
	for i := range cols {
		if cols[i].Name == column {
			mark(&cols[i])
			return
		}
	}
}
