package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bpmforge/bpmgen/llm"
	"github.com/bpmforge/bpmgen/utils"
)

var (
	pool     *pgxpool.Pool
	poolOnce sync.Once
	poolErr  error
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// getPool returns a singleton connection pool for the application.
func getPool(urlEnv string) (*pgxpool.Pool, error) {
	poolOnce.Do(func() {
		utils.LoadEnv()
		connStr, err := utils.GetDatabaseURL(urlEnv)
		if err != nil {
			poolErr = err
			return
		}

		ctx := context.Background()
		pool, poolErr = pgxpool.New(ctx, connStr)
		if poolErr != nil {
			poolErr = fmt.Errorf("unable to create connection pool: %v", poolErr)
			return
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			pool = nil
			poolErr = fmt.Errorf("unable to ping database: %v", err)
			return
		}
	})

	return pool, poolErr
}

// ClosePool closes the connection pool (should be called on application shutdown).
func ClosePool() {
	if pool != nil {
		pool.Close()
	}
}

// PostgresStore persists generated rows as one (id, table_name, payload)
// record per row in a single jsonb-backed table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const createRowsTable = `
CREATE TABLE IF NOT EXISTS generated_rows (
    id         TEXT NOT NULL,
    table_name TEXT NOT NULL,
    payload    JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// NewPostgresStore connects using the connection string named by urlEnv
// and makes sure the backing table exists.
func NewPostgresStore(ctx context.Context, urlEnv string) (*PostgresStore, error) {
	p, err := getPool(urlEnv)
	if err != nil {
		return nil, err
	}
	if _, err := p.Exec(ctx, createRowsTable); err != nil {
		return nil, fmt.Errorf("creating generated_rows table: %v", err)
	}
	return &PostgresStore{pool: p}, nil
}

func (s *PostgresStore) InsertRows(ctx context.Context, table string, rows []llm.Row) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(rows))
	builder := psql.Insert("generated_rows").Columns("id", "table_name", "payload")
	for _, row := range rows {
		id := rowID(table, row)
		payload, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("encoding row for table '%s': %v", table, err)
		}
		builder = builder.Values(id, table, payload)
		ids = append(ids, id)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert for table '%s': %v", table, err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("inserting rows into table '%s': %v", table, err)
	}
	return ids, nil
}

func (s *PostgresStore) FetchAll(ctx context.Context, tables []string) (map[string][]llm.Row, error) {
	builder := psql.Select("table_name", "payload").From("generated_rows").OrderBy("created_at")
	if len(tables) > 0 {
		builder = builder.Where(sq.Eq{"table_name": tables})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %v", err)
	}
	dbRows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching rows: %v", err)
	}
	defer dbRows.Close()

	out := map[string][]llm.Row{}
	for dbRows.Next() {
		var tableName string
		var payload []byte
		if err := dbRows.Scan(&tableName, &payload); err != nil {
			return nil, fmt.Errorf("scanning row: %v", err)
		}
		row := llm.Row{}
		if err := json.Unmarshal(payload, &row); err != nil {
			return nil, fmt.Errorf("decoding row payload for table '%s': %v", tableName, err)
		}
		out[tableName] = append(out[tableName], row)
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %v", err)
	}
	return out, nil
}
