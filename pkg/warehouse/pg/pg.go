// Package pg is the default Store adapter for the warehouse port: a direct
// jackc/pgx/v5 connection pool with jmoiron/sqlx for row scanning and
// golang-migrate/migrate/v4 for schema management. There is no generated
// ORM client here — see DESIGN.md for why entgo.io/ent was dropped.
package pg

import (
	"context"
	stdsql "database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/adintel/compintel/pkg/warehouse"
)

//go:embed migrations
var migrationsFS embed.FS

// Config holds connection settings for Store.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store is the pgx/sqlx-backed warehouse.Store implementation.
type Store struct {
	db *sqlx.DB
}

// NewStore opens a connection pool against cfg.DSN and applies pending
// migrations before returning.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	sqlDB, err := stdsql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening warehouse connection: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("pinging warehouse: %w", err)
	}

	if err := runMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("applying warehouse migrations: %w", err)
	}

	return &Store{db: sqlx.NewDb(sqlDB, "pgx")}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func runMigrations(db *stdsql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("creating postgres migration driver: %w", err)
	}
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("reading embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "pgx", driver)
	if err != nil {
		return fmt.Errorf("constructing migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// sqlType maps a ColumnDef's warehouse-native type name to a Postgres
// column type.
func sqlType(t string) string {
	switch t {
	case "text":
		return "TEXT"
	case "float8":
		return "DOUBLE PRECISION"
	case "int":
		return "INTEGER"
	case "bool":
		return "BOOLEAN"
	case "timestamptz":
		return "TIMESTAMPTZ"
	case "jsonb":
		return "JSONB"
	case "float8[]":
		return "DOUBLE PRECISION[]"
	case "text[]":
		return "TEXT[]"
	default:
		return "TEXT"
	}
}

// EnsureTable creates table if it does not already exist, with the given
// columns. Table and column names are caller-supplied identifiers (stage
// code, not end-user input) quoted defensively before being interpolated.
func (s *Store) EnsureTable(ctx context.Context, table string, columns []warehouse.ColumnDef) error {
	cols := make([]string, 0, len(columns)+1)
	cols = append(cols, `"id" SERIAL PRIMARY KEY`)
	for _, c := range columns {
		nullability := "NOT NULL"
		if c.Nullable {
			nullability = ""
		}
		cols = append(cols, fmt.Sprintf(`%q %s %s`, c.Name, sqlType(c.Type), nullability))
	}

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (%s);`, table, strings.Join(cols, ", "))
	_, err := s.db.ExecContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("ensuring table %q: %w", table, err)
	}
	return nil
}

// Insert bulk-inserts rows into table via a single multi-row INSERT.
func (s *Store) Insert(ctx context.Context, table string, rows []warehouse.Row) error {
	if len(rows) == 0 {
		return nil
	}

	columns := columnOrder(rows[0])
	var placeholders []string
	var args []any
	idx := 1
	for _, row := range rows {
		ph := make([]string, len(columns))
		for i, col := range columns {
			ph[i] = fmt.Sprintf("$%d", idx)
			args = append(args, row[col])
			idx++
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")
	}

	quotedCols := make([]string, len(columns))
	for i, c := range columns {
		quotedCols[i] = fmt.Sprintf("%q", c)
	}

	stmt := fmt.Sprintf(`INSERT INTO %q (%s) VALUES %s;`,
		table, strings.Join(quotedCols, ", "), strings.Join(placeholders, ", "))

	_, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("inserting into %q: %w", table, err)
	}
	return nil
}

// Query renders query.TemplateName through the caller-provided registry
// result (already-rendered SQL passed via query.Params["__sql"]) and scans
// the result into []warehouse.Row using sqlx's map scanning.
func (s *Store) Query(ctx context.Context, query warehouse.Query) ([]warehouse.Row, error) {
	sqlText, ok := query.Params["__sql"].(string)
	if !ok {
		return nil, fmt.Errorf("pg.Store.Query: expected pre-rendered SQL in Params[\"__sql\"] from querytpl.Registry")
	}

	rows, err := s.db.QueryxContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", query.TemplateName, err)
	}
	defer rows.Close()

	var out []warehouse.Row
	for rows.Next() {
		m := make(map[string]any)
		if err := rows.MapScan(m); err != nil {
			return nil, fmt.Errorf("scanning row for %q: %w", query.TemplateName, err)
		}
		out = append(out, warehouse.Row(m))
	}
	return out, rows.Err()
}

func columnOrder(row warehouse.Row) []string {
	cols := make([]string, 0, len(row))
	for k := range row {
		cols = append(cols, k)
	}
	return cols
}
