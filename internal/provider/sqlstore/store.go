// Package sqlstore serves advertisements from a SQL table. It is the durable
// backup tier and supports sqlite, pgx (PostgreSQL) and mysql.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/types"
)

var sqlIdentPartRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store reads advertisements from a table with columns web_id, name, description.
type Store struct {
	db         *sql.DB
	driverName string
	table      string
	logger     *slog.Logger
	getStmt    *sql.Stmt
	upsertStmt *sql.Stmt
	deleteStmt *sql.Stmt
}

// Open connects with cfg.Driver and cfg.DSN, creating the table if absent.
func Open(ctx context.Context, cfg config.BackupConfig, logger *slog.Logger) (*Store, error) {
	if cfg.Driver == "" || cfg.DSN.IsEmpty() {
		return nil, fmt.Errorf("%w: sql backup requires driver and dsn", types.ErrInvalidConfig)
	}
	db, err := sql.Open(cfg.Driver, cfg.DSN.Value())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	s, err := New(ctx, db, cfg.Driver, cfg.Table, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database. The Store owns db afterwards.
func New(ctx context.Context, db *sql.DB, driverName, table string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if table == "" {
		table = "advertisements"
	}
	if err := validateTableName(table); err != nil {
		return nil, err
	}

	s := &Store{
		db:         db,
		driverName: driverName,
		table:      table,
		logger:     logger.With("component", "sql-provider", "driver", driverName),
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.prepareStatements(ctx); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	var stmt string
	switch s.driverName {
	case config.DriverPgx, "postgres":
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			web_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL
		);`, s.table)
	case config.DriverMySQL:
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			web_id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(1024) NOT NULL,
			description TEXT NOT NULL
		) ENGINE=InnoDB;`, s.table)
	default:
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			web_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL
		);`, s.table)
	}
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

// FetchByID returns (nil, nil) when no row matches id.
func (s *Store) FetchByID(ctx context.Context, id string) (*types.Advertisement, error) {
	var adv types.Advertisement
	err := s.getStmt.QueryRowContext(ctx, id).Scan(&adv.WebID, &adv.Name, &adv.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	return &adv, nil
}

// Put inserts or replaces adv.
func (s *Store) Put(ctx context.Context, adv *types.Advertisement) error {
	if adv == nil || adv.WebID == "" {
		return fmt.Errorf("%w: advertisement without id", types.ErrInvalidKey)
	}
	_, err := s.upsertStmt.ExecContext(ctx, adv.WebID, adv.Name, adv.Description, adv.Name, adv.Description)
	return err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.deleteStmt.ExecContext(ctx, id)
	return err
}

// Close releases the prepared statements and the database handle.
func (s *Store) Close() error {
	return errors.Join(
		s.getStmt.Close(),
		s.upsertStmt.Close(),
		s.deleteStmt.Close(),
		s.db.Close(),
	)
}

func (s *Store) getSQL() string {
	return fmt.Sprintf("SELECT web_id, name, description FROM %s WHERE web_id = %s", s.table, s.ph(1))
}

func (s *Store) upsertSQL() string {
	p1, p2, p3, p4, p5 := s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5)
	switch s.driverName {
	case config.DriverPgx, "postgres":
		return fmt.Sprintf("INSERT INTO %s (web_id, name, description) VALUES (%s, %s, %s) ON CONFLICT (web_id) DO UPDATE SET name = %s, description = %s", s.table, p1, p2, p3, p4, p5)
	case config.DriverMySQL:
		return fmt.Sprintf("INSERT INTO %s (web_id, name, description) VALUES (%s, %s, %s) ON DUPLICATE KEY UPDATE name = %s, description = %s", s.table, p1, p2, p3, p4, p5)
	default:
		return fmt.Sprintf("INSERT INTO %s (web_id, name, description) VALUES (%s, %s, %s) ON CONFLICT(web_id) DO UPDATE SET name = %s, description = %s", s.table, p1, p2, p3, p4, p5)
	}
}

func (s *Store) deleteSQL() string {
	return fmt.Sprintf("DELETE FROM %s WHERE web_id = %s", s.table, s.ph(1))
}

func (s *Store) prepareStatements(ctx context.Context) error {
	var err error
	if s.getStmt, err = s.db.PrepareContext(ctx, s.getSQL()); err != nil {
		return err
	}
	if s.upsertStmt, err = s.db.PrepareContext(ctx, s.upsertSQL()); err != nil {
		return err
	}
	if s.deleteStmt, err = s.db.PrepareContext(ctx, s.deleteSQL()); err != nil {
		return err
	}
	return nil
}

// ph returns the i-th positional placeholder for the driver.
func (s *Store) ph(i int) string {
	if s.driverName == config.DriverPgx || s.driverName == "postgres" {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

func validateTableName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: sql table name is required", types.ErrInvalidConfig)
	}
	for _, part := range strings.Split(name, ".") {
		if !sqlIdentPartRE.MatchString(part) {
			return fmt.Errorf("%w: invalid sql table name %q", types.ErrInvalidConfig, name)
		}
	}
	return nil
}

var _ types.Provider = (*Store)(nil)
