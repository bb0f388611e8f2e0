package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Supported dialects. Postgres goes through pgx's database/sql adapter.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

var ErrNotFound = errors.New("task not found")

type Store struct {
	db      *sqlx.DB
	dialect string
}

func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	dialect := strings.ToLower(strings.TrimSpace(driver))
	var sqlDriver string
	switch dialect {
	case DriverMySQL:
		sqlDriver = "mysql"
	case DriverPostgres, "postgresql", "pgx":
		dialect, sqlDriver = DriverPostgres, "pgx"
	case DriverSQLite, "sqlite":
		dialect, sqlDriver = DriverSQLite, "sqlite3"
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
	db, err := sqlx.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	if dialect == DriverSQLite {
		// one writer; avoids SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Dialect() string { return s.dialect }

// DB exposes the pool for read-only diagnostics.
func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) migrate(ctx context.Context) error {
	var ddl string
	switch s.dialect {
	case DriverMySQL:
		ddl = `CREATE TABLE IF NOT EXISTS tasks (
    id BIGINT PRIMARY KEY AUTO_INCREMENT,
    title TEXT NOT NULL
)`
	case DriverPostgres:
		ddl = `CREATE TABLE IF NOT EXISTS tasks (
    id BIGSERIAL PRIMARY KEY,
    title TEXT NOT NULL
)`
	default:
		ddl = `CREATE TABLE IF NOT EXISTS tasks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL
)`
	}
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// ---- Data types ----

type Task struct {
	ID    int64  `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
}

func (s *Store) CreateTask(ctx context.Context, title string) (Task, error) {
	t := Task{Title: title}
	if s.dialect == DriverPostgres {
		err := s.db.QueryRowxContext(ctx, `INSERT INTO tasks (title) VALUES ($1) RETURNING id`, title).Scan(&t.ID)
		if err != nil {
			return Task{}, err
		}
		return t, nil
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO tasks (title) VALUES (?)`), title)
	if err != nil {
		return Task{}, err
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// AllTasks returns every task in store default order (ascending id).
func (s *Store) AllTasks(ctx context.Context) ([]Task, error) {
	out := []Task{}
	if err := s.db.SelectContext(ctx, &out, `SELECT id, title FROM tasks ORDER BY id`); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTask reports whether the task exists instead of failing on a miss.
func (s *Store) GetTask(ctx context.Context, id int64) (Task, bool, error) {
	var t Task
	err := s.db.GetContext(ctx, &t, s.db.Rebind(`SELECT id, title FROM tasks WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, false, nil
	}
	if err != nil {
		return Task{}, false, err
	}
	return t, true, nil
}

// UpdateTask does not inspect the affected row count: MySQL reports zero
// rows when the title is unchanged.
func (s *Store) UpdateTask(ctx context.Context, id int64, title string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE tasks SET title = ? WHERE id = ?`), title, id)
	return err
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountTasks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM tasks`); err != nil {
		return 0, err
	}
	return n, nil
}
