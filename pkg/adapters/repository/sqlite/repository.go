package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/funnel-gateway/pkg/core/domain"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/ports"
	"modernc.org/sqlite" // Local SQLite driver
	sqlite3 "modernc.org/sqlite/lib"
)

const linkColumns = `id, slug, target, clicks, completed, created_at`

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	if driverName == "sqlite" {
		// A single connection serializes writers inside the process; busy_timeout
		// covers other processes (the CLI) holding the file lock.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if driverName == "sqlite" {
		_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
		_, _ = db.Exec("PRAGMA journal_mode = WAL;")
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slug TEXT NOT NULL UNIQUE,
		target TEXT NOT NULL,
		clicks INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	`
	_, err := db.Exec(query)
	return err
}

func (r *SQLiteRepository) Create(ctx context.Context, slug, target string) (*domain.Link, error) {
	query := `INSERT INTO links (slug, target, clicks, completed, created_at)
			  VALUES (?, ?, 0, 0, ?) RETURNING ` + linkColumns

	link, err := scanLink(r.db.QueryRowContext(ctx, query, slug, target, r.now().UnixMilli()))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateSlug
		}
		return nil, fmt.Errorf("insert link: %w", err)
	}
	return link, nil
}

func (r *SQLiteRepository) FindBySlug(ctx context.Context, slug string) (*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE slug = ?`
	return r.one(ctx, "find link", query, slug)
}

// IncrementClicks adds one visit in a single UPDATE ... RETURNING statement.
func (r *SQLiteRepository) IncrementClicks(ctx context.Context, slug string) (*domain.Link, error) {
	query := `UPDATE links SET clicks = clicks + 1 WHERE slug = ? RETURNING ` + linkColumns
	return r.one(ctx, "increment clicks", query, slug)
}

func (r *SQLiteRepository) IncrementCompleted(ctx context.Context, slug string) (*domain.Link, error) {
	query := `UPDATE links SET completed = completed + 1 WHERE slug = ? RETURNING ` + linkColumns
	return r.one(ctx, "increment completed", query, slug)
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]domain.Link, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+linkColumns+` FROM links ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, *l)
	}
	return links, rows.Err()
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) one(ctx context.Context, op, query string, args ...interface{}) (*domain.Link, error) {
	link, err := scanLink(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return link, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLink(row scanner) (*domain.Link, error) {
	var l domain.Link
	var createdAt int64
	if err := row.Scan(&l.ID, &l.Slug, &l.Target, &l.Clicks, &l.Completed, &createdAt); err != nil {
		return nil, err
	}
	l.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &l, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	// libsql surfaces the server message only
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Ensure interface compliance
var _ ports.LinkStore = (*SQLiteRepository)(nil)
