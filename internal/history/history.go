// Package history provides the SQLite audit log of served predictions.
//
// Every prediction the CLI or MCP server hands out is recorded with enough
// context to diagnose it later without re-running: category, completeness,
// confidence, price, band, and the model version that produced it. Titles
// are stored hashed; the log is for operators, not for re-reading
// listings.
//
// The store sits outside the inference path; the engine itself never does
// I/O per request.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.ezsell/pricer.db"

// Record is one served prediction.
type Record struct {
	ID           int64
	Category     string
	TitleHash    string
	Completeness float64
	Confidence   string
	Price        float64
	PriceMin     float64
	PriceMax     float64
	ModelVersion string
	DurationMS   int64
	CreatedAt    time.Time
}

// Stats holds observability counters for the log.
type Stats struct {
	RecordCount int64
	ByCategory  map[string]int64
}

// Store is the audit log interface.
type Store interface {
	Add(ctx context.Context, r *Record) (int64, error)
	Recent(ctx context.Context, limit int) ([]*Record, error)
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// HashTitle returns the stored form of a listing title.
func HashTitle(title string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(strings.ToLower(title))))
	return hex.EncodeToString(sum[:8])
}

// NewStore opens (and if needed creates) the audit database.
// Pass ":memory:" for tests.
func NewStore(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		dbPath = DefaultDBPath
	}
	dbPath = expandUserPath(dbPath)

	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dsn = "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}
	// SQLite allows one writer at a time, and MCP tool handlers run
	// concurrently. A single pooled connection serializes Add calls instead
	// of surfacing SQLITE_BUSY to callers. It also keeps ":memory:" tests
	// correct: each pool connection would otherwise get its own empty
	// in-memory database.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS predictions (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			category      TEXT NOT NULL,
			title_hash    TEXT NOT NULL,
			completeness  REAL NOT NULL,
			confidence    TEXT NOT NULL,
			price         REAL NOT NULL,
			price_min     REAL NOT NULL,
			price_max     REAL NOT NULL,
			model_version TEXT NOT NULL,
			duration_ms   INTEGER NOT NULL DEFAULT 0,
			created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_predictions_category ON predictions(category);
		CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at);
	`)
	if err != nil {
		return fmt.Errorf("migrating predictions table: %w", err)
	}
	return nil
}

// Add appends one record and returns its ID.
func (s *SQLiteStore) Add(ctx context.Context, r *Record) (int64, error) {
	if r == nil {
		return 0, fmt.Errorf("nil record")
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO predictions
			(category, title_hash, completeness, confidence, price, price_min, price_max, model_version, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Category, r.TitleHash, r.Completeness, r.Confidence,
		r.Price, r.PriceMin, r.PriceMax, r.ModelVersion, r.DurationMS,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting prediction record: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns the newest records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, title_hash, completeness, confidence,
		       price, price_min, price_max, model_version, duration_ms, created_at
		FROM predictions
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent predictions: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		r := &Record{}
		if err := rows.Scan(&r.ID, &r.Category, &r.TitleHash, &r.Completeness,
			&r.Confidence, &r.Price, &r.PriceMin, &r.PriceMax,
			&r.ModelVersion, &r.DurationMS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning prediction record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats reports counts overall and per category.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByCategory: make(map[string]int64)}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM predictions`).Scan(&st.RecordCount); err != nil {
		return nil, fmt.Errorf("counting predictions: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM predictions GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("counting per category: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cat string
		var n int64
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		st.ByCategory[cat] = n
	}
	return st, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
