package words

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS word_pairs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	theme        TEXT NOT NULL,
	citizen_word TEXT NOT NULL,
	wolf_word    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS word_pairs_theme ON word_pairs (theme);`

// SQLiteCache keeps generated batches on disk so they survive restarts.
type SQLiteCache struct {
	db *sql.DB
}

// OpenSQLiteCache opens (creating if needed) the cache database at path.
func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("cache path is required")
	}

	db, err := sql.Open("sqlite", filepath.Clean(path)+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pop runs a read-then-delete transaction; one connection keeps it serial.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *SQLiteCache) Pop(ctx context.Context, theme string) (Pair, bool, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return Pair{}, false, fmt.Errorf("begin pop: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		id int64
		p  Pair
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, citizen_word, wolf_word FROM word_pairs WHERE theme = ? ORDER BY random() LIMIT 1`,
		theme,
	).Scan(&id, &p.CitizenWord, &p.WolfWord)
	if errors.Is(err, sql.ErrNoRows) {
		return Pair{}, false, nil
	}
	if err != nil {
		return Pair{}, false, fmt.Errorf("select pair: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM word_pairs WHERE id = ?`, id); err != nil {
		return Pair{}, false, fmt.Errorf("delete pair: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Pair{}, false, fmt.Errorf("commit pop: %w", err)
	}

	return p, true, nil
}

func (c *SQLiteCache) Store(ctx context.Context, theme string, batch []Pair) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin store: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM word_pairs WHERE theme = ?`, theme); err != nil {
		return fmt.Errorf("clear theme: %w", err)
	}

	for _, p := range batch {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO word_pairs (theme, citizen_word, wolf_word) VALUES (?, ?, ?)`,
			theme, p.CitizenWord, p.WolfWord,
		); err != nil {
			return fmt.Errorf("insert pair: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit store: %w", err)
	}

	return nil
}
