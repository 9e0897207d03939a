// Package sqlite keeps submissions and the contest status in a local SQLite
// file, using the same table layout as the PostgreSQL store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/itchan-dev/contestbot/backend/internal/service"
	"github.com/itchan-dev/contestbot/shared/domain"
	"github.com/itchan-dev/contestbot/shared/logger"
	"github.com/itchan-dev/contestbot/shared/storage/sqldb"
	_ "github.com/mattn/go-sqlite3"
)

const dbDriver = "sqlite3"

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id INTEGER PRIMARY KEY CHECK (id > 0),
	owner_id TEXT NOT NULL UNIQUE,
	data TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS contest_status (
	singleton INTEGER PRIMARY KEY CHECK (singleton = 1),
	open INTEGER NOT NULL
);
INSERT OR IGNORE INTO contest_status (singleton, open) VALUES (1, 1);
`

type Storage struct {
	db *sql.DB
}

var (
	_ service.SubmissionRepository = (*Storage)(nil)
	_ service.StatusStore          = (*Storage)(nil)
)

// New opens (or creates) the database file and makes sure the tables exist.
func New(ctx context.Context, path string) (*Storage, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	// A single writer avoids SQLITE_BUSY between the tally and commands.
	db, err := sql.Open(dbDriver, path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	logger.Component("storage.sqlite").Info("database initialized", "path", path)
	return &Storage{db: db}, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

func (s *Storage) Load(ctx context.Context) ([]domain.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, owner_id, data FROM submissions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	subs := []domain.Submission{}
	for rows.Next() {
		var (
			id    domain.SubmissionId
			owner domain.OwnerId
			data  string
		)
		if err := rows.Scan(&id, &owner, &data); err != nil {
			return nil, fmt.Errorf("failed to scan submission row: %w", err)
		}
		sub, err := sqldb.DecodeRecord(id, owner, []byte(data))
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during submission iteration: %w", err)
	}
	if err := domain.CheckSet(subs); err != nil {
		return nil, fmt.Errorf("corrupt submissions table: %w", err)
	}
	return subs, nil
}

// SaveAll rewrites the table to hold exactly subs in one transaction.
func (s *Storage) SaveAll(ctx context.Context, subs []domain.Submission) error {
	if err := domain.CheckSet(subs); err != nil {
		return fmt.Errorf("refusing to save submissions: %w", err)
	}
	return sqldb.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return saveAll(ctx, tx, subs)
	})
}

func saveAll(ctx context.Context, q sqldb.Querier, subs []domain.Submission) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM submissions`); err != nil {
		return fmt.Errorf("failed to clear submissions: %w", err)
	}
	for _, sub := range subs {
		data, err := sqldb.EncodeRecord(sub)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO submissions (id, owner_id, data) VALUES (?, ?, ?)`,
			sub.Id, sub.OwnerId, string(data),
		); err != nil {
			return fmt.Errorf("failed to insert submission #%d: %w", sub.Id, err)
		}
	}
	return nil
}

func (s *Storage) LoadStatus(ctx context.Context) (domain.ContestStatus, error) {
	var open bool
	err := s.db.QueryRowContext(ctx, `SELECT open FROM contest_status WHERE singleton = 1`).Scan(&open)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ContestStatus{Open: true}, nil
	}
	if err != nil {
		return domain.ContestStatus{}, fmt.Errorf("failed to read contest status: %w", err)
	}
	return domain.ContestStatus{Open: open}, nil
}

func (s *Storage) SaveStatus(ctx context.Context, status domain.ContestStatus) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contest_status (singleton, open) VALUES (1, ?)
		 ON CONFLICT (singleton) DO UPDATE SET open = excluded.open`,
		status.Open)
	if err != nil {
		return fmt.Errorf("failed to save contest status: %w", err)
	}
	return nil
}
