// Package sqldb provides database/sql primitives shared by the PostgreSQL and
// SQLite submission stores.
//
// Core Components:
//   - Querier: Interface for transaction-agnostic database operations
//   - WithTx: Helper for managing database transactions
//   - ConnectPostgres: Configurable PostgreSQL connection establishment
//   - EncodeRecord/DecodeRecord: The JSON payload stored next to id and owner
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/itchan-dev/contestbot/shared/config"
	"github.com/itchan-dev/contestbot/shared/domain"
	_ "github.com/lib/pq" // Registers the PostgreSQL driver
)

// =========================================================================
// Core Interfaces
// =========================================================================

// Querier is satisfied by both *sql.DB and *sql.Tx, so the same query code
// runs inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =========================================================================
// Connection Management
// =========================================================================

// ConnectionConfig holds database connection pool settings.
type ConnectionConfig struct {
	MaxOpenConns    int           // Maximum number of open connections to the database
	MaxIdleConns    int           // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration // Maximum amount of time a connection may be reused
	ConnMaxIdleTime time.Duration // Maximum amount of time a connection may be idle
}

// DefaultConnectionConfig suits the bot: a handful of commands at a time
// plus one tally writer.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

// ConnectPostgres establishes and verifies a connection to PostgreSQL.
func ConnectPostgres(ctx context.Context, pg *config.Pg, connCfg ConnectionConfig) (*sql.DB, error) {
	if pg == nil {
		return nil, fmt.Errorf("postgres config is missing")
	}
	sslMode := pg.SslMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		pg.Host, pg.Port, pg.User, pg.Password, pg.Dbname, sslMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	Configure(db, connCfg)

	if err = db.PingContext(ctx); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Configure applies pool settings to an open handle.
func Configure(db *sql.DB, connCfg ConnectionConfig) {
	db.SetMaxOpenConns(connCfg.MaxOpenConns)
	db.SetMaxIdleConns(connCfg.MaxIdleConns)
	db.SetConnMaxLifetime(connCfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(connCfg.ConnMaxIdleTime)
}

// =========================================================================
// Transaction Helpers
// =========================================================================

// WithTx executes fn within a transaction. An error from fn rolls back,
// otherwise the transaction is committed.
//
// Usage:
//
//	err := sqldb.WithTx(ctx, db, func(tx *sql.Tx) error {
//	    if err := someOperation(ctx, tx, data); err != nil {
//	        return err // Triggers rollback
//	    }
//	    return nil // Triggers commit
//	})
func WithTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if transaction is already committed

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// =========================================================================
// Record Payload
// =========================================================================

// record is the part of a submission kept in the JSON data column.
// Id and owner live in their own columns so the database enforces uniqueness.
type record struct {
	Version        int                `json:"version"`
	MediaReference domain.MediaRef    `json:"mediaReference"`
	BoardHandle    domain.BoardHandle `json:"boardHandle"`
	VoteCount      int                `json:"voteCount"`
}

func EncodeRecord(sub domain.Submission) ([]byte, error) {
	version := sub.Version
	if version == 0 {
		version = domain.RecordVersion
	}
	data, err := json.Marshal(record{
		Version:        version,
		MediaReference: sub.MediaReference,
		BoardHandle:    sub.BoardHandle,
		VoteCount:      sub.VoteCount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission #%d: %w", sub.Id, err)
	}
	return data, nil
}

// DecodeRecord rebuilds a submission from its columns. Payloads without a
// version are treated as the current version.
func DecodeRecord(id domain.SubmissionId, owner domain.OwnerId, data []byte) (domain.Submission, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.Submission{}, fmt.Errorf("failed to decode submission #%d: %w", id, err)
	}
	if r.Version == 0 {
		r.Version = domain.RecordVersion
	}
	return domain.Submission{
		Version:        r.Version,
		Id:             id,
		OwnerId:        owner,
		MediaReference: r.MediaReference,
		BoardHandle:    r.BoardHandle,
		VoteCount:      r.VoteCount,
	}, nil
}
