// Package pg keeps submissions and the contest status in PostgreSQL.
package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/itchan-dev/contestbot/backend/internal/service"
	"github.com/itchan-dev/contestbot/shared/config"
	"github.com/itchan-dev/contestbot/shared/logger"
	"github.com/itchan-dev/contestbot/shared/storage/sqldb"
)

type Storage struct {
	db *sql.DB
}

var (
	_ service.SubmissionRepository = (*Storage)(nil)
	_ service.StatusStore          = (*Storage)(nil)
)

// New connects to the database. The schema is expected to exist already
// (see migrations/init.sql).
func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg.Private.Pg == nil {
		return nil, fmt.Errorf("postgres backend selected but pg config is missing")
	}
	log := logger.Component("storage.pg")
	log.Info("connecting to db", "host", cfg.Private.Pg.Host, "dbname", cfg.Private.Pg.Dbname)
	db, err := sqldb.ConnectPostgres(ctx, cfg.Private.Pg, sqldb.DefaultConnectionConfig())
	if err != nil {
		return nil, err
	}
	log.Info("successfully connected to db")
	return &Storage{db: db}, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}
