package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/contestbot/shared/domain"
)

// LoadStatus reads the singleton status row. A missing row means open.
func (s *Storage) LoadStatus(ctx context.Context) (domain.ContestStatus, error) {
	var open bool
	err := s.db.QueryRowContext(ctx, `SELECT open FROM contest_status WHERE singleton`).Scan(&open)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ContestStatus{Open: true}, nil
	}
	if err != nil {
		return domain.ContestStatus{}, fmt.Errorf("failed to read contest status: %w", err)
	}
	return domain.ContestStatus{Open: open}, nil
}

func (s *Storage) SaveStatus(ctx context.Context, status domain.ContestStatus) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contest_status (singleton, open) VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO UPDATE SET open = EXCLUDED.open, updated_at = now()`,
		status.Open)
	if err != nil {
		return fmt.Errorf("failed to save contest status: %w", err)
	}
	return nil
}
