package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/itchan-dev/contestbot/shared/domain"
	"github.com/itchan-dev/contestbot/shared/storage/sqldb"
	"github.com/lib/pq"
)

// Load returns every stored submission ordered by id.
func (s *Storage) Load(ctx context.Context) ([]domain.Submission, error) {
	return s.load(ctx, s.db)
}

// SaveAll makes the table hold exactly subs. Rows missing from subs are
// deleted and the rest are upserted, all in one transaction.
func (s *Storage) SaveAll(ctx context.Context, subs []domain.Submission) error {
	if err := domain.CheckSet(subs); err != nil {
		return fmt.Errorf("refusing to save submissions: %w", err)
	}
	return sqldb.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.saveAll(ctx, tx, subs)
	})
}

func (s *Storage) load(ctx context.Context, q sqldb.Querier) ([]domain.Submission, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, owner_id, data FROM submissions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	subs := []domain.Submission{}
	for rows.Next() {
		var (
			id    domain.SubmissionId
			owner domain.OwnerId
			data  []byte
		)
		if err := rows.Scan(&id, &owner, &data); err != nil {
			return nil, fmt.Errorf("failed to scan submission row: %w", err)
		}
		sub, err := sqldb.DecodeRecord(id, owner, data)
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

func (s *Storage) saveAll(ctx context.Context, q sqldb.Querier, subs []domain.Submission) error {
	ids := make([]int64, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, int64(sub.Id))
	}
	if _, err := q.ExecContext(ctx,
		`DELETE FROM submissions WHERE NOT (id = ANY($1))`, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to delete dropped submissions: %w", err)
	}

	// An owner may move to a new id only after a clear, so free owner ids
	// held by other rows before upserting.
	owners := make([]string, 0, len(subs))
	for _, sub := range subs {
		owners = append(owners, sub.OwnerId)
	}
	if _, err := q.ExecContext(ctx,
		`DELETE FROM submissions s
		 USING unnest($1::bigint[], $2::text[]) AS n(id, owner_id)
		 WHERE s.owner_id = n.owner_id AND s.id <> n.id`,
		pq.Array(ids), pq.Array(owners)); err != nil {
		return fmt.Errorf("failed to release reassigned owners: %w", err)
	}

	for _, sub := range subs {
		data, err := sqldb.EncodeRecord(sub)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO submissions (id, owner_id, data)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE
			SET owner_id = EXCLUDED.owner_id, data = EXCLUDED.data, updated_at = now()`,
			sub.Id, sub.OwnerId, data,
		); err != nil {
			return fmt.Errorf("failed to upsert submission #%d: %w", sub.Id, err)
		}
	}
	return nil
}
