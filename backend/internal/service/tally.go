package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/itchan-dev/contestbot/shared/domain"
	"github.com/itchan-dev/contestbot/shared/logger"
	"github.com/itchan-dev/contestbot/shared/metrics"
)

type TallyService interface {
	Tally(ctx context.Context) ([]domain.Submission, domain.TallyReport, error)
	Ranked(ctx context.Context) ([]domain.Submission, error)
}

// Tally reconciles stored vote counts with the reactions on the board.
type Tally struct {
	repo        SubmissionRepository
	lookup      ReactionLookup
	concurrency int
	timeout     time.Duration
	mu          sync.Locker
	log         *slog.Logger
}

func NewTally(repo SubmissionRepository, board Board, concurrency int, timeout time.Duration, lock sync.Locker) *Tally {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &Tally{
		repo:        repo,
		lookup:      board.FetchVoteReactionCount,
		concurrency: max(concurrency, 1),
		timeout:     timeout,
		mu:          lock,
		log:         logger.Component("tally"),
	}
}

// Tally refreshes every stored count from the board, writes the whole set
// back in one SaveAll and returns it ranked.
func (t *Tally) Tally(ctx context.Context) ([]domain.Submission, domain.TallyReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := time.Now()
	subs, err := t.repo.Load(ctx)
	if err != nil {
		return nil, domain.TallyReport{}, fmt.Errorf("failed to load submissions: %w", err)
	}

	refreshed, report := Recompute(ctx, subs, t.lookup, t.concurrency, t.timeout)
	if len(refreshed) != len(subs) {
		// the stored set never shrinks here
		return nil, report, fmt.Errorf("tally produced %d records for %d submissions", len(refreshed), len(subs))
	}
	if err := t.repo.SaveAll(ctx, refreshed); err != nil {
		return nil, report, fmt.Errorf("failed to save tally: %w", err)
	}
	metrics.TallyDuration.Observe(time.Since(start).Seconds())

	if len(report.Failed) > 0 {
		t.log.Warn("tally kept previous counts for some submissions",
			"failed_ids", report.Failed,
			"refreshed", report.Refreshed)
	}
	t.log.Info("tally completed",
		"submissions", len(refreshed),
		"refreshed", report.Refreshed,
		"failed", len(report.Failed),
		"duration_ms", time.Since(start).Milliseconds())
	return Rank(refreshed), report, nil
}

// Ranked returns the stored submissions ranked by their last tallied counts.
func (t *Tally) Ranked(ctx context.Context) ([]domain.Submission, error) {
	subs, err := t.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}
	return Rank(subs), nil
}

// Recompute fetches the vote reaction count of every submission. The bot's
// own seed reaction is subtracted. A failed or timed out lookup keeps the
// previous count; the result always has one record per input, in input order.
func Recompute(ctx context.Context, subs []domain.Submission, lookup ReactionLookup, concurrency int, timeout time.Duration) ([]domain.Submission, domain.TallyReport) {
	out := slices.Clone(subs)
	failed := make([]bool, len(out))

	var g errgroup.Group
	g.SetLimit(max(concurrency, 1))
	for i := range out {
		g.Go(func() error {
			raw, err := lookupWithTimeout(ctx, lookup, out[i].BoardHandle, timeout)
			if err != nil {
				failed[i] = true
				metrics.TallyLookupsTotal.WithLabelValues("failed").Inc()
				logger.Log.Debug("reaction lookup failed",
					"component", "tally",
					"submission_id", out[i].Id,
					"error", err)
				return nil
			}
			out[i].VoteCount = max(raw-1, 0)
			metrics.TallyLookupsTotal.WithLabelValues("ok").Inc()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	var report domain.TallyReport
	for i, f := range failed {
		if f {
			report.Failed = append(report.Failed, out[i].Id)
		} else {
			report.Refreshed++
		}
	}
	return out, report
}

func lookupWithTimeout(ctx context.Context, lookup ReactionLookup, handle domain.BoardHandle, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		return lookup(ctx, handle)
	}
	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		count int
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		count, err := lookup(lctx, handle)
		ch <- result{count, err}
	}()

	select {
	case r := <-ch:
		return r.count, r.err
	case <-lctx.Done():
		return 0, fmt.Errorf("reaction lookup for %s: %w", handle, lctx.Err())
	}
}

// Rank orders by vote count descending, ties by id ascending.
func Rank(subs []domain.Submission) []domain.Submission {
	ranked := slices.Clone(subs)
	slices.SortStableFunc(ranked, func(a, b domain.Submission) int {
		if c := cmp.Compare(b.VoteCount, a.VoteCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Id, b.Id)
	})
	return ranked
}
