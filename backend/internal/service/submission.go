package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/itchan-dev/contestbot/shared/domain"
	internal_errors "github.com/itchan-dev/contestbot/shared/errors"
	"github.com/itchan-dev/contestbot/shared/logger"
	"github.com/itchan-dev/contestbot/shared/metrics"
)

type SubmissionService interface {
	Submit(ctx context.Context, owner domain.OwnerId, content string, attachments []domain.Attachment) (domain.Submission, domain.SubmitOutcome, error)
	List(ctx context.Context) ([]domain.Submission, error)
	GetById(ctx context.Context, id domain.SubmissionId) (domain.Submission, error)
	GetByOwner(ctx context.Context, owner domain.OwnerId) (domain.Submission, error)
	Clear(ctx context.Context) error
	Status(ctx context.Context) (domain.ContestStatus, error)
	SetOpen(ctx context.Context, open bool) error
	AutoClose(ctx context.Context) (bool, error)
}

// Submission enforces one live submission per owner and owns every write to
// the repository and the status store except tally results.
type Submission struct {
	repo                SubmissionRepository
	status              StatusStore
	board               Board
	clock               PhaseClock
	now                 func() time.Time
	confirmationChannel string
	mu                  sync.Locker
	log                 *slog.Logger
}

// NewSubmission creates the submission manager. lock serializes mutations
// shared with the tally engine; nil gives the manager its own mutex.
func NewSubmission(
	repo SubmissionRepository,
	status StatusStore,
	board Board,
	clock PhaseClock,
	now func() time.Time,
	confirmationChannel string,
	lock sync.Locker,
) *Submission {
	if now == nil {
		now = time.Now
	}
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &Submission{
		repo:                repo,
		status:              status,
		board:               board,
		clock:               clock,
		now:                 now,
		confirmationChannel: confirmationChannel,
		mu:                  lock,
		log:                 logger.Component("submission"),
	}
}

// Submit creates the owner's submission or replaces its image in place.
func (s *Submission) Submit(ctx context.Context, owner domain.OwnerId, content string, attachments []domain.Attachment) (domain.Submission, domain.SubmitOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAccepting(ctx); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return domain.Submission{}, "", err
	}

	media, err := ResolveImage(content, attachments)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return domain.Submission{}, "", err
	}

	subs, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Submission{}, "", fmt.Errorf("failed to load submissions: %w", err)
	}

	var (
		result  domain.Submission
		outcome domain.SubmitOutcome
	)
	if idx := slices.IndexFunc(subs, func(sub domain.Submission) bool { return sub.OwnerId == owner }); idx >= 0 {
		if err := s.board.EditCard(ctx, subs[idx].BoardHandle, media); err != nil {
			metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
			return domain.Submission{}, "", &internal_errors.ExternalIOError{Op: "edit card", Err: err}
		}
		subs[idx].MediaReference = media
		result, outcome = subs[idx], domain.SubmitUpdated
	} else {
		sub := domain.Submission{
			Version:        domain.RecordVersion,
			Id:             nextId(subs),
			OwnerId:        owner,
			MediaReference: media,
		}
		handle, err := s.board.PostCard(ctx, sub)
		if err != nil {
			metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
			return domain.Submission{}, "", &internal_errors.ExternalIOError{Op: "post card", Err: err}
		}
		sub.BoardHandle = handle
		// the card is live now, so a missing seed reaction must not lose the entry
		if err := s.board.SeedVoteReaction(ctx, handle); err != nil {
			s.log.Error("failed to seed vote reaction", "submission_id", sub.Id, "board_handle", handle, "error", err)
		}
		subs = append(subs, sub)
		result, outcome = sub, domain.SubmitCreated
	}

	if err := s.repo.SaveAll(ctx, subs); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		if outcome == domain.SubmitCreated {
			s.dropCard(ctx, result)
		}
		return domain.Submission{}, "", fmt.Errorf("failed to save submissions: %w", err)
	}
	metrics.SubmissionsTotal.WithLabelValues(string(outcome)).Inc()
	metrics.LiveSubmissions.Set(float64(len(subs)))

	s.log.Info("submission accepted",
		"submission_id", result.Id,
		"owner_id", owner,
		"outcome", outcome)
	s.confirm(ctx, result, outcome)
	return result, outcome, nil
}

// dropCard deletes a freshly posted card whose record could not be saved.
func (s *Submission) dropCard(ctx context.Context, sub domain.Submission) {
	if err := s.board.DeleteCard(ctx, sub.BoardHandle); err != nil {
		s.log.Error("orphaned card left on the board",
			"submission_id", sub.Id,
			"board_handle", sub.BoardHandle,
			"error", err)
	}
}

func (s *Submission) checkAccepting(ctx context.Context) error {
	status, err := s.status.LoadStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to load contest status: %w", err)
	}
	if !status.Open || !s.clock.Evaluate(s.now()).SubmissionsOpen {
		return &internal_errors.StateError{Message: "❌ Submissions are currently closed."}
	}
	return nil
}

func (s *Submission) confirm(ctx context.Context, sub domain.Submission, outcome domain.SubmitOutcome) {
	if s.confirmationChannel == "" {
		return
	}
	text := fmt.Sprintf("✅ <@%s> submitted #%d\n%s", sub.OwnerId, sub.Id, sub.MediaReference)
	if outcome == domain.SubmitUpdated {
		text = fmt.Sprintf("🔁 <@%s> updated #%d\n%s", sub.OwnerId, sub.Id, sub.MediaReference)
	}
	if err := s.board.Notify(ctx, s.confirmationChannel, text); err != nil {
		s.log.Warn("confirmation notice failed", "submission_id", sub.Id, "error", err)
	}
}

// nextId continues after the highest stored id, so ids restart at 1 only
// when the repository is empty.
func nextId(subs []domain.Submission) domain.SubmissionId {
	var maxId domain.SubmissionId
	for _, sub := range subs {
		maxId = max(maxId, sub.Id)
	}
	return maxId + 1
}

func (s *Submission) List(ctx context.Context) ([]domain.Submission, error) {
	subs, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}
	slices.SortFunc(subs, func(a, b domain.Submission) int { return cmp.Compare(a.Id, b.Id) })
	return subs, nil
}

func (s *Submission) GetById(ctx context.Context, id domain.SubmissionId) (domain.Submission, error) {
	subs, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("failed to load submissions: %w", err)
	}
	for _, sub := range subs {
		if sub.Id == id {
			return sub, nil
		}
	}
	return domain.Submission{}, &internal_errors.NotFoundError{Message: fmt.Sprintf("❌ No submission with ID #%d", id)}
}

func (s *Submission) GetByOwner(ctx context.Context, owner domain.OwnerId) (domain.Submission, error) {
	subs, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("failed to load submissions: %w", err)
	}
	for _, sub := range subs {
		if sub.OwnerId == owner {
			return sub, nil
		}
	}
	return domain.Submission{}, &internal_errors.NotFoundError{Message: fmt.Sprintf("❌ <@%s> has no submission", owner)}
}

// Clear removes every submission. Board cards are left in place.
func (s *Submission) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.SaveAll(ctx, []domain.Submission{}); err != nil {
		return fmt.Errorf("failed to clear submissions: %w", err)
	}
	metrics.LiveSubmissions.Set(0)
	s.log.Info("submissions cleared")
	return nil
}

func (s *Submission) Status(ctx context.Context) (domain.ContestStatus, error) {
	status, err := s.status.LoadStatus(ctx)
	if err != nil {
		return domain.ContestStatus{}, fmt.Errorf("failed to load contest status: %w", err)
	}
	return status, nil
}

func (s *Submission) SetOpen(ctx context.Context, open bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.status.SaveStatus(ctx, domain.ContestStatus{Open: open}); err != nil {
		return fmt.Errorf("failed to save contest status: %w", err)
	}
	s.log.Info("contest status changed", "open", open)
	return nil
}

// AutoClose closes the manual status once the submission window is over.
// It reports whether it wrote anything; repeated calls are no-ops.
func (s *Submission) AutoClose(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clock.Evaluate(s.now()).SubmissionsOpen {
		return false, nil
	}
	status, err := s.status.LoadStatus(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load contest status: %w", err)
	}
	if !status.Open {
		return false, nil
	}
	if err := s.status.SaveStatus(ctx, domain.ContestStatus{Open: false}); err != nil {
		return false, fmt.Errorf("failed to save contest status: %w", err)
	}
	s.log.Info("submissions auto-closed", "deadline", s.clock.Evaluate(s.now()).SubmissionDeadline)
	return true, nil
}
