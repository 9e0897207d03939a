package service

import (
	"context"

	"github.com/itchan-dev/contestbot/shared/domain"
)

// SubmissionRepository is the durable store of submissions.
// SaveAll replaces the full set atomically.
type SubmissionRepository interface {
	Load(ctx context.Context) ([]domain.Submission, error)
	SaveAll(ctx context.Context, subs []domain.Submission) error
}

type StatusStore interface {
	LoadStatus(ctx context.Context) (domain.ContestStatus, error)
	SaveStatus(ctx context.Context, status domain.ContestStatus) error
}

// Notifier sends a plain text line to a channel.
type Notifier interface {
	Notify(ctx context.Context, channelId, text string) error
}

// Board is the messaging surface holding one card per submission.
type Board interface {
	Notifier
	PostCard(ctx context.Context, sub domain.Submission) (domain.BoardHandle, error)
	EditCard(ctx context.Context, handle domain.BoardHandle, media domain.MediaRef) error
	DeleteCard(ctx context.Context, handle domain.BoardHandle) error
	SeedVoteReaction(ctx context.Context, handle domain.BoardHandle) error
	FetchVoteReactionCount(ctx context.Context, handle domain.BoardHandle) (int, error)
	StripDisallowedReaction(ctx context.Context, handle domain.BoardHandle, emoji, userId string) error
}

// ReactionLookup returns the raw count of the vote reaction on a card.
type ReactionLookup func(ctx context.Context, handle domain.BoardHandle) (int, error)
