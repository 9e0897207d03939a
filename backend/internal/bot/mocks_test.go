package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/itchan-dev/contestbot/shared/domain"
)

type MockSubmissionService struct {
	SubmitFunc     func(ctx context.Context, owner domain.OwnerId, content string, attachments []domain.Attachment) (domain.Submission, domain.SubmitOutcome, error)
	ListFunc       func(ctx context.Context) ([]domain.Submission, error)
	GetByIdFunc    func(ctx context.Context, id domain.SubmissionId) (domain.Submission, error)
	GetByOwnerFunc func(ctx context.Context, owner domain.OwnerId) (domain.Submission, error)
	ClearFunc      func(ctx context.Context) error
	StatusFunc     func(ctx context.Context) (domain.ContestStatus, error)
	SetOpenFunc    func(ctx context.Context, open bool) error
	AutoCloseFunc  func(ctx context.Context) (bool, error)
}

func (m *MockSubmissionService) Submit(ctx context.Context, owner domain.OwnerId, content string, attachments []domain.Attachment) (domain.Submission, domain.SubmitOutcome, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, owner, content, attachments)
	}
	return domain.Submission{}, domain.SubmitCreated, nil
}

func (m *MockSubmissionService) List(ctx context.Context) ([]domain.Submission, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockSubmissionService) GetById(ctx context.Context, id domain.SubmissionId) (domain.Submission, error) {
	if m.GetByIdFunc != nil {
		return m.GetByIdFunc(ctx, id)
	}
	return domain.Submission{}, nil
}

func (m *MockSubmissionService) GetByOwner(ctx context.Context, owner domain.OwnerId) (domain.Submission, error) {
	if m.GetByOwnerFunc != nil {
		return m.GetByOwnerFunc(ctx, owner)
	}
	return domain.Submission{}, nil
}

func (m *MockSubmissionService) Clear(ctx context.Context) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	return nil
}

func (m *MockSubmissionService) Status(ctx context.Context) (domain.ContestStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx)
	}
	return domain.ContestStatus{Open: true}, nil
}

func (m *MockSubmissionService) SetOpen(ctx context.Context, open bool) error {
	if m.SetOpenFunc != nil {
		return m.SetOpenFunc(ctx, open)
	}
	return nil
}

func (m *MockSubmissionService) AutoClose(ctx context.Context) (bool, error) {
	if m.AutoCloseFunc != nil {
		return m.AutoCloseFunc(ctx)
	}
	return false, nil
}

type MockTallyService struct {
	TallyFunc  func(ctx context.Context) ([]domain.Submission, domain.TallyReport, error)
	RankedFunc func(ctx context.Context) ([]domain.Submission, error)
}

func (m *MockTallyService) Tally(ctx context.Context) ([]domain.Submission, domain.TallyReport, error) {
	if m.TallyFunc != nil {
		return m.TallyFunc(ctx)
	}
	return nil, domain.TallyReport{}, nil
}

func (m *MockTallyService) Ranked(ctx context.Context) ([]domain.Submission, error) {
	if m.RankedFunc != nil {
		return m.RankedFunc(ctx)
	}
	return nil, nil
}

type MockPhase struct {
	snap domain.PhaseSnapshot
}

func (m *MockPhase) EvaluateOnDemand(now time.Time) domain.PhaseSnapshot {
	return m.snap
}

func (m *MockPhase) Now() time.Time {
	return m.snap.Now
}

type MockBoard struct {
	notices   []string
	stripped  []string
	notifyErr error
	stripErr  error
}

func (m *MockBoard) Notify(ctx context.Context, channelId, text string) error {
	if m.notifyErr != nil {
		return m.notifyErr
	}
	m.notices = append(m.notices, channelId+": "+text)
	return nil
}

func (m *MockBoard) PostCard(ctx context.Context, sub domain.Submission) (domain.BoardHandle, error) {
	return "", nil
}

func (m *MockBoard) EditCard(ctx context.Context, handle domain.BoardHandle, media domain.MediaRef) error {
	return nil
}

func (m *MockBoard) DeleteCard(ctx context.Context, handle domain.BoardHandle) error {
	return nil
}

func (m *MockBoard) SeedVoteReaction(ctx context.Context, handle domain.BoardHandle) error {
	return nil
}

func (m *MockBoard) FetchVoteReactionCount(ctx context.Context, handle domain.BoardHandle) (int, error) {
	return 0, nil
}

func (m *MockBoard) StripDisallowedReaction(ctx context.Context, handle domain.BoardHandle, emoji, userId string) error {
	if m.stripErr != nil {
		return m.stripErr
	}
	m.stripped = append(m.stripped, handle+"/"+emoji+"/"+userId)
	return nil
}

// MockResponder records what the bot says and where.
type MockResponder struct {
	sent    []string
	replies []string
	refs    []*discordgo.MessageReference
}

func (m *MockResponder) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.sent = append(m.sent, content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (m *MockResponder) ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.replies = append(m.replies, content)
	m.refs = append(m.refs, reference)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}
