// Package bot connects Discord gateway events to the contest services:
// direct messages become submissions, prefixed messages become commands and
// foreign reactions on submission cards are stripped.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/itchan-dev/contestbot/backend/internal/ratelimiter"
	"github.com/itchan-dev/contestbot/backend/internal/service"
	"github.com/itchan-dev/contestbot/shared/domain"
	"github.com/itchan-dev/contestbot/shared/logger"
	"github.com/itchan-dev/contestbot/shared/metrics"
)

// eventTimeout bounds the work done for a single gateway event. A tally over
// many cards is the slowest case.
const eventTimeout = 2 * time.Minute

// Responder sends chat replies. *discordgo.Session satisfies it.
type Responder interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ Responder = (*discordgo.Session)(nil)

// PhaseReporter answers the countdown command without mutating anything.
type PhaseReporter interface {
	EvaluateOnDemand(now time.Time) domain.PhaseSnapshot
	Now() time.Time
}

type Config struct {
	Prefix              string
	AdminId             string
	SubmissionChannelId string
	ConfirmationChannel string
	// Limiter throttles submissions and commands per user; nil disables it.
	Limiter *ratelimiter.UserRateLimiter
}

type Bot struct {
	submissions service.SubmissionService
	tally       service.TallyService
	phase       PhaseReporter
	board       service.Board
	guardian    service.ReactionGuardian
	cfg         Config
	log         *slog.Logger
}

func New(
	submissions service.SubmissionService,
	tally service.TallyService,
	phase PhaseReporter,
	board service.Board,
	guardian service.ReactionGuardian,
	cfg Config,
) *Bot {
	if cfg.Prefix == "" {
		cfg.Prefix = "!"
	}
	return &Bot{
		submissions: submissions,
		tally:       tally,
		phase:       phase,
		board:       board,
		guardian:    guardian,
		cfg:         cfg,
		log:         logger.Component("bot"),
	}
}

// Register installs the event handlers and the gateway intents they need.
// Handlers run synchronously so events are processed one at a time.
func (b *Bot) Register(s *discordgo.Session) {
	s.SyncEvents = true
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMessageReactions

	s.AddHandler(b.onReady)
	s.AddHandler(b.onMessageCreate)
	s.AddHandler(b.onMessageReactionAdd)
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("logged in", "user", r.User.Username, "guilds", len(r.Guilds))
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	b.HandleMessage(ctx, s, messageFrom(m.Message))
}

func (b *Bot) onMessageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	selfId := ""
	if s.State != nil && s.State.User != nil {
		selfId = s.State.User.ID
	}
	isBot := r.UserID == selfId || (r.Member != nil && r.Member.User != nil && r.Member.User.Bot)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	b.HandleReaction(ctx, Reaction{
		ChannelId: r.ChannelID,
		MessageId: r.MessageID,
		UserId:    r.UserID,
		UserBot:   isBot,
		EmojiId:   r.Emoji.ID,
		Emoji:     r.Emoji.APIName(),
	})
}

// Message is the part of an inbound chat message the bot acts on.
type Message struct {
	Id          string
	ChannelId   string
	GuildId     string
	AuthorId    string
	AuthorBot   bool
	Content     string
	Attachments []domain.Attachment
}

// Direct reports whether the message arrived in a DM channel.
func (m Message) Direct() bool {
	return m.GuildId == ""
}

func (m Message) reference() *discordgo.MessageReference {
	return &discordgo.MessageReference{MessageID: m.Id, ChannelID: m.ChannelId, GuildID: m.GuildId}
}

func messageFrom(m *discordgo.Message) Message {
	attachments := make([]domain.Attachment, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, domain.Attachment{URL: a.URL, ContentType: a.ContentType})
	}
	return Message{
		Id:          m.ID,
		ChannelId:   m.ChannelID,
		GuildId:     m.GuildID,
		AuthorId:    m.Author.ID,
		AuthorBot:   m.Author.Bot,
		Content:     m.Content,
		Attachments: attachments,
	}
}

type Reaction struct {
	ChannelId string
	MessageId string
	UserId    string
	UserBot   bool
	EmojiId   string
	Emoji     string // "name:id" for custom emoji, the character otherwise
}

// HandleMessage routes one inbound message. Bot authors are ignored,
// prefixed messages are commands and any other direct message is a submission.
func (b *Bot) HandleMessage(ctx context.Context, r Responder, m Message) {
	if m.AuthorBot {
		return
	}
	log := b.log.With("event_id", uuid.NewString(), "author", m.AuthorId, "channel", m.ChannelId)

	name, args, isCommand := b.parseCommand(m.Content)
	if !isCommand && !m.Direct() {
		return
	}
	if !b.allow(m.AuthorId) {
		log.Warn("rate limited")
		b.reply(log, r, m, slowDown)
		return
	}

	if isCommand {
		log.Info("command received", "command", name)
		b.dispatch(ctx, log, r, m, name, args)
		return
	}

	sub, outcome, err := b.submissions.Submit(ctx, m.AuthorId, m.Content, m.Attachments)
	if err != nil {
		log.Warn("submission rejected", "error", err)
		b.reply(log, r, m, userMessage(err))
		return
	}
	log.Info("submission accepted", "submission_id", sub.Id, "outcome", outcome)
	if outcome == domain.SubmitUpdated {
		b.reply(log, r, m, "🔁 Submission updated!")
	} else {
		b.reply(log, r, m, "✅ Submission received!")
	}
}

// HandleReaction strips every reaction other than the vote emoji from cards
// in the submission channel, whoever submitted the card.
func (b *Bot) HandleReaction(ctx context.Context, r Reaction) {
	if r.UserBot || r.ChannelId != b.cfg.SubmissionChannelId {
		return
	}
	if b.guardian.IsAllowedReaction(r.EmojiId) {
		return
	}
	if err := b.board.StripDisallowedReaction(ctx, r.MessageId, r.Emoji, r.UserId); err != nil {
		b.log.Error("failed to remove disallowed reaction",
			"message", r.MessageId, "emoji", r.Emoji, "user", r.UserId, "error", err)
		return
	}
	metrics.StrippedReactionsTotal.Inc()
	b.log.Debug("removed disallowed reaction", "message", r.MessageId, "emoji", r.Emoji, "user", r.UserId)
}

const slowDown = "⏳ Slow down, try again in a moment."

// allow applies the per-user limit. The admin is never throttled.
func (b *Bot) allow(userId string) bool {
	if b.cfg.Limiter == nil || userId == b.cfg.AdminId {
		return true
	}
	return b.cfg.Limiter.Allow(userId)
}

func (b *Bot) parseCommand(content string) (string, string, bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, b.cfg.Prefix) {
		return "", "", false
	}
	fields := strings.Fields(strings.TrimPrefix(content, b.cfg.Prefix))
	if len(fields) == 0 {
		return "", "", false
	}
	name := strings.ToLower(fields[0])
	if _, ok := commands[name]; !ok {
		return "", "", false
	}
	return name, strings.Join(fields[1:], " "), true
}

func (b *Bot) reply(log *slog.Logger, r Responder, m Message, text string) {
	if _, err := r.ChannelMessageSendReply(m.ChannelId, text, m.reference()); err != nil {
		log.Error("failed to send reply", "error", err)
	}
}

func (b *Bot) send(log *slog.Logger, r Responder, channelId, text string) {
	if _, err := r.ChannelMessageSend(channelId, text); err != nil {
		log.Error("failed to send message", "error", err)
	}
}
