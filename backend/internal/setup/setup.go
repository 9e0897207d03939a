package setup

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/itchan-dev/contestbot/backend/internal/board/discord"
	"github.com/itchan-dev/contestbot/backend/internal/bot"
	"github.com/itchan-dev/contestbot/backend/internal/handler"
	"github.com/itchan-dev/contestbot/backend/internal/ratelimiter"
	"github.com/itchan-dev/contestbot/backend/internal/router"
	"github.com/itchan-dev/contestbot/backend/internal/service"
	"github.com/itchan-dev/contestbot/backend/internal/storage/fs"
	"github.com/itchan-dev/contestbot/backend/internal/storage/pg"
	"github.com/itchan-dev/contestbot/backend/internal/storage/sqlite"
	"github.com/itchan-dev/contestbot/shared/config"
	"github.com/itchan-dev/contestbot/shared/logger"
)

// Storage is what every backend provides: submissions, status and a probe.
type Storage interface {
	service.SubmissionRepository
	service.StatusStore
	Ping(ctx context.Context) error
	Cleanup() error
}

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config      *config.Config
	Storage     Storage
	Session     *discordgo.Session
	Board       *discord.Board
	Submissions *service.Submission
	Tally       *service.Tally
	Countdown   *service.Countdown
	Bot         *bot.Bot
	Router      http.Handler
}

// SetupDependencies initializes all dependencies required for the application.
// started is the process start time, used as the launch instant when none is configured.
func SetupDependencies(ctx context.Context, cfg *config.Config, started time.Time) (*Dependencies, error) {
	storage, err := NewStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	session, err := discordgo.New("Bot " + cfg.Private.DiscordToken)
	if err != nil {
		storage.Cleanup()
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	d := cfg.Public.Discord
	board := discord.New(session, d.SubmissionChannelId, d.VoteEmojiName, d.VoteEmojiId)
	clock := service.NewPhaseClock(cfg.Launch(started), cfg.Public.SubmissionWindow, cfg.Public.VotingWindow)

	// submissions and tally both rewrite the full set, so they share one lock
	lock := &sync.Mutex{}
	submissions := service.NewSubmission(storage, storage, board, clock, time.Now, d.ConfirmationChannelId, lock)
	tally := service.NewTally(storage, board, cfg.Public.Tally.Concurrency, cfg.Public.Tally.LookupTimeout, lock)
	countdown := service.NewCountdown(clock, submissions, board, d.CountdownChannelId, time.Now)

	b := bot.New(submissions, tally, countdown, board, service.NewReactionGuardian(d.VoteEmojiId), bot.Config{
		Prefix:              d.CommandPrefix,
		AdminId:             cfg.Private.AdminId,
		SubmissionChannelId: d.SubmissionChannelId,
		ConfirmationChannel: d.ConfirmationChannelId,
		Limiter:             newLimiter(cfg.Public.RateLimit),
	})
	b.Register(session)

	h := handler.New(submissions, tally, countdown, storage)

	return &Dependencies{
		Config:      cfg,
		Storage:     storage,
		Session:     session,
		Board:       board,
		Submissions: submissions,
		Tally:       tally,
		Countdown:   countdown,
		Bot:         b,
		Router:      router.New(h, cfg.Public.Http.AllowedOrigins),
	}, nil
}

func newLimiter(rl config.RateLimit) *ratelimiter.UserRateLimiter {
	if rl.PerMinute <= 0 {
		return nil
	}
	return ratelimiter.PerMinute(rl.PerMinute, rl.Burst)
}

// NewStorage opens the configured storage backend.
func NewStorage(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.Public.Storage.Backend {
	case config.BackendPostgres:
		return pg.New(ctx, cfg)
	case config.BackendSqlite:
		return sqlite.New(ctx, cfg.Public.Storage.SqlitePath)
	case config.BackendFile, "":
		return fs.New(cfg.Public.Storage.DataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Public.Storage.Backend)
	}
}

func (d *Dependencies) Cleanup() {
	if err := d.Storage.Cleanup(); err != nil {
		logger.Log.Error("failed to close storage", "error", err)
	}
}
