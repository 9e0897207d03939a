package setup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/itchan-dev/contestbot/backend/internal/storage/fs"
	"github.com/itchan-dev/contestbot/backend/internal/storage/sqlite"
	"github.com/itchan-dev/contestbot/shared/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, backend string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Public: config.Public{
			SubmissionWindow:  7 * 24 * time.Hour,
			VotingWindow:      10 * 24 * time.Hour,
			CountdownInterval: 10 * time.Minute,
			Discord: config.Discord{
				VoteEmojiName:         "bappotech",
				VoteEmojiId:           "123",
				SubmissionChannelId:   "subs",
				ConfirmationChannelId: "confirm",
				CountdownChannelId:    "countdown",
				CommandPrefix:         "!",
			},
			Tally:   config.Tally{Concurrency: 2, LookupTimeout: time.Second},
			Storage: config.Storage{Backend: backend, DataDir: dir, SqlitePath: filepath.Join(dir, "contest.db")},
		},
		Private: config.Private{DiscordToken: "token", AdminId: "1"},
	}
}

func TestNewStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		storage, err := NewStorage(ctx, testConfig(t, config.BackendFile))
		require.NoError(t, err)
		assert.IsType(t, &fs.Storage{}, storage)
	})

	t.Run("sqlite", func(t *testing.T) {
		storage, err := NewStorage(ctx, testConfig(t, config.BackendSqlite))
		require.NoError(t, err)
		defer storage.Cleanup()
		assert.IsType(t, &sqlite.Storage{}, storage)
	})

	t.Run("postgres without config", func(t *testing.T) {
		_, err := NewStorage(ctx, testConfig(t, config.BackendPostgres))
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewStorage(ctx, testConfig(t, "redis"))
		assert.ErrorContains(t, err, "unknown storage backend")
	})
}

func TestSetupDependencies(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	started := time.Now()

	deps, err := SetupDependencies(context.Background(), cfg, started)
	require.NoError(t, err)
	defer deps.Cleanup()

	assert.True(t, deps.Session.SyncEvents, "events are handled one at a time")
	assert.Equal(t, started.Add(7*24*time.Hour), deps.Countdown.EvaluateOnDemand(started).SubmissionDeadline)

	rr := httptest.NewRecorder()
	deps.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, newLimiter(config.RateLimit{}))

	rl := newLimiter(config.RateLimit{PerMinute: 6, Burst: 2})
	require.NotNil(t, rl)
	assert.True(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))
}
