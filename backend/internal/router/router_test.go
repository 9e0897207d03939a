package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/itchan-dev/contestbot/backend/internal/handler"
	"github.com/itchan-dev/contestbot/backend/internal/service"
	"github.com/itchan-dev/contestbot/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct{ subs []domain.Submission }

func (m *memRepo) Load(ctx context.Context) ([]domain.Submission, error) { return m.subs, nil }
func (m *memRepo) SaveAll(ctx context.Context, subs []domain.Submission) error {
	m.subs = subs
	return nil
}

type memStatus struct{}

func (memStatus) LoadStatus(ctx context.Context) (domain.ContestStatus, error) {
	return domain.ContestStatus{Open: true}, nil
}
func (memStatus) SaveStatus(ctx context.Context, status domain.ContestStatus) error { return nil }

type nopBoard struct{}

func (nopBoard) Notify(ctx context.Context, channelId, text string) error { return nil }
func (nopBoard) PostCard(ctx context.Context, sub domain.Submission) (domain.BoardHandle, error) {
	return "", nil
}
func (nopBoard) EditCard(ctx context.Context, handle domain.BoardHandle, media domain.MediaRef) error {
	return nil
}
func (nopBoard) DeleteCard(ctx context.Context, handle domain.BoardHandle) error       { return nil }
func (nopBoard) SeedVoteReaction(ctx context.Context, handle domain.BoardHandle) error { return nil }
func (nopBoard) FetchVoteReactionCount(ctx context.Context, handle domain.BoardHandle) (int, error) {
	return 1, nil
}
func (nopBoard) StripDisallowedReaction(ctx context.Context, handle domain.BoardHandle, emoji, userId string) error {
	return nil
}

type alwaysUp struct{}

func (alwaysUp) Ping(ctx context.Context) error { return nil }

func newRouter() http.Handler {
	launch := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return launch.Add(time.Hour) }
	clock := service.NewPhaseClock(launch, 7*24*time.Hour, 10*24*time.Hour)
	repo := &memRepo{subs: []domain.Submission{{Version: 1, Id: 1, OwnerId: "a", VoteCount: 1}}}

	subs := service.NewSubmission(repo, memStatus{}, nopBoard{}, clock, now, "", nil)
	tally := service.NewTally(repo, nopBoard{}, 1, time.Second, nil)
	countdown := service.NewCountdown(clock, subs, nopBoard{}, "", now)

	return New(handler.New(subs, tally, countdown, alwaysUp{}), []string{"http://localhost:3000"})
}

func TestRoutes(t *testing.T) {
	r := newRouter()

	for _, path := range []string{"/health", "/ready", "/metrics", "/v1/submissions", "/v1/submissions/1", "/v1/standings", "/v1/phase"} {
		t.Run(path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rr.Code)
		})
	}

	t.Run("writes are not routed", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/submissions", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}

func TestCORS(t *testing.T) {
	r := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/phase", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}
