// Package handler serves the read-only ops API next to the bot: probes,
// submissions, standings and the current phase.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/itchan-dev/contestbot/backend/internal/service"
	"github.com/itchan-dev/contestbot/shared/domain"
	internal_errors "github.com/itchan-dev/contestbot/shared/errors"
	"github.com/itchan-dev/contestbot/shared/utils"
)

// HealthChecker reports whether the storage backend is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// PhaseReporter evaluates the phase clock without side effects.
type PhaseReporter interface {
	EvaluateOnDemand(now time.Time) domain.PhaseSnapshot
	Now() time.Time
}

type Handler struct {
	submissions service.SubmissionService
	tally       service.TallyService
	phase       PhaseReporter
	health      HealthChecker
}

func New(submissions service.SubmissionService, tally service.TallyService, phase PhaseReporter, health HealthChecker) *Handler {
	return &Handler{
		submissions: submissions,
		tally:       tally,
		phase:       phase,
		health:      health,
	}
}

// ListSubmissions returns every stored submission ordered by id.
func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissions.List(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, subs)
}

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		utils.WriteErrorAndStatusCode(w, &internal_errors.ErrorWithStatusCode{
			Message:    "invalid id: must be a positive integer",
			StatusCode: http.StatusBadRequest,
		})
		return
	}

	sub, err := h.submissions.GetById(r.Context(), domain.SubmissionId(id))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, sub)
}

// Standings ranks submissions by their stored vote counts. It never talks to
// Discord; the counts are as fresh as the last tally.
func (h *Handler) Standings(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.tally.Ranked(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, ranked)
}

type phaseResponse struct {
	domain.PhaseSnapshot
	ManuallyOpen bool `json:"manuallyOpen"`
	Accepting    bool `json:"accepting"`
}

// Phase reports the phase clock together with the manual open switch.
func (h *Handler) Phase(w http.ResponseWriter, r *http.Request) {
	status, err := h.submissions.Status(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	snap := h.phase.EvaluateOnDemand(h.phase.Now())
	utils.WriteJSON(w, phaseResponse{
		PhaseSnapshot: snap,
		ManuallyOpen:  status.Open,
		Accepting:     status.Open && snap.SubmissionsOpen,
	})
}
