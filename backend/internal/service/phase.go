package service

import (
	"time"

	"github.com/itchan-dev/contestbot/shared/domain"
)

// EvaluatePhase derives the contest phase at now. It has no side effects and
// is monotonic in now: once a window is over it stays over.
func EvaluatePhase(now, launch time.Time, submissionWindow, votingWindow time.Duration) domain.PhaseSnapshot {
	snap := domain.PhaseSnapshot{
		Now:                now,
		SubmissionDeadline: launch.Add(submissionWindow),
		VotingDeadline:     launch.Add(votingWindow),
	}
	snap.SubmissionsOpen = now.Before(snap.SubmissionDeadline)
	snap.VotingOpen = now.Before(snap.VotingDeadline)

	switch {
	case snap.SubmissionsOpen:
		snap.Phase = domain.PhaseSubmission
	case snap.VotingOpen:
		snap.Phase = domain.PhaseVoting
	default:
		snap.Phase = domain.PhaseClosed
	}
	return snap
}

// PhaseClock binds the launch instant and window lengths of one contest.
type PhaseClock struct {
	Launch           time.Time
	SubmissionWindow time.Duration
	VotingWindow     time.Duration
}

func NewPhaseClock(launch time.Time, submissionWindow, votingWindow time.Duration) PhaseClock {
	return PhaseClock{Launch: launch, SubmissionWindow: submissionWindow, VotingWindow: votingWindow}
}

func (c PhaseClock) Evaluate(now time.Time) domain.PhaseSnapshot {
	return EvaluatePhase(now, c.Launch, c.SubmissionWindow, c.VotingWindow)
}
