package domain

import (
	"fmt"
	"time"
)

type (
	SubmissionId = int64
	OwnerId      = string
	BoardHandle  = string // message id of the posted card in the submission channel
	MediaRef     = string
)

// RecordVersion is the schema version written with every stored submission.
const RecordVersion = 1

type Submission struct {
	Version        int          `json:"version"`
	Id             SubmissionId `json:"id"`
	OwnerId        OwnerId      `json:"ownerId"`
	MediaReference MediaRef     `json:"mediaReference"`
	BoardHandle    BoardHandle  `json:"boardHandle"`
	VoteCount      int          `json:"voteCount"`
}

// Attachment is a file attached to an inbound direct message.
type Attachment struct {
	URL         string
	ContentType string
}

type ContestStatus struct {
	Open bool `json:"open"`
}

type Phase string

const (
	PhaseSubmission Phase = "submission"
	PhaseVoting     Phase = "voting"
	PhaseClosed     Phase = "closed"
)

// PhaseSnapshot is the derived contest state at a given instant.
type PhaseSnapshot struct {
	Now                time.Time `json:"now"`
	SubmissionsOpen    bool      `json:"submissionsOpen"`
	VotingOpen         bool      `json:"votingOpen"`
	Phase              Phase     `json:"phase"`
	SubmissionDeadline time.Time `json:"submissionDeadline"`
	VotingDeadline     time.Time `json:"votingDeadline"`
}

// Finished reports whether both windows are over.
func (p PhaseSnapshot) Finished() bool {
	return !p.SubmissionsOpen && !p.VotingOpen
}

type SubmitOutcome string

const (
	SubmitCreated SubmitOutcome = "created"
	SubmitUpdated SubmitOutcome = "updated"
)

// TallyReport summarizes a tally recompute.
type TallyReport struct {
	Refreshed int
	Failed    []SubmissionId
}

// CheckSet verifies the invariants of a full submission set before it is
// stored: unique ids, unique owners, known record version.
func CheckSet(subs []Submission) error {
	ids := make(map[SubmissionId]bool, len(subs))
	owners := make(map[OwnerId]bool, len(subs))
	for _, sub := range subs {
		if sub.Version > RecordVersion {
			return fmt.Errorf("submission #%d has unknown record version %d", sub.Id, sub.Version)
		}
		if ids[sub.Id] {
			return fmt.Errorf("duplicate submission id %d", sub.Id)
		}
		if owners[sub.OwnerId] {
			return fmt.Errorf("duplicate owner %s", sub.OwnerId)
		}
		ids[sub.Id] = true
		owners[sub.OwnerId] = true
	}
	return nil
}
