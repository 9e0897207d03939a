package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckSet(t *testing.T) {
	assert.NoError(t, CheckSet(nil))
	assert.NoError(t, CheckSet([]Submission{{Id: 1, OwnerId: "a", Version: 1}, {Id: 2, OwnerId: "b"}}))

	assert.ErrorContains(t, CheckSet([]Submission{{Id: 1, OwnerId: "a"}, {Id: 1, OwnerId: "b"}}), "duplicate submission id")
	assert.ErrorContains(t, CheckSet([]Submission{{Id: 1, OwnerId: "a"}, {Id: 2, OwnerId: "a"}}), "duplicate owner")
	assert.ErrorContains(t, CheckSet([]Submission{{Id: 1, OwnerId: "a", Version: RecordVersion + 1}}), "record version")
}

func TestPhaseSnapshotFinished(t *testing.T) {
	assert.False(t, PhaseSnapshot{SubmissionsOpen: true, VotingOpen: true}.Finished())
	assert.False(t, PhaseSnapshot{VotingOpen: true}.Finished())
	assert.True(t, PhaseSnapshot{}.Finished())
}
