package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReactionGuardian(t *testing.T) {
	g := NewReactionGuardian("1256552383631331449")

	assert.True(t, g.IsAllowedReaction("1256552383631331449"))
	assert.False(t, g.IsAllowedReaction("999"))
	assert.False(t, g.IsAllowedReaction(""), "unicode emoji carry no id")
	assert.False(t, NewReactionGuardian("").IsAllowedReaction(""))
}
