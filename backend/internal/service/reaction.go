package service

// ReactionGuardian decides which reactions may stay on submission cards.
type ReactionGuardian struct {
	voteEmojiId string
}

func NewReactionGuardian(voteEmojiId string) ReactionGuardian {
	return ReactionGuardian{voteEmojiId: voteEmojiId}
}

// IsAllowedReaction is true only for the vote emoji. Unicode emoji have an
// empty id and are never allowed.
func (g ReactionGuardian) IsAllowedReaction(emojiId string) bool {
	return emojiId != "" && emojiId == g.voteEmojiId
}
