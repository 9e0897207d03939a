// Package discord implements the submission board on top of a Discord channel.
// Every submission is one embed card in the submission channel, and the vote
// count is the number of distinguished reactions on that card.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/itchan-dev/contestbot/backend/internal/service"
	"github.com/itchan-dev/contestbot/shared/domain"
)

const cardColor = 0x2f3136

// Session is the subset of *discordgo.Session the board needs.
type Session interface {
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageReactionRemove(channelID, messageID, emojiID, userID string, options ...discordgo.RequestOption) error
}

var _ Session = (*discordgo.Session)(nil)

type Board struct {
	session   Session
	channelId string
	emojiName string
	emojiId   string
}

var _ service.Board = (*Board)(nil)

func New(session Session, channelId, emojiName, emojiId string) *Board {
	return &Board{
		session:   session,
		channelId: channelId,
		emojiName: emojiName,
		emojiId:   emojiId,
	}
}

// voteEmoji is the "name:id" form the reaction endpoints expect.
func (b *Board) voteEmoji() string {
	return b.emojiName + ":" + b.emojiId
}

func (b *Board) card(sub domain.Submission) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("📸 Submission #%d", sub.Id),
		Image:  &discordgo.MessageEmbedImage{URL: sub.MediaReference},
		Color:  cardColor,
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Vote with :%s:", b.emojiName)},
	}
}

func (b *Board) PostCard(ctx context.Context, sub domain.Submission) (domain.BoardHandle, error) {
	msg, err := b.session.ChannelMessageSendEmbed(b.channelId, b.card(sub), discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// EditCard swaps the image on an existing card and keeps everything else.
func (b *Board) EditCard(ctx context.Context, handle domain.BoardHandle, media domain.MediaRef) error {
	msg, err := b.session.ChannelMessage(b.channelId, handle, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	var embed discordgo.MessageEmbed
	if len(msg.Embeds) > 0 && msg.Embeds[0] != nil {
		embed = *msg.Embeds[0]
	}
	embed.Image = &discordgo.MessageEmbedImage{URL: media}
	_, err = b.session.ChannelMessageEditEmbed(b.channelId, handle, &embed, discordgo.WithContext(ctx))
	return err
}

// DeleteCard removes a card that never made it into the store.
func (b *Board) DeleteCard(ctx context.Context, handle domain.BoardHandle) error {
	return b.session.ChannelMessageDelete(b.channelId, handle, discordgo.WithContext(ctx))
}

func (b *Board) SeedVoteReaction(ctx context.Context, handle domain.BoardHandle) error {
	return b.session.MessageReactionAdd(b.channelId, handle, b.voteEmoji(), discordgo.WithContext(ctx))
}

// FetchVoteReactionCount returns the raw count of the vote reaction,
// the seed reaction included. A card without the reaction counts zero.
func (b *Board) FetchVoteReactionCount(ctx context.Context, handle domain.BoardHandle) (int, error) {
	msg, err := b.session.ChannelMessage(b.channelId, handle, discordgo.WithContext(ctx))
	if err != nil {
		return 0, err
	}
	for _, r := range msg.Reactions {
		if r != nil && r.Emoji != nil && r.Emoji.ID == b.emojiId {
			return r.Count, nil
		}
	}
	return 0, nil
}

// StripDisallowedReaction removes one user's reaction from a card. emoji is
// either a unicode emoji or "name:id" for custom ones.
func (b *Board) StripDisallowedReaction(ctx context.Context, handle domain.BoardHandle, emoji, userId string) error {
	return b.session.MessageReactionRemove(b.channelId, handle, emoji, userId, discordgo.WithContext(ctx))
}

func (b *Board) Notify(ctx context.Context, channelId, text string) error {
	_, err := b.session.ChannelMessageSend(channelId, text, discordgo.WithContext(ctx))
	return err
}
