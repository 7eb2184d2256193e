package discord

import (
	"context"
	"fmt"
	"io"

	"github.com/bwmarrin/discordgo"

	"b3bot/internal/chat"
)

func (b *Bot) SendText(ctx context.Context, channelID, text string) (*chat.Message, error) {
	m, err := b.dg.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to send message to %s: %w", channelID, err)
	}
	return toMessage(m), nil
}

func (b *Bot) EditText(ctx context.Context, ref chat.MessageRef, text string) error {
	if _, err := b.dg.ChannelMessageEdit(ref.ChannelID, ref.ID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to edit message %s: %w", ref.ID, err)
	}
	return nil
}

func (b *Bot) Delete(ctx context.Context, ref chat.MessageRef) error {
	if err := b.dg.ChannelMessageDelete(ref.ChannelID, ref.ID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", ref.ID, wrapREST(err))
	}
	return nil
}

func (b *Bot) SendAttachment(ctx context.Context, channelID, filename string, r io.Reader) (*chat.Message, error) {
	m, err := b.dg.ChannelFileSend(channelID, filename, r, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s to %s: %w", filename, channelID, err)
	}
	return toMessage(m), nil
}

func (b *Bot) SendTyping(ctx context.Context, channelID string) error {
	return b.dg.ChannelTyping(channelID, discordgo.WithContext(ctx))
}

func (b *Bot) Reactions(ctx context.Context, ref chat.MessageRef) ([]chat.Reaction, error) {
	m, err := b.dg.ChannelMessage(ref.ChannelID, ref.ID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", ref.ID, err)
	}
	out := make([]chat.Reaction, 0, len(m.Reactions))
	for _, r := range m.Reactions {
		if r.Emoji == nil {
			continue
		}
		out = append(out, chat.Reaction{Emoji: r.Emoji.Name, Count: r.Count})
	}
	return out, nil
}

// guild returns the guild from state, falling back to the API.
func (b *Bot) guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if g, err := b.dg.State.Guild(guildID); err == nil {
		return g, nil
	}
	g, err := b.dg.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild %s: %w", guildID, err)
	}
	return g, nil
}

func (b *Bot) GuildRoles(ctx context.Context, guildID string) ([]chat.Role, error) {
	g, err := b.guild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	out := make([]chat.Role, len(g.Roles))
	for i, r := range g.Roles {
		out[i] = chat.Role{ID: r.ID, Name: r.Name}
	}
	return out, nil
}

func (b *Bot) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	m, err := b.dg.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member %s: %w", userID, err)
	}
	return m.Roles, nil
}
