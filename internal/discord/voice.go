package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"b3bot/internal/chat"
)

func (b *Bot) VoiceChannels(ctx context.Context, guildID string) ([]chat.VoiceChannel, error) {
	channels, err := b.dg.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list channels of %s: %w", guildID, err)
	}
	var out []chat.VoiceChannel
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildVoice {
			out = append(out, chat.VoiceChannel{ID: ch.ID, GuildID: guildID, Name: ch.Name})
		}
	}
	return out, nil
}

func (b *Bot) VoiceConnection(guildID string) (chat.VoiceConn, bool) {
	if guildID == "" {
		return nil, false
	}
	b.dg.RLock()
	vc, ok := b.dg.VoiceConnections[guildID]
	b.dg.RUnlock()
	if !ok || vc == nil {
		return nil, false
	}
	return &voiceConn{bot: b, vc: vc}, true
}

func (b *Bot) JoinVoice(ctx context.Context, ch chat.VoiceChannel) (chat.VoiceConn, error) {
	vc, err := b.dg.ChannelVoiceJoin(ch.GuildID, ch.ID, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join %s: %w", ch.Name, err)
	}
	return &voiceConn{bot: b, vc: vc}, nil
}

type voiceConn struct {
	bot *Bot
	vc  *discordgo.VoiceConnection
}

func (v *voiceConn) Channel() chat.VoiceChannel {
	v.vc.RLock()
	id, guildID := v.vc.ChannelID, v.vc.GuildID
	v.vc.RUnlock()

	ch := chat.VoiceChannel{ID: id, GuildID: guildID, Name: id}
	if c, err := v.bot.dg.State.Channel(id); err == nil {
		ch.Name = c.Name
	}
	return ch
}

func (v *voiceConn) Move(ctx context.Context, to chat.VoiceChannel) error {
	if err := v.vc.ChangeChannel(to.ID, false, true); err != nil {
		return fmt.Errorf("failed to move to %s: %w", to.Name, err)
	}
	return nil
}

func (v *voiceConn) Disconnect(ctx context.Context) error {
	return v.vc.Disconnect()
}

func (v *voiceConn) Speaking(on bool) error {
	return v.vc.Speaking(on)
}

func (v *voiceConn) OpusSend() chan<- []byte {
	return v.vc.OpusSend
}
