package discord

import (
	"log"

	"github.com/bwmarrin/discordgo"

	"b3bot/internal/chat"
)

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.mu.Lock()
	b.self = toUser(r.User)
	b.mu.Unlock()
	log.Printf("[INFO] Logged in as %s (%s)", r.User.Username, r.User.ID)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || b.OnMessage == nil {
		return
	}
	if err := b.OnMessage(b.eventContext(), toMessage(m.Message)); err != nil {
		log.Printf("[ERR] Error handling message %s in %s: %v", m.ID, m.ChannelID, err)
	}
}

func (b *Bot) onMessageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	b.reaction(r.MessageReaction)
}

func (b *Bot) onMessageReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	b.reaction(r.MessageReaction)
}

func (b *Bot) reaction(r *discordgo.MessageReaction) {
	if r == nil || b.OnReaction == nil {
		return
	}
	ref := chat.MessageRef{ChannelID: r.ChannelID, ID: r.MessageID}
	if err := b.OnReaction(b.eventContext(), ref, r.Emoji.Name); err != nil {
		log.Printf("[ERR] Error handling reaction on %s: %v", r.MessageID, err)
	}
}

func toUser(u *discordgo.User) chat.User {
	if u == nil {
		return chat.User{}
	}
	return chat.User{ID: u.ID, Name: u.Username, Bot: u.Bot}
}

func toMessage(m *discordgo.Message) *chat.Message {
	out := &chat.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Author:    toUser(m.Author),
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	for _, u := range m.Mentions {
		out.Mentions = append(out.Mentions, toUser(u))
	}
	return out
}
