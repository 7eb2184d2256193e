// Package chat defines the narrow view of the chat service that the command
// core depends on. internal/discord implements it on top of discordgo;
// chattest implements it in memory.
package chat

import (
	"context"
	"io"
	"iter"
	"time"
)

// User is a chat account.
type User struct {
	ID   string
	Name string
	Bot  bool
}

// MessageRef identifies a message for edits and deletes.
type MessageRef struct {
	ChannelID string
	ID        string
}

// Message is a received or sent text message.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string // empty outside guilds
	Author    User
	Content   string
	Mentions  []User
	Timestamp time.Time
}

// Ref returns the reference used to edit or delete m.
func (m *Message) Ref() MessageRef {
	return MessageRef{ChannelID: m.ChannelID, ID: m.ID}
}

// Reaction is one emoji on a message together with how many users added it.
type Reaction struct {
	Emoji string
	Count int
}

// Role is a guild role.
type Role struct {
	ID   string
	Name string
}

// VoiceChannel is a guild channel that carries audio.
type VoiceChannel struct {
	ID      string
	GuildID string
	Name    string
}

// VoiceConn is an established voice connection in one guild.
type VoiceConn interface {
	Channel() VoiceChannel
	Move(ctx context.Context, to VoiceChannel) error
	Disconnect(ctx context.Context) error
	Speaking(on bool) error
	// OpusSend accepts 20ms Opus frames for playback.
	OpusSend() chan<- []byte
}

// Transport is everything the bot does against the chat service.
type Transport interface {
	// Self is the bot's own account.
	Self() User

	SendText(ctx context.Context, channelID, text string) (*Message, error)
	EditText(ctx context.Context, ref MessageRef, text string) error
	Delete(ctx context.Context, ref MessageRef) error
	SendAttachment(ctx context.Context, channelID, filename string, r io.Reader) (*Message, error)
	SendTyping(ctx context.Context, channelID string) error

	// History yields messages strictly after the given time, oldest first.
	// Pages are fetched lazily as the sequence is consumed.
	History(ctx context.Context, channelID string, after time.Time) iter.Seq2[*Message, error]
	// Reactions returns the current reaction snapshot of a message.
	Reactions(ctx context.Context, ref MessageRef) ([]Reaction, error)

	VoiceChannels(ctx context.Context, guildID string) ([]VoiceChannel, error)
	VoiceConnection(guildID string) (VoiceConn, bool)
	JoinVoice(ctx context.Context, ch VoiceChannel) (VoiceConn, error)

	GuildRoles(ctx context.Context, guildID string) ([]Role, error)
	// MemberRoles returns the role IDs held by a guild member.
	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)
}
