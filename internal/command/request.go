// Package command turns chat messages into command invocations and holds the
// bot's command handlers.
package command

import (
	"time"

	"b3bot/internal/auth"
	"b3bot/internal/chat"
	"b3bot/internal/ephemeral"
	"b3bot/internal/metrics"
	"b3bot/internal/music"
	"b3bot/internal/paste"
	"b3bot/internal/poll"
	"b3bot/internal/purge"
	"b3bot/pkg/cmd"
)

// Services is the state and collaborators shared by all handlers.
type Services struct {
	Transport chat.Transport
	Gate      *auth.Gate
	Cleanup   *ephemeral.Manager
	Polls     *poll.Tracker
	Music     *music.Sessions
	Purge     *purge.Worker
	Paste     paste.Uploader
	Metrics   *metrics.Metrics

	BotName  string
	Prefix   string
	ClientID string
	// Nap is how long sleep waits before waking up.
	Nap time.Duration
	// Source is the program text published by the source command.
	Source []byte
}

// Request is one command invocation.
type Request struct {
	*Services
	Registry *cmd.Registry
	Message  *chat.Message
	Name     string
	Args     []string
}

// GuildID returns the guild the command was sent in, if any.
func (r *Request) GuildID() string { return r.Message.GuildID }

// ChannelID returns the channel the command was sent in.
func (r *Request) ChannelID() string { return r.Message.ChannelID }

// requestFrom extracts the Request a dispatcher attached to inv.
func requestFrom(inv *cmd.Invocation) (*Request, bool) {
	r, ok := inv.Data.(*Request)
	return r, ok
}
