package discord

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"

	"b3bot/internal/chat"
)

// MessageHandler receives every message the bot can see.
type MessageHandler func(ctx context.Context, m *chat.Message) error

// ReactionHandler receives reaction additions and removals.
type ReactionHandler func(ctx context.Context, ref chat.MessageRef, emoji string) error

// Bot is a Discord connection implementing chat.Transport.
type Bot struct {
	dg *discordgo.Session

	// OnMessage and OnReaction must be set before Run.
	OnMessage  MessageHandler
	OnReaction ReactionHandler

	mu   sync.RWMutex
	ctx  context.Context
	self chat.User
}

var _ chat.Transport = (*Bot)(nil)

// New creates a session for token. It does not connect.
func New(token string) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b := &Bot{dg: dg, ctx: context.Background()}
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onMessageCreate)
	dg.AddHandler(b.onMessageReactionAdd)
	dg.AddHandler(b.onMessageReactionRemove)
	return b, nil
}

// Run connects and blocks until ctx is done. Event handlers receive ctx.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	<-ctx.Done()
	log.Println("[INFO] Shutdown signal received. Leaving voice channels...")
	b.leaveVoice()
	if err := b.dg.Close(); err != nil {
		return fmt.Errorf("failed to close Discord session: %w", err)
	}
	log.Println("[DONE] Discord session closed")
	return nil
}

// Guilds returns the number of guilds in the session state.
func (b *Bot) Guilds() int {
	b.dg.State.RLock()
	defer b.dg.State.RUnlock()
	return len(b.dg.State.Guilds)
}

// VoiceConnections returns the number of open voice connections.
func (b *Bot) VoiceConnections() int {
	b.dg.RLock()
	defer b.dg.RUnlock()
	return len(b.dg.VoiceConnections)
}

func (b *Bot) leaveVoice() {
	b.dg.RLock()
	conns := make([]*discordgo.VoiceConnection, 0, len(b.dg.VoiceConnections))
	for _, vc := range b.dg.VoiceConnections {
		conns = append(conns, vc)
	}
	b.dg.RUnlock()
	for _, vc := range conns {
		if err := vc.Disconnect(); err != nil {
			log.Printf("[WARN] Failed to leave voice in guild %s: %v", vc.GuildID, err)
		}
	}
}

func (b *Bot) eventContext() context.Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ctx
}

func (b *Bot) Self() chat.User {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.self
}
