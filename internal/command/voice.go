package command

import (
	"context"
	"strings"

	"b3bot/internal/chat"
	"b3bot/internal/music"
	"b3bot/pkg/cmd"
)

type VoiceJoinCommand struct {
	BotName string
}

func (c *VoiceJoinCommand) Name() string { return "vjoin" }
func (c *VoiceJoinCommand) Description() string {
	return "Tells " + c.BotName + " to join a voice channel"
}
func (c *VoiceJoinCommand) Aliases() []string       { return []string{"voice", "join"} }
func (c *VoiceJoinCommand) RequiresPrivilege() bool { return true }

func (c *VoiceJoinCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	r, ok := requestFrom(inv)
	if !ok || r.GuildID() == "" {
		return nil
	}

	channels, err := r.Transport.VoiceChannels(ctx, r.GuildID())
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return r.Reply(ctx, "No voice channels")
	}

	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = ch.Name
	}
	choose := "Choose one of: " + strings.Join(names, ", ")
	if len(r.Args) == 0 {
		return r.Reply(ctx, choose)
	}

	want := strings.Join(r.Args, " ")
	var dest *chat.VoiceChannel
	for i := range channels {
		if channels[i].Name == want {
			dest = &channels[i]
			break
		}
	}
	if dest == nil {
		return &InvalidArgumentsError{Usage: choose}
	}

	if vc, ok := r.Transport.VoiceConnection(r.GuildID()); ok {
		err = vc.Move(ctx, *dest)
	} else {
		_, err = r.Transport.JoinVoice(ctx, *dest)
	}
	if err != nil {
		return err
	}
	return r.Reply(ctx, "Joined "+dest.Name)
}

type VoicePartCommand struct {
	BotName string
}

func (c *VoicePartCommand) Name() string { return "vpart" }
func (c *VoicePartCommand) Description() string {
	return "Tells " + c.BotName + " to leave the connected voice channel"
}
func (c *VoicePartCommand) Aliases() []string       { return []string{"leave"} }
func (c *VoicePartCommand) RequiresPrivilege() bool { return true }

func (c *VoicePartCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	r, ok := requestFrom(inv)
	if !ok {
		return nil
	}

	vc, ok := r.Transport.VoiceConnection(r.GuildID())
	if !ok {
		return music.ErrNoVoiceConnection
	}
	r.Music.Stop(r.GuildID())
	if err := vc.Disconnect(ctx); err != nil {
		return err
	}
	return r.Reply(ctx, "Disconnected from voice channel")
}
