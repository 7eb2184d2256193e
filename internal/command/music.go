package command

import (
	"context"
	"log"

	"b3bot/internal/music"
	"b3bot/pkg/cmd"
)

type PlayCommand struct{}

func (c *PlayCommand) Name() string { return "yt" }
func (c *PlayCommand) Description() string {
	return "Starts playing a given youtube video or search result"
}

func (c *PlayCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	r, ok := requestFrom(inv)
	if !ok {
		return nil
	}
	if _, ok := r.Transport.VoiceConnection(r.GuildID()); !ok {
		return music.ErrNoVoiceConnection
	}
	if err := r.Transport.SendTyping(ctx, r.ChannelID()); err != nil {
		log.Printf("[WARN] Failed to send typing to %s: %v", r.ChannelID(), err)
	}

	np, err := r.Music.Start(ctx, r.GuildID(), music.ParseQuery(r.Args))
	if err != nil {
		return err
	}
	return r.Reply(ctx, np.String())
}

type NowPlayingCommand struct{}

func (c *NowPlayingCommand) Name() string        { return "np" }
func (c *NowPlayingCommand) Description() string { return "Now Playing" }

func (c *NowPlayingCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	r, ok := requestFrom(inv)
	if !ok {
		return nil
	}
	if _, ok := r.Transport.VoiceConnection(r.GuildID()); !ok {
		return music.ErrNoVoiceConnection
	}
	np, ok := r.Music.NowPlaying(r.GuildID())
	if !ok {
		return r.Reply(ctx, "Nothing playing at the moment. Try "+r.Prefix+"yt")
	}
	return r.Reply(ctx, np.String())
}

type StopCommand struct{}

func (c *StopCommand) Name() string        { return "stop" }
func (c *StopCommand) Description() string { return "Stops the current voice player" }

func (c *StopCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	r, ok := requestFrom(inv)
	if !ok {
		return nil
	}
	if r.Music.Stop(r.GuildID()) {
		return r.Reply(ctx, "Stopping.")
	}
	return r.Reply(ctx, "Nothing playing.")
}
