package command

import (
	"bytes"
	"context"
	"log"

	"b3bot/pkg/cmd"
)

type SourceCommand struct {
	BotName string
}

func (c *SourceCommand) Name() string        { return "source" }
func (c *SourceCommand) Description() string { return "Returns the source for " + c.BotName }

func (c *SourceCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	r, ok := requestFrom(inv)
	if !ok {
		return nil
	}
	filename := c.BotName + ".go"

	if err := r.Transport.SendTyping(ctx, r.ChannelID()); err != nil {
		log.Printf("[WARN] Failed to send typing to %s: %v", r.ChannelID(), err)
	}

	if r.Paste != nil {
		link, err := r.Paste.Upload(ctx, string(r.Source), filename)
		if err == nil {
			return r.Reply(ctx, link+"/go")
		}
		log.Printf("[WARN] Falling back to attachment: %v", err)
	}

	resp, err := r.Transport.SendAttachment(ctx, r.ChannelID(), filename, bytes.NewReader(r.Source))
	if err != nil {
		return err
	}
	r.Cleanup.Schedule(r.Message.Ref(), resp.Ref())
	return nil
}
