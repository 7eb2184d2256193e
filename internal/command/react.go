package command

import (
	"context"
	"strings"

	"b3bot/internal/poll"
	"b3bot/pkg/cmd"
)

type ReactCommand struct{}

func (c *ReactCommand) Name() string        { return "react" }
func (c *ReactCommand) Description() string { return "Lets users react!" }

func (c *ReactCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	r, ok := requestFrom(inv)
	if !ok {
		return nil
	}

	prompt := poll.DefaultPrompt
	if len(r.Args) > 0 {
		prompt = strings.Join(r.Args, " ")
	}
	if _, err := r.Polls.Start(ctx, r.ChannelID(), prompt); err != nil {
		return err
	}
	return r.Transport.Delete(ctx, r.Message.Ref())
}
