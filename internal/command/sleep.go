package command

import (
	"context"
	"time"

	"b3bot/pkg/cmd"
)

type SleepCommand struct{}

func (c *SleepCommand) Name() string        { return "sleep" }
func (c *SleepCommand) Description() string { return "Naps for five seconds" }

func (c *SleepCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	r, ok := requestFrom(inv)
	if !ok {
		return nil
	}

	resp, err := r.Transport.SendText(ctx, r.ChannelID(), "😴")
	if err != nil {
		return err
	}

	t := time.NewTimer(r.Nap)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}

	if err := r.Transport.EditText(ctx, resp.Ref(), "Hi there!"); err != nil {
		return err
	}
	r.Cleanup.Schedule(r.Message.Ref(), resp.Ref())
	return nil
}
