package command

import (
	"context"

	"b3bot/internal/chat"
)

// Reply answers in the invoking channel and schedules both the invocation and
// the answer for cleanup.
func (r *Request) Reply(ctx context.Context, text string) error {
	resp, err := r.Transport.SendText(ctx, r.ChannelID(), text)
	if err != nil {
		return err
	}
	r.Cleanup.Schedule(r.Message.Ref(), resp.Ref())
	return nil
}

// ReplyKeep answers in the invoking channel without scheduling any cleanup.
func (r *Request) ReplyKeep(ctx context.Context, text string) (*chat.Message, error) {
	return r.Transport.SendText(ctx, r.ChannelID(), text)
}
