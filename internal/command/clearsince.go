package command

import (
	"context"
	"errors"
	"fmt"

	"b3bot/internal/purge"
	"b3bot/pkg/cmd"
)

type ClearSinceCommand struct{}

func (c *ClearSinceCommand) Name() string            { return "clearsince" }
func (c *ClearSinceCommand) Description() string     { return "Removes messages in bulk" }
func (c *ClearSinceCommand) RequiresPrivilege() bool { return true }

func (c *ClearSinceCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	r, ok := requestFrom(inv)
	if !ok {
		return nil
	}

	cutoff, err := purge.ParseCutoff(r.Args)
	if err != nil {
		return &InvalidArgumentsError{
			Usage: "Usage: " + r.Prefix + "clearsince <year> <month> <day> [hour] [minute] [second] (UTC)",
			Err:   err,
		}
	}

	rep, purgeErr := r.Purge.PurgeSince(ctx, r.ChannelID(), cutoff)
	if errors.Is(purgeErr, purge.ErrBusy) {
		return r.Reply(ctx, "Already clearing this channel.")
	}
	r.Metrics.ObservePurged(rep.Count)

	summary := fmt.Sprintf("Deleted %d messages (by order of %s)", rep.Count, r.Message.Author.Name)
	if _, err := r.ReplyKeep(ctx, summary); err != nil {
		return errors.Join(purgeErr, err)
	}

	if rep.Count > 0 {
		var ude *purge.UpstreamDeliveryError
		err := r.Purge.Deliver(ctx, r.ChannelID(), rep)
		switch {
		case errors.As(err, &ude):
			if _, err := r.ReplyKeep(ctx, "Unable to send file to channel. Saved to "+ude.Path); err != nil {
				return errors.Join(purgeErr, err)
			}
		case err != nil:
			return errors.Join(purgeErr, err)
		}
	}
	return purgeErr
}
