package command

import (
	"context"
	"errors"
	"log"
	"time"

	"b3bot/internal/metrics"
	"b3bot/pkg/cmd"
)

// RequirePrivilege rejects invocations by users the gate does not trust. The
// wrapped command does not run at all in that case.
func RequirePrivilege() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			r, ok := requestFrom(inv)
			if !ok || r.Gate == nil {
				return ErrPermission
			}
			allowed, err := r.Gate.IsPrivileged(ctx, r.GuildID(), r.Message.Author.ID)
			if err != nil {
				return err
			}
			if !allowed {
				log.Printf("[WARN] %s (%s) denied %s", r.Message.Author.Name, r.Message.Author.ID, c.Name())
				return ErrPermission
			}
			return c.Run(ctx, inv)
		})
	}
}

// WithLogging logs each invocation and its failure, if any.
func WithLogging() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			if r, ok := requestFrom(inv); ok {
				log.Printf("[INFO] %s ran %s %q in %s", r.Message.Author.Name, c.Name(), inv.Args, r.ChannelID())
			}
			err := c.Run(ctx, inv)
			if err != nil && !isUserError(err) {
				log.Printf("[ERR] Command %s failed: %v", c.Name(), err)
			}
			return err
		})
	}
}

// WithMetrics records the invocation count and latency of each command.
func WithMetrics() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)
			if r, ok := requestFrom(inv); ok {
				result := metrics.ResultOK
				switch {
				case errors.Is(err, ErrPermission):
					result = metrics.ResultDenied
				case err != nil:
					result = metrics.ResultError
				}
				r.Metrics.ObserveCommand(c.Name(), result, time.Since(start))
			}
			return err
		})
	}
}
