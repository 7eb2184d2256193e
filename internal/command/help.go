package command

import (
	"context"
	"fmt"
	"log"
	"strings"

	"b3bot/pkg/cmd"
)

type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Returns this message" }

func (c *HelpCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	r, ok := requestFrom(inv)
	if !ok {
		return nil
	}

	privileged, err := r.Gate.IsPrivileged(ctx, r.GuildID(), r.Message.Author.ID)
	if err != nil {
		log.Printf("[WARN] Failed to check privilege of %s: %v", r.Message.Author.ID, err)
	}

	var lines []string
	for _, command := range r.Registry.All() {
		if cmd.RequiresPrivilege(command) && !privileged {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", command.Name(), command.Description()))
	}
	return r.Reply(ctx, "```"+strings.Join(lines, "\n")+"```")
}
