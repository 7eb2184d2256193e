package command

import (
	"context"
	"net/url"

	"b3bot/pkg/cmd"
)

type InviteCommand struct {
	BotName string
}

func (c *InviteCommand) Name() string { return "invite" }
func (c *InviteCommand) Description() string {
	return "Returns the link to invite " + c.BotName + " to your server"
}

func (c *InviteCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	r, ok := requestFrom(inv)
	if !ok {
		return nil
	}
	id := r.ClientID
	if id == "" {
		id = r.Transport.Self().ID
	}
	return r.Reply(ctx, InviteURL(id))
}

// InviteURL is the OAuth2 link that adds the bot with the given client ID to a
// server.
func InviteURL(clientID string) string {
	q := url.Values{"client_id": {clientID}, "scope": {"bot"}}
	return "https://discord.com/oauth2/authorize?" + q.Encode()
}
