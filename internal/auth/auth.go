// Package auth decides who may run privileged commands.
package auth

import (
	"context"
	"fmt"
	"slices"

	"b3bot/internal/chat"
)

// RoleLookup is the part of chat.Transport the gate needs.
type RoleLookup interface {
	GuildRoles(ctx context.Context, guildID string) ([]chat.Role, error)
	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)
}

// Gate grants privilege to a fixed bypass user and to holders of the
// "<BotName>User" role. Nothing is cached; roles are fetched on every call.
type Gate struct {
	roles    RoleLookup
	roleName string
	bypassID string
}

// NewGate returns a gate for a bot called botName.
func NewGate(roles RoleLookup, botName, bypassID string) *Gate {
	return &Gate{roles: roles, roleName: botName + "User", bypassID: bypassID}
}

// RoleName is the name of the role that grants privilege.
func (g *Gate) RoleName() string { return g.roleName }

// IsPrivileged reports whether userID may run privileged commands in guildID.
// Outside a guild only the bypass user is privileged.
func (g *Gate) IsPrivileged(ctx context.Context, guildID, userID string) (bool, error) {
	if g.bypassID != "" && userID == g.bypassID {
		return true, nil
	}
	if guildID == "" {
		return false, nil
	}

	roles, err := g.roles.GuildRoles(ctx, guildID)
	if err != nil {
		return false, fmt.Errorf("failed to list roles of guild %s: %w", guildID, err)
	}
	var wanted []string
	for _, r := range roles {
		if r.Name == g.roleName {
			wanted = append(wanted, r.ID)
		}
	}
	if len(wanted) == 0 {
		return false, nil
	}

	held, err := g.roles.MemberRoles(ctx, guildID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch roles of member %s: %w", userID, err)
	}
	for _, id := range held {
		if slices.Contains(wanted, id) {
			return true, nil
		}
	}
	return false, nil
}
