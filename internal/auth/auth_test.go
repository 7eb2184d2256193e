package auth

import (
	"context"
	"testing"

	"b3bot/internal/chat"
	"b3bot/internal/chat/chattest"
)

func TestIsPrivileged(t *testing.T) {
	f := chattest.New(chat.User{ID: "bot", Name: "b3Bot"})
	f.AddRole("g1", chat.Role{ID: "r1", Name: "b3BotUser"})
	f.AddRole("g1", chat.Role{ID: "r2", Name: "Moderator"})
	f.AddRole("g2", chat.Role{ID: "r3", Name: "b3BotUser"})
	f.Grant("g1", "alice", "r1")
	f.Grant("g1", "bob", "r2")
	f.Grant("g2", "carol", "r1") // role ID from another guild

	g := NewGate(f, "b3Bot", "133057442425602048")
	if g.RoleName() != "b3BotUser" {
		t.Fatalf("role name %q", g.RoleName())
	}
	cases := []struct {
		name  string
		guild string
		user  string
		want  bool
	}{
		{"role holder", "g1", "alice", true},
		{"other role", "g1", "bob", false},
		{"no roles", "g1", "dave", false},
		{"foreign role id", "g2", "carol", false},
		{"bypass", "g1", "133057442425602048", true},
		{"bypass without guild", "", "133057442425602048", true},
		{"no guild", "", "alice", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := g.IsPrivileged(context.Background(), c.guild, c.user)
			if err != nil {
				t.Fatal(err)
			}
			if got != c.want {
				t.Errorf("want %v, got %v", c.want, got)
			}
		})
	}
}

func TestIsPrivilegedIsLive(t *testing.T) {
	f := chattest.New(chat.User{ID: "bot"})
	f.AddRole("g", chat.Role{ID: "r", Name: "b3BotUser"})
	g := NewGate(f, "b3Bot", "")
	if ok, _ := g.IsPrivileged(context.Background(), "g", "eve"); ok {
		t.Fatal("privileged before grant")
	}
	f.Grant("g", "eve", "r")
	if ok, _ := g.IsPrivileged(context.Background(), "g", "eve"); !ok {
		t.Error("grant not observed; result was cached")
	}
}
