package command

import (
	"slices"
	"strings"

	"b3bot/internal/chat"
)

// Parse splits a message into a command name and arguments. A message is a
// command when it mentions the bot, in which case the mention is removed, or
// when it starts with prefix.
func Parse(m *chat.Message, self chat.User, prefix string) (name string, args []string, ok bool) {
	text := m.Content
	var fields []string
	switch {
	case mentions(m, self.ID):
		text = strings.ReplaceAll(text, "<@"+self.ID+">", "")
		text = strings.ReplaceAll(text, "<@!"+self.ID+">", "")
		fields = strings.Fields(text)
	case prefix != "" && strings.HasPrefix(text, prefix):
		fields = strings.Fields(strings.TrimPrefix(text, prefix))
	}
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

func mentions(m *chat.Message, id string) bool {
	if slices.ContainsFunc(m.Mentions, func(u chat.User) bool { return u.ID == id }) {
		return true
	}
	return strings.Contains(m.Content, "<@"+id+">") || strings.Contains(m.Content, "<@!"+id+">")
}

// RenderMentions replaces user mention tokens with the mentioned user's name.
func RenderMentions(m *chat.Message) string {
	text := m.Content
	for _, u := range m.Mentions {
		text = strings.ReplaceAll(text, "<@"+u.ID+">", "<@"+u.Name+">")
		text = strings.ReplaceAll(text, "<@!"+u.ID+">", "<@"+u.Name+">")
	}
	return text
}
