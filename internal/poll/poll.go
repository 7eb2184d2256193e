// Package poll turns messages into live thumbs-up/thumbs-down polls whose text
// tracks the reaction tally.
package poll

import (
	"context"
	"fmt"
	"sync"

	"b3bot/internal/chat"
	"b3bot/pkg/keylock"
)

const (
	Up     = "👍"
	Down   = "👎"
	Cancel = "❌"

	Yes = "✅"
	No  = "❎"
)

// DefaultPrompt is used when a poll is started without text.
const DefaultPrompt = "React with thumbs up or thumbs down."

// Transport is the part of chat.Transport the tracker needs.
type Transport interface {
	SendText(ctx context.Context, channelID, text string) (*chat.Message, error)
	EditText(ctx context.Context, ref chat.MessageRef, text string) error
	Reactions(ctx context.Context, ref chat.MessageRef) ([]chat.Reaction, error)
}

type active struct {
	ref      chat.MessageRef
	prompt   string
	rendered string
}

// Tracker owns the set of live polls.
type Tracker struct {
	chat  Transport
	locks keylock.Map[string]

	mu    sync.Mutex
	polls map[string]*active
}

// NewTracker returns an empty tracker.
func NewTracker(t Transport) *Tracker {
	return &Tracker{chat: t, polls: make(map[string]*active)}
}

// Start posts prompt to channelID and tracks the new message as a poll.
func (t *Tracker) Start(ctx context.Context, channelID, prompt string) (string, error) {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	msg, err := t.chat.SendText(ctx, channelID, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to post poll: %w", err)
	}
	t.mu.Lock()
	t.polls[msg.ID] = &active{ref: msg.Ref(), prompt: prompt, rendered: prompt}
	t.mu.Unlock()
	return msg.ID, nil
}

// Tracked reports whether messageID is a live poll.
func (t *Tracker) Tracked(messageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.polls[messageID]
	return ok
}

// Len returns the number of live polls.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.polls)
}

// OnReactionChanged re-renders the poll on ref after a reaction with the given
// emoji was added or removed. Events for one message are applied one at a
// time. A ❌ event ends the poll after rendering; later events are ignored.
func (t *Tracker) OnReactionChanged(ctx context.Context, ref chat.MessageRef, emoji string) error {
	if !t.Tracked(ref.ID) {
		return nil
	}
	unlock := t.locks.Lock(ref.ID)
	defer unlock()

	// The poll may have ended while we waited for the lock.
	t.mu.Lock()
	p, ok := t.polls[ref.ID]
	t.mu.Unlock()
	if !ok {
		return nil
	}
	// ❌ ends the poll even when the final update fails.
	if emoji == Cancel {
		defer t.forget(ref.ID)
	}

	snapshot, err := t.chat.Reactions(ctx, p.ref)
	if err != nil {
		return fmt.Errorf("failed to fetch reactions of poll %s: %w", ref.ID, err)
	}
	text := Render(p.prompt, snapshot)
	if text != p.rendered {
		if err := t.chat.EditText(ctx, p.ref, text); err != nil {
			return fmt.Errorf("failed to update poll %s: %w", ref.ID, err)
		}
		p.rendered = text
	}
	return nil
}

func (t *Tracker) forget(id string) {
	t.mu.Lock()
	delete(t.polls, id)
	t.mu.Unlock()
}

// Render formats a poll for the given reaction snapshot.
func Render(prompt string, snapshot []chat.Reaction) string {
	var up, down, cancel int
	for _, r := range snapshot {
		switch r.Emoji {
		case Up:
			up += r.Count
		case Down:
			down += r.Count
		case Cancel:
			cancel += r.Count
		}
	}
	indicator := No
	if up > down {
		indicator = Yes
	}
	ended := ""
	if cancel > 0 {
		ended = " (ended)"
	}
	return fmt.Sprintf("%s (%s)%s", prompt, indicator, ended)
}
