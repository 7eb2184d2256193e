// Package chattest provides an in-memory chat.Transport for tests.
package chattest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"sync"
	"time"

	"b3bot/internal/chat"
)

// ErrUnknownMessage is returned for edits and deletes of missing messages.
var ErrUnknownMessage = errors.New("unknown message")

// Edit records one EditText call.
type Edit struct {
	Ref  chat.MessageRef
	Text string
}

// Attachment records one SendAttachment call.
type Attachment struct {
	ChannelID string
	Filename  string
	Body      string
}

// Fake is a chat.Transport backed by maps. All methods are safe for
// concurrent use. Exported hook fields must be set before use.
type Fake struct {
	// DeleteErr, if set, is consulted before each delete.
	DeleteErr func(chat.MessageRef) error
	// AttachErr, if set, fails every SendAttachment.
	AttachErr error
	// EditErr, if set, fails every EditText.
	EditErr error
	// Now stamps sent messages; defaults to time.Now.
	Now func() time.Time

	mu          sync.Mutex
	self        chat.User
	seq         int
	channels    map[string][]*chat.Message
	reactions   map[string][]chat.Reaction
	deleted     []chat.MessageRef
	edits       []Edit
	attachments []Attachment
	typing      []string
	voiceChans  map[string][]chat.VoiceChannel
	voice       map[string]*Voice
	roles       map[string][]chat.Role
	memberRoles map[string][]string
}

// New returns a fake whose own account is self.
func New(self chat.User) *Fake {
	return &Fake{
		self:        self,
		channels:    make(map[string][]*chat.Message),
		reactions:   make(map[string][]chat.Reaction),
		voiceChans:  make(map[string][]chat.VoiceChannel),
		voice:       make(map[string]*Voice),
		roles:       make(map[string][]chat.Role),
		memberRoles: make(map[string][]string),
	}
}

// Post adds a message to a channel's history as if another user sent it.
func (f *Fake) Post(m *chat.Message) *chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == "" {
		f.seq++
		m.ID = fmt.Sprintf("m%d", f.seq)
	}
	f.channels[m.ChannelID] = append(f.channels[m.ChannelID], m)
	return m
}

// SetReactions replaces the reaction snapshot of a message.
func (f *Fake) SetReactions(messageID string, rs ...chat.Reaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions[messageID] = rs
}

// AddVoiceChannel makes a voice channel visible in its guild.
func (f *Fake) AddVoiceChannel(ch chat.VoiceChannel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voiceChans[ch.GuildID] = append(f.voiceChans[ch.GuildID], ch)
}

// AddRole creates a guild role.
func (f *Fake) AddRole(guildID string, r chat.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[guildID] = append(f.roles[guildID], r)
}

// Grant gives a member a role ID.
func (f *Fake) Grant(guildID, userID, roleID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := guildID + "/" + userID
	f.memberRoles[k] = append(f.memberRoles[k], roleID)
}

// Messages returns the live messages of a channel in send order.
func (f *Fake) Messages(channelID string) []*chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.channels[channelID])
}

// Texts returns the contents of the live messages of a channel.
func (f *Fake) Texts(channelID string) []string {
	var out []string
	for _, m := range f.Messages(channelID) {
		out = append(out, m.Content)
	}
	return out
}

// Deleted returns deleted message refs in deletion order.
func (f *Fake) Deleted() []chat.MessageRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.deleted)
}

// Edits returns all edits in order.
func (f *Fake) Edits() []Edit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.edits)
}

// Attachments returns all sent attachments in order.
func (f *Fake) Attachments() []Attachment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.attachments)
}

// Typing returns the channels that received a typing indicator.
func (f *Fake) Typing() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.typing)
}

// Voice returns the fake voice connection for a guild, if any.
func (f *Fake) Voice(guildID string) *Voice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.voice[guildID]
}

func (f *Fake) Self() chat.User { return f.self }

func (f *Fake) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Fake) SendText(ctx context.Context, channelID, text string) (*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	m := &chat.Message{
		ID:        fmt.Sprintf("m%d", f.seq),
		ChannelID: channelID,
		Author:    f.self,
		Content:   text,
		Timestamp: f.now(),
	}
	f.channels[channelID] = append(f.channels[channelID], m)
	return m, nil
}

func (f *Fake) EditText(ctx context.Context, ref chat.MessageRef, text string) error {
	if f.EditErr != nil {
		return f.EditErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.find(ref)
	if m == nil {
		return ErrUnknownMessage
	}
	m.Content = text
	f.edits = append(f.edits, Edit{Ref: ref, Text: text})
	return nil
}

func (f *Fake) Delete(ctx context.Context, ref chat.MessageRef) error {
	if f.DeleteErr != nil {
		if err := f.DeleteErr(ref); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.channels[ref.ChannelID]
	i := slices.IndexFunc(msgs, func(m *chat.Message) bool { return m.ID == ref.ID })
	if i < 0 {
		return ErrUnknownMessage
	}
	f.channels[ref.ChannelID] = slices.Delete(msgs, i, i+1)
	f.deleted = append(f.deleted, ref)
	return nil
}

func (f *Fake) SendAttachment(ctx context.Context, channelID, filename string, r io.Reader) (*chat.Message, error) {
	if f.AttachErr != nil {
		return nil, f.AttachErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m, _ := f.SendText(ctx, channelID, "")
	f.mu.Lock()
	f.attachments = append(f.attachments, Attachment{ChannelID: channelID, Filename: filename, Body: string(b)})
	f.mu.Unlock()
	return m, nil
}

func (f *Fake) SendTyping(ctx context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing = append(f.typing, channelID)
	return nil
}

func (f *Fake) History(ctx context.Context, channelID string, after time.Time) iter.Seq2[*chat.Message, error] {
	return func(yield func(*chat.Message, error) bool) {
		f.mu.Lock()
		var msgs []*chat.Message
		for _, m := range f.channels[channelID] {
			if m.Timestamp.After(after) {
				msgs = append(msgs, m)
			}
		}
		f.mu.Unlock()
		slices.SortStableFunc(msgs, func(a, b *chat.Message) int { return a.Timestamp.Compare(b.Timestamp) })
		for _, m := range msgs {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(m, nil) {
				return
			}
		}
	}
}

func (f *Fake) Reactions(ctx context.Context, ref chat.MessageRef) ([]chat.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.reactions[ref.ID]), nil
}

func (f *Fake) VoiceChannels(ctx context.Context, guildID string) ([]chat.VoiceChannel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.voiceChans[guildID]), nil
}

func (f *Fake) VoiceConnection(guildID string) (chat.VoiceConn, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.voice[guildID]
	if !ok {
		return nil, false
	}
	return v, true
}

func (f *Fake) JoinVoice(ctx context.Context, ch chat.VoiceChannel) (chat.VoiceConn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := &Voice{fake: f, ch: ch, opus: make(chan []byte, 16)}
	f.voice[ch.GuildID] = v
	return v, nil
}

func (f *Fake) GuildRoles(ctx context.Context, guildID string) ([]chat.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.roles[guildID]), nil
}

func (f *Fake) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.memberRoles[guildID+"/"+userID]), nil
}

func (f *Fake) find(ref chat.MessageRef) *chat.Message {
	for _, m := range f.channels[ref.ChannelID] {
		if m.ID == ref.ID {
			return m
		}
	}
	return nil
}

// Voice is the fake voice connection.
type Voice struct {
	fake  *Fake
	mu    sync.Mutex
	ch    chat.VoiceChannel
	moves int
	gone  bool
	opus  chan []byte
}

func (v *Voice) Channel() chat.VoiceChannel {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ch
}

func (v *Voice) Move(ctx context.Context, to chat.VoiceChannel) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ch = to
	v.moves++
	return nil
}

// Moves counts Move calls.
func (v *Voice) Moves() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.moves
}

// Disconnected reports whether Disconnect was called.
func (v *Voice) Disconnected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gone
}

func (v *Voice) Disconnect(ctx context.Context) error {
	v.mu.Lock()
	v.gone = true
	guild := v.ch.GuildID
	v.mu.Unlock()
	v.fake.mu.Lock()
	delete(v.fake.voice, guild)
	v.fake.mu.Unlock()
	return nil
}

func (v *Voice) Speaking(on bool) error { return nil }

func (v *Voice) OpusSend() chan<- []byte { return v.opus }
