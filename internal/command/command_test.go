package command

import (
	"bytes"
	"context"
	"errors"
	"log"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"b3bot/internal/auth"
	"b3bot/internal/chat"
	"b3bot/internal/chat/chattest"
	"b3bot/internal/ephemeral"
	"b3bot/internal/music"
	"b3bot/internal/music/musictest"
	"b3bot/internal/poll"
	"b3bot/internal/purge"
)

var (
	bot   = chat.User{ID: "bot", Name: "b3Bot", Bot: true}
	admin = chat.User{ID: "admin", Name: "alice"}
	pleb  = chat.User{ID: "pleb", Name: "bob"}
)

type pasteFunc func(ctx context.Context, text, filename string) (string, error)

func (f pasteFunc) Upload(ctx context.Context, text, filename string) (string, error) {
	return f(ctx, text, filename)
}

type env struct {
	fake     *chattest.Fake
	svc      *Services
	disp     *Dispatcher
	resolver *musictest.Resolver
	sink     bytes.Buffer
}

func newEnv(t *testing.T, cleanupDelay time.Duration) *env {
	t.Helper()
	f := chattest.New(bot)
	f.AddRole("g", chat.Role{ID: "r0", Name: "everyone"})
	f.AddRole("g", chat.Role{ID: "r1", Name: "b3BotUser"})
	f.Grant("g", admin.ID, "r1")
	f.Grant("g", pleb.ID, "r0")
	f.AddVoiceChannel(chat.VoiceChannel{ID: "v1", GuildID: "g", Name: "General"})
	f.AddVoiceChannel(chat.VoiceChannel{ID: "v2", GuildID: "g", Name: "Music Room"})

	cleanup := ephemeral.New(f, cleanupDelay)
	t.Cleanup(cleanup.Close)

	e := &env{fake: f, resolver: &musictest.Resolver{}}
	e.svc = &Services{
		Transport: f,
		Gate:      auth.NewGate(f, "b3Bot", "owner"),
		Cleanup:   cleanup,
		Polls:     poll.NewTracker(f),
		Music:     music.NewSessions(f, e.resolver),
		Purge:     purge.NewWorker(f, t.TempDir(), 1000),
		Paste: pasteFunc(func(ctx context.Context, text, filename string) (string, error) {
			return "https://paste.example/src", nil
		}),
		BotName: "b3Bot",
		Prefix:  "!",
		Nap:     time.Millisecond,
		Source:  []byte("package main"),
	}
	reg, err := NewRegistry("b3Bot")
	if err != nil {
		t.Fatal(err)
	}
	e.disp = NewDispatcher(reg, e.svc, log.New(&e.sink, "", 0))
	return e
}

// send posts text as author in channel c of guild g and dispatches it.
func (e *env) send(t *testing.T, author chat.User, text string) *chat.Message {
	t.Helper()
	m := e.fake.Post(&chat.Message{ChannelID: "c", GuildID: "g", Author: author, Content: text, Timestamp: time.Now()})
	if err := e.disp.Dispatch(context.Background(), m); err != nil {
		t.Fatalf("dispatch %q: %v", text, err)
	}
	return m
}

// last returns the text of the newest message in channel c.
func (e *env) last() string {
	texts := e.fake.Texts("c")
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func TestParse(t *testing.T) {
	cases := []struct {
		name     string
		msg      chat.Message
		wantName string
		wantArgs []string
		ok       bool
	}{
		{"prefix", chat.Message{Content: "!yt foo bar"}, "yt", []string{"foo", "bar"}, true},
		{"prefix no args", chat.Message{Content: "!yt"}, "yt", []string{}, true},
		{"mention", chat.Message{Content: "<@bot> help", Mentions: []chat.User{bot}}, "help", []string{}, true},
		{"nick mention", chat.Message{Content: "<@!bot>  react Pizza?"}, "react", []string{"Pizza?"}, true},
		{"mention last", chat.Message{Content: "sleep <@bot>", Mentions: []chat.User{bot}}, "sleep", []string{}, true},
		{"plain", chat.Message{Content: "hello there"}, "", nil, false},
		{"bare prefix", chat.Message{Content: "! "}, "", nil, false},
		{"bare mention", chat.Message{Content: "<@bot>", Mentions: []chat.User{bot}}, "", nil, false},
		{"other mention", chat.Message{Content: "<@u1> help", Mentions: []chat.User{{ID: "u1"}}}, "", nil, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			name, args, ok := Parse(&c.msg, bot, "!")
			if ok != c.ok || name != c.wantName {
				t.Fatalf("want %q %v, got %q %v", c.wantName, c.ok, name, ok)
			}
			if diff := cmp.Diff(c.wantArgs, args); ok && diff != "" {
				t.Errorf("args (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderMentions(t *testing.T) {
	m := &chat.Message{
		Content:  "hi <@u1> and <@!u2>",
		Mentions: []chat.User{{ID: "u1", Name: "alice"}, {ID: "u2", Name: "bob"}},
	}
	if got := RenderMentions(m); got != "hi <@alice> and <@bob>" {
		t.Errorf("got %q", got)
	}
}

func TestRegistrySorted(t *testing.T) {
	e := newEnv(t, time.Hour)
	var names []string
	for _, c := range e.disp.Registry().All() {
		names = append(names, c.Name())
		got, ok := e.disp.Registry().Lookup(c.Name())
		if !ok || got != c {
			t.Errorf("lookup %s returned a different command", c.Name())
		}
	}
	if !slices.IsSorted(names) {
		t.Errorf("commands not sorted: %v", names)
	}
	for _, alias := range []string{"voice", "join", "leave"} {
		if _, ok := e.disp.Registry().Lookup(alias); !ok {
			t.Errorf("alias %s not registered", alias)
		}
	}
}

func TestDispatchLogsAndIgnoresSelf(t *testing.T) {
	e := newEnv(t, time.Hour)
	m := e.fake.Post(&chat.Message{ChannelID: "c", GuildID: "g", Author: bot, Content: "!help", Timestamp: time.Now()})
	if err := e.disp.Dispatch(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	if len(e.fake.Messages("c")) != 1 {
		t.Error("bot answered itself")
	}
	if got := e.sink.String(); got != "<b3Bot> !help\n" {
		t.Errorf("unexpected log %q", got)
	}
}

func TestUnknownCommandSilent(t *testing.T) {
	e := newEnv(t, time.Hour)
	e.send(t, pleb, "!frobnicate now")
	if diff := cmp.Diff([]string{"!frobnicate now"}, e.fake.Texts("c")); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if e.svc.Cleanup.Pending() != 0 {
		t.Error("unknown command scheduled a cleanup")
	}
}

func TestPermissionDenied(t *testing.T) {
	for _, text := range []string{"!vjoin General", "!voice General", "!vpart", "!leave", "!clearsince 2024 1 1"} {
		t.Run(text, func(t *testing.T) {
			e := newEnv(t, time.Hour)
			if _, err := e.fake.JoinVoice(context.Background(), chat.VoiceChannel{ID: "v2", GuildID: "g", Name: "Music Room"}); err != nil {
				t.Fatal(err)
			}
			e.fake.Post(&chat.Message{ChannelID: "c", GuildID: "g", Author: admin, Content: "keep me", Timestamp: time.Now()})
			e.send(t, pleb, text)

			if e.last() != "You can't perform this action" {
				t.Errorf("got reply %q", e.last())
			}
			if len(e.fake.Deleted()) != 0 {
				t.Errorf("messages deleted: %v", e.fake.Deleted())
			}
			v := e.fake.Voice("g")
			if v == nil || v.Disconnected() || v.Moves() != 0 {
				t.Error("voice connection changed")
			}
			if e.svc.Cleanup.Pending() != 1 {
				t.Errorf("want rejection scheduled for cleanup, got %d pending", e.svc.Cleanup.Pending())
			}
		})
	}
}

func TestBypassUser(t *testing.T) {
	e := newEnv(t, time.Hour)
	e.send(t, chat.User{ID: "owner", Name: "owner"}, "!vjoin General")
	if e.last() != "Joined General" {
		t.Errorf("got %q", e.last())
	}
}

func TestHelp(t *testing.T) {
	e := newEnv(t, time.Hour)
	e.send(t, pleb, "!help")
	public := "```help: Returns this message\n" +
		"invite: Returns the link to invite b3Bot to your server\n" +
		"np: Now Playing\n" +
		"react: Lets users react!\n" +
		"sleep: Naps for five seconds\n" +
		"source: Returns the source for b3Bot\n" +
		"stop: Stops the current voice player\n" +
		"yt: Starts playing a given youtube video or search result```"
	if diff := cmp.Diff(public, e.last()); diff != "" {
		t.Errorf("public help (-want +got):\n%s", diff)
	}

	e.send(t, admin, "<@bot> help")
	for _, want := range []string{"clearsince: Removes messages in bulk", "vjoin: Tells b3Bot to join", "vpart: Tells b3Bot to leave"} {
		if !strings.Contains(e.last(), want) {
			t.Errorf("privileged help lacks %q", want)
		}
	}
}

func TestVoice(t *testing.T) {
	e := newEnv(t, time.Hour)
	e.send(t, admin, "!voice")
	if e.last() != "Choose one of: General, Music Room" {
		t.Errorf("got %q", e.last())
	}
	e.send(t, admin, "!vjoin Lobby")
	if e.last() != "Choose one of: General, Music Room" {
		t.Errorf("got %q", e.last())
	}
	if e.fake.Voice("g") != nil {
		t.Fatal("joined an unknown channel")
	}

	e.send(t, admin, "!vjoin Music Room")
	if e.last() != "Joined Music Room" {
		t.Errorf("got %q", e.last())
	}
	e.send(t, admin, "!join General")
	v := e.fake.Voice("g")
	if v.Moves() != 1 || v.Channel().Name != "General" {
		t.Errorf("want one move to General, got %d to %s", v.Moves(), v.Channel().Name)
	}

	e.send(t, admin, "!yt")
	e.send(t, admin, "!leave")
	if e.last() != "Disconnected from voice channel" || !v.Disconnected() {
		t.Errorf("got %q, disconnected %v", e.last(), v.Disconnected())
	}
	if e.svc.Music.Len() != 0 {
		t.Error("player survived leaving the channel")
	}

	e.send(t, admin, "!vpart")
	if e.last() != "Use !voice to join a voice channel" {
		t.Errorf("got %q", e.last())
	}
}

func TestVoiceNoChannels(t *testing.T) {
	e := newEnv(t, time.Hour)
	m := e.fake.Post(&chat.Message{ChannelID: "c", GuildID: "other", Author: chat.User{ID: "owner"}, Content: "!vjoin", Timestamp: time.Now()})
	if err := e.disp.Dispatch(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	if e.last() != "No voice channels" {
		t.Errorf("got %q", e.last())
	}
}

func TestPlayback(t *testing.T) {
	e := newEnv(t, time.Hour)
	for _, text := range []string{"!yt", "!np"} {
		e.send(t, pleb, text)
		if e.last() != "Use !voice to join a voice channel" {
			t.Errorf("%s: got %q", text, e.last())
		}
	}
	if len(e.resolver.Queries()) != 0 {
		t.Fatal("resolved without a voice connection")
	}

	e.send(t, admin, "!vjoin General")
	e.send(t, pleb, "!np")
	if e.last() != "Nothing playing at the moment. Try !yt" {
		t.Errorf("got %q", e.last())
	}

	e.send(t, pleb, "!yt dQw4w9WgXcQ")
	want := "Now playing in General: https://youtu.be/dQw4w9WgXcQ (uploaded by uploader)"
	if e.last() != want {
		t.Errorf("got %q", e.last())
	}
	e.send(t, pleb, "!np")
	if e.last() != want {
		t.Errorf("got %q", e.last())
	}

	e.send(t, pleb, "!yt foo bar")
	wantQueries := []music.Query{
		{Kind: music.QueryDirect, URL: "https://youtu.be/dQw4w9WgXcQ"},
		{Kind: music.QuerySearch, URL: "https://www.youtube.com/results?search_query=foo+bar", Terms: "foo bar"},
	}
	if diff := cmp.Diff(wantQueries, e.resolver.Queries()); diff != "" {
		t.Errorf("queries (-want +got):\n%s", diff)
	}

	e.send(t, pleb, "!stop")
	if e.last() != "Stopping." {
		t.Errorf("got %q", e.last())
	}
	e.send(t, pleb, "!stop")
	if e.last() != "Nothing playing." {
		t.Errorf("got %q", e.last())
	}
	if len(e.fake.Typing()) != 2 {
		t.Errorf("want typing for each yt, got %v", e.fake.Typing())
	}
}

func TestReact(t *testing.T) {
	e := newEnv(t, time.Hour)
	inv := e.send(t, pleb, "!react Pizza?")
	if diff := cmp.Diff([]chat.MessageRef{inv.Ref()}, e.fake.Deleted()); diff != "" {
		t.Errorf("deleted (-want +got):\n%s", diff)
	}
	msgs := e.fake.Messages("c")
	if len(msgs) != 1 || msgs[0].Content != "Pizza?" {
		t.Fatalf("unexpected channel %v", e.fake.Texts("c"))
	}
	if !e.svc.Polls.Tracked(msgs[0].ID) {
		t.Fatal("poll not tracked")
	}

	e.fake.SetReactions(msgs[0].ID, chat.Reaction{Emoji: poll.Up, Count: 3}, chat.Reaction{Emoji: poll.Down, Count: 1})
	if err := e.svc.Polls.OnReactionChanged(context.Background(), msgs[0].Ref(), poll.Up); err != nil {
		t.Fatal(err)
	}
	if e.last() != "Pizza? (✅)" {
		t.Errorf("got %q", e.last())
	}

	e.send(t, pleb, "!react")
	if e.last() != poll.DefaultPrompt {
		t.Errorf("got %q", e.last())
	}
	if e.svc.Cleanup.Pending() != 0 {
		t.Error("poll scheduled for cleanup")
	}
}

func TestSleep(t *testing.T) {
	e := newEnv(t, time.Hour)
	e.send(t, pleb, "!sleep")
	edits := e.fake.Edits()
	if len(edits) != 1 || edits[0].Text != "Hi there!" {
		t.Fatalf("unexpected edits %v", edits)
	}
	if diff := cmp.Diff([]string{"!sleep", "Hi there!"}, e.fake.Texts("c")); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if e.svc.Cleanup.Pending() != 1 {
		t.Error("nap not scheduled for cleanup")
	}
}

func TestInvite(t *testing.T) {
	e := newEnv(t, time.Hour)
	e.send(t, pleb, "!invite")
	if e.last() != "https://discord.com/oauth2/authorize?client_id=bot&scope=bot" {
		t.Errorf("got %q", e.last())
	}
	e.svc.ClientID = "1234"
	e.send(t, pleb, "!invite")
	if e.last() != "https://discord.com/oauth2/authorize?client_id=1234&scope=bot" {
		t.Errorf("got %q", e.last())
	}
}

func TestSource(t *testing.T) {
	e := newEnv(t, time.Hour)
	e.send(t, pleb, "!source")
	if e.last() != "https://paste.example/src/go" {
		t.Errorf("got %q", e.last())
	}
	if diff := cmp.Diff([]string{"c"}, e.fake.Typing()); diff != "" {
		t.Errorf("typing (-want +got):\n%s", diff)
	}

	e.svc.Paste = pasteFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("connection refused")
	})
	e.send(t, pleb, "!source")
	want := []chattest.Attachment{{ChannelID: "c", Filename: "b3Bot.go", Body: "package main"}}
	if diff := cmp.Diff(want, e.fake.Attachments()); diff != "" {
		t.Errorf("attachments (-want +got):\n%s", diff)
	}
}

func TestClearSince(t *testing.T) {
	e := newEnv(t, time.Hour)
	day := func(d int) time.Time { return time.Date(2023, 12, 30+d, 9, 0, 0, 0, time.UTC) }
	e.fake.Post(&chat.Message{ChannelID: "c", Author: pleb, Content: "before", Timestamp: day(0)})
	e.fake.Post(&chat.Message{ChannelID: "c", Author: pleb, Content: "after one", Timestamp: day(3)})
	e.fake.Post(&chat.Message{ChannelID: "c", Author: admin, Content: "after two", Timestamp: day(4)})

	e.send(t, admin, "!clearsince 2024 1 1")

	msgs := e.fake.Messages("c")
	var texts []string
	for _, m := range msgs {
		texts = append(texts, m.Content)
	}
	if diff := cmp.Diff([]string{"before", "Deleted 3 messages (by order of alice)", ""}, texts); diff != "" {
		t.Errorf("channel (-want +got):\n%s", diff)
	}
	att := e.fake.Attachments()
	if len(att) != 1 {
		t.Fatalf("want one transcript, got %d", len(att))
	}
	if want := "<bob> after one\n<alice> after two\n<alice> !clearsince 2024 1 1"; att[0].Body != want {
		t.Errorf("transcript %q", att[0].Body)
	}
	if e.svc.Cleanup.Pending() != 0 {
		t.Error("summary scheduled for cleanup")
	}
}

func TestClearSinceFallback(t *testing.T) {
	e := newEnv(t, time.Hour)
	e.fake.AttachErr = errors.New("upload failed")
	e.send(t, admin, "!clearsince 2024 1 1")
	if !strings.HasPrefix(e.last(), "Unable to send file to channel. Saved to ") {
		t.Errorf("got %q", e.last())
	}
}

func TestClearSinceUsage(t *testing.T) {
	e := newEnv(t, time.Hour)
	for _, text := range []string{"!clearsince", "!clearsince 2024 jan 1", "!clearsince 2024 2 30"} {
		e.send(t, admin, text)
		if !strings.HasPrefix(e.last(), "Usage: !clearsince <year> <month> <day>") {
			t.Errorf("%s: got %q", text, e.last())
		}
	}
	if len(e.fake.Deleted()) != 0 {
		t.Error("invalid arguments deleted messages")
	}
}

func TestReplyCleanup(t *testing.T) {
	e := newEnv(t, 10*time.Millisecond)
	inv := e.send(t, pleb, "!stop")
	reply := e.fake.Messages("c")[1]

	deadline := time.Now().Add(2 * time.Second)
	for len(e.fake.Deleted()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("cleanup did not run, deleted %v", e.fake.Deleted())
		}
		time.Sleep(time.Millisecond)
	}
	if diff := cmp.Diff([]chat.MessageRef{inv.Ref(), reply.Ref()}, e.fake.Deleted()); diff != "" {
		t.Errorf("deleted (-want +got):\n%s", diff)
	}
}
