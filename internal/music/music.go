// Package music keeps at most one active player per guild and decides what a
// playback request refers to.
package music

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"b3bot/internal/chat"
	"b3bot/pkg/keylock"
)

// DefaultURL is played when no argument is given.
const DefaultURL = "https://youtu.be/dQw4w9WgXcQ"

// videoIDLen is the length of a YouTube video ID.
const videoIDLen = 11

// ErrNoVoiceConnection is returned when playback is requested in a guild the
// bot has not joined a voice channel in.
var ErrNoVoiceConnection = errors.New("no voice connection")

// QueryKind tells how a Query was derived from the command arguments.
type QueryKind int

const (
	QueryDefault QueryKind = iota
	QueryDirect
	QuerySearch
)

func (k QueryKind) String() string {
	switch k {
	case QueryDefault:
		return "default"
	case QueryDirect:
		return "direct"
	case QuerySearch:
		return "search"
	}
	return fmt.Sprintf("QueryKind(%d)", int(k))
}

// Query is a resolved playback request.
type Query struct {
	Kind QueryKind
	// URL is the watch URL for default and direct queries, and the search
	// results page for search queries.
	URL string
	// Terms is the search text for search queries.
	Terms string
}

// ParseQuery maps command arguments to a query: nothing plays the default
// video, a single 11 character token is a video ID, and anything else is a
// search returning at most one result.
func ParseQuery(args []string) Query {
	switch {
	case len(args) == 0:
		return Query{Kind: QueryDefault, URL: DefaultURL}
	case len(args) == 1 && len(args[0]) == videoIDLen:
		return Query{Kind: QueryDirect, URL: "https://youtu.be/" + args[0]}
	}
	terms := strings.Join(args, " ")
	return Query{
		Kind:  QuerySearch,
		URL:   "https://www.youtube.com/results?" + url.Values{"search_query": {terms}}.Encode(),
		Terms: terms,
	}
}

// Player is a prepared audio stream.
type Player interface {
	Title() string
	Uploader() string
	Start() error
	// Stop halts playback. It is safe to call more than once.
	Stop()
	// Done is closed when playback ends for any reason.
	Done() <-chan struct{}
}

// Resolver prepares a player for a query, streaming into vc.
type Resolver interface {
	Resolve(ctx context.Context, q Query, vc chat.VoiceConn) (Player, error)
}

// VoiceLookup finds the bot's voice connection in a guild.
type VoiceLookup interface {
	VoiceConnection(guildID string) (chat.VoiceConn, bool)
}

// NowPlaying describes the active player of a guild.
type NowPlaying struct {
	Channel  string
	Title    string
	Uploader string
}

func (np NowPlaying) String() string {
	return fmt.Sprintf("Now playing in %s: %s (uploaded by %s)", np.Channel, np.Title, np.Uploader)
}

// Sessions maps guild IDs to their active player. Requests for the same guild
// are serialized; different guilds never wait on each other.
type Sessions struct {
	voice    VoiceLookup
	resolver Resolver
	locks    keylock.Map[string]

	mu      sync.Mutex
	players map[string]Player
}

// NewSessions returns an empty session table.
func NewSessions(voice VoiceLookup, resolver Resolver) *Sessions {
	return &Sessions{voice: voice, resolver: resolver, players: make(map[string]Player)}
}

// Start resolves q and plays it in the guild's voice channel, replacing and
// stopping any player already active there.
func (s *Sessions) Start(ctx context.Context, guildID string, q Query) (NowPlaying, error) {
	unlock := s.locks.Lock(guildID)
	defer unlock()

	vc, ok := s.voice.VoiceConnection(guildID)
	if !ok {
		return NowPlaying{}, ErrNoVoiceConnection
	}

	p, err := s.resolver.Resolve(ctx, q, vc)
	if err != nil {
		return NowPlaying{}, fmt.Errorf("failed to resolve %s query %q: %w", q.Kind, q.URL, err)
	}

	if old := s.swap(guildID, p); old != nil {
		log.Printf("[INFO] [%s] Replacing %q with %q", guildID, old.Title(), p.Title())
		old.Stop()
	}

	if err := p.Start(); err != nil {
		s.remove(guildID, p)
		return NowPlaying{}, fmt.Errorf("failed to start %q: %w", p.Title(), err)
	}
	go func() {
		<-p.Done()
		s.remove(guildID, p)
	}()

	return NowPlaying{Channel: vc.Channel().Name, Title: p.Title(), Uploader: p.Uploader()}, nil
}

// Stop stops and forgets the guild's player. It reports whether one existed.
func (s *Sessions) Stop(guildID string) bool {
	unlock := s.locks.Lock(guildID)
	defer unlock()

	s.mu.Lock()
	p, ok := s.players[guildID]
	delete(s.players, guildID)
	s.mu.Unlock()
	if ok {
		p.Stop()
	}
	return ok
}

// NowPlaying describes the guild's player, if any.
func (s *Sessions) NowPlaying(guildID string) (NowPlaying, bool) {
	s.mu.Lock()
	p, ok := s.players[guildID]
	s.mu.Unlock()
	if !ok {
		return NowPlaying{}, false
	}
	np := NowPlaying{Title: p.Title(), Uploader: p.Uploader()}
	if vc, ok := s.voice.VoiceConnection(guildID); ok {
		np.Channel = vc.Channel().Name
	}
	return np, true
}

// Len returns the number of guilds with an active player.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// StopAll stops every player, for shutdown.
func (s *Sessions) StopAll() {
	s.mu.Lock()
	players := s.players
	s.players = make(map[string]Player)
	s.mu.Unlock()
	for _, p := range players {
		p.Stop()
	}
}

func (s *Sessions) swap(guildID string, p Player) Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.players[guildID]
	s.players[guildID] = p
	return old
}

// remove forgets p only if it is still the guild's player.
func (s *Sessions) remove(guildID string, p Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.players[guildID] == p {
		delete(s.players, guildID)
	}
}
