// Package musictest provides a music.Resolver whose players make no sound.
package musictest

import (
	"context"
	"sync"

	"b3bot/internal/chat"
	"b3bot/internal/music"
)

// Player is a silent music.Player.
type Player struct {
	title    string
	uploader string

	mu      sync.Mutex
	started bool
	stops   int
	once    sync.Once
	done    chan struct{}
}

// NewPlayer returns a player reporting the given metadata.
func NewPlayer(title, uploader string) *Player {
	return &Player{title: title, uploader: uploader, done: make(chan struct{})}
}

func (p *Player) Title() string    { return p.title }
func (p *Player) Uploader() string { return p.uploader }

func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = true
	return nil
}

func (p *Player) Stop() {
	p.mu.Lock()
	p.stops++
	p.mu.Unlock()
	p.Finish()
}

// Finish ends playback as if the track ran out.
func (p *Player) Finish() { p.once.Do(func() { close(p.done) }) }

func (p *Player) Done() <-chan struct{} { return p.done }

// Started reports whether Start was called.
func (p *Player) Started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// Stops counts Stop calls.
func (p *Player) Stops() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

// Resolver records queries and hands out silent players titled by the query.
type Resolver struct {
	Err error
	// Hold, if set, runs at the start of every Resolve with the guild ID of
	// the voice connection. Tests use it to stall or observe resolution.
	Hold func(guildID string)

	mu      sync.Mutex
	queries []music.Query
	players []*Player
}

func (r *Resolver) Resolve(ctx context.Context, q music.Query, vc chat.VoiceConn) (music.Player, error) {
	if r.Hold != nil {
		r.Hold(vc.Channel().GuildID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	if r.Err != nil {
		return nil, r.Err
	}
	title := q.Terms
	if title == "" {
		title = q.URL
	}
	p := NewPlayer(title, "uploader")
	r.players = append(r.players, p)
	return p, nil
}

// Queries returns the resolved queries in order.
func (r *Resolver) Queries() []music.Query {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]music.Query(nil), r.queries...)
}

// Players returns the players handed out in order.
func (r *Resolver) Players() []*Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Player(nil), r.players...)
}
