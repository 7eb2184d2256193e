// Package youtube resolves playback queries to YouTube videos and streams
// their audio into a voice connection.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	kkdai "github.com/kkdai/youtube/v2"

	"b3bot/internal/chat"
	"b3bot/internal/music"
	"b3bot/internal/music/stream"
	"b3bot/internal/music/ytweb"
)

// Resolver implements music.Resolver with github.com/kkdai/youtube.
type Resolver struct {
	client   *kkdai.Client
	searcher *ytweb.Searcher
}

// NewResolver returns a resolver using httpClient for every request.
func NewResolver(httpClient *http.Client) *Resolver {
	return &Resolver{
		client:   &kkdai.Client{HTTPClient: httpClient},
		searcher: ytweb.NewSearcher(httpClient),
	}
}

// Resolve looks up the video, picks an audio format and returns a player that
// has not started yet. Search queries take the first result only.
func (r *Resolver) Resolve(ctx context.Context, q music.Query, vc chat.VoiceConn) (music.Player, error) {
	target := q.URL
	if q.Kind == music.QuerySearch {
		u, err := r.searcher.First(ctx, q.Terms)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", q.Terms, err)
		}
		target = u
	}

	video, err := r.client.GetVideoContext(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("youtube client error: %w", err)
	}

	format, err := ytweb.AudioFormat(video)
	if err != nil {
		return nil, err
	}
	link, err := r.client.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("get stream URL error: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Player{
		ctx:      ctx,
		cancel:   cancel,
		title:    video.Title,
		uploader: video.Author,
		link:     link,
		length:   video.Duration.Seconds(),
		vc:       vc,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Player streams one video into a voice connection.
type Player struct {
	title    string
	uploader string
	link     string
	length   float64
	vc       chat.VoiceConn

	// ctx bounds the ffmpeg process; cancel kills it.
	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

func (p *Player) Title() string         { return p.title }
func (p *Player) Uploader() string      { return p.uploader }
func (p *Player) Done() <-chan struct{} { return p.done }

// Start launches ffmpeg and the encoder goroutine.
func (p *Player) Start() error {
	err := errors.New("player already started")
	p.startOnce.Do(func() {
		var rs *stream.RecoveryStream
		rs, err = stream.NewRecoveryStream(func(seek float64) (io.ReadCloser, error) {
			return stream.FFmpeg(p.ctx, p.link, seek)
		}, p.length)
		if err != nil {
			p.cancel()
			close(p.done)
			return
		}
		go func() {
			defer close(p.done)
			defer p.cancel()
			defer rs.Close()
			if err := stream.ToVoice(rs, p.stop, p.vc); err != nil {
				log.Printf("[ERR] Playback of %q failed: %v", p.title, err)
				return
			}
			log.Printf("[DONE] Playback of %q finished", p.title)
		}()
	})
	return err
}

// Stop halts playback and waits for the encoder to exit.
func (p *Player) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.cancel()
	p.startOnce.Do(func() { close(p.done) })
	<-p.done
}
