// cmd/discord/main.go
package main

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"b3bot/internal/auth"
	"b3bot/internal/command"
	"b3bot/internal/config"
	"b3bot/internal/discord"
	"b3bot/internal/ephemeral"
	"b3bot/internal/metrics"
	"b3bot/internal/music"
	"b3bot/internal/music/youtube"
	"b3bot/internal/music/ytweb"
	"b3bot/internal/paste"
	"b3bot/internal/poll"
	"b3bot/internal/purge"
)

//go:embed main.go
var source []byte

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("[ERR] %v", err)
	}
	log.Printf("[INFO] Starting %s...", cfg.BotName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("[ERR] %s stopped: %v", cfg.BotName, err)
	}
	log.Printf("[DONE] %s exited cleanly", cfg.BotName)
}

func run(ctx context.Context, cfg *config.Config) error {
	bot, err := discord.New(cfg.DiscordToken)
	if err != nil {
		return err
	}

	registry, err := command.NewRegistry(cfg.BotName)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	cleanup := ephemeral.New(bot, cfg.CleanupDelay)
	defer cleanup.Close()
	purger := purge.NewWorker(bot, cfg.TranscriptDir, cfg.PurgeRate)

	sessions := music.NewSessions(bot, youtube.NewResolver(ytweb.NewHTTPClient(cfg.YouTubeProxy)))
	defer sessions.StopAll()

	polls := poll.NewTracker(bot)
	m := metrics.New()
	m.Gauge("music", "sessions", "Guilds with an active player.", func() float64 { return float64(sessions.Len()) })
	m.Gauge("polls", "active", "Reaction polls being tracked.", func() float64 { return float64(polls.Len()) })
	m.Gauge("cleanup", "pending", "Scheduled message cleanups.", func() float64 { return float64(cleanup.Pending()) })
	m.Gauge("purge", "rate", "Current message delete pace per second.", purger.Rate)

	gate := auth.NewGate(bot, cfg.BotName, cfg.BypassUserID)
	log.Printf("[INFO] Privileged commands need the %q role, replies are removed after %s", gate.RoleName(), cleanup.Delay())

	svc := &command.Services{
		Transport: bot,
		Gate:      gate,
		Cleanup:   cleanup,
		Polls:     polls,
		Music:     sessions,
		Purge:     purger,
		Paste:     paste.New(cfg.PasteURL, cfg.PasteTimeout),
		Metrics:   m,
		BotName:   cfg.BotName,
		Prefix:    cfg.Prefix,
		ClientID:  cfg.ClientID,
		Nap:       cfg.NapDuration,
		Source:    source,
	}

	sink, closer := discord.NewMessageLog(cfg.MessageLogPath, cfg.MessageLogMaxMB, cfg.MessageLogBackups)
	defer closer.Close()

	dispatcher := command.NewDispatcher(registry, svc, sink)
	bot.OnMessage = dispatcher.Dispatch
	bot.OnReaction = polls.OnReactionChanged

	started := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(ctx) })
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return m.Serve(ctx, cfg.MetricsAddr, func() gin.H {
				return gin.H{
					"status":   "online",
					"user":     bot.Self().Name,
					"uptime":   time.Since(started).Round(time.Second).String(),
					"guilds":   bot.Guilds(),
					"voice":    bot.VoiceConnections(),
					"sessions": sessions.Len(),
					"polls":    polls.Len(),
					"purges":   purger.Status(),
				}
			})
		})
	}

	return g.Wait()
}
