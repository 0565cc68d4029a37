// Package bot hosts the Discord gateway process: the voice tracker, the
// message counter, slash commands, and composition signups.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"go.uber.org/zap"

	"github.com/albiongw/goodwill/internal/albion"
	"github.com/albiongw/goodwill/internal/bot/handlers"
	"github.com/albiongw/goodwill/internal/database"
	"github.com/albiongw/goodwill/internal/setup/config"
	"github.com/albiongw/goodwill/internal/tracker"
)

// Bot wires the Discord client to the tracker and the command handlers.
type Bot struct {
	db      *database.Client
	client  bot.Client
	tracker *tracker.Tracker
	handler *handlers.Handler
	logger  *zap.Logger

	sweepInterval time.Duration
	done          chan struct{}
}

// New initializes a Bot instance. It configures the Discord client with the
// gateway intents and caches the tracker needs: voice states for transition
// classification and reconciliation, channels for AFK detection by name.
func New(
	cfg *config.BotConfig,
	db *database.Client,
	gameinfo *albion.GameinfoClient,
	murderledger *albion.MurderLedgerClient,
	logger *zap.Logger,
) (*Bot, error) {
	trackerConfig := tracker.Config{
		MinSessionLength: time.Duration(cfg.Tracker.MinSessionSeconds) * time.Second,
		AfkTimeout:       time.Duration(cfg.Tracker.AfkTimeoutSeconds) * time.Second,
		StaleAfter:       time.Duration(cfg.Tracker.StaleAfterHours) * time.Hour,
	}
	voiceTracker := tracker.New(db.VoiceSessions(), db.Activity(), db.Settings(), trackerConfig, logger)

	sweepInterval := time.Duration(cfg.Tracker.SweepIntervalMinutes) * time.Minute
	if sweepInterval <= 0 {
		sweepInterval = tracker.DefaultSweepInterval
	}

	b := &Bot{
		db:            db,
		tracker:       voiceTracker,
		handler:       handlers.New(db, gameinfo, murderledger, logger),
		logger:        logger.Named("bot"),
		sweepInterval: sweepInterval,
		done:          make(chan struct{}),
	}

	client, err := disgo.New(cfg.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
				gateway.IntentGuildVoiceStates,
			),
		),
		bot.WithCacheConfigOpts(
			cache.WithCaches(
				cache.FlagGuilds,
				cache.FlagChannels,
				cache.FlagMembers,
				cache.FlagVoiceStates,
			),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnGuildVoiceStateUpdate:         b.handleVoiceStateUpdate,
			OnMessageCreate:                 b.handleMessageCreate,
			OnApplicationCommandInteraction: b.handleApplicationCommandInteraction,
			OnComponentInteraction:          b.handleComponentInteraction,
		}),
	)
	if err != nil {
		return nil, err
	}

	b.client = client
	return b, nil
}

// Start registers global commands with Discord, opens the gateway connection,
// and launches the periodic sweep that reaps stale sessions and reconciles
// open sessions against the gateway voice state cache.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Registering commands")

	_, err := b.client.Rest().SetGlobalCommands(b.client.ApplicationID(), Commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.logger.Info("Starting bot")
	if err := b.client.OpenGateway(ctx); err != nil {
		return err
	}

	go b.sweepLoop()
	return nil
}

// Close gracefully shuts down the sweep loop and the gateway connection.
func (b *Bot) Close() {
	b.logger.Info("Closing bot")
	close(b.done)
	b.client.Close(context.Background())
}

// sweepLoop periodically runs the stale-session reaper and the reconciliation
// pass. Both are idempotent, so overlapping effects with the live event path
// are safe.
func (b *Bot) sweepLoop() {
	ticker := time.NewTicker(b.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), b.sweepInterval)
			b.tracker.ReapStale(ctx)
			b.tracker.Reconcile(ctx, b.liveVoiceStates())
			cancel()
		}
	}
}

// handleApplicationCommandInteraction processes slash commands in a goroutine
// so a slow database or API call never blocks the event dispatcher.
func (b *Bot) handleApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in application command interaction handler", zap.Any("panic", r))
			}
		}()

		start := time.Now()
		b.handler.HandleCommand(event)
		b.logger.Debug("Application command interaction handled",
			zap.String("command", event.SlashCommandInteractionData().CommandName()),
			zap.Duration("duration", time.Since(start)))
	}()
}

// handleComponentInteraction processes composition signup buttons.
func (b *Bot) handleComponentInteraction(event *events.ComponentInteractionCreate) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in component interaction handler", zap.Any("panic", r))
			}
		}()

		start := time.Now()
		b.handler.HandleComponent(event)
		b.logger.Debug("Component interaction handled",
			zap.String("custom_id", event.Data.CustomID()),
			zap.Duration("duration", time.Since(start)))
	}()
}
