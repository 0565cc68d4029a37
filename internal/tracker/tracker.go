// Package tracker accumulates per-user voice activity from gateway voice
// state updates. It maintains at most one open session per user per guild,
// credits closed status segments to the daily/weekly/monthly aggregates, and
// recovers from missed gateway events through a stale-session reaper and a
// reconciliation sweep.
package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/albiongw/goodwill/internal/database/models"
)

// Default thresholds, overridable through the bot config.
const (
	// DefaultMinSessionLength discards join-then-leave pairs shorter than
	// this; accidental clicks are noise, not activity.
	DefaultMinSessionLength = 5 * time.Minute
	// DefaultAfkTimeout is how long a segment must stay AFK before it stops
	// counting as active voice.
	DefaultAfkTimeout = 15 * time.Minute
	// DefaultStaleAfter is the age past which an open session is assumed to
	// have missed its leave event.
	DefaultStaleAfter = 12 * time.Hour
	// DefaultSweepInterval is how often the reaper and reconciliation run.
	DefaultSweepInterval = 5 * time.Minute
)

// SessionStore persists open voice sessions. All session mutation, from the
// event path as well as the reaper and the reconciliation sweep, goes through
// this interface so the single-active-session invariant has one owner.
type SessionStore interface {
	GetActive(ctx context.Context, userID, guildID uint64) (*models.VoiceSession, error)
	Insert(ctx context.Context, session *models.VoiceSession) error
	CloseActive(ctx context.Context, userID, guildID uint64) (*models.VoiceSession, error)
	UpdateStatus(ctx context.Context, userID, guildID uint64, isAfk, isMutedOrDeafened bool, channelID uint64, now time.Time) error
	GetStale(ctx context.Context, cutoff time.Time) ([]*models.VoiceSession, error)
	GetAllActive(ctx context.Context) ([]*models.VoiceSession, error)
}

// SettingsSource provides the per-guild configuration the tracker reads: the
// AFK channel and the weekly period start.
type SettingsSource interface {
	GetGuildSettings(ctx context.Context, guildID uint64) (*models.GuildSetting, error)
}

// Config carries the tracker thresholds.
type Config struct {
	MinSessionLength time.Duration
	AfkTimeout       time.Duration
	StaleAfter       time.Duration
}

// Tracker is the voice state transition engine.
type Tracker struct {
	sessions    SessionStore
	accumulator *Accumulator
	settings    SettingsSource
	config      Config
	logger      *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Tracker. Zero config fields fall back to the defaults.
func New(sessions SessionStore, activity ActivityStore, settings SettingsSource, config Config, logger *zap.Logger) *Tracker {
	if config.MinSessionLength == 0 {
		config.MinSessionLength = DefaultMinSessionLength
	}
	if config.AfkTimeout == 0 {
		config.AfkTimeout = DefaultAfkTimeout
	}
	if config.StaleAfter == 0 {
		config.StaleAfter = DefaultStaleAfter
	}

	logger = logger.Named("tracker")
	return &Tracker{
		sessions:    sessions,
		accumulator: NewAccumulator(activity, config.AfkTimeout, logger),
		settings:    settings,
		config:      config,
		logger:      logger,
		now:         time.Now,
	}
}

// Accumulator exposes the aggregate writer, shared with the message counter.
func (t *Tracker) Accumulator() *Accumulator {
	return t.accumulator
}

// HandleVoiceState is the entry point for gateway voice state updates. It
// never returns an error and never panics outward: a tracking failure must
// not take down the event dispatcher.
func (t *Tracker) HandleVoiceState(ctx context.Context, oldState, newState *VoiceState) {
	state := newState
	if !state.InVoice() {
		state = oldState
	}
	if state == nil {
		return
	}

	var err error
	switch ClassifyTransition(oldState, newState) {
	case KindJoin:
		err = t.handleJoin(ctx, newState)
	case KindLeave:
		err = t.handleLeave(ctx, oldState)
	case KindStatusChange:
		err = t.handleStatusChange(ctx, newState)
	case KindNone:
		return
	}

	if err != nil {
		t.logger.Error("Failed to process voice state update",
			zap.Error(err),
			zap.Uint64("userID", state.UserID),
			zap.Uint64("guildID", state.GuildID))
	}
}

// handleJoin opens a session, defensively closing any session a missed leave
// event left behind.
func (t *Tracker) handleJoin(ctx context.Context, state *VoiceState) error {
	now := t.now()
	settings := t.guildSettings(ctx, state.GuildID)

	if err := t.closeSession(ctx, state.UserID, state.GuildID, settings, now); err != nil {
		return err
	}

	session := &models.VoiceSession{
		UserID:            state.UserID,
		GuildID:           state.GuildID,
		ChannelID:         state.ChannelID,
		Username:          state.Username,
		IsActive:          true,
		IsAfk:             IsAfkChannel(state.Channel(), settings.AfkChannelID),
		IsMutedOrDeafened: state.MutedOrDeafened(),
		JoinedAt:          now,
		LastStatusChange:  now,
	}
	return t.sessions.Insert(ctx, session)
}

// handleLeave closes the session and credits the final segment. A missing
// session is a no-op: the user joined while the bot was offline.
func (t *Tracker) handleLeave(ctx context.Context, state *VoiceState) error {
	settings := t.guildSettings(ctx, state.GuildID)
	return t.closeSession(ctx, state.UserID, state.GuildID, settings, t.now())
}

// handleStatusChange flushes the segment that just ended under the previous
// flags, then moves the segment boundary forward with the new flags. Unlike a
// full leave there is no minimum duration: the user stayed in voice, so every
// segment counts.
func (t *Tracker) handleStatusChange(ctx context.Context, state *VoiceState) error {
	session, err := t.sessions.GetActive(ctx, state.UserID, state.GuildID)
	if err != nil {
		return err
	}
	if session == nil {
		// Join was missed; the reconciliation sweep will pick the user up.
		return nil
	}

	now := t.now()
	settings := t.guildSettings(ctx, state.GuildID)

	t.accumulator.AddSegment(ctx,
		session.UserID, session.GuildID, session.Username,
		now.Sub(session.LastStatusChange), session.IsAfk, session.IsMutedOrDeafened,
		now, time.Weekday(settings.WeekStart))

	return t.sessions.UpdateStatus(ctx,
		state.UserID, state.GuildID,
		IsAfkChannel(state.Channel(), settings.AfkChannelID), state.MutedOrDeafened(),
		state.ChannelID, now)
}

// closeSession closes the user's open session, if any, crediting the final
// segment unless the whole session was shorter than the minimum length.
func (t *Tracker) closeSession(
	ctx context.Context, userID, guildID uint64, settings *models.GuildSetting, now time.Time,
) error {
	session, err := t.sessions.CloseActive(ctx, userID, guildID)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	// The discard threshold is on the whole session; earlier segments were
	// already credited at each status change.
	if now.Sub(session.JoinedAt) < t.config.MinSessionLength {
		return nil
	}

	t.accumulator.AddSegment(ctx,
		session.UserID, session.GuildID, session.Username,
		now.Sub(session.LastStatusChange), session.IsAfk, session.IsMutedOrDeafened,
		now, time.Weekday(settings.WeekStart))
	return nil
}

// ReapStale force-closes sessions whose last status change is older than the
// staleness threshold, recovering aggregates from missed leave events. It
// runs the same close path as a real leave so the accounting rules cannot
// diverge.
func (t *Tracker) ReapStale(ctx context.Context) {
	cutoff := t.now().Add(-t.config.StaleAfter)
	sessions, err := t.sessions.GetStale(ctx, cutoff)
	if err != nil {
		t.logger.Error("Failed to list stale sessions", zap.Error(err))
		return
	}

	for _, session := range sessions {
		settings := t.guildSettings(ctx, session.GuildID)
		if err := t.closeSession(ctx, session.UserID, session.GuildID, settings, t.now()); err != nil {
			t.logger.Error("Failed to reap stale session",
				zap.Error(err),
				zap.Uint64("userID", session.UserID),
				zap.Uint64("guildID", session.GuildID))
			continue
		}
		t.logger.Info("Reaped stale session",
			zap.Uint64("userID", session.UserID),
			zap.Uint64("guildID", session.GuildID),
			zap.Time("lastStatusChange", session.LastStatusChange))
	}
}

// Reconcile cross-checks the gateway's live voice states against the session
// store. Users in voice with no open session are treated as missed joins;
// open sessions with no live state are treated as missed leaves. Running it
// twice with no gateway changes in between is a no-op the second time.
func (t *Tracker) Reconcile(ctx context.Context, live []*VoiceState) {
	type key struct{ userID, guildID uint64 }

	liveByKey := make(map[key]*VoiceState, len(live))
	for _, state := range live {
		if state.InVoice() {
			liveByKey[key{state.UserID, state.GuildID}] = state
		}
	}

	open, err := t.sessions.GetAllActive(ctx)
	if err != nil {
		t.logger.Error("Failed to list open sessions", zap.Error(err))
		return
	}

	openByKey := make(map[key]*models.VoiceSession, len(open))
	for _, session := range open {
		openByKey[key{session.UserID, session.GuildID}] = session

		if _, present := liveByKey[key{session.UserID, session.GuildID}]; present {
			continue
		}

		// Missed leave
		settings := t.guildSettings(ctx, session.GuildID)
		if err := t.closeSession(ctx, session.UserID, session.GuildID, settings, t.now()); err != nil {
			t.logger.Error("Failed to close unmatched session",
				zap.Error(err),
				zap.Uint64("userID", session.UserID),
				zap.Uint64("guildID", session.GuildID))
			continue
		}
		t.logger.Info("Closed session with no live voice state",
			zap.Uint64("userID", session.UserID),
			zap.Uint64("guildID", session.GuildID))
	}

	for k, state := range liveByKey {
		if _, tracked := openByKey[k]; tracked {
			continue
		}

		// Missed join
		if err := t.handleJoin(ctx, state); err != nil {
			t.logger.Error("Failed to open session for untracked voice state",
				zap.Error(err),
				zap.Uint64("userID", state.UserID),
				zap.Uint64("guildID", state.GuildID))
			continue
		}
		t.logger.Info("Opened session for untracked voice state",
			zap.Uint64("userID", state.UserID),
			zap.Uint64("guildID", state.GuildID))
	}
}

// guildSettings fetches guild settings, falling back to defaults when the
// lookup fails so a settings hiccup never blocks tracking.
func (t *Tracker) guildSettings(ctx context.Context, guildID uint64) *models.GuildSetting {
	settings, err := t.settings.GetGuildSettings(ctx, guildID)
	if err != nil || settings == nil {
		if err != nil {
			t.logger.Warn("Failed to fetch guild settings, using defaults",
				zap.Error(err),
				zap.Uint64("guildID", guildID))
		}
		return &models.GuildSetting{GuildID: guildID, WeekStart: int(time.Monday)}
	}
	return settings
}
