package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/albiongw/goodwill/internal/database/models"
)

// ActivityStore persists classified segment durations into the aggregate
// tables.
type ActivityStore interface {
	Add(ctx context.Context, inc *models.ActivityIncrement) error
}

// Buckets is a segment's contribution to each duration counter. The buckets
// are independent, not mutually exclusive: a muted AFK segment feeds both
// Afk and Muted.
type Buckets struct {
	Voice time.Duration
	Afk   time.Duration
	Muted time.Duration
}

// ClassifySegment distributes a closed segment across the duration buckets.
// Muted time always counts as muted; AFK time always counts as AFK; active
// voice time requires being unmuted, undeafened, and not long-AFK. A segment
// that stayed AFK for afkTimeout or longer never counts as active voice,
// whatever the mute flag says.
func ClassifySegment(d time.Duration, isAfk, isMutedOrDeafened bool, afkTimeout time.Duration) Buckets {
	if d <= 0 {
		return Buckets{}
	}

	var b Buckets
	if isMutedOrDeafened {
		b.Muted = d
	}
	if isAfk {
		b.Afk = d
	}

	longAfk := isAfk && d >= afkTimeout
	if !isMutedOrDeafened && !longAfk {
		b.Voice = d
	}
	return b
}

// Accumulator turns classified segments into upserts against the daily,
// weekly, and monthly aggregates. Persistence failures are logged and
// swallowed: the aggregates are best-effort telemetry and a failed write must
// never break the event path.
type Accumulator struct {
	store      ActivityStore
	afkTimeout time.Duration
	logger     *zap.Logger
}

// NewAccumulator creates an Accumulator writing through the given store.
func NewAccumulator(store ActivityStore, afkTimeout time.Duration, logger *zap.Logger) *Accumulator {
	return &Accumulator{
		store:      store,
		afkTimeout: afkTimeout,
		logger:     logger.Named("accumulator"),
	}
}

// AddSegment credits one closed segment to all three granularities. Zero and
// negative durations are no-ops so clock skew cannot produce spurious writes.
// The segment is keyed by its end time.
func (a *Accumulator) AddSegment(
	ctx context.Context,
	userID, guildID uint64, username string,
	d time.Duration, isAfk, isMutedOrDeafened bool,
	end time.Time, weekStart time.Weekday,
) {
	if d <= 0 {
		return
	}

	buckets := ClassifySegment(d, isAfk, isMutedOrDeafened, a.afkTimeout)
	inc := &models.ActivityIncrement{
		UserID:       userID,
		GuildID:      guildID,
		Username:     username,
		Day:          DayStart(end),
		Week:         WeekStart(end, weekStart),
		Month:        MonthStart(end),
		VoiceSeconds: int64(buckets.Voice.Seconds()),
		AfkSeconds:   int64(buckets.Afk.Seconds()),
		MutedSeconds: int64(buckets.Muted.Seconds()),
	}

	if err := a.store.Add(ctx, inc); err != nil {
		a.logger.Error("Failed to persist segment",
			zap.Error(err),
			zap.Uint64("userID", userID),
			zap.Uint64("guildID", guildID),
			zap.Duration("duration", d))
	}
}

// AddMessage credits one text message to all three granularities.
func (a *Accumulator) AddMessage(
	ctx context.Context,
	userID, guildID uint64, username string,
	at time.Time, weekStart time.Weekday,
) {
	inc := &models.ActivityIncrement{
		UserID:   userID,
		GuildID:  guildID,
		Username: username,
		Day:      DayStart(at),
		Week:     WeekStart(at, weekStart),
		Month:    MonthStart(at),
		Messages: 1,
	}

	if err := a.store.Add(ctx, inc); err != nil {
		a.logger.Error("Failed to persist message count",
			zap.Error(err),
			zap.Uint64("userID", userID),
			zap.Uint64("guildID", guildID))
	}
}
