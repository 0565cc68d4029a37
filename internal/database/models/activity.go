package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/albiongw/goodwill/internal/database/dbretry"
)

// ActivityColumns is the shared column set of the three aggregate tables.
// Durations are independent buckets, not a partition: a muted AFK segment
// counts towards both AfkSeconds and MutedSeconds.
type ActivityColumns struct {
	UserID       uint64    `bun:",pk"`
	GuildID      uint64    `bun:",pk"`
	Date         time.Time `bun:",pk"`
	Username     string    `bun:",notnull"`
	VoiceSeconds int64     `bun:",notnull,default:0"`
	AfkSeconds   int64     `bun:",notnull,default:0"`
	MutedSeconds int64     `bun:",notnull,default:0"`
	MessageCount int64     `bun:",notnull,default:0"`
}

// DailyActivity is keyed by UTC midnight of the day.
type DailyActivity struct {
	ActivityColumns
}

// WeeklyActivity is keyed by the guild's configured week start day.
type WeeklyActivity struct {
	ActivityColumns
}

// MonthlyActivity is keyed by the first of the month.
type MonthlyActivity struct {
	ActivityColumns
}

// ActivityIncrement is one closed segment's contribution, already classified
// into buckets and stamped with the three period keys.
type ActivityIncrement struct {
	UserID       uint64
	GuildID      uint64
	Username     string
	Day          time.Time
	Week         time.Time
	Month        time.Time
	VoiceSeconds int64
	AfkSeconds   int64
	MutedSeconds int64
	Messages     int64
}

// ActivityModel handles database operations for the activity aggregates.
type ActivityModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewActivity creates an ActivityModel with database access.
func NewActivity(db *bun.DB, logger *zap.Logger) *ActivityModel {
	return &ActivityModel{
		db:     db,
		logger: logger.Named("activity"),
	}
}

// Add applies one increment to all three granularities in a single
// transaction. Each write is an atomic in-place upsert so concurrent segment
// closures for the same user cannot lose updates.
func (r *ActivityModel) Add(ctx context.Context, inc *ActivityIncrement) error {
	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		daily := &DailyActivity{ActivityColumns: inc.columns(inc.Day)}
		if err := upsertActivity(ctx, tx, daily, "daily_activity"); err != nil {
			return err
		}

		weekly := &WeeklyActivity{ActivityColumns: inc.columns(inc.Week)}
		if err := upsertActivity(ctx, tx, weekly, "weekly_activity"); err != nil {
			return err
		}

		monthly := &MonthlyActivity{ActivityColumns: inc.columns(inc.Month)}
		return upsertActivity(ctx, tx, monthly, "monthly_activity")
	})
	if err != nil {
		return fmt.Errorf("failed to add activity increment: %w", err)
	}
	return nil
}

func (inc *ActivityIncrement) columns(periodStart time.Time) ActivityColumns {
	return ActivityColumns{
		UserID:       inc.UserID,
		GuildID:      inc.GuildID,
		Date:         periodStart,
		Username:     inc.Username,
		VoiceSeconds: inc.VoiceSeconds,
		AfkSeconds:   inc.AfkSeconds,
		MutedSeconds: inc.MutedSeconds,
		MessageCount: inc.Messages,
	}
}

func upsertActivity(ctx context.Context, tx bun.Tx, model any, alias string) error {
	_, err := tx.NewInsert().Model(model).
		On("CONFLICT (user_id, guild_id, date) DO UPDATE").
		Set(alias+".username = EXCLUDED.username").
		Set(alias+".voice_seconds = "+alias+".voice_seconds + EXCLUDED.voice_seconds").
		Set(alias+".afk_seconds = "+alias+".afk_seconds + EXCLUDED.afk_seconds").
		Set(alias+".muted_seconds = "+alias+".muted_seconds + EXCLUDED.muted_seconds").
		Set(alias+".message_count = "+alias+".message_count + EXCLUDED.message_count").
		Exec(ctx)
	return err
}

// Granularity selects one of the three aggregate tables.
type Granularity int

const (
	GranularityDaily Granularity = iota
	GranularityWeekly
	GranularityMonthly
)

// String returns the period name used in command output.
func (g Granularity) String() string {
	switch g {
	case GranularityDaily:
		return "daily"
	case GranularityWeekly:
		return "weekly"
	case GranularityMonthly:
		return "monthly"
	default:
		return "unknown"
	}
}

// GetUser returns the user's aggregate row for the period, or a zero row when
// the user has no recorded activity in it.
func (r *ActivityModel) GetUser(
	ctx context.Context, userID, guildID uint64, g Granularity, periodStart time.Time,
) (*ActivityColumns, error) {
	var cols ActivityColumns
	query := r.db.NewSelect().
		Column("user_id", "guild_id", "date", "username", "voice_seconds", "afk_seconds", "muted_seconds", "message_count").
		Where("user_id = ? AND guild_id = ? AND date = ?", userID, guildID, periodStart)

	switch g {
	case GranularityDaily:
		query = query.Model((*DailyActivity)(nil))
	case GranularityWeekly:
		query = query.Model((*WeeklyActivity)(nil))
	case GranularityMonthly:
		query = query.Model((*MonthlyActivity)(nil))
	}

	err := query.Scan(ctx, &cols)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &ActivityColumns{UserID: userID, GuildID: guildID, Date: periodStart}, nil
		}
		return nil, fmt.Errorf("failed to get user activity: %w", err)
	}
	return &cols, nil
}

// Top returns the guild's rows for the period ordered by active voice time.
func (r *ActivityModel) Top(
	ctx context.Context, guildID uint64, g Granularity, periodStart time.Time, limit int,
) ([]ActivityColumns, error) {
	var cols []ActivityColumns
	query := r.db.NewSelect().
		Column("user_id", "guild_id", "date", "username", "voice_seconds", "afk_seconds", "muted_seconds", "message_count").
		Where("guild_id = ? AND date = ?", guildID, periodStart).
		OrderExpr("voice_seconds DESC").
		Limit(limit)

	switch g {
	case GranularityDaily:
		query = query.Model((*DailyActivity)(nil))
	case GranularityWeekly:
		query = query.Model((*WeeklyActivity)(nil))
	case GranularityMonthly:
		query = query.Model((*MonthlyActivity)(nil))
	}

	err := query.Scan(ctx, &cols)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity ranking: %w", err)
	}
	return cols, nil
}

// GuildDailyVoice returns per-day total active voice seconds for the guild
// since the cutoff, oldest first. Used for the activity chart.
func (r *ActivityModel) GuildDailyVoice(ctx context.Context, guildID uint64, since time.Time) ([]DayTotal, error) {
	var totals []DayTotal
	err := r.db.NewSelect().Model((*DailyActivity)(nil)).
		ColumnExpr("date").
		ColumnExpr("SUM(voice_seconds) AS voice_seconds").
		Where("guild_id = ? AND date >= ?", guildID, since).
		GroupExpr("date").
		OrderExpr("date ASC").
		Scan(ctx, &totals)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily voice totals: %w", err)
	}
	return totals, nil
}

// DayTotal is one day's summed active voice time for a guild.
type DayTotal struct {
	Date         time.Time `bun:"date"`
	VoiceSeconds int64     `bun:"voice_seconds"`
}

// Purge removes aggregate rows older than the cutoff for the granularity and
// returns the number of deleted rows.
func (r *ActivityModel) Purge(ctx context.Context, g Granularity, cutoff time.Time) (int64, error) {
	var query *bun.DeleteQuery
	switch g {
	case GranularityDaily:
		query = r.db.NewDelete().Model((*DailyActivity)(nil))
	case GranularityWeekly:
		query = r.db.NewDelete().Model((*WeeklyActivity)(nil))
	case GranularityMonthly:
		query = r.db.NewDelete().Model((*MonthlyActivity)(nil))
	}

	result, err := query.Where("date < ?", cutoff).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge %s activity: %w", g, err)
	}

	affected, _ := result.RowsAffected()
	return affected, nil
}
