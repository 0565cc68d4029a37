package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/albiongw/goodwill/internal/database/models"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		tables := []any{
			(*models.VoiceSession)(nil),
			(*models.DailyActivity)(nil),
			(*models.WeeklyActivity)(nil),
			(*models.MonthlyActivity)(nil),
			(*models.GuildSetting)(nil),
			(*models.Player)(nil),
			(*models.AttendanceRanking)(nil),
			(*models.MMRRanking)(nil),
			(*models.Composition)(nil),
			(*models.CompositionSlot)(nil),
			(*models.CompositionPost)(nil),
			(*models.CompositionSignup)(nil),
		}

		for _, table := range tables {
			_, err := db.NewCreateTable().
				Model(table).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table for %T: %w", table, err)
			}
		}

		_, err := db.NewRaw(`
			-- The single-active-session invariant is enforced at the schema
			-- level: a partial unique index over open sessions.
			CREATE UNIQUE INDEX IF NOT EXISTS idx_voice_sessions_active
			ON voice_sessions (user_id, guild_id)
			WHERE is_active;

			CREATE INDEX IF NOT EXISTS idx_voice_sessions_stale
			ON voice_sessions (last_status_change)
			WHERE is_active;

			-- Aggregate ranking lookups
			CREATE INDEX IF NOT EXISTS idx_daily_activities_guild_date
			ON daily_activities (guild_id, date, voice_seconds DESC);

			CREATE INDEX IF NOT EXISTS idx_weekly_activities_guild_date
			ON weekly_activities (guild_id, date, voice_seconds DESC);

			CREATE INDEX IF NOT EXISTS idx_monthly_activities_guild_date
			ON monthly_activities (guild_id, date, voice_seconds DESC);

			CREATE INDEX IF NOT EXISTS idx_players_guild
			ON players (guild_id);

			-- Composition lookups
			CREATE UNIQUE INDEX IF NOT EXISTS idx_compositions_guild_name
			ON compositions (guild_id, LOWER(name));

			CREATE UNIQUE INDEX IF NOT EXISTS idx_composition_signups_post_user
			ON composition_signups (post_id, user_id);

			CREATE INDEX IF NOT EXISTS idx_composition_signups_slot
			ON composition_signups (post_id, slot_id, position);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		tables := []any{
			(*models.CompositionSignup)(nil),
			(*models.CompositionPost)(nil),
			(*models.CompositionSlot)(nil),
			(*models.Composition)(nil),
			(*models.MMRRanking)(nil),
			(*models.AttendanceRanking)(nil),
			(*models.Player)(nil),
			(*models.GuildSetting)(nil),
			(*models.MonthlyActivity)(nil),
			(*models.WeeklyActivity)(nil),
			(*models.DailyActivity)(nil),
			(*models.VoiceSession)(nil),
		}

		for _, table := range tables {
			_, err := db.NewDropTable().
				Model(table).
				IfExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table for %T: %w", table, err)
			}
		}

		return nil
	})
}
