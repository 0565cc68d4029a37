package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Supported report languages.
const (
	LanguageEnglish    = "en"
	LanguagePortuguese = "pt"
)

// GuildSetting stores per-guild configuration.
type GuildSetting struct {
	GuildID uint64 `bun:",pk"`
	// Voice channel treated as AFK regardless of its name.
	AfkChannelID uint64 `bun:",nullzero"`
	// Report language (en or pt).
	Language string `bun:",notnull"`
	// Day the weekly aggregate period starts on (time.Weekday).
	WeekStart int `bun:",notnull"`
	// Albion guild whose battles feed the attendance ranking.
	AlbionGuildID string `bun:",nullzero"`
	// Minimum players a battle needs to count towards attendance. Zero falls
	// back to the worker default.
	MinBattlePlayers int `bun:",nullzero"`
	// Channel where composition posts are published.
	CompositionChannelID uint64 `bun:",nullzero"`
	// Role mentions for composition pings.
	TankRoleID        uint64 `bun:",nullzero"`
	HealerRoleID      uint64 `bun:",nullzero"`
	SupportRoleID     uint64 `bun:",nullzero"`
	DPSRoleID         uint64 `bun:",nullzero"`
	BattlemountRoleID uint64 `bun:",nullzero"`
	UpdatedAt         time.Time
}

// SettingModel handles database operations for guild settings.
type SettingModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewSetting creates a SettingModel with database access.
func NewSetting(db *bun.DB, logger *zap.Logger) *SettingModel {
	return &SettingModel{
		db:     db,
		logger: logger.Named("settings"),
	}
}

// GetGuildSettings retrieves settings for a guild, creating defaults if none
// exist yet.
func (r *SettingModel) GetGuildSettings(ctx context.Context, guildID uint64) (*GuildSetting, error) {
	settings := &GuildSetting{
		GuildID:   guildID,
		Language:  LanguageEnglish,
		WeekStart: int(time.Monday),
		UpdatedAt: time.Now().UTC(),
	}

	err := r.db.NewSelect().Model(settings).
		WherePK().
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_, err = r.db.NewInsert().Model(settings).
				On("CONFLICT (guild_id) DO NOTHING").
				Exec(ctx)
			if err != nil {
				r.logger.Error("Failed to create guild settings",
					zap.Error(err),
					zap.Uint64("guildID", guildID))
				return nil, fmt.Errorf("failed to create guild settings: %w", err)
			}
			return settings, nil
		}
		return nil, fmt.Errorf("failed to get guild settings: %w", err)
	}

	return settings, nil
}

// SaveGuildSettings upserts the full settings row.
func (r *SettingModel) SaveGuildSettings(ctx context.Context, settings *GuildSetting) error {
	settings.UpdatedAt = time.Now().UTC()

	_, err := r.db.NewInsert().Model(settings).
		On("CONFLICT (guild_id) DO UPDATE").
		Set("afk_channel_id = EXCLUDED.afk_channel_id").
		Set("language = EXCLUDED.language").
		Set("week_start = EXCLUDED.week_start").
		Set("albion_guild_id = EXCLUDED.albion_guild_id").
		Set("min_battle_players = EXCLUDED.min_battle_players").
		Set("composition_channel_id = EXCLUDED.composition_channel_id").
		Set("tank_role_id = EXCLUDED.tank_role_id").
		Set("healer_role_id = EXCLUDED.healer_role_id").
		Set("support_role_id = EXCLUDED.support_role_id").
		Set("dps_role_id = EXCLUDED.dps_role_id").
		Set("battlemount_role_id = EXCLUDED.battlemount_role_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		r.logger.Error("Failed to save guild settings",
			zap.Error(err),
			zap.Uint64("guildID", settings.GuildID))
		return fmt.Errorf("failed to save guild settings: %w", err)
	}

	return nil
}

// GetGuildsWithAlbionID returns settings rows that have an Albion guild
// configured, used by the rankings worker.
func (r *SettingModel) GetGuildsWithAlbionID(ctx context.Context) ([]GuildSetting, error) {
	var settings []GuildSetting
	err := r.db.NewSelect().Model(&settings).
		Where("albion_guild_id IS NOT NULL AND albion_guild_id != ''").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get guilds with albion id: %w", err)
	}
	return settings, nil
}
