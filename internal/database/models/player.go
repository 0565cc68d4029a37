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

// Player links a Discord user to an Albion character within a guild.
type Player struct {
	UserID     uint64 `bun:",pk"`
	GuildID    uint64 `bun:",pk"`
	AlbionID   string `bun:",notnull"`
	AlbionName string `bun:",notnull"`
	// Verified is set when the character belonged to the guild's configured
	// Albion guild at registration time.
	Verified     bool      `bun:",notnull"`
	RegisteredAt time.Time `bun:",notnull"`
}

// PlayerModel handles database operations for player registrations.
type PlayerModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPlayer creates a PlayerModel with database access.
func NewPlayer(db *bun.DB, logger *zap.Logger) *PlayerModel {
	return &PlayerModel{
		db:     db,
		logger: logger.Named("players"),
	}
}

// Register upserts a registration; re-registering replaces the character.
func (r *PlayerModel) Register(ctx context.Context, player *Player) error {
	player.RegisteredAt = time.Now().UTC()

	_, err := r.db.NewInsert().Model(player).
		On("CONFLICT (user_id, guild_id) DO UPDATE").
		Set("albion_id = EXCLUDED.albion_id").
		Set("albion_name = EXCLUDED.albion_name").
		Set("verified = EXCLUDED.verified").
		Set("registered_at = EXCLUDED.registered_at").
		Exec(ctx)
	if err != nil {
		r.logger.Error("Failed to register player",
			zap.Error(err),
			zap.Uint64("userID", player.UserID),
			zap.String("albionName", player.AlbionName))
		return fmt.Errorf("failed to register player: %w", err)
	}

	return nil
}

// Unregister removes a registration. Returns true when a row was deleted.
func (r *PlayerModel) Unregister(ctx context.Context, userID, guildID uint64) (bool, error) {
	result, err := r.db.NewDelete().Model((*Player)(nil)).
		Where("user_id = ? AND guild_id = ?", userID, guildID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to unregister player: %w", err)
	}

	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// GetByUser returns the registration for a user, or nil when unregistered.
func (r *PlayerModel) GetByUser(ctx context.Context, userID, guildID uint64) (*Player, error) {
	player := new(Player)
	err := r.db.NewSelect().Model(player).
		Where("user_id = ? AND guild_id = ?", userID, guildID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return player, nil
}
