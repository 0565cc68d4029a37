package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/albiongw/goodwill/internal/database/dbretry"
)

// AttendanceRanking is one player's battle attendance within the lookback
// window. Rows are replaced wholesale on each rankings run.
type AttendanceRanking struct {
	GuildID    uint64    `bun:",pk"`
	AlbionName string    `bun:",pk"`
	RunID      uuid.UUID `bun:"type:uuid,notnull"`
	Battles    int       `bun:",notnull"`
	LastBattle time.Time `bun:",nullzero"`
	ComputedAt time.Time `bun:",notnull"`
}

// MMRRanking is one player's weapon ladder standing from MurderLedger.
type MMRRanking struct {
	GuildID    uint64    `bun:",pk"`
	AlbionName string    `bun:",pk"`
	Weapon     string    `bun:",pk"`
	RunID      uuid.UUID `bun:"type:uuid,notnull"`
	Role       string    `bun:",notnull"`
	Elo        int       `bun:",notnull"`
	Kills      int       `bun:",notnull"`
	ComputedAt time.Time `bun:",notnull"`
}

// RankingModel handles database operations for ranking snapshots.
type RankingModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewRanking creates a RankingModel with database access.
func NewRanking(db *bun.DB, logger *zap.Logger) *RankingModel {
	return &RankingModel{
		db:     db,
		logger: logger.Named("rankings"),
	}
}

// ReplaceAttendance swaps the guild's attendance snapshot for a new run.
func (r *RankingModel) ReplaceAttendance(ctx context.Context, guildID uint64, rows []AttendanceRanking) error {
	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*AttendanceRanking)(nil)).
			Where("guild_id = ?", guildID).
			Exec(ctx)
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			return nil
		}
		_, err = tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to replace attendance ranking: %w", err)
	}

	r.logger.Debug("Replaced attendance ranking",
		zap.Uint64("guildID", guildID),
		zap.Int("rows", len(rows)))
	return nil
}

// ReplaceMMR swaps the guild's MMR snapshot for a new run.
func (r *RankingModel) ReplaceMMR(ctx context.Context, guildID uint64, rows []MMRRanking) error {
	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*MMRRanking)(nil)).
			Where("guild_id = ?", guildID).
			Exec(ctx)
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			return nil
		}
		_, err = tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to replace mmr ranking: %w", err)
	}

	r.logger.Debug("Replaced MMR ranking",
		zap.Uint64("guildID", guildID),
		zap.Int("rows", len(rows)))
	return nil
}

// TopAttendance returns the guild's attendance leaders.
func (r *RankingModel) TopAttendance(ctx context.Context, guildID uint64, limit int) ([]AttendanceRanking, error) {
	var rows []AttendanceRanking
	err := r.db.NewSelect().Model(&rows).
		Where("guild_id = ?", guildID).
		Order("battles DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance ranking: %w", err)
	}
	return rows, nil
}

// TopMMR returns the guild's ladder leaders for a role.
func (r *RankingModel) TopMMR(ctx context.Context, guildID uint64, role string, limit int) ([]MMRRanking, error) {
	var rows []MMRRanking
	err := r.db.NewSelect().Model(&rows).
		Where("guild_id = ? AND role = ?", guildID, role).
		Order("elo DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get mmr ranking: %w", err)
	}
	return rows, nil
}
