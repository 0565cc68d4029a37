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

// VoiceSession is one continuous interval a user spent in a guild's voice
// channels. At most one row per (user, guild) has IsActive set; status flag
// changes update the open row in place and move LastStatusChange forward.
type VoiceSession struct {
	ID                int64     `bun:",pk,autoincrement"`
	UserID            uint64    `bun:",notnull"`
	GuildID           uint64    `bun:",notnull"`
	ChannelID         uint64    `bun:",notnull"`
	Username          string    `bun:",notnull"`
	IsActive          bool      `bun:",notnull"`
	IsAfk             bool      `bun:",notnull"`
	IsMutedOrDeafened bool      `bun:",notnull"`
	JoinedAt          time.Time `bun:",notnull"`
	LastStatusChange  time.Time `bun:",notnull"`
}

// VoiceSessionModel handles database operations for voice sessions.
type VoiceSessionModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewVoiceSession creates a VoiceSessionModel with database access.
func NewVoiceSession(db *bun.DB, logger *zap.Logger) *VoiceSessionModel {
	return &VoiceSessionModel{
		db:     db,
		logger: logger.Named("voice_sessions"),
	}
}

// GetActive returns the open session for the user in the guild, or nil when
// none is open.
func (r *VoiceSessionModel) GetActive(ctx context.Context, userID, guildID uint64) (*VoiceSession, error) {
	session := new(VoiceSession)
	err := r.db.NewSelect().Model(session).
		Where("user_id = ? AND guild_id = ? AND is_active", userID, guildID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return session, nil
}

// Insert stores a new open session row.
func (r *VoiceSessionModel) Insert(ctx context.Context, session *VoiceSession) error {
	if _, err := r.db.NewInsert().Model(session).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert voice session: %w", err)
	}
	return nil
}

// CloseActive marks the user's open session inactive and returns its pre-close
// snapshot, or nil when no session was open. The returned snapshot still
// carries the flags and timestamps the session had while open, so callers can
// compute the owed duration.
func (r *VoiceSessionModel) CloseActive(ctx context.Context, userID, guildID uint64) (*VoiceSession, error) {
	var snapshot *VoiceSession

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		session := new(VoiceSession)
		err := tx.NewSelect().Model(session).
			Where("user_id = ? AND guild_id = ? AND is_active", userID, guildID).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}

		_, err = tx.NewUpdate().Model((*VoiceSession)(nil)).
			Set("is_active = FALSE").
			Where("id = ?", session.ID).
			Exec(ctx)
		if err != nil {
			return err
		}

		snapshot = session
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to close active session: %w", err)
	}

	return snapshot, nil
}

// UpdateStatus rewrites the open session's status flags and segment boundary.
func (r *VoiceSessionModel) UpdateStatus(
	ctx context.Context, userID, guildID uint64,
	isAfk, isMutedOrDeafened bool, channelID uint64, now time.Time,
) error {
	_, err := r.db.NewUpdate().Model((*VoiceSession)(nil)).
		Set("is_afk = ?", isAfk).
		Set("is_muted_or_deafened = ?", isMutedOrDeafened).
		Set("channel_id = ?", channelID).
		Set("last_status_change = ?", now).
		Where("user_id = ? AND guild_id = ? AND is_active", userID, guildID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	return nil
}

// GetStale returns open sessions whose last status change is older than the
// cutoff, meaning the leave event was probably missed.
func (r *VoiceSessionModel) GetStale(ctx context.Context, cutoff time.Time) ([]*VoiceSession, error) {
	var sessions []*VoiceSession
	err := r.db.NewSelect().Model(&sessions).
		Where("is_active AND last_status_change < ?", cutoff).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stale sessions: %w", err)
	}
	return sessions, nil
}

// GetAllActive returns every open session, used by the reconciliation sweep.
func (r *VoiceSessionModel) GetAllActive(ctx context.Context) ([]*VoiceSession, error) {
	var sessions []*VoiceSession
	err := r.db.NewSelect().Model(&sessions).
		Where("is_active").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active sessions: %w", err)
	}
	return sessions, nil
}
