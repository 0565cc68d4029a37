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

var (
	ErrUnknownPost   = errors.New("composition post not found")
	ErrDuplicateName = errors.New("a composition with this name already exists")
	ErrUnknownPreset = errors.New("composition preset not found")
)

// Composition roles. Battlemount covers the dedicated mount slots some
// content runs with.
const (
	RoleTank        = "tank"
	RoleHealer      = "healer"
	RoleSupport     = "support"
	RoleDPS         = "dps"
	RoleBattlemount = "battlemount"
)

// Composition is a named event preset for a guild.
type Composition struct {
	ID        int64     `bun:",pk,autoincrement"`
	GuildID   uint64    `bun:",notnull"`
	Name      string    `bun:",notnull"`
	CreatedBy uint64    `bun:",notnull"`
	CreatedAt time.Time `bun:",notnull"`

	Slots []*CompositionSlot `bun:"rel:has-many,join:id=composition_id"`
}

// CompositionSlot is one weapon line in a preset: how many players on which
// weapon, and the minimum MurderLedger kill count required to sign up.
type CompositionSlot struct {
	ID            int64  `bun:",pk,autoincrement"`
	CompositionID int64  `bun:",notnull"`
	Role          string `bun:",notnull"`
	Weapon        string `bun:",notnull"`
	Capacity      int    `bun:",notnull"`
	MinKills      int    `bun:",notnull,default:0"`
	Position      int    `bun:",notnull"`
}

// CompositionPost is one published instance of a preset: the ping message,
// the signup message, and its thread.
type CompositionPost struct {
	ID            int64     `bun:",pk,autoincrement"`
	CompositionID int64     `bun:",notnull"`
	GuildID       uint64    `bun:",notnull"`
	ChannelID     uint64    `bun:",notnull"`
	MessageID     uint64    `bun:",notnull,unique"`
	ThreadID      uint64    `bun:",nullzero"`
	CreatedAt     time.Time `bun:",notnull"`
}

// CompositionSignup assigns a user to a weapon on a post. Fill entries wait
// in FIFO order (by Position) until a regular slot frees up.
type CompositionSignup struct {
	ID       int64     `bun:",pk,autoincrement"`
	PostID   int64     `bun:",notnull"`
	SlotID   int64     `bun:",notnull"`
	UserID   uint64    `bun:",notnull"`
	Username string    `bun:",notnull"`
	IsFill   bool      `bun:",notnull"`
	Position int       `bun:",notnull"`
	JoinedAt time.Time `bun:",notnull"`
}

// CompositionModel handles database operations for compositions, posts, and
// signups. Signup state lives here; embeds are rendered from these rows, never
// parsed back.
type CompositionModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewComposition creates a CompositionModel with database access.
func NewComposition(db *bun.DB, logger *zap.Logger) *CompositionModel {
	return &CompositionModel{
		db:     db,
		logger: logger.Named("compositions"),
	}
}

// CreatePreset stores a new named preset with its slots.
func (r *CompositionModel) CreatePreset(ctx context.Context, comp *Composition, slots []*CompositionSlot) error {
	comp.CreatedAt = time.Now().UTC()

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*Composition)(nil)).
			Where("guild_id = ? AND LOWER(name) = LOWER(?)", comp.GuildID, comp.Name).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateName
		}

		if _, err := tx.NewInsert().Model(comp).Exec(ctx); err != nil {
			return err
		}

		for i, slot := range slots {
			slot.CompositionID = comp.ID
			slot.Position = i
		}
		_, err = tx.NewInsert().Model(&slots).Exec(ctx)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateName) {
			return err
		}
		return fmt.Errorf("failed to create composition preset: %w", err)
	}

	return nil
}

// GetPreset loads a preset and its slots by name.
func (r *CompositionModel) GetPreset(ctx context.Context, guildID uint64, name string) (*Composition, error) {
	comp := new(Composition)
	err := r.db.NewSelect().Model(comp).
		Relation("Slots", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Where("guild_id = ? AND LOWER(name) = LOWER(?)", guildID, name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownPreset
		}
		return nil, fmt.Errorf("failed to get composition preset: %w", err)
	}
	return comp, nil
}

// GetPresetByID loads a preset and its slots, used when resolving a post
// back to its composition.
func (r *CompositionModel) GetPresetByID(ctx context.Context, id int64) (*Composition, error) {
	comp := new(Composition)
	err := r.db.NewSelect().Model(comp).
		Relation("Slots", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownPreset
		}
		return nil, fmt.Errorf("failed to get composition preset: %w", err)
	}
	return comp, nil
}

// ListPresets returns the guild's preset names.
func (r *CompositionModel) ListPresets(ctx context.Context, guildID uint64) ([]Composition, error) {
	var comps []Composition
	err := r.db.NewSelect().Model(&comps).
		Where("guild_id = ?", guildID).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list composition presets: %w", err)
	}
	return comps, nil
}

// CreatePost records a published composition message.
func (r *CompositionModel) CreatePost(ctx context.Context, post *CompositionPost) error {
	post.CreatedAt = time.Now().UTC()
	if _, err := r.db.NewInsert().Model(post).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create composition post: %w", err)
	}
	return nil
}

// GetPostByMessage resolves a post from its signup message id.
func (r *CompositionModel) GetPostByMessage(ctx context.Context, messageID uint64) (*CompositionPost, error) {
	post := new(CompositionPost)
	err := r.db.NewSelect().Model(post).
		Where("message_id = ?", messageID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownPost
		}
		return nil, fmt.Errorf("failed to get composition post: %w", err)
	}
	return post, nil
}

// Signup assigns the user to the slot, moving them if they already hold a
// different slot on the post. When the slot is at capacity the signup becomes
// a fill entry. Returns the stored signup.
func (r *CompositionModel) Signup(
	ctx context.Context, post *CompositionPost, slot *CompositionSlot, userID uint64, username string,
) (*CompositionSignup, error) {
	var signup *CompositionSignup

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// Drop any slot the user already holds; moving weapons re-assigns.
		if _, err := tx.NewDelete().Model((*CompositionSignup)(nil)).
			Where("post_id = ? AND user_id = ?", post.ID, userID).
			Exec(ctx); err != nil {
			return err
		}

		assigned, err := tx.NewSelect().Model((*CompositionSignup)(nil)).
			Where("post_id = ? AND slot_id = ? AND NOT is_fill", post.ID, slot.ID).
			For("UPDATE").
			Count(ctx)
		if err != nil {
			return err
		}

		var position int
		err = tx.NewSelect().Model((*CompositionSignup)(nil)).
			ColumnExpr("COALESCE(MAX(position), 0) + 1").
			Where("post_id = ? AND slot_id = ?", post.ID, slot.ID).
			Scan(ctx, &position)
		if err != nil {
			return err
		}

		signup = &CompositionSignup{
			PostID:   post.ID,
			SlotID:   slot.ID,
			UserID:   userID,
			Username: username,
			IsFill:   assigned >= slot.Capacity,
			Position: position,
			JoinedAt: time.Now().UTC(),
		}
		_, err = tx.NewInsert().Model(signup).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign up: %w", err)
	}

	return signup, nil
}

// Leave removes the user's signup. When a regular slot frees up, the oldest
// fill entry on the same slot is promoted; the promoted signup is returned.
func (r *CompositionModel) Leave(ctx context.Context, post *CompositionPost, userID uint64) (*CompositionSignup, error) {
	var promoted *CompositionSignup

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		removed := new(CompositionSignup)
		err := tx.NewSelect().Model(removed).
			Where("post_id = ? AND user_id = ?", post.ID, userID).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}

		if _, err := tx.NewDelete().Model((*CompositionSignup)(nil)).
			Where("id = ?", removed.ID).
			Exec(ctx); err != nil {
			return err
		}

		// Only a vacated regular slot pulls from the fill queue.
		if removed.IsFill {
			return nil
		}

		candidate := new(CompositionSignup)
		err = tx.NewSelect().Model(candidate).
			Where("post_id = ? AND slot_id = ? AND is_fill", post.ID, removed.SlotID).
			Order("position ASC").
			Limit(1).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}

		if _, err := tx.NewUpdate().Model((*CompositionSignup)(nil)).
			Set("is_fill = FALSE").
			Where("id = ?", candidate.ID).
			Exec(ctx); err != nil {
			return err
		}

		candidate.IsFill = false
		promoted = candidate
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to leave composition: %w", err)
	}

	return promoted, nil
}

// ListSignups returns a post's signups ordered by slot and position.
func (r *CompositionModel) ListSignups(ctx context.Context, postID int64) ([]CompositionSignup, error) {
	var signups []CompositionSignup
	err := r.db.NewSelect().Model(&signups).
		Where("post_id = ?", postID).
		Order("slot_id ASC", "position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list signups: %w", err)
	}
	return signups, nil
}
