// Package database manages the PostgreSQL connection and the repositories
// built on top of it.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"github.com/albiongw/goodwill/internal/database/migrations"
	"github.com/albiongw/goodwill/internal/database/models"
	"github.com/albiongw/goodwill/internal/setup/config"
)

// Client represents the database connection and operations. It manages access
// to the repositories that handle specific data types.
type Client struct {
	db            *bun.DB
	logger        *zap.Logger
	voiceSessions *models.VoiceSessionModel
	activity      *models.ActivityModel
	settings      *models.SettingModel
	players       *models.PlayerModel
	rankings      *models.RankingModel
	compositions  *models.CompositionModel
}

// NewConnection establishes a new database connection and returns a Client
// instance with migrations applied.
func NewConnection(config *config.PostgreSQL, logger *zap.Logger) (*Client, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithAddr(fmt.Sprintf("%s:%d", config.Host, config.Port)),
		pgdriver.WithUser(config.User),
		pgdriver.WithPassword(config.Password),
		pgdriver.WithDatabase(config.DBName),
		pgdriver.WithInsecure(true),
		pgdriver.WithApplicationName("goodwill"),
	))

	// Set connection pool settings
	sqldb.SetMaxOpenConns(config.MaxOpenConns)
	sqldb.SetMaxIdleConns(config.MaxIdleConns)
	sqldb.SetConnMaxLifetime(time.Duration(config.MaxLifetime) * time.Minute)
	sqldb.SetConnMaxIdleTime(time.Duration(config.MaxIdleTime) * time.Minute)

	db := bun.NewDB(sqldb, pgdialect.New())
	db.AddQueryHook(NewHook(logger))

	// Run migrations
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize migrator: %w", err)
	}

	if err := migrator.Lock(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to lock migrator: %w", err)
	}
	defer migrator.Unlock(context.Background()) //nolint:errcheck

	group, err := migrator.Migrate(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if !group.IsZero() {
		logger.Info("Successfully ran database migrations",
			zap.Int64("group", group.ID),
			zap.Int("migrations", len(group.Migrations)))
	}

	client := &Client{
		db:            db,
		logger:        logger,
		voiceSessions: models.NewVoiceSession(db, logger),
		activity:      models.NewActivity(db, logger),
		settings:      models.NewSetting(db, logger),
		players:       models.NewPlayer(db, logger),
		rankings:      models.NewRanking(db, logger),
		compositions:  models.NewComposition(db, logger),
	}

	logger.Info("Database connection established and migrations completed")
	return client, nil
}

// Close gracefully shuts down the database connection.
func (c *Client) Close() error {
	err := c.db.Close()
	if err != nil {
		c.logger.Error("Failed to close database connection", zap.Error(err))
		return err
	}
	c.logger.Info("Database connection closed")
	return nil
}

// VoiceSessions returns the repository for voice session operations.
func (c *Client) VoiceSessions() *models.VoiceSessionModel {
	return c.voiceSessions
}

// Activity returns the repository for activity aggregate operations.
func (c *Client) Activity() *models.ActivityModel {
	return c.activity
}

// Settings returns the repository for guild settings operations.
func (c *Client) Settings() *models.SettingModel {
	return c.settings
}

// Players returns the repository for player registration operations.
func (c *Client) Players() *models.PlayerModel {
	return c.players
}

// Rankings returns the repository for ranking snapshot operations.
func (c *Client) Rankings() *models.RankingModel {
	return c.rankings
}

// Compositions returns the repository for composition operations.
func (c *Client) Compositions() *models.CompositionModel {
	return c.compositions
}
