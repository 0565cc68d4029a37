// Package setup bootstraps the shared dependencies of the bot and the
// workers.
package setup

import (
	"log"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/albiongw/goodwill/internal/albion"
	"github.com/albiongw/goodwill/internal/database"
	"github.com/albiongw/goodwill/internal/redis"
	"github.com/albiongw/goodwill/internal/setup/client"
	"github.com/albiongw/goodwill/internal/setup/config"
	"github.com/albiongw/goodwill/internal/setup/logging"
)

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config             // Application configuration
	Logger       *zap.Logger                // Main application logger
	DBLogger     *zap.Logger                // Database-specific logger
	DB           *database.Client           // Database connection pool
	RedisManager *redis.Manager             // Redis connection manager
	StatsClient  rueidis.Client             // Redis client for worker status reporting
	Gameinfo     *albion.GameinfoClient     // Official game-info API client
	MurderLedger *albion.MurderLedgerClient // MurderLedger API client
	AlbionBB     *albion.AlbionBBClient     // AlbionBB battles API client
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(logDir string) (*App, error) {
	// Load app configuration
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logger, dbLogger, err := logging.SetupLogging(logDir, cfg.Common.Debug.LogLevel, cfg.Common.Debug.MaxLogsToKeep)
	if err != nil {
		return nil, err
	}

	// Redis manager provides connection pools for various subsystems
	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	// Initialize database with migrations
	db, err := database.NewConnection(&cfg.Common.PostgreSQL, dbLogger.Named("database"))
	if err != nil {
		return nil, err
	}

	// HTTP client shared by the Albion stat API clients
	httpClient, err := client.NewAlbionClient(&cfg.Common, redisManager, logger)
	if err != nil {
		return nil, err
	}

	// Get Redis client for worker status reporting
	statsClient, err := redisManager.GetClient(redis.StatsDBIndex)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger,
		DB:           db,
		RedisManager: redisManager,
		StatsClient:  statsClient,
		Gameinfo:     albion.NewGameinfo(httpClient, cfg.Common.Albion.GameinfoURL, logger),
		MurderLedger: albion.NewMurderLedger(httpClient, cfg.Common.Albion.MurderLedgerURL, logger),
		AlbionBB:     albion.NewAlbionBB(httpClient, cfg.Common.Albion.AlbionBBURL, logger),
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse
// initialization order. Logs but does not fail on cleanup errors to ensure
// all components get cleanup attempts.
func (s *App) Cleanup() {
	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	// Close database connections
	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Close Redis connections last as other components might need it during cleanup
	s.RedisManager.Close()
}
