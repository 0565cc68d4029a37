package redis

import (
	"fmt"
	"sync"

	"github.com/albiongw/goodwill/internal/setup/config"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// Logical database indices used by the application.
const (
	// CacheDBIndex backs the HTTP response cache for the Albion API clients.
	CacheDBIndex = 0
	// StatsDBIndex stores worker heartbeats and ranking run markers.
	StatsDBIndex = 1
)

// Manager handles Redis client management.
type Manager struct {
	clients map[int]rueidis.Client
	config  *config.Redis
	logger  *zap.Logger
	mu      sync.Mutex
}

// NewManager creates a new Redis manager instance.
func NewManager(config *config.Redis, logger *zap.Logger) *Manager {
	return &Manager{
		clients: make(map[int]rueidis.Client),
		config:  config,
		logger:  logger.Named("redis"),
	}
}

// GetClient returns a Redis client for the given database index, creating it
// on first use.
func (m *Manager) GetClient(dbIndex int) (rueidis.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, exists := m.clients[dbIndex]; exists {
		return client, nil
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)},
		Username:     m.config.Username,
		Password:     m.config.Password,
		SelectDB:     dbIndex,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client for DB %d: %w", dbIndex, err)
	}

	m.clients[dbIndex] = client
	m.logger.Debug("Created new Redis client", zap.Int("dbIndex", dbIndex))
	return client, nil
}

// Close closes all Redis clients.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for dbIndex, client := range m.clients {
		client.Close()
		m.logger.Debug("Closed Redis client", zap.Int("dbIndex", dbIndex))
	}
}
