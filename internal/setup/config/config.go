package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentBotVersion    = 1
	CurrentWorkerVersion = 1
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig `koanf:"common"`
	Bot    BotConfig    `koanf:"bot"`
	Worker WorkerConfig `koanf:"worker"`
}

// CommonConfig contains configuration shared between bot and worker.
type CommonConfig struct {
	// Version of the common config.
	Version        int            `koanf:"version"`
	Debug          Debug          `koanf:"debug"`
	CircuitBreaker CircuitBreaker `koanf:"circuit_breaker"`
	Retry          Retry          `koanf:"retry"`
	PostgreSQL     PostgreSQL     `koanf:"postgresql"`
	Redis          Redis          `koanf:"redis"`
	Albion         Albion         `koanf:"albion"`
}

// BotConfig contains Discord bot specific configuration.
type BotConfig struct {
	// Version of the bot config.
	Version int `koanf:"version"`
	// Discord bot token.
	Token string `koanf:"token"`
	// Voice tracker thresholds.
	Tracker Tracker `koanf:"tracker"`
}

// WorkerConfig contains worker specific configuration.
type WorkerConfig struct {
	// Version of the worker config.
	Version int `koanf:"version"`
	// Retention limits for aggregate tables.
	Retention Retention `koanf:"retention"`
	// Rankings recompute configuration.
	Rankings Rankings `koanf:"rankings"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log session directories to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
}

// CircuitBreaker contains circuit breaker configuration for the API clients.
type CircuitBreaker struct {
	// Maximum failures before the circuit opens.
	MaxFailures uint32 `koanf:"max_failures"`
	// Failure threshold in milliseconds.
	FailureThreshold int `koanf:"failure_threshold"`
	// Recovery timeout in milliseconds.
	RecoveryTimeout int `koanf:"recovery_timeout"`
}

// Retry contains retry configuration for the API clients.
type Retry struct {
	// Maximum retry attempts.
	MaxRetries uint64 `koanf:"max_retries"`
	// Initial delay between retries in milliseconds.
	Delay int `koanf:"delay"`
	// Maximum delay between retries in milliseconds.
	MaxDelay int `koanf:"max_delay"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	Host         string `koanf:"host"`
	Port         int    `koanf:"port"`
	User         string `koanf:"user"`
	Password     string `koanf:"password"`
	DBName       string `koanf:"db_name"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	// Connection lifetime limits in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Albion contains base URLs and limits for the Albion stat APIs.
type Albion struct {
	// Base URL of the official game-info API.
	GameinfoURL string `koanf:"gameinfo_url"`
	// Base URL of the MurderLedger API.
	MurderLedgerURL string `koanf:"murderledger_url"`
	// Base URL of the AlbionBB battles API.
	AlbionBBURL string `koanf:"albionbb_url"`
	// Request timeout in milliseconds.
	RequestTimeout int `koanf:"request_timeout"`
	// Response cache TTL in minutes for the Redis middleware.
	CacheTTL int `koanf:"cache_ttl"`
}

// Tracker contains voice tracker thresholds.
type Tracker struct {
	// Minimum session length in seconds before a leave is credited.
	MinSessionSeconds int `koanf:"min_session_seconds"`
	// Segments marked AFK for at least this long never count as active voice.
	AfkTimeoutSeconds int `koanf:"afk_timeout_seconds"`
	// Staleness threshold in hours for the session reaper.
	StaleAfterHours int `koanf:"stale_after_hours"`
	// Sweep interval in minutes for the reaper and reconciliation jobs.
	SweepIntervalMinutes int `koanf:"sweep_interval_minutes"`
}

// Retention contains purge cutoffs for aggregate tables, in days.
type Retention struct {
	DailyDays   int `koanf:"daily_days"`
	WeeklyDays  int `koanf:"weekly_days"`
	MonthlyDays int `koanf:"monthly_days"`
}

// Rankings contains ranking recompute configuration.
type Rankings struct {
	// Lookback window in days for attendance battles.
	LookbackDays int `koanf:"lookback_days"`
	// Minimum players in a battle for it to count towards attendance.
	MinBattlePlayers int `koanf:"min_battle_players"`
	// Maximum concurrent player stat fetches.
	FetchConcurrency int `koanf:"fetch_concurrency"`
}

// LoadConfig loads the configuration from the first config path that has a
// config.toml and returns it along with the directory it was found in.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	configPaths := []string{".", "config", "/etc/goodwill", "/app/config"}

	var (
		loaded    bool
		usedDir   string
		lastError error
	)
	for _, path := range configPaths {
		configFile := path + "/config.toml"
		if _, err := os.Stat(configFile); err != nil {
			continue
		}
		if err := k.Load(file.Provider(configFile), toml.Parser()); err != nil {
			lastError = fmt.Errorf("failed to parse config file %s: %w", configFile, err)
			continue
		}
		loaded = true
		usedDir = path
		break
	}

	if !loaded {
		if lastError != nil {
			return nil, "", lastError
		}
		return nil, "", ErrConfigFileNotFound
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := checkVersions(&config); err != nil {
		return nil, "", err
	}

	return &config, usedDir, nil
}

// checkVersions verifies the config file sections match the versions this
// binary was built against.
func checkVersions(config *Config) error {
	checks := []struct {
		name    string
		got     int
		current int
	}{
		{"common", config.Common.Version, CurrentCommonVersion},
		{"bot", config.Bot.Version, CurrentBotVersion},
		{"worker", config.Worker.Version, CurrentWorkerVersion},
	}

	for _, c := range checks {
		if c.got == 0 {
			return fmt.Errorf("%w: %s", ErrConfigVersionMissing, c.name)
		}
		if c.got != c.current {
			return fmt.Errorf("%w: %s config is version %d, expected %d",
				ErrConfigVersionMismatch, c.name, c.got, c.current)
		}
	}

	return nil
}
