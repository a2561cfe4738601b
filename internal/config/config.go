// Package config loads the server configuration. Values are layered: built-in
// defaults, an optional YAML file, a .env file and finally the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/gameoflife/internal/app/domain/board"
	"github.com/R3E-Network/gameoflife/pkg/logger"
)

// EnvConfigPath names the variable holding the YAML file path.
const EnvConfigPath = "GOL_CONFIG"

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Game      GameConfig      `yaml:"game"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host                string   `yaml:"host" env:"GOL_SERVER_HOST"`
	Port                int      `yaml:"port" env:"GOL_SERVER_PORT"`
	ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds" env:"GOL_SERVER_READ_TIMEOUT_SECONDS"`
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds" env:"GOL_SERVER_WRITE_TIMEOUT_SECONDS"`
	AllowedOrigins      []string `yaml:"allowed_origins" env:"GOL_ALLOWED_ORIGINS"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ReadTimeout returns the read timeout as a duration.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the write timeout as a duration.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// RateLimitConfig throttles clients by address. Zero requests per second
// disables throttling.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second" env:"GOL_RATE_LIMIT_RPS"`
	Burst             int `yaml:"burst" env:"GOL_RATE_LIMIT_BURST"`
	// TrustedProxies are IPs or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string `yaml:"trusted_proxies" env:"GOL_RATE_LIMIT_TRUSTED_PROXIES"`
}

// DatabaseConfig selects the board store.
type DatabaseConfig struct {
	Driver          string `yaml:"driver" env:"GOL_DATABASE_DRIVER"`
	DSN             string `yaml:"dsn" env:"GOL_DATABASE_DSN"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"GOL_DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"GOL_DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" env:"GOL_DATABASE_CONN_MAX_LIFETIME"`
	MigrateOnStart  bool   `yaml:"migrate_on_start" env:"GOL_DATABASE_MIGRATE_ON_START"`
}

// RedisConfig enables the snapshot cache when Addr is set.
type RedisConfig struct {
	Addr       string `yaml:"addr" env:"GOL_REDIS_ADDR"`
	Password   string `yaml:"password" env:"GOL_REDIS_PASSWORD"`
	DB         int    `yaml:"db" env:"GOL_REDIS_DB"`
	TTLSeconds int    `yaml:"ttl_seconds" env:"GOL_REDIS_TTL_SECONDS"`
}

// TTL returns the cache entry lifetime.
func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

// LoggingConfig mirrors logger.LoggingConfig.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"GOL_LOG_LEVEL"`
	Format     string `yaml:"format" env:"GOL_LOG_FORMAT"`
	Output     string `yaml:"output" env:"GOL_LOG_OUTPUT"`
	FilePrefix string `yaml:"file_prefix" env:"GOL_LOG_FILE_PREFIX"`
}

// LoggerConfig converts to the logger package type.
func (l LoggingConfig) LoggerConfig() logger.LoggingConfig {
	return logger.LoggingConfig{
		Level:      l.Level,
		Format:     l.Format,
		Output:     l.Output,
		FilePrefix: l.FilePrefix,
	}
}

// GameConfig is the progression policy and neighbour window.
type GameConfig struct {
	ColumnStartOffset    int `yaml:"column_start_offset" env:"GOL_COLUMN_START_OFFSET"`
	ColumnEndOffset      int `yaml:"column_end_offset" env:"GOL_COLUMN_END_OFFSET"`
	RowStartOffset       int `yaml:"row_start_offset" env:"GOL_ROW_START_OFFSET"`
	RowEndOffset         int `yaml:"row_end_offset" env:"GOL_ROW_END_OFFSET"`
	StatesIncrementLimit int `yaml:"states_increment_limit" env:"GOL_STATES_INCREMENT_LIMIT"`
	Workers              int `yaml:"workers" env:"GOL_WORKERS"`
}

// Window returns the neighbour offset window.
func (g GameConfig) Window() board.Window {
	return board.Window{
		ColumnStart: g.ColumnStartOffset,
		ColumnEnd:   g.ColumnEndOffset,
		RowStart:    g.RowStartOffset,
		RowEnd:      g.RowEndOffset,
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                8080,
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 60,
			AllowedOrigins:      []string{"http://localhost:3000"},
		},
		RateLimit: RateLimitConfig{RequestsPerSecond: 50, Burst: 100},
		Database: DatabaseConfig{
			Driver:          "memory",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Redis:   RedisConfig{TTLSeconds: 3600},
		Logging: LoggingConfig{Level: "info", Format: "text", Output: "stdout", FilePrefix: "gameoflife"},
		Game: GameConfig{
			ColumnStartOffset:    -1,
			ColumnEndOffset:      1,
			RowStartOffset:       -1,
			RowEndOffset:         1,
			StatesIncrementLimit: 100,
		},
	}
}

// Load builds the configuration. An empty path falls back to GOL_CONFIG; with
// neither set no file is read. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path = strings.TrimSpace(path); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// StrictDecode reports ErrInvalidTarget when no variable is set.
	if err := envdecode.StrictDecode(cfg); err != nil && !errors.Is(err, envdecode.ErrInvalidTarget) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if err := c.Game.Window().Validate(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	if c.Game.StatesIncrementLimit <= 0 {
		return fmt.Errorf("game.states_increment_limit must be positive, got %d", c.Game.StatesIncrementLimit)
	}
	if c.Game.Workers < 0 {
		return fmt.Errorf("game.workers must not be negative, got %d", c.Game.Workers)
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second must not be negative")
	}
	if c.Redis.TTLSeconds < 0 {
		return fmt.Errorf("redis.ttl_seconds must not be negative")
	}

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case "", "memory":
		c.Database.Driver = "memory"
	case "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	return nil
}
