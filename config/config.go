package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"lotterypool/database"
	"lotterypool/domain/entities"
	"lotterypool/domain/entropy"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Ledger configuration
	StartingBalance entities.Amount // Balance credited to every new account

	// Draw configuration
	AdministratorAddress entities.Address // Caller used by scheduled draws
	EntropySource        string           // "block" or "crypto"
	DrawSchedule         string           // cron expression, empty disables scheduled draws
	DrawPoolIDs          []int64

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated), empty disables publishing

	// Discord configuration
	DiscordToken     string
	DiscordChannelID string // Channel receiving winner announcements

	// HTTP configuration
	HTTPAddr           string
	RateLimitPerSecond int
	RateLimitBurst     int

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

// fileConfig mirrors Config for the optional TOML file
type fileConfig struct {
	DatabaseURL          string  `toml:"database_url"`
	DatabaseName         string  `toml:"database_name"`
	StartingBalance      string  `toml:"starting_balance"`
	AdministratorAddress string  `toml:"administrator_address"`
	EntropySource        string  `toml:"entropy_source"`
	DrawSchedule         string  `toml:"draw_schedule"`
	DrawPoolIDs          []int64 `toml:"draw_pool_ids"`
	NATSServers          string  `toml:"nats_servers"`
	DiscordToken         string  `toml:"discord_token"`
	DiscordChannelID     string  `toml:"discord_channel_id"`
	HTTPAddr             string  `toml:"http_addr"`
	RateLimitPerSecond   int     `toml:"rate_limit_per_second"`
	RateLimitBurst       int     `toml:"rate_limit_burst"`
	LogLevel             string  `toml:"log_level"`
	Environment          string  `toml:"environment"`
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = Load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads configuration from defaults, the CONFIG_FILE TOML file, a .env file
// and the process environment, later sources overriding earlier ones.
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	fc := fileConfig{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	config := &Config{
		DatabaseURL:        getEnvWithDefault("DATABASE_URL", fc.DatabaseURL),
		DatabaseName:       getEnvWithDefault("DATABASE_NAME", fc.DatabaseName),
		EntropySource:      getEnvWithDefault("ENTROPY_SOURCE", orDefault(fc.EntropySource, entropy.SourceBlock)),
		DrawSchedule:       getEnvWithDefault("DRAW_SCHEDULE", fc.DrawSchedule),
		NATSServers:        getEnvWithDefault("NATS_SERVERS", fc.NATSServers),
		DiscordToken:       getEnvWithDefault("DISCORD_TOKEN", fc.DiscordToken),
		DiscordChannelID:   getEnvWithDefault("DISCORD_CHANNEL_ID", fc.DiscordChannelID),
		HTTPAddr:           getEnvWithDefault("HTTP_ADDR", orDefault(fc.HTTPAddr, ":8080")),
		LogLevel:           getEnvWithDefault("LOG_LEVEL", orDefault(fc.LogLevel, "info")),
		Environment:        getEnvWithDefault("ENVIRONMENT", orDefault(fc.Environment, "development")),
		StartingBalance:    100 * entities.OneCoin,
		RateLimitPerSecond: 10,
		RateLimitBurst:     20,
		DrawPoolIDs:        fc.DrawPoolIDs,
	}

	if fc.RateLimitPerSecond != 0 {
		config.RateLimitPerSecond = fc.RateLimitPerSecond
	}
	if fc.RateLimitBurst != 0 {
		config.RateLimitBurst = fc.RateLimitBurst
	}

	if balance := getEnvWithDefault("STARTING_BALANCE", fc.StartingBalance); balance != "" {
		parsed, err := entities.ParseAmount(balance)
		if err != nil {
			return nil, fmt.Errorf("invalid STARTING_BALANCE: %w", err)
		}
		config.StartingBalance = parsed
	}

	if admin := getEnvWithDefault("ADMINISTRATOR_ADDRESS", fc.AdministratorAddress); admin != "" {
		parsed, err := entities.ParseAddress(admin)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMINISTRATOR_ADDRESS: %w", err)
		}
		config.AdministratorAddress = parsed
	}

	if ids := os.Getenv("DRAW_POOL_IDS"); ids != "" {
		parsed, err := parseIDList(ids)
		if err != nil {
			return nil, fmt.Errorf("invalid DRAW_POOL_IDS: %w", err)
		}
		config.DrawPoolIDs = parsed
	}

	if err := overrideInt("RATE_LIMIT_PER_SECOND", &config.RateLimitPerSecond); err != nil {
		return nil, err
	}
	if err := overrideInt("RATE_LIMIT_BURST", &config.RateLimitBurst); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if _, err := entropy.New(c.EntropySource); err != nil {
		return fmt.Errorf("invalid ENTROPY_SOURCE: %w", err)
	}
	if c.DrawSchedule != "" {
		if c.AdministratorAddress == "" {
			return fmt.Errorf("ADMINISTRATOR_ADDRESS is required when DRAW_SCHEDULE is set")
		}
		if len(c.DrawPoolIDs) == 0 {
			return fmt.Errorf("DRAW_POOL_IDS is required when DRAW_SCHEDULE is set")
		}
	}
	if c.RateLimitPerSecond <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SECOND must be positive, got %d", c.RateLimitPerSecond)
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive, got %d", c.RateLimitBurst)
	}
	if c.DiscordToken != "" && c.DiscordChannelID == "" {
		return fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_TOKEN is set")
	}

	if c.Environment != "test" {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		// If DatabaseName is provided, ensure it's not empty
		if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
			return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}
	return nil
}

// ConfigureLogging applies the level and formatter to the standard logrus logger
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("log_level", c.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if c.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func orDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}

func overrideInt(key string, target *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fmt.Errorf("invalid %s: %q", key, value)
	}
	*target = parsed
	return nil
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, idStr := range strings.Split(s, ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("pool id %q: %w", idStr, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:        "test",
		StartingBalance:    100 * entities.OneCoin,
		EntropySource:      entropy.SourceBlock,
		HTTPAddr:           ":0",
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
		LogLevel:           "debug",
	}
}
