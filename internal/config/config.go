package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Logging  LoggingConfig
	Matching MatchingConfig
	Feed     FeedConfig
	Swipe    SwipeConfig
	Kafka    KafkaConfig
	Gemini   GeminiConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Migrate applies the embedded schema at start-up.
	Migrate bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	AccessSecret string
}

type LoggingConfig struct {
	Level string
}

type MatchingConfig struct {
	WeightMutualStatus float64
	WeightAge          float64
	WeightDistance     float64
	WeightLocation     float64
	WeightLifestyle    float64
	DistanceCutoffKm   float64
}

type FeedConfig struct {
	PoolSize        int
	MaxBatch        int
	RecycleDisliked bool
}

type SwipeConfig struct {
	DailyLikeLimit int
	RetryAttempts  int
	RetryBackoff   time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15*time.Second)

	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MIGRATE", true)

	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("MATCHING_WEIGHT_MUTUAL_STATUS", 0.30)
	v.SetDefault("MATCHING_WEIGHT_AGE", 0.20)
	v.SetDefault("MATCHING_WEIGHT_DISTANCE", 0.20)
	v.SetDefault("MATCHING_WEIGHT_LOCATION", 0.15)
	v.SetDefault("MATCHING_WEIGHT_LIFESTYLE", 0.15)
	v.SetDefault("MATCHING_DISTANCE_CUTOFF_KM", 100.0)

	v.SetDefault("FEED_POOL_SIZE", 50)
	v.SetDefault("FEED_MAX_BATCH", 20)
	v.SetDefault("FEED_RECYCLE_DISLIKED", false)

	v.SetDefault("SWIPE_DAILY_LIKE_LIMIT", 100)
	v.SetDefault("SWIPE_RETRY_ATTEMPTS", 3)
	v.SetDefault("SWIPE_RETRY_BACKOFF", 20*time.Millisecond)

	v.SetDefault("KAFKA_TOPIC", "match.created")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-pro")
}

// Load loads configuration from environment variables or .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Try to read from .env file, but don't fail if it doesn't exist
	_ = v.ReadInConfig()

	return FromViper(v)
}

// FromViper builds and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{
		Server: ServerConfig{
			Host:         v.GetString("SERVER_HOST"),
			Port:         v.GetInt("SERVER_PORT"),
			Env:          v.GetString("ENV"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSL_MODE"),
			Migrate:  v.GetBool("DB_MIGRATE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Matching: MatchingConfig{
			WeightMutualStatus: v.GetFloat64("MATCHING_WEIGHT_MUTUAL_STATUS"),
			WeightAge:          v.GetFloat64("MATCHING_WEIGHT_AGE"),
			WeightDistance:     v.GetFloat64("MATCHING_WEIGHT_DISTANCE"),
			WeightLocation:     v.GetFloat64("MATCHING_WEIGHT_LOCATION"),
			WeightLifestyle:    v.GetFloat64("MATCHING_WEIGHT_LIFESTYLE"),
			DistanceCutoffKm:   v.GetFloat64("MATCHING_DISTANCE_CUTOFF_KM"),
		},
		Feed: FeedConfig{
			PoolSize:        v.GetInt("FEED_POOL_SIZE"),
			MaxBatch:        v.GetInt("FEED_MAX_BATCH"),
			RecycleDisliked: v.GetBool("FEED_RECYCLE_DISLIKED"),
		},
		Swipe: SwipeConfig{
			DailyLikeLimit: v.GetInt("SWIPE_DAILY_LIKE_LIMIT"),
			RetryAttempts:  v.GetInt("SWIPE_RETRY_ATTEMPTS"),
			RetryBackoff:   v.GetDuration("SWIPE_RETRY_BACKOFF"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Gemini: GeminiConfig{
			APIKey: v.GetString("GEMINI_API_KEY"),
			Model:  v.GetString("GEMINI_MODEL"),
		},
	}

	// Validate critical configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT access secret is required")
	}
	if len(c.JWT.AccessSecret) < 32 {
		return fmt.Errorf("JWT access secret must be at least 32 characters")
	}
	if err := c.Matching.Validate(); err != nil {
		return err
	}
	if c.Feed.MaxBatch <= 0 {
		return fmt.Errorf("feed max batch must be positive")
	}
	if c.Feed.PoolSize < c.Feed.MaxBatch {
		return fmt.Errorf("feed pool size must be at least the max batch (%d)", c.Feed.MaxBatch)
	}
	if c.Swipe.RetryAttempts < 1 {
		return fmt.Errorf("swipe retry attempts must be at least 1")
	}
	if c.Swipe.RetryBackoff < 0 {
		return fmt.Errorf("swipe retry backoff must not be negative")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic is required when brokers are set")
	}
	return nil
}

func (c *MatchingConfig) Validate() error {
	weights := []float64{c.WeightMutualStatus, c.WeightAge, c.WeightDistance, c.WeightLocation, c.WeightLifestyle}
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("matching weights must not be negative")
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("matching weights must sum to 1.0, got %.6f", sum)
	}
	if c.DistanceCutoffKm <= 0 {
		return fmt.Errorf("matching distance cutoff must be positive")
	}
	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetRedisAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether a Redis host is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}
