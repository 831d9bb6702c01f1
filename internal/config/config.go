package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the content generation service.
type Config struct {
	HTTPPort      string
	JWTSecret     []byte
	JWTExpiry     time.Duration
	EncryptionKey string
	Database      DatabaseConfig
	Cache         CacheConfig
	Redis         RedisConfig
	Queue         QueueConfig
	ObjectStore   ObjectStoreConfig
	Provider      ProviderConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// CacheConfig holds cache settings
type CacheConfig struct {
	CredentialCacheSize int
	CredentialCacheTTL  time.Duration
	PricingCacheSize    int
	PricingCacheTTL     time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// QueueConfig holds settings for the history persistence queue
type QueueConfig struct {
	UseRedis     bool
	BatchSize    int
	BatchTimeout time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// ObjectStoreConfig holds configuration for S3 image storage
type ObjectStoreConfig struct {
	Enabled       bool   // Whether generated images are uploaded to S3
	Bucket        string // S3 bucket name
	Region        string // AWS region
	Prefix        string // Prefix for S3 keys (e.g., "images/")
	PublicBaseURL string // Base URL for serving uploaded objects
}

// ProviderConfig holds provider-related settings
type ProviderConfig struct {
	RequestTimeout time.Duration // Default timeout for provider requests
	OpenAIBaseURL  string        // Override for the OpenAI API base URL
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getEnvString(key string, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	port := getEnvString("HTTP_PORT", "8080")
	jwtSecret := []byte(getEnvString("JWT_SECRET", "supersecretkey"))

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	encryptionKey := os.Getenv("ENCRYPTION_KEY")
	if encryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}

	cfg := &Config{
		HTTPPort:      port,
		JWTSecret:     jwtSecret,
		JWTExpiry:     getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		EncryptionKey: encryptionKey,
		Database: DatabaseConfig{
			URL:             dbURL,
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute),
		},
		Cache: CacheConfig{
			CredentialCacheSize: getEnvInt("CACHE_CREDENTIAL_SIZE", 100),
			CredentialCacheTTL:  getEnvDuration("CACHE_CREDENTIAL_TTL", 5*time.Minute),
			PricingCacheSize:    getEnvInt("CACHE_PRICING_SIZE", 500),
			PricingCacheTTL:     getEnvDuration("CACHE_PRICING_TTL", 15*time.Minute),
		},
		Redis: RedisConfig{
			Address:      getEnvString("REDIS_ADDRESS", "localhost:6379"),
			Password:     getEnvString("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Queue: QueueConfig{
			UseRedis:     getEnvString("QUEUE_USE_REDIS", "false") == "true",
			BatchSize:    getEnvInt("QUEUE_BATCH_SIZE", 100),
			BatchTimeout: getEnvDuration("QUEUE_BATCH_TIMEOUT", 5*time.Second),
			MaxRetries:   getEnvInt("QUEUE_MAX_RETRIES", 3),
			RetryBackoff: getEnvDuration("QUEUE_RETRY_BACKOFF", 1*time.Second),
		},
		ObjectStore: ObjectStoreConfig{
			Enabled:       getEnvString("OBJECT_STORE_ENABLED", "false") == "true",
			Bucket:        getEnvString("OBJECT_STORE_S3_BUCKET", ""),
			Region:        getEnvString("OBJECT_STORE_S3_REGION", "us-east-1"),
			Prefix:        getEnvString("OBJECT_STORE_S3_PREFIX", "images/"),
			PublicBaseURL: getEnvString("OBJECT_STORE_PUBLIC_BASE_URL", ""),
		},
		Provider: ProviderConfig{
			RequestTimeout: getEnvDuration("PROVIDER_REQUEST_TIMEOUT", 120*time.Second),
			OpenAIBaseURL:  getEnvString("OPENAI_BASE_URL", ""),
		},
	}

	return cfg, nil
}
