package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TrackerBackendKafka = "kafka"
	TrackerBackendRedis = "redis"
	TrackerBackendGRPC  = "grpc"
)

type Config struct {
	Env     string
	Server  ServerConfig
	Redis   RedisConfig
	Batcher BatcherConfig
	Tracker TrackerConfig
	Admin   AdminConfig
	Log     LogConfig
	Kafka   KafkaConfig
}

type ServerConfig struct {
	HTTPPort         int
	GRpcPort         int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	CORSAllowOrigins []string
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	MaxRetries   int
	PoolSize     int
	MinIdleConns int
}

type BatcherConfig struct {
	QuietPeriod         time.Duration
	MaxWait             time.Duration
	VisibilityThreshold float64
	BindingTTL          time.Duration
	SweepInterval       time.Duration
	ShutdownTimeout     time.Duration
}

type TrackerConfig struct {
	Backend  string
	GRpcAddr string
}

type KafkaConfig struct {
	Brokers              []string
	ProducerRetryMax     int
	ProducerRequiredAcks int
	Enabled              bool
	ConsumerGroupID      string
}

type AdminConfig struct {
	Username     string
	PasswordHash string
	JWTSecret    string
	JWTExpiry    time.Duration
}

type LogConfig struct {
	Level    string
	Mode     string
	Encoding string
	File     string
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			HTTPPort:         getEnvAsInt("SERVER_HTTP_PORT", 8080),
			GRpcPort:         getEnvAsInt("SERVER_GRPC_PORT", 50057),
			ReadTimeout:      getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:     getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:      getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			CORSAllowOrigins: getEnvAsSlice("CORS_ALLOW_ORIGINS", []string{"*"}),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			MaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		},
		Batcher: BatcherConfig{
			QuietPeriod:         getEnvAsDuration("BATCHER_QUIET_PERIOD", time.Second),
			MaxWait:             getEnvAsDuration("BATCHER_MAX_WAIT", 0),
			VisibilityThreshold: getEnvAsFloat("BATCHER_VISIBILITY_THRESHOLD", 0.5),
			BindingTTL:          getEnvAsDuration("BATCHER_BINDING_TTL", 30*time.Minute),
			SweepInterval:       getEnvAsDuration("BATCHER_SWEEP_INTERVAL", time.Minute),
			ShutdownTimeout:     getEnvAsDuration("BATCHER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Tracker: TrackerConfig{
			Backend:  getEnv("TRACKER_BACKEND", TrackerBackendKafka),
			GRpcAddr: getEnv("TRACKER_GRPC_ADDR", "localhost:50057"),
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:    getEnv("JWT_SECRET", "jwt-secret"),
			JWTExpiry:    getEnvAsDuration("JWT_EXPIRY", 12*time.Hour),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Mode:     getEnv("LOG_MODE", "development"),
			Encoding: getEnv("LOG_ENCODING", "console"),
			File:     getEnv("LOG_FILE", ""),
		},
		Kafka: KafkaConfig{
			Brokers:              getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			ProducerRetryMax:     getEnvAsInt("KAFKA_PRODUCER_RETRY_MAX", 3),
			ProducerRequiredAcks: getEnvAsInt("KAFKA_PRODUCER_REQUIRED_ACKS", 1),
			Enabled:              getEnvAsBool("KAFKA_ENABLED", true),
			ConsumerGroupID:      getEnv("KAFKA_CONSUMER_GROUP_ID", "dealview-tracker"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
	}

	if c.Server.GRpcPort <= 0 || c.Server.GRpcPort > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRpcPort)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if c.Batcher.QuietPeriod <= 0 {
		return fmt.Errorf("batcher quiet period must be positive, got %s", c.Batcher.QuietPeriod)
	}

	if c.Batcher.MaxWait < 0 {
		return fmt.Errorf("batcher max wait must not be negative, got %s", c.Batcher.MaxWait)
	}

	if c.Batcher.VisibilityThreshold <= 0 || c.Batcher.VisibilityThreshold > 1 {
		return fmt.Errorf("visibility threshold must be in (0, 1], got %v", c.Batcher.VisibilityThreshold)
	}

	if c.Batcher.SweepInterval <= 0 {
		return fmt.Errorf("binding sweep interval must be positive, got %s", c.Batcher.SweepInterval)
	}

	switch c.Tracker.Backend {
	case TrackerBackendKafka:
		if !c.Kafka.Enabled {
			return fmt.Errorf("tracker backend %q requires KAFKA_ENABLED", c.Tracker.Backend)
		}
	case TrackerBackendRedis:
	case TrackerBackendGRPC:
		if c.Tracker.GRpcAddr == "" {
			return fmt.Errorf("tracker backend %q requires TRACKER_GRPC_ADDR", c.Tracker.Backend)
		}
	default:
		return fmt.Errorf("unknown tracker backend: %q", c.Tracker.Backend)
	}

	if c.Env == "production" {
		if c.Admin.JWTSecret == "" || c.Admin.JWTSecret == "jwt-secret" {
			return fmt.Errorf("JWT secret must be set in production")
		}
		if c.Admin.PasswordHash == "" {
			return fmt.Errorf("admin password hash must be set in production")
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
