package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Engine    EngineConfig
	Realtime  RealtimeConfig
	Telemetry TelemetryConfig
	LogLevel  string
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// 儲存、鎖與事件轉送的後端
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendLocal    = "local"
	BackendRedis    = "redis"
	RelayDirect     = "direct"
)

type EngineConfig struct {
	StoreBackend       string // memory | postgres
	LockBackend        string // local | redis
	EventRelay         string // direct | memory | redis
	MaxAttempts        int
	DefaultStrategy    string
	DefaultInterleave  int
	LockTTL            time.Duration
	LockWait           time.Duration
	EventQueueBuffer   int
	HubSendBuffer      int
	StreamConsumerID   string
	StreamClaimMinIdle time.Duration
	StreamMaxRetry     int
	AutoMigrate        bool
}

type RealtimeConfig struct {
	Prefix string
}

type TelemetryConfig struct {
	ServiceName string
}

var AppConfig *Config

func LoadConfig() *Config {
	// .env 不存在時直接使用環境變數
	_ = godotenv.Load()

	AppConfig = &Config{
		Server:    GetServerConfig(),
		Database:  GetDatabaseConfig(),
		Redis:     GetRedisConfig(),
		Engine:    GetEngineConfig(),
		Realtime:  RealtimeConfig{Prefix: getEnv("REALTIME_PREFIX", "/realtime")},
		Telemetry: TelemetryConfig{ServiceName: getEnv("OTEL_SERVICE_NAME", "qms-queue-engine")},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}

	return AppConfig
}

func LoadTestConfig() *Config {
	testConfig := &DatabaseConfig{
		Host:     "localhost",
		Port:     "5433", // 測試 DB 用 5433 port
		User:     "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
	}

	testRedisConfig := RedisConfig{
		Host:     "localhost",
		Port:     "6380", // 測試 Redis 用 6380 port
		Password: "",
		DB:       1,
	}

	engine := GetEngineConfig()
	engine.StoreBackend = BackendMemory
	engine.LockBackend = BackendLocal
	engine.EventRelay = RelayDirect

	return &Config{
		Server:    ServerConfig{Port: "8080", GinMode: "test"},
		Database:  *testConfig,
		Redis:     testRedisConfig,
		Engine:    engine,
		Realtime:  RealtimeConfig{Prefix: "/realtime"},
		Telemetry: TelemetryConfig{ServiceName: "qms-queue-engine-test"},
		LogLevel:  "debug",
	}
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "release"),
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

func GetRedisConfig() RedisConfig {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		panic(err)
	}

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func GetEngineConfig() EngineConfig {
	return EngineConfig{
		StoreBackend:       strings.ToLower(getEnv("QMS_STORE", BackendMemory)),
		LockBackend:        strings.ToLower(getEnv("QMS_LOCK", BackendLocal)),
		EventRelay:         strings.ToLower(getEnv("QMS_EVENT_RELAY", RelayDirect)),
		MaxAttempts:        getEnvAsInt("QMS_MAX_ATTEMPTS", 3),
		DefaultStrategy:    strings.ToLower(getEnv("QMS_DEFAULT_STRATEGY", "strict")),
		DefaultInterleave:  getEnvAsInt("QMS_DEFAULT_INTERLEAVE", 5),
		LockTTL:            getEnvAsDuration("QMS_LOCK_TTL", 5*time.Second),
		LockWait:           getEnvAsDuration("QMS_LOCK_WAIT", 2*time.Second),
		EventQueueBuffer:   getEnvAsInt("QMS_EVENT_BUFFER", 1024),
		HubSendBuffer:      getEnvAsInt("QMS_HUB_SEND_BUFFER", 16),
		StreamConsumerID:   getEnv("QMS_STREAM_CONSUMER", ""),
		StreamClaimMinIdle: getEnvAsDuration("QMS_STREAM_CLAIM_IDLE", 5*time.Second),
		StreamMaxRetry:     getEnvAsInt("QMS_STREAM_MAX_RETRY", 5),
		AutoMigrate:        getEnvAsBool("QMS_AUTO_MIGRATE", false),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}
