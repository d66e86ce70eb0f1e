package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "config.yaml"

	StoreSupabase = "supabase"
	StoreMemory   = "memory"

	LimiterMemory = "memory"
	LimiterRedis  = "redis"
)

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Server
	Port string `yaml:"port"`

	// Supabase
	StoreBackend       string `yaml:"store_backend"`
	SupabaseURL        string `yaml:"-"`
	SupabaseServiceKey string `yaml:"-"`
	VideosTable        string `yaml:"videos_table"`
	VideosListLimit    int    `yaml:"videos_list_limit"`

	// fal
	FalKey          string        `yaml:"-"`
	FalQueueURL     string        `yaml:"fal_queue_url"`
	FalPollInterval time.Duration `yaml:"fal_poll_interval"`
	FalTimeout      time.Duration `yaml:"fal_timeout"`

	// Rate limit
	RateLimitBackend       string        `yaml:"rate_limit_backend"`
	ChatRateLimit          int           `yaml:"chat_rate_limit"`
	GenerateRateLimit      int           `yaml:"generate_rate_limit"`
	RateLimitWindow        time.Duration `yaml:"rate_limit_window"`
	RateLimitSweepInterval time.Duration `yaml:"rate_limit_sweep_interval"`

	// Redis
	RedisHost     string `yaml:"redis_host"`
	RedisPort     string `yaml:"redis_port"`
	RedisUsername string `yaml:"-"`
	RedisPassword string `yaml:"-"`
	RedisUseTLS   bool   `yaml:"redis_use_tls"`
}

// LoadConfig - .env, then config.yaml, then environment variables
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	cfg := defaults()

	if err := loadYAMLConfig(cfg, getEnv("CONFIG_FILE", defaultConfigPath)); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	// 필수 환경변수 검증
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Store: %s (table: %s)", cfg.StoreBackend, cfg.VideosTable)
	if cfg.StoreBackend == StoreSupabase {
		log.Printf("   Supabase: %s", cfg.SupabaseURL)
	}
	log.Printf("   fal: %s (poll: %s, timeout: %s)", cfg.FalQueueURL, cfg.FalPollInterval, cfg.FalTimeout)
	log.Printf("   Rate limit: %s (chat %d, generate %d per %s)",
		cfg.RateLimitBackend, cfg.ChatRateLimit, cfg.GenerateRateLimit, cfg.RateLimitWindow)
	if cfg.RateLimitBackend == LimiterRedis {
		log.Printf("   Redis: %s (TLS: %v)", cfg.GetRedisAddr(), cfg.RedisUseTLS)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Port:                   "8080",
		StoreBackend:           StoreSupabase,
		VideosTable:            "videos",
		VideosListLimit:        50,
		FalQueueURL:            "https://queue.fal.run",
		FalPollInterval:        2 * time.Second,
		RateLimitBackend:       LimiterMemory,
		ChatRateLimit:          30,
		GenerateRateLimit:      5,
		RateLimitWindow:        60 * time.Second,
		RateLimitSweepInterval: 60 * time.Second,
		RedisHost:              "localhost",
		RedisPort:              "6379",
	}
}

// loadYAMLConfig - optional tunables file. A missing file is not an error.
func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	log.Printf("📄 Loaded tunables from %s", path)
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)

	// Supabase
	cfg.StoreBackend = getEnv("STORE_BACKEND", cfg.StoreBackend)
	cfg.SupabaseURL = getEnv("SUPABASE_URL", "")
	cfg.SupabaseServiceKey = getEnv("SUPABASE_SERVICE_KEY", getEnv("SUPABASE_ANON_KEY", ""))
	cfg.VideosTable = getEnv("VIDEOS_TABLE", cfg.VideosTable)

	// fal
	cfg.FalKey = getEnv("FAL_KEY", "")
	cfg.FalQueueURL = getEnv("FAL_QUEUE_URL", cfg.FalQueueURL)

	// Redis
	cfg.RateLimitBackend = getEnv("RATE_LIMIT_BACKEND", cfg.RateLimitBackend)
	cfg.RedisHost = getEnv("REDIS_HOST", cfg.RedisHost)
	cfg.RedisPort = getEnv("REDIS_PORT", cfg.RedisPort)
	cfg.RedisUsername = getEnv("REDIS_USERNAME", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")

	var err error
	if cfg.VideosListLimit, err = getEnvInt("VIDEOS_LIST_LIMIT", cfg.VideosListLimit); err != nil {
		return err
	}
	if cfg.ChatRateLimit, err = getEnvInt("CHAT_RATE_LIMIT", cfg.ChatRateLimit); err != nil {
		return err
	}
	if cfg.GenerateRateLimit, err = getEnvInt("GENERATE_RATE_LIMIT", cfg.GenerateRateLimit); err != nil {
		return err
	}
	if cfg.FalPollInterval, err = getEnvDuration("FAL_POLL_INTERVAL", cfg.FalPollInterval); err != nil {
		return err
	}
	if cfg.FalTimeout, err = getEnvDuration("FAL_TIMEOUT", cfg.FalTimeout); err != nil {
		return err
	}
	if cfg.RateLimitWindow, err = getEnvDuration("RATE_LIMIT_WINDOW", cfg.RateLimitWindow); err != nil {
		return err
	}
	if cfg.RateLimitSweepInterval, err = getEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", cfg.RateLimitSweepInterval); err != nil {
		return err
	}

	// Redis UseTLS 파싱
	if tlsStr := os.Getenv("REDIS_USE_TLS"); tlsStr != "" {
		parsed, err := strconv.ParseBool(tlsStr)
		if err != nil {
			return fmt.Errorf("REDIS_USE_TLS: %w", err)
		}
		cfg.RedisUseTLS = parsed
	}

	return nil
}

// validate - 필수 환경변수 검증
func (c *Config) validate() error {
	if c.FalKey == "" {
		return fmt.Errorf("FAL_KEY is required")
	}

	switch c.StoreBackend {
	case StoreSupabase:
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required")
		}
		if c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (supabase, memory)", c.StoreBackend)
	}

	switch c.RateLimitBackend {
	case LimiterRedis:
		if c.RedisHost == "" {
			return fmt.Errorf("REDIS_HOST is required")
		}
	case LimiterMemory:
	default:
		return fmt.Errorf("unknown RATE_LIMIT_BACKEND %q (memory, redis)", c.RateLimitBackend)
	}

	if c.ChatRateLimit <= 0 || c.GenerateRateLimit <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.VideosListLimit <= 0 {
		return fmt.Errorf("VIDEOS_LIST_LIMIT must be positive")
	}
	return nil
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
