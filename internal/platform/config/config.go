package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"complio/internal/rag"
	liststrings "complio/pkg/platform/strings"
)

// Config is the full service configuration.
type Config struct {
	Server    Server          `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RAG       rag.Config      `yaml:"rag"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Audit     AuditConfig     `yaml:"audit"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string `yaml:"addr"`
	JWTSigningKey string `yaml:"jwt_signing_key"`
	LogLevel      string `yaml:"log_level"`
}

// DatabaseConfig selects the persistence backend. An empty URL runs the
// service on in-memory stores.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig enables the distributed entity locker when URL is set.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// WorkflowConfig tunes the non-conformance and permit engines.
type WorkflowConfig struct {
	// CascadeConcurrency bounds parallel Global Action updates during case closure.
	CascadeConcurrency int           `yaml:"cascade_concurrency"`
	LockTTL            time.Duration `yaml:"lock_ttl"`
}

// AuditConfig enables the Kafka audit event stream when Brokers is set.
type AuditConfig struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	Partitions        int      `yaml:"partitions"`
	ReplicationFactor int      `yaml:"replication_factor"`
	BufferSize        int      `yaml:"buffer_size"`
}

// RateLimitConfig throttles API calls per actor. Zero requests disables it.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: Server{
			Addr:     ":8080",
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		RAG: rag.DefaultConfig(),
		Workflow: WorkflowConfig{
			CascadeConcurrency: 4,
			LockTTL:            10 * time.Second,
		},
		Audit: AuditConfig{
			Topic:             "complio.audit",
			Partitions:        3,
			ReplicationFactor: 1,
			BufferSize:        1024,
		},
		RateLimit: RateLimitConfig{
			Requests: 600,
			Window:   time.Minute,
		},
	}
}

// FromEnv builds a Config from defaults and environment variables only.
func FromEnv() (Config, error) {
	return Load("")
}

// Load reads an optional YAML file (with ${VAR} expansion), then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		// #nosec G304 -- path is operator-provided config path.
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		expanded := os.ExpandEnv(strings.ReplaceAll(string(raw), "\r\n", "\n"))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("COMPLIO_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("JWT_SIGNING_KEY"); v != "" {
		cfg.Server.JWTSigningKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Audit.Brokers = liststrings.SplitList(v)
	}
	if v := os.Getenv("AUDIT_TOPIC"); v != "" {
		cfg.Audit.Topic = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"RAG_AMBER_THRESHOLD_DAYS", &cfg.RAG.AmberThresholdDays},
		{"RAG_RED_THRESHOLD_DAYS", &cfg.RAG.RedThresholdDays},
		{"CASCADE_CONCURRENCY", &cfg.Workflow.CascadeConcurrency},
		{"AUDIT_TOPIC_PARTITIONS", &cfg.Audit.Partitions},
		{"AUDIT_BUFFER_SIZE", &cfg.Audit.BufferSize},
		{"RATE_LIMIT_REQUESTS", &cfg.RateLimit.Requests},
	}
	for _, e := range ints {
		v := os.Getenv(e.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", e.name, err)
		}
		*e.dst = n
	}
	return nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if err := c.RAG.Validate(); err != nil {
		return fmt.Errorf("rag: %w", err)
	}
	if c.Workflow.CascadeConcurrency < 1 {
		return fmt.Errorf("workflow.cascade_concurrency must be at least 1")
	}
	if c.Redis.URL != "" && c.Workflow.LockTTL <= 0 {
		return fmt.Errorf("workflow.lock_ttl must be positive when redis is configured")
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive when limiting is enabled")
	}
	if len(c.Audit.Brokers) > 0 {
		if c.Audit.Topic == "" {
			return fmt.Errorf("audit.topic is required when brokers are configured")
		}
		if c.Audit.Partitions < 1 || c.Audit.ReplicationFactor < 1 {
			return fmt.Errorf("audit.partitions and audit.replication_factor must be at least 1")
		}
	}
	return nil
}
