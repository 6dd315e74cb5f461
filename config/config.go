package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Dispatch   DispatchConfig   `yaml:"dispatch"`
	Lifecycle  LifecycleConfig  `yaml:"lifecycle"`
	Lock       LockConfig       `yaml:"lock"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Import     ImportConfig     `yaml:"import"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres | sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogSQL                 bool   `yaml:"log_sql"`
	Seed                   bool   `yaml:"seed"`
}

// DispatchConfig holds the scheduling rule constants.
type DispatchConfig struct {
	TurnaroundMinutes    int `yaml:"turnaround_minutes"`
	FuelingMinutes       int `yaml:"fueling_minutes"`
	IdleThresholdMinutes int `yaml:"idle_threshold_minutes"`
	RecommendLimit       int `yaml:"recommend_limit"`
}

// LifecycleConfig controls the background assignment status updater.
type LifecycleConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
}

// LockConfig selects how assignment writes are serialized per locomotive.
type LockConfig struct {
	Backend       string `yaml:"backend"` // memory | redis
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	TTLSeconds    int    `yaml:"ttl_seconds"`
	RetryMillis   int    `yaml:"retry_millis"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// ImportConfig limits spreadsheet uploads.
type ImportConfig struct {
	MaxUploadMB int `yaml:"max_upload_mb"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 20
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "loco_dispatcher.db"
	}

	if cfg.Dispatch.TurnaroundMinutes <= 0 {
		cfg.Dispatch.TurnaroundMinutes = 40
	}
	if cfg.Dispatch.FuelingMinutes <= 0 {
		cfg.Dispatch.FuelingMinutes = 30
	}
	if cfg.Dispatch.IdleThresholdMinutes <= 0 {
		cfg.Dispatch.IdleThresholdMinutes = 30
	}
	if cfg.Dispatch.RecommendLimit <= 0 {
		cfg.Dispatch.RecommendLimit = 3
	}

	if cfg.Lifecycle.IntervalSeconds <= 0 {
		cfg.Lifecycle.IntervalSeconds = 60
	}
	cfg.Lifecycle.Interval = time.Duration(cfg.Lifecycle.IntervalSeconds) * time.Second

	if cfg.Lock.Backend == "" {
		cfg.Lock.Backend = "memory"
	}
	if cfg.Lock.TTLSeconds <= 0 {
		cfg.Lock.TTLSeconds = 30
	}
	if cfg.Lock.RetryMillis <= 0 {
		cfg.Lock.RetryMillis = 25
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Import.MaxUploadMB <= 0 {
		cfg.Import.MaxUploadMB = 16
	}
}
