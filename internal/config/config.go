package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"PORT" env-default:"8080"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	} `yaml:"log"`
	Auth struct {
		Issuer       string `yaml:"issuer" env:"TOKEN_ISSUER" env-default:"cohort-portal"`
		TokenSecret  string `yaml:"-" env:"TOKEN_SECRET"`  // secret, env only
		CookieSecret string `yaml:"-" env:"COOKIE_SECRET"` // secret, env only
		TokenTTL     string `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"1h"`
		SecureCookie bool   `yaml:"secure_cookie" env:"SECURE_COOKIE" env-default:"false"`
	} `yaml:"auth"`
	Store struct {
		Driver string `yaml:"driver" env:"STORE_DRIVER" env-default:"memory"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"-" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"DATABASE_URL"`
	} `yaml:"postgres"`
	Quiz struct {
		CacheTTL string `yaml:"cache_ttl" env:"QUIZ_CACHE_TTL" env-default:"10m"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path, then applies environment overrides.
// An empty path reads the environment only.
func Load(path string) (Config, error) {
	cfg := Config{}
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the settings needed to serve requests.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("store driver %q needs redis.addr", c.Store.Driver)
		}
	case DriverPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("store driver %q needs postgres.url", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
