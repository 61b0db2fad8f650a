package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API       APIConfig       `yaml:"api"`
	Server    ServerConfig    `yaml:"server"`
	CORS      CORSConfig      `yaml:"cors"`
	State     StateConfig     `yaml:"state"`
	Session   SessionConfig   `yaml:"session"`
	Directory DirectoryConfig `yaml:"directory"`
	Notify    NotifyConfig    `yaml:"notify"`
	Gesture   GestureConfig   `yaml:"gesture"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// APIConfig points at the trip REST API.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// AccessKeyHashes guards /api/v1 when non-empty. See `tripboard access-key`.
	AccessKeyHashes []string `yaml:"access_key_hashes"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"` // default: [] (no CORS headers; ["*"] for dev)
}

// StateConfig selects where the session, unread count and reminder flags
// live.
type StateConfig struct {
	Driver        string `yaml:"driver"` // file | memory | postgres | redis
	Path          string `yaml:"path"`
	DatabaseURL   string `yaml:"database_url"`
	RedisURL      string `yaml:"redis_url"`
	Namespace     string `yaml:"namespace"`
	EncryptionKey string `yaml:"encryption_key"`
}

// SessionConfig configures the sign-in stand-in. Every verified token
// resolves to VerifyAs.
type SessionConfig struct {
	VerifyAs string `yaml:"verify_as"`
}

type DirectoryConfig struct {
	RedisURL string        `yaml:"redis_url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type NotifyConfig struct {
	SweepInterval      time.Duration `yaml:"sweep_interval"`
	UnreadPollInterval time.Duration `yaml:"unread_poll_interval"`
	Dispatch           bool          `yaml:"dispatch"`
	Timezone           string        `yaml:"timezone"`
}

// GestureConfig throttles repeated gestures on the same trip.
type GestureConfig struct {
	Rate   int           `yaml:"rate"`
	Window time.Duration `yaml:"window"`
}

// RateLimitConfig throttles writes to the companion server per client.
type RateLimitConfig struct {
	Default int           `yaml:"default"`
	Window  time.Duration `yaml:"window"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads an optional .env file, then the YAML file at path (if any),
// then TRIPBOARD_* environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := expandEnvVars(string(data))

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8000/api",
			Timeout:   15 * time.Second,
			UserAgent: "tripboard",
		},
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		State: StateConfig{
			Driver: "file",
			Path:   defaultStatePath(),
		},
		Directory: DirectoryConfig{
			CacheTTL: 10 * time.Minute,
		},
		Notify: NotifyConfig{
			SweepInterval:      10 * time.Minute,
			UnreadPollInterval: 10 * time.Second,
			Timezone:           "Local",
		},
		Gesture: GestureConfig{
			Rate:   1,
			Window: time.Second,
		},
		RateLimit: RateLimitConfig{
			Default: 60,
			Window:  time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".tripboard", "state.json")
	}
	return filepath.Join(dir, "tripboard", "state.json")
}

func expandEnvVars(s string) string {
	return os.ExpandEnv(s)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRIPBOARD_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("TRIPBOARD_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TRIPBOARD_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TRIPBOARD_STATE_DRIVER"); v != "" {
		cfg.State.Driver = v
	}
	if v := os.Getenv("TRIPBOARD_STATE_PATH"); v != "" {
		cfg.State.Path = v
	}
	if v := os.Getenv("TRIPBOARD_DATABASE_URL"); v != "" {
		cfg.State.DatabaseURL = v
	}
	if v := os.Getenv("TRIPBOARD_REDIS_URL"); v != "" {
		cfg.State.RedisURL = v
		if cfg.Directory.RedisURL == "" {
			cfg.Directory.RedisURL = v
		}
	}
	if v := os.Getenv("TRIPBOARD_ENCRYPTION_KEY"); v != "" {
		cfg.State.EncryptionKey = v
	}
	if v := os.Getenv("TRIPBOARD_VERIFY_AS"); v != "" {
		cfg.Session.VerifyAs = v
	}
	if v := os.Getenv("TRIPBOARD_ACCESS_KEY_HASHES"); v != "" {
		cfg.Server.AccessKeyHashes = strings.Split(v, ",")
	}
	if v := os.Getenv("TRIPBOARD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate rejects settings the client cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server timeouts must be positive"))
	}
	switch c.State.Driver {
	case "file":
		if c.State.Path == "" {
			errs = append(errs, errors.New("state.path is required for the file driver"))
		}
	case "memory":
	case "postgres":
		if c.State.DatabaseURL == "" {
			errs = append(errs, errors.New("state.database_url is required for the postgres driver"))
		}
	case "redis":
		if c.State.RedisURL == "" {
			errs = append(errs, errors.New("state.redis_url is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown state.driver %q", c.State.Driver))
	}
	if c.Notify.SweepInterval <= 0 {
		errs = append(errs, errors.New("notify.sweep_interval must be positive"))
	}
	if c.Notify.UnreadPollInterval <= 0 {
		errs = append(errs, errors.New("notify.unread_poll_interval must be positive"))
	}
	if c.Gesture.Rate < 1 || c.Gesture.Window <= 0 {
		errs = append(errs, errors.New("gesture.rate and gesture.window must be positive"))
	}
	if c.RateLimit.Default < 1 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.default and rate_limit.window must be positive"))
	}
	if _, err := time.LoadLocation(c.Notify.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("notify.timezone: %w", err))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Location is the zone meetup reminders are computed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Notify.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// DatabaseURLForMigrate returns the state database URL with sslmode
// defaulted to disable, as golang-migrate's postgres driver expects.
func (c *Config) DatabaseURLForMigrate() string {
	url := c.State.DatabaseURL
	if !strings.Contains(url, "sslmode=") {
		if strings.Contains(url, "?") {
			url += "&sslmode=disable"
		} else {
			url += "?sslmode=disable"
		}
	}
	return url
}
