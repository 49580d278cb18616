package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Spotify caps saved-track pages at 50 items.
const maxPageSize = 50

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Session     SessionConfig     `toml:"session"`
	Collector   CollectorConfig   `toml:"collector"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// Map returns the credentials in the form accepted by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SessionConfig controls the session cookie and where session data lives.
type SessionConfig struct {
	Store      string `toml:"store"` // sqlite or memory
	CookieName string `toml:"cookie_name"`
	Secret     string `toml:"secret"`
	MaxAge     int    `toml:"max_age"` // seconds
	Secure     bool   `toml:"secure"`
	MemorySize int    `toml:"memory_size"`
}

// CollectorConfig tunes the saved-tracks pager.
type CollectorConfig struct {
	PageSize       int     `toml:"page_size"`
	MaxConcurrency int     `toml:"max_concurrency"` // 0 fans out every remaining page at once
	RateLimit      float64 `toml:"rate_limit"`      // requests per second, 0 disables pacing
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides secrets and paths from the environment.
func (c *Config) ApplyEnv() {
	for env, target := range map[string]*string{
		"SPOTIFY_CLIENT_ID":        &c.Credentials.Spotify.ClientID,
		"SPOTIFY_CLIENT_SECRET":    &c.Credentials.Spotify.ClientSecret,
		"SPOTIFY_REDIRECT_URI":     &c.Credentials.Spotify.RedirectURI,
		"SONGYEARS_SESSION_SECRET": &c.Session.Secret,
		"SONGYEARS_DATABASE_PATH":  &c.Database.Path,
		"SONGYEARS_LOG_LEVEL":      &c.Log.Level,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*target = v
		}
	}

	if v, ok := os.LookupEnv("SONGYEARS_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks the settings the web server depends on.
func (c *Config) Validate() error {
	if c.Credentials.Spotify.ClientID == "" || c.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("%w: session secret cannot be empty", ErrInvalidConfig)
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("%w: session cookie_name cannot be empty", ErrInvalidConfig)
	}
	switch c.Session.Store {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database path required for sqlite session store", ErrInvalidConfig)
		}
	case "memory":
		if c.Session.MemorySize <= 0 {
			return fmt.Errorf("%w: session memory_size must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: session store must be sqlite or memory, got %q", ErrInvalidConfig, c.Session.Store)
	}
	if err := c.Collector.Validate(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Validate checks the collector settings on their own, for commands that never start the server.
func (c CollectorConfig) Validate() error {
	if c.PageSize <= 0 || c.PageSize > maxPageSize {
		return fmt.Errorf("%w: collector page_size must be between 1 and %d", ErrInvalidConfig, maxPageSize)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("%w: collector max_concurrency cannot be negative", ErrInvalidConfig)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: collector rate_limit cannot be negative", ErrInvalidConfig)
	}
	return nil
}
