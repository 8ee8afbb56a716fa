package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Every field can be overridden with a JUKEBOX_ prefixed environment variable, e.g. JUKEBOX_SERVER_PORT.
type Config struct {
	Database DatabaseConfig `toml:"database" envPrefix:"DATABASE_"`
	Server   ServerConfig   `toml:"server" envPrefix:"SERVER_"`
	Client   ClientConfig   `toml:"client" envPrefix:"CLIENT_"`
	Log      LogConfig      `toml:"log" envPrefix:"LOG_"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"PATH"`
	MaxOpenConns int    `toml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns int    `toml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
}

// ServerConfig contains REST backend settings.
type ServerConfig struct {
	Host                    string        `toml:"host" env:"HOST"`
	Port                    int           `toml:"port" env:"PORT"`
	JWTSecret               string        `toml:"jwt_secret" env:"JWT_SECRET"`
	TokenValidity           time.Duration `toml:"token_validity" env:"TOKEN_VALIDITY"`
	TokenValidityRememberMe time.Duration `toml:"token_validity_remember_me" env:"TOKEN_VALIDITY_REMEMBER_ME"`
	CORSOrigins             []string      `toml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
	RateLimit               int           `toml:"rate_limit" env:"RATE_LIMIT"`
	RateWindow              time.Duration `toml:"rate_window" env:"RATE_WINDOW"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ClientConfig contains settings for commands talking to a running backend.
type ClientConfig struct {
	BaseURL      string        `toml:"base_url" env:"BASE_URL"`
	ItemsPerPage int           `toml:"items_per_page" env:"ITEMS_PER_PAGE"`
	Timeout      time.Duration `toml:"timeout" env:"TIMEOUT"`
	TokenPath    string        `toml:"token_path" env:"TOKEN_PATH"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
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

// ResolveConfig loads the config file at path when it exists, otherwise the defaults, then applies
// values from a .env file and the environment.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides config values with JUKEBOX_ prefixed environment variables.
func ApplyEnv(config *Config) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: "JUKEBOX_"}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
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

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
