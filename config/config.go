// Package config loads process configuration. Values are layered:
// built-in defaults, then a .env file, then a YAML file, then environment
// variables (highest precedence).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider names accepted by Provider.Name.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Store drivers accepted by Store.Driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the root configuration.
type Config struct {
	Log      Log      `yaml:"log"`
	Provider Provider `yaml:"provider"`
	Loop     Loop     `yaml:"loop"`
	World    World    `yaml:"world"`
	Store    Store    `yaml:"store"`
	Server   Server   `yaml:"server"`
}

// Log configures the structured logger.
type Log struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // json | text
	AddSource bool   `yaml:"add_source"`
}

// Provider selects and configures the generative backend. The name is
// resolved once at startup.
type Provider struct {
	Name            string        `yaml:"name"`
	GeminiAPIKey    string        `yaml:"gemini_api_key"`
	OpenAIAPIKey    string        `yaml:"openai_api_key"`
	AnthropicAPIKey string        `yaml:"anthropic_api_key"`
	Model           string        `yaml:"model"`
	ImageModel      string        `yaml:"image_model"`
	VideoModel      string        `yaml:"video_model"`
	MusicModel      string        `yaml:"music_model"`
	CallTimeout     time.Duration `yaml:"call_timeout"`
	RetryAttempts   int           `yaml:"retry_attempts"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
}

// Loop configures the conversation loop.
type Loop struct {
	MaxIterations    int `yaml:"max_iterations"`
	MaxParallelTools int `yaml:"max_parallel_tools"`
}

// World configures collective synthesis.
type World struct {
	PublicRoot  string        `yaml:"public_root"`
	AssetDir    string        `yaml:"asset_dir"` // relative to PublicRoot
	RecordsPath string        `yaml:"records_path"`
	Concurrency int           `yaml:"concurrency"`
	StaleAfter  time.Duration `yaml:"stale_after"`
	SeedImages  int           `yaml:"seed_images"`
}

// Store configures the key/value config store.
type Store struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Server configures the HTTP surface.
type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Log: Log{Level: "info", Format: "text"},
		Provider: Provider{
			Name:          ProviderGemini,
			CallTimeout:   5 * time.Minute,
			RetryAttempts: 2,
			RetryDelay:    time.Second,
		},
		Loop: Loop{MaxIterations: 10, MaxParallelTools: 1},
		World: World{
			PublicRoot:  "public",
			AssetDir:    "generated",
			RecordsPath: "dreams.json",
			Concurrency: 5,
			StaleAfter:  30 * time.Minute,
			SeedImages:  2,
		},
		Store: Store{Driver: DriverSQLite, DSN: "dreamscape.db"},
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    15 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load builds the configuration. A missing .env or YAML file is not an
// error; path may be empty to skip the file layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides cfg from the environment.
func applyEnv(cfg *Config) {
	setString(&cfg.Provider.Name, "AI_PROVIDER")
	setString(&cfg.Provider.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&cfg.Provider.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.Provider.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.Provider.Model, "AI_MODEL")
	if cfg.Provider.Name == ProviderOpenAI {
		setString(&cfg.Provider.Model, "OPENAI_MODEL")
		setString(&cfg.Provider.ImageModel, "OPENAI_IMAGE_MODEL")
	}
	setString(&cfg.Store.Driver, "DATABASE_DRIVER")
	setString(&cfg.Store.DSN, "DATABASE_URL")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Server.Addr, "DREAMSCAPE_ADDR")
	setString(&cfg.World.RecordsPath, "DREAMSCAPE_RECORDS")

	if v := os.Getenv("DREAMSCAPE_STALE_AFTER"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.World.StaleAfter = time.Duration(secs) * time.Second
		} else if d, err := time.ParseDuration(v); err == nil {
			cfg.World.StaleAfter = d
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	c.Provider.Name = strings.ToLower(strings.TrimSpace(c.Provider.Name))
	switch c.Provider.Name {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderMock:
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider.Name)
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("config: store driver %s requires a dsn", c.Store.Driver)
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}

	if c.Loop.MaxIterations < 1 {
		return errors.New("config: loop.max_iterations must be positive")
	}
	if c.World.Concurrency < 1 {
		return errors.New("config: world.concurrency must be positive")
	}
	if c.World.StaleAfter <= 0 {
		return errors.New("config: world.stale_after must be positive")
	}
	if c.Provider.CallTimeout < 0 {
		return errors.New("config: provider.call_timeout must not be negative")
	}
	if c.Provider.RetryAttempts < 1 {
		c.Provider.RetryAttempts = 1
	}
	return nil
}
