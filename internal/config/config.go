package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mtpython/tg-speech-to-text/internal/stt"
)

// Config represents the complete bot configuration
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	STT      STTConfig      `yaml:"stt"`
	Audio    AudioConfig    `yaml:"audio"`
	Storage  StorageConfig  `yaml:"storage"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TelegramConfig contains the bot token and access password
type TelegramConfig struct {
	Token    string `yaml:"token"`
	Password string `yaml:"password"`
}

// STTConfig contains speech-to-text provider configuration
type STTConfig struct {
	Provider              string `yaml:"provider"`
	Language              string `yaml:"language"`
	OpenAIAPIKey          string `yaml:"openai_api_key"`
	ElevenLabsAPIKey      string `yaml:"elevenlabs_api_key"`
	GoogleCredentialsFile string `yaml:"google_credentials_file"`
	Timeout               int    `yaml:"timeout"` // seconds
}

// AudioConfig contains audio conversion parameters
type AudioConfig struct {
	FFmpegPath     string `yaml:"ffmpeg_path"`
	ConvertTimeout int    `yaml:"convert_timeout"` // seconds
}

// StorageConfig contains flat file storage locations
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// HTTPConfig contains the monitoring HTTP server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file. Secrets may also come from
// the environment: TELEGRAM_BOT_TOKEN, OPENAI_API_KEY and ELEVENLABS_API_KEY
// override their file counterparts when set.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.applyEnvironment()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// applyEnvironment overlays secrets from environment variables.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.STT.OpenAIAPIKey = v
	}
	if v := os.Getenv("ELEVENLABS_API_KEY"); v != "" {
		c.STT.ElevenLabsAPIKey = v
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Telegram.Validate(); err != nil {
		return fmt.Errorf("telegram config: %w", err)
	}

	if err := c.STT.Validate(); err != nil {
		return fmt.Errorf("stt config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates telegram configuration. An empty password is allowed
// and means the bot is open to everyone.
func (t *TelegramConfig) Validate() error {
	if t.Token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	return nil
}

// Validate validates speech-to-text configuration
func (s *STTConfig) Validate() error {
	provider, err := stt.ParseProvider(s.Provider)
	if err != nil {
		return err
	}

	switch provider {
	case stt.ProviderWhisper:
		if s.OpenAIAPIKey == "" {
			return fmt.Errorf("openai_api_key cannot be empty for provider whisper")
		}
	case stt.ProviderElevenLabs:
		if s.ElevenLabsAPIKey == "" {
			return fmt.Errorf("elevenlabs_api_key cannot be empty for provider elevenlabs")
		}
	case stt.ProviderGoogle:
		if s.GoogleCredentialsFile == "" {
			return fmt.Errorf("google_credentials_file cannot be empty for provider google")
		}
	}

	if s.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %d", s.Timeout)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.ConvertTimeout < 0 {
		return fmt.Errorf("convert_timeout cannot be negative, got %d", a.ConvertTimeout)
	}

	return nil
}

// Validate validates storage configuration
func (s *StorageConfig) Validate() error {
	if s.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetProvider returns the parsed provider. Call after Validate.
func (s *STTConfig) GetProvider() stt.Provider {
	provider, _ := stt.ParseProvider(s.Provider)
	return provider
}

// GetTimeoutDuration returns the provider call timeout as a time.Duration
func (s *STTConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// GetConvertTimeoutDuration returns the ffmpeg timeout as a time.Duration
func (a *AudioConfig) GetConvertTimeoutDuration() time.Duration {
	return time.Duration(a.ConvertTimeout) * time.Second
}
