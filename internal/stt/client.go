package stt

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mtpython/tg-speech-to-text/internal/audio"
)

// Default endpoints of the real services. Tests point these at local servers.
const (
	DefaultWhisperEndpoint    = "https://api.openai.com/v1/audio/transcriptions"
	DefaultElevenLabsEndpoint = "https://api.elevenlabs.io/v1/speech-to-text"
	DefaultGoogleEndpoint     = "https://speech.googleapis.com/v1/speech:recognize"
)

const defaultTimeout = 120 * time.Second

// Config contains provider selection, credentials and endpoints.
type Config struct {
	Provider Provider

	OpenAIKey         string
	ElevenLabsKey     string
	GoogleCredentials string // service account JSON

	// Language hint for providers that take one.
	Language string

	// Endpoint overrides; empty values fall back to the real services.
	WhisperEndpoint    string
	ElevenLabsEndpoint string
	GoogleEndpoint     string

	Timeout time.Duration
}

// Client performs one outbound call per Transcribe invocation. It never
// retries; retry policy, if any, belongs to the caller.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates that the selected provider's credential is present and
// returns a ready client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	switch cfg.Provider {
	case ProviderWhisper:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("openai api key required for whisper provider")
		}
	case ProviderElevenLabs:
		if cfg.ElevenLabsKey == "" {
			return nil, fmt.Errorf("elevenlabs api key required for elevenlabs provider")
		}
	case ProviderGoogle:
		if cfg.GoogleCredentials == "" {
			return nil, fmt.Errorf("google credentials required for google provider")
		}
	default:
		return nil, fmt.Errorf("unknown provider %d", int(cfg.Provider))
	}

	if cfg.WhisperEndpoint == "" {
		cfg.WhisperEndpoint = DefaultWhisperEndpoint
	}
	if cfg.ElevenLabsEndpoint == "" {
		cfg.ElevenLabsEndpoint = DefaultElevenLabsEndpoint
	}
	if cfg.GoogleEndpoint == "" {
		cfg.GoogleEndpoint = DefaultGoogleEndpoint
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// Provider returns the backend this client dispatches to.
func (c *Client) Provider() Provider {
	return c.cfg.Provider
}

// Transcribe dispatches the converted audio to the configured provider and
// returns the normalized transcript text.
func (c *Client) Transcribe(ctx context.Context, a *audio.ConvertedAudio) (string, error) {
	c.logger.Debug("starting transcription",
		slog.String("provider", c.cfg.Provider.String()),
		slog.Int("bytes", len(a.Data)),
		slog.String("format", a.Format),
	)

	switch c.cfg.Provider {
	case ProviderWhisper:
		return c.transcribeWhisper(ctx, a)
	case ProviderElevenLabs:
		return c.transcribeElevenLabs(ctx, a)
	case ProviderGoogle:
		return c.transcribeGoogle(ctx, a)
	default:
		return "", fmt.Errorf("unknown provider %d", int(c.cfg.Provider))
	}
}

// do performs the request and reads the full response body, wrapping
// network-level failures as TransportError.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Err: err}
	}

	return resp.StatusCode, body, nil
}
