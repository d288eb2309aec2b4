package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mtpython/tg-speech-to-text/internal/audio"
)

type elevenLabsResponse struct {
	Text string `json:"text"`
}

type elevenLabsErrorResponse struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// transcribeElevenLabs posts the raw PCM bytes. The converter must have
// produced pcm for this provider; anything else means the pipeline broke its
// own contract.
func (c *Client) transcribeElevenLabs(ctx context.Context, a *audio.ConvertedAudio) (string, error) {
	if a.Format != "pcm" {
		return "", fmt.Errorf("%w: elevenlabs requires pcm, got %s", ErrUnsupportedAudio, a.Format)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ElevenLabsEndpoint, bytes.NewReader(a.Data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.ElevenLabsKey)
	req.Header.Set("Content-Type", "audio/wav")

	status, body, err := c.do(req)
	if err != nil {
		return "", err
	}

	if status < 200 || status >= 300 {
		message := string(body)
		var errResp elevenLabsErrorResponse
		if json.Unmarshal(body, &errResp) == nil {
			if errResp.Detail != "" {
				message = errResp.Detail
			} else if errResp.Message != "" {
				message = errResp.Message
			}
		}
		return "", classifyStatus(status, message)
	}

	// The API answers JSON on current versions and plain text on older ones.
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var resp elevenLabsResponse
		if json.Unmarshal(body, &resp) == nil {
			return strings.TrimSpace(resp.Text), nil
		}
	}
	return trimmed, nil
}
