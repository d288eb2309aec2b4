package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/mtpython/tg-speech-to-text/internal/audio"
)

type whisperErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// transcribeWhisper sends a multipart form to the OpenAI transcription API.
// With response_format=text the success body is the transcript itself.
func (c *Client) transcribeWhisper(ctx context.Context, a *audio.ConvertedAudio) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="audio.%s"`, whisperFilenameExt(a.Format)))
	header.Set("Content-Type", mimeTypeFor(a.Format))

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(a.Data); err != nil {
		return "", fmt.Errorf("failed to write audio data: %w", err)
	}

	fields := map[string]string{
		"model":           "whisper-1",
		"response_format": "text",
		"temperature":     "0.0",
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WhisperEndpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	status, body, err := c.do(req)
	if err != nil {
		return "", err
	}

	if status < 200 || status >= 300 {
		message := string(body)
		var errResp whisperErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			message = errResp.Error.Message
		}
		return "", classifyStatus(status, message)
	}

	return strings.TrimSpace(string(body)), nil
}

func whisperFilenameExt(format string) string {
	switch format {
	case "wav", "mp3", "flac", "ogg":
		return format
	default:
		return "wav"
	}
}

func mimeTypeFor(format string) string {
	switch format {
	case "wav":
		return "audio/wav"
	case "mp3":
		return "audio/mpeg"
	case "flac":
		return "audio/flac"
	case "ogg":
		return "audio/ogg"
	case "m4a":
		return "audio/mp4"
	case "aac":
		return "audio/aac"
	default:
		return "audio/wav"
	}
}
