package stt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mtpython/tg-speech-to-text/internal/audio"
)

type googleRecognitionConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz"`
	LanguageCode               string `json:"languageCode"`
	AudioChannelCount          int    `json:"audioChannelCount"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
}

type googleRecognizeRequest struct {
	Config googleRecognitionConfig `json:"config"`
	Audio  struct {
		Content string `json:"content"` // base64
	} `json:"audio"`
}

type googleRecognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float32 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
}

type googleErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type googleCredentials struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
	TokenURI    string `json:"token_uri"`
}

// transcribeGoogle posts a JSON request with the audio base64-encoded inline.
// The transcript is the first alternative of the first result, or empty when
// the service recognized nothing.
func (c *Client) transcribeGoogle(ctx context.Context, a *audio.ConvertedAudio) (string, error) {
	var creds googleCredentials
	if err := json.Unmarshal([]byte(c.cfg.GoogleCredentials), &creds); err != nil {
		return "", fmt.Errorf("invalid google credentials: %w", err)
	}

	encoding, err := googleEncodingFor(a.Format)
	if err != nil {
		return "", err
	}

	token, err := c.googleAccessToken(ctx, &creds)
	if err != nil {
		return "", err
	}

	reqBody := googleRecognizeRequest{
		Config: googleRecognitionConfig{
			Encoding:                   encoding,
			SampleRateHertz:            a.SampleRate,
			LanguageCode:               c.cfg.Language,
			AudioChannelCount:          a.Channels,
			EnableAutomaticPunctuation: true,
		},
	}
	reqBody.Audio.Content = base64.StdEncoding.EncodeToString(a.Data)

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", c.cfg.GoogleEndpoint, creds.ProjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return "", err
	}

	if status < 200 || status >= 300 {
		message := string(body)
		var errResp googleErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			message = errResp.Error.Message
		}
		return "", classifyStatus(status, message)
	}

	var resp googleRecognizeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &APIError{Status: status, Message: fmt.Sprintf("invalid response: %v", err)}
	}

	if len(resp.Results) == 0 || len(resp.Results[0].Alternatives) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Results[0].Alternatives[0].Transcript), nil
}

// googleAccessToken returns a bearer token for the service account.
//
// TODO: implement the real JWT signing + exchange against creds.TokenURI; the
// recognize call currently authenticates through the key query parameter only.
func (c *Client) googleAccessToken(_ context.Context, _ *googleCredentials) (string, error) {
	return "placeholder_token", nil
}

func googleEncodingFor(format string) (string, error) {
	switch format {
	case "flac":
		return "FLAC", nil
	case "wav":
		return "LINEAR16", nil
	case "ogg":
		return "OGG_OPUS", nil
	case "mp3":
		return "MP3", nil
	default:
		return "", fmt.Errorf("%w: google does not accept %s", ErrUnsupportedAudio, format)
	}
}
