package audio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConvertEncoderNotFound(t *testing.T) {
	conv := NewConverter("/nonexistent/path/to/ffmpeg", testLogger())

	_, err := conv.Convert(context.Background(), []byte{0x00}, "voice.ogg", Target{
		Format:     "wav",
		SampleRate: 16000,
		Channels:   1,
		Codec:      "pcm_s16le",
		Muxer:      "wav",
	})
	if !errors.Is(err, ErrEncoderNotFound) {
		t.Fatalf("expected ErrEncoderNotFound, got %v", err)
	}
}

func TestConvertInvalidInput(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}

	conv := NewConverter("", testLogger())

	// Garbage bytes cannot be demuxed; ffmpeg must exit non-zero and its
	// diagnostic output must be surfaced.
	_, err := conv.Convert(context.Background(), []byte("not audio at all"), "broken.mp3", Target{
		Format:     "wav",
		SampleRate: 16000,
		Channels:   1,
		Codec:      "pcm_s16le",
		Muxer:      "wav",
	})

	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if convErr.Output == "" {
		t.Error("ConversionError should carry ffmpeg diagnostic output")
	}
}

func TestUnsupportedFormatError(t *testing.T) {
	err := &UnsupportedFormatError{Kind: "sticker"}
	if err.Error() != "unsupported media format: sticker" {
		t.Errorf("unexpected error text: %q", err.Error())
	}
}
