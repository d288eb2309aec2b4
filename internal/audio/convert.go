package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrEncoderNotFound indicates the ffmpeg binary is missing from the host.
var ErrEncoderNotFound = errors.New("ffmpeg not found or not executable")

// ConversionError indicates ffmpeg exited non-zero. Output carries its
// diagnostic output verbatim.
type ConversionError struct {
	Output string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("audio conversion failed: %s", e.Output)
}

// UnsupportedFormatError indicates a submission the pipeline cannot map to an
// audio track at all (e.g. a sticker or a location message).
type UnsupportedFormatError struct {
	Kind string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported media format: %s", e.Kind)
}

// Target describes the exact encoding a provider requires.
type Target struct {
	Format     string // logical format tag carried on the converted audio
	SampleRate int
	Channels   int
	Codec      string // ffmpeg -acodec value
	Muxer      string // ffmpeg -f value
}

// ConvertedAudio is the result of one conversion. It is produced once per job
// and consumed once by the provider dispatch; it is never cached.
type ConvertedAudio struct {
	Data       []byte
	Format     string
	SampleRate int
	Channels   int
}

// Converter invokes ffmpeg as a blocking subprocess.
type Converter struct {
	ffmpegPath string
	logger     *slog.Logger
}

// NewConverter creates a converter using the given ffmpeg binary path.
// An empty path falls back to "ffmpeg" on PATH.
func NewConverter(ffmpegPath string, logger *slog.Logger) *Converter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Converter{ffmpegPath: ffmpegPath, logger: logger}
}

// Convert transcodes raw input media into the target encoding. The original
// filename is only used to give the temp file an extension hint; format
// detection is left entirely to ffmpeg.
func (c *Converter) Convert(ctx context.Context, data []byte, filename string, target Target) (*ConvertedAudio, error) {
	if _, err := exec.LookPath(c.ffmpegPath); err != nil {
		return nil, ErrEncoderNotFound
	}

	in, err := os.CreateTemp("", "stt-in-*"+filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create input temp file: %w", err)
	}
	defer os.Remove(in.Name())

	if _, err := in.Write(data); err != nil {
		in.Close()
		return nil, fmt.Errorf("failed to write input temp file: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("failed to close input temp file: %w", err)
	}

	out, err := os.CreateTemp("", "stt-out-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create output temp file: %w", err)
	}
	out.Close()
	defer os.Remove(out.Name())

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", in.Name(),
		"-acodec", target.Codec,
		"-ar", strconv.Itoa(target.SampleRate),
		"-ac", strconv.Itoa(target.Channels),
		"-f", target.Muxer,
		out.Name(),
	}

	c.logger.Debug("running ffmpeg",
		slog.String("filename", filename),
		slog.Int("input_bytes", len(data)),
		slog.String("codec", target.Codec),
		slog.Int("sample_rate", target.SampleRate),
		slog.Int("channels", target.Channels),
		slog.String("muxer", target.Muxer),
	)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, ErrEncoderNotFound
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, &ConversionError{Output: msg}
	}

	converted, err := os.ReadFile(out.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read converted file: %w", err)
	}

	c.logger.Debug("conversion complete",
		slog.Int("input_bytes", len(data)),
		slog.Int("output_bytes", len(converted)),
		slog.String("format", target.Format),
	)

	return &ConvertedAudio{
		Data:       converted,
		Format:     target.Format,
		SampleRate: target.SampleRate,
		Channels:   target.Channels,
	}, nil
}
