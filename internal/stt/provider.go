package stt

import (
	"fmt"

	"github.com/mtpython/tg-speech-to-text/internal/audio"
)

// Provider selects one of the supported speech-to-text backends.
type Provider int

const (
	ProviderWhisper Provider = iota
	ProviderElevenLabs
	ProviderGoogle
)

// String returns the configuration name of the provider.
func (p Provider) String() string {
	switch p {
	case ProviderWhisper:
		return "whisper"
	case ProviderElevenLabs:
		return "elevenlabs"
	case ProviderGoogle:
		return "google"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// ParseProvider maps a configuration value to a Provider.
func ParseProvider(name string) (Provider, error) {
	switch name {
	case "whisper":
		return ProviderWhisper, nil
	case "elevenlabs":
		return ProviderElevenLabs, nil
	case "google":
		return ProviderGoogle, nil
	default:
		return 0, fmt.Errorf("unknown stt provider %q (expected whisper, elevenlabs or google)", name)
	}
}

// ConversionTarget returns the audio encoding a provider requires. The tuple
// is fixed per provider and never depends on the submitted content.
func ConversionTarget(p Provider) audio.Target {
	switch p {
	case ProviderElevenLabs:
		// Raw little-endian PCM, 16 kHz mono.
		return audio.Target{Format: "pcm", SampleRate: 16000, Channels: 1, Codec: "pcm_s16le", Muxer: "s16le"}
	case ProviderGoogle:
		return audio.Target{Format: "flac", SampleRate: 16000, Channels: 1, Codec: "flac", Muxer: "flac"}
	default:
		// Whisper accepts many containers; WAV keeps the pipeline uniform.
		return audio.Target{Format: "wav", SampleRate: 16000, Channels: 1, Codec: "pcm_s16le", Muxer: "wav"}
	}
}
