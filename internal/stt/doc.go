// Package stt dispatches converted audio to one of the supported
// speech-to-text providers and normalizes their responses and failures behind
// a single contract. The provider set is closed: Whisper, ElevenLabs and
// Google, each with its own wire encoding and required input format.
package stt
