// Package tts defines the contracts shared by chatvox speech backends.
package tts

import (
	"context"
)

// Engine defines the contract for text-to-speech backends.
// Implementations include DECtalk (legacy synthesis via the say binary)
// and SAPI (the operating system's built-in speech API).
// Each engine must handle timeout protection internally via the context.
type Engine interface {
	// Synthesize converts text to audio using the named voice.
	// An empty voice selects the engine's default. The text may contain
	// engine-specific inline markup (DECtalk phoneme commands).
	Synthesize(ctx context.Context, text, voice string) (*Audio, error)

	// Voices returns the voices this engine can render.
	Voices() []Voice

	// Available reports whether the engine is ready for use.
	// For exec-based engines this means the backing binary was found.
	Available() bool

	// Info returns engine capabilities and configuration.
	Info() EngineInfo

	// Stop interrupts any in-flight synthesis.
	Stop()

	// Close releases any resources held by the engine.
	Close() error
}

// Audio represents synthesized audio with its format metadata.
type Audio struct {
	Data       []byte // Raw PCM samples (no WAV header)
	SampleRate int    // Sample rate in Hz
	Channels   int    // 1 = mono, 2 = stereo
	BitDepth   int    // Bits per sample (16 for both backends)
}

// Voice describes a single renderable voice.
type Voice struct {
	ID      string // Engine-specific identifier (DECtalk inline code, SAPI name)
	Name    string // Human-readable name shown in the command table
	Backend string // Engine name that owns this voice
}

// EngineInfo describes engine capabilities and configuration.
type EngineInfo struct {
	Name        string // Engine name (e.g. "dectalk", "sapi")
	SampleRate  int    // Native sample rate in Hz
	Channels    int    // Number of audio channels
	BitDepth    int    // Bits per sample
	MaxTextSize int    // Maximum text size in characters
}
