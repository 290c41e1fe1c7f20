// Package mock provides a synthesis engine for testing.
package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/huskievoice/chatvox/internal/tts"
)

// Engine implements tts.Engine with canned silence.
type Engine struct {
	mu        sync.Mutex
	delay     time.Duration
	failErr   error
	available bool
	closed    bool
	calls     []Call
	voices    []tts.Voice
}

// Call records one synthesis request.
type Call struct {
	Text  string
	Voice string
}

// New creates a mock engine with three voices and no delay.
func New() *Engine {
	return &Engine{
		available: true,
		voices: []tts.Voice{
			{ID: "mock-1", Name: "Mock One", Backend: "mock"},
			{ID: "mock-2", Name: "Mock Two", Backend: "mock"},
			{ID: "mock-3", Name: "Mock Three", Backend: "mock"},
		},
	}
}

// Synthesize records the call and returns silence sized to the text.
func (e *Engine) Synthesize(ctx context.Context, text, voice string) (*tts.Audio, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, tts.ErrEngineClosed
	}
	e.calls = append(e.calls, Call{Text: text, Voice: voice})
	failErr := e.failErr
	delay := e.delay
	e.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return nil, tts.ErrEmptyText
	}
	if failErr != nil {
		return nil, failErr
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	// Roughly 150 words per minute of silence.
	words := len(text) / 5
	if words < 1 {
		words = 1
	}
	sampleRate := 22050
	samples := words * 60 * sampleRate / 150

	return &tts.Audio{
		Data:       make([]byte, samples*2),
		SampleRate: sampleRate,
		Channels:   1,
		BitDepth:   16,
	}, nil
}

// Voices returns the configured voice list.
func (e *Engine) Voices() []tts.Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.voices
}

// Available reports the configured availability.
func (e *Engine) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available && !e.closed
}

// Info returns engine metadata.
func (e *Engine) Info() tts.EngineInfo {
	return tts.EngineInfo{
		Name:        "mock",
		SampleRate:  22050,
		Channels:    1,
		BitDepth:    16,
		MaxTextSize: 10000,
	}
}

// Stop is a no-op.
func (e *Engine) Stop() {}

// Close marks the engine closed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// Test control methods

// SetDelay sets the simulated synthesis delay.
func (e *Engine) SetDelay(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delay = d
}

// SetFailure makes subsequent calls fail with err. Pass nil to clear.
func (e *Engine) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failErr = err
}

// SetAvailable overrides the availability report.
func (e *Engine) SetAvailable(ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.available = ok
}

// SetVoices replaces the voice list.
func (e *Engine) SetVoices(voices []tts.Voice) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.voices = voices
}

// Calls returns the synthesis requests seen so far.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Call, len(e.calls))
	copy(out, e.calls)
	return out
}
