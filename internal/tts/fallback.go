package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/huskievoice/chatvox/internal/cache"
)

// FallbackEngine routes synthesis between a primary engine (DECtalk) and a
// fallback engine (the system speech API). Voices the primary owns go to the
// primary; everything else goes to the fallback. If the primary fails
// repeatedly it is benched until Reset is called.
type FallbackEngine struct {
	primary     Engine
	fallback    Engine
	maxFailures int

	mu            sync.Mutex
	failures      int
	usingFallback bool

	// Rendered audio keyed by voice and text. Nil disables caching.
	audioCache *cache.Memory

	primaryVoices map[string]bool
}

// NewFallbackEngine creates an engine that prefers primary for its own
// voices and benches it after maxFailures consecutive errors.
func NewFallbackEngine(primary, fallback Engine, maxFailures int) *FallbackEngine {
	voices := make(map[string]bool)
	for _, v := range primary.Voices() {
		voices[v.Name] = true
	}
	return &FallbackEngine{
		primary:       primary,
		fallback:      fallback,
		maxFailures:   maxFailures,
		primaryVoices: voices,
	}
}

// WithCache enables audio caching with the given capacity in bytes.
func (f *FallbackEngine) WithCache(capacity int64) *FallbackEngine {
	f.audioCache = cache.NewMemory(capacity)
	return f
}

// Synthesize renders text with whichever engine owns the voice, falling back
// to the secondary engine when the primary is benched or errors out.
func (f *FallbackEngine) Synthesize(ctx context.Context, text, voice string) (*Audio, error) {
	if f.audioCache != nil {
		if data, ok := f.audioCache.Get(cacheKey(voice, text)); ok {
			info := f.engineFor(voice).Info()
			return &Audio{Data: data, SampleRate: info.SampleRate, Channels: info.Channels, BitDepth: info.BitDepth}, nil
		}
	}

	eng := f.engineFor(voice)
	audio, err := eng.Synthesize(ctx, text, voice)
	if err != nil && eng == f.primary {
		f.recordFailure(err)
		// A benched primary voice still has to come out somewhere; let the
		// system API speak it with its default voice.
		if f.benched() {
			log.Warn("primary engine benched, rerouting", "voice", voice)
			audio, err = f.fallback.Synthesize(ctx, text, "")
		}
	} else if err == nil && eng == f.primary {
		f.recordSuccess()
	}
	if err != nil {
		return nil, fmt.Errorf("synthesis failed for voice %q: %w", voice, err)
	}

	if f.audioCache != nil {
		f.audioCache.Put(cacheKey(voice, text), audio.Data)
	}
	return audio, nil
}

// Voices returns the union of both engines' voices.
func (f *FallbackEngine) Voices() []Voice {
	out := f.primary.Voices()
	return append(out, f.fallback.Voices()...)
}

// Available reports whether either engine can speak.
func (f *FallbackEngine) Available() bool {
	return f.primary.Available() || f.fallback.Available()
}

// Info returns the active default engine's info.
func (f *FallbackEngine) Info() EngineInfo {
	if f.benched() || !f.primary.Available() {
		return f.fallback.Info()
	}
	return f.primary.Info()
}

// Stop interrupts both engines.
func (f *FallbackEngine) Stop() {
	f.primary.Stop()
	f.fallback.Stop()
}

// Close shuts down both engines.
func (f *FallbackEngine) Close() error {
	perr := f.primary.Close()
	ferr := f.fallback.Close()
	if perr != nil {
		return fmt.Errorf("primary close: %w", perr)
	}
	if ferr != nil {
		return fmt.Errorf("fallback close: %w", ferr)
	}
	return nil
}

// Reset un-benches the primary engine.
func (f *FallbackEngine) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = 0
	f.usingFallback = false
}

// Status describes which engine is serving primary voices.
func (f *FallbackEngine) Status() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usingFallback {
		return fmt.Sprintf("using fallback engine (primary failed %d times)", f.failures)
	}
	return fmt.Sprintf("using primary engine (failures: %d/%d)", f.failures, f.maxFailures)
}

// engineFor picks the engine for the given voice name. Owned voices go
// to the primary; everything else prefers the fallback, but an empty or
// unowned voice must not die on a host where only the primary works.
func (f *FallbackEngine) engineFor(voice string) Engine {
	primaryUsable := f.primary.Available() && !f.benched()
	if f.primaryVoices[voice] && primaryUsable {
		return f.primary
	}
	if !f.fallback.Available() && primaryUsable {
		return f.primary
	}
	return f.fallback
}

func (f *FallbackEngine) benched() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usingFallback
}

func (f *FallbackEngine) recordFailure(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures++
	// A dead or closed engine will not recover on its own; bench it now
	// instead of burning maxFailures messages finding out.
	if !IsRecoverable(err) {
		f.failures = f.maxFailures
	}
	log.Warn("primary engine failed", "attempt", f.failures, "max", f.maxFailures, "err", err)
	if f.failures >= f.maxFailures {
		f.usingFallback = true
	}
}

func (f *FallbackEngine) recordSuccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		log.Info("primary engine recovered", "after_failures", f.failures)
		f.failures = 0
	}
}

func cacheKey(voice, text string) string {
	sum := sha256.Sum256([]byte(voice + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
