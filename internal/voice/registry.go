// Package voice maps chat command tokens to speech voices and tracks
// per-user voice preferences.
package voice

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/huskievoice/chatvox/internal/tts"
	"github.com/huskievoice/chatvox/internal/tts/dectalk"
)

// dectalkShortcuts are the named command tokens for the built-in profiles.
var dectalkShortcuts = map[string]string{
	"paul":   dectalk.NamePrefix + "Perfect Paul",
	"betty":  dectalk.NamePrefix + "Betty",
	"harry":  dectalk.NamePrefix + "Harry",
	"frank":  dectalk.NamePrefix + "Frank",
	"dennis": dectalk.NamePrefix + "Dennis",
	"kit":    dectalk.NamePrefix + "Kit",
	"ursula": dectalk.NamePrefix + "Ursula",
	"rita":   dectalk.NamePrefix + "Rita",
	"wendy":  dectalk.NamePrefix + "Wendy",
	"sings":  dectalk.NamePrefix + "DECtalk Sings",
}

// Config contains registry settings.
type Config struct {
	// Commands maps command tokens to voice names. Empty means
	// auto-generate from the available voices.
	Commands map[string]string
	// DefaultVoice is spoken when nothing else resolves.
	DefaultVoice string
	// RandomEnabled assigns a random voice to first-time speakers.
	RandomEnabled bool
	// RandomExclusions lists voice names never assigned randomly.
	RandomExclusions []string
}

// Registry resolves command tokens and voice names against the voices
// the engines actually offer.
type Registry struct {
	mu         sync.RWMutex
	commands   map[string]string
	voices     []tts.Voice
	defaults   string
	randomOn   bool
	exclusions map[string]bool
	prefs      *Prefs

	// randFn is swappable for deterministic tests.
	randFn func(n int) int
}

// NewRegistry builds a registry over the engines' combined voice list.
func NewRegistry(cfg Config, voices []tts.Voice, prefs *Prefs) *Registry {
	r := &Registry{
		commands:   map[string]string{},
		voices:     voices,
		defaults:   cfg.DefaultVoice,
		randomOn:   cfg.RandomEnabled,
		exclusions: map[string]bool{},
		prefs:      prefs,
		randFn:     rand.Intn,
	}
	for _, name := range cfg.RandomExclusions {
		r.exclusions[name] = true
	}

	empty := true
	for _, v := range cfg.Commands {
		if strings.TrimSpace(v) != "" {
			empty = false
			break
		}
	}
	if empty {
		r.autoGenerate()
	} else {
		for token, name := range cfg.Commands {
			r.commands[normalizeToken(token)] = name
		}
	}
	return r
}

// autoGenerate numbers the first ten system voices as `v 0`..`v 9` and
// adds the named shortcuts for every profile the synthesizer offers.
func (r *Registry) autoGenerate() {
	n := 0
	hasDectalk := false
	for _, v := range r.voices {
		if v.Backend == "dectalk" {
			hasDectalk = true
			continue
		}
		if n < 10 {
			r.commands[fmt.Sprintf("v %d", n)] = v.Name
			n++
		}
	}
	if hasDectalk {
		for token, name := range dectalkShortcuts {
			r.commands[token] = name
		}
	}
	log.Debug("auto-generated voice commands", "count", len(r.commands))
}

// Lookup returns the voice name bound to a command token.
func (r *Registry) Lookup(token string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.commands[normalizeToken(token)]
	if !ok || strings.TrimSpace(name) == "" {
		return "", false
	}
	return name, true
}

// Commands returns a sorted snapshot of the token table.
func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.commands))
	for token := range r.commands {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// Resolve finds the engine voice for a name: exact match first, then
// case-insensitive partial match in either direction. A miss returns
// false; callers fall back to the default voice rather than erroring.
func (r *Registry) Resolve(name string) (tts.Voice, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.voices {
		if v.Name == name {
			return v, true
		}
	}
	lower := strings.ToLower(name)
	for _, v := range r.voices {
		vlower := strings.ToLower(v.Name)
		if strings.Contains(vlower, lower) || strings.Contains(lower, vlower) {
			return v, true
		}
	}
	log.Warn("voice not found", "voice", name)
	return tts.Voice{}, false
}

// DefaultVoice returns the configured fallback voice name.
func (r *Registry) DefaultVoice() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults
}

// Preferred returns the user's saved voice, if any.
func (r *Registry) Preferred(username string) (string, bool) {
	if r.prefs == nil {
		return "", false
	}
	return r.prefs.Get(username)
}

// SetPreferred saves the user's voice choice.
func (r *Registry) SetPreferred(username, voiceName string) error {
	if r.prefs == nil {
		return nil
	}
	return r.prefs.Set(username, voiceName)
}

// AssignRandom picks a random non-excluded voice for a first-time
// speaker and persists it as their preference. Returns false when
// random assignment is disabled or every voice is excluded.
func (r *Registry) AssignRandom(username string) (string, bool) {
	r.mu.RLock()
	if !r.randomOn {
		r.mu.RUnlock()
		return "", false
	}

	seen := map[string]bool{}
	var pool []string
	for _, name := range r.commands {
		if strings.TrimSpace(name) == "" || r.exclusions[name] || seen[name] {
			continue
		}
		seen[name] = true
		pool = append(pool, name)
	}
	for _, v := range r.voices {
		if v.Backend != "dectalk" || r.exclusions[v.Name] || seen[v.Name] {
			continue
		}
		seen[v.Name] = true
		pool = append(pool, v.Name)
	}
	r.mu.RUnlock()

	if len(pool) == 0 {
		log.Warn("no voices available for random assignment")
		return "", false
	}
	sort.Strings(pool)
	chosen := pool[r.randFn(len(pool))]

	if err := r.SetPreferred(username, chosen); err != nil {
		log.Error("failed to save random voice", "user", username, "error", err)
	}
	log.Info("assigned random voice", "user", username, "voice", chosen)
	return chosen, true
}

func normalizeToken(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}
