// Package dectalk drives the legacy DECtalk synthesizer through its say
// binary. It is the engine behind the program's signature retro voices.
package dectalk

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/huskievoice/chatvox/internal/audio"
	"github.com/huskievoice/chatvox/internal/tts"
)

// Profiles maps profile names to DECtalk inline voice codes. The derived
// profiles layer gain or rate adjustments on the nine base speakers.
var Profiles = map[string]string{
	"Perfect Paul":     "[:np]",
	"Betty":            "[:nb]",
	"Harry":            "[:nh]",
	"Frank":            "[:nf]",
	"Dennis":           "[:nd]",
	"Kit":              "[:nk]",
	"Ursula":           "[:nu]",
	"Rita":             "[:nr]",
	"Wendy":            "[:nw]",
	"Doctor Dennis":    "[:nd][:dv gv 85]",
	"Huge Harry":       "[:nh][:dv gv 100]",
	"Beautiful Betty":  "[:nb][:dv gv 90]",
	"Frail Frank":      "[:nf][:dv gv 80]",
	"Kit the Kid":      "[:nk][:rate 250]",
	"Uppity Ursula":    "[:nu][:dv gv 95]",
	"Rough Rita":       "[:nr][:dv gv 85]",
	"Whispering Wendy": "[:nw][:dv gv 75]",
	"Variable Paul":    "[:np][:rate 200]",
	"DECtalk Sings":    "[:np][:phone on]",
}

// NamePrefix marks a voice name as belonging to this engine in the shared
// command table, e.g. "[DECtalk] Perfect Paul".
const NamePrefix = "[DECtalk] "

const (
	defaultTimeout = 10 * time.Second
	maxTextSize    = 2000
	sampleRate     = 11025 // say outputs 11kHz mono WAV
)

// Config holds configuration for the DECtalk engine.
type Config struct {
	// BinaryPath is the path to the say executable. Empty triggers a
	// search of PATH and the usual install locations.
	BinaryPath string

	// Timeout bounds a single synthesis run. Zero means 10s.
	Timeout time.Duration
}

// Engine implements tts.Engine using the say binary. A fresh process per
// synthesis with -w WAV output keeps playback routing in our hands.
type Engine struct {
	binary  string
	timeout time.Duration

	mu      sync.Mutex
	current *exec.Cmd
	closed  bool
}

// New creates a DECtalk engine. The engine is returned even when the binary
// is missing; Available reports the difference.
func New(cfg Config) *Engine {
	bin := cfg.BinaryPath
	if bin == "" {
		bin = findBinary()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if bin == "" {
		log.Warn("dectalk say binary not found, engine disabled")
	} else {
		log.Debug("dectalk engine ready", "binary", bin)
	}
	return &Engine{binary: bin, timeout: timeout}
}

// Synthesize renders text to PCM. The voice may be a profile name, a
// NamePrefix-qualified name, or a raw inline code like "[:np]".
func (e *Engine) Synthesize(ctx context.Context, text, voice string) (*tts.Audio, error) {
	if !e.Available() {
		return nil, tts.ErrEngineNotAvailable
	}
	if strings.TrimSpace(text) == "" {
		return nil, tts.ErrEmptyText
	}
	if len(text) > maxTextSize {
		return nil, fmt.Errorf("%w: %d characters (max %d)", tts.ErrTextTooLong, len(text), maxTextSize)
	}

	code, err := voiceCode(voice)
	if err != nil {
		return nil, err
	}
	full := prepareText(code, text)

	wavPath, err := tempWAV()
	if err != nil {
		return nil, err
	}
	defer os.Remove(wavPath)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binary, "-w", wavPath, full)
	// say resolves its dictionary relative to its own directory.
	cmd.Dir = filepath.Dir(e.binary)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, tts.ErrEngineClosed
	}
	e.current = cmd
	e.mu.Unlock()

	out, err := cmd.CombinedOutput()

	e.mu.Lock()
	e.current = nil
	e.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("dectalk synthesis timeout: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: say: %v: %s", tts.ErrSynthesisFailed, err, strings.TrimSpace(string(out)))
	}

	wav, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading output: %v", tts.ErrSynthesisFailed, err)
	}
	pcm, err := audio.DecodeWAV(wav)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tts.ErrSynthesisFailed, err)
	}
	return &tts.Audio{
		Data:       pcm.Data,
		SampleRate: pcm.SampleRate,
		Channels:   pcm.Channels,
		BitDepth:   pcm.BitDepth,
	}, nil
}

// Voices lists the built-in profiles with the NamePrefix applied.
func (e *Engine) Voices() []tts.Voice {
	names := make([]string, 0, len(Profiles))
	for name := range Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	voices := make([]tts.Voice, 0, len(names))
	for _, name := range names {
		voices = append(voices, tts.Voice{
			ID:      Profiles[name],
			Name:    NamePrefix + name,
			Backend: "dectalk",
		})
	}
	return voices
}

// Available reports whether the say binary was found.
func (e *Engine) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.binary != "" && !e.closed
}

// Info returns engine capabilities.
func (e *Engine) Info() tts.EngineInfo {
	return tts.EngineInfo{
		Name:        "dectalk",
		SampleRate:  sampleRate,
		Channels:    1,
		BitDepth:    16,
		MaxTextSize: maxTextSize,
	}
}

// Stop kills any in-flight say process.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil && e.current.Process != nil {
		log.Debug("killing dectalk process")
		_ = e.current.Process.Kill()
	}
}

// Close disables the engine and stops any running synthesis.
func (e *Engine) Close() error {
	e.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// voiceCode resolves a voice argument to an inline code. An empty voice
// selects Perfect Paul, the engine default.
func voiceCode(voice string) (string, error) {
	if voice == "" {
		return "", nil
	}
	name := strings.TrimPrefix(voice, NamePrefix)
	if code, ok := Profiles[name]; ok {
		return code, nil
	}
	if strings.HasPrefix(name, "[:") {
		return name, nil
	}
	return "", fmt.Errorf("%w: %q", tts.ErrVoiceNotFound, voice)
}

func tempWAV() (string, error) {
	f, err := os.CreateTemp("", "chatvox-dectalk-*.wav")
	if err != nil {
		return "", fmt.Errorf("cannot create temp wav: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("cannot close temp wav: %w", err)
	}
	return path, nil
}

// findBinary looks for say in PATH and the usual install locations.
func findBinary() string {
	if p, err := exec.LookPath(sayName()); err == nil {
		return p
	}
	for _, p := range commonPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func sayName() string {
	if runtime.GOOS == "windows" {
		return "say.exe"
	}
	return "say"
}

func commonPaths() []string {
	if runtime.GOOS == "windows" {
		return []string{
			`C:\Program Files\DECtalk\say.exe`,
			`C:\Program Files (x86)\DECtalk\say.exe`,
			`C:\DECtalk\say.exe`,
		}
	}
	return []string{
		"/usr/local/share/dectalk/say",
		"/opt/dectalk/say",
	}
}
