// Package sapi synthesizes speech through the Windows speech API by
// shelling out to PowerShell with System.Speech. It needs no cgo and
// no bundled voices, which keeps the install footprint small.
package sapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/huskievoice/chatvox/internal/audio"
	"github.com/huskievoice/chatvox/internal/tts"
)

const (
	// NamePrefix marks system voices in the combined voice list.
	NamePrefix = "[SAPI] "

	defaultTimeout = 15 * time.Second
	maxTextSize    = 2000
)

// runner executes a PowerShell script and returns its stdout. Swappable
// so tests can run without PowerShell installed.
type runner func(ctx context.Context, script string) ([]byte, error)

// Config contains settings for the speech API engine.
type Config struct {
	// Rate is the speaking rate from -10 to 10.
	Rate int
	// Timeout bounds a single synthesis call.
	Timeout time.Duration
}

// Engine renders text with the operating system's installed voices.
type Engine struct {
	rate    int
	timeout time.Duration
	run     runner

	mu     sync.Mutex
	closed bool

	voicesOnce sync.Once
	voices     []tts.Voice
}

// New creates a speech API engine.
func New(cfg Config) *Engine {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Engine{
		rate:    cfg.Rate,
		timeout: timeout,
		run:     runPowerShell,
	}
}

// Synthesize renders text with the named system voice.
func (e *Engine) Synthesize(ctx context.Context, text, voice string) (*tts.Audio, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, tts.ErrEngineClosed
	}
	e.mu.Unlock()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, tts.ErrEmptyText
	}
	if len(text) > maxTextSize {
		return nil, fmt.Errorf("%w: %d bytes", tts.ErrTextTooLong, len(text))
	}

	name := strings.TrimPrefix(voice, NamePrefix)

	tmp, err := os.CreateTemp("", "chatvox-sapi-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	script := synthScript(name, e.rate, text, tmpPath)
	if _, err := e.run(ctx, script); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", tts.ErrSynthesisFailed, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", tts.ErrSynthesisFailed, err)
	}

	wav, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", tts.ErrSynthesisFailed, err)
	}

	pcm, err := audio.DecodeWAV(wav)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tts.ErrSynthesisFailed, err)
	}

	log.Debug("sapi synthesis complete", "voice", name, "bytes", len(pcm.Data))

	return &tts.Audio{
		Data:       pcm.Data,
		SampleRate: pcm.SampleRate,
		Channels:   pcm.Channels,
		BitDepth:   pcm.BitDepth,
	}, nil
}

// Voices enumerates the installed system voices. The list is cached
// after the first call.
func (e *Engine) Voices() []tts.Voice {
	e.voicesOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		out, err := e.run(ctx, listScript)
		if err != nil {
			log.Debug("sapi voice enumeration failed", "error", err)
			return
		}
		for _, line := range strings.Split(string(out), "\n") {
			name := strings.TrimSpace(line)
			if name == "" {
				continue
			}
			e.voices = append(e.voices, tts.Voice{
				ID:      name,
				Name:    NamePrefix + name,
				Backend: "sapi",
			})
		}
	})
	return e.voices
}

// Available reports whether system synthesis can work on this host.
func (e *Engine) Available() bool {
	if runtime.GOOS != "windows" {
		return false
	}
	return len(e.Voices()) > 0
}

// Info returns engine metadata.
func (e *Engine) Info() tts.EngineInfo {
	return tts.EngineInfo{
		Name:        "sapi",
		SampleRate:  22050,
		Channels:    1,
		BitDepth:    16,
		MaxTextSize: maxTextSize,
	}
}

// Stop is a no-op; each synthesis call is bounded by its own timeout.
func (e *Engine) Stop() {}

// Close marks the engine closed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// synthScript builds the PowerShell program for one synthesis call.
// The text is passed base64-encoded to dodge quoting problems.
func synthScript(voice string, rate int, text, outPath string) string {
	var b strings.Builder
	b.WriteString("Add-Type -AssemblyName System.Speech;")
	b.WriteString("$s = New-Object System.Speech.Synthesis.SpeechSynthesizer;")
	if voice != "" {
		fmt.Fprintf(&b, "$s.SelectVoice(%s);", psQuote(voice))
	}
	fmt.Fprintf(&b, "$s.Rate = %d;", rate)
	fmt.Fprintf(&b, "$s.SetOutputToWaveFile(%s);", psQuote(outPath))
	fmt.Fprintf(&b, "$t = [Text.Encoding]::UTF8.GetString([Convert]::FromBase64String(%s));", psQuote(base64Text(text)))
	b.WriteString("$s.Speak($t);")
	b.WriteString("$s.Dispose();")
	return b.String()
}

const listScript = "Add-Type -AssemblyName System.Speech;" +
	"(New-Object System.Speech.Synthesis.SpeechSynthesizer).GetInstalledVoices()" +
	" | ForEach-Object { $_.VoiceInfo.Name }"

// psQuote wraps a string in PowerShell single quotes.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func base64Text(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func runPowerShell(ctx context.Context, script string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("powershell: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return out, nil
}
