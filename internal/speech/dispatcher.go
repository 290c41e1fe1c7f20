package speech

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/huskievoice/chatvox/internal/audio"
	"github.com/huskievoice/chatvox/internal/tts"
)

// maxUtterance bounds a single message so a wall of text cannot hold
// the channel forever.
const maxUtterance = 60 * time.Second

// Player plays one decoded clip at a time.
type Player interface {
	Play(ctx context.Context, pcm *audio.PCM) error
	Stop()
	Close() error
}

// VoiceSource resolves which voice a queued message should use.
type VoiceSource interface {
	Resolve(name string) (tts.Voice, bool)
	DefaultVoice() string
	Preferred(username string) (string, bool)
	AssignRandom(username string) (string, bool)
}

// Blocklist answers the blocked re-check at dequeue time. A user
// blocked while their messages sat in the queue stays silent.
type Blocklist interface {
	IsBlocked(username string) bool
}

// Dispatcher is the speech worker: it drains the queue, resolves
// voices, synthesizes, and plays, one utterance at a time.
type Dispatcher struct {
	queue   *Queue
	engine  tts.Engine
	player  Player
	voices  VoiceSource
	blocked Blocklist

	mu       sync.Mutex
	speaking string
	cancel   context.CancelFunc
}

// NewDispatcher wires the speech worker.
func NewDispatcher(queue *Queue, engine tts.Engine, player Player, voices VoiceSource, blocked Blocklist) *Dispatcher {
	return &Dispatcher{
		queue:   queue,
		engine:  engine,
		player:  player,
		voices:  voices,
		blocked: blocked,
	}
}

// Run consumes the queue until ctx is canceled or the queue closes.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		req, err := d.queue.Dequeue(ctx)
		if err != nil {
			return err
		}
		d.speak(ctx, req)
	}
}

func (d *Dispatcher) speak(ctx context.Context, req *Request) {
	if !req.Announcement && d.blocked != nil && d.blocked.IsBlocked(req.Username) {
		log.Info("skipping message from blocked user", "user", req.Username)
		return
	}

	voiceName := d.resolveVoice(req)

	utterCtx, cancel := context.WithTimeout(ctx, maxUtterance)
	d.mu.Lock()
	d.speaking = req.Username
	d.cancel = cancel
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		if d.speaking == req.Username {
			d.speaking = ""
			d.cancel = nil
		}
		d.mu.Unlock()
		cancel()
	}()

	clip, err := d.engine.Synthesize(utterCtx, req.Text, voiceName)
	if err != nil {
		log.Error("synthesis failed, dropping message",
			"user", req.Username, "voice", voiceName, "error", err)
		return
	}

	pcm := &audio.PCM{
		Data:       clip.Data,
		SampleRate: clip.SampleRate,
		Channels:   clip.Channels,
		BitDepth:   clip.BitDepth,
	}
	if err := utterCtx.Err(); err != nil {
		return
	}
	if err := d.player.Play(utterCtx, pcm); err != nil && err != context.Canceled {
		log.Error("playback failed", "user", req.Username, "error", err)
	}
}

// resolveVoice picks the engine voice name for a request: explicit
// voice, then the user's preference, then a random assignment, then
// the default. A name that resolves to nothing also falls back to the
// default; a bad voice never drops the message.
func (d *Dispatcher) resolveVoice(req *Request) string {
	name := req.Voice
	if name == "" && req.UsePreference && !req.Announcement {
		if pref, ok := d.voices.Preferred(req.Username); ok {
			name = pref
		} else if assigned, ok := d.voices.AssignRandom(req.Username); ok {
			name = assigned
		}
	}
	if name == "" {
		name = d.voices.DefaultVoice()
	}
	if name == "" {
		return ""
	}
	if v, ok := d.voices.Resolve(name); ok {
		return v.Name
	}
	if def := d.voices.DefaultVoice(); def != "" && def != name {
		if v, ok := d.voices.Resolve(def); ok {
			return v.Name
		}
	}
	return name
}

// SpeakingUser returns the author of the utterance being spoken now.
func (d *Dispatcher) SpeakingUser() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speaking
}

// PurgeUser drops a user's queued messages and cuts them off if they
// are speaking.
func (d *Dispatcher) PurgeUser(username string) {
	removed := d.queue.PurgeUser(username)
	d.mu.Lock()
	speaking := d.speaking == username
	cancel := d.cancel
	d.mu.Unlock()
	if speaking && cancel != nil {
		cancel()
		d.player.Stop()
	}
	log.Info("purged user speech", "user", username, "queued", removed, "interrupted", speaking)
}

// StopCurrent interrupts the utterance being spoken. The queue keeps
// draining.
func (d *Dispatcher) StopCurrent() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.player.Stop()
	d.engine.Stop()
}

// StopAll clears the queue and interrupts the current utterance.
func (d *Dispatcher) StopAll() {
	removed := d.queue.Clear()
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.player.Stop()
	d.engine.Stop()
	log.Info("stopped all speech", "dropped", removed)
}
