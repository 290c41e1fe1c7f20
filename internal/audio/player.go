package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player plays decoded PCM clips through the system audio device using oto.
// Playback is blocking, which keeps queue ordering trivial for callers.
type Player struct {
	context *oto.Context

	mu      sync.Mutex
	current *oto.Player
	// Keep clip bytes alive while oto streams them. Dropping the
	// reference mid-playback causes audible static.
	active []byte

	sampleRate int
	channels   int

	volume  float64
	stopped chan struct{}
	closed  bool
}

// PlayerConfig configures the output device format. All clips are
// converted to this format before playback.
type PlayerConfig struct {
	SampleRate int // 44100 or 48000 Hz only
	Channels   int // 1 = mono, 2 = stereo
	BufferSize time.Duration
	// Volume ranges 0.0 to 2.0. Above 1.0 amplifies; ScaleVolume clamps
	// the samples.
	Volume float64
}

// validate checks the device format before the device is opened.
func (c PlayerConfig) validate() error {
	if c.SampleRate != 44100 && c.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", c.Channels)
	}
	if c.Volume < 0 || c.Volume > 2 {
		return fmt.Errorf("volume must be between 0.0 and 2.0, got %f", c.Volume)
	}
	return nil
}

// DefaultPlayerConfig returns the default output configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 44100,
		Channels:   1, // Mono for speech
		BufferSize: 100 * time.Millisecond,
		Volume:     1.0,
	}
}

// NewPlayer opens the system audio device. The device is held until Close.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   config.BufferSize,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	return &Player{
		context:    ctx,
		sampleRate: config.SampleRate,
		channels:   config.Channels,
		volume:     config.Volume,
		stopped:    make(chan struct{}),
	}, nil
}

// Play converts the clip to the device format and plays it to completion.
// It returns early when ctx is canceled or Stop is called.
func (p *Player) Play(ctx context.Context, pcm *PCM) error {
	if pcm == nil || len(pcm.Data) == 0 {
		return errors.New("audio data is empty")
	}

	data := p.prepare(pcm)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("player is closed")
	}
	if p.current != nil {
		p.current.Close()
	}
	player := p.context.NewPlayer(bytes.NewReader(data))
	p.current = player
	p.active = data
	stopped := p.stopped
	p.mu.Unlock()

	player.Play()
	defer func() {
		p.mu.Lock()
		if p.current == player {
			p.current = nil
			p.active = nil
		}
		p.mu.Unlock()
		player.Close()
	}()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-stopped:
			player.Pause()
			return nil
		case <-ticker.C:
			if !player.IsPlaying() {
				return nil
			}
		}
	}
}

// prepare converts a clip to the device sample rate and applies the
// configured volume.
func (p *Player) prepare(pcm *PCM) []byte {
	data := toMono16(pcm)
	if pcm.SampleRate != p.sampleRate {
		data = resample(data, pcm.SampleRate, p.sampleRate)
	}
	if p.channels == 2 {
		data = monoToStereo(data)
	}
	out := make([]byte, len(data))
	copy(out, data)
	p.mu.Lock()
	volume := p.volume
	p.mu.Unlock()
	ScaleVolume(out, volume)
	return out
}

// Stop interrupts the current clip. Safe to call with nothing playing.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	close(p.stopped)
	p.stopped = make(chan struct{})
}

// IsPlaying reports whether a clip is currently playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil && p.current.IsPlaying()
}

// SetVolume updates the volume applied to subsequent clips.
func (p *Player) SetVolume(volume float64) error {
	if volume < 0 || volume > 2 {
		return fmt.Errorf("volume must be between 0.0 and 2.0, got %f", volume)
	}
	p.mu.Lock()
	p.volume = volume
	p.mu.Unlock()
	return nil
}

// Close stops playback and releases the device.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.current != nil {
		p.current.Close()
		p.current = nil
		p.active = nil
	}
	// oto v3 contexts have no Close; dropping the reference releases it.
	p.context = nil
	return nil
}

// toMono16 converts a clip to 16-bit mono samples.
func toMono16(pcm *PCM) []byte {
	data := pcm.Data
	if pcm.BitDepth == 8 {
		// 8-bit WAV samples are unsigned.
		out := make([]byte, len(data)*2)
		for i, b := range data {
			s := (int16(b) - 128) << 8
			binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
		}
		data = out
	}
	if pcm.Channels == 2 {
		out := make([]byte, len(data)/2)
		for i := 0; i+3 < len(data); i += 4 {
			l := int32(int16(binary.LittleEndian.Uint16(data[i:])))
			r := int32(int16(binary.LittleEndian.Uint16(data[i+2:])))
			binary.LittleEndian.PutUint16(out[i/2:], uint16(int16((l+r)/2)))
		}
		data = out
	}
	return data
}

// resample converts 16-bit mono samples between rates using linear
// interpolation. Good enough for speech.
func resample(data []byte, from, to int) []byte {
	if from == to || from <= 0 || to <= 0 {
		return data
	}
	inSamples := len(data) / 2
	if inSamples == 0 {
		return data
	}
	outSamples := inSamples * to / from
	out := make([]byte, outSamples*2)
	for i := 0; i < outSamples; i++ {
		pos := float64(i) * float64(from) / float64(to)
		idx := int(pos)
		frac := pos - float64(idx)
		s0 := int16(binary.LittleEndian.Uint16(data[idx*2:]))
		s1 := s0
		if idx+1 < inSamples {
			s1 = int16(binary.LittleEndian.Uint16(data[(idx+1)*2:]))
		}
		s := float64(s0)*(1-frac) + float64(s1)*frac
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s)))
	}
	return out
}

// monoToStereo duplicates each 16-bit sample into both channels.
func monoToStereo(data []byte) []byte {
	out := make([]byte, len(data)*2)
	for i := 0; i+1 < len(data); i += 2 {
		copy(out[i*2:], data[i:i+2])
		copy(out[i*2+2:], data[i:i+2])
	}
	return out
}
