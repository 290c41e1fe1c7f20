package audio

import (
	"context"
	"sync"
	"time"
)

// MockPlayer records playback calls without touching an audio device.
// It simulates clip duration so queue timing can be tested.
type MockPlayer struct {
	mu      sync.Mutex
	played  []*PCM
	playing bool
	stopped chan struct{}
	closed  bool

	// PlayDelay overrides the simulated clip duration when non-zero.
	PlayDelay time.Duration
	// PlayErr is returned from Play when non-nil.
	PlayErr error
}

// NewMockPlayer creates a mock player.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{stopped: make(chan struct{})}
}

// Play records the clip and blocks for its simulated duration.
func (m *MockPlayer) Play(ctx context.Context, pcm *PCM) error {
	m.mu.Lock()
	if m.PlayErr != nil {
		err := m.PlayErr
		m.mu.Unlock()
		return err
	}
	m.played = append(m.played, pcm)
	m.playing = true
	stopped := m.stopped
	delay := m.PlayDelay
	m.mu.Unlock()

	if delay == 0 && pcm != nil {
		delay = time.Duration(pcm.Duration())
	}

	defer func() {
		m.mu.Lock()
		m.playing = false
		m.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-stopped:
		return nil
	case <-time.After(delay):
		return nil
	}
}

// Stop interrupts the current clip.
func (m *MockPlayer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	close(m.stopped)
	m.stopped = make(chan struct{})
}

// IsPlaying reports whether a clip is playing.
func (m *MockPlayer) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// SetVolume is a no-op for the mock.
func (m *MockPlayer) SetVolume(volume float64) error { return nil }

// Close marks the player closed.
func (m *MockPlayer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Played returns the clips played so far.
func (m *MockPlayer) Played() []*PCM {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*PCM, len(m.played))
	copy(out, m.played)
	return out
}
