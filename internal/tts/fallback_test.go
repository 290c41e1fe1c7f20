package tts

import (
	"context"
	"errors"
	"testing"
)

type stubEngine struct {
	name      string
	voices    []Voice
	available bool
	err       error
	calls     []string
}

func (s *stubEngine) Synthesize(_ context.Context, text, _ string) (*Audio, error) {
	s.calls = append(s.calls, text)
	if s.err != nil {
		return nil, s.err
	}
	return &Audio{Data: []byte(s.name + ":" + text), SampleRate: 22050, Channels: 1, BitDepth: 16}, nil
}

func (s *stubEngine) Voices() []Voice { return s.voices }
func (s *stubEngine) Available() bool { return s.available }
func (s *stubEngine) Info() EngineInfo {
	return EngineInfo{Name: s.name, SampleRate: 22050, Channels: 1, BitDepth: 16, MaxTextSize: 2000}
}
func (s *stubEngine) Stop()        {}
func (s *stubEngine) Close() error { return nil }

func newStubPair() (*stubEngine, *stubEngine) {
	primary := &stubEngine{
		name:      "primary",
		available: true,
		voices:    []Voice{{ID: "p1", Name: "Paul", Backend: "primary"}},
	}
	fallback := &stubEngine{
		name:      "fallback",
		available: true,
		voices:    []Voice{{ID: "f1", Name: "Zira", Backend: "fallback"}},
	}
	return primary, fallback
}

func TestFallbackRoutesByVoiceOwnership(t *testing.T) {
	primary, fallback := newStubPair()
	f := NewFallbackEngine(primary, fallback, 3)

	if _, err := f.Synthesize(context.Background(), "hello", "Paul"); err != nil {
		t.Fatal(err)
	}
	if len(primary.calls) != 1 || len(fallback.calls) != 0 {
		t.Fatalf("Paul should go to primary, got primary=%d fallback=%d", len(primary.calls), len(fallback.calls))
	}

	if _, err := f.Synthesize(context.Background(), "hello", "Zira"); err != nil {
		t.Fatal(err)
	}
	if len(fallback.calls) != 1 {
		t.Fatalf("Zira should go to fallback, got %d calls", len(fallback.calls))
	}
}

func TestFallbackBenchesPrimaryAfterFailures(t *testing.T) {
	primary, fallback := newStubPair()
	primary.err = errors.New("boom")
	f := NewFallbackEngine(primary, fallback, 2)

	if _, err := f.Synthesize(context.Background(), "one", "Paul"); err == nil {
		t.Fatal("expected error from failing primary")
	}

	// Second failure trips the bench and reroutes within the same call.
	audio, err := f.Synthesize(context.Background(), "two", "Paul")
	if err != nil {
		t.Fatal(err)
	}
	if string(audio.Data) != "fallback:two" {
		t.Fatalf("expected rerouted audio, got %q", audio.Data)
	}

	// Benched primary stays out of the rotation.
	if _, err := f.Synthesize(context.Background(), "three", "Paul"); err != nil {
		t.Fatal(err)
	}
	if len(primary.calls) != 2 {
		t.Fatalf("benched primary should not be called again, got %d calls", len(primary.calls))
	}

	f.Reset()
	primary.err = nil
	if _, err := f.Synthesize(context.Background(), "four", "Paul"); err != nil {
		t.Fatal(err)
	}
	if len(primary.calls) != 3 {
		t.Fatalf("reset should restore the primary, got %d calls", len(primary.calls))
	}
}

func TestFallbackRecoveryResetsFailureCount(t *testing.T) {
	primary, fallback := newStubPair()
	primary.err = errors.New("boom")
	f := NewFallbackEngine(primary, fallback, 3)

	_, _ = f.Synthesize(context.Background(), "one", "Paul")
	_, _ = f.Synthesize(context.Background(), "two", "Paul")

	primary.err = nil
	if _, err := f.Synthesize(context.Background(), "three", "Paul"); err != nil {
		t.Fatal(err)
	}

	// A fresh run of failures has to reach maxFailures again.
	primary.err = errors.New("boom")
	_, _ = f.Synthesize(context.Background(), "four", "Paul")
	_, _ = f.Synthesize(context.Background(), "five", "Paul")
	primary.err = nil
	if _, err := f.Synthesize(context.Background(), "six", "Paul"); err != nil {
		t.Fatal(err)
	}
	if len(fallback.calls) != 0 {
		t.Fatalf("fallback should never speak for Paul here, got %d calls", len(fallback.calls))
	}
}

func TestFallbackCacheHitSkipsSynthesis(t *testing.T) {
	primary, fallback := newStubPair()
	f := NewFallbackEngine(primary, fallback, 3).WithCache(1 << 20)

	first, err := f.Synthesize(context.Background(), "hello", "Paul")
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.Synthesize(context.Background(), "hello", "Paul")
	if err != nil {
		t.Fatal(err)
	}
	if len(primary.calls) != 1 {
		t.Fatalf("second request should hit the cache, got %d synth calls", len(primary.calls))
	}
	if string(first.Data) != string(second.Data) {
		t.Fatalf("cached audio mismatch: %q vs %q", first.Data, second.Data)
	}

	// Same text under another voice is a different key.
	if _, err := f.Synthesize(context.Background(), "hello", "Zira"); err != nil {
		t.Fatal(err)
	}
	if len(fallback.calls) != 1 {
		t.Fatal("different voice must not share a cache entry")
	}
}

func TestFallbackEmptyVoiceWithDeadFallback(t *testing.T) {
	primary, fallback := newStubPair()
	fallback.available = false
	fallback.err = errors.New("powershell not found")
	f := NewFallbackEngine(primary, fallback, 3)

	// Announcements and preference-less messages carry no voice; on a
	// host where only the primary works they must still come out.
	audio, err := f.Synthesize(context.Background(), "hello", "")
	if err != nil {
		t.Fatal(err)
	}
	if string(audio.Data) != "primary:hello" {
		t.Fatalf("expected primary audio, got %q", audio.Data)
	}
	if len(fallback.calls) != 0 {
		t.Fatalf("unavailable fallback should not be called, got %d calls", len(fallback.calls))
	}

	// Same for a voice neither engine owns.
	if _, err := f.Synthesize(context.Background(), "hi", "Mystery"); err != nil {
		t.Fatal(err)
	}
	if len(primary.calls) != 2 {
		t.Fatalf("expected both requests on the primary, got %d calls", len(primary.calls))
	}
}

func TestFallbackBenchesImmediatelyOnPermanentError(t *testing.T) {
	primary, fallback := newStubPair()
	primary.err = ErrEngineClosed
	f := NewFallbackEngine(primary, fallback, 5)

	// A closed engine will not recover; one failure reroutes within the
	// same call instead of burning five messages.
	audio, err := f.Synthesize(context.Background(), "hello", "Paul")
	if err != nil {
		t.Fatal(err)
	}
	if string(audio.Data) != "fallback:hello" {
		t.Fatalf("expected rerouted audio, got %q", audio.Data)
	}
	if len(primary.calls) != 1 {
		t.Fatalf("primary should be benched after one permanent failure, got %d calls", len(primary.calls))
	}
}

func TestFallbackVoicesUnion(t *testing.T) {
	primary, fallback := newStubPair()
	f := NewFallbackEngine(primary, fallback, 3)

	voices := f.Voices()
	if len(voices) != 2 {
		t.Fatalf("expected 2 voices, got %d", len(voices))
	}
	if voices[0].Name != "Paul" || voices[1].Name != "Zira" {
		t.Fatalf("unexpected voice order: %v", voices)
	}
}

func TestFallbackUnavailablePrimary(t *testing.T) {
	primary, fallback := newStubPair()
	primary.available = false
	f := NewFallbackEngine(primary, fallback, 3)

	if _, err := f.Synthesize(context.Background(), "hello", "Paul"); err != nil {
		t.Fatal(err)
	}
	if len(primary.calls) != 0 || len(fallback.calls) != 1 {
		t.Fatal("unavailable primary should route everything to the fallback")
	}
	if !f.Available() {
		t.Fatal("engine should report available while the fallback works")
	}
	if f.Info().Name != "fallback" {
		t.Fatalf("Info should reflect the fallback, got %q", f.Info().Name)
	}
}
