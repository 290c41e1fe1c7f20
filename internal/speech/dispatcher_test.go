package speech

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/huskievoice/chatvox/internal/audio"
	"github.com/huskievoice/chatvox/internal/tts"
	"github.com/huskievoice/chatvox/internal/tts/mock"
)

type fakeVoices struct {
	def    string
	prefs  map[string]string
	random string
}

func (f *fakeVoices) Resolve(name string) (tts.Voice, bool) {
	if strings.HasPrefix(name, "missing") {
		return tts.Voice{}, false
	}
	return tts.Voice{ID: name, Name: name, Backend: "mock"}, true
}

func (f *fakeVoices) DefaultVoice() string { return f.def }

func (f *fakeVoices) Preferred(username string) (string, bool) {
	v, ok := f.prefs[username]
	return v, ok
}

func (f *fakeVoices) AssignRandom(username string) (string, bool) {
	return f.random, f.random != ""
}

type fakeBlocklist map[string]bool

func (f fakeBlocklist) IsBlocked(u string) bool { return f[u] }

func newTestDispatcher(voices *fakeVoices, blocked fakeBlocklist) (*Dispatcher, *Queue, *mock.Engine, *audio.MockPlayer) {
	q := NewQueue()
	engine := mock.New()
	player := audio.NewMockPlayer()
	player.PlayDelay = time.Millisecond
	d := NewDispatcher(q, engine, player, voices, blocked)
	return d, q, engine, player
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition never met")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDispatcherSpeaksInOrder(t *testing.T) {
	voices := &fakeVoices{def: "Default Voice"}
	d, q, engine, _ := newTestDispatcher(voices, fakeBlocklist{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	q.Enqueue(&Request{Username: "a", Text: "first"})
	q.Enqueue(&Request{Username: "b", Text: "second"})

	waitFor(t, func() bool { return len(engine.Calls()) == 2 })
	calls := engine.Calls()
	if calls[0].Text != "first" || calls[1].Text != "second" {
		t.Errorf("order = %q, %q", calls[0].Text, calls[1].Text)
	}
}

func TestDispatcherVoicePrecedence(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		fv   fakeVoices
		want string
	}{
		{
			name: "explicit voice wins",
			req:  Request{Username: "a", Text: "t", Voice: "Chosen", UsePreference: true},
			fv:   fakeVoices{def: "Def", prefs: map[string]string{"a": "Pref"}},
			want: "Chosen",
		},
		{
			name: "preference next",
			req:  Request{Username: "a", Text: "t", UsePreference: true},
			fv:   fakeVoices{def: "Def", prefs: map[string]string{"a": "Pref"}, random: "Rand"},
			want: "Pref",
		},
		{
			name: "random for new users",
			req:  Request{Username: "new", Text: "t", UsePreference: true},
			fv:   fakeVoices{def: "Def", prefs: map[string]string{}, random: "Rand"},
			want: "Rand",
		},
		{
			name: "default last",
			req:  Request{Username: "new", Text: "t", UsePreference: true},
			fv:   fakeVoices{def: "Def", prefs: map[string]string{}},
			want: "Def",
		},
		{
			name: "no preference lookup without flag",
			req:  Request{Username: "a", Text: "t"},
			fv:   fakeVoices{def: "Def", prefs: map[string]string{"a": "Pref"}},
			want: "Def",
		},
		{
			name: "unresolvable falls back to default",
			req:  Request{Username: "a", Text: "t", Voice: "missing voice"},
			fv:   fakeVoices{def: "Def"},
			want: "Def",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv := tt.fv
			d, q, engine, _ := newTestDispatcher(&fv, fakeBlocklist{})
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go d.Run(ctx)

			req := tt.req
			q.Enqueue(&req)

			waitFor(t, func() bool { return len(engine.Calls()) == 1 })
			if got := engine.Calls()[0].Voice; got != tt.want {
				t.Errorf("voice = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDispatcherBlockedRecheck(t *testing.T) {
	voices := &fakeVoices{def: "Def"}
	blocked := fakeBlocklist{"griefer": true}
	d, q, engine, _ := newTestDispatcher(voices, blocked)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	q.Enqueue(&Request{Username: "griefer", Text: "should not speak"})
	q.Enqueue(&Request{Username: "ok", Text: "should speak"})

	waitFor(t, func() bool { return len(engine.Calls()) == 1 })
	if got := engine.Calls()[0].Text; got != "should speak" {
		t.Errorf("spoke %q, want the unblocked user's message", got)
	}
}

func TestDispatcherAnnouncementSkipsBlockCheck(t *testing.T) {
	voices := &fakeVoices{def: "Def"}
	blocked := fakeBlocklist{AnnouncementUser: true}
	d, q, engine, _ := newTestDispatcher(voices, blocked)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	q.Enqueue(&Request{Username: AnnouncementUser, Text: "sys", Announcement: true})

	waitFor(t, func() bool { return len(engine.Calls()) == 1 })
}

func TestDispatcherPurgeUser(t *testing.T) {
	voices := &fakeVoices{def: "Def"}
	d, q, engine, player := newTestDispatcher(voices, fakeBlocklist{})
	engine.SetDelay(5 * time.Millisecond)
	player.PlayDelay = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	q.Enqueue(&Request{Username: "spammer", Text: "long speech"})
	q.Enqueue(&Request{Username: "spammer", Text: "queued"})

	waitFor(t, func() bool { return d.SpeakingUser() == "spammer" })
	d.PurgeUser("spammer")

	waitFor(t, func() bool { return d.SpeakingUser() == "" })
	if q.Len() != 0 {
		t.Errorf("queue len = %d, want purged", q.Len())
	}
	// Only the interrupted message reached the engine.
	if n := len(engine.Calls()); n != 1 {
		t.Errorf("engine calls = %d, want 1", n)
	}
}

func TestDispatcherStopAll(t *testing.T) {
	voices := &fakeVoices{def: "Def"}
	d, q, _, player := newTestDispatcher(voices, fakeBlocklist{})
	player.PlayDelay = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	q.Enqueue(&Request{Username: "a", Text: "speaking"})
	q.Enqueue(&Request{Username: "b", Text: "waiting"})
	q.Enqueue(&Request{Username: "c", Text: "waiting too"})

	waitFor(t, func() bool { return d.SpeakingUser() == "a" })
	d.StopAll()

	waitFor(t, func() bool { return d.SpeakingUser() == "" })
	if q.Len() != 0 {
		t.Errorf("queue len = %d, want 0 after StopAll", q.Len())
	}
}

func TestDispatcherSynthesisFailureDropsMessage(t *testing.T) {
	voices := &fakeVoices{def: "Def"}
	d, q, engine, player := newTestDispatcher(voices, fakeBlocklist{})
	engine.SetFailure(tts.ErrSynthesisFailed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	q.Enqueue(&Request{Username: "a", Text: "doomed"})

	waitFor(t, func() bool { return len(engine.Calls()) == 1 })
	time.Sleep(20 * time.Millisecond)
	if len(player.Played()) != 0 {
		t.Error("failed synthesis must not reach the player")
	}
}
