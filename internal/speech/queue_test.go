package speech

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huskievoice/chatvox/internal/tts"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	for _, text := range []string{"one", "two", "three"} {
		if err := q.Enqueue(&Request{Username: "a", Text: text}); err != nil {
			t.Fatal(err)
		}
	}

	for _, want := range []string{"one", "two", "three"} {
		req, err := q.Dequeue(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if req.Text != want {
			t.Errorf("Dequeue() = %q, want %q", req.Text, want)
		}
		if req.ID == "" {
			t.Error("request should have an assigned ID")
		}
	}
}

func TestQueuePushFront(t *testing.T) {
	q := NewQueue()
	q.Enqueue(&Request{Text: "backlog one"})
	q.Enqueue(&Request{Text: "backlog two"})
	q.PushFront(&Request{Text: "announcement", Announcement: true})

	req, _ := q.Dequeue(context.Background())
	if req.Text != "announcement" {
		t.Errorf("front = %q, want the announcement", req.Text)
	}
	req, _ = q.Dequeue(context.Background())
	if req.Text != "backlog one" {
		t.Errorf("next = %q, want backlog order preserved", req.Text)
	}
}

func TestQueuePurgeUser(t *testing.T) {
	q := NewQueue()
	q.Enqueue(&Request{Username: "spammer", Text: "a"})
	q.Enqueue(&Request{Username: "fine", Text: "b"})
	q.Enqueue(&Request{Username: "spammer", Text: "c"})
	q.PushFront(&Request{Username: "spammer", Text: "sys", Announcement: true})

	if n := q.PurgeUser("spammer"); n != 2 {
		t.Errorf("PurgeUser() = %d, want 2", n)
	}
	if q.Len() != 2 {
		t.Errorf("Len() = %d, want announcement and fine user kept", q.Len())
	}

	req, _ := q.Dequeue(context.Background())
	if !req.Announcement {
		t.Error("announcements must survive a purge")
	}
}

func TestQueueClear(t *testing.T) {
	q := NewQueue()
	q.Enqueue(&Request{Text: "a"})
	q.Enqueue(&Request{Text: "b"})

	if n := q.Clear(); n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after clear", q.Len())
	}
}

func TestQueueBlockingDequeue(t *testing.T) {
	q := NewQueue()
	got := make(chan *Request, 1)
	go func() {
		req, err := q.Dequeue(context.Background())
		if err != nil {
			t.Error(err)
		}
		got <- req
	}()

	time.Sleep(20 * time.Millisecond)
	q.Enqueue(&Request{Text: "late"})

	select {
	case req := <-got:
		if req.Text != "late" {
			t.Errorf("got %q", req.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue never woke")
	}
}

func TestQueueDequeueCancel(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Dequeue(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestQueueClose(t *testing.T) {
	q := NewQueue()
	q.Enqueue(&Request{Text: "drain me"})
	q.Close()

	if err := q.Enqueue(&Request{Text: "rejected"}); !errors.Is(err, tts.ErrQueueClosed) {
		t.Errorf("Enqueue after close = %v, want ErrQueueClosed", err)
	}

	// Queued items still drain.
	if req, err := q.Dequeue(context.Background()); err != nil || req.Text != "drain me" {
		t.Errorf("Dequeue = %v, %v", req, err)
	}
	if _, err := q.Dequeue(context.Background()); !errors.Is(err, tts.ErrQueueClosed) {
		t.Errorf("Dequeue on empty closed queue = %v, want ErrQueueClosed", err)
	}
}
