// Package speech queues chat messages and speaks them one at a time.
package speech

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/huskievoice/chatvox/internal/tts"
)

// Request is one utterance waiting to be spoken.
type Request struct {
	ID       string
	Username string
	Text     string
	// Voice is the explicit voice name, empty to let the dispatcher
	// resolve one.
	Voice string
	// UsePreference lets the dispatcher fall back to the user's saved
	// voice or a random assignment before the default.
	UsePreference bool
	// Announcement marks system speech, which skips the blocked check.
	Announcement bool
}

// Queue is a FIFO of speech requests. Announcements jump the line via
// PushFront so moderation feedback is heard before the backlog.
type Queue struct {
	mu     sync.Mutex
	items  []*Request
	wake   chan struct{}
	closed bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Enqueue appends a request, assigning it an ID.
func (q *Queue) Enqueue(req *Request) error {
	return q.add(req, false)
}

// PushFront inserts a request ahead of everything queued.
func (q *Queue) PushFront(req *Request) error {
	return q.add(req, true)
}

func (q *Queue) add(req *Request, front bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return tts.ErrQueueClosed
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if front {
		q.items = append([]*Request{req}, q.items...)
	} else {
		q.items = append(q.items, req)
	}
	q.signal()
	return nil
}

// Dequeue blocks until a request is available or ctx is canceled.
func (q *Queue) Dequeue(ctx context.Context) (*Request, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			req := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return req, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, tts.ErrQueueClosed
		}
		wake := q.wake
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wake:
		}
	}
}

// PurgeUser drops every queued request from a user and returns how many
// were removed.
func (q *Queue) PurgeUser(username string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.items[:0]
	removed := 0
	for _, req := range q.items {
		if req.Username == username && !req.Announcement {
			removed++
			continue
		}
		kept = append(kept, req)
	}
	q.items = kept
	return removed
}

// Clear drops everything queued and returns how many were removed.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	return n
}

// Len returns the number of queued requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close rejects further requests and unblocks Dequeue once the queue
// drains.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.signal()
}

// signal wakes one Dequeue waiter. Callers hold q.mu.
func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
