// Package roster tracks admins and blocked users for a session.
//
// The block list starts empty and is not persisted; per-session
// moderation keeps a griefer from staying blocked across restarts
// when nobody intended that.
package roster

import (
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Roster holds the admin and block lists. All methods are safe for
// concurrent use.
type Roster struct {
	mu sync.RWMutex

	admins map[string]bool
	// blocked preserves insertion order so UnblockLast can undo the
	// most recent block.
	blocked      []string
	blockedIndex map[string]bool

	keywords []string
}

// New creates a roster seeded with the configured admins and
// auto-block keywords.
func New(admins, keywords []string) *Roster {
	r := &Roster{
		admins:       map[string]bool{},
		blockedIndex: map[string]bool{},
	}
	for _, a := range admins {
		if a = strings.TrimSpace(a); a != "" {
			r.admins[a] = true
		}
	}
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			r.keywords = append(r.keywords, strings.ToLower(k))
		}
	}
	return r
}

// IsAdmin reports whether the user is an admin. Exact match.
func (r *Roster) IsAdmin(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.admins[username]
}

// AddAdmin promotes a user.
func (r *Roster) AddAdmin(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.admins[username] {
		return
	}
	r.admins[username] = true
	log.Info("admin added", "user", username)
}

// RemoveAdmin demotes a user.
func (r *Roster) RemoveAdmin(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.admins, username)
}

// Admins returns the admin usernames.
func (r *Roster) Admins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.admins))
	for a := range r.admins {
		out = append(out, a)
	}
	return out
}

// IsBlocked reports whether the user is blocked. Exact match.
func (r *Roster) IsBlocked(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.blockedIndex[username]
}

// Block adds a user to the block list.
func (r *Roster) Block(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.blockedIndex[username] {
		return
	}
	r.blockedIndex[username] = true
	r.blocked = append(r.blocked, username)
	log.Info("user blocked", "user", username)
}

// UnblockLast removes the most recently blocked user and returns their
// name. Returns false when the list is empty.
func (r *Roster) UnblockLast() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.blocked) == 0 {
		return "", false
	}
	last := r.blocked[len(r.blocked)-1]
	r.blocked = r.blocked[:len(r.blocked)-1]
	delete(r.blockedIndex, last)
	log.Info("user unblocked", "user", last)
	return last, true
}

// Blocked returns the blocked usernames in block order.
func (r *Roster) Blocked() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.blocked))
	copy(out, r.blocked)
	return out
}

// MatchKeyword scans a message for auto-block keywords and returns the
// first hit. Case-insensitive substring match.
func (r *Roster) MatchKeyword(text string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lower := strings.ToLower(text)
	for _, k := range r.keywords {
		if strings.Contains(lower, k) {
			return k, true
		}
	}
	return "", false
}
