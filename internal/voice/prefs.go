package voice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Prefs persists username to voice-name mappings in a flat YAML file.
type Prefs struct {
	mu    sync.Mutex
	path  string
	users map[string]string
}

// LoadPrefs reads the preference file, creating an empty store when the
// file does not exist yet.
func LoadPrefs(path string) (*Prefs, error) {
	p := &Prefs{path: path, users: map[string]string{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read voice preferences: %w", err)
	}
	if err := yaml.Unmarshal(data, &p.users); err != nil {
		return nil, fmt.Errorf("parse voice preferences: %w", err)
	}
	if p.users == nil {
		p.users = map[string]string{}
	}
	return p, nil
}

// Get returns the saved voice for a user.
func (p *Prefs) Get(username string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.users[username]
	return v, ok
}

// Set saves a user's voice and writes the file.
func (p *Prefs) Set(username, voiceName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[username] = voiceName
	return p.flush()
}

// Delete removes a user's preference and writes the file.
func (p *Prefs) Delete(username string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.users[username]; !ok {
		return nil
	}
	delete(p.users, username)
	return p.flush()
}

// All returns a copy of every saved preference.
func (p *Prefs) All() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string, len(p.users))
	for k, v := range p.users {
		out[k] = v
	}
	return out
}

// flush writes the store. Callers hold p.mu.
func (p *Prefs) flush() error {
	if p.path == "" {
		return nil
	}
	data, err := yaml.Marshal(p.users)
	if err != nil {
		return fmt.Errorf("marshal voice preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return fmt.Errorf("write voice preferences: %w", err)
	}
	return nil
}
