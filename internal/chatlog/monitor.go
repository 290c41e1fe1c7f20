package chatlog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Monitor tails a chat log and emits parsed messages. The file is
// polled on an interval and additionally read immediately when fsnotify
// reports a write, which keeps latency low without busy-reading.
type Monitor struct {
	path     string
	parser   Parser
	interval time.Duration

	// startAtEOF skips history present before the monitor starts.
	startAtEOF bool
	// onTruncate runs when the file shrinks below the saved offset,
	// before reading restarts from the top.
	onTruncate func()

	offset  int64
	partial []byte

	out             chan *Message
	reportedMissing bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// NewSourceMonitor tails a Source engine console log. Reading starts at
// the end of the file so old sessions are not replayed.
func NewSourceMonitor(path string, opts ...Option) *Monitor {
	m := &Monitor{
		path:       path,
		parser:     NewSourceParser(),
		interval:   100 * time.Millisecond,
		startAtEOF: true,
		out:        make(chan *Message, 64),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewCSVMonitor tails a Deep Rock Galactic chat log. Existing rows are
// scanned for the resume index so restarts do not replay them.
func NewCSVMonitor(path, prefix string, opts ...Option) *Monitor {
	parser := NewCSVParser(prefix)
	if f, err := os.Open(path); err == nil {
		parser.Resume(f)
		f.Close()
	}
	m := &Monitor{
		path:       path,
		parser:     parser,
		interval:   500 * time.Millisecond,
		startAtEOF: true,
		onTruncate: parser.Reset,
		out:        make(chan *Message, 64),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Messages returns the channel of parsed chat messages. It is closed
// when Run returns.
func (m *Monitor) Messages() <-chan *Message {
	return m.out
}

// Run tails the file until ctx is canceled. A missing file is reported
// once and waited for; the game may not have created it yet.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.out)

	if m.startAtEOF {
		if info, err := os.Stat(m.path); err == nil {
			m.offset = info.Size()
		}
	}

	wake := make(chan struct{}, 1)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error("error creating fsnotify watcher", "error", err)
	} else {
		defer watcher.Close()
		dir := filepath.Dir(m.path)
		if err := watcher.Add(dir); err != nil {
			log.Error("error adding dir to fsnotify watcher", "dir", dir, "error", err)
		} else {
			log.Debug("fsnotify watching dir", "dir", dir)
			go m.forwardEvents(ctx, watcher, wake)
		}
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if err := m.poll(ctx); err != nil {
			log.Error("log poll failed", "path", m.path, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-wake:
		}
	}
}

// forwardEvents collapses write events for the watched file into wakeups.
func (m *Monitor) forwardEvents(ctx context.Context, watcher *fsnotify.Watcher, wake chan<- struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != m.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			select {
			case wake <- struct{}{}:
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Debug("fsnotify error", "error", err)
		}
	}
}

// poll reads newly appended bytes and emits complete lines.
func (m *Monitor) poll(ctx context.Context) error {
	f, err := os.Open(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if !m.reportedMissing {
				m.reportedMissing = true
				log.Warn("chat log not found, waiting for the game to create it", "path", m.path)
			}
			return nil
		}
		return err
	}
	defer f.Close()

	if m.reportedMissing {
		m.reportedMissing = false
		log.Info("chat log appeared", "path", m.path)
	}

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() < m.offset {
		log.Info("chat log truncated, restarting from the top", "path", m.path)
		m.offset = 0
		m.partial = nil
		if m.onTruncate != nil {
			m.onTruncate()
		}
	}

	if _, err := f.Seek(m.offset, io.SeekStart); err != nil {
		return err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	m.offset += int64(len(data))

	// Hold back a trailing partial line until its newline arrives.
	buf := append(m.partial, data...)
	for {
		nl := bytes.IndexByte(buf, '\n')
		if nl < 0 {
			break
		}
		line := string(bytes.TrimRight(buf[:nl], "\r"))
		buf = buf[nl+1:]

		msg, ok := m.parser.Parse(line)
		if !ok {
			continue
		}
		select {
		case m.out <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.partial = append([]byte(nil), buf...)

	return nil
}
