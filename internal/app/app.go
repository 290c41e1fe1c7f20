// Package app wires the chat monitor, command pipeline, and speech
// worker into a running service.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/huskievoice/chatvox/internal/audio"
	"github.com/huskievoice/chatvox/internal/chatlog"
	"github.com/huskievoice/chatvox/internal/command"
	"github.com/huskievoice/chatvox/internal/roster"
	"github.com/huskievoice/chatvox/internal/speech"
	"github.com/huskievoice/chatvox/internal/tts"
	"github.com/huskievoice/chatvox/internal/tts/dectalk"
	"github.com/huskievoice/chatvox/internal/tts/mock"
	"github.com/huskievoice/chatvox/internal/tts/sapi"
	"github.com/huskievoice/chatvox/internal/voice"
)

// Config is everything the service needs to run one game session.
type Config struct {
	Game    chatlog.Game
	LogPath string

	Prefix        string
	ToggleTrigger string
	PrivateMode   bool

	Admins            []string
	AutoBlock         bool
	AutoBlockKeywords []string

	Engine       string // dectalk, sapi, mock, or auto
	DECtalkPath  string
	DefaultVoice string
	Volume       float64

	VoiceCommands    map[string]string
	RandomEnabled    bool
	RandomExclusions []string
	PrefsPath        string

	Announcements speech.AnnouncerConfig

	// CacheSize bounds the synthesis cache in bytes. Zero disables it.
	CacheSize int64

	// player overrides the audio device in tests.
	player speech.Player
}

// App owns the running pipeline.
type App struct {
	cfg        Config
	monitor    *chatlog.Monitor
	processor  *command.Processor
	dispatcher *speech.Dispatcher
	queue      *speech.Queue
	engine     tts.Engine
	player     speech.Player
}

// New builds the pipeline from config. Close releases the audio device
// and engines.
func New(cfg Config) (*App, error) {
	engine, err := buildEngine(cfg)
	if err != nil {
		return nil, err
	}

	player := cfg.player
	if player == nil {
		playerCfg := audio.DefaultPlayerConfig()
		if cfg.Volume > 0 {
			playerCfg.Volume = cfg.Volume
		}
		p, err := audio.NewPlayer(playerCfg)
		if err != nil {
			engine.Close()
			return nil, fmt.Errorf("open audio device: %w", err)
		}
		player = p
	}

	prefs, err := voice.LoadPrefs(cfg.PrefsPath)
	if err != nil {
		engine.Close()
		player.Close()
		return nil, err
	}
	registry := voice.NewRegistry(voice.Config{
		Commands:         cfg.VoiceCommands,
		DefaultVoice:     cfg.DefaultVoice,
		RandomEnabled:    cfg.RandomEnabled,
		RandomExclusions: cfg.RandomExclusions,
	}, engine.Voices(), prefs)

	mod := roster.New(cfg.Admins, cfg.AutoBlockKeywords)

	queue := speech.NewQueue()
	announcer := speech.NewAnnouncer(queue, cfg.Announcements)
	dispatcher := speech.NewDispatcher(queue, engine, player, registry, mod)

	processor := command.NewProcessor(command.Config{
		Prefix:        cfg.Prefix,
		ToggleTrigger: cfg.ToggleTrigger,
		PrivateMode:   cfg.PrivateMode,
		AutoBlock:     cfg.AutoBlock,
	}, &speechFacade{queue: queue, dispatcher: dispatcher, announcer: announcer}, mod, registry)

	var monitor *chatlog.Monitor
	switch cfg.Game {
	case chatlog.GameDRG:
		monitor = chatlog.NewCSVMonitor(cfg.LogPath, cfg.Prefix)
	default:
		monitor = chatlog.NewSourceMonitor(cfg.LogPath)
	}

	return &App{
		cfg:        cfg,
		monitor:    monitor,
		processor:  processor,
		dispatcher: dispatcher,
		queue:      queue,
		engine:     engine,
		player:     player,
	}, nil
}

// buildEngine picks the synthesis backend. The default is DECtalk with
// the system speech API as fallback, cached when configured.
func buildEngine(cfg Config) (tts.Engine, error) {
	switch cfg.Engine {
	case "mock":
		return mock.New(), nil
	case "dectalk":
		e := dectalk.New(dectalk.Config{BinaryPath: cfg.DECtalkPath})
		if !e.Available() {
			return nil, fmt.Errorf("%w: dectalk say binary not found", tts.ErrEngineNotAvailable)
		}
		return e, nil
	case "sapi":
		e := sapi.New(sapi.Config{})
		if !e.Available() {
			return nil, fmt.Errorf("%w: system speech API not usable on this host", tts.ErrEngineNotAvailable)
		}
		return e, nil
	default:
		primary := dectalk.New(dectalk.Config{BinaryPath: cfg.DECtalkPath})
		fallback := sapi.New(sapi.Config{})
		if !primary.Available() && !fallback.Available() {
			return nil, fmt.Errorf("%w: neither dectalk nor the system speech API is usable", tts.ErrEngineNotAvailable)
		}
		combined := tts.NewFallbackEngine(primary, fallback, 3)
		if cfg.CacheSize > 0 {
			combined = combined.WithCache(cfg.CacheSize)
		}
		return combined, nil
	}
}

// Run tails the log and speaks until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	log.Info("chatvox running",
		"game", a.cfg.Game, "log", a.cfg.LogPath, "prefix", a.cfg.Prefix)

	monitorDone := make(chan error, 1)
	go func() { monitorDone <- a.monitor.Run(ctx) }()

	workerDone := make(chan error, 1)
	go func() { workerDone <- a.dispatcher.Run(ctx) }()

	for {
		select {
		case <-ctx.Done():
			<-monitorDone
			a.queue.Close()
			<-workerDone
			return ctx.Err()
		case msg, ok := <-a.monitor.Messages():
			if !ok {
				a.queue.Close()
				<-workerDone
				return <-monitorDone
			}
			log.Debug("chat message", "user", msg.Username, "text", msg.Text)
			a.processor.Process(msg)
		}
	}
}

// Close releases the audio device and speech engines. Queued speech is
// dropped, not drained.
func (a *App) Close() error {
	a.dispatcher.StopAll()
	err := a.player.Close()
	if cerr := a.engine.Close(); err == nil {
		err = cerr
	}
	return err
}

// speechFacade narrows the queue, dispatcher, and announcer to the
// command pipeline's view of speech.
type speechFacade struct {
	queue      *speech.Queue
	dispatcher *speech.Dispatcher
	announcer  *speech.Announcer
}

func (s *speechFacade) Speak(username, text, voiceName string, usePreference bool) {
	err := s.queue.Enqueue(&speech.Request{
		Username:      username,
		Text:          text,
		Voice:         voiceName,
		UsePreference: usePreference,
	})
	if err != nil {
		log.Error("failed to queue speech", "user", username, "error", err)
	}
}

func (s *speechFacade) Announce(kind speech.Announcement, username string) {
	s.announcer.Announce(kind, username)
}

func (s *speechFacade) PurgeUser(username string) { s.dispatcher.PurgeUser(username) }
func (s *speechFacade) StopCurrent()              { s.dispatcher.StopCurrent() }
func (s *speechFacade) StopAll()                  { s.dispatcher.StopAll() }
func (s *speechFacade) SpeakingUser() string      { return s.dispatcher.SpeakingUser() }
