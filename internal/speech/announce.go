package speech

import "github.com/charmbracelet/log"

// AnnouncementUser attributes system speech in the queue.
const AnnouncementUser = "__announcement__"

// Announcement identifies a moderation event spoken to the lobby.
type Announcement string

const (
	AnnounceAdminAdd    Announcement = "admin_add"
	AnnounceBlockAdd    Announcement = "block_add"
	AnnounceBlockRemove Announcement = "block_remove"
	AnnounceAutoblock   Announcement = "autoblock"
	AnnounceStopped     Announcement = "stopped"
)

// DefaultTemplates are the spoken suffixes for each event. The username
// is prepended, so "mallory" plus the block template reads "mallory
// blocked, you abused it so you losed it".
var DefaultTemplates = map[Announcement]string{
	AnnounceAdminAdd:    "is now an admin",
	AnnounceBlockAdd:    "blocked, you abused it so you losed it",
	AnnounceBlockRemove: "has been unblocked",
	AnnounceAutoblock:   "blocked, you can't say that",
	AnnounceStopped:     "TTS stopped by admin",
}

// AnnouncerConfig configures announcement speech.
type AnnouncerConfig struct {
	// Voice speaks every announcement. Empty uses the default voice.
	Voice string
	// Templates overrides DefaultTemplates per event.
	Templates map[Announcement]string
	// Disabled lists events that stay silent.
	Disabled []Announcement
}

// Announcer front-queues templated moderation announcements.
type Announcer struct {
	queue     *Queue
	voice     string
	templates map[Announcement]string
	disabled  map[Announcement]bool
}

// NewAnnouncer creates an announcer feeding the given queue.
func NewAnnouncer(queue *Queue, cfg AnnouncerConfig) *Announcer {
	a := &Announcer{
		queue:     queue,
		voice:     cfg.Voice,
		templates: map[Announcement]string{},
		disabled:  map[Announcement]bool{},
	}
	for kind, text := range DefaultTemplates {
		a.templates[kind] = text
	}
	for kind, text := range cfg.Templates {
		a.templates[kind] = text
	}
	for _, kind := range cfg.Disabled {
		a.disabled[kind] = true
	}
	return a
}

// Announce queues the event at the front of the line. Disabled or
// empty-template events are dropped.
func (a *Announcer) Announce(kind Announcement, username string) {
	if a.disabled[kind] {
		log.Debug("announcement disabled", "kind", kind)
		return
	}
	text := a.templates[kind]
	if text == "" {
		return
	}
	if username != "" {
		text = username + " " + text
	}
	err := a.queue.PushFront(&Request{
		Username:     AnnouncementUser,
		Text:         text,
		Voice:        a.voice,
		Announcement: true,
	})
	if err != nil {
		log.Error("failed to queue announcement", "kind", kind, "error", err)
	}
}
