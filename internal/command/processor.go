// Package command interprets chat messages: moderation commands, the
// TTS trigger, and voice-switching commands.
package command

import (
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/huskievoice/chatvox/internal/chatlog"
	"github.com/huskievoice/chatvox/internal/speech"
)

// Speech is the slice of the dispatcher the processor drives.
type Speech interface {
	Speak(username, text, voice string, usePreference bool)
	Announce(kind speech.Announcement, username string)
	PurgeUser(username string)
	StopCurrent()
	StopAll()
	SpeakingUser() string
}

// Moderation is the roster surface the processor needs.
type Moderation interface {
	IsAdmin(username string) bool
	IsBlocked(username string) bool
	Block(username string)
	UnblockLast() (string, bool)
	AddAdmin(username string)
	MatchKeyword(text string) (string, bool)
}

// VoiceTable maps command tokens to voices and stores preferences.
type VoiceTable interface {
	Lookup(token string) (string, bool)
	SetPreferred(username, voiceName string) error
}

// Config contains processor settings.
type Config struct {
	// Prefix triggers speech, e.g. "!tts".
	Prefix string
	// ToggleTrigger persists a voice choice, e.g. "/vt".
	ToggleTrigger string
	// PrivateMode restricts speech to admins.
	PrivateMode bool
	// AutoBlock enables keyword-based blocking.
	AutoBlock bool
}

// Processor runs each chat message through the moderation and speech
// pipeline. One instance handles one game's log.
type Processor struct {
	cfg    Config
	speech Speech
	mod    Moderation
	voices VoiceTable

	toggleRe *regexp.Regexp

	mu          sync.Mutex
	lastSpeaker string
}

var (
	slashNumRe     = regexp.MustCompile(`^/v\s+(\d+)(?:\s+(.*))?$`)
	slashTriggerRe = regexp.MustCompile(`^/([a-zA-Z0-9_]+)(?:\s+(.*))?$`)
	legacyDigitRe  = regexp.MustCompile(`^v \d`)
)

// NewProcessor wires the pipeline.
func NewProcessor(cfg Config, sp Speech, mod Moderation, voices VoiceTable) *Processor {
	if cfg.Prefix == "" {
		cfg.Prefix = "!tts"
	}
	if cfg.ToggleTrigger == "" {
		cfg.ToggleTrigger = "/vt"
	}
	return &Processor{
		cfg:      cfg,
		speech:   sp,
		mod:      mod,
		voices:   voices,
		toggleRe: regexp.MustCompile(`^` + regexp.QuoteMeta(cfg.ToggleTrigger) + `\s+(\d+)(?:\s+(.*))?$`),
	}
}

// Process runs one message through the pipeline. Order matters:
// blocked drop, auto-block scan, admin commands, the TTS trigger, then
// bare voice commands. Anything else stays silent.
func (p *Processor) Process(msg *chatlog.Message) {
	if p.mod.IsBlocked(msg.Username) {
		log.Info("dropping message from blocked user", "user", msg.Username)
		return
	}

	if p.cfg.AutoBlock {
		if keyword, hit := p.mod.MatchKeyword(msg.Text); hit {
			log.Info("auto-blocking user", "user", msg.Username, "keyword", keyword)
			p.mod.Block(msg.Username)
			p.speech.PurgeUser(msg.Username)
			p.speech.Announce(speech.AnnounceAutoblock, msg.Username)
			return
		}
	}

	text := strings.TrimSpace(msg.Text)
	lower := strings.ToLower(text)

	if p.handleAdminCommand(msg.Username, lower) {
		return
	}

	trigger := p.cfg.Prefix + " "
	if strings.HasPrefix(text, trigger) {
		payload := strings.TrimSpace(text[len(trigger):])
		if p.cfg.PrivateMode && !p.mod.IsAdmin(msg.Username) {
			log.Info("private mode, ignoring non-admin", "user", msg.Username)
			return
		}
		if payload == "" {
			return
		}
		if isVoiceCommandPayload(payload) {
			p.voiceCommand(msg.Username, payload)
		} else {
			p.speech.Speak(msg.Username, payload, "", true)
		}
		p.setLastSpeaker(msg.Username)
		return
	}

	if p.cfg.PrivateMode && !p.mod.IsAdmin(msg.Username) {
		return
	}

	if p.isBareVoiceCommand(text) {
		p.voiceCommand(msg.Username, text)
	}
}

// handleAdminCommand processes exact-match moderation commands and
// reports whether the message was one. Non-admin attempts are dropped
// either way.
func (p *Processor) handleAdminCommand(username, lower string) bool {
	isAdmin := func() bool {
		if p.mod.IsAdmin(username) {
			return true
		}
		log.Info("ignoring admin command from non-admin", "user", username, "command", lower)
		return false
	}

	switch lower {
	case strings.ToLower(p.cfg.Prefix) + " stop":
		if isAdmin() {
			p.speech.StopCurrent()
		}
		return true

	case "!stop":
		if isAdmin() {
			log.Info("admin stopped all speech", "admin", username)
			p.speech.StopAll()
			p.speech.Announce(speech.AnnounceStopped, "")
		}
		return true

	case "!block", "!block add":
		if isAdmin() {
			target := p.speech.SpeakingUser()
			if target == "" || target == speech.AnnouncementUser {
				target = p.getLastSpeaker()
			}
			if target == "" || target == username {
				log.Info("no valid user to block")
				return true
			}
			p.mod.Block(target)
			p.speech.PurgeUser(target)
			p.speech.Announce(speech.AnnounceBlockAdd, target)
		}
		return true

	case "!block clear":
		if isAdmin() {
			if name, ok := p.mod.UnblockLast(); ok {
				p.speech.Announce(speech.AnnounceBlockRemove, name)
			} else {
				log.Info("block list is already empty")
			}
		}
		return true

	case "!admin add":
		if isAdmin() {
			target := p.getLastSpeaker()
			if target == "" || target == username {
				log.Info("no valid last speaker to promote")
				return true
			}
			p.mod.AddAdmin(target)
			p.speech.Announce(speech.AnnounceAdminAdd, target)
		}
		return true
	}
	return false
}

// isVoiceCommandPayload reports whether a TTS payload should go
// through voice-command parsing instead of being spoken verbatim.
func isVoiceCommandPayload(payload string) bool {
	return strings.HasPrefix(payload, "/") || strings.HasPrefix(payload, "v ")
}

// isBareVoiceCommand reports whether a message without the TTS prefix
// is still a voice command. Unknown slash commands are not; they stay
// silent rather than being spoken at strangers.
func (p *Processor) isBareVoiceCommand(text string) bool {
	if slashNumRe.MatchString(text) {
		return true
	}
	if m := slashTriggerRe.FindStringSubmatch(text); m != nil {
		trigger := m[1]
		if _, ok := p.voices.Lookup(trigger); ok {
			return true
		}
		return isLegacyNumeric(trigger)
	}
	if strings.HasPrefix(text, "/") {
		return false
	}
	if legacyDigitRe.MatchString(text) {
		return true
	}
	first, _, _ := strings.Cut(text, " ")
	_, ok := p.voices.Lookup(first)
	return ok
}

// voiceCommand parses and executes one voice command. The grammar:
//
//	/vt <n> [text]   persist voice n as the user's preference
//	/v <n> [text]    speak once with voice n
//	/<trigger> [text] named trigger from the command table
//	/v<n> [text]     legacy compact form
//	v <n> [text]     legacy form without the slash
//	<trigger> [text] bare trigger
//
// Unmapped numeric commands speak the text with the default voice; an
// unknown trigger speaks the whole message as-is.
func (p *Processor) voiceCommand(username, message string) {
	if strings.HasPrefix(message, "/") {
		if p.toggleCommand(username, message) {
			return
		}
		if m := slashNumRe.FindStringSubmatch(message); m != nil {
			p.speakMapped(username, "v "+m[1], strings.TrimSpace(m[2]))
			return
		}
		if m := slashTriggerRe.FindStringSubmatch(message); m != nil {
			trigger, text := m[1], strings.TrimSpace(m[2])
			if _, ok := p.voices.Lookup(trigger); ok {
				p.speakMapped(username, trigger, text)
				return
			}
			if isLegacyNumeric(trigger) {
				p.speakMapped(username, "v "+trigger[1:], text)
				return
			}
			log.Warn("unknown voice command trigger", "trigger", trigger)
			p.speech.Speak(username, message, "", true)
			return
		}
		// Slash but nothing command-shaped.
		p.speech.Speak(username, message, "", true)
		return
	}

	if legacyDigitRe.MatchString(message) {
		parts := strings.SplitN(message, " ", 3)
		text := ""
		if len(parts) > 2 {
			text = strings.TrimSpace(parts[2])
		}
		p.speakMapped(username, "v "+parts[1], text)
		return
	}

	first, rest, _ := strings.Cut(message, " ")
	if _, ok := p.voices.Lookup(first); ok {
		p.speakMapped(username, first, strings.TrimSpace(rest))
		return
	}
	p.speech.Speak(username, message, "", true)
}

// toggleCommand handles the preference-setting trigger. Returns false
// when the message is not a toggle command.
func (p *Processor) toggleCommand(username, message string) bool {
	m := p.toggleRe.FindStringSubmatch(message)
	if m == nil {
		return false
	}
	token := "v " + m[1]
	text := strings.TrimSpace(m[2])

	voiceName, ok := p.voices.Lookup(token)
	if !ok {
		log.Warn("voice toggle for unmapped command", "token", token)
		if text != "" {
			p.speech.Speak(username, text, "", true)
		}
		return true
	}
	if err := p.voices.SetPreferred(username, voiceName); err != nil {
		log.Error("failed to save voice preference", "user", username, "error", err)
	} else {
		log.Info("saved voice preference", "user", username, "voice", voiceName)
	}
	if text != "" {
		p.speech.Speak(username, text, voiceName, false)
	}
	return true
}

// speakMapped speaks text with the voice bound to token. Unmapped
// tokens fall back to the default voice; empty text speaks nothing.
func (p *Processor) speakMapped(username, token, text string) {
	if text == "" {
		return
	}
	if voiceName, ok := p.voices.Lookup(token); ok {
		p.speech.Speak(username, text, voiceName, false)
		return
	}
	log.Warn("voice command not configured", "token", token)
	p.speech.Speak(username, text, "", true)
}

// isLegacyNumeric matches the compact v<digits> trigger form.
func isLegacyNumeric(trigger string) bool {
	if len(trigger) < 2 || trigger[0] != 'v' {
		return false
	}
	for _, r := range trigger[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (p *Processor) setLastSpeaker(username string) {
	p.mu.Lock()
	p.lastSpeaker = username
	p.mu.Unlock()
}

func (p *Processor) getLastSpeaker() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSpeaker
}
