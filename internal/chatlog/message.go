// Package chatlog tails game chat logs and turns new lines into messages.
//
// Two log dialects are supported: the Source engine console log that
// Team Fortress 2 writes with con_logfile enabled, and the CSV chat log
// produced by the Deep Rock Galactic chat logging mod.
package chatlog

// Game identifies a supported log dialect.
type Game string

const (
	GameTF2 Game = "tf2"
	GameDRG Game = "drg"
)

// Message is one chat line attributed to a player.
type Message struct {
	Username  string
	Text      string
	SteamID   string // DRG only
	Timestamp string // DRG only
	Index     int    // DRG row index, -1 otherwise
	Dead      bool   // speaker was dead (*DEAD* marker)
	Team      bool   // team chat ((TEAM) marker)
	Game      Game
	Raw       string
}

// Parser extracts messages from raw log lines. Parsers may be stateful;
// the monitor calls them from a single goroutine.
type Parser interface {
	// Parse returns the message for a line, or false for lines that
	// carry no chat (kill feed, server output, already-seen rows).
	Parse(line string) (*Message, bool)
}
