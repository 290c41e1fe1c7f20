package chatlog

import "strings"

// SourceParser reads Source engine console logs. Chat lines look like
//
//	*DEAD*(TEAM) "PlayerName" : message text
//
// with the dead and team markers optional and the quotes sometimes
// absent on older builds.
type SourceParser struct{}

// NewSourceParser creates a parser for Source engine console logs.
func NewSourceParser() *SourceParser { return &SourceParser{} }

// Parse extracts a chat message from a console line.
func (p *SourceParser) Parse(line string) (*Message, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}

	dead := strings.Contains(line, "*DEAD*")
	team := strings.Contains(line, "(TEAM)")

	clean := strings.ReplaceAll(line, "*DEAD*", "")
	clean = strings.ReplaceAll(clean, "(TEAM)", "")
	clean = strings.TrimSpace(clean)

	// The separator is chat-specific; console noise never contains it.
	name, text, found := strings.Cut(clean, " : ")
	if !found {
		return nil, false
	}
	name = strings.Trim(strings.TrimSpace(name), `"`)
	text = strings.TrimSpace(text)
	if name == "" || text == "" {
		return nil, false
	}

	return &Message{
		Username: name,
		Text:     text,
		Index:    -1,
		Dead:     dead,
		Team:     team,
		Game:     GameTF2,
		Raw:      line,
	}, true
}
