package chatlog

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// CSVParser reads the Deep Rock Galactic mod's chat log. Rows have the
// shape
//
//	index,timestamp,steamid,username,message
//
// where index increases monotonically. The mod logs every chat line, so
// rows that do not start with the TTS prefix are skipped here rather
// than downstream.
type CSVParser struct {
	prefix    string
	lastIndex int
}

// NewCSVParser creates a parser emitting only rows whose message starts
// with prefix (typically "!tts").
func NewCSVParser(prefix string) *CSVParser {
	return &CSVParser{prefix: strings.ToLower(prefix), lastIndex: -1}
}

// Resume scans an existing log so restarts do not replay old rows. It
// records the highest index seen without emitting anything.
func (p *CSVParser) Resume(r io.Reader) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	for {
		row, err := reader.Read()
		if err != nil {
			if err != io.EOF {
				log.Debug("csv resume scan stopped", "error", err)
			}
			return
		}
		if len(row) > 0 {
			if idx, err := strconv.Atoi(row[0]); err == nil && idx > p.lastIndex {
				p.lastIndex = idx
			}
		}
	}
}

// Reset forgets the resume index. Called after log truncation, when the
// mod starts numbering from zero again.
func (p *CSVParser) Reset() {
	p.lastIndex = -1
}

// LastIndex returns the highest row index processed so far.
func (p *CSVParser) LastIndex() int {
	return p.lastIndex
}

// Parse extracts a chat message from one CSV row.
func (p *CSVParser) Parse(line string) (*Message, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}

	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	row, err := reader.Read()
	if err != nil || len(row) < 5 {
		return nil, false
	}

	idx, err := strconv.Atoi(row[0])
	if err != nil {
		return nil, false
	}
	if idx <= p.lastIndex {
		return nil, false
	}
	p.lastIndex = idx

	text := row[4]
	if p.prefix != "" && !strings.HasPrefix(strings.ToLower(text), p.prefix+" ") {
		return nil, false
	}

	return &Message{
		Username:  row[3],
		Text:      text,
		SteamID:   row[2],
		Timestamp: row[1],
		Index:     idx,
		Game:      GameDRG,
		Raw:       line,
	}, true
}
