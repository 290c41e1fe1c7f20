package chatlog

import "testing"

func TestSourceParser(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantUser string
		wantText string
		wantDead bool
		wantTeam bool
		wantOK   bool
	}{
		{
			name:     "plain chat",
			line:     `"Scout Main" : !tts hello everyone`,
			wantUser: "Scout Main",
			wantText: "!tts hello everyone",
			wantOK:   true,
		},
		{
			name:     "dead marker",
			line:     `*DEAD* "sniper" : !tts got me`,
			wantUser: "sniper",
			wantText: "!tts got me",
			wantDead: true,
			wantOK:   true,
		},
		{
			name:     "team chat",
			line:     `(TEAM) "medic" : need a dispenser here`,
			wantUser: "medic",
			wantText: "need a dispenser here",
			wantTeam: true,
			wantOK:   true,
		},
		{
			name:     "dead team chat",
			line:     `*DEAD*(TEAM) "heavy" : !tts sandvich`,
			wantUser: "heavy",
			wantText: "!tts sandvich",
			wantDead: true,
			wantTeam: true,
			wantOK:   true,
		},
		{
			name:     "unquoted name",
			line:     `oldclient : hello`,
			wantUser: "oldclient",
			wantText: "hello",
			wantOK:   true,
		},
		{
			name:     "colon inside message kept",
			line:     `"a" : see: this works`,
			wantUser: "a",
			wantText: "see: this works",
			wantOK:   true,
		},
		{name: "kill feed", line: `sniper killed scout with sniperrifle.`, wantOK: false},
		{name: "server output", line: `Differing lump versions in map`, wantOK: false},
		{name: "empty", line: "", wantOK: false},
		{name: "whitespace", line: "   \t ", wantOK: false},
	}

	p := NewSourceParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := p.Parse(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if msg.Username != tt.wantUser {
				t.Errorf("Username = %q, want %q", msg.Username, tt.wantUser)
			}
			if msg.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", msg.Text, tt.wantText)
			}
			if msg.Dead != tt.wantDead {
				t.Errorf("Dead = %v, want %v", msg.Dead, tt.wantDead)
			}
			if msg.Team != tt.wantTeam {
				t.Errorf("Team = %v, want %v", msg.Team, tt.wantTeam)
			}
			if msg.Game != GameTF2 {
				t.Errorf("Game = %q, want tf2", msg.Game)
			}
		})
	}
}
