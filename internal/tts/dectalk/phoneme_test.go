package dectalk

import (
	"strings"
	"testing"
)

func TestHasPhonemes(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"hello world", false},
		{"[ey<200,20>]", true},
		{"[:t440,100]", true},
		{"[:dial5551234]", true},
		{"[:phone on] hhehlow", true},
		{"[:np] plain voice code", false},
	}
	for _, tt := range tests {
		if got := HasPhonemes(tt.text); got != tt.want {
			t.Errorf("HasPhonemes(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestTranslateSinging(t *testing.T) {
	t.Run("known word", func(t *testing.T) {
		got := TranslateSinging("[<800,20>]john")
		want := "[jh<800,20>aa<800,20>n]"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("meme spelling variant", func(t *testing.T) {
		// Variants pick the first prefix match in the fixed word order,
		// identically on every run.
		want := "[s<100,25>p<100,25>ey<999,25>s]"
		for range 10 {
			if got := TranslateSinging("[<999,25>]spaaaaaaace"); got != want {
				t.Fatalf("got %q, want %q", got, want)
			}
		}
	})

	t.Run("short word spelled by letter", func(t *testing.T) {
		got := TranslateSinging("[<300,15>]ae")
		want := "[ey<300,15>iy<300,15>]"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("unknown word sustained", func(t *testing.T) {
		got := TranslateSinging("[<500,18>]glorp")
		want := "[glorp<500,18>]"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("mixed prose untouched", func(t *testing.T) {
		got := TranslateSinging("normal words [<100,10>]john more words")
		if !strings.HasPrefix(got, "normal words [jh<") || !strings.HasSuffix(got, " more words") {
			t.Errorf("surrounding prose should survive, got %q", got)
		}
	})
}

func TestPrepareText(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		text  string
		want  string
		wants []string
	}{
		{name: "plain with voice", code: "[:np]", text: "hello", want: "[:np] hello"},
		{name: "plain without voice", code: "", text: "hello", want: "hello"},
		{name: "phonemes enable phone mode", code: "", text: "[ey<200,20>]", want: "[:phone on] [ey<200,20>]"},
		{name: "singing translated", code: "[:np]", text: "[<800,20>]john", wants: []string{"[:np][:phone on]", "jh<800,20>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := prepareText(tt.code, tt.text)
			if tt.want != "" && got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			for _, sub := range tt.wants {
				if !strings.Contains(got, sub) {
					t.Errorf("got %q, missing %q", got, sub)
				}
			}
		})
	}
}

func TestVoiceCode(t *testing.T) {
	tests := []struct {
		voice   string
		want    string
		wantErr bool
	}{
		{voice: "", want: ""},
		{voice: "Perfect Paul", want: "[:np]"},
		{voice: NamePrefix + "Whispering Wendy", want: "[:nw][:dv gv 75]"},
		{voice: "[:nb]", want: "[:nb]"},
		{voice: "Microsoft Zira", wantErr: true},
	}
	for _, tt := range tests {
		got, err := voiceCode(tt.voice)
		if tt.wantErr {
			if err == nil {
				t.Errorf("voiceCode(%q) expected error", tt.voice)
			}
			continue
		}
		if err != nil {
			t.Errorf("voiceCode(%q): %v", tt.voice, err)
			continue
		}
		if got != tt.want {
			t.Errorf("voiceCode(%q) = %q, want %q", tt.voice, got, tt.want)
		}
	}
}

func TestVoicesArePrefixedAndSorted(t *testing.T) {
	e := New(Config{BinaryPath: "/nonexistent/say"})
	voices := e.Voices()
	if len(voices) != len(Profiles) {
		t.Fatalf("expected %d voices, got %d", len(Profiles), len(voices))
	}
	for i, v := range voices {
		if !strings.HasPrefix(v.Name, NamePrefix) {
			t.Errorf("voice %q missing name prefix", v.Name)
		}
		if i > 0 && voices[i-1].Name > v.Name {
			t.Errorf("voices out of order: %q before %q", voices[i-1].Name, v.Name)
		}
	}
}
