package dectalk

import (
	"fmt"
	"regexp"
	"strings"
)

// Inline command syntax the engine understands natively. Any of these in the
// text means the author is hand-writing phonemes, so phoneme mode must be
// enabled before the text is passed through untouched.
var phonemePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[[^\]]*<\d+(?:,\d+)?>\]`), // [..<duration[,pitch]>..]
	regexp.MustCompile(`\[:t\d+,\d+\]`),            // [:t timing commands]
	regexp.MustCompile(`\[:dial\d+\]`),             // [:dial phone number]
	regexp.MustCompile(`\[:phone\s+on\]`),          // phoneme mode already requested
}

// Moonbase Alpha style singing spans: [<duration,pitch>]word.
var moonbaseRegexp = regexp.MustCompile(`\[<(\d+),(\d+)>\](\w+)`)

// Well-known sung words with hand-tuned phoneme runs. Duration and pitch
// placeholders are filled from the span. The order matters: variant
// spellings match the first key sharing a three-letter prefix.
var sungWordOrder = []string{
	"spayyyyyyyyyyyace",
	"spayyyyyyyyyy",
	"space",
	"john",
	"madden",
	"aeiou",
	"uuuuuuuuuuuuuuuu",
}

var sungWords = map[string]string{
	"spayyyyyyyyyyyace": "s<100,%[2]s>p<100,%[2]s>ey<%[1]s,%[2]s>s",
	"spayyyyyyyyyy":     "s<100,%[2]s>p<100,%[2]s>ey<%[1]s,%[2]s>",
	"space":             "s<100,%[2]s>p<100,%[2]s>ey<%[1]s,%[2]s>s",
	"john":              "jh<%[1]s,%[2]s>aa<%[1]s,%[2]s>n",
	"madden":            "m<100,%[2]s>ae<%[1]s,%[2]s>d<100,%[2]s>ih<%[1]s,%[2]s>n",
	"aeiou":             "ey<200,%[2]s>iy<200,%[2]s>ay<200,%[2]s>ow<200,%[2]s>uw<200,%[2]s>",
	"uuuuuuuuuuuuuuuu":  "uw<%[1]s,%[2]s>",
}

// Single-letter phonemes used when singing very short words letter by letter.
var letterPhonemes = map[rune]string{
	'a': "ey", 'e': "iy", 'i': "ay", 'o': "ow", 'u': "uw",
	's': "s", 'p': "p", 't': "t", 'k': "k", 'b': "b",
	'd': "d", 'f': "f", 'g': "g", 'h': "hh", 'j': "jh",
	'l': "l", 'm': "m", 'n': "n", 'r': "r", 'v': "v",
	'w': "w", 'y': "y", 'z': "z",
}

// HasPhonemes reports whether the text contains inline phoneme or timing
// commands that require phoneme mode.
func HasPhonemes(text string) bool {
	for _, re := range phonemePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// HasSinging reports whether the text contains Moonbase Alpha singing spans.
func HasSinging(text string) bool {
	return moonbaseRegexp.MatchString(text)
}

// TranslateSinging rewrites Moonbase Alpha [<duration,pitch>]word spans into
// DECtalk phoneme runs. Unknown words pass through as a single sustained
// pseudo-phoneme, which the engine usually makes a noise for.
func TranslateSinging(text string) string {
	return moonbaseRegexp.ReplaceAllStringFunc(text, func(span string) string {
		m := moonbaseRegexp.FindStringSubmatch(span)
		duration, pitch, word := m[1], m[2], m[3]
		lower := strings.ToLower(word)

		if tmpl, ok := sungWords[lower]; ok {
			return "[" + fmt.Sprintf(tmpl, duration, pitch) + "]"
		}

		// Variant spellings of known memes share the first three letters.
		for _, key := range sungWordOrder {
			if len(key) >= 3 && strings.HasPrefix(lower, key[:3]) {
				return "[" + fmt.Sprintf(sungWords[key], duration, pitch) + "]"
			}
		}

		if len(lower) <= 2 {
			var runs []string
			for _, r := range lower {
				if ph, ok := letterPhonemes[r]; ok {
					runs = append(runs, fmt.Sprintf("%s<%s,%s>", ph, duration, pitch))
				}
			}
			if len(runs) > 0 {
				return "[" + strings.Join(runs, "") + "]"
			}
		}

		return fmt.Sprintf("[%s<%s,%s>]", word, duration, pitch)
	})
}

// prepareText combines a voice code with the message, enabling phoneme mode
// and translating singing spans as needed.
func prepareText(voiceCode, text string) string {
	switch {
	case HasSinging(text):
		text = "[:phone on] " + TranslateSinging(text)
	case HasPhonemes(text):
		text = "[:phone on] " + text
	case voiceCode != "":
		return voiceCode + " " + text
	default:
		return text
	}
	if voiceCode != "" {
		return voiceCode + text
	}
	return text
}
