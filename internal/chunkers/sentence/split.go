// Package sentence provides sentence-based chunkers.
//
// Group emits a fixed number of sentences per chunk with sentence overlap.
// Accumulate packs whole sentences into chunks bounded by a word count,
// which is the default ingestion strategy.
package sentence

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// abbreviations never end a sentence. Compared lowercased without the dot.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true, "sr": true, "jr": true,
	"st": true, "vs": true, "etc": true, "e.g": true, "i.e": true, "inc": true, "ltd": true,
	"co": true, "corp": true, "no": true, "fig": true, "approx": true, "dept": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true, "jul": true,
	"aug": true, "sep": true, "sept": true, "oct": true, "nov": true, "dec": true,
}

// Split breaks text into trimmed sentences.
//
// A sentence ends at '.', '!' or '?' (optionally followed by closing quotes
// or brackets) when the next non-space rune starts a new sentence, at the
// CJK full stops '。', '！' and '？', and at blank lines. A period after a
// known abbreviation, a single initial or inside a number does not end a
// sentence. Trailing text without terminal punctuation is kept.
func Split(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.Join(strings.Fields(current.String()), " "); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		current.WriteRune(r)
		i += size

		switch {
		case r == '\n' && startsBlankLine(text[i:]):
			flush()
		case r == '。' || r == '！' || r == '？':
			flush()
		case r == '.' || r == '!' || r == '?':
			for i < len(text) {
				next, n := utf8.DecodeRuneInString(text[i:])
				if !strings.ContainsRune(`"')]”’`, next) && next != '.' && next != '!' && next != '?' {
					break
				}
				current.WriteRune(next)
				i += n
			}
			if endsSentence(current.String(), r, text[i:]) {
				flush()
			}
		}
	}
	flush()

	return sentences
}

// startsBlankLine reports whether rest begins with optional spaces and a newline.
func startsBlankLine(rest string) bool {
	trimmed := strings.TrimLeft(rest, " \t\r")
	return strings.HasPrefix(trimmed, "\n")
}

// endsSentence decides whether the terminator just written closes the sentence.
func endsSentence(sentence string, terminator rune, rest string) bool {
	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	if trimmed == "" {
		return true
	}
	if len(trimmed) == len(rest) {
		// No whitespace after the terminator: 3.14, e.g., example.com
		return false
	}
	if terminator != '.' {
		return true
	}

	next, _ := utf8.DecodeRuneInString(trimmed)
	if unicode.IsLower(next) {
		return false
	}

	word := lastWord(sentence)
	if abbreviations[strings.ToLower(word)] {
		return false
	}
	if utf8.RuneCountInString(word) == 1 && unicode.IsUpper([]rune(word)[0]) {
		return false
	}
	return true
}

// lastWord returns the final word before the trailing terminator and closers.
func lastWord(sentence string) string {
	sentence = strings.TrimRightFunc(sentence, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || strings.ContainsRune(`"')]”’`, r)
	})
	if idx := strings.LastIndexFunc(sentence, unicode.IsSpace); idx >= 0 {
		sentence = sentence[idx+1:]
	}
	return strings.TrimLeft(sentence, `"'([“‘`)
}
