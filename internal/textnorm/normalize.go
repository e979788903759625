// Package textnorm canonicalizes noisy multi-script chat text into a
// lowercase ASCII token stream.
//
// Incoming messages mix Latin and Cyrillic Uzbek, Russian, stylized
// Unicode letterforms, emoji, and emphatic repeated letters. Every step
// of the pipeline targets one evasion or typo pattern seen in that
// traffic, and the result is stable: normalizing already-normalized
// text is a no-op.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var cyrillicToLatin = map[rune]string{
	'а': "a",
	'б': "b",
	'в': "v",
	'г': "g",
	'д': "d",
	'е': "e",
	'ё': "yo",
	'ж': "j",
	'з': "z",
	'и': "i",
	'й': "y",
	'к': "k",
	'л': "l",
	'м': "m",
	'н': "n",
	'о': "o",
	'п': "p",
	'р': "r",
	'с': "s",
	'т': "t",
	'у': "u",
	'ф': "f",
	'х': "x",
	'ц': "s",
	'ч': "ch",
	'ш': "sh",
	'щ': "sh",
	'ъ': "",
	'ы': "i",
	'ь': "",
	'э': "e",
	'ю': "yu",
	'я': "ya",
	'қ': "q",
	'ғ': "g",
	'ҳ': "h",
	'ў': "o",
}

var apostrophes = map[rune]bool{
	'`': true, // grave accent
	'´': true, // acute accent
	'\'': true, // apostrophe
	'’': true, // right single quote
	'ʻ': true, // modifier turned comma (Uzbek okina)
	'ʼ': true, // modifier apostrophe
	'ʹ': true, // modifier prime
}

var invisibles = map[rune]bool{
	'­': true, // soft hyphen
	'؜': true, // arabic letter mark
	'᠎': true, // mongolian vowel separator
	'​': true, // zero width space
	'‌': true, // zero width non-joiner
	'‍': true, // zero width joiner
	'‎': true, // left-to-right mark
	'‏': true, // right-to-left mark
	'‪': true,
	'‫': true,
	'‬': true,
	'‭': true,
	'‮': true, // bidi embedding/override controls
	'⁠': true, // word joiner
	'\uFEFF': true, // BOM
}

var structuralReplacer = strings.NewReplacer(
	"->", " ",
	"=>", " ",
	"-", " ",
	"_", " ",
	"/", " ",
	"|", " ",
)

// Normalize canonicalizes raw chat text. It is a total, pure function:
// any input, including pure emoji or adversarial Unicode, produces a
// lowercase [a-z0-9 ] string (possibly empty).
func Normalize(raw string) string {
	s := strings.ToLower(norm.NFKC.String(raw))
	s = stripInvisibles(s)
	s = foldConfusables(s)
	s = stripDiacritics(s)
	s = stripApostrophes(s)
	s = transliterateCyrillic(s)
	s = stripEmoji(s)
	s = structuralReplacer.Replace(s)
	s = stripNoise(s)
	s = collapseRepeats(s)

	return strings.Join(strings.Fields(s), " ")
}

// Tokenize splits normalized text into tokens. Normalize guarantees
// single-space-delimited output, so this is a plain split.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	parts := strings.Split(text, " ")
	tokens := make([]string, 0, len(parts))

	for _, part := range parts {
		if part != "" {
			tokens = append(tokens, part)
		}
	}

	return tokens
}

func stripInvisibles(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if invisibles[r] {
			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}

// stripDiacritics decomposes letters and drops combining marks.
// Cyrillic letters with their own transliteration entries are kept
// composed so ё and й survive until the transliteration step.
func stripDiacritics(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if _, ok := cyrillicToLatin[r]; ok {
			b.WriteRune(r)
			continue
		}

		if unicode.Is(unicode.Mn, r) {
			continue
		}

		for _, d := range norm.NFD.String(string(r)) {
			if !unicode.Is(unicode.Mn, d) {
				b.WriteRune(d)
			}
		}
	}

	return b.String()
}

func stripApostrophes(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if apostrophes[r] {
			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}

func transliterateCyrillic(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if repl, ok := cyrillicToLatin[r]; ok {
			b.WriteString(repl)
			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x26FF:
		return true
	case r >= 0x2700 && r <= 0x27BF:
		return true
	}

	return false
}

func stripEmoji(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if isEmoji(r) {
			b.WriteRune(' ')
			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}

func stripNoise(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', unicode.IsSpace(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	return b.String()
}

// collapseRepeats reduces runs of three or more identical letters to
// two, so emphatic typing ("kerakkkk") keeps genuine double letters.
func collapseRepeats(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	var (
		prev rune
		run  int
	)

	for _, r := range s {
		if r == prev && r >= 'a' && r <= 'z' {
			run++
			if run > 2 {
				continue
			}
		} else {
			prev = r
			run = 1
		}

		b.WriteRune(r)
	}

	return b.String()
}
