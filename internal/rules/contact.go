package rules

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

var usernamePattern = regexp.MustCompile(`@[A-Za-z][A-Za-z0-9_]{4,}`)

// HasUsername reports whether the text contains a Telegram-style
// @username of at least five characters. A match is only counted when
// the @ is not glued to the tail of a word, so email addresses do not
// qualify.
func HasUsername(text string) bool {
	for _, loc := range usernamePattern.FindAllStringIndex(text, -1) {
		if loc[0] == 0 {
			return true
		}

		prev, _ := utf8.DecodeLastRuneInString(text[:loc[0]])
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) && prev != '_' {
			return true
		}
	}

	return false
}

// HasPhone reports whether the text contains something that reads as a
// phone number: digit groups separated by whitespace, hyphens, or
// parentheses, totalling 7 to 12 digits, optionally prefixed with the
// 998 country code (with or without +). Dots do not join groups, so
// dotted fare amounts and IP-looking strings are not phones.
func HasPhone(text string) bool {
	digits := 0
	leading998 := false
	inRun := false
	runStart := true

	flush := func() bool {
		if !inRun {
			return false
		}

		if digits >= 7 && digits <= 12 {
			return true
		}

		if leading998 && digits-3 >= 7 && digits-3 <= 12 {
			return true
		}

		return false
	}

	reset := func() {
		digits = 0
		leading998 = false
		inRun = false
		runStart = true
	}

	prefix := make([]rune, 0, 3)

	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			inRun = true
			digits++

			if runStart && len(prefix) < 3 {
				prefix = append(prefix, r)
				if len(prefix) == 3 && prefix[0] == '9' && prefix[1] == '9' && prefix[2] == '8' {
					leading998 = true
				}
			}
		case unicode.IsSpace(r) || r == '-' || r == '(' || r == ')':
			// Separators keep the run alive but end the leading
			// digit group.
			if inRun {
				runStart = false
			}
		default:
			if flush() {
				return true
			}

			reset()
			prefix = prefix[:0]
		}
	}

	return flush()
}
