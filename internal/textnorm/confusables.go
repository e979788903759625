package textnorm

import "strings"

// confusables maps stylized Unicode letterforms people use to dodge
// keyword filters onto their plain ASCII counterparts. Covers small
// capitals, Greek lookalikes, IPA letters, and a few Latin letters
// with bars or strokes. Applied after NFKC, which already folds the
// mathematical alphanumeric and fullwidth blocks.
var confusables = map[rune]string{
	// Latin small capitals.
	'ᴀ': "a",
	'ʙ': "b",
	'ᴄ': "c",
	'ᴅ': "d",
	'ᴇ': "e",
	'ꜰ': "f",
	'ɢ': "g",
	'ʜ': "h",
	'ɪ': "i",
	'ᴊ': "j",
	'ᴋ': "k",
	'ʟ': "l",
	'ᴍ': "m",
	'ɴ': "n",
	'ᴏ': "o",
	'ᴘ': "p",
	'ꞯ': "q",
	'ʀ': "r",
	'ꜱ': "s",
	'ᴛ': "t",
	'ᴜ': "u",
	'ᴠ': "v",
	'ᴡ': "w",
	'ʏ': "y",
	'ᴢ': "z",
	// Greek lowercase, mapped by visual shape.
	'α': "a",
	'β': "b",
	'γ': "y",
	'δ': "d",
	'ε': "e",
	'ζ': "z",
	'η': "n",
	'θ': "o",
	'ι': "i",
	'κ': "k",
	'λ': "l",
	'μ': "u",
	'ν': "v",
	'ο': "o",
	'ρ': "p",
	'σ': "o",
	'ς': "s",
	'τ': "t",
	'υ': "u",
	'φ': "f",
	'χ': "x",
	'ω': "w",
	// IPA and phonetic letters.
	'ɑ': "a",
	'ɐ': "a",
	'ə': "e",
	'ɛ': "e",
	'ɜ': "e",
	'ɡ': "g",
	'ɩ': "i",
	'ɔ': "o",
	'ɒ': "o",
	'ʊ': "u",
	'ʋ': "v",
	// Ligatures and stroked letters.
	'æ': "ae",
	'œ': "oe",
	'ß': "ss",
	'ı': "i",
	'ȷ': "j",
	'ð': "d",
	'ł': "l",
	'ø': "o",
	'đ': "d",
	'ħ': "h",
	'ŋ': "n",
}

func foldConfusables(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if repl, ok := confusables[r]; ok {
			b.WriteString(repl)
			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}
