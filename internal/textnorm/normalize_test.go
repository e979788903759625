package textnorm

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain latin lowered",
			input:    "Toshkentdan Samarqandga TAXI kerak",
			expected: "toshkentdan samarqandga taxi kerak",
		},
		{
			name:     "cyrillic transliterated",
			input:    "Тошкентдан Андижонга такси керак",
			expected: "toshkentdan andijonga taksi kerak",
		},
		{
			name:     "cyrillic yo and short i",
			input:    "ёлғиз йигит",
			expected: "yolgiz yigit",
		},
		{
			name:     "uzbek cyrillic letters",
			input:    "қашқадарё ғузор ҳайдовчи ўзбек",
			expected: "qashqadaryo guzor haydovchi ozbek",
		},
		{
			name:     "small caps confusables",
			input:    "ᴛᴀxɪ ᴋᴇʀᴀᴋ",
			expected: "taxi kerak",
		},
		{
			name:     "greek confusables",
			input:    "τaxι",
			expected: "taxi",
		},
		{
			name:     "fullwidth folded by nfkc",
			input:    "ｔａｘｉ",
			expected: "taxi",
		},
		{
			name:     "repeated letters collapsed to two",
			input:    "kerakkkk",
			expected: "kerakk",
		},
		{
			name:     "double letters preserved",
			input:    "ikki yillik",
			expected: "ikki yillik",
		},
		{
			name:     "repeated digits untouched",
			input:    "tel 998901112233",
			expected: "tel 998901112233",
		},
		{
			name:     "apostrophes removed",
			input:    "Farg'ona va Gʻijduvon",
			expected: "fargona va gijduvon",
		},
		{
			name:     "zero width characters removed",
			input:    "ta​xi ke‍rak",
			expected: "taxi kerak",
		},
		{
			name:     "byte order mark removed",
			input:    "\uFEFFtaxi\uFEFF kerak",
			expected: "taxi kerak",
		},
		{
			name:     "diacritics stripped",
			input:    "tàxí kérak",
			expected: "taxi kerak",
		},
		{
			name:     "emoji become separators",
			input:    "taxi🚕kerak🔥🔥",
			expected: "taxi kerak",
		},
		{
			name:     "arrows and dashes become spaces",
			input:    "Toshkent->Andijon, Buxoro=>Navoiy urganch-xiva",
			expected: "toshkent andijon buxoro navoiy urganch xiva",
		},
		{
			name:     "punctuation becomes space",
			input:    "taxi,kerak!!!tez",
			expected: "taxi kerak tez",
		},
		{
			name:     "whitespace collapsed",
			input:    "  taxi \t\n kerak  ",
			expected: "taxi kerak",
		},
		{
			name:     "only emoji",
			input:    "🚕🚕🚕",
			expected: "",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Тошкентдан Самарқандга ᴛᴀxɪ керак!!! 🚕 2-odam, tel: +998 90 123-45-67",
		"ꜰᴀʀɢʻᴏɴᴀ=>ϙὸʻϙὸɴ kerakkkk",
		"oddiy matn",
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)

		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple",
			input:    "toshkentdan andijonga taxi kerak",
			expected: []string{"toshkentdan", "andijonga", "taxi", "kerak"},
		},
		{
			name:     "empty",
			input:    "",
			expected: nil,
		},
		{
			name:     "single token",
			input:    "taxi",
			expected: []string{"taxi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if strings.Join(got, "|") != strings.Join(tt.expected, "|") {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
