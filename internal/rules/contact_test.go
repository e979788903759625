package rules

import "testing"

func TestHasPhone(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "international with plus", text: "tel +998 90 123 45 67", expected: true},
		{name: "bare country code", text: "998901234567", expected: true},
		{name: "local with separators", text: "(90) 123-45-67 ga qongiroq qiling", expected: true},
		{name: "tab separated", text: "tel:\t90\t123\t45\t67", expected: true},
		{name: "dots do not join groups", text: "90.123.45.67", expected: false},
		{name: "dotted fare amount", text: "narxi 25.000 som", expected: false},
		{name: "seven digits", text: "1234567", expected: true},
		{name: "six digits too few", text: "123456", expected: false},
		{name: "thirteen digits too many", text: "1234567890123", expected: false},
		{name: "long number with country code", text: "99890123456789", expected: true},
		{name: "year is not a phone", text: "2024 yil", expected: false},
		{name: "no digits", text: "taxi kerak", expected: false},
		{name: "digits split by words", text: "soat 12 da 34567 metrda", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPhone(tt.text); got != tt.expected {
				t.Errorf("HasPhone(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestHasUsername(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "plain username", text: "yozing @taxiuz1", expected: true},
		{name: "at start of text", text: "@driver_98 ga yozing", expected: true},
		{name: "in parentheses", text: "aloqa (@dispatcher)", expected: true},
		{name: "too short", text: "yozing @abc", expected: false},
		{name: "starts with digit", text: "yozing @12345x", expected: false},
		{name: "email does not count", text: "pochta user@example.com", expected: false},
		{name: "no username", text: "taxi kerak tezroq", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasUsername(tt.text); got != tt.expected {
				t.Errorf("HasUsername(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}
