package db

import "testing"

func TestManualPeerID(t *testing.T) {
	id := manualPeerID("@Taxi_Toshkent")

	if id >= 0 {
		t.Fatalf("manualPeerID() = %d, want negative", id)
	}

	if id > -9_000_000_000 {
		t.Fatalf("manualPeerID() = %d, want below the synthetic range floor", id)
	}

	// Stable across case and decoration.
	if manualPeerID("taxi_toshkent") != id {
		t.Error("manualPeerID should ignore @ prefix and case")
	}

	if manualPeerID("other_group") == id {
		t.Error("different usernames should produce different ids")
	}
}

func TestCleanUsername(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "@Taxi_UZ", expected: "taxi_uz"},
		{input: "  taxi_uz  ", expected: "taxi_uz"},
		{input: "@", expected: ""},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		if got := cleanUsername(tt.input); got != tt.expected {
			t.Errorf("cleanUsername(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
