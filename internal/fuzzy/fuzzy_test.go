package fuzzy

import "testing"

func TestOneEditOrLess(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{name: "equal", a: "toshkent", b: "toshkent", expected: true},
		{name: "substitution", a: "toshkent", b: "tashkent", expected: true},
		{name: "deletion", a: "toshkent", b: "toshket", expected: true},
		{name: "insertion", a: "toshkent", b: "toshkentt", expected: true},
		{name: "two substitutions", a: "toshkent", b: "tashkint", expected: false},
		{name: "length differs by two", a: "nukus", b: "nukusga", expected: false},
		{name: "transposition not matched", a: "andijon", b: "adnijon", expected: false},
		{
			// The greedy scan anchors on the first divergence, so an
			// edit after a repeated-letter prefix can be missed.
			name: "edit behind repeated prefix", a: "aab", b: "aba", expected: false,
		},
		{name: "empty vs one char", a: "", b: "a", expected: true},
		{name: "both empty", a: "", b: "", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OneEditOrLess(tt.a, tt.b); got != tt.expected {
				t.Errorf("OneEditOrLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}

			if got := OneEditOrLess(tt.b, tt.a); got != tt.expected {
				t.Errorf("OneEditOrLess(%q, %q) = %v, want %v", tt.b, tt.a, got, tt.expected)
			}
		})
	}
}

func TestMatchInBuckets(t *testing.T) {
	buckets := BucketByLen([]string{"toshkent", "samarqand", "nukus"})

	tests := []struct {
		name     string
		token    string
		expected bool
	}{
		{name: "exact", token: "nukus", expected: true},
		{name: "one substitution", token: "samarkand", expected: true},
		{name: "two edits", token: "samarkend", expected: false},
		{name: "no match", token: "eiffel", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchInBuckets(tt.token, buckets); got != tt.expected {
				t.Errorf("MatchInBuckets(%q) = %v, want %v", tt.token, got, tt.expected)
			}
		})
	}
}
