package geo

import "testing"

func TestResolverDetect(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name       string
		text       string
		wantRegion string
		wantTag    string
	}{
		{
			name:       "exact token",
			text:       "andijon taxi kerak",
			wantRegion: "Andijon viloyati",
			wantTag:    "#AndijonViloyati",
		},
		{
			name:       "suffixed token is stemmed",
			text:       "toshkentdan samarqandga odam kerak",
			wantRegion: "Toshkent shahri",
			wantTag:    "#ToshkentShahri",
		},
		{
			name:       "phrase alias outweighs single token",
			text:       "toshkent viloyati chirchiq taxi",
			wantRegion: "Toshkent viloyati",
			wantTag:    "#ToshkentViloyati",
		},
		{
			name:       "district maps to region",
			text:       "chilonzor metro oldidan",
			wantRegion: "Toshkent shahri",
			wantTag:    "#ToshkentShahri",
		},
		{
			name:       "russian spelling variant",
			text:       "bukhara taxi bormi",
			wantRegion: "Buxoro viloyati",
			wantTag:    "#BuxoroViloyati",
		},
		{
			name:       "two fuzzy hits reach threshold",
			text:       "nukuz kungrot kerak",
			wantRegion: "Qoraqalpogiston Respublikasi",
			wantTag:    "#Qoraqalpogiston",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Detect(tt.text)
			if got == nil {
				t.Fatalf("Detect(%q) = nil, want %q", tt.text, tt.wantRegion)
			}

			if got.RegionName != tt.wantRegion || got.Hashtag != tt.wantTag {
				t.Errorf("Detect(%q) = %q %q, want %q %q",
					tt.text, got.RegionName, got.Hashtag, tt.wantRegion, tt.wantTag)
			}
		})
	}
}

func TestResolverDetectNoMatch(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "no region words", text: "taxi kerak 2 odam tel bor"},
		{name: "single fuzzy hit below threshold", text: "nukuz kerak"},
		{name: "short token not fuzzied", text: "nuk taxi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Detect(tt.text); got != nil {
				t.Errorf("Detect(%q) = %+v, want nil", tt.text, got)
			}
		})
	}
}

func TestResolverDetectTieBreak(t *testing.T) {
	r := NewResolver()

	// Both regions score 2. The first region to score wins, and phrase
	// aliases are checked before tokens, so region order is stable.
	got := r.Detect("andijon namangan")
	if got == nil || got.RegionName != "Andijon viloyati" {
		t.Fatalf("Detect tie = %+v, want Andijon viloyati", got)
	}
}

func TestStemToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{token: "toshkentdan", expected: "toshkent"},
		{token: "samarqandga", expected: "samarqand"},
		{token: "shaharlardan", expected: "shahar"},
		{token: "dan", expected: "dan"},
		{token: "qiya", expected: "qiya"},
		{token: "nukus", expected: "nukus"},
	}

	for _, tt := range tests {
		if got := StemToken(tt.token); got != tt.expected {
			t.Errorf("StemToken(%q) = %q, want %q", tt.token, got, tt.expected)
		}
	}
}
