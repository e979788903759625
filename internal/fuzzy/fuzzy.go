// Package fuzzy implements the cheap approximate matching used to
// absorb single-character typos in region names and keywords.
package fuzzy

// OneEditOrLess reports whether b can be obtained from a with at most
// one greedy edit: a substitution, insertion, or deletion at the first
// position where the strings diverge. It is deliberately weaker than
// full edit distance; transpositions and edits hidden behind a shared
// prefix of repeated letters are not matched, which keeps false
// positives down on short agglutinative tokens.
func OneEditOrLess(a, b string) bool {
	if a == b {
		return true
	}

	la, lb := len(a), len(b)
	if la-lb > 1 || lb-la > 1 {
		return false
	}

	i := 0
	for i < la && i < lb && a[i] == b[i] {
		i++
	}

	switch {
	case la == lb:
		return a[i+1:] == b[i+1:]
	case la < lb:
		return a[i:] == b[i+1:]
	default:
		return a[i+1:] == b[i:]
	}
}

// BucketByLen groups candidate strings by byte length so a lookup only
// has to scan buckets of length len-1, len, and len+1.
func BucketByLen(values []string) map[int][]string {
	buckets := make(map[int][]string)

	for _, v := range values {
		buckets[len(v)] = append(buckets[len(v)], v)
	}

	return buckets
}

// MatchInBuckets reports whether token is within one greedy edit of any
// candidate in the adjacent-length buckets.
func MatchInBuckets(token string, buckets map[int][]string) bool {
	for l := len(token) - 1; l <= len(token)+1; l++ {
		for _, candidate := range buckets[l] {
			if OneEditOrLess(token, candidate) {
				return true
			}
		}
	}

	return false
}
