// Package fastfilter is the first, cheap classification stage. It runs
// on every group message and discards the bulk of chatter before the
// heavier rule engine sees it.
package fastfilter

import (
	"regexp"
	"strings"
	"sync"

	"github.com/lueurxax/taxi-order-bot/internal/fuzzy"
	"github.com/lueurxax/taxi-order-bot/internal/geo"
	"github.com/lueurxax/taxi-order-bot/internal/keywords"
	"github.com/lueurxax/taxi-order-bot/internal/runtimeconfig"
	"github.com/lueurxax/taxi-order-bot/internal/textnorm"
)

// Rejection and acceptance reasons reported in Result and metrics.
const (
	ReasonEmptyText      = "empty_text"
	ReasonTooShort       = "too_short"
	ReasonExcludeKeyword = "exclude_keyword"
	ReasonTaxiOffer      = "likely_taxi_offer"
	ReasonNoOrderSignal  = "no_order_signal"
	ReasonCandidateOrder = "candidate_order"
)

// Result is the outcome of the fast stage for one message.
type Result struct {
	Passed bool
	Reason string
	Score  int
}

// KeywordSource exposes the current keyword vocabulary.
type KeywordSource interface {
	Snapshot() *keywords.Snapshot
}

// ConfigSource exposes the current runtime settings.
type ConfigSource interface {
	Snapshot() *runtimeconfig.Snapshot
}

var (
	routePattern = regexp.MustCompile(
		`\b([a-z0-9]{3,})\s+(dan|from)\s+([a-z0-9]{2,})\b|\b([a-z0-9]{3,})\s+(ga|to)\s+([a-z0-9]{2,})\b`)
	suffixRoutePattern     = regexp.MustCompile(`\b[a-z0-9]{3,}dan\b.*\b[a-z0-9]{2,}ga\b`)
	peoplePattern          = regexp.MustCompile(`\b\d+\s*(odam|kishi|passajir|joy)\b`)
	passengerNeededPattern = regexp.MustCompile(`\b\d+\s*(odam|kishi|joy)\s+kerak\b`)
	requestPhrasePattern   = regexp.MustCompile(
		`\b(?:taxi|taksi|moshin|mashina)\s+kerak\b` +
			`|\b(?:yuradigan|yuradiglar)\s+bormi(?:kan)?\b` +
			`|\bkim\s+bor\b` +
			`|\bolib\s+ketadig(?:an|lar)\s+bormi\b`)
	offerContextPattern = regexp.MustCompile(
		`\b(?:ketyapman|ketyapmiz|yuryapman|yuryapmiz|olib\s+ketaman|olibketaman|` +
			`olib\s+ketamiz|olibketamiz|zakazga(?:\s+ham)?\s+yuraman|manzildan\s+manzilgach|` +
			`joy\s+bor|bagaj|pochta|shafer|shafermiz|haydovchimiz|yuraman|ketaman|boraman|chiqaman|chiqamiz|komfort)\b`)
	vehicleModelPattern = regexp.MustCompile(
		`\b(?:kobalt|cobalt|nexia|jentra|malibu|lacetti|damas|spark|captiva|onix|tracker|matiz|epica)\b`)
	phonePattern = regexp.MustCompile(`\b(?:998)?\d{7,12}\b`)
)

var stemSuffixes = []string{"lardan", "dan", "ga", "ni", "da"}

type vocab struct {
	transport keywords.Set
	request   keywords.Set
	offer     keywords.Set
	location  keywords.Set
	route     keywords.Set
	exclude   keywords.Set

	transportByLen map[int][]string
	requestByLen   map[int][]string
	offerByLen     map[int][]string
	locationByLen  map[int][]string
}

func buildVocab(snapshot *keywords.Snapshot) *vocab {
	return &vocab{
		transport:      snapshot.Transport,
		request:        snapshot.Request,
		offer:          snapshot.Offer,
		location:       snapshot.Location,
		route:          snapshot.Route,
		exclude:        snapshot.Exclude,
		transportByLen: fuzzy.BucketByLen(snapshot.Transport.Sorted()),
		requestByLen:   fuzzy.BucketByLen(snapshot.Request.Sorted()),
		offerByLen:     fuzzy.BucketByLen(snapshot.Offer.Sorted()),
		locationByLen:  fuzzy.BucketByLen(snapshot.Location.Sorted()),
	}
}

// fallbackVocab is the reduced built-in vocabulary used when no
// keyword source is wired, for standalone evaluation and tests.
func fallbackVocab() *vocab {
	return buildVocab(&keywords.Snapshot{
		Transport: keywords.NewSet("taxi", "taksi", "yandex", "moshin", "mashina", "avto"),
		Request:   keywords.NewSet("kerak", "bormi", "buyurtma", "zakaz", "yuradigan", "yuradiglar"),
		Offer: keywords.NewSet(
			"boraman", "ketaman", "yuraman", "beraman", "taklif",
			"ketyapman", "ketyapmiz", "olibketaman", "olibketamiz",
			"zakazga", "joybor", "shafermiz", "haydovchimiz",
			"chiqaman", "chiqamiz"),
		Location: keywords.NewSet(
			"toshkent", "andijon", "namangan", "fargona", "samarqand", "nukus", "buxoro"),
		Route:   keywords.NewSet("dan", "ga", "from", "to"),
		Exclude: keywords.NewSet("vakansiya", "reklama", "kurs", "kanal"),
	})
}

// Filter scores normalized text against keyword vocabularies, route
// and people patterns, and the region resolver. Safe for concurrent
// use; the derived vocabulary indexes are rebuilt lazily when the
// keyword snapshot version changes.
type Filter struct {
	minLength int
	keywordsp KeywordSource
	configsp  ConfigSource
	geo       *geo.Resolver

	mu           sync.Mutex
	vocabVersion uint64
	vocabLoaded  bool
	vocab        *vocab
}

// New builds a filter. Both sources may be nil: without a keyword
// source a built-in vocabulary is used, without a config source the
// given minimum length is fixed.
func New(minLength int, keywordSource KeywordSource, configSource ConfigSource) *Filter {
	return &Filter{
		minLength: minLength,
		keywordsp: keywordSource,
		configsp:  configSource,
		geo:       geo.NewResolver(),
	}
}

func (f *Filter) currentVocab() *vocab {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.keywordsp == nil {
		if !f.vocabLoaded {
			f.vocab = fallbackVocab()
			f.vocabLoaded = true
		}

		return f.vocab
	}

	snapshot := f.keywordsp.Snapshot()
	if !f.vocabLoaded || snapshot.Version != f.vocabVersion {
		f.vocab = buildVocab(snapshot)
		f.vocabVersion = snapshot.Version
		f.vocabLoaded = true
	}

	return f.vocab
}

func (f *Filter) currentMinLength() int {
	if f.configsp != nil {
		return f.configsp.Snapshot().MinTextLength
	}

	return f.minLength
}

// Evaluate classifies normalized text. The reject checks are ordered
// cheapest first so most messages exit early.
func (f *Filter) Evaluate(normalizedText string) Result {
	v := f.currentVocab()

	if normalizedText == "" {
		return Result{Passed: false, Reason: ReasonEmptyText}
	}

	tokens := textnorm.Tokenize(normalizedText)

	hasRoute := routePattern.MatchString(normalizedText) ||
		suffixRoutePattern.MatchString(normalizedText)

	if len(normalizedText) < f.currentMinLength() && !hasRoute {
		return Result{Passed: false, Reason: ReasonTooShort}
	}

	for _, token := range tokens {
		if v.exclude.Contains(token) {
			return Result{Passed: false, Reason: ReasonExcludeKeyword}
		}
	}

	stemmed := make([]string, len(tokens))
	for i, token := range tokens {
		stemmed[i] = stemToken(token)
	}

	transportHits := countFuzzyHits(tokens, v.transport, v.transportByLen)
	requestHits := countFuzzyHits(tokens, v.request, v.requestByLen)
	offerHits := countFuzzyHits(tokens, v.offer, v.offerByLen)
	locationHits := countFuzzyHits(stemmed, v.location, v.locationByLen)
	routeHits := countExactHits(tokens, v.route)

	hasPeople := peoplePattern.MatchString(normalizedText)
	hasPassengerNeeded := passengerNeededPattern.MatchString(normalizedText)
	hasRequestPhrase := requestPhrasePattern.MatchString(normalizedText)
	hasOfferContext := offerContextPattern.MatchString(normalizedText)
	hasVehicleModel := vehicleModelPattern.MatchString(normalizedText)
	hasPhone := phonePattern.MatchString(normalizedText)
	hasRegion := f.geo.Detect(normalizedText) != nil

	offerDominant := hasOfferContext ||
		hasVehicleModel ||
		(offerHits > 0 && hasPassengerNeeded) ||
		(hasPassengerNeeded && hasRoute && transportHits > 0)

	if offerHits > 0 && !hasRequestPhrase {
		return Result{Passed: false, Reason: ReasonTaxiOffer}
	}

	if offerDominant && !hasRequestPhrase {
		return Result{Passed: false, Reason: ReasonTaxiOffer}
	}

	score := 0

	if hasRequestPhrase {
		score += 2
	} else if requestHits > 0 {
		score++
	}

	if transportHits > 0 {
		score++
	}

	if hasRoute || routeHits >= 1 {
		score += 2
	}

	if locationHits > 0 || hasRegion {
		score++
	}

	if hasPeople {
		score++
	}

	if hasPhone {
		score++
	}

	requestSignal := hasRequestPhrase || requestHits > 0

	if score >= 4 && requestSignal && !offerDominant {
		return Result{Passed: true, Reason: ReasonCandidateOrder, Score: score}
	}

	if score >= 3 && requestSignal && (locationHits > 0 || hasRegion || hasRoute) && !offerDominant {
		return Result{Passed: true, Reason: ReasonCandidateOrder, Score: score}
	}

	return Result{Passed: false, Reason: ReasonNoOrderSignal, Score: score}
}

func stemToken(token string) string {
	for _, suffix := range stemSuffixes {
		if strings.HasSuffix(token, suffix) && len(token) > len(suffix)+2 {
			return token[:len(token)-len(suffix)]
		}
	}

	return token
}

func countExactHits(tokens []string, set keywords.Set) int {
	matched := make(map[string]bool)

	for _, token := range tokens {
		if set.Contains(token) {
			matched[token] = true
		}
	}

	return len(matched)
}

// countFuzzyHits counts distinct vocabulary entries hit by the tokens,
// either exactly or within one edit for tokens of four or more
// characters.
func countFuzzyHits(tokens []string, set keywords.Set, byLen map[int][]string) int {
	matched := make(map[string]bool)

	for _, token := range tokens {
		if set.Contains(token) {
			matched[token] = true
			continue
		}

		if len(token) < 4 {
			continue
		}

		for l := len(token) - 1; l <= len(token)+1; l++ {
			found := false

			for _, candidate := range byLen[l] {
				if fuzzy.OneEditOrLess(token, candidate) {
					matched[candidate] = true
					found = true

					break
				}
			}

			if found {
				break
			}
		}
	}

	return len(matched)
}
