// Package rules implements the authoritative second-pass classifier.
// The fast filter is tuned for recall; this engine is tuned for
// precision and, unlike the fast filter, demands either contact
// details or an explicit order announcement before a message is
// forwarded.
package rules

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/lueurxax/taxi-order-bot/internal/core/domain"
	"github.com/lueurxax/taxi-order-bot/internal/geo"
	"github.com/lueurxax/taxi-order-bot/internal/keywords"
	"github.com/lueurxax/taxi-order-bot/internal/runtimeconfig"
)

// Decision reasons.
const (
	ReasonEmptyText        = "empty_text"
	ReasonTooShort         = "too_short"
	ReasonExcludedCategory = "excluded_category"
	ReasonNoContact        = "no_contact"
	ReasonTaxiOffer        = "taxi_offer"
	ReasonTaxiOrder        = "taxi_order"
	ReasonNoOrderPattern   = "no_order_pattern"
)

const defaultRegionTag = "#Uzbekiston"

// KeywordSource exposes the current keyword vocabulary.
type KeywordSource interface {
	Snapshot() *keywords.Snapshot
}

// ConfigSource exposes the current runtime settings.
type ConfigSource interface {
	Snapshot() *runtimeconfig.Snapshot
}

// numberWord covers digits and the written counts people actually use
// in short order messages.
const numberWord = `(?:\d+|bir|ikki|uch|tort|turt|besh|olti|yetti|etti|sakkiz|toqqiz|on)`

var (
	routePattern = regexp.MustCompile(
		`\b([a-z0-9]{3,})\s+(dan|from)\s+([a-z0-9]{2,})\b|\b([a-z0-9]{3,})\s+(ga|to)\s+([a-z0-9]{2,})\b`)
	suffixRoutePattern = regexp.MustCompile(`\b[a-z0-9]{3,}dan\b.*\b[a-z0-9]{2,}ga\b`)
	peoplePattern      = regexp.MustCompile(`\b\d+\s*(odam|kishi|passajir|joy)\b`)

	passengerNeededPattern = regexp.MustCompile(`\b\d+\s*(odam|kishi|joy)\s+kerak\b`)
	requestPhrasePattern   = regexp.MustCompile(
		`\b(?:taxi|taksi|moshin|mashina)\s+kerak\b` +
			`|\b(?:yuradigan|yuradiglar)\s+bormi(?:kan)?\b` +
			`|\bkim\s+bor\b` +
			`|\bolib\s+ketadig(?:an|lar)\s+bormi\b`)
	offerContextPattern = regexp.MustCompile(
		`\b(?:ketyapman|ketyapmiz|yuryapman|yuryapmiz|olib\s+ketaman|olibketaman|` +
			`olib\s+ketamiz|olibketamiz|zakazga(?:\s+ham)?\s+yuraman|manzildan\s+manzilgach|` +
			`joy\s+bor|bagaj|pochta|shafer|shafermiz|haydovchimiz|yuraman|ketaman|boraman|` +
			`chiqaman|chiqamiz|komfort|yuramiz|yuryamiz)\b`)
	vehicleModelPattern = regexp.MustCompile(
		`\b(?:kobalt|cobalt|nexia|jentra|malibu|lacetti|damas|spark|captiva|onix|tracker|matiz|epica)\b`)

	passengerAnnouncementPattern = regexp.MustCompile(
		`\b` + numberWord + `\s*(?:odam|kishi|passajir)\s+(?:bor|bot|kerak)\b`)
	borPeoplePattern = regexp.MustCompile(
		`\b(?:bor|bot)\s+(?:odam|kishi|passajir)\b|\b(?:odam|kishi|passajir)\s+(?:bor|bot)\b`)
	shortOrderPattern = regexp.MustCompile(
		`\b` + numberWord + `\s*(?:odam|kishi|passajir)\s+(?:bor|bot|kerak)\b` +
			`|\b(?:odam|kishi|passajir)\s+` + numberWord + `\s+(?:bor|bot|kerak)\b` +
			`|\b(?:bor|bot|kerak)\s+` + numberWord + `\s*(?:odam|kishi|passajir)\b`)
	routeRequestPattern = regexp.MustCompile(
		`\b[a-z0-9]{3,}dan\b.*\b(?:yuradigan|ketadigan)\s+(?:kim\s+bor|bormi(?:kan)?)\b`)
	yuramizPattern = regexp.MustCompile(`\b(?:yuramiz|yuryamiz)\b`)
)

var stemSuffixes = []string{"lardan", "dan", "ga", "ni", "da"}

// compiledVocab holds the alternation regexes derived from one keyword
// snapshot version.
type compiledVocab struct {
	transport *regexp.Regexp
	request   *regexp.Regexp
	offer     *regexp.Regexp
	exclude   *regexp.Regexp
	location  *regexp.Regexp

	locationSet keywords.Set
}

func compileVocab(snapshot *keywords.Snapshot) *compiledVocab {
	return &compiledVocab{
		transport:   compileAlternation(snapshot.Transport),
		request:     compileAlternation(snapshot.Request),
		offer:       compileAlternation(snapshot.Offer),
		exclude:     compileAlternation(snapshot.Exclude),
		location:    compileAlternation(snapshot.Location),
		locationSet: snapshot.Location,
	}
}

// compileAlternation turns a vocabulary set into a word-boundary
// alternation. An empty set compiles to a pattern that never matches
// non-empty input; empty input is rejected before any vocabulary
// check.
func compileAlternation(set keywords.Set) *regexp.Regexp {
	words := set.Sorted()
	if len(words) == 0 {
		return regexp.MustCompile(`$^`)
	}

	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}

	sort.Strings(quoted)

	return regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
}

// Engine classifies candidate messages. Safe for concurrent use; the
// compiled vocabulary is rebuilt lazily when the keyword snapshot
// version changes, and readers keep using the previous build while a
// rebuild is in flight.
type Engine struct {
	minLength int
	keywordsp KeywordSource
	configsp  ConfigSource
	geo       *geo.Resolver

	mu           sync.Mutex
	vocabVersion uint64
	vocabLoaded  bool
	vocab        *compiledVocab
}

func NewEngine(minLength int, keywordSource KeywordSource, configSource ConfigSource) *Engine {
	return &Engine{
		minLength: minLength,
		keywordsp: keywordSource,
		configsp:  configSource,
		geo:       geo.NewResolver(),
	}
}

func (e *Engine) currentVocab() *compiledVocab {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.keywordsp == nil {
		if !e.vocabLoaded {
			e.vocab = compileVocab(fallbackSnapshot())
			e.vocabLoaded = true
		}

		return e.vocab
	}

	snapshot := e.keywordsp.Snapshot()
	if !e.vocabLoaded || snapshot.Version != e.vocabVersion {
		e.vocab = compileVocab(snapshot)
		e.vocabVersion = snapshot.Version
		e.vocabLoaded = true
	}

	return e.vocab
}

func fallbackSnapshot() *keywords.Snapshot {
	defaults := keywords.Defaults()

	return &keywords.Snapshot{
		Transport: keywords.NewSet(defaults[keywords.KindTransport]...),
		Request:   keywords.NewSet(defaults[keywords.KindRequest]...),
		Offer:     keywords.NewSet(defaults[keywords.KindOffer]...),
		Exclude:   keywords.NewSet(defaults[keywords.KindExclude]...),
		Location:  keywords.NewSet(defaults[keywords.KindLocation]...),
		Route:     keywords.NewSet(defaults[keywords.KindRoute]...),
	}
}

func (e *Engine) currentMinLength() int {
	if e.configsp != nil {
		return e.configsp.Snapshot().MinTextLength
	}

	return e.minLength
}

// Decide classifies one message. The normalized text drives all
// vocabulary and phrase checks; the raw text is additionally consulted
// for contact details because normalization strips the characters
// phones and usernames are written with.
func (e *Engine) Decide(msg *domain.NormalizedMessage) domain.Decision {
	v := e.currentVocab()
	text := msg.NormalizedText

	if text == "" {
		return reject(ReasonEmptyText)
	}

	hasShortOrder := shortOrderPattern.MatchString(text)
	hasRoute := routePattern.MatchString(text) || suffixRoutePattern.MatchString(text)

	if len(text) < e.currentMinLength() && !hasRoute && !hasShortOrder {
		return reject(ReasonTooShort)
	}

	hasTransport := v.transport.MatchString(text)
	hasRequest := v.request.MatchString(text)
	hasOffer := v.offer.MatchString(text)
	hasExclude := v.exclude.MatchString(text)
	hasRequestPhrase := requestPhrasePattern.MatchString(text)
	hasOfferContext := offerContextPattern.MatchString(text)
	hasVehicleModel := vehicleModelPattern.MatchString(text)
	hasPeople := peoplePattern.MatchString(text)
	hasPassengerNeeded := passengerNeededPattern.MatchString(text)
	hasPassengerAnnouncement := passengerAnnouncementPattern.MatchString(text)
	hasBorPeople := borPeoplePattern.MatchString(text)
	hasRouteRequest := routeRequestPattern.MatchString(text)
	hasYuramiz := yuramizPattern.MatchString(text)

	regionMatch := e.geo.Detect(text)
	hasLocation := regionMatch != nil || v.location.MatchString(text) || e.stemmedLocationHit(v, text)

	hasContact := HasPhone(msg.Envelope.RawText) || HasPhone(text) || HasUsername(msg.Envelope.RawText)

	hasOrderAnnouncement := (hasRoute && (hasPassengerAnnouncement || hasBorPeople)) ||
		hasRouteRequest ||
		(hasRoute && hasRequestPhrase && hasPeople) ||
		hasShortOrder

	if hasExclude {
		return reject(ReasonExcludedCategory)
	}

	if !hasContact && !hasOrderAnnouncement {
		return reject(ReasonNoContact)
	}

	if hasOffer && !hasRequestPhrase {
		return reject(ReasonTaxiOffer)
	}

	if hasYuramiz {
		return reject(ReasonTaxiOffer)
	}

	offerDominant := hasOfferContext ||
		hasVehicleModel ||
		(hasOffer && hasPassengerNeeded) ||
		(hasPassengerNeeded && hasRoute && hasTransport)

	if offerDominant && !hasRequestPhrase {
		return reject(ReasonTaxiOffer)
	}

	score := 0

	if hasRequestPhrase {
		score += 2
	} else if hasRequest {
		score++
	}

	if hasTransport {
		score++
	}

	if hasRoute {
		score += 2
	}

	if hasOrderAnnouncement {
		score += 2
	}

	if hasLocation {
		score++
	}

	if hasPeople {
		score++
	}

	if hasContact {
		score++
	}

	orderSignal := hasRequestPhrase || hasRequest || hasOrderAnnouncement || (hasTransport && hasRoute)

	if (hasOrderAnnouncement && !offerDominant) || (score >= 5 && orderSignal && !offerDominant) {
		tag := defaultRegionTag
		if regionMatch != nil {
			tag = regionMatch.Hashtag
		}

		return domain.Decision{
			ShouldForward: true,
			ShouldReply:   false,
			Reason:        ReasonTaxiOrder,
			RegionTag:     tag,
		}
	}

	return reject(ReasonNoOrderPattern)
}

func (e *Engine) stemmedLocationHit(v *compiledVocab, text string) bool {
	for _, token := range strings.Split(text, " ") {
		if v.locationSet.Contains(stemToken(token)) {
			return true
		}
	}

	return false
}

func stemToken(token string) string {
	for _, suffix := range stemSuffixes {
		if strings.HasSuffix(token, suffix) && len(token) > len(suffix)+2 {
			return token[:len(token)-len(suffix)]
		}
	}

	return token
}

func reject(reason string) domain.Decision {
	return domain.Decision{Reason: reason}
}
