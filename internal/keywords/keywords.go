// Package keywords manages the dynamic keyword vocabulary used by the
// filtering layers. Keywords are grouped into kinds, persisted in the
// database, and exposed to readers as immutable versioned snapshots.
package keywords

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/lueurxax/taxi-order-bot/internal/textnorm"
)

// ErrInvalidKind is returned by Add and Delete for a kind outside Kinds.
var ErrInvalidKind = errors.New("invalid keyword kind")

const (
	KindTransport = "transport"
	KindRequest   = "request"
	KindOffer     = "offer"
	KindExclude   = "exclude"
	KindLocation  = "location"
	KindRoute     = "route"
)

// Kinds lists the valid keyword kinds in display order.
var Kinds = []string{KindTransport, KindRequest, KindOffer, KindExclude, KindLocation, KindRoute}

// Set is a keyword vocabulary for one kind.
type Set map[string]struct{}

func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}

	return s
}

func (s Set) Contains(value string) bool {
	_, ok := s[value]
	return ok
}

func (s Set) Sorted() []string {
	values := make([]string, 0, len(s))
	for v := range s {
		values = append(values, v)
	}

	sort.Strings(values)

	return values
}

// Snapshot is an immutable view of the vocabulary. Filters hold a
// snapshot and compare versions to decide when to rebuild derived
// indexes.
type Snapshot struct {
	Transport Set
	Request   Set
	Offer     Set
	Exclude   Set
	Location  Set
	Route     Set
	Version   uint64
}

func (s *Snapshot) Kind(kind string) Set {
	switch kind {
	case KindTransport:
		return s.Transport
	case KindRequest:
		return s.Request
	case KindOffer:
		return s.Offer
	case KindExclude:
		return s.Exclude
	case KindLocation:
		return s.Location
	case KindRoute:
		return s.Route
	}

	return nil
}

// Repository persists keyword rules.
type Repository interface {
	EnsureDefaultKeywordRules(ctx context.Context, defaults map[string][]string) error
	FetchKeywordRules(ctx context.Context) (map[string][]string, error)
	UpsertKeywordRule(ctx context.Context, kind, value string) error
	DeleteKeywordRule(ctx context.Context, kind, value string) (bool, error)
}

// Store serves keyword snapshots. Reads are lock-free; mutations go
// through the repository and publish a fresh snapshot with a bumped
// version.
type Store struct {
	repo Repository

	mu       sync.Mutex
	version  uint64
	snapshot atomic.Pointer[Snapshot]
}

func NewStore(repo Repository) *Store {
	s := &Store{repo: repo}
	s.snapshot.Store(defaultSnapshot())

	return s
}

// Initialize seeds missing default rules and loads the vocabulary.
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.repo.EnsureDefaultKeywordRules(ctx, Defaults()); err != nil {
		return fmt.Errorf("ensure default keyword rules: %w", err)
	}

	if _, err := s.Reload(ctx); err != nil {
		return err
	}

	return nil
}

func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grouped, err := s.repo.FetchKeywordRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch keyword rules: %w", err)
	}

	s.version++
	snapshot := &Snapshot{
		Transport: NewSet(grouped[KindTransport]...),
		Request:   NewSet(grouped[KindRequest]...),
		Offer:     NewSet(grouped[KindOffer]...),
		Exclude:   NewSet(grouped[KindExclude]...),
		Location:  NewSet(grouped[KindLocation]...),
		Route:     NewSet(grouped[KindRoute]...),
		Version:   s.version,
	}
	s.snapshot.Store(snapshot)

	return snapshot, nil
}

// Add normalizes the value, stores each resulting token under the
// given kind, and returns the stored tokens.
func (s *Store) Add(ctx context.Context, kind, value string) ([]string, error) {
	if !validKind(kind) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	tokens := textnorm.Tokenize(textnorm.Normalize(value))
	if len(tokens) == 0 {
		return nil, nil
	}

	for _, token := range tokens {
		if err := s.repo.UpsertKeywordRule(ctx, kind, token); err != nil {
			return nil, fmt.Errorf("upsert keyword rule: %w", err)
		}
	}

	if _, err := s.Reload(ctx); err != nil {
		return nil, err
	}

	return tokens, nil
}

// Delete removes the normalized tokens of value from the given kind
// and returns the tokens that were actually present.
func (s *Store) Delete(ctx context.Context, kind, value string) ([]string, error) {
	if !validKind(kind) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	var deleted []string

	for _, token := range textnorm.Tokenize(textnorm.Normalize(value)) {
		removed, err := s.repo.DeleteKeywordRule(ctx, kind, token)
		if err != nil {
			return nil, fmt.Errorf("delete keyword rule: %w", err)
		}

		if removed {
			deleted = append(deleted, token)
		}
	}

	if _, err := s.Reload(ctx); err != nil {
		return nil, err
	}

	return deleted, nil
}

// List returns the current vocabulary sorted per kind.
func (s *Store) List() map[string][]string {
	snapshot := s.Snapshot()
	listed := make(map[string][]string, len(Kinds))

	for _, kind := range Kinds {
		listed[kind] = snapshot.Kind(kind).Sorted()
	}

	return listed
}

func validKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}

	return false
}
