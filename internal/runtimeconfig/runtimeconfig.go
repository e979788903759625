// Package runtimeconfig serves operational settings that admins can
// change without restarting the bot. Values start from the process
// configuration, are overridden by database rows, and are published to
// readers as immutable versioned snapshots.
package runtimeconfig

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Config keys accepted by Set and SetMany.
const (
	KeyForwardTarget       = "forward_target"
	KeyMinTextLength       = "min_text_length"
	KeyPerGroupActionsHour = "per_group_actions_hour"
	KeyPerGroupReplies10m  = "per_group_replies_10m"
	KeyJoinLimitDay        = "join_limit_day"
	KeyGlobalActionsMinute = "global_actions_minute"
	KeyMinHumanDelaySec    = "min_human_delay_sec"
	KeyMaxHumanDelaySec    = "max_human_delay_sec"
	KeyDiscoveryEnabled    = "discovery_enabled"
	KeyDiscoveryQueryLimit = "discovery_query_limit"
	KeyDiscoveryJoinBatch  = "discovery_join_batch"
	KeyDiscoveryQueries    = "discovery_queries"
)

// Keys lists all config keys in display order.
var Keys = []string{
	KeyForwardTarget,
	KeyMinTextLength,
	KeyPerGroupActionsHour,
	KeyPerGroupReplies10m,
	KeyJoinLimitDay,
	KeyGlobalActionsMinute,
	KeyMinHumanDelaySec,
	KeyMaxHumanDelaySec,
	KeyDiscoveryEnabled,
	KeyDiscoveryQueryLimit,
	KeyDiscoveryJoinBatch,
	KeyDiscoveryQueries,
}

const maxDiscoveryQueries = 200

// Snapshot is an immutable view of the runtime settings.
type Snapshot struct {
	ForwardTarget       string   `json:"forward_target"`
	MinTextLength       int      `json:"min_text_length"`
	PerGroupActionsHour int      `json:"per_group_actions_hour"`
	PerGroupReplies10m  int      `json:"per_group_replies_10m"`
	JoinLimitDay        int      `json:"join_limit_day"`
	GlobalActionsMinute int      `json:"global_actions_minute"`
	MinHumanDelaySec    float64  `json:"min_human_delay_sec"`
	MaxHumanDelaySec    float64  `json:"max_human_delay_sec"`
	DiscoveryEnabled    bool     `json:"discovery_enabled"`
	DiscoveryQueryLimit int      `json:"discovery_query_limit"`
	DiscoveryJoinBatch  int      `json:"discovery_join_batch"`
	DiscoveryQueries    []string `json:"discovery_queries"`
	Version             uint64   `json:"version"`
}

// MinHumanDelay returns the lower bound of the humanized send delay.
func (s *Snapshot) MinHumanDelay() time.Duration {
	return time.Duration(s.MinHumanDelaySec * float64(time.Second))
}

// MaxHumanDelay returns the upper bound of the humanized send delay.
func (s *Snapshot) MaxHumanDelay() time.Duration {
	return time.Duration(s.MaxHumanDelaySec * float64(time.Second))
}

// Repository persists config overrides.
type Repository interface {
	FetchRuntimeConfig(ctx context.Context) (map[string]string, error)
	UpsertRuntimeConfig(ctx context.Context, key, value string) error
}

// Service serves runtime config snapshots. Reads are lock-free.
type Service struct {
	repo   Repository
	logger zerolog.Logger

	mu       sync.Mutex
	version  uint64
	snapshot atomic.Pointer[Snapshot]
}

func NewService(initial Snapshot, repo Repository, logger zerolog.Logger) *Service {
	s := &Service{repo: repo, logger: logger}
	initial.Version = 0
	s.snapshot.Store(&initial)

	return s
}

// Initialize overlays database overrides onto the initial settings.
// Invalid stored values are logged and skipped so one bad row cannot
// take the bot down.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.repo.FetchRuntimeConfig(ctx)
	if err != nil {
		return fmt.Errorf("fetch runtime config: %w", err)
	}

	current := *s.snapshot.Load()

	for _, key := range Keys {
		raw, ok := stored[key]
		if !ok {
			continue
		}

		if err := applyValue(&current, key, raw); err != nil {
			s.logger.Warn().Str("config_key", key).Err(err).Msg("invalid stored runtime config value")
		}
	}

	if err := validateDelays(&current); err != nil {
		s.logger.Warn().Err(err).Msg("stored delay bounds inconsistent, keeping defaults")

		initial := *s.snapshot.Load()
		current.MinHumanDelaySec = initial.MinHumanDelaySec
		current.MaxHumanDelaySec = initial.MaxHumanDelaySec
	}

	s.publish(&current)

	return nil
}

func (s *Service) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Values renders the current settings as strings keyed for display.
func (s *Service) Values() map[string]string {
	snapshot := s.snapshot.Load()

	values := make(map[string]string, len(Keys))
	for _, key := range Keys {
		values[key] = serializeValue(snapshot, key)
	}

	return values
}

// Set validates and applies one key, persisting the override.
func (s *Service) Set(ctx context.Context, key, value string) (*Snapshot, error) {
	return s.SetMany(ctx, map[string]string{key: value})
}

// SetMany validates and applies several keys atomically. Either all
// values are valid together or nothing changes.
func (s *Service) SetMany(ctx context.Context, values map[string]string) (*Snapshot, error) {
	for key := range values {
		if !validKey(key) {
			return nil, fmt.Errorf("invalid config key %q", key)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := *s.snapshot.Load()

	for key, raw := range values {
		if err := applyValue(&current, key, raw); err != nil {
			return nil, fmt.Errorf("config key %q: %w", key, err)
		}
	}

	if err := validateDelays(&current); err != nil {
		return nil, err
	}

	snapshot := s.publish(&current)

	for key := range values {
		if err := s.repo.UpsertRuntimeConfig(ctx, key, serializeValue(snapshot, key)); err != nil {
			return nil, fmt.Errorf("persist config key %q: %w", key, err)
		}
	}

	return snapshot, nil
}

func (s *Service) publish(current *Snapshot) *Snapshot {
	s.version++

	snapshot := *current
	snapshot.Version = s.version
	snapshot.DiscoveryQueries = append([]string(nil), current.DiscoveryQueries...)
	s.snapshot.Store(&snapshot)

	return &snapshot
}

func validKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}

	return false
}

func applyValue(current *Snapshot, key, raw string) error {
	switch key {
	case KeyForwardTarget:
		value := strings.TrimSpace(raw)
		if value == "" || len(value) > 120 {
			return fmt.Errorf("forward target must be 1-120 characters")
		}

		current.ForwardTarget = value
	case KeyMinTextLength:
		return applyInt(&current.MinTextLength, raw, 4, 300)
	case KeyPerGroupActionsHour:
		return applyInt(&current.PerGroupActionsHour, raw, 0, 1000)
	case KeyPerGroupReplies10m:
		return applyInt(&current.PerGroupReplies10m, raw, 0, 30)
	case KeyJoinLimitDay:
		return applyInt(&current.JoinLimitDay, raw, 0, 20)
	case KeyGlobalActionsMinute:
		return applyInt(&current.GlobalActionsMinute, raw, 0, 1000)
	case KeyMinHumanDelaySec:
		return applyFloat(&current.MinHumanDelaySec, raw, 0.2, 30.0)
	case KeyMaxHumanDelaySec:
		return applyFloat(&current.MaxHumanDelaySec, raw, 0.2, 60.0)
	case KeyDiscoveryEnabled:
		enabled, err := parseBool(raw)
		if err != nil {
			return err
		}

		current.DiscoveryEnabled = enabled
	case KeyDiscoveryQueryLimit:
		return applyInt(&current.DiscoveryQueryLimit, raw, 1, 100)
	case KeyDiscoveryJoinBatch:
		return applyInt(&current.DiscoveryJoinBatch, raw, 1, 30)
	case KeyDiscoveryQueries:
		queries, err := ParseQueries(raw)
		if err != nil {
			return err
		}

		current.DiscoveryQueries = queries
	default:
		return fmt.Errorf("invalid config key %q", key)
	}

	return nil
}

func applyInt(dst *int, raw string, minValue, maxValue int) error {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("not an integer: %w", err)
	}

	if value < minValue || value > maxValue {
		return fmt.Errorf("value %d out of range [%d, %d]", value, minValue, maxValue)
	}

	*dst = value

	return nil
}

func applyFloat(dst *float64, raw string, minValue, maxValue float64) error {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("not a number: %w", err)
	}

	if value < minValue || value > maxValue {
		return fmt.Errorf("value %g out of range [%g, %g]", value, minValue, maxValue)
	}

	*dst = value

	return nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}

	return false, fmt.Errorf("not a boolean: %q", raw)
}

func validateDelays(current *Snapshot) error {
	if current.MaxHumanDelaySec < current.MinHumanDelaySec {
		return fmt.Errorf("max human delay %g below min %g",
			current.MaxHumanDelaySec, current.MinHumanDelaySec)
	}

	return nil
}

// ParseQueries splits a comma or newline separated query list,
// collapses whitespace, and drops case-insensitive duplicates.
func ParseQueries(raw string) ([]string, error) {
	var queries []string

	seen := make(map[string]bool)

	for _, chunk := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	}) {
		query := strings.Join(strings.Fields(chunk), " ")
		if query == "" {
			continue
		}

		key := strings.ToLower(query)
		if seen[key] {
			continue
		}

		seen[key] = true

		queries = append(queries, query)
		if len(queries) >= maxDiscoveryQueries {
			break
		}
	}

	if len(queries) == 0 {
		return nil, fmt.Errorf("discovery queries must not be empty")
	}

	return queries, nil
}

func serializeValue(s *Snapshot, key string) string {
	switch key {
	case KeyForwardTarget:
		return s.ForwardTarget
	case KeyMinTextLength:
		return strconv.Itoa(s.MinTextLength)
	case KeyPerGroupActionsHour:
		return strconv.Itoa(s.PerGroupActionsHour)
	case KeyPerGroupReplies10m:
		return strconv.Itoa(s.PerGroupReplies10m)
	case KeyJoinLimitDay:
		return strconv.Itoa(s.JoinLimitDay)
	case KeyGlobalActionsMinute:
		return strconv.Itoa(s.GlobalActionsMinute)
	case KeyMinHumanDelaySec:
		return strconv.FormatFloat(s.MinHumanDelaySec, 'g', -1, 64)
	case KeyMaxHumanDelaySec:
		return strconv.FormatFloat(s.MaxHumanDelaySec, 'g', -1, 64)
	case KeyDiscoveryEnabled:
		return strconv.FormatBool(s.DiscoveryEnabled)
	case KeyDiscoveryQueryLimit:
		return strconv.Itoa(s.DiscoveryQueryLimit)
	case KeyDiscoveryJoinBatch:
		return strconv.Itoa(s.DiscoveryJoinBatch)
	case KeyDiscoveryQueries:
		return strings.Join(s.DiscoveryQueries, ",")
	}

	return ""
}
