package runtimeconfig

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	stored map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{stored: make(map[string]string)}
}

func (f *fakeRepo) FetchRuntimeConfig(_ context.Context) (map[string]string, error) {
	return f.stored, nil
}

func (f *fakeRepo) UpsertRuntimeConfig(_ context.Context, key, value string) error {
	f.stored[key] = value
	return nil
}

func testInitial() Snapshot {
	return Snapshot{
		ForwardTarget:       "me",
		MinTextLength:       18,
		PerGroupActionsHour: 15,
		PerGroupReplies10m:  3,
		JoinLimitDay:        2,
		GlobalActionsMinute: 25,
		MinHumanDelaySec:    1.8,
		MaxHumanDelaySec:    6.2,
		DiscoveryEnabled:    true,
		DiscoveryQueryLimit: 20,
		DiscoveryJoinBatch:  4,
		DiscoveryQueries:    []string{"taxi tashkent", "taksi toshkent"},
	}
}

func newService(repo Repository) *Service {
	return NewService(testInitial(), repo, zerolog.Nop())
}

func TestInitializeOverlaysStoredValues(t *testing.T) {
	repo := newFakeRepo()
	repo.stored[KeyMinTextLength] = "25"
	repo.stored[KeyDiscoveryEnabled] = "off"
	repo.stored[KeyPerGroupActionsHour] = "not a number"
	repo.stored["mystery_key"] = "ignored"

	svc := newService(repo)
	require.NoError(t, svc.Initialize(context.Background()))

	snapshot := svc.Snapshot()
	require.Equal(t, 25, snapshot.MinTextLength)
	require.False(t, snapshot.DiscoveryEnabled)
	// The unparsable row is skipped, the default stays.
	require.Equal(t, 15, snapshot.PerGroupActionsHour)
	require.Equal(t, uint64(1), snapshot.Version)
}

func TestSetPersistsAndBumpsVersion(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)
	require.NoError(t, svc.Initialize(context.Background()))

	snapshot, err := svc.Set(context.Background(), KeyJoinLimitDay, "5")
	require.NoError(t, err)
	require.Equal(t, 5, snapshot.JoinLimitDay)
	require.Equal(t, uint64(2), snapshot.Version)
	require.Equal(t, "5", repo.stored[KeyJoinLimitDay])
}

func TestSetRejectsOutOfRange(t *testing.T) {
	svc := newService(newFakeRepo())
	require.NoError(t, svc.Initialize(context.Background()))

	before := svc.Snapshot()

	_, err := svc.Set(context.Background(), KeyMinTextLength, "2")
	require.Error(t, err)
	require.Same(t, before, svc.Snapshot())
}

func TestSetRejectsUnknownKey(t *testing.T) {
	svc := newService(newFakeRepo())

	_, err := svc.Set(context.Background(), "unknown", "1")
	require.Error(t, err)
}

func TestSetManyRejectsInvertedDelays(t *testing.T) {
	svc := newService(newFakeRepo())
	require.NoError(t, svc.Initialize(context.Background()))

	_, err := svc.SetMany(context.Background(), map[string]string{
		KeyMinHumanDelaySec: "10",
		KeyMaxHumanDelaySec: "5",
	})
	require.Error(t, err)

	snapshot := svc.Snapshot()
	require.Equal(t, 1.8, snapshot.MinHumanDelaySec)
	require.Equal(t, 6.2, snapshot.MaxHumanDelaySec)
}

func TestSetManyAppliesTogether(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)
	require.NoError(t, svc.Initialize(context.Background()))

	snapshot, err := svc.SetMany(context.Background(), map[string]string{
		KeyMinHumanDelaySec: "2.5",
		KeyMaxHumanDelaySec: "9",
	})
	require.NoError(t, err)
	require.Equal(t, 2.5, snapshot.MinHumanDelaySec)
	require.Equal(t, 9.0, snapshot.MaxHumanDelaySec)
	require.Equal(t, "2.5", repo.stored[KeyMinHumanDelaySec])
}

func TestParseQueries(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
		wantErr  bool
	}{
		{
			name:     "comma separated",
			raw:      "taxi tashkent, taksi toshkent",
			expected: []string{"taxi tashkent", "taksi toshkent"},
		},
		{
			name:     "newlines and duplicates",
			raw:      "taxi nukus\nTAXI  NUKUS\ntaxi urganch",
			expected: []string{"taxi nukus", "taxi urganch"},
		},
		{
			name:    "empty",
			raw:     " , ,\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQueries(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestSetDiscoveryQueries(t *testing.T) {
	svc := newService(newFakeRepo())
	require.NoError(t, svc.Initialize(context.Background()))

	snapshot, err := svc.Set(context.Background(), KeyDiscoveryQueries, "taxi jizzax,taxi termiz")
	require.NoError(t, err)
	require.Equal(t, []string{"taxi jizzax", "taxi termiz"}, snapshot.DiscoveryQueries)
}
