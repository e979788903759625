package reader

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroupLink(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want GroupLink
	}{
		{
			name: "plus invite",
			raw:  "https://t.me/+AbCdEf12345678gh",
			want: GroupLink{Kind: LinkInvite, InviteLink: "https://t.me/+AbCdEf12345678gh"},
		},
		{
			name: "joinchat invite",
			raw:  "t.me/joinchat/AbCdEf12345678gh",
			want: GroupLink{Kind: LinkInvite, InviteLink: "https://t.me/+AbCdEf12345678gh"},
		},
		{
			name: "bare invite hash",
			raw:  "https://t.me/AbCdEf12345678gh",
			want: GroupLink{Kind: LinkInvite, InviteLink: "https://t.me/+AbCdEf12345678gh"},
		},
		{
			name: "public username link",
			raw:  "https://t.me/taxi_toshkent",
			want: GroupLink{Kind: LinkUsername, Username: "taxi_toshkent"},
		},
		{
			name: "bare username",
			raw:  "Taxi_Samarqand",
			want: GroupLink{Kind: LinkUsername, Username: "taxi_samarqand"},
		},
		{
			name: "at prefixed username",
			raw:  "@taxi_andijon",
			want: GroupLink{Kind: LinkUsername, Username: "taxi_andijon"},
		},
		{
			name: "short invite hash rejected",
			raw:  "https://t.me/+short",
			want: GroupLink{Kind: LinkInvalid},
		},
		{
			name: "empty",
			raw:  "  ",
			want: GroupLink{Kind: LinkInvalid},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseGroupLink(tt.raw))
		})
	}
}

type seedRepo struct {
	Repository

	invites   []string
	usernames []string
}

func (r *seedRepo) UpsertPrivateInviteLink(_ context.Context, inviteLink string, _ *int64, _ string, _ bool) error {
	r.invites = append(r.invites, inviteLink)

	return nil
}

func (r *seedRepo) UpsertPublicGroupUsername(_ context.Context, username, _, _ string) (int64, error) {
	r.usernames = append(r.usernames, username)

	return 1, nil
}

func TestSeedPriorityGroups(t *testing.T) {
	repo := &seedRepo{}
	logger := zerolog.Nop()

	err := SeedPriorityGroups(context.Background(), repo, []string{
		"https://t.me/+AbCdEf12345678gh",
		"@taxi_fargona",
		"not a link at all!",
	}, &logger)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://t.me/+AbCdEf12345678gh"}, repo.invites)
	assert.Equal(t, []string{"taxi_fargona"}, repo.usernames)
}

func TestChatIDMapping(t *testing.T) {
	signed := chatID(1234567890)
	assert.Equal(t, int64(-1001234567890), signed)
	assert.Equal(t, int64(1234567890), channelID(signed))

	assert.Zero(t, channelID(777000))
	assert.Zero(t, channelID(-5))
}

func TestSanitizePhone(t *testing.T) {
	r := &Reader{}

	assert.Equal(t, "+998901234567", r.sanitizePhone(" +998 90 123-45-67 "))
	assert.Equal(t, "998901234567", r.sanitizePhone("998901234567"))
	assert.Equal(t, "****", r.maskPhone("123"))
	assert.Equal(t, "+99****67", r.maskPhone("+998901234567"))
}
