package reader

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	db "github.com/lueurxax/taxi-order-bot/internal/storage"
)

const prioritySeedNote = db.InviteNotePrioritySeed

var (
	tmePathPattern    = regexp.MustCompile(`^(?:https?://)?t\.me/(.+)$`)
	inviteHashPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{16,64}$`)
	usernamePattern   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{4,32}$`)
)

// GroupLinkKind tells how a configured group link should be handled.
type GroupLinkKind int

const (
	LinkInvalid GroupLinkKind = iota
	LinkInvite
	LinkUsername
)

// GroupLink is one parsed priority group entry.
type GroupLink struct {
	Kind GroupLinkKind

	// InviteLink is set for private invites, normalized to the
	// https://t.me/+hash form.
	InviteLink string

	// Username is set for public groups, lowercased without the @.
	Username string
}

// ParseGroupLink classifies a configured t.me link or bare username.
func ParseGroupLink(raw string) GroupLink {
	value := strings.TrimSpace(raw)
	if value == "" {
		return GroupLink{Kind: LinkInvalid}
	}

	segment := strings.TrimPrefix(value, "@")

	if m := tmePathPattern.FindStringSubmatch(value); m != nil {
		segment = strings.Trim(m[1], "/")
	}

	if hash, ok := strings.CutPrefix(segment, "+"); ok {
		return inviteFromHash(hash)
	}

	if hash, ok := strings.CutPrefix(segment, "joinchat/"); ok {
		return inviteFromHash(hash)
	}

	// A bare hash is told apart from a username by shape: invite
	// hashes mix cases and digits and never contain underscores.
	if inviteHashPattern.MatchString(segment) && !strings.Contains(segment, "_") &&
		strings.ContainsAny(segment, "abcdefghijklmnopqrstuvwxyz") &&
		strings.ContainsAny(segment, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") &&
		strings.ContainsAny(segment, "0123456789") {
		return GroupLink{Kind: LinkInvite, InviteLink: "https://t.me/+" + segment}
	}

	if usernamePattern.MatchString(segment) {
		return GroupLink{Kind: LinkUsername, Username: strings.ToLower(segment)}
	}

	return GroupLink{Kind: LinkInvalid}
}

func inviteFromHash(hash string) GroupLink {
	if !inviteHashPattern.MatchString(hash) {
		return GroupLink{Kind: LinkInvalid}
	}

	return GroupLink{Kind: LinkInvite, InviteLink: "https://t.me/+" + hash}
}

// SeedPriorityGroups registers the operator-configured groups so the
// invite and join workers pick them up first.
func SeedPriorityGroups(ctx context.Context, database Repository, links []string, logger *zerolog.Logger) error {
	seeded := 0

	for _, raw := range links {
		link := ParseGroupLink(raw)

		switch link.Kind {
		case LinkInvite:
			if err := database.UpsertPrivateInviteLink(ctx, link.InviteLink, nil, prioritySeedNote, true); err != nil {
				return fmt.Errorf("seeding invite %q: %w", link.InviteLink, err)
			}

			seeded++
		case LinkUsername:
			if _, err := database.UpsertPublicGroupUsername(ctx, link.Username, prioritySeedNote, prioritySeedNote); err != nil {
				return fmt.Errorf("seeding group %q: %w", link.Username, err)
			}

			seeded++
		case LinkInvalid:
			logger.Warn().Str("link", raw).Msg("unrecognized priority group link")
		}
	}

	if seeded > 0 {
		logger.Info().Int("count", seeded).Msg("priority groups seeded")
	}

	return nil
}
