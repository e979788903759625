package bot

import (
	"fmt"
	"strings"

	db "github.com/lueurxax/taxi-order-bot/internal/storage"
)

const welcomeText = "Obuna muvaffaqiyatli yoqildi.\n" +
	"Buyruqlar:\n" +
	"/start - obunani yoqish\n" +
	"/stop - obunani to'xtatish\n" +
	"/help - yordam"

const helpText = "Buyruqlar:\n" +
	"/start\n" +
	"/stop\n" +
	"/help\n" +
	"/stats (admin)\n" +
	"/subscribers (admin)\n" +
	"/broadcast <text> (admin)\n" +
	"/kw <list|add|del|reload> (admin)\n" +
	"/config <get|set> (admin)"

const deniedText = "Ruxsat yo'q."

const keywordUsageText = "Foydalanish: /kw list | /kw add <kind> <value> | /kw del <kind> <value> | /kw reload"

func statsText(stats db.ActionStats, subscribersActive, subscribersTotal int64) string {
	lines := []string{
		"Bot statistikasi:",
		fmt.Sprintf("Publish (1h): %d", stats.Published1h),
		fmt.Sprintf("Publish (24h): %d", stats.Published24h),
		fmt.Sprintf("Edit (24h): %d", stats.Edited24h),
		fmt.Sprintf("Join (24h): %d", stats.Joins24h),
		fmt.Sprintf("Error (24h): %d", stats.Errors24h),
		fmt.Sprintf("Total action (24h): %d", stats.Total24h),
		fmt.Sprintf("Subscribers active/total: %d/%d", subscribersActive, subscribersTotal),
	}

	return strings.Join(lines, "\n")
}

func subscribersText(subs []db.BotSubscriber, active, total int64) string {
	if len(subs) == 0 {
		return fmt.Sprintf("Subscriberlar yo'q. Active/total: %d/%d", active, total)
	}

	lines := []string{
		fmt.Sprintf("Subscribers active/total: %d/%d", active, total),
		"Oxirgi 20 ta:",
	}

	for _, sub := range subs {
		lines = append(lines, subscriberLine(sub))
	}

	return strings.Join(lines, "\n")
}

func subscriberLine(sub db.BotSubscriber) string {
	username := "-"
	if sub.Username != nil && *sub.Username != "" {
		username = "@" + *sub.Username
	}

	status := "inactive"
	if sub.Active {
		status = "active"
	}

	return fmt.Sprintf("%d %s %s", sub.UserID, username, status)
}

func isPermanentSubscriberError(errorText string) bool {
	lowered := strings.ToLower(errorText)

	return strings.Contains(lowered, "bot was blocked by the user") ||
		strings.Contains(lowered, "chat not found") ||
		strings.Contains(lowered, "forbidden") ||
		strings.Contains(lowered, "user is deactivated")
}
