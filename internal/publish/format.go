package publish

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultRegionTag = "#Uzbekiston"
	emptyBodyText    = "(matn topilmadi)"
	privateSource    = "private chat"

	// Telegram caps messages at 4096 chars; stay under that with
	// headroom for the header and separators.
	maxMessageLength = 3900
	minBodyLength    = 120
)

// FormatMessage renders the outbound order announcement. Long bodies
// are truncated so the region tag and source line always survive.
func FormatMessage(rawText, sourceLink, regionTag string) string {
	region := regionTag
	if region == "" {
		region = defaultRegionTag
	}

	body := strings.TrimSpace(rawText)
	if body == "" {
		body = emptyBodyText
	}

	source := sourceLink
	if source == "" {
		source = privateSource
	}

	message := strings.Join([]string{
		"Taxi buyurtma:",
		body,
		region,
		"Manba: " + source,
	}, "\n\n")

	if len(message) <= maxMessageLength {
		return message
	}

	tail := fmt.Sprintf("\n\n%s\n\nManba: %s", region, source)

	headLimit := maxMessageLength - len(tail) - 24
	if headLimit < minBodyLength {
		headLimit = minBodyLength
	}

	if len(body) > headLimit {
		body = body[:headLimit] + "..."
	}

	return "Taxi buyurtma:\n\n" + body + tail
}

// BuildSourceLink returns a t.me permalink for the message, or an
// empty string when the chat has neither a username nor a supergroup
// style id.
func BuildSourceLink(chatUsername string, chatID, messageID int64) string {
	username := strings.TrimPrefix(strings.TrimSpace(chatUsername), "@")
	if username != "" {
		return fmt.Sprintf("https://t.me/%s/%d", username, messageID)
	}

	absID := chatID
	if absID < 0 {
		absID = -absID
	}

	absText := strconv.FormatInt(absID, 10)
	if strings.HasPrefix(absText, "100") && len(absText) > 3 {
		return fmt.Sprintf("https://t.me/c/%s/%d", absText[3:], messageID)
	}

	return ""
}
