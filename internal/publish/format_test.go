package publish

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMessage(t *testing.T) {
	msg := FormatMessage("Toshkentdan Samarqandga 2 kishi kerak", "https://t.me/testgroup/42", "#Samarqand")

	lines := strings.Split(msg, "\n\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Taxi buyurtma:", lines[0])
	assert.Equal(t, "Toshkentdan Samarqandga 2 kishi kerak", lines[1])
	assert.Equal(t, "#Samarqand", lines[2])
	assert.Equal(t, "Manba: https://t.me/testgroup/42", lines[3])
}

func TestFormatMessageDefaults(t *testing.T) {
	msg := FormatMessage("   ", "", "")

	assert.Contains(t, msg, "(matn topilmadi)")
	assert.Contains(t, msg, "#Uzbekiston")
	assert.Contains(t, msg, "Manba: private chat")
}

func TestFormatMessageTruncatesLongBody(t *testing.T) {
	body := strings.Repeat("yo'lovchi kerak toshkent samarqand ", 200)
	msg := FormatMessage(body, "https://t.me/c/1234567890/7", "#Toshkent")

	assert.LessOrEqual(t, len(msg), maxMessageLength)
	assert.True(t, strings.HasPrefix(msg, "Taxi buyurtma:\n\n"))
	assert.True(t, strings.HasSuffix(msg, "\n\n#Toshkent\n\nManba: https://t.me/c/1234567890/7"))
	assert.Contains(t, msg, "...")
}

func TestBuildSourceLink(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		chatID    int64
		messageID int64
		want      string
	}{
		{
			name:      "public username",
			username:  "taxi_toshkent",
			chatID:    -1001234567890,
			messageID: 55,
			want:      "https://t.me/taxi_toshkent/55",
		},
		{
			name:      "username with at prefix",
			username:  "@taxi_toshkent",
			chatID:    0,
			messageID: 9,
			want:      "https://t.me/taxi_toshkent/9",
		},
		{
			name:      "supergroup without username",
			username:  "",
			chatID:    -1001234567890,
			messageID: 7,
			want:      "https://t.me/c/1234567890/7",
		},
		{
			name:      "basic group has no permalink",
			username:  "",
			chatID:    -987654,
			messageID: 3,
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSourceLink(tt.username, tt.chatID, tt.messageID))
		})
	}
}
