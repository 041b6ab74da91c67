package core

import (
	"fmt"
	"time"

	"github.com/elum-utils/moderator/models"
)

const (
	noticePermissionDenied = "⛔ Only administrators can use this command."
	noticeUserNotFound     = "❌ Could not find that user."
)

func warningNotice(user models.User, count, threshold int) string {
	return fmt.Sprintf("⚠️ %s warning %d/%d", user.Mention(), count, threshold)
}

func autoMuteNotice(user models.User, threshold int, d time.Duration) string {
	return fmt.Sprintf("⛔ %s reached %d warnings — muted for %s.", user.Mention(), threshold, humanDuration(d))
}

func adminMuteNotice(user models.User, d time.Duration) string {
	return fmt.Sprintf("🔇 %s muted for %s.", user.Mention(), humanDuration(d))
}

func unmuteNotice(user models.User) string {
	return fmt.Sprintf("✅ %s can send messages again.", user.Mention())
}

func usageNotice(command string) string {
	return fmt.Sprintf("❗ Usage: /%s @username", command)
}

func humanDuration(d time.Duration) string {
	switch {
	case d%time.Hour == 0 && d >= time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d%time.Minute == 0 && d >= time.Minute:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
