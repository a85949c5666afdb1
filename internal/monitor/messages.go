package monitor

import (
	"fmt"
	"strings"
	"time"
)

const clockFormat = "15:04:05"

// Outbound message bodies, Markdown-formatted for the Telegram channel.

func highlightMessage(set HighlightSet, now time.Time) Message {
	var b strings.Builder
	b.WriteString("🚨 *KENO BRIGHT NUMBERS DETECTED!* 🚨\n")
	fmt.Fprintf(&b, "🎯 Numbers: *%s*\n", set)
	fmt.Fprintf(&b, "⏰ Time: %s\n", now.Format(clockFormat))
	b.WriteString("⚡ Detected instantly")
	return Message{Kind: MessageHighlight, Text: b.String()}
}

func statusMessage(snap Snapshot, now time.Time, interval time.Duration) Message {
	var b strings.Builder
	b.WriteString("📊 *Keno Monitor Status*\n")
	b.WriteString("✅ System is running\n")
	fmt.Fprintf(&b, "⏰ Last check: %s\n", now.Format(clockFormat))
	fmt.Fprintf(&b, "🔍 Total checks: %d\n", snap.TotalChecks)
	fmt.Fprintf(&b, "🔄 Restarts: %d\n", snap.RestartCount)
	fmt.Fprintf(&b, "⚡ Check interval: %s", interval)
	return Message{Kind: MessageStatus, Text: b.String()}
}

func criticalMessage(restartCount int64, cause error) Message {
	var b strings.Builder
	b.WriteString("🛑 *Keno Monitor restarting*\n")
	fmt.Fprintf(&b, "🔄 Restart #%d\n", restartCount)
	fmt.Fprintf(&b, "❗ Cause: %v", cause)
	return Message{Kind: MessageCritical, Text: b.String()}
}
