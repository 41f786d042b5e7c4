package botserver

import (
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/chat"
	"github.com/anatolykoptev/go_tube/internal/engine/sources"
)

// RenderSummary formats a structured summary for Telegram. When the model's
// JSON could not be parsed (s == nil), the raw text is shown under the same
// video header instead of failing the request.
func RenderSummary(s *chat.Summary, raw string, info sources.VideoInfo) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🎬 *%s*\n", info.Title)
	fmt.Fprintf(&sb, "👤 %s  ⏱ %s\n\n", info.Author, engine.FormatDuration(info.DurationSeconds))

	if s == nil {
		sb.WriteString(strings.TrimSpace(raw))
		sb.WriteString("\n\n💬 Ask me anything about this video!")
		return sb.String()
	}

	if len(s.KeyPoints) > 0 {
		sb.WriteString("📌 *Key Points*\n")
		for i, kp := range s.KeyPoints {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, kp)
		}
		sb.WriteByte('\n')
	}
	if len(s.Timestamps) > 0 {
		sb.WriteString("🕒 *Timestamps*\n")
		for _, ts := range s.Timestamps {
			fmt.Fprintf(&sb, "• [%s] %s\n", ts.Time, ts.Label)
		}
		sb.WriteByte('\n')
	}
	if s.CoreTakeaway != "" {
		fmt.Fprintf(&sb, "💡 *Core Takeaway*\n%s\n\n", s.CoreTakeaway)
	}

	sb.WriteString("💬 Ask me anything about this video!")
	return sb.String()
}
