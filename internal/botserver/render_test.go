package botserver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anatolykoptev/go_tube/internal/engine/chat"
	"github.com/anatolykoptev/go_tube/internal/engine/sources"
)

func TestRenderSummary(t *testing.T) {
	info := sources.VideoInfo{
		VideoID:         "abc123def45",
		Title:           "How Caches Work",
		Author:          "Systems Channel",
		DurationSeconds: 754,
	}

	t.Run("structured", func(t *testing.T) {
		s := &chat.Summary{
			Title:        "How Caches Work",
			KeyPoints:    []string{"first point", "second point"},
			Timestamps:   []chat.TimestampNote{{Time: "01:30", Label: "eviction"}},
			CoreTakeaway: "Caches trade memory for speed.",
		}
		got := RenderSummary(s, "{}", info)
		assert.Contains(t, got, "🎬 *How Caches Work*")
		assert.Contains(t, got, "Systems Channel")
		assert.Contains(t, got, "12m 34s")
		assert.Contains(t, got, "1. first point")
		assert.Contains(t, got, "2. second point")
		assert.Contains(t, got, "• [01:30] eviction")
		assert.Contains(t, got, "Caches trade memory for speed.")
		assert.Contains(t, got, "Ask me anything")
	})

	t.Run("raw fallback keeps the header", func(t *testing.T) {
		got := RenderSummary(nil, "The video explains caching in plain prose.", info)
		assert.Contains(t, got, "🎬 *How Caches Work*")
		assert.Contains(t, got, "plain prose")
		assert.NotContains(t, got, "Key Points")
	})

	t.Run("empty sections omitted", func(t *testing.T) {
		s := &chat.Summary{CoreTakeaway: "just this"}
		got := RenderSummary(s, "", info)
		assert.NotContains(t, got, "Key Points")
		assert.NotContains(t, got, "Timestamps")
		assert.Contains(t, got, "just this")
	})
}
