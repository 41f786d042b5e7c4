package botserver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessage(t *testing.T) {
	t.Run("short text untouched", func(t *testing.T) {
		got := SplitMessage("hello world", 100)
		require.Len(t, got, 1)
		assert.Equal(t, "hello world", got[0])
	})

	t.Run("splits at paragraph breaks", func(t *testing.T) {
		text := strings.Repeat("a", 40) + "\n\n" + strings.Repeat("b", 40) + "\n\n" + strings.Repeat("c", 40)
		got := SplitMessage(text, 100)
		require.Len(t, got, 2)
		assert.Equal(t, strings.Repeat("a", 40)+"\n\n"+strings.Repeat("b", 40), got[0])
		assert.True(t, strings.HasSuffix(got[1], "c"))
		for _, piece := range got {
			assert.LessOrEqual(t, len(piece), 100)
		}
	})

	t.Run("falls back to line breaks", func(t *testing.T) {
		para := strings.Repeat("x", 60) + "\n" + strings.Repeat("y", 60) + "\n" + strings.Repeat("z", 60)
		got := SplitMessage(para, 100)
		require.Greater(t, len(got), 1)
		for _, piece := range got {
			assert.LessOrEqual(t, len(piece), 100)
		}
	})

	t.Run("falls back to spaces", func(t *testing.T) {
		line := strings.TrimSpace(strings.Repeat("word ", 50))
		got := SplitMessage(line, 100)
		require.Greater(t, len(got), 1)
		for _, piece := range got {
			assert.LessOrEqual(t, len(piece), 100)
			assert.False(t, strings.HasPrefix(piece, " "))
			assert.False(t, strings.HasSuffix(piece, " "))
		}
		assert.Equal(t, line, strings.Join(got, " "))
	})

	t.Run("hard cuts a single oversized token", func(t *testing.T) {
		got := SplitMessage(strings.Repeat("q", 250), 100)
		require.Len(t, got, 3)
		assert.Equal(t, 100, len(got[0]))
		assert.Equal(t, 100, len(got[1]))
		assert.Equal(t, 50, len(got[2]))
	})

	t.Run("no piece exceeds the telegram limit", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < 300; i++ {
			sb.WriteString("A reasonably long paragraph of summary text that models tend to emit.\n\n")
		}
		for _, piece := range SplitMessage(sb.String(), telegramMessageLimit) {
			assert.LessOrEqual(t, len(piece), telegramMessageLimit)
			assert.NotEmpty(t, piece)
		}
	})
}
