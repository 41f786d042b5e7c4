// Package botserver wires the Telegram transport to the engine: routing,
// per-user admission, reply rendering, and message splitting.
package botserver

import (
	"errors"

	"github.com/anatolykoptev/go_tube/internal/engine/sources"
)

// User-facing message templates. Telegram renders these with legacy
// Markdown parse mode.
const (
	msgWelcome = `👋 *Welcome to the YouTube Summary Bot!*

Send me a YouTube link and I will:
• 📝 Summarize the video from its transcript
• 💬 Answer your follow-up questions about it
• 🌐 Reply in English, हिन्दी, ಕನ್ನಡ, தமிழ், తెలుగు, or मराठी

Just paste a link to get started. /help for more.`

	msgHelp = `*How to use this bot*

1. Paste a YouTube link — I fetch the transcript and summarize it.
2. Ask follow-up questions in plain text. I answer only from the video.
3. Say "in hindi" (or any supported language) to switch languages.

*Commands*
/summary — show the summary of the current video again
/deepdive — detailed analysis of the current video
/actionpoints — practical takeaways from the current video
/language — list languages or set one, e.g. /language tamil
/help — this message

I only know what is in the transcript. If a topic is not covered in the video, I will say so.`

	msgNoVideo      = "📭 No video loaded yet. Send me a YouTube link first!"
	msgBusy         = "⏳ I'm still working on your previous request. Please wait a moment."
	msgFetching     = "⏳ Fetching the transcript and summarizing... this can take a minute for long videos."
	msgThinking     = "🤔 Thinking..."
	msgNotYouTube   = "🔗 That doesn't look like a YouTube link. Send a youtube.com or youtu.be URL."
	msgSendLink     = "📭 Send me a YouTube link and I'll summarize it for you!"
	msgLanguageMenu = "🌐 *I can reply in:*\n\n%s\n\nSay \"in hindi\" or use /language hindi to switch."
	msgLanguageSet  = "✅ Got it! I'll reply in %s from now on."
	msgLLMError     = "😔 I couldn't generate a response right now. Please try again in a bit."
	msgUnexpected   = "😔 Something unexpected went wrong on my side. Please try again."
	msgNoTranscript = "😔 I couldn't find a transcript for this video in any language I can read."
	msgDisabledCaps = "🚫 Captions are disabled for this video, so I can't read it."
	msgUnavailable  = "🚫 This video is unavailable (private, deleted, or restricted)."
	msgFetchFailed  = "😔 I couldn't fetch the transcript right now. Please try again in a bit."
)

// transcriptErrorReply maps a transcript retrieval failure to a user-facing
// message without leaking internals.
func transcriptErrorReply(err error) string {
	var terr *sources.TranscriptError
	if !errors.As(err, &terr) {
		return msgFetchFailed
	}
	switch terr.Kind {
	case sources.KindDisabled:
		return msgDisabledCaps
	case sources.KindUnavailable:
		return msgUnavailable
	case sources.KindNotFound:
		return msgNoTranscript
	default:
		return msgFetchFailed
	}
}
