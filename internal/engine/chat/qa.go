package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/sources"
)

// Answer answers a follow-up question grounded in the transcript. history
// is the session's bounded chat history; the transcript is truncated from
// the end when oversized so the video's opening context survives.
func Answer(ctx context.Context, question, transcript string, info sources.VideoInfo, history []Message, lang string) (string, error) {
	engine.IncrQARequests()

	prompt := fmt.Sprintf(qaPrompt,
		info.Title, info.Author,
		engine.Truncate(transcript, engine.Cfg.MaxTranscriptChars),
		renderHistory(history),
		question,
		Instruction(lang))

	raw, err := complete(ctx, qaSystem, prompt, qaTemperature)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// renderHistory formats prior turns as a CONVERSATION SO FAR block, or
// returns an empty line for a fresh conversation.
func renderHistory(history []Message) string {
	if len(history) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\nCONVERSATION SO FAR:\n")
	for _, m := range history {
		switch m.Role {
		case RoleUser:
			sb.WriteString("User: ")
		case RoleAssistant:
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(m.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}
