package botserver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/anatolykoptev/go_tube/internal/engine/sources"
)

// NewBot builds the Telegram bot with all handlers registered.
func NewBot(token string, s *Server) (*bot.Bot, error) {
	b, err := bot.New(token, bot.WithDefaultHandler(s.onMessage))
	if err != nil {
		return nil, err
	}

	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, s.command(s.cmdStart))
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, s.command(s.cmdHelp))
	b.RegisterHandler(bot.HandlerTypeMessageText, "/summary", bot.MatchTypePrefix, s.command(s.cmdSummary))
	b.RegisterHandler(bot.HandlerTypeMessageText, "/deepdive", bot.MatchTypePrefix, s.command(s.cmdDeepDive))
	b.RegisterHandler(bot.HandlerTypeMessageText, "/actionpoints", bot.MatchTypePrefix, s.command(s.cmdActionPoints))
	b.RegisterHandler(bot.HandlerTypeMessageText, "/language", bot.MatchTypePrefix, s.onLanguageCommand)

	return b, nil
}

// command adapts a reply-producing command method to a Telegram handler.
func (s *Server) command(fn func(ctx context.Context, userID int64) []string) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}
		userID := update.Message.From.ID
		replies := guard(userID, func() []string { return fn(ctx, userID) })
		sendReplies(ctx, b, update.Message.Chat.ID, replies)
	}
}

func (s *Server) onLanguageCommand(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	userID := update.Message.From.ID
	arg := strings.TrimPrefix(update.Message.Text, "/language")
	replies := guard(userID, func() []string { return s.cmdLanguage(ctx, userID, arg) })
	sendReplies(ctx, b, update.Message.Chat.ID, replies)
}

// onMessage handles free text: YouTube links, follow-up questions, and
// language requests. Long operations get a status message that is removed
// once the real reply is ready.
func (s *Server) onMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := update.Message.Text

	if strings.HasPrefix(text, "/") {
		sendReplies(ctx, b, chatID, []string{msgHelp})
		return
	}

	status := statusFor(s, userID, text)
	var statusID int
	if status != "" {
		if m, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: status}); err == nil {
			statusID = m.ID
		}
	}

	replies := s.HandleText(ctx, userID, text)

	if statusID != 0 {
		_, _ = b.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: statusID})
	}
	sendReplies(ctx, b, chatID, replies)
}

// statusFor picks the progress message for a text, or "" when the reply
// will be quick.
func statusFor(s *Server, userID int64, text string) string {
	if _, ok := sources.ExtractVideoID(text); ok {
		return msgFetching
	}
	if sess, ok := s.sessions.Get(userID); ok && sess.HasVideo() {
		return msgThinking
	}
	return ""
}

// sendReplies sends each reply as Markdown, retrying as plain text when
// Telegram rejects the formatting (LLM output can contain unbalanced
// markup).
func sendReplies(ctx context.Context, b *bot.Bot, chatID int64, replies []string) {
	for _, r := range replies {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      r,
			ParseMode: models.ParseModeMarkdown,
		})
		if err == nil {
			continue
		}
		slog.Debug("markdown send failed, retrying plain", slog.Any("err", err))
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: r}); err != nil {
			slog.Error("send failed", slog.Int64("chat", chatID), slog.Any("err", err))
		}
	}
}
