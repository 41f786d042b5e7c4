package botserver

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/chat"
	"github.com/anatolykoptev/go_tube/internal/engine/sources"
)

// Server holds the bot's dependencies. The fetch and LLM functions are
// injectable so tests can run the full routing logic offline.
type Server struct {
	sessions *chat.Store
	cache    *engine.Cache
	langs    []string // caption language preference order

	fetchTranscript func(ctx context.Context, videoID string, langs []string) (sources.TranscriptData, error)
	fetchInfo       func(ctx context.Context, videoID string) sources.VideoInfo
	summarize       func(ctx context.Context, transcript string, info sources.VideoInfo, lang string) (*chat.Summary, string, error)
	deepDive        func(ctx context.Context, transcript string, info sources.VideoInfo, lang string) (string, error)
	actionPoints    func(ctx context.Context, transcript string, info sources.VideoInfo, lang string) (string, error)
	answer          func(ctx context.Context, question, transcript string, info sources.VideoInfo, history []chat.Message, lang string) (string, error)
}

// Option customizes a Server, mainly for tests.
type Option func(*Server)

// WithCaptionLanguages sets the caption language preference order.
func WithCaptionLanguages(langs []string) Option {
	return func(s *Server) { s.langs = langs }
}

// WithTranscriptFetcher replaces the transcript fetcher.
func WithTranscriptFetcher(fn func(ctx context.Context, videoID string, langs []string) (sources.TranscriptData, error)) Option {
	return func(s *Server) { s.fetchTranscript = fn }
}

// WithInfoFetcher replaces the video metadata fetcher.
func WithInfoFetcher(fn func(ctx context.Context, videoID string) sources.VideoInfo) Option {
	return func(s *Server) { s.fetchInfo = fn }
}

// WithSummarizer replaces the summarization call.
func WithSummarizer(fn func(ctx context.Context, transcript string, info sources.VideoInfo, lang string) (*chat.Summary, string, error)) Option {
	return func(s *Server) { s.summarize = fn }
}

// WithDeepDive replaces the deep dive call.
func WithDeepDive(fn func(ctx context.Context, transcript string, info sources.VideoInfo, lang string) (string, error)) Option {
	return func(s *Server) { s.deepDive = fn }
}

// WithActionPoints replaces the action points call.
func WithActionPoints(fn func(ctx context.Context, transcript string, info sources.VideoInfo, lang string) (string, error)) Option {
	return func(s *Server) { s.actionPoints = fn }
}

// WithAnswerer replaces the Q&A call.
func WithAnswerer(fn func(ctx context.Context, question, transcript string, info sources.VideoInfo, history []chat.Message, lang string) (string, error)) Option {
	return func(s *Server) { s.answer = fn }
}

// New builds a Server wired to the real engine.
func New(sessions *chat.Store, cache *engine.Cache, opts ...Option) *Server {
	s := &Server{
		sessions:        sessions,
		cache:           cache,
		langs:           []string{"en"},
		fetchTranscript: sources.FetchTranscript,
		fetchInfo:       sources.FetchVideoInfo,
		summarize:       chat.Summarize,
		deepDive:        chat.DeepDive,
		actionPoints:    chat.ActionPoints,
		answer:          chat.Answer,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// guard converts a handler panic into a logged generic reply. One bad
// update must stay fatal for that request only, never for the process.
func guard(userID int64, fn func() []string) (replies []string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("handler panic",
				slog.Int64("user", userID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			replies = []string{msgUnexpected}
		}
	}()
	return fn()
}

// HandleText routes one non-command text message and returns the replies to
// send, in order. Each reply fits within Telegram's message limit.
func (s *Server) HandleText(ctx context.Context, userID int64, text string) []string {
	return guard(userID, func() []string { return s.handleText(ctx, userID, text) })
}

func (s *Server) handleText(ctx context.Context, userID int64, text string) []string {
	engine.IncrMessagesHandled()
	s.sessions.CleanupExpired()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if videoID, ok := sources.ExtractVideoID(text); ok {
		return s.processLink(ctx, userID, videoID, text)
	}
	if strings.Contains(text, "youtube.com") || strings.Contains(text, "youtu.be") {
		return []string{msgNotYouTube}
	}

	sess, ok := s.sessions.Get(userID)
	if lang, matched := chat.Resolve(text); matched {
		// With a video loaded the switch implies a re-summary, so the
		// preference is only committed once admission succeeds — a busy
		// reply must not silently flip the language.
		if ok && sess.HasVideo() {
			return s.regenerateSummary(ctx, userID, sess, lang)
		}
		s.sessions.SetLanguage(userID, lang)
		return []string{fmt.Sprintf(msgLanguageSet, chat.DisplayName(lang))}
	}
	if !ok || !sess.HasVideo() {
		return []string{msgSendLink}
	}
	return s.processQuestion(ctx, userID, sess, text)
}

// processLink runs the link pipeline: admission, cached transcript fetch,
// metadata, session load, summary.
func (s *Server) processLink(ctx context.Context, userID int64, videoID, text string) []string {
	if !s.sessions.BeginProcessing(userID) {
		return []string{msgBusy}
	}
	defer s.sessions.EndProcessing(userID)

	slog.Info("processing link", slog.Int64("user", userID), slog.String("video", videoID))

	data, err := s.cachedTranscript(ctx, videoID)
	if err != nil {
		slog.Warn("transcript fetch failed",
			slog.String("video", videoID), slog.Any("err", err))
		return []string{transcriptErrorReply(err)}
	}

	info := s.fetchInfo(ctx, videoID)

	// "summarize this in hindi <link>" sets the preference in the same message
	if lang, ok := chat.Resolve(text); ok {
		s.sessions.SetLanguage(userID, lang)
	}
	sess := s.sessions.SetVideo(userID, videoID, info, data.Text, data.Language)

	summary, raw, err := s.summarize(ctx, data.Text, info, sess.Language)
	if err != nil {
		slog.Error("summarization failed", slog.String("video", videoID), slog.Any("err", err))
		return []string{msgLLMError}
	}
	rendered := RenderSummary(summary, raw, info)
	s.sessions.SetSummary(userID, rendered)
	return SplitMessage(rendered, telegramMessageLimit)
}

// processQuestion runs the grounded Q&A pipeline for a session with a
// loaded video.
func (s *Server) processQuestion(ctx context.Context, userID int64, sess chat.Session, question string) []string {
	if !s.sessions.BeginProcessing(userID) {
		return []string{msgBusy}
	}
	defer s.sessions.EndProcessing(userID)

	question = engine.TruncateRunes(question, maxQuestionRunes, "…")
	reply, err := s.answer(ctx, question, sess.TranscriptText, sess.Info, sess.History, sess.Language)
	if err != nil {
		slog.Error("qa failed", slog.Int64("user", userID), slog.Any("err", err))
		return []string{msgLLMError}
	}
	// Refusals stay out of history so one uncovered topic doesn't teach the
	// model to refuse the next question.
	if reply != chat.NotCoveredReply {
		s.sessions.AddTurn(userID, question, reply)
	}
	return SplitMessage(reply, telegramMessageLimit)
}

// regenerateSummary re-runs summarization for the current video, typically
// after a language switch.
func (s *Server) regenerateSummary(ctx context.Context, userID int64, sess chat.Session, lang string) []string {
	if !s.sessions.BeginProcessing(userID) {
		return []string{msgBusy}
	}
	defer s.sessions.EndProcessing(userID)

	s.sessions.SetLanguage(userID, lang)
	summary, raw, err := s.summarize(ctx, sess.TranscriptText, sess.Info, lang)
	if err != nil {
		slog.Error("summary regeneration failed", slog.Int64("user", userID), slog.Any("err", err))
		return []string{msgLLMError}
	}
	rendered := RenderSummary(summary, raw, sess.Info)
	s.sessions.SetSummary(userID, rendered)
	return SplitMessage(rendered, telegramMessageLimit)
}

// cachedTranscript is the read-through cache around transcript fetching.
// Typed failures are not cached: availability can change (uploader enables
// captions), and failures are cheap to re-check.
func (s *Server) cachedTranscript(ctx context.Context, videoID string) (sources.TranscriptData, error) {
	key := engine.Key("transcript", videoID)
	if data, ok := engine.LoadJSON[sources.TranscriptData](ctx, s.cache, key); ok {
		slog.Debug("transcript cache hit", slog.String("video", videoID))
		return data, nil
	}
	data, err := s.fetchTranscript(ctx, videoID, s.langs)
	if err != nil {
		return sources.TranscriptData{}, err
	}
	engine.StoreJSON(ctx, s.cache, key, data)
	return data, nil
}

// Command handlers. Each returns the replies to send.

func (s *Server) cmdStart(_ context.Context, _ int64) []string {
	return []string{msgWelcome}
}

func (s *Server) cmdHelp(_ context.Context, _ int64) []string {
	return []string{msgHelp}
}

// cmdSummary re-sends the stored summary, regenerating it if the session
// has a video but no rendered summary yet.
func (s *Server) cmdSummary(ctx context.Context, userID int64) []string {
	sess, ok := s.sessions.Get(userID)
	if !ok || !sess.HasVideo() {
		return []string{msgNoVideo}
	}
	if sess.Summary != "" {
		return SplitMessage(sess.Summary, telegramMessageLimit)
	}
	return s.regenerateSummary(ctx, userID, sess, sess.Language)
}

func (s *Server) cmdDeepDive(ctx context.Context, userID int64) []string {
	return s.analysisCommand(ctx, userID, s.deepDive)
}

func (s *Server) cmdActionPoints(ctx context.Context, userID int64) []string {
	return s.analysisCommand(ctx, userID, s.actionPoints)
}

func (s *Server) analysisCommand(ctx context.Context, userID int64, fn func(ctx context.Context, transcript string, info sources.VideoInfo, lang string) (string, error)) []string {
	sess, ok := s.sessions.Get(userID)
	if !ok || !sess.HasVideo() {
		return []string{msgNoVideo}
	}
	if !s.sessions.BeginProcessing(userID) {
		return []string{msgBusy}
	}
	defer s.sessions.EndProcessing(userID)

	out, err := fn(ctx, sess.TranscriptText, sess.Info, sess.Language)
	if err != nil {
		slog.Error("analysis failed", slog.Int64("user", userID), slog.Any("err", err))
		return []string{msgLLMError}
	}
	return SplitMessage(out, telegramMessageLimit)
}

// cmdLanguage shows the language menu, or sets the language when called
// with an argument ("/language tamil").
func (s *Server) cmdLanguage(_ context.Context, userID int64, arg string) []string {
	arg = strings.TrimSpace(strings.ToLower(arg))
	if arg == "" {
		return []string{fmt.Sprintf(msgLanguageMenu, chat.SupportedList())}
	}
	if !chat.Supported(arg) {
		return []string{fmt.Sprintf(msgLanguageMenu, chat.SupportedList())}
	}
	s.sessions.SetLanguage(userID, arg)
	return []string{fmt.Sprintf(msgLanguageSet, chat.DisplayName(arg))}
}
