// go_tube — Telegram bot that summarizes YouTube videos and answers
// grounded follow-up questions from their transcripts.
//
// Pipeline: YouTube link → timed transcript (watch-page scrape, ANDROID
// Innertube fallback) → LLM summary → follow-up Q&A grounded in the
// transcript. Sessions live in memory; fetched transcripts in a 2-tier
// (memory + Redis) cache.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"

	"github.com/anatolykoptev/go_tube/internal/botserver"
	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/chat"
)

var (
	version     = "dev"
	metricsPort = env.Str("METRICS_PORT", "8892")
)

func main() {
	botToken := env.Str("TELEGRAM_BOT_TOKEN", "")
	if botToken == "" {
		slog.Error("TELEGRAM_BOT_TOKEN is required")
		os.Exit(1)
	}

	initEngine()

	sessions := chat.NewStore(
		env.Duration("SESSION_TTL", 2*time.Hour),
		engine.Cfg.MaxChatHistory,
	)
	cache := engine.NewCache(
		env.Str("REDIS_URL", ""),
		env.Duration("TRANSCRIPT_CACHE_TTL", time.Hour),
		env.Int("CACHE_MAX_ENTRIES", 1000),
		env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
	)

	server := botserver.New(sessions, cache,
		botserver.WithCaptionLanguages(env.List("CAPTION_LANGUAGES", "en")),
	)

	b, err := botserver.NewBot(botToken, server)
	if err != nil {
		slog.Error("bot init failed", slog.Any("error", err))
		os.Exit(1)
	}

	go func() {
		addr := ":" + metricsPort
		slog.Info("metrics listening", slog.String("addr", addr))
		if err := http.ListenAndServe(addr, engine.MetricsMux(cache)); err != nil {
			slog.Warn("metrics server stopped", slog.Any("error", err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting go_tube",
		slog.String("version", version),
		slog.String("model", engine.Cfg.LLMModel),
	)
	b.Start(ctx)
	slog.Info("shutting down")
}

func initEngine() {
	c := engine.Config{
		LLMAPIKey:          env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks: env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:         env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:           env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:     env.Float("LLM_TEMPERATURE", 0.3),
		LLMMaxTokens:       env.Int("LLM_MAX_TOKENS", 8192),
		LLMRPS:             env.Float("LLM_RPS", 2),
		MaxTranscriptChars: env.Int("MAX_TRANSCRIPT_CHARS", 80000),
		ChunkSizeChars:     env.Int("CHUNK_SIZE_CHARS", 15000),
		MaxChatHistory:     env.Int("MAX_CHAT_HISTORY", 10),
		FetchTimeout:       env.Duration("FETCH_TIMEOUT", 30*time.Second),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	c.LLMClient = llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
		llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
		llm.WithMaxTokens(c.LLMMaxTokens),
		llm.WithTemperature(c.LLMTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
	)

	engine.Init(c)
}
