package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
	"golang.org/x/time/rate"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int
	LLMRPS             float64 // 0 = unlimited

	MaxTranscriptChars int
	ChunkSizeChars     int
	MaxChatHistory     int // Q&A turns kept per session

	FetchTimeout time.Duration

	HTTPClient *http.Client
	LLMClient  *llm.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, chat).
// Always points to the current cfg value.
var Cfg = &cfg

var llmLimiter *rate.Limiter

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
	if c.LLMRPS > 0 {
		llmLimiter = rate.NewLimiter(rate.Limit(c.LLMRPS), 1)
	} else {
		llmLimiter = nil
	}
}
