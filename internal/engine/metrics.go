package engine

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	MessagesHandled     atomic.Int64
	LLMCalls            atomic.Int64
	LLMErrors           atomic.Int64
	TranscriptRequests  atomic.Int64
	TranscriptErrors    atomic.Int64
	VideoInfoRequests   atomic.Int64
	SummaryRequests     atomic.Int64
	ChunkedSummaries    atomic.Int64
	DeepDiveRequests    atomic.Int64
	ActionPointRequests atomic.Int64
	QARequests          atomic.Int64
	SessionsCreated     atomic.Int64
	SessionsExpired     atomic.Int64
}

// Incrementors for sub-packages (sources, chat) and the botserver.
func IncrMessagesHandled()     { metrics.MessagesHandled.Add(1) }
func IncrTranscriptRequests()  { metrics.TranscriptRequests.Add(1) }
func IncrTranscriptErrors()    { metrics.TranscriptErrors.Add(1) }
func IncrVideoInfoRequests()   { metrics.VideoInfoRequests.Add(1) }
func IncrSummaryRequests()     { metrics.SummaryRequests.Add(1) }
func IncrChunkedSummaries()    { metrics.ChunkedSummaries.Add(1) }
func IncrDeepDiveRequests()    { metrics.DeepDiveRequests.Add(1) }
func IncrActionPointRequests() { metrics.ActionPointRequests.Add(1) }
func IncrQARequests()          { metrics.QARequests.Add(1) }
func IncrSessionsCreated()     { metrics.SessionsCreated.Add(1) }
func AddSessionsExpired(n int) { metrics.SessionsExpired.Add(int64(n)) }

// GetMetrics returns a snapshot of all counters including cache stats.
func GetMetrics(c *Cache) map[string]int64 {
	hits, misses := c.Stats()
	return map[string]int64{
		"messages_handled":        metrics.MessagesHandled.Load(),
		"llm_calls":               metrics.LLMCalls.Load(),
		"llm_errors":              metrics.LLMErrors.Load(),
		"transcript_requests":     metrics.TranscriptRequests.Load(),
		"transcript_errors":       metrics.TranscriptErrors.Load(),
		"video_info_requests":     metrics.VideoInfoRequests.Load(),
		"summary_requests":        metrics.SummaryRequests.Load(),
		"chunked_summaries":       metrics.ChunkedSummaries.Load(),
		"deepdive_requests":       metrics.DeepDiveRequests.Load(),
		"actionpoint_requests":    metrics.ActionPointRequests.Load(),
		"qa_requests":             metrics.QARequests.Load(),
		"sessions_created":        metrics.SessionsCreated.Load(),
		"sessions_expired":        metrics.SessionsExpired.Load(),
		"transcript_cache_hits":   hits,
		"transcript_cache_misses": misses,
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics(c *Cache) string {
	m := GetMetrics(c)
	var sb strings.Builder
	keys := []string{
		"messages_handled",
		"llm_calls", "llm_errors",
		"transcript_requests", "transcript_errors", "video_info_requests",
		"summary_requests", "chunked_summaries",
		"deepdive_requests", "actionpoint_requests", "qa_requests",
		"sessions_created", "sessions_expired",
		"transcript_cache_hits", "transcript_cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// MetricsMux returns an http.Handler exposing /metrics and /healthz.
func MetricsMux(c *Cache) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, FormatMetrics(c))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return mux
}
