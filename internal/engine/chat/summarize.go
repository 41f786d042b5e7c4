package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/sources"
)

const (
	summaryTemperature = 0.3
	qaTemperature      = 0.2
)

// complete is swapped in tests to avoid real LLM calls.
var complete = engine.CallLLM

// TimestampNote is one highlighted moment in a structured summary.
type TimestampNote struct {
	Time  string `json:"time"`
	Label string `json:"label"`
}

// Summary is the structured output of the summarization prompt.
type Summary struct {
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	DurationSeconds int             `json:"duration_seconds"`
	KeyPoints       []string        `json:"key_points"`
	Timestamps      []TimestampNote `json:"timestamps"`
	CoreTakeaway    string          `json:"core_takeaway"`
}

// Summarize produces a structured summary of the transcript. Transcripts
// within the single-call limit go straight to the model; longer ones are
// chunked, summarized in parallel, and merged. The raw model output is
// returned alongside so callers can fall back to it when JSON parsing fails.
func Summarize(ctx context.Context, transcript string, info sources.VideoInfo, lang string) (*Summary, string, error) {
	engine.IncrSummaryRequests()
	if len(transcript) <= engine.Cfg.MaxTranscriptChars {
		return summarizeText(ctx, transcript, info, lang)
	}
	return summarizeChunked(ctx, transcript, info, lang)
}

func summarizeText(ctx context.Context, transcript string, info sources.VideoInfo, lang string) (*Summary, string, error) {
	prompt := fmt.Sprintf(summaryPrompt,
		info.Title, info.Author, engine.FormatDuration(info.DurationSeconds),
		transcript, info.DurationSeconds, Instruction(lang))
	raw, err := complete(ctx, summarySystem, prompt, summaryTemperature)
	if err != nil {
		return nil, "", err
	}
	s := parseSummary(raw)
	return s, raw, nil
}

// parseSummary decodes the model's JSON, salvaging what it can before
// giving up: the object may be wrapped in prose, or broken JSON may still
// carry a readable takeaway. Returns nil only when nothing structured can
// be recovered; the caller then renders raw text instead of failing.
func parseSummary(raw string) *Summary {
	var s Summary
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return nonEmptySummary(&s)
	}

	// "Sure, here is the JSON: {...}" — decode from the first brace.
	if idx := strings.Index(raw, "{"); idx >= 0 {
		var s Summary
		if err := json.NewDecoder(strings.NewReader(raw[idx:])).Decode(&s); err == nil {
			if out := nonEmptySummary(&s); out != nil {
				slog.Warn("summary JSON wrapped in prose, recovered embedded object")
				return out
			}
		}
	}

	// Broken JSON (unescaped newlines and the like): keep at least the
	// takeaway rather than showing the user a mangled blob.
	if takeaway := engine.ExtractJSONAnswer(raw, "core_takeaway"); takeaway != "" {
		slog.Warn("summary JSON malformed, salvaged core takeaway")
		return &Summary{CoreTakeaway: takeaway}
	}

	slog.Warn("summary JSON parse failed, using raw output")
	return nil
}

func nonEmptySummary(s *Summary) *Summary {
	if len(s.KeyPoints) == 0 && s.CoreTakeaway == "" {
		return nil
	}
	return s
}

// summarizeChunked splits an oversized transcript at line boundaries,
// summarizes the chunks in parallel, then runs the ordinary summary prompt
// over the joined section summaries. Individual chunk failures are dropped;
// only total failure aborts.
func summarizeChunked(ctx context.Context, transcript string, info sources.VideoInfo, lang string) (*Summary, string, error) {
	engine.IncrChunkedSummaries()

	chunks := SplitChunks(transcript, engine.Cfg.ChunkSizeChars)
	slog.Info("chunked summarization",
		slog.String("video", info.VideoID),
		slog.Int("chars", len(transcript)),
		slog.Int("chunks", len(chunks)))

	type chunkResult struct {
		idx  int
		text string
		err  error
	}
	ch := make(chan chunkResult, len(chunks))
	for i, chunk := range chunks {
		go func(i int, chunk string) {
			raw, err := complete(ctx, chunkSystem,
				fmt.Sprintf(chunkPrompt, i+1, len(chunks), chunk), summaryTemperature)
			ch <- chunkResult{idx: i, text: raw, err: err}
		}(i, chunk)
	}

	parts := make([]string, len(chunks))
	failed := 0
	for range chunks {
		r := <-ch
		if r.err != nil {
			slog.Warn("chunk summary failed", slog.Int("chunk", r.idx+1), slog.Any("err", r.err))
			failed++
			continue
		}
		parts[r.idx] = r.text
	}
	if failed == len(chunks) {
		return nil, "", fmt.Errorf("all %d chunk summaries failed", len(chunks))
	}

	ok := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			ok = append(ok, p)
		}
	}
	merged := mergePreamble + strings.Join(ok, "\n\n---\n\n")
	return summarizeText(ctx, merged, info, lang)
}

// SplitChunks splits text into chunks of at most size bytes, breaking only
// at line boundaries so no transcript segment is ever cut mid-cue. A single
// line longer than size becomes its own oversized chunk. Lossless:
// rejoining the chunks with "\n" reproduces text exactly.
func SplitChunks(text string, size int) []string {
	if len(text) <= size {
		return []string{text}
	}
	lines := strings.Split(text, "\n")

	var chunks []string
	var cur []string
	curLen := 0
	for _, line := range lines {
		add := len(line)
		if len(cur) > 0 {
			add++ // joining newline
		}
		if len(cur) > 0 && curLen+add > size {
			chunks = append(chunks, strings.Join(cur, "\n"))
			cur = cur[:0]
			curLen = 0
			add = len(line)
		}
		cur = append(cur, line)
		curLen += add
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, "\n"))
	}
	return chunks
}

// DeepDive produces a detailed thematic analysis of the transcript.
func DeepDive(ctx context.Context, transcript string, info sources.VideoInfo, lang string) (string, error) {
	engine.IncrDeepDiveRequests()
	prompt := fmt.Sprintf(deepDivePrompt,
		info.Title, info.Author,
		engine.Truncate(transcript, engine.Cfg.MaxTranscriptChars),
		Instruction(lang))
	raw, err := complete(ctx, deepDiveSystem, prompt, summaryTemperature)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// ActionPoints extracts practical takeaways from the transcript.
func ActionPoints(ctx context.Context, transcript string, info sources.VideoInfo, lang string) (string, error) {
	engine.IncrActionPointRequests()
	prompt := fmt.Sprintf(actionPointsPrompt,
		info.Title,
		engine.Truncate(transcript, engine.Cfg.MaxTranscriptChars),
		Instruction(lang))
	raw, err := complete(ctx, deepDiveSystem, prompt, summaryTemperature)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}
