package engine

import (
	"context"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"
)

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// CallLLM sends a prompt with a system instruction at the given temperature.
// Waits on the shared rate limiter first, then retries transient provider
// failures (429, timeouts, overload) with backoff. Callers get either clean
// text or the last error — no partial retries leak out.
func CallLLM(ctx context.Context, system, prompt string, temperature float64) (string, error) {
	if llmLimiter != nil {
		if err := llmLimiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	metrics.LLMCalls.Add(1)
	resp, err := RetryDo(ctx, LLMRetryConfig, func() (string, error) {
		return cfg.LLMClient.Complete(ctx, system, prompt,
			llm.WithChatTemperature(temperature),
		)
	})
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", err
	}
	return stripFences(resp), nil
}

// ExtractJSONAnswer extracts a named string field from malformed JSON
// where the value may contain unescaped newlines or special characters.
// Used as a fallback when the model wraps otherwise-valid JSON in prose.
func ExtractJSONAnswer(raw, field string) string {
	prefix := `"` + field + `"`
	idx := strings.Index(raw, prefix)
	if idx < 0 {
		return ""
	}
	rest := raw[idx+len(prefix):]
	rest = strings.TrimSpace(rest)
	if len(rest) == 0 || rest[0] != ':' {
		return ""
	}
	rest = strings.TrimSpace(rest[1:])
	if len(rest) == 0 || rest[0] != '"' {
		return ""
	}
	rest = rest[1:] // skip opening quote

	var sb strings.Builder
	for i := 0; i < len(rest); i++ {
		if rest[i] == '\\' && i+1 < len(rest) {
			if rest[i+1] == '"' {
				sb.WriteByte('"')
				i++
				continue
			}
			if rest[i+1] == 'n' {
				sb.WriteByte('\n')
				i++
				continue
			}
			sb.WriteByte(rest[i])
			continue
		}
		if rest[i] == '"' {
			return sb.String()
		}
		sb.WriteByte(rest[i])
	}
	if sb.Len() > 0 {
		return sb.String()
	}
	return ""
}
