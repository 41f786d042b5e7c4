package chat

import (
	"regexp"
	"strings"
)

// DefaultLanguage is used until the user requests something else.
const DefaultLanguage = "english"

// languageOrder keeps /language output stable.
var languageOrder = []string{"english", "hindi", "kannada", "tamil", "telugu", "marathi"}

var languageNames = map[string]string{
	"english": "English",
	"hindi":   "हिन्दी (Hindi)",
	"kannada": "ಕನ್ನಡ (Kannada)",
	"tamil":   "தமிழ் (Tamil)",
	"telugu":  "తెలుగు (Telugu)",
	"marathi": "मराठी (Marathi)",
}

// languagePatterns detect an explicit language request inside free text.
// Ordered from most to least specific; the first capture wins.
var languagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:summarize|summary|explain|respond|answer|translate|write|give|tell)\s+(?:(?:it|this|me|the\s+summary|the\s+answer)\s+)?in\s+([a-zA-Z]+)`),
	regexp.MustCompile(`(?i)\bin\s+([a-zA-Z]+)\s*(?:please|pls)?\s*$`),
	regexp.MustCompile(`(?i)([a-zA-Z]+)\s+(?:mein|me)\b`),
	regexp.MustCompile(`(?i)^\s*([a-zA-Z]+)\s*$`),
}

// Supported reports whether code is one of the languages the bot answers in.
func Supported(code string) bool {
	_, ok := languageNames[strings.ToLower(code)]
	return ok
}

// DisplayName returns the native display name for a supported language code.
func DisplayName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// Resolve scans free text for an explicit request for a supported language,
// e.g. "summarize in hindi", "tamil please", or a bare "kannada". Only
// supported languages match — "explain in detail" must not flip anything.
func Resolve(text string) (string, bool) {
	for _, p := range languagePatterns {
		m := p.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		code := strings.ToLower(m[1])
		if Supported(code) {
			return code, true
		}
	}
	return "", false
}

// Instruction returns the prompt clause that pins the response language.
// English gets no clause; the model answers in English by default.
func Instruction(code string) string {
	code = strings.ToLower(code)
	if code == DefaultLanguage || !Supported(code) {
		return "Respond in clear, simple English."
	}
	return "Respond entirely in " + DisplayName(code) + ". Keep [MM:SS] timestamps and proper nouns as-is."
}

// SupportedList renders the language menu shown by /language.
func SupportedList() string {
	var sb strings.Builder
	for _, code := range languageOrder {
		sb.WriteString("• ")
		sb.WriteString(languageNames[code])
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}
