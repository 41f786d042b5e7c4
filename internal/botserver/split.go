package botserver

import "strings"

// telegramMessageLimit is Telegram's hard cap on message text length.
const telegramMessageLimit = 4096

// maxQuestionRunes caps follow-up questions before they reach the prompt.
const maxQuestionRunes = 2000

// SplitMessage splits text into pieces of at most limit bytes, preferring
// paragraph breaks, then line breaks, then spaces. Only a single token
// longer than the limit is ever cut mid-word.
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var out []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	add := func(piece, sep string) {
		need := len(piece)
		if cur.Len() > 0 {
			need += len(sep)
		}
		if cur.Len() > 0 && cur.Len()+need > limit {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(piece)
	}

	for _, para := range strings.Split(text, "\n\n") {
		if len(para) <= limit {
			add(para, "\n\n")
			continue
		}
		for _, line := range strings.Split(para, "\n") {
			if len(line) <= limit {
				add(line, "\n")
				continue
			}
			for _, word := range strings.Fields(line) {
				for len(word) > limit {
					add(word[:limit], " ")
					flush()
					word = word[limit:]
				}
				if word != "" {
					add(word, " ")
				}
			}
		}
	}
	flush()
	return out
}
