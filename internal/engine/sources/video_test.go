package sources

import "testing"

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"standard watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"no scheme", "youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"no www", "https://youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"legacy v path", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"extra query params", "https://www.youtube.com/watch?feature=shared&v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ", true},
		{"surrounded by text", "check this out https://youtu.be/dQw4w9WgXcQ so good", "dQw4w9WgXcQ", true},
		{"underscore and dash in id", "https://youtu.be/a_b-C1d2E3f", "a_b-C1d2E3f", true},
		{"id too short", "https://www.youtube.com/watch?v=short", "", false},
		{"not youtube", "https://vimeo.com/123456789", "", false},
		{"plain text", "summarize this for me", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractVideoID(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractVideoID(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}
