package chat

import (
	"testing"
	"time"

	"github.com/anatolykoptev/go_tube/internal/engine/sources"
)

func testInfo(id string) sources.VideoInfo {
	return sources.VideoInfo{VideoID: id, Title: "t", Author: "a", DurationSeconds: 60}
}

func TestStoreLifecycle(t *testing.T) {
	st := NewStore(time.Hour, 10)

	if _, ok := st.Get(1); ok {
		t.Fatal("expected no session before creation")
	}

	s := st.GetOrCreate(1)
	if s.HasVideo() {
		t.Error("fresh session should be idle")
	}
	if s.Language != DefaultLanguage {
		t.Errorf("Language = %q, want %q", s.Language, DefaultLanguage)
	}

	s = st.SetVideo(1, "vid00000001", testInfo("vid00000001"), "[00:01] hello", "en")
	if !s.HasVideo() || s.VideoID != "vid00000001" {
		t.Fatalf("SetVideo did not load video: %+v", s)
	}

	st.SetSummary(1, "summary text")
	st.AddTurn(1, "q1", "a1")

	s, ok := st.Get(1)
	if !ok {
		t.Fatal("session disappeared")
	}
	if s.Summary != "summary text" {
		t.Errorf("Summary = %q", s.Summary)
	}
	if len(s.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(s.History))
	}
	if s.History[0].Role != RoleUser || s.History[1].Role != RoleAssistant {
		t.Errorf("history roles wrong: %+v", s.History)
	}
}

func TestStoreVideoSwitchClearsConversation(t *testing.T) {
	st := NewStore(time.Hour, 10)

	st.SetVideo(1, "aaaaaaaaaaa", testInfo("aaaaaaaaaaa"), "first transcript", "en")
	st.SetLanguage(1, "hindi")
	st.SetSummary(1, "old summary")
	st.AddTurn(1, "q", "a")

	s := st.SetVideo(1, "bbbbbbbbbbb", testInfo("bbbbbbbbbbb"), "second transcript", "en")
	if s.Summary != "" {
		t.Error("summary should reset on video switch")
	}
	if len(s.History) != 0 {
		t.Error("history should reset on video switch")
	}
	if s.Language != "hindi" {
		t.Errorf("language preference lost on video switch: %q", s.Language)
	}
	if s.TranscriptText != "second transcript" {
		t.Errorf("TranscriptText = %q", s.TranscriptText)
	}
}

func TestStoreHistoryBound(t *testing.T) {
	st := NewStore(time.Hour, 3)
	st.GetOrCreate(1)

	for i := 0; i < 10; i++ {
		st.AddTurn(1, "question", "answer")
	}
	s, _ := st.Get(1)
	if len(s.History) != 6 {
		t.Fatalf("history length = %d, want 6 (3 turns)", len(s.History))
	}

	st.Append(1, RoleUser, "latest")
	s, _ = st.Get(1)
	if len(s.History) != 6 {
		t.Fatalf("history length after Append = %d, want 6", len(s.History))
	}
	if s.History[len(s.History)-1].Text != "latest" {
		t.Error("Append did not keep the newest message")
	}
}

func TestStoreExpiry(t *testing.T) {
	st := NewStore(10*time.Millisecond, 10)
	st.GetOrCreate(1)
	st.GetOrCreate(2)

	time.Sleep(25 * time.Millisecond)

	if _, ok := st.Get(1); ok {
		t.Error("expired session should be gone on Get")
	}
	if removed := st.CleanupExpired(); removed != 1 {
		t.Errorf("CleanupExpired = %d, want 1 (user 1 already evicted by Get)", removed)
	}
	if st.Len() != 0 {
		t.Errorf("Len = %d after cleanup", st.Len())
	}

	// GetOrCreate replaces an expired session with a fresh one.
	st.GetOrCreate(3)
	time.Sleep(25 * time.Millisecond)
	s := st.GetOrCreate(3)
	if s.HasVideo() || len(s.History) != 0 {
		t.Error("expired session was not replaced")
	}
}

func TestStoreProcessingLock(t *testing.T) {
	st := NewStore(time.Hour, 10)

	if !st.BeginProcessing(1) {
		t.Fatal("first BeginProcessing should succeed")
	}
	if st.BeginProcessing(1) {
		t.Error("second BeginProcessing for same user should fail")
	}
	if !st.BeginProcessing(2) {
		t.Error("other users must not be blocked")
	}

	st.EndProcessing(1)
	if !st.BeginProcessing(1) {
		t.Error("BeginProcessing should succeed after EndProcessing")
	}
	st.EndProcessing(1)
	st.EndProcessing(2)
}

func TestStoreSnapshotIsolation(t *testing.T) {
	st := NewStore(time.Hour, 10)
	st.GetOrCreate(1)
	st.AddTurn(1, "q", "a")

	s, _ := st.Get(1)
	s.History[0].Text = "mutated"

	fresh, _ := st.Get(1)
	if fresh.History[0].Text != "q" {
		t.Error("snapshot mutation leaked into the store")
	}
}
