// Package chat holds per-user conversational state and the LLM-facing
// summarization and Q&A logic built on top of it.
package chat

import (
	"log/slog"
	"sync"
	"time"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/sources"
)

// Role identifies who produced a chat history message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a session's bounded chat history.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Session holds one user's conversational state. VideoID == "" means no
// video is loaded (the user is idle). A snapshot copy is returned to
// callers; all mutation goes through Store methods.
type Session struct {
	UserID             int64
	VideoID            string
	Info               sources.VideoInfo
	TranscriptText     string
	TranscriptLanguage string
	Summary            string // last rendered summary, re-emitted by /summary
	Language           string // preferred response language code
	History            []Message
	CreatedAt          time.Time
	LastActive         time.Time
}

// HasVideo reports whether a transcript is loaded for follow-up questions.
func (s Session) HasVideo() bool { return s.VideoID != "" }

// Store is the in-memory session store. One mutex guards the maps; no
// handler holds it across network calls, so users never block each other.
// Per-user pipeline serialization is the inflight set: at most one
// in-flight operation per user at any instant.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	inflight map[int64]bool
	ttl      time.Duration
	maxTurns int
}

// NewStore creates a session store. Sessions idle longer than ttl are
// evicted; history is bounded to the most recent maxTurns Q&A turns.
func NewStore(ttl time.Duration, maxTurns int) *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		inflight: make(map[int64]bool),
		ttl:      ttl,
		maxTurns: maxTurns,
	}
}

// Get returns a snapshot of the user's session. An expired session is
// removed and reported as absent; a live one has its activity refreshed.
func (st *Store) Get(userID int64) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[userID]
	if !ok {
		return Session{}, false
	}
	if st.expiredLocked(s) {
		slog.Info("session expired", slog.Int64("user", userID))
		delete(st.sessions, userID)
		return Session{}, false
	}
	s.LastActive = time.Now()
	return st.snapshotLocked(s), true
}

// GetOrCreate returns the user's session, creating an idle one if absent
// or expired.
func (st *Store) GetOrCreate(userID int64) Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.getOrCreateLocked(userID)
	s.LastActive = time.Now()
	return st.snapshotLocked(s)
}

// SetVideo loads a new video into the user's session, replacing all
// video-scoped state. The previous summary and chat history are cleared —
// a conversation grounded in one transcript is meaningless against another.
// The language preference survives the switch.
func (st *Store) SetVideo(userID int64, videoID string, info sources.VideoInfo, transcriptText, transcriptLang string) Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := st.getOrCreateLocked(userID)
	s.VideoID = videoID
	s.Info = info
	s.TranscriptText = transcriptText
	s.TranscriptLanguage = transcriptLang
	s.Summary = ""
	s.History = nil
	s.LastActive = time.Now()
	slog.Info("session video loaded", slog.Int64("user", userID), slog.String("video", videoID))
	return st.snapshotLocked(s)
}

// SetLanguage stores the user's preferred response language. Works in any
// state — a preference set before the first video survives until a video
// arrives.
func (st *Store) SetLanguage(userID int64, lang string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.getOrCreateLocked(userID)
	s.Language = lang
	s.LastActive = time.Now()
}

// SetSummary stores the rendered summary for /summary re-display.
func (st *Store) SetSummary(userID int64, summary string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[userID]; ok {
		s.Summary = summary
		s.LastActive = time.Now()
	}
}

// AddTurn appends one question/answer pair, trimming history to the most
// recent maxTurns pairs.
func (st *Store) AddTurn(userID int64, question, answer string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	if !ok {
		return
	}
	s.History = append(s.History, Message{Role: RoleUser, Text: question}, Message{Role: RoleAssistant, Text: answer})
	s.History = trimHistory(s.History, st.maxTurns*2)
	s.LastActive = time.Now()
}

// Append adds a single history message under the same sliding window as
// AddTurn (2×maxTurns messages).
func (st *Store) Append(userID int64, role Role, text string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	if !ok {
		return
	}
	s.History = append(s.History, Message{Role: role, Text: text})
	s.History = trimHistory(s.History, st.maxTurns*2)
	s.LastActive = time.Now()
}

// BeginProcessing claims the user's admission slot. Returns false when an
// operation is already in flight — the caller replies "please wait" instead
// of queueing.
func (st *Store) BeginProcessing(userID int64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.inflight[userID] {
		return false
	}
	st.inflight[userID] = true
	return true
}

// EndProcessing releases the user's admission slot. Safe to call on every
// exit path.
func (st *Store) EndProcessing(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.inflight, userID)
}

// CleanupExpired removes all expired sessions and returns how many were
// dropped. Runs opportunistically on message traffic.
func (st *Store) CleanupExpired() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if st.expiredLocked(s) {
			delete(st.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("cleaned up expired sessions", slog.Int("count", removed))
		engine.AddSessionsExpired(removed)
	}
	return removed
}

// Len returns the number of stored sessions (expired ones included until
// the next cleanup).
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) getOrCreateLocked(userID int64) *Session {
	s, ok := st.sessions[userID]
	if ok && !st.expiredLocked(s) {
		return s
	}
	s = &Session{
		UserID:     userID,
		Language:   DefaultLanguage,
		CreatedAt:  time.Now(),
		LastActive: time.Now(),
	}
	st.sessions[userID] = s
	engine.IncrSessionsCreated()
	return s
}

func (st *Store) expiredLocked(s *Session) bool {
	return time.Since(s.LastActive) > st.ttl
}

// snapshotLocked copies the session, including its history slice, so the
// caller can read it without the store lock.
func (st *Store) snapshotLocked(s *Session) Session {
	out := *s
	out.History = make([]Message, len(s.History))
	copy(out.History, s.History)
	return out
}

func trimHistory(h []Message, maxMessages int) []Message {
	if maxMessages > 0 && len(h) > maxMessages {
		h = append(h[:0], h[len(h)-maxMessages:]...)
	}
	return h
}
