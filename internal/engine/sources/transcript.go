package sources

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// Transcript fetching.
// Primary:  scrape watch page ytInitialPlayerResponse → caption track → timedtext XML
// Fallback: ANDROID Innertube /player → captionTracks → timedtext XML
// Both paths keep per-segment start times from the timedtext start= attribute.

// ErrorKind classifies transcript retrieval failures for user-facing messages.
type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindDisabled           // uploader disabled captions
	KindUnavailable        // private, deleted, age-restricted
	KindNotFound           // no usable caption track in any language
)

// TranscriptError is a typed retrieval failure. None of its kinds are
// retryable — availability does not change between attempts.
type TranscriptError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *TranscriptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TranscriptError) Unwrap() error { return e.Err }

// Segment is one caption cue with its start offset in seconds.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
}

// TranscriptData is an immutable fetched transcript, content-addressed by
// video ID in the cache.
type TranscriptData struct {
	VideoID       string    `json:"video_id"`
	Segments      []Segment `json:"segments"`
	Text          string    `json:"text"` // rendered "[MM:SS] line" form
	Language      string    `json:"language"`
	AutoGenerated bool      `json:"auto_generated"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// FetchTranscript fetches the timed transcript for a YouTube video.
// langs is the caption language preference order (e.g. ["en"]).
func FetchTranscript(ctx context.Context, videoID string, langs []string) (TranscriptData, error) {
	engine.IncrTranscriptRequests()

	ctx, cancel := context.WithTimeout(ctx, engine.Cfg.FetchTimeout)
	defer cancel()

	data, err := fetchViaPageScrape(ctx, videoID, langs)
	if err == nil {
		return data, nil
	}
	var terr *TranscriptError
	if errors.As(err, &terr) && terr.Kind != KindGeneric {
		// Definitive answer (disabled / unavailable / no tracks) — a second
		// endpoint will not change it.
		engine.IncrTranscriptErrors()
		return TranscriptData{}, err
	}
	slog.Warn("youtube: page scrape failed, trying player",
		slog.String("id", videoID), slog.Any("err", err))

	data, err = fetchViaPlayer(ctx, videoID, langs)
	if err != nil {
		engine.IncrTranscriptErrors()
		return TranscriptData{}, err
	}
	return data, nil
}

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// fetchViaPageScrape scrapes the YouTube watch page HTML and extracts the
// caption track from ytInitialPlayerResponse. Works from any IP.
func fetchViaPageScrape(ctx context.Context, videoID string, langs []string) (TranscriptData, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ytWatchURL+videoID, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentChrome)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return TranscriptData{}, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()

	body, err := readLimited(resp.Body, 6*1024*1024)
	if err != nil {
		return TranscriptData{}, fmt.Errorf("read watch page: %w", err)
	}

	idx := strings.Index(string(body), ytInitialPlayerResponseMarker)
	if idx < 0 {
		return TranscriptData{}, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return TranscriptData{}, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var playerResp innertubePlayerResp
	if err := unmarshalPlayer(jsonData, &playerResp); err != nil {
		return TranscriptData{}, err
	}
	return transcriptFromPlayer(ctx, videoID, playerResp, langs)
}

// fetchViaPlayer uses the ANDROID Innertube /player endpoint.
func fetchViaPlayer(ctx context.Context, videoID string, langs []string) (TranscriptData, error) {
	playerResp, err := fetchPlayerResponse(ctx, videoID)
	if err != nil {
		return TranscriptData{}, err
	}
	return transcriptFromPlayer(ctx, videoID, playerResp, langs)
}

// transcriptFromPlayer classifies the player response, picks a caption track,
// and fetches its timedtext.
func transcriptFromPlayer(ctx context.Context, videoID string, playerResp innertubePlayerResp, langs []string) (TranscriptData, error) {
	track, terr := selectTrack(playerResp, langs)
	if terr != nil {
		return TranscriptData{}, terr
	}

	segments, err := fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return TranscriptData{}, &TranscriptError{Kind: KindGeneric, Message: "failed to fetch transcript", Err: err}
	}
	if len(segments) == 0 {
		return TranscriptData{}, &TranscriptError{Kind: KindNotFound, Message: "transcript is empty"}
	}

	return TranscriptData{
		VideoID:       videoID,
		Segments:      segments,
		Text:          RenderText(segments),
		Language:      track.LanguageCode,
		AutoGenerated: track.Kind == "asr",
		FetchedAt:     time.Now(),
	}, nil
}

// selectTrack maps playability and the caption track list to a usable track
// or a typed error.
func selectTrack(resp innertubePlayerResp, langs []string) (captionTrack, *TranscriptError) {
	var none captionTrack

	if ps := resp.PlayabilityStatus; ps != nil {
		switch ps.Status {
		case "ERROR", "UNPLAYABLE", "LOGIN_REQUIRED", "AGE_CHECK_REQUIRED":
			msg := "video is unavailable"
			if ps.Reason != "" {
				msg = ps.Reason
			}
			return none, &TranscriptError{Kind: KindUnavailable, Message: msg}
		}
	}
	if vd := resp.VideoDetails; vd != nil && vd.IsLiveContent && resp.Captions == nil {
		return none, &TranscriptError{Kind: KindDisabled, Message: "live streams have no transcript"}
	}
	if resp.Captions == nil {
		return none, &TranscriptError{Kind: KindDisabled, Message: "captions are disabled for this video"}
	}
	tracks := resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return none, &TranscriptError{Kind: KindNotFound, Message: "no caption tracks"}
	}
	track, ok := pickBestTrack(tracks, langs)
	if !ok {
		return none, &TranscriptError{Kind: KindNotFound, Message: "all caption tracks require PoToken"}
	}
	return track, nil
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the given language preferences.
// Priority: manual preferred language → auto preferred language → any English → any.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return tracks[0], false
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// fetchTimedText fetches a YouTube timedtext caption URL and parses the XML
// into timed segments.
func fetchTimedText(ctx context.Context, baseURL string) ([]Segment, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	body, err := readLimited(resp.Body, 1024*1024)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return parseTimedText(body)
}

// parseTimedText converts timedtext XML into ordered segments, dropping
// empty cues and unescaping the HTML entities YouTube embeds in cue text.
func parseTimedText(body []byte) ([]Segment, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segments := make([]Segment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := engine.CleanHTML(line.Text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{Text: text, Start: line.Start})
	}
	return segments, nil
}

// RenderText renders segments as one "[MM:SS] text" line per segment —
// the form every prompt consumes, so the model can cite timestamps that
// actually exist.
func RenderText(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteByte('[')
		sb.WriteString(engine.FormatTimestamp(seg.Start))
		sb.WriteString("] ")
		sb.WriteString(seg.Text)
	}
	return sb.String()
}
