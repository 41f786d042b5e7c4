package sources

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// videoIDPatterns match the YouTube URL shapes users paste into chat.
// A video ID is always 11 chars of [A-Za-z0-9_-].
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/watch\?.*v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/shorts/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:https?://)?youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/v/([a-zA-Z0-9_-]{11})`),
}

// ExtractVideoID pulls a YouTube video ID out of a chat message.
// The message may contain surrounding text.
func ExtractVideoID(text string) (string, bool) {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(text); len(m) >= 2 {
			return m[1], true
		}
	}
	return "", false
}

// VideoInfo is basic video metadata used in prompts and rendered replies.
type VideoInfo struct {
	VideoID         string `json:"video_id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	DurationSeconds int    `json:"duration_seconds"`
	URL             string `json:"url"`
}

// FetchVideoInfo fetches title/author via oEmbed and duration via the
// Innertube player response. Metadata is decorative — every failure degrades
// to "Unknown" defaults rather than aborting the pipeline.
func FetchVideoInfo(ctx context.Context, videoID string) VideoInfo {
	engine.IncrVideoInfoRequests()

	info := VideoInfo{
		VideoID: videoID,
		Title:   "Unknown Title",
		Author:  "Unknown Channel",
		URL:     ytWatchURL + videoID,
	}

	ctx, cancel := context.WithTimeout(ctx, engine.Cfg.FetchTimeout)
	defer cancel()

	if oe, err := fetchOEmbed(ctx, videoID); err != nil {
		slog.Warn("youtube: oembed failed", slog.String("id", videoID), slog.Any("err", err))
	} else {
		if oe.Title != "" {
			info.Title = oe.Title
		}
		if oe.AuthorName != "" {
			info.Author = oe.AuthorName
		}
	}

	playerResp, err := fetchPlayerResponse(ctx, videoID)
	if err != nil {
		slog.Warn("youtube: player metadata failed", slog.String("id", videoID), slog.Any("err", err))
		return info
	}
	if vd := playerResp.VideoDetails; vd != nil {
		if n, err := strconv.Atoi(vd.LengthSeconds); err == nil {
			info.DurationSeconds = n
		}
		if info.Title == "Unknown Title" && vd.Title != "" {
			info.Title = vd.Title
		}
		if info.Author == "Unknown Channel" && vd.Author != "" {
			info.Author = vd.Author
		}
	}
	return info
}

func fetchOEmbed(ctx context.Context, videoID string) (ytOEmbedResp, error) {
	var oe ytOEmbedResp

	q := url.Values{}
	q.Set("url", ytWatchURL+videoID)
	q.Set("format", "json")

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ytOEmbedURL+"?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return oe, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&oe); err != nil {
		return oe, err
	}
	return oe, nil
}
