package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

// ErrInvalidURL means the submitted link does not reference a video.
var ErrInvalidURL = errors.New("media: unrecognized video url")

// Video is a resolved media reference.
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Accepts watch, short-link, embed and shorts URL shapes.
var ytIDPattern = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:[^#\s]*&)?v=|embed/|shorts/)|youtu\.be/)([A-Za-z0-9_-]{11})`)

// ExtractVideoID pulls the 11-character video id out of a YouTube URL,
// or returns "" when the URL has no recognizable id.
func ExtractVideoID(rawURL string) string {
	m := ytIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

type YouTubeClient struct {
	oembedURL string
	http      *http.Client
}

// NewYouTubeClient builds a resolver backed by the oEmbed endpoint.
// oembedURL defaults to the public YouTube one when empty.
func NewYouTubeClient(oembedURL string) *YouTubeClient {
	if oembedURL == "" {
		oembedURL = "https://www.youtube.com/oembed"
	}
	return &YouTubeClient{
		oembedURL: oembedURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type oembedResponse struct {
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Resolve validates the URL and fetches title and thumbnail. Metadata
// is best effort: when the oEmbed call fails the video still resolves
// with fallback fields, only an unparseable URL is an error.
func (c *YouTubeClient) Resolve(ctx context.Context, rawURL string) (Video, error) {
	id := ExtractVideoID(rawURL)
	if id == "" {
		return Video{}, ErrInvalidURL
	}

	v := Video{
		ID:           id,
		Title:        id,
		ThumbnailURL: fmt.Sprintf("https://i.ytimg.com/vi/%s/mqdefault.jpg", id),
	}

	meta, err := c.fetchMetadata(ctx, id)
	if err != nil {
		return v, nil
	}
	if meta.Title != "" {
		v.Title = meta.Title
	}
	if meta.ThumbnailURL != "" {
		v.ThumbnailURL = meta.ThumbnailURL
	}
	return v, nil
}

func (c *YouTubeClient) fetchMetadata(ctx context.Context, videoID string) (oembedResponse, error) {
	val := url.Values{}
	val.Set("url", "https://www.youtube.com/watch?v="+videoID)
	val.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.oembedURL+"?"+val.Encode(), nil)
	if err != nil {
		return oembedResponse{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return oembedResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oembedResponse{}, fmt.Errorf("oembed status %d", resp.StatusCode)
	}

	var body oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return oembedResponse{}, err
	}
	return body, nil
}
