// Package youtube is the metadata fetch client: it resolves pasted strings
// into video, playlist or channel references and fetches descriptive metadata
// for them via the YouTube Data API v3, with an oEmbed fallback for single
// videos when no API key is configured. The store never calls this package;
// results feed into store mutations as plain data.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultAPIBase    = "https://www.googleapis.com/youtube/v3"
	defaultOembedBase = "https://www.youtube.com/oembed"

	// Number of recent uploads fetched for a channel.
	recentUploadCount = 10

	// Page size for playlist item paging, the API maximum.
	playlistPageSize = 50

	videoCacheSize = 512
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnrecognized = errors.New("unrecognized input")
)

type Options struct {
	// APIKey enables the Data API. Without it only single-video lookups
	// work, via oEmbed.
	APIKey string
	// APIBase and OembedBase override the endpoints, used by tests.
	APIBase    string
	OembedBase string
	HTTPClient *http.Client
}

type Client struct {
	apiKey     string
	apiBase    string
	oembedBase string
	httpClient *http.Client
	videoCache *lru.Cache[string, Video]
}

func New(o Options) *Client {
	c := &Client{
		apiKey:     o.APIKey,
		apiBase:    o.APIBase,
		oembedBase: o.OembedBase,
		httpClient: o.HTTPClient,
	}
	if c.apiBase == "" {
		c.apiBase = defaultAPIBase
	}
	if c.oembedBase == "" {
		c.oembedBase = defaultOembedBase
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	// Error only fires for a non-positive size.
	c.videoCache, _ = lru.New[string, Video](videoCacheSize)
	return c
}

// Video is the metadata record for one video, ready to feed into a store
// mutation.
type Video struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail"`
	UploadDate  string `json:"uploadDate,omitempty"`
	Description string `json:"description,omitempty"`
}

// Playlist is playlist-level metadata.
type Playlist struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ItemCount   int    `json:"itemCount"`
}

// Channel is channel-level metadata including the uploads playlist used for
// refreshes.
type Channel struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Thumbnail         string `json:"thumbnail"`
	UploadsPlaylistID string `json:"uploadsPlaylistId"`
}

// Data API response shapes, limited to the fields we read.

type snippet struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PublishedAt string `json:"publishedAt"`
	ResourceID  struct {
		VideoID string `json:"videoId"`
	} `json:"resourceId"`
	Thumbnails struct {
		Default thumb `json:"default"`
		Medium  thumb `json:"medium"`
		High    thumb `json:"high"`
	} `json:"thumbnails"`
}

type thumb struct {
	URL string `json:"url"`
}

func (s *snippet) thumbnail() string {
	if s.Thumbnails.Medium.URL != "" {
		return s.Thumbnails.Medium.URL
	}
	if s.Thumbnails.High.URL != "" {
		return s.Thumbnails.High.URL
	}
	return s.Thumbnails.Default.URL
}

type apiListResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID             json.RawMessage `json:"id"`
		Snippet        snippet         `json:"snippet"`
		ContentDetails struct {
			ItemCount        int    `json:"itemCount"`
			VideoID          string `json:"videoId"`
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// get performs one Data API call and decodes the response.
func (c *Client) get(ctx context.Context, resource string, params url.Values) (*apiListResponse, error) {
	if c.apiKey == "" {
		return nil, errors.New("no API key configured")
	}
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiBase+"/"+resource+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", resource, resp.StatusCode)
	}

	var decoded apiListResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	return &decoded, nil
}

// LookupVideo fetches metadata for one video. It tries the Data API first
// (which includes upload date and description), falls back to oEmbed, and as
// a last resort returns a record with a placeholder title so the caller can
// still add the video. The error return is non-nil only when the video id
// could not be confirmed to exist.
func (c *Client) LookupVideo(ctx context.Context, videoID string) (*Video, error) {
	if !IsValidVideoID(videoID) {
		return nil, ErrUnrecognized
	}
	if v, ok := c.videoCache.Get(videoID); ok {
		return &v, nil
	}

	if c.apiKey != "" {
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("id", videoID)
		if resp, err := c.get(ctx, "videos", params); err == nil {
			if len(resp.Items) == 0 {
				return nil, ErrNotFound
			}
			sn := resp.Items[0].Snippet
			v := Video{
				ID:          videoID,
				URL:         WatchURL(videoID),
				Title:       sn.Title,
				Thumbnail:   sn.thumbnail(),
				UploadDate:  sn.PublishedAt,
				Description: sn.Description,
			}
			if v.Thumbnail == "" {
				v.Thumbnail = ThumbnailURL(videoID)
			}
			c.videoCache.Add(videoID, v)
			return &v, nil
		}
	}

	// oEmbed fallback: title only, thumbnail derived from the video id.
	title, err := c.oembedTitle(ctx, videoID)
	if err != nil {
		return nil, err
	}
	v := Video{
		ID:        videoID,
		URL:       WatchURL(videoID),
		Title:     title,
		Thumbnail: ThumbnailURL(videoID),
	}
	c.videoCache.Add(videoID, v)
	return &v, nil
}

func (c *Client) oembedTitle(ctx context.Context, videoID string) (string, error) {
	params := url.Values{}
	params.Set("url", WatchURL(videoID))
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.oembedBase+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		return "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oembed: unexpected status %d", resp.StatusCode)
	}

	var decoded struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Title == "" {
		return "Untitled Video", nil
	}
	return decoded.Title, nil
}

// LookupPlaylist fetches playlist metadata plus every item, paging until the
// result set is exhausted and preserving the source order.
func (c *Client) LookupPlaylist(ctx context.Context, playlistID string) (*Playlist, []Video, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("id", playlistID)
	resp, err := c.get(ctx, "playlists", params)
	if err != nil {
		return nil, nil, err
	}
	if len(resp.Items) == 0 {
		return nil, nil, ErrNotFound
	}
	info := &Playlist{
		ID:          playlistID,
		Title:       resp.Items[0].Snippet.Title,
		Description: resp.Items[0].Snippet.Description,
		ItemCount:   resp.Items[0].ContentDetails.ItemCount,
	}

	videos, err := c.playlistItems(ctx, playlistID, 0)
	if err != nil {
		return nil, nil, err
	}
	return info, videos, nil
}

// playlistItems pages through a playlist's items. A limit of 0 means all.
func (c *Client) playlistItems(ctx context.Context, playlistID string, limit int) ([]Video, error) {
	var videos []Video
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("part", "snippet,contentDetails")
		params.Set("playlistId", playlistID)
		params.Set("maxResults", fmt.Sprintf("%d", playlistPageSize))
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		resp, err := c.get(ctx, "playlistItems", params)
		if err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			videoID := item.ContentDetails.VideoID
			if videoID == "" {
				videoID = item.Snippet.ResourceID.VideoID
			}
			if videoID == "" {
				continue
			}
			thumbnail := item.Snippet.thumbnail()
			if thumbnail == "" {
				thumbnail = ThumbnailURL(videoID)
			}
			videos = append(videos, Video{
				ID:          videoID,
				URL:         WatchURL(videoID),
				Title:       item.Snippet.Title,
				Thumbnail:   thumbnail,
				UploadDate:  item.Snippet.PublishedAt,
				Description: item.Snippet.Description,
			})
			if limit > 0 && len(videos) >= limit {
				return videos, nil
			}
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			return videos, nil
		}
	}
}

// LookupChannel resolves a channel reference (UC id or handle) to channel
// metadata and a bounded list of its most recent uploads.
func (c *Client) LookupChannel(ctx context.Context, ref Resolution) (*Channel, []Video, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	switch {
	case ref.ChannelID != "":
		params.Set("id", ref.ChannelID)
	case ref.ChannelHandle != "":
		params.Set("forHandle", ref.ChannelHandle)
	default:
		return nil, nil, ErrUnrecognized
	}

	resp, err := c.get(ctx, "channels", params)
	if err != nil {
		return nil, nil, err
	}
	if len(resp.Items) == 0 {
		return nil, nil, ErrNotFound
	}

	item := resp.Items[0]
	var channelID string
	if err := json.Unmarshal(item.ID, &channelID); err != nil {
		return nil, nil, err
	}
	channel := &Channel{
		ID:                channelID,
		Title:             item.Snippet.Title,
		Thumbnail:         item.Snippet.thumbnail(),
		UploadsPlaylistID: item.ContentDetails.RelatedPlaylists.Uploads,
	}

	var videos []Video
	if channel.UploadsPlaylistID != "" {
		videos, err = c.playlistItems(ctx, channel.UploadsPlaylistID, recentUploadCount)
		if err != nil {
			return nil, nil, err
		}
	}
	return channel, videos, nil
}

// RecentUploads fetches up to recentUploadCount videos from a channel's
// uploads playlist. Used by the subscription refresher.
func (c *Client) RecentUploads(ctx context.Context, channelID string) ([]Video, error) {
	_, videos, err := c.LookupChannel(ctx, Resolution{ChannelID: channelID})
	return videos, err
}
