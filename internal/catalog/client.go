package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

var (
	ErrAllKeysFailed = errors.New("all catalog credentials failed")
	ErrVideoNotFound = errors.New("video not found")
)

type Config struct {
	// Keys is the ordered credential failover chain.
	Keys []string
	// BaseURL overrides the YouTube Data API endpoint, for tests.
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	keys       []string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg *Config, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		keys:       cfg.Keys,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

type searchResponse struct {
	Items []struct {
		Id struct {
			VideoId string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type snippet struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	Thumbnails   struct {
		High struct {
			Url string `json:"url"`
		} `json:"high"`
	} `json:"thumbnails"`
}

func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Video, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(maxResults))

	var resp searchResponse
	if err := c.getJSON(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		videos = append(videos, Video{
			Id:           item.Id.VideoId,
			Title:        item.Snippet.Title,
			Thumbnail:    item.Snippet.Thumbnails.High.Url,
			ChannelTitle: item.Snippet.ChannelTitle,
		})
	}

	return videos, nil
}

type videosResponse struct {
	Items []struct {
		Id             string  `json:"id"`
		Snippet        snippet `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (c *Client) Video(ctx context.Context, id string) (VideoDetails, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("id", id)

	var resp videosResponse
	if err := c.getJSON(ctx, "/videos", params, &resp); err != nil {
		return VideoDetails{}, err
	}

	if len(resp.Items) == 0 {
		return VideoDetails{}, ErrVideoNotFound
	}

	item := resp.Items[0]
	duration, err := ParseDuration(item.ContentDetails.Duration)
	if err != nil {
		return VideoDetails{}, fmt.Errorf("failed to parse video duration: %w", err)
	}

	return VideoDetails{
		Video: Video{
			Id:           item.Id,
			Title:        item.Snippet.Title,
			Thumbnail:    item.Snippet.Thumbnails.High.Url,
			ChannelTitle: item.Snippet.ChannelTitle,
		},
		Duration: duration,
	}, nil
}

// getJSON performs the request once per key until one succeeds. A response
// with a non-200 status counts as a failed key; exhausting the chain yields
// ErrAllKeysFailed.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dst any) error {
	if len(c.keys) == 0 {
		return fmt.Errorf("%w: no credentials configured", ErrAllKeysFailed)
	}

	var lastErr error
	for i, key := range c.keys {
		params.Set("key", key)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.logger.WarnContext(ctx, "catalog credential failed, trying next", "key_index", i, "error", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			c.logger.WarnContext(ctx, "catalog credential failed, trying next", "key_index", i, "status", resp.StatusCode)
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(dst)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}

		return nil
	}

	return fmt.Errorf("%w: %v", ErrAllKeysFailed, lastErr)
}
