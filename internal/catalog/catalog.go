// Package catalog looks up video metadata in the YouTube Data API using an
// ordered list of API keys: each operation is attempted with every key in
// turn and the first success wins.
package catalog

import "context"

type Video struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	Thumbnail    string `json:"thumbnail"`
	ChannelTitle string `json:"channelTitle"`
}

type VideoDetails struct {
	Video
	Duration Duration `json:"duration"`
}

type Duration struct {
	TotalSeconds int    `json:"totalSeconds"`
	Formatted    string `json:"formatted"`
}

type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Video, error)
	Video(ctx context.Context, id string) (VideoDetails, error)
}
