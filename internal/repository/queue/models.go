package queue

// Video is an entry in the legacy flat queue. The flat queue predates
// per-room playlists and is kept as an independent list for the /api/queue
// endpoints.
type Video struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	Thumbnail    string `json:"thumbnail"`
	ChannelTitle string `json:"channelTitle"`
}
