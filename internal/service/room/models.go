package room

type Video struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	Thumbnail    string `json:"thumbnail"`
	ChannelTitle string `json:"channelTitle"`
}

// Snapshot is the canonical playback state of a room as sent to clients.
// Field names follow the browser protocol.
type Snapshot struct {
	Playlist          []Video  `json:"playlist"`
	CurrentVideoId    string   `json:"currentVideoId"`
	CurrentVideoIndex int      `json:"currentVideoIndex"`
	IsPlaying         bool     `json:"isPlaying"`
	CurrentTime       float64  `json:"currentTime"`
	IsRepeat          bool     `json:"isRepeat"`
	IsShuffle         bool     `json:"isShuffle"`
	HostId            string   `json:"hostId"`
	Members           []string `json:"members"`
	UpdatedAt         int64    `json:"updatedAt"`
}

// Info is the per-room row returned by the rooms listing endpoint.
type Info struct {
	Id             string `json:"id"`
	Members        int    `json:"members"`
	CurrentVideoId string `json:"currentVideoId"`
	UpdatedAt      int64  `json:"updatedAt"`
}
