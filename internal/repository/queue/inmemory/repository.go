package inmemory

import (
	"slices"
	"sync"

	"github.com/xsync/server/internal/repository/queue"
)

type Repo struct {
	mu     sync.RWMutex
	videos []queue.Video
}

func NewRepo() *Repo {
	return &Repo{videos: []queue.Video{}}
}

// Add appends the video and returns the resulting queue.
func (r *Repo) Add(video queue.Video) []queue.Video {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.videos = append(r.videos, video)
	return slices.Clone(r.videos)
}

func (r *Repo) List() []queue.Video {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.videos)
}

func (r *Repo) Clear() {
	r.mu.Lock()
	r.videos = []queue.Video{}
	r.mu.Unlock()
}
