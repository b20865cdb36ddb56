package room

import (
	"context"
	"time"
)

type AddVideoParams struct {
	RoomId string
	Video  Video
}

type AddVideoResponse struct {
	State   Snapshot
	Members []string
}

// AddVideo appends the video to the room's playlist. The playlist is a set
// keyed by video id with insertion-order iteration: adding an id that is
// already queued is a no-op.
func (s *Service) AddVideo(ctx context.Context, params *AddVideoParams) (AddVideoResponse, error) {
	if params.Video.Id == "" {
		return AddVideoResponse{}, ErrInvalidVideo
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[params.RoomId]
	if !ok {
		return AddVideoResponse{}, ErrRoomNotFound
	}

	for _, v := range r.playlist {
		if v.Id == params.Video.Id {
			return AddVideoResponse{}, ErrVideoAlreadyQueued
		}
	}

	r.playlist = append(r.playlist, params.Video)
	r.updatedAt = time.Now()
	s.logger.DebugContext(ctx, "video queued", "room_id", params.RoomId, "video_id", params.Video.Id)

	return AddVideoResponse{
		State:   r.snapshot(),
		Members: r.memberIds(),
	}, nil
}
