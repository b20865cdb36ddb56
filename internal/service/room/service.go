package room

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrMemberNotFound     = errors.New("member not found")
	ErrNotHost            = errors.New("sender is not the room host")
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrInvalidVideo       = errors.New("invalid video")
	ErrVideoAlreadyQueued = errors.New("video already in playlist")
)

type room struct {
	playlist          []Video
	currentVideoId    string
	currentVideoIndex int
	isPlaying         bool
	currentTime       float64
	isRepeat          bool
	isShuffle         bool
	hostId            string
	members           map[string]struct{}
	updatedAt         time.Time
}

func newRoom() *room {
	return &room{
		playlist:  []Video{},
		members:   make(map[string]struct{}),
		updatedAt: time.Now(),
	}
}

func (r *room) memberIds() []string {
	ids := lo.Keys(r.members)
	slices.Sort(ids)
	return ids
}

func (r *room) snapshot() Snapshot {
	return Snapshot{
		Playlist:          slices.Clone(r.playlist),
		CurrentVideoId:    r.currentVideoId,
		CurrentVideoIndex: r.currentVideoIndex,
		IsPlaying:         r.isPlaying,
		CurrentTime:       r.currentTime,
		IsRepeat:          r.isRepeat,
		IsShuffle:         r.isShuffle,
		HostId:            r.hostId,
		Members:           r.memberIds(),
		UpdatedAt:         r.updatedAt.UnixMilli(),
	}
}

// Service is the process-wide room registry. Rooms are created lazily on
// first attach and deleted on last detach. A single mutex serializes every
// mutation, so each operation observes and produces a consistent room.
type Service struct {
	mu     sync.Mutex
	rooms  map[string]*room
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	return &Service{
		rooms:  make(map[string]*room),
		logger: logger,
	}
}

type AttachParams struct {
	ConnectionId string
	RoomId       string
}

type AttachResponse struct {
	Created bool
	IsHost  bool
	State   Snapshot
}

// Attach adds the connection to the room, creating the room if it does not
// exist. The first member of a freshly created room becomes its host.
func (s *Service) Attach(ctx context.Context, params *AttachParams) AttachResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[params.RoomId]
	created := !ok
	if !ok {
		r = newRoom()
		s.rooms[params.RoomId] = r
		s.logger.DebugContext(ctx, "room created", "room_id", params.RoomId)
	}

	r.members[params.ConnectionId] = struct{}{}
	if created {
		r.hostId = params.ConnectionId
	}

	return AttachResponse{
		Created: created,
		IsHost:  r.hostId == params.ConnectionId,
		State:   r.snapshot(),
	}
}

type DetachParams struct {
	ConnectionId string
	RoomId       string
}

type DetachResponse struct {
	RoomDeleted bool
	// HostLeft reports that the departing member held host authority; the
	// room is unhosted until AssignHost names a successor.
	HostLeft bool
	Members  []string
}

// Detach removes the connection from the room. The last member leaving
// deletes the room. A departing host leaves the room unhosted; picking and
// announcing the successor is the caller's job via AssignHost.
func (s *Service) Detach(ctx context.Context, params *DetachParams) (DetachResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[params.RoomId]
	if !ok {
		return DetachResponse{}, ErrRoomNotFound
	}

	delete(r.members, params.ConnectionId)

	if len(r.members) == 0 {
		delete(s.rooms, params.RoomId)
		s.logger.DebugContext(ctx, "room deleted", "room_id", params.RoomId)
		return DetachResponse{RoomDeleted: true}, nil
	}

	resp := DetachResponse{Members: r.memberIds()}
	if r.hostId == params.ConnectionId {
		r.hostId = ""
		resp.HostLeft = true
		s.logger.DebugContext(ctx, "host left room", "room_id", params.RoomId)
	}

	return resp, nil
}

type GetStateParams struct {
	RoomId string
}

func (s *Service) GetState(ctx context.Context, params *GetStateParams) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[params.RoomId]
	if !ok {
		return Snapshot{}, ErrRoomNotFound
	}

	return r.snapshot(), nil
}

// List returns a row per live room, ordered by room id.
func (s *Service) List(ctx context.Context) []Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := lo.Keys(s.rooms)
	slices.Sort(ids)

	return lo.Map(ids, func(id string, _ int) Info {
		r := s.rooms[id]
		return Info{
			Id:             id,
			Members:        len(r.members),
			CurrentVideoId: r.currentVideoId,
			UpdatedAt:      r.updatedAt.UnixMilli(),
		}
	})
}
