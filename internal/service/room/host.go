package room

import "context"

type AssignHostParams struct {
	RoomId    string
	NewHostId string
}

type AssignHostResponse struct {
	Members []string
}

// AssignHost makes the given member the room's authoritative writer. An empty
// NewHostId leaves the room without a host until the next re-election.
func (s *Service) AssignHost(ctx context.Context, params *AssignHostParams) (AssignHostResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[params.RoomId]
	if !ok {
		return AssignHostResponse{}, ErrRoomNotFound
	}

	if params.NewHostId != "" {
		if _, ok := r.members[params.NewHostId]; !ok {
			return AssignHostResponse{}, ErrMemberNotFound
		}
	}

	r.hostId = params.NewHostId
	s.logger.DebugContext(ctx, "host assigned", "room_id", params.RoomId, "host_id", params.NewHostId)

	return AssignHostResponse{Members: r.memberIds()}, nil
}

type RequestSyncParams struct {
	RoomId   string
	SenderId string
}

type RequestSyncResponse struct {
	State Snapshot
	// HostId is set when a host distinct from the sender exists and should be
	// nudged to push a fresher authoritative update.
	HostId string
}

func (s *Service) RequestSync(ctx context.Context, params *RequestSyncParams) (RequestSyncResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[params.RoomId]
	if !ok {
		return RequestSyncResponse{}, ErrRoomNotFound
	}

	resp := RequestSyncResponse{State: r.snapshot()}
	if r.hostId != "" && r.hostId != params.SenderId {
		resp.HostId = r.hostId
	}

	return resp, nil
}
