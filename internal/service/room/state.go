package room

import (
	"context"
	"encoding/json"
	"time"
)

type ApplyStateUpdateParams struct {
	RoomId   string
	SenderId string
	Payload  json.RawMessage
}

type ApplyStateUpdateResponse struct {
	State Snapshot
	// Receivers is every member except the sender, which already holds the
	// state authoritatively.
	Receivers []string
}

// ApplyStateUpdate merges a host's partial state update into the room's
// canonical state. Updates from non-host senders and malformed payloads are
// rejected without touching the state.
func (s *Service) ApplyStateUpdate(ctx context.Context, params *ApplyStateUpdateParams) (ApplyStateUpdateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[params.RoomId]
	if !ok {
		return ApplyStateUpdateResponse{}, ErrRoomNotFound
	}

	if params.SenderId != r.hostId {
		return ApplyStateUpdateResponse{}, ErrNotHost
	}

	fields, ok := decodeObject(params.Payload)
	if !ok {
		return ApplyStateUpdateResponse{}, ErrInvalidPayload
	}

	r.merge(fields)
	r.updatedAt = time.Now()

	receivers := make([]string, 0, len(r.members)-1)
	for _, id := range r.memberIds() {
		if id != params.SenderId {
			receivers = append(receivers, id)
		}
	}

	return ApplyStateUpdateResponse{
		State:     r.snapshot(),
		Receivers: receivers,
	}, nil
}

// merge applies a field-partial update: every field is taken only when
// present with the right type, otherwise the stored value stays. An explicit
// null never overrides anything.
func (r *room) merge(fields map[string]json.RawMessage) {
	mergeField(fields, "playlist", &r.playlist)
	mergeField(fields, "currentVideoId", &r.currentVideoId)
	mergeField(fields, "currentVideoIndex", &r.currentVideoIndex)
	mergeField(fields, "isPlaying", &r.isPlaying)
	mergeField(fields, "currentTime", &r.currentTime)
	mergeField(fields, "isRepeat", &r.isRepeat)
	mergeField(fields, "isShuffle", &r.isShuffle)
}

// mergeField assigns dst only when the field is present, non-null and of the
// right type. Unmarshalling null reports success without writing, so it needs
// its own check.
func mergeField[T any](fields map[string]json.RawMessage, key string, dst *T) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return
	}

	var value T
	if err := json.Unmarshal(raw, &value); err == nil {
		*dst = value
	}
}

// decodeObject reports whether raw is a non-null JSON object and returns its
// fields.
func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}
