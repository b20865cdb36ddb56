package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/xsync/server/pkg/ringbuf"
)

const (
	ScopeGlobal = "global"
	ScopeRoom   = "room"

	defaultSender = "Anonymous user"
)

var (
	ErrInvalidPayload = errors.New("invalid payload")
	ErrEmptyText      = errors.New("empty message text")
)

// Message is an immutable chat entry. RoomId is nil for global-scope
// messages. The id is a ULID, so consumers can order and dedup by it.
type Message struct {
	Id     string  `json:"id"`
	Text   string  `json:"text"`
	Sender string  `json:"sender"`
	IsHost bool    `json:"isHost"`
	Time   int64   `json:"time"`
	RoomId *string `json:"roomId"`
}

type Config struct {
	HistorySize     int
	MaxTextLength   int
	MaxSenderLength int
}

// Service keeps one bounded message log per scope: a global log that lives
// for the whole process and a per-room log deleted with its room. Once a log
// reaches HistorySize entries the oldest entry is evicted.
type Service struct {
	mu     sync.Mutex
	cfg    Config
	logger *slog.Logger
	global *ringbuf.Buffer[Message]
	rooms  map[string]*ringbuf.Buffer[Message]
}

func NewService(cfg *Config, logger *slog.Logger) *Service {
	return &Service{
		cfg:    *cfg,
		logger: logger,
		global: ringbuf.New[Message](cfg.HistorySize),
		rooms:  make(map[string]*ringbuf.Buffer[Message]),
	}
}

type PostMessageParams struct {
	RoomId  string
	Payload json.RawMessage
}

type PostMessageResponse struct {
	Scope   string
	Message Message
}

// PostMessage builds a message from the client payload and appends it to the
// requested scope's log. Scope is "room" only when the payload asks for it
// explicitly; anything else is global. Malformed payloads and
// whitespace-only text are rejected.
func (s *Service) PostMessage(ctx context.Context, params *PostMessageParams) (PostMessageResponse, error) {
	fields, ok := decodeObject(params.Payload)
	if !ok {
		return PostMessageResponse{}, ErrInvalidPayload
	}

	scope := ScopeGlobal
	if raw, ok := fields["scope"]; ok {
		var requested string
		if err := json.Unmarshal(raw, &requested); err == nil && requested == ScopeRoom {
			scope = ScopeRoom
		}
	}

	var text string
	if raw, ok := fields["text"]; ok {
		_ = json.Unmarshal(raw, &text)
	}
	text = truncate(text, s.cfg.MaxTextLength)
	if strings.TrimSpace(text) == "" {
		return PostMessageResponse{}, ErrEmptyText
	}

	var sender string
	if raw, ok := fields["sender"]; ok {
		_ = json.Unmarshal(raw, &sender)
	}
	if sender == "" {
		sender = defaultSender
	}
	sender = truncate(sender, s.cfg.MaxSenderLength)

	var isHost bool
	if raw, ok := fields["isHost"]; ok {
		_ = json.Unmarshal(raw, &isHost)
	}

	msg := Message{
		Id:     ulid.Make().String(),
		Text:   text,
		Sender: sender,
		IsHost: isHost,
		Time:   time.Now().UnixMilli(),
	}
	if scope == ScopeRoom {
		roomId := params.RoomId
		msg.RoomId = &roomId
	}

	s.mu.Lock()
	if scope == ScopeRoom {
		s.roomLog(params.RoomId).Push(msg)
	} else {
		s.global.Push(msg)
	}
	s.mu.Unlock()

	return PostMessageResponse{Scope: scope, Message: msg}, nil
}

type BackfillResponse struct {
	Global []Message
	Room   []Message
}

// Backfill returns the current contents of the global log and the room's log,
// oldest first, for delivery to a freshly joined connection.
func (s *Service) Backfill(ctx context.Context, roomId string) BackfillResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := BackfillResponse{
		Global: s.global.Snapshot(),
		Room:   []Message{},
	}
	if log, ok := s.rooms[roomId]; ok {
		resp.Room = log.Snapshot()
	}

	return resp
}

// DropRoom discards the room's log. Called when the registry deletes the
// room; the global log is never dropped.
func (s *Service) DropRoom(ctx context.Context, roomId string) {
	s.mu.Lock()
	delete(s.rooms, roomId)
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "room chat log dropped", "room_id", roomId)
}

func (s *Service) roomLog(roomId string) *ringbuf.Buffer[Message] {
	log, ok := s.rooms[roomId]
	if !ok {
		log = ringbuf.New[Message](s.cfg.HistorySize)
		s.rooms[roomId] = log
	}
	return log
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}
