package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xsync/server/internal/catalog"
	"github.com/xsync/server/internal/service/room"
)

type wsEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newWSTestServer(t *testing.T, provider catalog.Provider) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(newTestController(t, provider).Mux())
	t.Cleanup(srv.Close)
	return srv
}

func dialRoom(t *testing.T, srv *httptest.Server, roomId string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if roomId != "" {
		url += "?roomId=" + roomId
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var env wsEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

// readUntil drains messages until one of the wanted type arrives. It fails
// the test when the connection runs dry first.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) wsEnvelope {
	t.Helper()

	for i := 0; i < 10; i++ {
		env := readEnvelope(t, conn)
		if env.Type == msgType {
			return env
		}
	}
	t.Fatalf("no %q message received", msgType)
	return wsEnvelope{}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()

	raw, err := json.Marshal(map[string]any{"type": msgType, "payload": payload})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

func roomsCount(t *testing.T, srv *httptest.Server) int {
	t.Helper()

	resp, err := http.Get(srv.URL + "/api/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()

	var rooms []room.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	return len(rooms)
}

func TestConnectionWithoutRoomIdIsClosed(t *testing.T) {
	srv := newWSTestServer(t, nil)
	conn := dialRoom(t, srv, "")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "the server must close the connection without sending events")
}

func TestJoinDeliversInitialSync(t *testing.T) {
	srv := newWSTestServer(t, nil)
	conn := dialRoom(t, srv, "r1")

	env := readEnvelope(t, conn)
	require.Equal(t, "role", env.Type)
	assert.JSONEq(t, `{"role": "host"}`, string(env.Payload))

	env = readEnvelope(t, conn)
	require.Equal(t, "sync-state", env.Type)
	var state room.Snapshot
	require.NoError(t, json.Unmarshal(env.Payload, &state))
	assert.Len(t, state.Members, 1)
	assert.Equal(t, state.HostId, state.Members[0])
	assert.Empty(t, state.Playlist)

	for _, wantScope := range []string{"global", "room"} {
		env = readEnvelope(t, conn)
		require.Equal(t, "previous-chats", env.Type)
		var chats struct {
			Scope    string            `json:"scope"`
			Messages []json.RawMessage `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(env.Payload, &chats))
		assert.Equal(t, wantScope, chats.Scope)
		assert.Empty(t, chats.Messages)
	}
}

func TestHostSyncStateReachesGuests(t *testing.T) {
	srv := newWSTestServer(t, nil)

	host := dialRoom(t, srv, "r1")
	readUntil(t, host, "previous-chats")
	readEnvelope(t, host)

	guest := dialRoom(t, srv, "r1")
	env := readEnvelope(t, guest)
	require.Equal(t, "role", env.Type)
	assert.JSONEq(t, `{"role": "guest"}`, string(env.Payload))
	readUntil(t, guest, "previous-chats")
	readEnvelope(t, guest)

	send(t, host, "sync-state", map[string]any{"isPlaying": true, "currentTime": 12.5})

	env = readUntil(t, guest, "sync-state")
	var state room.Snapshot
	require.NoError(t, json.Unmarshal(env.Payload, &state))
	assert.True(t, state.IsPlaying)
	assert.Equal(t, 12.5, state.CurrentTime)
	assert.Len(t, state.Members, 2)
}

func TestGuestSyncStateIsDropped(t *testing.T) {
	srv := newWSTestServer(t, nil)

	host := dialRoom(t, srv, "r1")
	readUntil(t, host, "previous-chats")
	readEnvelope(t, host)

	guest := dialRoom(t, srv, "r1")
	readUntil(t, guest, "previous-chats")
	readEnvelope(t, guest)

	send(t, guest, "sync-state", map[string]any{"isPlaying": true})
	send(t, host, "request-sync", nil)

	env := readUntil(t, host, "sync-state")
	var state room.Snapshot
	require.NoError(t, json.Unmarshal(env.Payload, &state))
	assert.False(t, state.IsPlaying, "a guest update must not change canonical state")
}

func TestQueueAddBroadcastsToAllMembers(t *testing.T) {
	srv := newWSTestServer(t, nil)

	host := dialRoom(t, srv, "r1")
	readUntil(t, host, "previous-chats")
	readEnvelope(t, host)

	guest := dialRoom(t, srv, "r1")
	readUntil(t, guest, "previous-chats")
	readEnvelope(t, guest)

	send(t, guest, "queue-add", map[string]any{"id": "abc123", "title": "Cat video"})

	for _, conn := range []*websocket.Conn{host, guest} {
		env := readUntil(t, conn, "sync-state")
		var state room.Snapshot
		require.NoError(t, json.Unmarshal(env.Payload, &state))
		require.Len(t, state.Playlist, 1)
		assert.Equal(t, "abc123", state.Playlist[0].Id)
	}
}

func TestChatMessageGlobalReachesOtherRooms(t *testing.T) {
	srv := newWSTestServer(t, nil)

	sender := dialRoom(t, srv, "r1")
	readUntil(t, sender, "previous-chats")
	readEnvelope(t, sender)

	other := dialRoom(t, srv, "r2")
	readUntil(t, other, "previous-chats")
	readEnvelope(t, other)

	send(t, sender, "chat-message", map[string]any{"text": "hello", "sender": "alice"})

	env := readUntil(t, other, "chat-message")
	var msg struct {
		Scope   string `json:"scope"`
		Message struct {
			Text   string `json:"text"`
			Sender string `json:"sender"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(env.Payload, &msg))
	assert.Equal(t, "global", msg.Scope)
	assert.Equal(t, "hello", msg.Message.Text)
	assert.Equal(t, "alice", msg.Message.Sender)
}

func TestChatMessageRoomScopeStaysInRoom(t *testing.T) {
	srv := newWSTestServer(t, nil)

	sender := dialRoom(t, srv, "r1")
	readUntil(t, sender, "previous-chats")
	readEnvelope(t, sender)

	outsider := dialRoom(t, srv, "r2")
	readUntil(t, outsider, "previous-chats")
	readEnvelope(t, outsider)

	send(t, sender, "chat-message", map[string]any{"scope": "room", "text": "secret"})

	env := readUntil(t, sender, "chat-message")
	assert.Equal(t, "chat-message", env.Type)

	require.NoError(t, outsider.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := outsider.ReadMessage()
	assert.Error(t, err, "a room-scoped message must not leave the room")
}

func TestHostDisconnectPromotesGuest(t *testing.T) {
	srv := newWSTestServer(t, nil)

	host := dialRoom(t, srv, "r1")
	readUntil(t, host, "previous-chats")
	readEnvelope(t, host)

	guest := dialRoom(t, srv, "r1")
	readUntil(t, guest, "previous-chats")
	readEnvelope(t, guest)

	host.Close()

	env := readUntil(t, guest, "role")
	assert.JSONEq(t, `{"role": "host"}`, string(env.Payload))

	env = readUntil(t, guest, "host-changed")
	var payload struct {
		HostId *string `json:"hostId"`
	}
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.NotNil(t, payload.HostId)
	assert.NotEmpty(t, *payload.HostId)

	// the promoted member now holds write authority
	send(t, guest, "sync-state", map[string]any{"isPlaying": true})
	send(t, guest, "request-sync", nil)

	env = readUntil(t, guest, "sync-state")
	var state room.Snapshot
	require.NoError(t, json.Unmarshal(env.Payload, &state))
	assert.True(t, state.IsPlaying)
	assert.Equal(t, *payload.HostId, state.HostId)
}

func TestLastMemberLeavingDeletesRoom(t *testing.T) {
	srv := newWSTestServer(t, nil)

	conn := dialRoom(t, srv, "r1")
	readUntil(t, conn, "previous-chats")
	readEnvelope(t, conn)
	require.Equal(t, 1, roomsCount(t, srv))

	conn.Close()

	require.Eventually(t, func() bool {
		return roomsCount(t, srv) == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRequestSyncAnswersSender(t *testing.T) {
	srv := newWSTestServer(t, nil)

	host := dialRoom(t, srv, "r1")
	readUntil(t, host, "previous-chats")
	readEnvelope(t, host)

	guest := dialRoom(t, srv, "r1")
	readUntil(t, guest, "previous-chats")
	readEnvelope(t, guest)

	send(t, guest, "request-sync", nil)

	env := readUntil(t, guest, "sync-state")
	var state room.Snapshot
	require.NoError(t, json.Unmarshal(env.Payload, &state))
	assert.Len(t, state.Members, 2)

	env = readUntil(t, host, "request-sync")
	assert.Equal(t, "request-sync", env.Type)
}
