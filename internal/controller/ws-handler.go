package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xsync/server/internal/service/chat"
	"github.com/xsync/server/internal/service/room"
	"github.com/xsync/server/pkg/ctxlogger"
)

const (
	roleHost  = "host"
	roleGuest = "guest"
)

type rolePayload struct {
	Role string `json:"role"`
}

type hostChangedPayload struct {
	HostId *string `json:"hostId"`
}

type previousChatsPayload struct {
	Scope    string         `json:"scope"`
	RoomId   *string        `json:"roomId,omitempty"`
	Messages []chat.Message `json:"messages"`
}

type chatMessagePayload struct {
	Scope   string       `json:"scope"`
	RoomId  *string      `json:"roomId,omitempty"`
	Message chat.Message `json:"message"`
}

// ServeWS upgrades the connection and binds it to the room named by the
// roomId query parameter for the connection's whole lifetime. A connection
// without a room id is terminated immediately, no events sent.
func (c *Controller) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomId := r.URL.Query().Get("roomId")

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to upgrade connection", "error", err)
		return
	}

	if roomId == "" {
		conn.Close()
		return
	}

	connectionId := uuid.NewString()
	ctx := r.Context()
	ctx = ctxlogger.AppendCtx(ctx, slog.String("connection_id", connectionId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", roomId))
	ctx = context.WithValue(ctx, roomIdCtxKey, roomId)
	ctx = context.WithValue(ctx, connectionIdCtxKey, connectionId)

	if err := c.connRepo.Add(conn, connectionId, roomId); err != nil {
		c.logger.ErrorContext(ctx, "failed to register connection", "error", err)
		conn.Close()
		return
	}

	c.join(ctx, conn, connectionId, roomId)
	c.logger.InfoContext(ctx, "connection joined")

	if err := c.wsMux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "read loop ended", "error", err)
	}

	c.disconnect(ctx, conn)
	c.logger.InfoContext(ctx, "connection left")
}

// join attaches the connection to the room and delivers the initial sync:
// role, current state and the chat backfill for both scopes.
func (c *Controller) join(ctx context.Context, conn *websocket.Conn, connectionId, roomId string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	attachResp := c.roomService.Attach(ctx, &room.AttachParams{
		ConnectionId: connectionId,
		RoomId:       roomId,
	})

	role := roleGuest
	if attachResp.IsHost {
		role = roleHost
	}
	c.writeToConn(ctx, conn, &Output{Type: "role", Payload: rolePayload{Role: role}})
	c.writeToConn(ctx, conn, &Output{Type: "sync-state", Payload: attachResp.State})

	backfill := c.chatService.Backfill(ctx, roomId)
	c.writeToConn(ctx, conn, &Output{Type: "previous-chats", Payload: previousChatsPayload{
		Scope:    chat.ScopeGlobal,
		Messages: backfill.Global,
	}})
	c.writeToConn(ctx, conn, &Output{Type: "previous-chats", Payload: previousChatsPayload{
		Scope:    chat.ScopeRoom,
		RoomId:   &roomId,
		Messages: backfill.Room,
	}})
}

// disconnect detaches the connection. If the host left, the new host learns
// its role and the remaining members get host-changed; the last member
// leaving deletes the room together with its chat log.
func (c *Controller) disconnect(ctx context.Context, conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	connectionId, roomId, err := c.connRepo.RemoveByConn(conn)
	if err != nil {
		return
	}
	c.limiter.Forget(connectionId)

	detachResp, err := c.roomService.Detach(ctx, &room.DetachParams{
		ConnectionId: connectionId,
		RoomId:       roomId,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to detach connection", "error", err)
		return
	}

	if detachResp.RoomDeleted {
		c.chatService.DropRoom(ctx, roomId)
		return
	}

	if detachResp.HostLeft {
		if err := c.assignHost(ctx, roomId, detachResp.Members[0]); err != nil {
			c.logger.WarnContext(ctx, "failed to reassign host", "error", err)
		}
	}
}

// assignHost transfers host authority to newHostId: the new host learns its
// role and every member is told about the change. An empty newHostId leaves
// the room unhosted and broadcasts a null host id. Callers hold c.mu.
func (c *Controller) assignHost(ctx context.Context, roomId, newHostId string) error {
	resp, err := c.roomService.AssignHost(ctx, &room.AssignHostParams{
		RoomId:    roomId,
		NewHostId: newHostId,
	})
	if err != nil {
		return fmt.Errorf("failed to assign host: %w", err)
	}

	payload := hostChangedPayload{}
	if newHostId != "" {
		payload.HostId = &newHostId
		if hostConn, err := c.connRepo.GetConn(newHostId); err == nil {
			c.writeToConn(ctx, hostConn, &Output{Type: "role", Payload: rolePayload{Role: roleHost}})
		}
	}
	c.broadcastToMembers(ctx, resp.Members, &Output{Type: "host-changed", Payload: payload})

	return nil
}

// handleSyncState merges a host state update into the canonical room state
// and fans the result out to every other member. Updates from non-host
// senders and malformed payloads are dropped without a reply.
func (c *Controller) handleSyncState(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.roomService.ApplyStateUpdate(ctx, &room.ApplyStateUpdateParams{
		RoomId:   c.getRoomIdFromCtx(ctx),
		SenderId: c.getConnectionIdFromCtx(ctx),
		Payload:  payload,
	})
	if err != nil {
		return fmt.Errorf("failed to apply state update: %w", err)
	}

	c.broadcastToMembers(ctx, resp.Receivers, &Output{Type: "sync-state", Payload: resp.State})

	return nil
}

// handleRequestSync answers the sender with the current canonical state and,
// when a distinct host exists, nudges it to push a fresher update.
func (c *Controller) handleRequestSync(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.roomService.RequestSync(ctx, &room.RequestSyncParams{
		RoomId:   c.getRoomIdFromCtx(ctx),
		SenderId: c.getConnectionIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to request sync: %w", err)
	}

	c.writeToConn(ctx, conn, &Output{Type: "sync-state", Payload: resp.State})

	if resp.HostId != "" {
		if hostConn, err := c.connRepo.GetConn(resp.HostId); err == nil {
			c.writeToConn(ctx, hostConn, &Output{Type: "request-sync", Payload: struct{}{}})
		}
	}

	return nil
}

// handleQueueAdd appends a video to the room playlist and broadcasts the
// resulting state to all members, sender included. Duplicate ids are a
// silent no-op.
func (c *Controller) handleQueueAdd(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var video room.Video
	if err := json.Unmarshal(payload, &video); err != nil {
		return fmt.Errorf("failed to decode video: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.roomService.AddVideo(ctx, &room.AddVideoParams{
		RoomId: c.getRoomIdFromCtx(ctx),
		Video:  video,
	})
	if err != nil {
		if errors.Is(err, room.ErrVideoAlreadyQueued) {
			return nil
		}
		return fmt.Errorf("failed to add video: %w", err)
	}

	c.broadcastToMembers(ctx, resp.Members, &Output{Type: "sync-state", Payload: resp.State})

	return nil
}

// handleChatMessage posts a chat message and fans it out: global scope
// reaches every connection, room scope only the room's members.
func (c *Controller) handleChatMessage(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	roomId := c.getRoomIdFromCtx(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.chatService.PostMessage(ctx, &chat.PostMessageParams{
		RoomId:  roomId,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}

	output := &Output{Type: "chat-message", Payload: chatMessagePayload{
		Scope:   resp.Scope,
		RoomId:  resp.Message.RoomId,
		Message: resp.Message,
	}}

	if resp.Scope == chat.ScopeRoom {
		state, err := c.roomService.GetState(ctx, &room.GetStateParams{RoomId: roomId})
		if err != nil {
			return fmt.Errorf("failed to get room state: %w", err)
		}
		c.broadcastToMembers(ctx, state.Members, output)
	} else {
		c.broadcastGlobal(ctx, output)
	}

	return nil
}
