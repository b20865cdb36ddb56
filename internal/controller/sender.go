package controller

import (
	"context"

	"github.com/gorilla/websocket"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c *Controller) writeToConn(ctx context.Context, conn *websocket.Conn, output *Output) {
	if err := conn.WriteJSON(output); err != nil {
		c.logger.DebugContext(ctx, "failed to write to connection", "type", output.Type, "error", err)
	}
}

// broadcastToMembers delivers the output to every listed member that still
// has a live connection. Delivery is best effort.
func (c *Controller) broadcastToMembers(ctx context.Context, memberIds []string, output *Output) {
	for _, memberId := range memberIds {
		conn, err := c.connRepo.GetConn(memberId)
		if err != nil {
			continue
		}
		c.writeToConn(ctx, conn, output)
	}
}

// broadcastGlobal delivers the output to every connection across all rooms.
func (c *Controller) broadcastGlobal(ctx context.Context, output *Output) {
	for _, conn := range c.connRepo.GetAllConns() {
		c.writeToConn(ctx, conn, output)
	}
}
