package controller

import "context"

type contextKey int

const (
	roomIdCtxKey contextKey = iota
	connectionIdCtxKey
)

func (c *Controller) getRoomIdFromCtx(ctx context.Context) string {
	roomId, _ := ctx.Value(roomIdCtxKey).(string)
	return roomId
}

func (c *Controller) getConnectionIdFromCtx(ctx context.Context) string {
	connectionId, _ := ctx.Value(connectionIdCtxKey).(string)
	return connectionId
}
