package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xsync/server/pkg/ctxlogger"
	"github.com/xsync/server/pkg/wsrouter"
)

func (c *Controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.rateLimitWSMw())
	mux.Use(c.loggerWSMw())

	mux.Handle("sync-state", c.handleSyncState)
	mux.Handle("request-sync", c.handleRequestSync)
	mux.Handle("queue-add", c.handleQueueAdd)
	mux.Handle("chat-message", c.handleChatMessage)

	// dropped messages are absorbed locally, never surfaced to the peer
	mux.OnError(func(ctx context.Context, messageType string, err error) {
		c.logger.DebugContext(ctx, "message dropped", "type", messageType, "error", err)
	})

	return mux
}

// rateLimitWSMw silently drops messages from connections exceeding their
// inbound budget.
func (c *Controller) rateLimitWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc) wsrouter.HandlerFunc {
		return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
			if !c.limiter.Allow(c.getConnectionIdFromCtx(ctx)) {
				return nil
			}
			return next(ctx, conn, payload)
		}
	}
}

func (c *Controller) loggerWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc) wsrouter.HandlerFunc {
		return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))

			start := time.Now()
			err := next(ctx, conn, payload)

			c.logger.DebugContext(ctx, "message handled",
				"processing_time_us", time.Since(start).Microseconds(),
			)

			return err
		}
	}
}
