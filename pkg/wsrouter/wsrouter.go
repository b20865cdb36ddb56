// Package wsrouter routes JSON messages of the form {"type": ..., "payload": ...}
// read from a websocket connection to registered handlers.
package wsrouter

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error

type Middleware func(next HandlerFunc) HandlerFunc

type WSRouter struct {
	routes      map[string]HandlerFunc
	middlewares []Middleware
	errHandler  func(ctx context.Context, messageType string, err error)
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

func (r *WSRouter) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

// OnError registers a callback invoked when a handler returns an error.
// Errors are never written back to the connection.
func (r *WSRouter) OnError(fn func(ctx context.Context, messageType string, err error)) {
	r.errHandler = fn
}

// ServeConn reads messages from conn until a read error occurs and dispatches
// them to the registered handlers. Messages with an unknown type are ignored.
// Returns the read error that ended the loop.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		handler, exists := r.routes[msg.Type]
		if !exists {
			continue
		}

		for i := len(r.middlewares) - 1; i >= 0; i-- {
			handler = r.middlewares[i](handler)
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)
		if err := handler(msgCtx, conn, msg.Payload); err != nil && r.errHandler != nil {
			r.errHandler(msgCtx, msg.Type, err)
		}
	}
}
