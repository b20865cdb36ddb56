package inmemory

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/xsync/server/internal/repository/connection"
)

// Repo maps live websocket connections to their connection id and room id.
type Repo struct {
	mu      sync.RWMutex
	byId    map[string]*websocket.Conn
	byConn  map[*websocket.Conn]string
	roomIds map[string]string
}

func NewRepo() *Repo {
	return &Repo{
		byId:    make(map[string]*websocket.Conn),
		byConn:  make(map[*websocket.Conn]string),
		roomIds: make(map[string]string),
	}
}

func (r *Repo) Add(conn *websocket.Conn, connectionId, roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byConn[conn] != "" || r.byId[connectionId] != nil {
		return connection.ErrAlreadyExists
	}

	r.byId[connectionId] = conn
	r.byConn[conn] = connectionId
	r.roomIds[connectionId] = roomId

	return nil
}

// RemoveByConn drops and closes the connection, returning its connection id
// and room id.
func (r *Repo) RemoveByConn(conn *websocket.Conn) (string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	connectionId, ok := r.byConn[conn]
	if !ok {
		return "", "", connection.ErrNotFound
	}
	conn.Close()

	roomId := r.roomIds[connectionId]
	delete(r.byId, connectionId)
	delete(r.byConn, conn)
	delete(r.roomIds, connectionId)

	return connectionId, roomId, nil
}

func (r *Repo) GetConn(connectionId string) (*websocket.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.byId[connectionId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

// GetAllConns returns every live connection across all rooms.
func (r *Repo) GetAllConns() []*websocket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*websocket.Conn, 0, len(r.byId))
	for _, conn := range r.byId {
		conns = append(conns, conn)
	}

	return conns
}
