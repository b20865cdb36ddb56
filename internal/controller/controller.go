package controller

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/xsync/server/internal/catalog"
	"github.com/xsync/server/internal/repository/queue"
	"github.com/xsync/server/internal/service/chat"
	"github.com/xsync/server/internal/service/room"
	"github.com/xsync/server/pkg/ratelimit"
	"github.com/xsync/server/pkg/validator"
	"github.com/xsync/server/pkg/wsrouter"
)

type iRoomService interface {
	Attach(context.Context, *room.AttachParams) room.AttachResponse
	Detach(context.Context, *room.DetachParams) (room.DetachResponse, error)
	AssignHost(context.Context, *room.AssignHostParams) (room.AssignHostResponse, error)
	ApplyStateUpdate(context.Context, *room.ApplyStateUpdateParams) (room.ApplyStateUpdateResponse, error)
	RequestSync(context.Context, *room.RequestSyncParams) (room.RequestSyncResponse, error)
	AddVideo(context.Context, *room.AddVideoParams) (room.AddVideoResponse, error)
	GetState(context.Context, *room.GetStateParams) (room.Snapshot, error)
	List(context.Context) []room.Info
}

type iChatService interface {
	PostMessage(context.Context, *chat.PostMessageParams) (chat.PostMessageResponse, error)
	Backfill(ctx context.Context, roomId string) chat.BackfillResponse
	DropRoom(ctx context.Context, roomId string)
}

type iQueueRepo interface {
	Add(video queue.Video) []queue.Video
	List() []queue.Video
	Clear()
}

type iConnRepo interface {
	Add(conn *websocket.Conn, connectionId, roomId string) error
	RemoveByConn(conn *websocket.Conn) (string, string, error)
	GetConn(connectionId string) (*websocket.Conn, error)
	GetAllConns() []*websocket.Conn
}

type Config struct {
	// PublicDir is the directory served at /; empty disables static serving.
	PublicDir string
	// MessageRate is the per-connection inbound websocket message budget in
	// messages per second.
	MessageRate float64
}

type Controller struct {
	roomService iRoomService
	chatService iChatService
	queueRepo   iQueueRepo
	connRepo    iConnRepo
	catalog     catalog.Provider
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	limiter     *ratelimit.Limiter
	wsMux       *wsrouter.WSRouter
	logger      *slog.Logger
	publicDir   string

	// mu serializes every connection event (join, inbound message,
	// disconnect) into a single logical stream, so each handler mutates and
	// fans out room state without interleaving.
	mu sync.Mutex
}

func NewController(
	cfg *Config,
	roomService iRoomService,
	chatService iChatService,
	queueRepo iQueueRepo,
	connRepo iConnRepo,
	catalogProvider catalog.Provider,
	logger *slog.Logger,
) *Controller {
	c := &Controller{
		roomService: roomService,
		chatService: chatService,
		queueRepo:   queueRepo,
		connRepo:    connRepo,
		catalog:     catalogProvider,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate:  validator.New(),
		limiter:   ratelimit.New(cfg.MessageRate),
		logger:    logger,
		publicDir: cfg.PublicDir,
	}
	c.wsMux = c.getWSRouter()

	return c
}

// Close releases the controller's background resources, currently the rate
// limiter's cleanup goroutine. Call once after the http server is down.
func (c *Controller) Close() {
	c.limiter.Stop()
}
