package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/classroom/internal/app/orch"
	"github.com/dkeye/classroom/internal/auth"
	"github.com/dkeye/classroom/internal/config"
	"github.com/dkeye/classroom/internal/core"
)

type SignalWSController struct {
	Orch     *orch.Orchestrator
	Verifier auth.Verifier

	cfg      *config.Config
	limiter  *EventRateLimiter
	upgrader websocket.Upgrader
	newID    func() core.ConnID
}

func NewSignalWSController(o *orch.Orchestrator, v auth.Verifier, cfg *config.Config) *SignalWSController {
	return &SignalWSController{
		Orch:     o,
		Verifier: v,
		cfg:      cfg,
		limiter:  NewEventRateLimiter(cfg.RateLimit, cfg.RateInterval),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return cfg.OriginAllowed(r.Header.Get("Origin"))
			},
		},
		newID: func() core.ConnID { return core.ConnID(uuid.NewString()) },
	}
}

// WsSignalConn is the transport endpoint of one participant. Frames are
// queued on send and written by the connection's write pump.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{conn: ws, send: make(chan core.Frame, buffer)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnectionClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

// HandleSignal runs one participant session from handshake to disconnect.
// A rejected handshake answers 401 with no body and never upgrades.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	session, err := ctl.handshake(c.Request)
	if err != nil {
		logRejection(c.Request, err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.cfg.ReadLimit)

	conn := newWsSignalConn(ws, ctl.cfg.SendBuffer)
	record := &core.Connection{
		ID:            ctl.newID(),
		ParticipantID: session.ParticipantID,
		Session:       session,
		ConnectedAt:   time.Now().UTC(),
		Signal:        conn,
	}
	log.Info().
		Str("module", "signal").
		Str("conn", string(record.ID)).
		Str("participant", record.ParticipantID).
		Str("room", session.RoomKey().String()).
		Msg("new WS connection")

	if err := ctl.Orch.Admit(record); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(record.ID)).Msg("admit")
		conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg conc.WaitGroup
	wg.Go(func() {
		defer cancel()
		ctl.writePump(ctx, record.ID, conn)
	})
	wg.Go(func() {
		defer cancel()
		ctl.readPump(ctx, record.ID, conn)
	})
	wg.Wait()

	ctl.Orch.Disconnect(record.ID)
	ctl.limiter.Forget(record.ID)
	log.Info().Str("module", "signal").Str("conn", string(record.ID)).Msg("connection closed")
}
