package signal

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/classroom/internal/app"
	"github.com/dkeye/classroom/internal/app/orch"
	"github.com/dkeye/classroom/internal/core"
)

func (ctl *SignalWSController) writePump(ctx context.Context, id core.ConnID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn", string(id)).Msg("writePump ctx done")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(ctl.cfg.WriteWait))
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("conn", string(id)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.cfg.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("writePump ping error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, id core.ConnID, c *WsSignalConn) {
	defer func() {
		log.Debug().Str("module", "signal").Str("conn", string(id)).Msg("readPump closing")
		c.Close()
	}()

	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.cfg.PongWait))
	}
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		if ctx.Err() != nil {
			return
		}
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("readPump read error")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		if !ctl.limiter.Allow(id) {
			log.Debug().Str("module", "signal").Str("conn", string(id)).Msg("rate limited, event dropped")
			continue
		}
		ctl.handleSignal(id, data)
	}
}

// handleSignal hands a frame to the event router. Every failure is
// swallowed here; clients never learn why an event went nowhere.
func (ctl *SignalWSController) handleSignal(id core.ConnID, data []byte) {
	err := ctl.Orch.Dispatch(id, data)
	switch {
	case err == nil:
	case errors.Is(err, orch.ErrUnauthorized):
		log.Debug().Str("module", "signal").Str("conn", string(id)).Msg("dropped privileged event from unprivileged role")
	case errors.Is(err, app.ErrNotFound):
		log.Debug().Str("module", "signal").Str("conn", string(id)).Msg("event for connection no longer registered")
	default:
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("dropped event")
	}
}
