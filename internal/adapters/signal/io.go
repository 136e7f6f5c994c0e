package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/observability/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.Opts.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		}
	}
}

// readPump owns the connection lifetime: when it returns the connection is
// unbound, the user is disconnected and the transport is closed.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, caller core.Caller, c *WsSignalConn) {
	var reason error
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(caller.ConnectionID)).Msg("readPump closing")
		ctl.Registry.Unbind(caller.ConnectionID)
		ctl.Presence.Disconnect(caller, reason)
		if ctl.Registry.ConnectionsOf(caller.Username) == 0 {
			ctl.Limiter.Forget(caller.Username)
		}
		cancel()
		c.Close()
	}()

	pongWait := ctl.Opts.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.Opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			reason = ctx.Err()
			log.Info().Str("module", "signal").Str("conn", string(caller.ConnectionID)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				reason = err
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("conn", string(caller.ConnectionID)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(caller, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(caller core.Caller, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	switch env.Type {
	case "signIn":
		ctl.handleSignIn(caller, c)
	case "sendPublicMessage":
		ctl.handleSendPublicMessage(caller, c, data)
	case "changeDisplayName":
		ctl.handleRename(caller, c, data)
	case "whoami":
		ctl.handleWhoAmI(caller, c)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

// allow applies the per-user limiter and answers rate_limited when it trips.
func (ctl *SignalWSController) allow(caller core.Caller, c *WsSignalConn, op string) bool {
	if ctl.Limiter.Allow(caller.Username) {
		return true
	}
	metrics.ChatRateLimited.WithLabelValues(op).Inc()
	log.Warn().Str("module", "signal").Str("conn", string(caller.ConnectionID)).Str("op", op).Msg("rate limited")
	ctl.sendError(c, "rate_limited")
	return false
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, code string) {
	ctl.sendJSON(c, map[string]any{
		"type":  "error",
		"error": code,
	})
}
