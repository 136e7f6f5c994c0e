package signal

import (
	"encoding/json"

	"github.com/dkeye/Chat/internal/app/presence"
	"github.com/dkeye/Chat/internal/core"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleSendPublicMessage(
	caller core.Caller,
	conn *WsSignalConn,
	data []byte,
) {
	type messagePayload struct {
		Type string `json:"type"`
		Body string `json:"body"`
	}
	var p messagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad message payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if !ctl.allow(caller, conn, "send_public_message") {
		return
	}
	if err := ctl.Presence.SendPublicMessage(caller, p.Body); err != nil {
		ctl.sendError(conn, presence.Reason(err))
	}
}

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}
