package signal

import (
	"encoding/json"

	"github.com/dkeye/Chat/internal/app/presence"
	"github.com/dkeye/Chat/internal/core"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleSignIn(caller core.Caller, conn *WsSignalConn) {
	if !ctl.allow(caller, conn, "sign_in") {
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(caller.ConnectionID)).Msg("signIn")
	if err := ctl.Presence.SignIn(caller); err != nil {
		ctl.sendError(conn, presence.Reason(err))
	}
}

func (ctl *SignalWSController) handleRename(
	caller core.Caller,
	conn *WsSignalConn,
	data []byte,
) {
	type renamePayload struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	var p renamePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad rename payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if !ctl.allow(caller, conn, "change_display_name") {
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(caller.ConnectionID)).Str("name", p.Name).Msg("rename")
	if err := ctl.Presence.ChangeDisplayName(caller, p.Name); err != nil {
		ctl.sendError(conn, presence.Reason(err))
	}
}

func (ctl *SignalWSController) handleWhoAmI(
	caller core.Caller,
	conn *WsSignalConn,
) {
	resp := struct {
		Type         string            `json:"type"`
		Username     string            `json:"username"`
		ConnectionID core.ConnectionID `json:"connectionId"`
		DisplayName  string            `json:"displayName,omitempty"`
	}{
		Type:         "whoami",
		Username:     caller.Username,
		ConnectionID: caller.ConnectionID,
	}
	for _, u := range ctl.Presence.ActiveUsers() {
		if u.Username == caller.Username {
			resp.DisplayName = u.DisplayName
			break
		}
	}
	ctl.sendJSON(conn, resp)
}
