package app

import (
	"encoding/json"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/observability/metrics"
	"github.com/rs/zerolog/log"
)

// Fanout implements core.BroadcastGateway over the connection registry.
// Each event is encoded once; sends never block.
type Fanout struct {
	Registry *Registry
	Policy   Policy
}

func NewFanout(reg *Registry, policy Policy) *Fanout {
	return &Fanout{Registry: reg, Policy: policy}
}

func (f *Fanout) Broadcast(aud core.Audience, ev core.Event) core.PublishResult {
	res := core.PublishResult{}
	frame, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.fanout").Str("event", string(ev.Name)).Msg("marshal event")
		return res
	}

	for _, snap := range f.Registry.Connections() {
		if !aud.Includes(snap.ID) {
			continue
		}
		if err := snap.Signal.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, snap.ID)
			continue
		}
		res.SendTo++
	}
	metrics.ChatBroadcastFrames.WithLabelValues(string(ev.Name)).Add(float64(res.SendTo))

	if len(res.Dropped) > 0 {
		metrics.ChatBroadcastDropped.WithLabelValues(string(ev.Name)).Add(float64(len(res.Dropped)))
		f.applyPolicy(ev, res.Dropped)
	}
	return res
}

func (f *Fanout) applyPolicy(ev core.Event, dropped []core.ConnectionID) {
	if f.Policy == nil {
		return
	}
	for _, id := range dropped {
		switch f.Policy.OnBackPressure(id, ev) {
		case KickMember:
			if f.Registry.Kick(id) {
				metrics.ChatKickedConnections.Inc()
			}
		case DropFrame, NoAction:
			log.Warn().Str("module", "app.fanout").Str("conn", string(id)).Str("event", string(ev.Name)).Msg("frame dropped")
		}
	}
}
