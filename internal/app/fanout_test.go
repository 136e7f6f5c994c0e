package app

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/dkeye/Chat/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func init() {
	log.Logger = zerolog.New(io.Discard)
}

type fakeSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (s *fakeSignal) TrySend(f core.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("connection closed")
	}
	if s.full {
		return errors.New("backpressure")
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *fakeSignal) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSignal) types(t *testing.T) []string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.frames))
	for _, f := range s.frames {
		var env struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(f, &env))
		out = append(out, env.Type)
	}
	return out
}

func bind(reg *Registry, id string, sig core.SignalConnection, cancel func()) {
	reg.Bind(core.Caller{ConnectionID: core.ConnectionID(id), Username: id + "@x.com"}, sig, cancel)
}

func TestFanout_RespectsAudience(t *testing.T) {
	reg := NewRegistry()
	a, b := &fakeSignal{}, &fakeSignal{}
	bind(reg, "a", a, nil)
	bind(reg, "b", b, nil)
	f := NewFanout(reg, SimplePolicy{})

	res := f.Broadcast(core.All(), core.UserConnected("a@x.com"))
	require.Equal(t, 2, res.SendTo)
	require.Empty(t, res.Dropped)

	res = f.Broadcast(core.AllExcept("a"), core.UserDisconnected("a@x.com"))
	require.Equal(t, 1, res.SendTo)

	require.Equal(t, []string{"userConnected"}, a.types(t))
	require.Equal(t, []string{"userConnected", "userDisconnected"}, b.types(t))
}

func TestFanout_KicksSlowConsumer(t *testing.T) {
	reg := NewRegistry()
	fast, slow := &fakeSignal{}, &fakeSignal{full: true}
	canceled := false
	bind(reg, "fast", fast, nil)
	bind(reg, "slow", slow, func() { canceled = true })
	f := NewFanout(reg, SimplePolicy{})

	res := f.Broadcast(core.All(), core.ActiveUserListUpdated(nil))

	require.Equal(t, 1, res.SendTo)
	require.Equal(t, []core.ConnectionID{"slow"}, res.Dropped)
	require.True(t, canceled)
	require.True(t, slow.closed)
	require.False(t, fast.closed)
}

func TestFanout_LenientPolicyKeepsConnection(t *testing.T) {
	reg := NewRegistry()
	slow := &fakeSignal{full: true}
	bind(reg, "slow", slow, nil)
	f := NewFanout(reg, LenientPolicy{})

	res := f.Broadcast(core.All(), core.UserConnected("x@x.com"))

	require.Len(t, res.Dropped, 1)
	require.False(t, slow.closed)
}

func TestFanout_NoConnections(t *testing.T) {
	f := NewFanout(NewRegistry(), nil)
	res := f.Broadcast(core.All(), core.UserConnected("x@x.com"))
	require.Zero(t, res.SendTo)
	require.Empty(t, res.Dropped)
}

func TestRegistry_BindUnbindKick(t *testing.T) {
	reg := NewRegistry()
	sig := &fakeSignal{}
	bind(reg, "c1", sig, nil)

	require.Equal(t, 1, reg.Count())

	require.True(t, reg.Kick("c1"))
	require.True(t, sig.closed)

	require.Equal(t, 1, reg.ConnectionsOf("c1@x.com"))
	require.Zero(t, reg.ConnectionsOf("other@x.com"))

	require.True(t, reg.Unbind("c1"))
	require.False(t, reg.Unbind("c1"))
	require.False(t, reg.Kick("c1"))
	require.Zero(t, reg.Count())
}
