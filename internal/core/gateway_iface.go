package core

// Audience selects the connections an event is sent to.
type Audience struct {
	except ConnectionID
}

// All targets every registered connection.
func All() Audience { return Audience{} }

// AllExcept targets every registered connection but one.
func AllExcept(id ConnectionID) Audience { return Audience{except: id} }

func (a Audience) Includes(id ConnectionID) bool {
	return a.except == "" || a.except != id
}

func (a Audience) String() string {
	if a.except == "" {
		return "all"
	}
	return "all-except:" + string(a.except)
}

// PublishResult reports delivery stats/backpressure to the caller.
type PublishResult struct {
	SendTo  int
	Dropped []ConnectionID
}

// BroadcastGateway is the only way the core reaches clients.
// Delivery is best effort; implementations must not block on slow clients.
type BroadcastGateway interface {
	Broadcast(aud Audience, ev Event) PublishResult
}
