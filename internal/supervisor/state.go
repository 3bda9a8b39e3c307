package supervisor

import "sync"

// State of the supervised stream connection.
type State string

const (
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateBackoff      State = "backoff"
)

// ConnectionState tracks stream liveness as the supervisor sees it.
// In-memory only; a process restart starts fresh.
type ConnectionState struct {
	mu         sync.Mutex
	state      State
	reconnects int
}

// NewConnectionState starts in the connected state.
func NewConnectionState() *ConnectionState {
	return &ConnectionState{state: StateConnected}
}

// State returns the current state.
func (c *ConnectionState) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reconnects returns the cumulative restart attempt count.
func (c *ConnectionState) Reconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnects
}

func (c *ConnectionState) set(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *ConnectionState) incReconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnects++
	return c.reconnects
}
