package stream

import (
	"errors"
	"strings"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrNoSubscription  = errors.New("no subscription created")
	ErrAlreadyStarted  = errors.New("already started")
)

// TimestampedMessage wraps raw frame data with a receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw frame bytes from the websocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// ClientConfig configures a websocket client.
type ClientConfig struct {
	URL          string        // Full websocket URL including stream path
	APIKey       string        // Venue API key, empty for public streams
	ProxyURL     string        // Outbound proxy; empty explicitly disables any system proxy
	PingTimeout  time.Duration // Max time without ping/pong before the connection is stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   1000,
	}
}

// SubscriberConfig configures the stream subscriber.
type SubscriberConfig struct {
	WSURL        string // Venue websocket base URL (e.g., wss://stream.binance.com:9443)
	APIKey       string
	ProxyURL     string
	PingTimeout  time.Duration
	WriteTimeout time.Duration
	BufferSize   int

	// Internal reconnect budget before the terminal error frame is
	// delivered to the handler.
	MaxReconnects int
	Backoff       Backoff
}

// DefaultSubscriberConfig returns sensible defaults.
func DefaultSubscriberConfig() SubscriberConfig {
	return SubscriberConfig{
		PingTimeout:   60 * time.Second,
		WriteTimeout:  5 * time.Second,
		BufferSize:    1000,
		MaxReconnects: 5,
		Backoff:       DefaultBackoff(),
	}
}

// StreamName maps a venue symbol to its trade stream name
// (e.g., "BTCUSDT" -> "btcusdt@trade").
func StreamName(symbol string) string {
	return strings.ToLower(symbol) + "@trade"
}
