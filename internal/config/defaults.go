package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultWSURL  = "wss://stream.binance.com:9443"
	DefaultSymbol = "BTCUSDT"

	DefaultDBPort    = 5432
	DefaultDBName    = "crypto"
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 4
	DefaultMinConns  = 1

	DefaultBufferSize        = 1000
	DefaultPingTimeout       = 60 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultMaxReconnects     = 5
	DefaultReconnectBaseWait = 1 * time.Second
	DefaultReconnectMaxWait  = 30 * time.Second

	DefaultPollInterval = 1 * time.Second
	DefaultRestartWait  = 1 * time.Second
	DefaultBackoff      = 60 * time.Second
	DefaultCooldown     = 60 * time.Second
	DefaultErrorDamp    = 1 * time.Second

	DefaultHealthPort = 8080
	DefaultLogLevel   = "info"
)

func (c *ReaderConfig) applyDefaults() {
	// Exchange defaults
	if c.Exchange.WSURL == "" {
		c.Exchange.WSURL = DefaultWSURL
	}
	if c.Exchange.Symbol == "" {
		c.Exchange.Symbol = DefaultSymbol
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.Name == "" {
		c.Database.Name = DefaultDBName
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Stream defaults
	if c.Stream.BufferSize == 0 {
		c.Stream.BufferSize = DefaultBufferSize
	}
	if c.Stream.PingTimeout == 0 {
		c.Stream.PingTimeout = DefaultPingTimeout
	}
	if c.Stream.WriteTimeout == 0 {
		c.Stream.WriteTimeout = DefaultWriteTimeout
	}
	if c.Stream.MaxReconnects == 0 {
		c.Stream.MaxReconnects = DefaultMaxReconnects
	}
	if c.Stream.ReconnectBaseWait == 0 {
		c.Stream.ReconnectBaseWait = DefaultReconnectBaseWait
	}
	if c.Stream.ReconnectMaxWait == 0 {
		c.Stream.ReconnectMaxWait = DefaultReconnectMaxWait
	}

	// Supervisor defaults
	if c.Supervisor.PollInterval == 0 {
		c.Supervisor.PollInterval = DefaultPollInterval
	}
	if c.Supervisor.RestartWait == 0 {
		c.Supervisor.RestartWait = DefaultRestartWait
	}
	if c.Supervisor.Backoff == 0 {
		c.Supervisor.Backoff = DefaultBackoff
	}
	if c.Supervisor.Cooldown == 0 {
		c.Supervisor.Cooldown = DefaultCooldown
	}
	if c.Supervisor.ErrorDamp == 0 {
		c.Supervisor.ErrorDamp = DefaultErrorDamp
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
